package commands

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ecocollect-dev/ecocollect/internal/api"
)

// NewBookingsCmd creates the bookings command group
func NewBookingsCmd() *cobra.Command {
	var backendAlias, statusFilter string

	cmd := &cobra.Command{
		Use:     "bookings",
		Aliases: []string{"ls"},
		Short:   "List your bookings",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBookingsList(backendAlias, statusFilter)
		},
	}

	cmd.PersistentFlags().StringVar(&backendAlias, "backend", "", "Backend alias (uses the selected backend if not specified)")
	cmd.Flags().StringVar(&statusFilter, "status", "", "Filter by status (pending, confirmed, in-transit, completed, cancelled)")

	cmd.AddCommand(newBookingShowCmd(&backendAlias))
	cmd.AddCommand(newBookingDeleteCmd(&backendAlias))

	return cmd
}

func runBookingsList(backendAlias, statusFilter string) error {
	e, err := newEnv(backendAlias)
	if err != nil {
		return err
	}

	ctx := context.Background()
	if _, err := e.shell.RequireAuth(ctx); err != nil {
		return err
	}

	bookings, err := e.shell.Client().ListBookings(ctx)
	if err != nil {
		return fmt.Errorf("failed to list bookings: %w", err)
	}

	if statusFilter != "" {
		filtered := bookings[:0]
		for _, b := range bookings {
			if b.Status == statusFilter {
				filtered = append(filtered, b)
			}
		}
		bookings = filtered
	}

	if len(bookings) == 0 {
		fmt.Fprintln(e.out, "No bookings found.")
		fmt.Fprintln(e.out, "\nCreate one with: ecocollect book")
		return nil
	}

	return printBookingTable(e, bookings)
}

func printBookingTable(e *env, bookings []api.Booking) error {
	w := tabwriter.NewWriter(e.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tWASTE TYPE\tWEIGHT\tPRICE\tPICKUP\tSTATUS\tPAYMENT")
	fmt.Fprintln(w, "──\t──────────\t──────\t─────\t──────\t──────\t───────")

	for _, b := range bookings {
		fmt.Fprintf(w, "%s\t%s\t%.1f kg\t$%.2f\t%s %s\t%s\t%s\n",
			b.ID, b.WasteTypeName, b.EstimatedWeight, b.EstimatedPrice,
			b.PickupDate, b.PickupTime, b.Status, b.PaymentStatus)
	}

	return w.Flush()
}

func newBookingShowCmd(backendAlias *string) *cobra.Command {
	return &cobra.Command{
		Use:   "show <booking-id>",
		Short: "Show one booking",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBookingShow(*backendAlias, args[0])
		},
	}
}

func runBookingShow(backendAlias, id string) error {
	e, err := newEnv(backendAlias)
	if err != nil {
		return err
	}

	ctx := context.Background()
	if _, err := e.shell.RequireAuth(ctx); err != nil {
		return err
	}

	b, err := e.shell.Client().GetBooking(ctx, id)
	if err != nil {
		if api.IsNotFound(err) {
			return fmt.Errorf("booking '%s' not found", id)
		}
		return fmt.Errorf("failed to load booking: %w", err)
	}

	fmt.Fprintf(e.out, "Booking %s\n\n", b.ID)
	fmt.Fprintf(e.out, "  Waste type:  %s\n", b.WasteTypeName)
	fmt.Fprintf(e.out, "  Weight:      %.1f kg\n", b.EstimatedWeight)
	fmt.Fprintf(e.out, "  Price:       $%.2f\n", b.EstimatedPrice)
	fmt.Fprintf(e.out, "  Pickup:      %s at %s\n", b.PickupDate, b.PickupTime)
	fmt.Fprintf(e.out, "  Address:     %s\n", b.PickupAddress)
	if b.Notes != "" {
		fmt.Fprintf(e.out, "  Notes:       %s\n", b.Notes)
	}
	fmt.Fprintf(e.out, "  Status:      %s\n", b.Status)
	fmt.Fprintf(e.out, "  Payment:     %s\n", b.PaymentStatus)

	if b.PaymentStatus != api.PaymentPaid && b.Status != api.BookingCancelled {
		fmt.Fprintf(e.out, "\nPay with: ecocollect pay %s\n", b.ID)
	}
	return nil
}

func newBookingDeleteCmd(backendAlias *string) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <booking-id>",
		Short: "Delete a pending or cancelled booking",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBookingDelete(*backendAlias, args[0])
		},
	}
}

func runBookingDelete(backendAlias, id string) error {
	e, err := newEnv(backendAlias)
	if err != nil {
		return err
	}

	ctx := context.Background()
	if _, err := e.shell.RequireAuth(ctx); err != nil {
		return err
	}

	if err := e.shell.Client().DeleteBooking(ctx, id); err != nil {
		// The backend rejects deletion of bookings in progress; surface
		// its reason when it gave one.
		return fmt.Errorf("%s", api.Detail(err, "failed to delete booking"))
	}

	fmt.Fprintf(e.out, "✓ Booking %s deleted\n", id)
	return nil
}
