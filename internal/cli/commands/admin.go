package commands

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// NewAdminCmd creates the admin command group. Every subcommand checks
// the admin role locally before any request goes out; a non-admin gets
// an access-denied error without touching the backend.
func NewAdminCmd() *cobra.Command {
	var backendAlias string

	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Administer bookings and view statistics",
	}

	cmd.PersistentFlags().StringVar(&backendAlias, "backend", "", "Backend alias (uses the selected backend if not specified)")

	cmd.AddCommand(newAdminStatsCmd(&backendAlias))
	cmd.AddCommand(newAdminBookingsCmd(&backendAlias))
	cmd.AddCommand(newAdminSetStatusCmd(&backendAlias))

	return cmd
}

func newAdminStatsCmd(backendAlias *string) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show aggregate booking statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdminStats(*backendAlias)
		},
	}
}

func runAdminStats(backendAlias string) error {
	e, err := newEnv(backendAlias)
	if err != nil {
		return err
	}

	ctx := context.Background()
	if _, err := e.shell.RequireAdmin(ctx); err != nil {
		return err
	}

	stats, err := e.shell.Client().AdminStats(ctx)
	if err != nil {
		return fmt.Errorf("failed to load statistics: %w", err)
	}

	fmt.Fprintf(e.out, "Total bookings:        %d\n", stats.TotalBookings)
	fmt.Fprintf(e.out, "Pending bookings:      %d\n", stats.PendingBookings)
	fmt.Fprintf(e.out, "Total revenue:         $%.2f\n", stats.TotalRevenue)
	fmt.Fprintf(e.out, "Total waste collected: %.1f kg\n", stats.TotalWasteCollected)
	return nil
}

func newAdminBookingsCmd(backendAlias *string) *cobra.Command {
	return &cobra.Command{
		Use:   "bookings",
		Short: "List all bookings across users",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdminBookings(*backendAlias)
		},
	}
}

func runAdminBookings(backendAlias string) error {
	e, err := newEnv(backendAlias)
	if err != nil {
		return err
	}

	ctx := context.Background()
	if _, err := e.shell.RequireAdmin(ctx); err != nil {
		return err
	}

	bookings, err := e.shell.Client().AdminBookings(ctx)
	if err != nil {
		return fmt.Errorf("failed to list bookings: %w", err)
	}

	if len(bookings) == 0 {
		fmt.Fprintln(e.out, "No bookings found.")
		return nil
	}

	w := tabwriter.NewWriter(e.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tUSER\tWASTE TYPE\tWEIGHT\tPRICE\tSTATUS\tPAYMENT")
	fmt.Fprintln(w, "──\t────\t──────────\t──────\t─────\t──────\t───────")

	for _, b := range bookings {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.1f kg\t$%.2f\t%s\t%s\n",
			b.ID, b.UserID, b.WasteTypeName, b.EstimatedWeight, b.EstimatedPrice,
			b.Status, b.PaymentStatus)
	}

	return w.Flush()
}

func newAdminSetStatusCmd(backendAlias *string) *cobra.Command {
	return &cobra.Command{
		Use:   "set-status <booking-id> <status>",
		Short: "Update a booking's status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdminSetStatus(*backendAlias, args[0], args[1])
		},
	}
}

func runAdminSetStatus(backendAlias, id, status string) error {
	e, err := newEnv(backendAlias)
	if err != nil {
		return err
	}

	ctx := context.Background()
	if _, err := e.shell.RequireAdmin(ctx); err != nil {
		return err
	}

	booking, err := e.shell.Client().UpdateBookingStatus(ctx, id, status)
	if err != nil {
		return fmt.Errorf("failed to update status: %w", err)
	}

	fmt.Fprintf(e.out, "✓ Booking %s is now %s\n", booking.ID, booking.Status)
	return nil
}
