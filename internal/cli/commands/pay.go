package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ecocollect-dev/ecocollect/internal/api"
)

// Payment status polling: a bounded number of attempts at a fixed
// interval, then give up with guidance.
const (
	paymentPollInterval = 2 * time.Second
	paymentPollAttempts = 5
)

// NewPayCmd creates the pay command group
func NewPayCmd() *cobra.Command {
	var backendAlias string
	var noOpen bool

	cmd := &cobra.Command{
		Use:   "pay <booking-id>",
		Short: "Pay for a booking online",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPay(backendAlias, args[0], noOpen)
		},
	}

	cmd.PersistentFlags().StringVar(&backendAlias, "backend", "", "Backend alias (uses the selected backend if not specified)")
	cmd.Flags().BoolVar(&noOpen, "no-open", false, "Print the checkout URL instead of opening a browser")

	cmd.AddCommand(newPayStatusCmd(&backendAlias))

	return cmd
}

func runPay(backendAlias, bookingID string, noOpen bool) error {
	e, err := newEnv(backendAlias)
	if err != nil {
		return err
	}

	ctx := context.Background()
	if _, err := e.shell.RequireAuth(ctx); err != nil {
		return err
	}

	session, err := e.shell.Client().CheckoutPayment(ctx, bookingID)
	if err != nil {
		return fmt.Errorf("%s", api.Detail(err, "failed to create payment session"))
	}

	fmt.Fprintf(e.out, "Payment session: %s\n", session.SessionID)
	fmt.Fprintf(e.out, "Checkout URL:    %s\n", session.URL)

	if !noOpen {
		if err := openBrowser(session.URL); err != nil {
			fmt.Fprintf(e.out, "Warning: failed to open browser: %v\n", err)
		}
	}

	fmt.Fprintf(e.out, "\nCheck the result with: ecocollect pay status %s --watch\n", session.SessionID)
	return nil
}

func newPayStatusCmd(backendAlias *string) *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "status <session-id>",
		Short: "Check a payment session's status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPayStatus(*backendAlias, args[0], watch)
		},
	}

	cmd.Flags().BoolVar(&watch, "watch", false, "Poll until the payment settles or attempts run out")

	return cmd
}

func runPayStatus(backendAlias, sessionID string, watch bool) error {
	e, err := newEnv(backendAlias)
	if err != nil {
		return err
	}

	ctx := context.Background()
	if _, err := e.shell.RequireAuth(ctx); err != nil {
		return err
	}

	attempts := 1
	if watch {
		attempts = paymentPollAttempts
	}

	for i := 0; i < attempts; i++ {
		if i > 0 {
			time.Sleep(paymentPollInterval)
		}

		status, err := e.shell.Client().PaymentStatus(ctx, sessionID)
		if err != nil {
			return fmt.Errorf("%s", api.Detail(err, "failed to check payment status"))
		}

		switch {
		case status.PaymentStatus == api.PaymentPaid:
			fmt.Fprintf(e.out, "✓ Payment received: $%.2f\n", status.Amount)
			return nil
		case status.Status == api.PaymentExpired:
			return fmt.Errorf("payment session expired, start again with 'ecocollect pay'")
		default:
			fmt.Fprintf(e.out, "Payment pending (%s)...\n", status.Status)
		}
	}

	if watch {
		fmt.Fprintln(e.out, "Still pending. Check again later with 'ecocollect pay status'.")
	}
	return nil
}
