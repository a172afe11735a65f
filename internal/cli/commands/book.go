package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/ecocollect-dev/ecocollect/internal/api"
)

var bookingValidate = validator.New()

// NewBookCmd creates the book command
func NewBookCmd() *cobra.Command {
	var backendAlias, wasteTypeID, pickupDate, pickupTime, address, notes string
	var weight float64
	var yes bool

	cmd := &cobra.Command{
		Use:   "book",
		Short: "Create a new pickup booking",
		Long: `Create a new waste pickup booking.

Omitting --waste-type starts an interactive picker. The estimated
price (weight × price per kg) is shown before anything is submitted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBook(bookOptions{
				backendAlias: backendAlias,
				wasteTypeID:  wasteTypeID,
				weight:       weight,
				pickupDate:   pickupDate,
				pickupTime:   pickupTime,
				address:      address,
				notes:        notes,
				yes:          yes,
			})
		},
	}

	cmd.Flags().StringVar(&backendAlias, "backend", "", "Backend alias (uses the selected backend if not specified)")
	cmd.Flags().StringVar(&wasteTypeID, "waste-type", "", "Waste type id (interactive picker when omitted)")
	cmd.Flags().Float64Var(&weight, "weight", 0, "Estimated weight in kg")
	cmd.Flags().StringVar(&pickupDate, "date", "", "Pickup date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&pickupTime, "time", "", "Pickup time (HH:MM)")
	cmd.Flags().StringVar(&address, "address", "", "Pickup address")
	cmd.Flags().StringVar(&notes, "notes", "", "Notes for the driver")
	cmd.Flags().BoolVar(&yes, "yes", false, "Skip the confirmation prompt")

	return cmd
}

type bookOptions struct {
	backendAlias string
	wasteTypeID  string
	weight       float64
	pickupDate   string
	pickupTime   string
	address      string
	notes        string
	yes          bool
}

func runBook(opts bookOptions) error {
	e, err := newEnv(opts.backendAlias)
	if err != nil {
		return err
	}

	ctx := context.Background()
	if _, err := e.shell.RequireAuth(ctx); err != nil {
		return err
	}

	// The catalog is needed either way: for the picker and for the
	// price estimate.
	types, err := e.shell.Client().WasteTypes(ctx)
	if err != nil {
		return fmt.Errorf("failed to load waste types: %w", err)
	}
	if len(types) == 0 {
		return fmt.Errorf("no waste types available, run 'ecocollect seed' first")
	}

	selected, err := resolveWasteType(types, opts.wasteTypeID)
	if err != nil {
		return err
	}

	req := api.CreateBookingRequest{
		WasteTypeID:     selected.ID,
		EstimatedWeight: opts.weight,
		PickupDate:      opts.pickupDate,
		PickupTime:      opts.pickupTime,
		PickupAddress:   opts.address,
		Notes:           opts.notes,
	}

	// Validation happens locally: an incomplete booking never reaches
	// the server.
	if err := validateBooking(req); err != nil {
		return err
	}

	estimate := estimatePrice(selected, req.EstimatedWeight)
	fmt.Fprintf(e.out, "Waste type:      %s ($%.2f per kg)\n", selected.Name, selected.PricePerKG)
	fmt.Fprintf(e.out, "Estimated price: $%.2f (%.1f kg)\n", estimate, req.EstimatedWeight)

	if !opts.yes {
		confirm := promptui.Prompt{
			Label:     "Create this booking",
			IsConfirm: true,
		}
		if _, err := confirm.Run(); err != nil {
			fmt.Fprintln(e.out, "Cancelled.")
			return nil
		}
	}

	booking, err := e.shell.Client().CreateBooking(ctx, req)
	if err != nil {
		return fmt.Errorf("%s", api.Detail(err, "failed to create booking"))
	}

	fmt.Fprintf(e.out, "✓ Booking created: %s\n", booking.ID)
	fmt.Fprintf(e.out, "  %s, %.1f kg on %s at %s ($%.2f)\n",
		booking.WasteTypeName, booking.EstimatedWeight, booking.PickupDate, booking.PickupTime, booking.EstimatedPrice)
	return nil
}

// validateBooking checks required booking fields before submission.
func validateBooking(req api.CreateBookingRequest) error {
	if err := bookingValidate.Struct(req); err != nil {
		var missing []string
		var verrs validator.ValidationErrors
		if ok := asValidationErrors(err, &verrs); ok {
			for _, fe := range verrs {
				missing = append(missing, fieldFlag(fe.Field()))
			}
			return fmt.Errorf("missing or invalid fields: %s", strings.Join(missing, ", "))
		}
		return err
	}
	return nil
}

func asValidationErrors(err error, target *validator.ValidationErrors) bool {
	verrs, ok := err.(validator.ValidationErrors)
	if ok {
		*target = verrs
	}
	return ok
}

// fieldFlag maps struct field names to the CLI flags users see.
func fieldFlag(field string) string {
	switch field {
	case "WasteTypeID":
		return "--waste-type"
	case "EstimatedWeight":
		return "--weight"
	case "PickupDate":
		return "--date"
	case "PickupTime":
		return "--time"
	case "PickupAddress":
		return "--address"
	default:
		return field
	}
}

// estimatePrice computes the pre-submission price estimate shown to
// the user: weight times the waste type's price per kg.
func estimatePrice(wt *api.WasteType, weight float64) float64 {
	return wt.PricePerKG * weight
}

// resolveWasteType finds the waste type by id, or prompts when no id
// was given.
func resolveWasteType(types []api.WasteType, id string) (*api.WasteType, error) {
	if id != "" {
		for i := range types {
			if types[i].ID == id {
				return &types[i], nil
			}
		}
		return nil, fmt.Errorf("waste type '%s' not found, run 'ecocollect waste-types' to list them", id)
	}

	type wasteOption struct {
		Label     string
		WasteType *api.WasteType
	}

	options := make([]wasteOption, len(types))
	for i := range types {
		wt := &types[i]
		options[i] = wasteOption{
			Label:     fmt.Sprintf("%s ($%.2f per kg)", wt.Name, wt.PricePerKG),
			WasteType: wt,
		}
	}

	templates := &promptui.SelectTemplates{
		Label:    "{{ . }}",
		Active:   "> {{ .Label | cyan }}",
		Inactive: "  {{ .Label }}",
		Selected: "{{ .Label | green }}",
	}

	prompt := promptui.Select{
		Label:     "Select a waste type",
		Items:     options,
		Templates: templates,
		Size:      10,
	}

	index, _, err := prompt.Run()
	if err != nil {
		return nil, fmt.Errorf("waste type selection cancelled: %w", err)
	}

	return options[index].WasteType, nil
}
