package cli

import (
	"errors"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"storefront/internal/checkout"
)

func newCheckoutCmd(e *env) *cobra.Command {
	var form checkout.ContactForm
	cmd := &cobra.Command{
		Use:   "checkout",
		Short: "Send the cart as an order request",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			flow := e.newFlow()
			defer flow.Close()

			if _, err := flow.SetForm(form); err != nil {
				return err
			}
			order, err := flow.Submit(cmd.Context())
			var fieldErrs checkout.FieldErrors
			if errors.As(err, &fieldErrs) {
				w := cmd.ErrOrStderr()
				fields := make([]string, 0, len(fieldErrs))
				for f := range fieldErrs {
					fields = append(fields, f)
				}
				sort.Strings(fields)
				for _, f := range fields {
					fmt.Fprintf(w, "  %s: %s\n", f, fieldErrs[f])
				}
				return errors.New("checkout form is invalid")
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Order %s sent (%s). Your cart has been cleared.\n", order.ID, order.Status)
			return nil
		},
	}
	cmd.Flags().StringVar(&form.Name, "name", "", "Your name")
	cmd.Flags().StringVar(&form.Email, "email", "", "Contact email")
	cmd.Flags().StringVar(&form.Phone, "phone", "", "Phone number (optional)")
	cmd.Flags().StringVar(&form.Note, "note", "", "Note for the shop (optional)")
	cmd.Flags().BoolVar(&form.MarketingOptIn, "opt-in", false, "Receive marketing email")
	return cmd
}
