package cli

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"storefront/internal/cart"
)

func newCartCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cart",
		Short: "Show and change the local cart",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "Print the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			printCart(cmd.OutOrStdout(), e.cart.Snapshot())
			return nil
		},
	}

	var (
		variant string
		qty     int
	)
	add := &cobra.Command{
		Use:   "add PRODUCT",
		Short: "Add a product (id or slug) to the cart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := e.catalog.Product(cmd.Context(), args[0], false)
			if err != nil {
				return fmt.Errorf("look up %q: %w", args[0], err)
			}
			snap, err := e.cart.Add(cmd.Context(), p.LineFor(variant), qty)
			if err != nil {
				return err
			}
			printCart(cmd.OutOrStdout(), snap)
			return nil
		},
	}
	add.Flags().StringVar(&variant, "variant", "", "Variant key (default base)")
	add.Flags().IntVar(&qty, "qty", 1, "Quantity to add")

	var step int
	inc := &cobra.Command{
		Use:   "inc LINE_ID",
		Short: "Raise a line quantity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.mutate(cmd, func() (cart.Snapshot, error) {
				return e.cart.Increment(cmd.Context(), args[0], step)
			})
		},
	}
	inc.Flags().IntVar(&step, "step", 1, "Amount to add")

	dec := &cobra.Command{
		Use:   "dec LINE_ID",
		Short: "Lower a line quantity; reaching zero removes the line",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.mutate(cmd, func() (cart.Snapshot, error) {
				return e.cart.Decrement(cmd.Context(), args[0], step)
			})
		},
	}
	dec.Flags().IntVar(&step, "step", 1, "Amount to subtract")

	set := &cobra.Command{
		Use:   "set LINE_ID QTY",
		Short: "Set a line quantity; zero or less removes the line",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("quantity %q is not a number", args[1])
			}
			return e.mutate(cmd, func() (cart.Snapshot, error) {
				return e.cart.SetQuantity(cmd.Context(), args[0], n)
			})
		},
	}

	rm := &cobra.Command{
		Use:   "rm LINE_ID",
		Short: "Remove a line",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.mutate(cmd, func() (cart.Snapshot, error) {
				return e.cart.Remove(cmd.Context(), args[0])
			})
		},
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Empty the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return e.mutate(cmd, func() (cart.Snapshot, error) {
				return e.cart.Clear(cmd.Context())
			})
		},
	}

	reconcile := &cobra.Command{
		Use:   "reconcile",
		Short: "Refresh names and prices from the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			products, err := e.catalog.Products(cmd.Context())
			if err != nil {
				return err
			}
			return e.mutate(cmd, func() (cart.Snapshot, error) {
				return e.cart.Reconcile(cmd.Context(), products)
			})
		},
	}

	cmd.AddCommand(list, add, inc, dec, set, rm, clearCmd, reconcile)
	return cmd
}

func (e *env) mutate(cmd *cobra.Command, fn func() (cart.Snapshot, error)) error {
	snap, err := fn()
	if err != nil {
		return err
	}
	printCart(cmd.OutOrStdout(), snap)
	return nil
}

func printCart(w io.Writer, snap cart.Snapshot) {
	if snap.Empty() {
		fmt.Fprintln(w, "Cart is empty.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tQTY\tPRICE\tSUBTOTAL")
	for _, line := range snap.Lines {
		subtotal := "quote"
		if sub, ok := line.Subtotal(); ok {
			subtotal = sub.StringFixed(2)
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n", line.ID, line.Name, line.Quantity, line.Price, subtotal)
	}
	_ = tw.Flush()

	fmt.Fprintf(w, "Items: %d\n", snap.Count)
	if snap.HasUnpriced {
		fmt.Fprintf(w, "Total: %s + items priced on request\n", snap.Total.StringFixed(2))
		return
	}
	fmt.Fprintf(w, "Total: %s\n", snap.Total.StringFixed(2))
}
