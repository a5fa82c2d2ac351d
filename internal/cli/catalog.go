package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func newProductsCmd(e *env) *cobra.Command {
	var category, query string
	cmd := &cobra.Command{
		Use:   "products",
		Short: "List active products",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			products, err := e.catalog.Products(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tSLUG\tNAME\tPRICE")
			for _, p := range products {
				if !p.Active || (category != "" && p.CategoryID != category) {
					continue
				}
				if query != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(query)) {
					continue
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", p.ID, p.Slug, p.Name, p.Price)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "Only products of this category id")
	cmd.Flags().StringVar(&query, "q", "", "Only products whose name contains this text")
	return cmd
}

func newCategoriesCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List categories and running promotions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cats, err := e.catalog.Categories(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tSLUG\tNAME")
			for _, c := range cats {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", c.ID, c.Slug, c.Name)
			}
			if err := tw.Flush(); err != nil {
				return err
			}

			promos, err := e.catalog.Promotions(cmd.Context(), time.Now())
			if err != nil {
				return err
			}
			for _, p := range promos {
				fmt.Fprintf(cmd.OutOrStdout(), "Promotion: %s\n", p.Title)
			}
			return nil
		},
	}
}
