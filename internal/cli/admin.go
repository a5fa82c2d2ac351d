package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"storefront/internal/domain"
	"storefront/internal/importer"
)

func newAdminCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Staff commands against the backend",
	}

	var email, password string
	login := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the admin token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if password == "" {
				password = os.Getenv("STOREFRONT_ADMIN_PASSWORD")
			}
			if err := e.tokens.Login(cmd.Context(), e.client, email, password); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged in.")
			return nil
		},
	}
	login.Flags().StringVar(&email, "email", "", "Staff email")
	login.Flags().StringVar(&password, "password", "", "Password (default $STOREFRONT_ADMIN_PASSWORD)")
	_ = login.MarkFlagRequired("email")

	logout := &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored admin token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return e.tokens.Clear(cmd.Context())
		},
	}

	var q domain.OrderQuery
	var status string
	orders := &cobra.Command{
		Use:   "orders",
		Short: "List orders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := e.requireLogin(cmd); err != nil {
				return err
			}
			if status != "" {
				st, err := domain.ParseOrderStatus(status)
				if err != nil {
					return err
				}
				q.Status = st
			}
			page, err := e.client.ListOrders(cmd.Context(), q)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tSTATUS\tCUSTOMER\tCREATED")
			for _, o := range page.Items {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", o.ID, o.Status, o.Customer.Email, o.CreatedAt.Format("2006-01-02 15:04"))
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Page %d, %d orders total\n", page.Page, page.Total)
			return nil
		},
	}
	orders.Flags().IntVar(&q.Page, "page", 1, "Page number")
	orders.Flags().IntVar(&q.PageSize, "page-size", 20, "Orders per page")
	orders.Flags().StringVar(&q.Query, "q", "", "Search text")
	orders.Flags().StringVar(&status, "status", "", "Filter by status")

	var out string
	export := &cobra.Command{
		Use:   "export",
		Short: "Download the customer CSV export",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := e.requireLogin(cmd); err != nil {
				return err
			}
			var w io.Writer = cmd.OutOrStdout()
			if out != "" && out != "-" {
				f, err := os.Create(out)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}
			n, err := e.client.ExportCustomersCSV(cmd.Context(), w)
			if err != nil {
				return err
			}
			if w != cmd.OutOrStdout() {
				fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %d bytes to %s\n", n, out)
			}
			return nil
		},
	}
	export.Flags().StringVarP(&out, "out", "o", "-", "Output file, - for stdout")

	importCats := &cobra.Command{
		Use:   "import-categories FILE",
		Short: "Create categories from a CSV file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := e.requireLogin(cmd); err != nil {
				return err
			}
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			n, err := importer.NewCSVImporter(f, e.client).Run(cmd.Context())
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d categories\n", n)
			if err == nil {
				e.catalog.Invalidate()
			}
			return err
		},
	}

	seedCats := &cobra.Command{
		Use:   "seed-categories",
		Short: "Ask the backend to create its default categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := e.requireLogin(cmd); err != nil {
				return err
			}
			cats, err := e.catalog.SeedCategories(cmd.Context(), e.client)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Backend has %d seeded categories\n", len(cats))
			return nil
		},
	}

	cmd.AddCommand(login, logout, orders, export, importCats, seedCats)
	return cmd
}

var errLoginRequired = errors.New(`not logged in, run "storefront admin login" first`)

func (e *env) requireLogin(cmd *cobra.Command) error {
	if !e.tokens.LoggedIn(cmd.Context()) {
		return errLoginRequired
	}
	return nil
}
