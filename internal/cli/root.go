// Package cli implements the storefront command line. It drives the same
// cart, checkout and admin packages as the HTTP service against a single
// local session.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"storefront/internal/app"
	"storefront/internal/auth"
	"storefront/internal/backend"
	"storefront/internal/cart"
	"storefront/internal/catalog"
	"storefront/internal/checkout"
	"storefront/internal/config"
	"storefront/internal/logger"
	"storefront/internal/storage"
)

// sessionPrefix scopes the CLI state inside the shared storage.
const sessionPrefix = "cli/"

// Options override what the CLI would otherwise build from config.
type Options struct {
	Storage    storage.Storage
	BackendURL string
	Logger     *zap.Logger
}

type env struct {
	opts Options

	cfg     config.Config
	log     *zap.Logger
	closer  io.Closer
	client  *backend.Client
	catalog *catalog.Service
	cart    *cart.Store
	tokens  *auth.TokenStore
}

// NewRoot builds the command tree.
func NewRoot(opts Options) *cobra.Command {
	e := &env{opts: opts}
	root := &cobra.Command{
		Use:   "storefront",
		Short: "Storefront cart, checkout and admin client",
		Long: `storefront manages a local cart and submits order requests to the
catalog backend. Admin commands use the token stored by "admin login".`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return e.setup(cmd.Context())
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return e.teardown()
		},
	}
	root.AddCommand(
		newCartCmd(e),
		newCheckoutCmd(e),
		newProductsCmd(e),
		newCategoriesCmd(e),
		newAdminCmd(e),
	)
	return root
}

func (e *env) setup(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if e.opts.BackendURL != "" {
		cfg.BackendURL = e.opts.BackendURL
	}
	e.cfg = cfg

	e.log = e.opts.Logger
	if e.log == nil {
		e.log = logger.New(logger.Config{Level: "warn", Format: "console", Output: "stderr"})
	}

	st := e.opts.Storage
	if st == nil {
		opened, err := app.OpenStorage(ctx, cfg, e.log)
		if err != nil {
			return err
		}
		e.closer = opened
		st = opened
	}
	st = storage.Prefixed(st, sessionPrefix)

	e.tokens = auth.NewTokenStore(st)
	e.client = backend.New(cfg.BackendURL, cfg.BackendTimeout, e.log).WithTokens(e.tokens)
	e.catalog = catalog.New(e.client, cfg.CatalogTTL, e.log)
	e.cart = cart.NewStore(ctx, st, e.log)
	return nil
}

func (e *env) teardown() error {
	_ = e.log.Sync()
	if e.closer != nil {
		return e.closer.Close()
	}
	return nil
}

func (e *env) newFlow() *checkout.Flow {
	return checkout.NewFlow(e.cart, e.client, checkout.Options{
		RevertDelay:   e.cfg.RevertDelay,
		SubmitTimeout: e.cfg.SubmitTimeout,
		Logger:        e.log,
	})
}

// Execute runs the command line and exits non-zero on error.
func Execute() {
	root := NewRoot(Options{})
	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
