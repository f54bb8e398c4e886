package main

import (
	"github.com/spf13/cobra"

	"github.com/rl1809/storefront/internal/adapter/auth"
	"github.com/rl1809/storefront/internal/seed"
)

func newMigrateCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			db, store, err := openStore(ctx, opts.cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := store.Migrate(ctx); err != nil {
				return err
			}
			opts.log.WithField("driver", opts.cfg.Database.Driver).Info("schema up to date")
			return nil
		},
	}
}

func newSeedCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load demo categories, products and accounts",
		Long: `Load demo categories, products and accounts.

Existing rows are kept, so running seed twice is safe. Demo logins:
  admin@example.com / admin123
  test@example.com  / test123`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			db, store, err := openStore(ctx, opts.cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := store.Migrate(ctx); err != nil {
				return err
			}
			hasher := auth.NewBcryptHasher(opts.cfg.Auth.BcryptCost)
			_, err = seed.NewLoader(store, store, hasher, opts.log).LoadDefault(ctx)
			return err
		},
	}
}
