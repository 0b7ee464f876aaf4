package main

import (
	"github.com/Shivanand-hulikatti/event-ticketing/internal/config"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/database"
	"github.com/spf13/cobra"
)

func newMigrateCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the PostgreSQL tables if they do not exist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.cfg.StoreDriver != config.StorePostgres {
				opts.logger.Info("nothing to migrate", "store_driver", opts.cfg.StoreDriver)
				return nil
			}
			ctx := cmd.Context()
			pool, err := database.NewPool(ctx, opts.cfg.DSN(),
				database.Options{MaxConns: opts.cfg.DBMaxConns}, opts.logger)
			if err != nil {
				return err
			}
			defer pool.Close()

			if err := database.Migrate(ctx, pool); err != nil {
				return err
			}
			opts.logger.Info("schema applied")
			return nil
		},
	}
}
