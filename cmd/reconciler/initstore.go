package main

import (
	"github.com/spf13/cobra"

	"github.com/rflorenc/substrate-reconciler/internal/config"
	"github.com/rflorenc/substrate-reconciler/internal/logging"
	"github.com/rflorenc/substrate-reconciler/internal/store"
)

func newInitStoreCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "init-store",
		Short: "Create the record tables in an empty database",
		Long: `init-store creates the record tables reconciler reads and writes. It is
meant for scratch and test databases and leaves existing tables alone.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(root.envFile)
			if err != nil {
				return err
			}
			if cfg.DatabaseURL == "" {
				return &config.MissingError{Vars: []string{"DATABASE_URL"}}
			}
			log := logging.New(cfg.LogLevel, cfg.LogFormat, cmd.ErrOrStderr())
			ctx, stop := signalContext(cmd.Context())
			defer stop()

			db, err := store.Connect(ctx, cfg.DatabaseURL, cfg.DatabaseMaxConns)
			if err != nil {
				return err
			}
			defer store.Close(db)
			if err := store.RunMigrations(ctx, db); err != nil {
				return err
			}
			log.Info().Msg("record tables ready")
			return nil
		},
	}
}
