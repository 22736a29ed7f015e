package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/rflorenc/substrate-reconciler/internal/api"
	"github.com/rflorenc/substrate-reconciler/internal/logging"
	"github.com/rflorenc/substrate-reconciler/internal/migration"
	"github.com/rflorenc/substrate-reconciler/internal/models"
	"github.com/rflorenc/substrate-reconciler/internal/platform"
)

// reconciler runs the pipeline on behalf of the HTTP surface.
type reconciler struct {
	env   *env
	store migration.Store
	prism *platform.Prism
}

func (r *reconciler) Run(ctx context.Context, req api.RunRequest, log zerolog.Logger) (*models.RunSummary, error) {
	opts := r.env.options(req.DryRun, req.UpdateProjects, req.Instances)
	return migration.NewPipeline(r.store, r.prism, opts, log).Run(ctx)
}

func (r *reconciler) Resolve(ctx context.Context, log zerolog.Logger) (*models.IdentityMap, error) {
	return migration.NewPipeline(r.store, r.prism, r.env.options(true, false, nil), log).Resolve(ctx)
}

func newServeCmd(root *rootOptions) *cobra.Command {
	var listen string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP control surface",
		Long: `serve starts an HTTP server to trigger runs, inspect their summaries and
stream their logs over a websocket. Runs are strictly sequential.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := root.load(true)
			if err != nil {
				return err
			}
			if listen == "" {
				listen = e.cfg.ListenAddr
			}
			ctx, stop := signalContext(cmd.Context())
			defer stop()

			st, closeStore, err := e.openStore(ctx)
			if err != nil {
				return err
			}
			defer closeStore()

			rec := &reconciler{env: e, store: st, prism: e.prism()}
			runLogger := func(run *models.Run) zerolog.Logger {
				return logging.NewTee(e.cfg.LogLevel, e.cfg.LogFormat, os.Stderr, run)
			}
			server := api.NewServer(ctx, models.NewRunStore(), rec, runLogger, e.log)
			server.DefaultDryRun = e.cfg.DryRun

			srv := &http.Server{
				Addr:              listen,
				Handler:           api.NewRouter(server),
				ReadHeaderTimeout: 10 * time.Second,
			}
			errCh := make(chan error, 1)
			go func() {
				e.log.Info().Str("addr", listen).Str("version", version).Msg("reconciler server starting")
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-ctx.Done():
			}
			e.log.Info().Msg("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "listen address (default from LISTEN_ADDR)")
	return cmd
}
