package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/rflorenc/substrate-reconciler/internal/config"
	"github.com/rflorenc/substrate-reconciler/internal/logging"
	"github.com/rflorenc/substrate-reconciler/internal/migration"
	"github.com/rflorenc/substrate-reconciler/internal/platform"
	"github.com/rflorenc/substrate-reconciler/internal/store"
)

const retryDelay = 500 * time.Millisecond

// env is the configuration and logger a command runs with.
type env struct {
	cfg *config.Config
	log zerolog.Logger
}

// load reads and validates configuration. needStore also requires
// DATABASE_URL.
func (o *rootOptions) load(needStore bool) (*env, error) {
	cfg, err := config.Load(o.envFile)
	if err != nil {
		return nil, err
	}
	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
	}
	if o.logFormat != "" {
		cfg.LogFormat = o.logFormat
	}
	if err := cfg.Validate(needStore); err != nil {
		return nil, err
	}
	return &env{cfg: cfg, log: logging.New(cfg.LogLevel, cfg.LogFormat, os.Stderr)}, nil
}

func (e *env) prism() *platform.Prism {
	client := platform.NewClient(e.cfg.Endpoint(),
		platform.WithRetry(e.cfg.HTTPRetryAttempts, retryDelay),
		platform.WithTimeout(e.cfg.HTTPTimeout),
		platform.WithLogger(e.log),
	)
	return platform.NewPrism(client, e.log)
}

// openStore connects to the record database. The returned func closes it.
func (e *env) openStore(ctx context.Context) (*store.Store, func(), error) {
	db, err := store.Connect(ctx, e.cfg.DatabaseURL, e.cfg.DatabaseMaxConns)
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() {
		if err := store.Close(db); err != nil {
			e.log.Warn().Err(err).Msg("closing record store")
		}
	}
	return store.New(db), closeFn, nil
}

func (e *env) options(dryRun, updateProjects bool, instances []string) migration.Options {
	return migration.Options{
		DestServer:     e.cfg.DestPCIP,
		SourceProject:  e.cfg.SourceProjectName,
		DestProject:    e.cfg.DestProjectName,
		BatchSize:      e.cfg.BatchSize,
		PageLength:     e.cfg.JobsPageLength,
		BatchPause:     e.cfg.BatchPause,
		DryRun:         dryRun,
		UpdateProjects: updateProjects,
		Instances:      instances,
	}
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
