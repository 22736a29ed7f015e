package migration

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/rflorenc/substrate-reconciler/internal/models"
)

// Destination is the remote surface a run reads from.
type Destination interface {
	JobSource
	Fetcher
}

// Options configures one reconciliation run.
type Options struct {
	DestServer     string
	SourceProject  string
	DestProject    string
	BatchSize      int
	PageLength     int
	BatchPause     time.Duration
	DryRun         bool
	UpdateProjects bool
	// Instances restricts the run to these source VM ids when set.
	Instances []string
}

// Pipeline wires resolver, rewriter and runner for a complete run.
type Pipeline struct {
	store Store
	dest  Destination
	opts  Options
	log   zerolog.Logger
}

// NewPipeline creates a Pipeline.
func NewPipeline(store Store, dest Destination, opts Options, log zerolog.Logger) *Pipeline {
	return &Pipeline{store: store, dest: dest, opts: opts, log: log}
}

// Resolve returns the identity map, narrowed to Options.Instances.
func (p *Pipeline) Resolve(ctx context.Context) (*models.IdentityMap, error) {
	ids, err := NewResolver(p.dest, p.opts.PageLength, p.log).Resolve(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolving vm identities: %w", err)
	}
	if len(p.opts.Instances) > 0 {
		ids = ids.Filter(p.opts.Instances)
		p.log.Info().Int("vms", ids.Len()).Msg("restricted run to selected instances")
	}
	return ids, nil
}

// Run resolves identities, rewrites every mapped instance and optionally
// re-homes the owning applications.
func (p *Pipeline) Run(ctx context.Context) (*models.RunSummary, error) {
	accounts, err := p.store.Accounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading accounts: %w", err)
	}
	accountMap, err := BuildAccountMap(accounts, p.opts.DestServer)
	if err != nil {
		return nil, err
	}

	ids, err := p.Resolve(ctx)
	if err != nil {
		return nil, err
	}

	rewriter := NewRewriter(accountMap, ids, p.log)
	runner := NewRunner(p.store, p.dest, rewriter, RunnerConfig{
		BatchSize: p.opts.BatchSize,
		Pause:     p.opts.BatchPause,
		DryRun:    p.opts.DryRun,
	}, p.log)
	summary, err := runner.Run(ctx, ids)
	if err != nil {
		return summary, err
	}

	if p.opts.UpdateProjects {
		mover := NewProjectMover(p.store, p.opts.SourceProject, p.opts.DestProject, p.opts.DryRun, p.log)
		moved, err := mover.Move(ctx, ids)
		if err != nil {
			return summary, fmt.Errorf("updating application projects: %w", err)
		}
		summary.ProjectsMoved = moved
	}
	return summary, nil
}
