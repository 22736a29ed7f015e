package migration

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/rs/zerolog"

	"github.com/rflorenc/substrate-reconciler/internal/models"
)

// Fetcher reads the authoritative state of a destination VM.
type Fetcher interface {
	GetVM(ctx context.Context, vmUUID string) (*models.InstanceState, error)
}

// RunnerConfig tunes batching.
type RunnerConfig struct {
	BatchSize int
	Pause     time.Duration
	DryRun    bool
}

// Runner drives the rewrite over an identity map, one unit of work per
// batch. Instances run strictly in order.
type Runner struct {
	store    Store
	fetcher  Fetcher
	rewriter *Rewriter
	cfg      RunnerConfig
	log      zerolog.Logger
	now      func() time.Time
}

// NewRunner creates a Runner.
func NewRunner(store Store, fetcher Fetcher, rewriter *Rewriter, cfg RunnerConfig, log zerolog.Logger) *Runner {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	return &Runner{store: store, fetcher: fetcher, rewriter: rewriter, cfg: cfg, log: log, now: time.Now}
}

// Run processes every pair in ids. Per-instance failures are counted and
// never abort the run. On cancellation the current batch is rolled back and
// the counts so far are returned with ctx.Err().
func (r *Runner) Run(ctx context.Context, ids *models.IdentityMap) (*models.RunSummary, error) {
	summary := &models.RunSummary{DryRun: r.cfg.DryRun, StartedAt: r.now()}
	total := ids.Len()
	r.log.Info().Int("vms", total).Bool("dry_run", r.cfg.DryRun).Msg("starting substrate update")

	for n, batch := range ids.Batches(r.cfg.BatchSize) {
		if err := r.runBatch(ctx, n+1, n*r.cfg.BatchSize, total, batch, summary); err != nil {
			summary.FinishedAt = r.now()
			return summary, err
		}
		summary.Batches++

		select {
		case <-ctx.Done():
		case <-time.After(r.cfg.Pause):
		}
		runtime.GC()
	}

	summary.FinishedAt = r.now()
	r.log.Info().
		Int("processed", summary.Processed).
		Int("updated", summary.Updated).
		Int("failed", summary.Failed).
		Int("partial", summary.Partial).
		Msg("done updating substrates")
	return summary, nil
}

func (r *Runner) runBatch(ctx context.Context, num, start, total int, batch []models.IdentityPair, summary *models.RunSummary) error {
	log := r.log.With().Int("batch", num).Logger()
	log.Info().Int("size", len(batch)).Msgf("=== Starting batch %d (%d VMs) ===", num, len(batch))

	uow, err := r.store.Begin(ctx)
	if err != nil {
		return fmt.Errorf("starting batch %d: %w", num, err)
	}
	var repo Repository = uow
	if r.cfg.DryRun {
		repo = NewDryRunWriter(uow, log)
	}

	var updated, partial []string
	failed := 0
	for i, pair := range batch {
		if err := ctx.Err(); err != nil {
			if rbErr := uow.Rollback(); rbErr != nil {
				log.Error().Err(rbErr).Msg("rolling back cancelled batch")
			}
			log.Warn().Int("lost", len(updated)).Msg("run cancelled, batch rolled back")
			r.discard(summary, updated, partial)
			return err
		}
		summary.Processed++
		ilog := log.With().Str("source_id", pair.SourceID).Str("dest_id", pair.DestID).Logger()
		ilog.Info().Msgf("Processing VM %d of %d (batch %d, item %d)", start+i+1, total, num, i+1)

		state, err := r.fetcher.GetVM(ctx, pair.DestID)
		if err != nil {
			ilog.Warn().Err(err).Msg("failed to get vm")
			r.fail(summary, pair.SourceID)
			failed++
			continue
		}

		sp := fmt.Sprintf("vm_%d", i)
		if err := uow.Savepoint(sp); err != nil {
			ilog.Warn().Err(err).Msg("failed to open savepoint")
			r.fail(summary, pair.SourceID)
			failed++
			continue
		}
		outcome, err := r.rewriter.Rewrite(ctx, repo, pair.SourceID, state)
		if err != nil {
			ilog.Warn().Err(err).Msg("failed to update substrate")
			if rbErr := uow.RollbackTo(sp); rbErr != nil {
				ilog.Error().Err(rbErr).Msg("rolling back to savepoint")
			}
			r.fail(summary, pair.SourceID)
			failed++
			continue
		}
		summary.Updated++
		updated = append(updated, pair.SourceID)
		if outcome == OutcomePartial {
			summary.Partial++
			partial = append(partial, pair.SourceID)
		}
	}

	if r.cfg.DryRun {
		if err := uow.Rollback(); err != nil {
			log.Error().Err(err).Msg("discarding dry-run batch")
		}
	} else if err := uow.Commit(); err != nil {
		log.Error().Err(err).Int("lost", len(updated)).Msg("failed to commit batch")
		r.discard(summary, updated, partial)
		failed += len(updated)
		updated = nil
	}

	log.Info().Msgf("=== Finished batch %d: %d updated, %d failed ===", num, len(updated), failed)
	return nil
}

func (r *Runner) fail(summary *models.RunSummary, sourceID string) {
	summary.Failed++
	summary.FailedInstances = append(summary.FailedInstances, sourceID)
}

// discard re-counts instances whose writes were rolled back as failed.
func (r *Runner) discard(summary *models.RunSummary, updated, partial []string) {
	summary.Updated -= len(updated)
	summary.Partial -= len(partial)
	for _, id := range updated {
		r.fail(summary, id)
	}
}
