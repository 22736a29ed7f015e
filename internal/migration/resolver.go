package migration

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/rflorenc/substrate-reconciler/internal/models"
)

// JobSource lists recovery plan jobs and their execution status.
type JobSource interface {
	ListRecoveryPlanJobs(ctx context.Context, offset, length int) (*models.RecoveryPlanJobList, error)
	GetJobExecutionStatus(ctx context.Context, jobUUID string) (*models.JobExecutionStatus, error)
}

// Resolver builds the source → destination VM identity map from completed
// migrate and failover jobs.
type Resolver struct {
	jobs       JobSource
	pageLength int
	log        zerolog.Logger
}

// NewResolver creates a Resolver paging through jobs pageLength at a time.
func NewResolver(jobs JobSource, pageLength int, log zerolog.Logger) *Resolver {
	if pageLength <= 0 {
		pageLength = 100
	}
	return &Resolver{jobs: jobs, pageLength: pageLength, log: log}
}

// Resolve pages through every recovery plan job. Any listing or detail
// error aborts: a partial map would silently skip instances.
func (r *Resolver) Resolve(ctx context.Context) (*models.IdentityMap, error) {
	var pairs []models.IdentityPair
	jobs := 0
	for offset, total := 0, 1; offset < total; offset += r.pageLength {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page, err := r.jobs.ListRecoveryPlanJobs(ctx, offset, r.pageLength)
		if err != nil {
			return nil, err
		}
		total = page.Metadata.TotalMatches
		r.log.Debug().Int("offset", offset).Int("total", total).Int("entities", len(page.Entities)).Msg("listed recovery plan jobs")

		for _, job := range page.Entities {
			if !job.IsCompletedMigration() {
				continue
			}
			jobs++
			status, err := r.jobs.GetJobExecutionStatus(ctx, job.UUID())
			if err != nil {
				return nil, err
			}
			for _, step := range status.OperationStatus.StepExecutionStatusList {
				if step.OperationType != models.OperationTypeEntityRecovery {
					continue
				}
				pair, ok := step.IdentityPair()
				if !ok {
					r.log.Warn().Str("job", job.UUID()).Str("step", step.StepUUID).
						Msg("entity recovery step without source or destination id, skipping")
					continue
				}
				pairs = append(pairs, pair)
			}
		}
	}
	ids := models.NewIdentityMap(pairs...)
	r.log.Info().Int("jobs", jobs).Int("vms", ids.Len()).Msg("resolved vm identity map")
	return ids, nil
}
