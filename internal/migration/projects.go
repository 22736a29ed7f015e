package migration

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/rflorenc/substrate-reconciler/internal/models"
)

// ProjectMover re-homes the applications owning migrated VMs from the
// source project to the destination project.
type ProjectMover struct {
	store         Store
	sourceProject string
	destProject   string
	dryRun        bool
	log           zerolog.Logger
}

// NewProjectMover creates a ProjectMover.
func NewProjectMover(store Store, sourceProject, destProject string, dryRun bool, log zerolog.Logger) *ProjectMover {
	return &ProjectMover{
		store:         store,
		sourceProject: sourceProject,
		destProject:   destProject,
		dryRun:        dryRun,
		log:           log,
	}
}

// Move changes the project of every application in the source project that
// owns one of the mapped VMs, and returns their names.
func (m *ProjectMover) Move(ctx context.Context, ids *models.IdentityMap) ([]string, error) {
	uow, err := m.store.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("starting project update: %w", err)
	}
	var repo Repository = uow
	if m.dryRun {
		repo = NewDryRunWriter(uow, m.log)
	}

	var apps []*models.Application
	seen := make(map[string]bool)
	var missing []string
	for _, pair := range ids.Pairs() {
		if err := ctx.Err(); err != nil {
			uow.Rollback()
			return nil, err
		}
		elem, err := findElement(ctx, uow, pair.SourceID, pair.DestID)
		if err != nil {
			if !errors.Is(err, ErrElementNotFound) {
				m.log.Warn().Err(err).Str("source_id", pair.SourceID).Msg("error processing instance")
			}
			continue
		}
		app, err := resolveApplication(ctx, uow, elem.ProfileInstanceUUID)
		if err != nil {
			m.log.Warn().Err(err).Str("profile_instance", elem.ProfileInstanceUUID).Msg("could not find application")
			missing = append(missing, elem.ProfileInstanceUUID)
			continue
		}
		if app.ProjectName == m.sourceProject && !seen[app.UUID] {
			seen[app.UUID] = true
			apps = append(apps, app)
		}
	}

	var moved []string
	for _, app := range apps {
		updated := *app
		updated.ProjectName = m.destProject
		if err := repo.SaveApplication(ctx, &updated); err != nil {
			uow.Rollback()
			return nil, fmt.Errorf("moving application %s: %w", app.Name, err)
		}
		m.log.Info().Str("app", app.Name).Str("project", m.destProject).Msg("changed application project")
		moved = append(moved, app.Name)
	}
	if len(missing) > 0 {
		m.log.Warn().Strs("profile_instances", missing).Msg("the following profile instance references could not be processed")
	}

	if m.dryRun {
		return moved, uow.Rollback()
	}
	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("committing project update: %w", err)
	}
	return moved, nil
}
