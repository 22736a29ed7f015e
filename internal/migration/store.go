package migration

import (
	"context"

	"github.com/rflorenc/substrate-reconciler/internal/models"
)

// Reader is the read side of the record store. Lookups return ErrNotFound
// (possibly wrapped) when nothing matches.
type Reader interface {
	ElementByInstanceID(ctx context.Context, instanceID string) (*models.Element, error)
	Element(ctx context.Context, uuid string) (*models.Element, error)
	Group(ctx context.Context, uuid string) (*models.Group, error)
	Template(ctx context.Context, uuid string) (*models.Template, error)
	Blueprint(ctx context.Context, uuid string) (*models.Blueprint, error)
	ProfileInstance(ctx context.Context, uuid string) (*models.ProfileInstance, error)
	Application(ctx context.Context, uuid string) (*models.Application, error)
	Patch(ctx context.Context, uuid string) (*models.Patch, error)
	PatchesByProfileInstance(ctx context.Context, profileUUID string) ([]models.Patch, error)
}

// Writer persists rewritten records.
type Writer interface {
	SaveElement(ctx context.Context, e *models.Element) error
	SaveGroup(ctx context.Context, g *models.Group) error
	SaveTemplate(ctx context.Context, t *models.Template) error
	SaveBlueprint(ctx context.Context, b *models.Blueprint) error
	SavePatch(ctx context.Context, p *models.Patch) error
	SaveProfileInstance(ctx context.Context, p *models.ProfileInstance) error
	SaveApplication(ctx context.Context, a *models.Application) error
}

// Repository is what a rewrite needs from the store.
type Repository interface {
	Reader
	Writer
}

// UnitOfWork is one batch's transaction. Savepoints isolate instances
// inside the batch.
type UnitOfWork interface {
	Repository
	Savepoint(name string) error
	RollbackTo(name string) error
	Commit() error
	Rollback() error
}

// Directory serves the reads made outside of a batch.
type Directory interface {
	// Accounts returns the non-deleted management-plane accounts with their
	// cluster accounts.
	Accounts(ctx context.Context) ([]models.Account, error)
	ApplicationsInProject(ctx context.Context, project string) ([]models.Application, error)
	// ElementsByProfileInstance returns the elements of a profile instance
	// whose group has the given substrate type.
	ElementsByProfileInstance(ctx context.Context, profileUUID, groupType string) ([]models.Element, error)
}

// Store is the record store.
type Store interface {
	Directory
	Begin(ctx context.Context) (UnitOfWork, error)
}
