package migration

import (
	"context"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"

	"github.com/rflorenc/substrate-reconciler/internal/models"
)

// DryRunWriter wraps a Reader and turns every write into a logged diff.
// Reads go to the wrapped store so decisions match a live run.
type DryRunWriter struct {
	Reader
	log zerolog.Logger
}

// NewDryRunWriter returns a Repository that never writes.
func NewDryRunWriter(r Reader, log zerolog.Logger) *DryRunWriter {
	return &DryRunWriter{Reader: r, log: log.With().Bool("dry_run", true).Logger()}
}

func (d *DryRunWriter) report(kind, id string, old, updated any, readErr error) {
	ev := d.log.Info().Str("kind", kind).Str("id", id)
	if readErr != nil {
		ev.AnErr("read_error", readErr).Msg("[DRY RUN] would write record")
		return
	}
	diff := cmp.Diff(old, updated)
	if diff == "" {
		ev.Msg("[DRY RUN] record already up to date")
		return
	}
	ev.Str("diff", diff).Msg("[DRY RUN] would update record")
}

func (d *DryRunWriter) SaveElement(ctx context.Context, e *models.Element) error {
	old, err := d.Element(ctx, e.UUID)
	d.report("element", e.UUID, old, e, err)
	return nil
}

func (d *DryRunWriter) SaveGroup(ctx context.Context, g *models.Group) error {
	old, err := d.Group(ctx, g.UUID)
	d.report("group", g.UUID, old, g, err)
	return nil
}

func (d *DryRunWriter) SaveTemplate(ctx context.Context, t *models.Template) error {
	old, err := d.Template(ctx, t.UUID)
	d.report("config", t.UUID, old, t, err)
	return nil
}

func (d *DryRunWriter) SaveBlueprint(ctx context.Context, b *models.Blueprint) error {
	old, err := d.Blueprint(ctx, b.UUID)
	d.report("blueprint", b.UUID, old, b, err)
	return nil
}

func (d *DryRunWriter) SavePatch(ctx context.Context, p *models.Patch) error {
	old, err := d.Patch(ctx, p.UUID)
	d.report("patch", p.UUID, old, p, err)
	return nil
}

func (d *DryRunWriter) SaveProfileInstance(ctx context.Context, p *models.ProfileInstance) error {
	old, err := d.ProfileInstance(ctx, p.UUID)
	d.report("profile_instance", p.UUID, old, p, err)
	return nil
}

func (d *DryRunWriter) SaveApplication(ctx context.Context, a *models.Application) error {
	old, err := d.Application(ctx, a.UUID)
	d.report("application", a.UUID, old, a, err)
	return nil
}

// CategoryAPI is the remote category surface used for pre-seeding.
type CategoryAPI interface {
	CategoryKeyExists(ctx context.Context, key string) (bool, error)
	CreateCategoryKey(ctx context.Context, key string) error
	CreateCategoryValue(ctx context.Context, key, value string) error
}

// DryRunCategories passes lookups through and logs creations instead of
// sending them.
type DryRunCategories struct {
	api CategoryAPI
	log zerolog.Logger
}

// NewDryRunCategories wraps api.
func NewDryRunCategories(api CategoryAPI, log zerolog.Logger) *DryRunCategories {
	return &DryRunCategories{api: api, log: log.With().Bool("dry_run", true).Logger()}
}

func (d *DryRunCategories) CategoryKeyExists(ctx context.Context, key string) (bool, error) {
	return d.api.CategoryKeyExists(ctx, key)
}

func (d *DryRunCategories) CreateCategoryKey(_ context.Context, key string) error {
	d.log.Info().Str("key", key).Msg("[DRY RUN] would create category key")
	return nil
}

func (d *DryRunCategories) CreateCategoryValue(_ context.Context, key, value string) error {
	d.log.Info().Str("key", key).Str("value", value).Msg("[DRY RUN] would create category value")
	return nil
}
