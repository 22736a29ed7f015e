package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/rflorenc/substrate-reconciler/internal/migration"
	"github.com/rflorenc/substrate-reconciler/internal/models"
)

// repository reads and writes records on a transaction.
type repository struct {
	db *gorm.DB
}

var _ migration.Repository = (*repository)(nil)

func (r *repository) take(ctx context.Context, dest any, query string, args ...any) error {
	err := r.db.WithContext(ctx).
		Where(query, args...).
		Where("deleted = ?", false).
		Order("uuid").
		Take(dest).Error
	return translate(err)
}

func (r *repository) update(ctx context.Context, model any, uuid string, updates map[string]any) error {
	res := r.db.WithContext(ctx).Model(model).Where("uuid = ?", uuid).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("record %s: %w", uuid, migration.ErrNotFound)
	}
	return nil
}

func (r *repository) ElementByInstanceID(ctx context.Context, instanceID string) (*models.Element, error) {
	var row elementModel
	if err := r.take(ctx, &row, "instance_id = ?", instanceID); err != nil {
		return nil, fmt.Errorf("element with instance %s: %w", instanceID, err)
	}
	return toDomainElement(row)
}

func (r *repository) Element(ctx context.Context, uuid string) (*models.Element, error) {
	var row elementModel
	if err := r.take(ctx, &row, "uuid = ?", uuid); err != nil {
		return nil, fmt.Errorf("element %s: %w", uuid, err)
	}
	return toDomainElement(row)
}

func (r *repository) Group(ctx context.Context, uuid string) (*models.Group, error) {
	var row groupModel
	if err := r.take(ctx, &row, "uuid = ?", uuid); err != nil {
		return nil, fmt.Errorf("substrate %s: %w", uuid, err)
	}
	return toDomainGroup(row)
}

func (r *repository) Template(ctx context.Context, uuid string) (*models.Template, error) {
	var row configModel
	if err := r.take(ctx, &row, "uuid = ?", uuid); err != nil {
		return nil, fmt.Errorf("substrate config %s: %w", uuid, err)
	}
	return toDomainTemplate(row)
}

func (r *repository) Blueprint(ctx context.Context, uuid string) (*models.Blueprint, error) {
	var row blueprintModel
	if err := r.take(ctx, &row, "uuid = ?", uuid); err != nil {
		return nil, fmt.Errorf("blueprint %s: %w", uuid, err)
	}
	return toDomainBlueprint(row)
}

func (r *repository) ProfileInstance(ctx context.Context, uuid string) (*models.ProfileInstance, error) {
	var row profileInstanceModel
	if err := r.take(ctx, &row, "uuid = ?", uuid); err != nil {
		return nil, fmt.Errorf("profile instance %s: %w", uuid, err)
	}
	return toDomainProfileInstance(row)
}

func (r *repository) Application(ctx context.Context, uuid string) (*models.Application, error) {
	var row applicationModel
	if err := r.take(ctx, &row, "uuid = ?", uuid); err != nil {
		return nil, fmt.Errorf("application %s: %w", uuid, err)
	}
	return toDomainApplication(row)
}

func (r *repository) Patch(ctx context.Context, uuid string) (*models.Patch, error) {
	var row patchModel
	if err := r.take(ctx, &row, "uuid = ?", uuid); err != nil {
		return nil, fmt.Errorf("patch %s: %w", uuid, err)
	}
	return toDomainPatch(row)
}

func (r *repository) PatchesByProfileInstance(ctx context.Context, profileUUID string) ([]models.Patch, error) {
	var rows []patchModel
	err := r.db.WithContext(ctx).
		Where("app_profile_instance_uuid = ? AND deleted = ?", profileUUID, false).
		Order("uuid").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("patches of %s: %w", profileUUID, err)
	}
	out := make([]models.Patch, 0, len(rows))
	for _, row := range rows {
		p, err := toDomainPatch(row)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, nil
}

func (r *repository) SaveElement(ctx context.Context, e *models.Element) error {
	updates, err := elementUpdates(e)
	if err != nil {
		return err
	}
	return r.update(ctx, &elementModel{}, e.UUID, updates)
}

func (r *repository) SaveGroup(ctx context.Context, g *models.Group) error {
	updates, err := documentUpdates(g)
	if err != nil {
		return err
	}
	return r.update(ctx, &groupModel{}, g.UUID, updates)
}

func (r *repository) SaveTemplate(ctx context.Context, t *models.Template) error {
	updates, err := documentUpdates(t)
	if err != nil {
		return err
	}
	return r.update(ctx, &configModel{}, t.UUID, updates)
}

func (r *repository) SaveBlueprint(ctx context.Context, b *models.Blueprint) error {
	updates, err := documentUpdates(b)
	if err != nil {
		return err
	}
	return r.update(ctx, &blueprintModel{}, b.UUID, updates)
}

func (r *repository) SavePatch(ctx context.Context, p *models.Patch) error {
	updates, err := documentUpdates(p)
	if err != nil {
		return err
	}
	return r.update(ctx, &patchModel{}, p.UUID, updates)
}

func (r *repository) SaveProfileInstance(ctx context.Context, p *models.ProfileInstance) error {
	updates, err := documentUpdates(p)
	if err != nil {
		return err
	}
	return r.update(ctx, &profileInstanceModel{}, p.UUID, updates)
}

func (r *repository) SaveApplication(ctx context.Context, a *models.Application) error {
	updates, err := applicationUpdates(a)
	if err != nil {
		return err
	}
	return r.update(ctx, &applicationModel{}, a.UUID, updates)
}
