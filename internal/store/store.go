// Package store persists substrate records in postgres through gorm.
package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/rflorenc/substrate-reconciler/internal/migration"
	"github.com/rflorenc/substrate-reconciler/internal/models"
)

// Store is the postgres-backed record store.
type Store struct {
	db *gorm.DB
}

var _ migration.Store = (*Store)(nil)

// New wraps an open database.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Begin opens the transaction a batch runs in.
func (s *Store) Begin(ctx context.Context) (migration.UnitOfWork, error) {
	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, fmt.Errorf("begin transaction: %w", tx.Error)
	}
	return &unitOfWork{repository: repository{db: tx}, tx: tx}, nil
}

// Accounts returns the live management-plane accounts with their cluster
// accounts.
func (s *Store) Accounts(ctx context.Context) ([]models.Account, error) {
	var pcs []pcAccountModel
	if err := s.db.WithContext(ctx).Where("deleted = ?", false).Order("uuid").Find(&pcs).Error; err != nil {
		return nil, fmt.Errorf("listing pc accounts: %w", err)
	}
	var pes []peAccountModel
	if err := s.db.WithContext(ctx).Where("deleted = ?", false).Order("uuid").Find(&pes).Error; err != nil {
		return nil, fmt.Errorf("listing pe accounts: %w", err)
	}
	return toDomainAccounts(pcs, pes), nil
}

func (s *Store) ApplicationsInProject(ctx context.Context, project string) ([]models.Application, error) {
	var rows []applicationModel
	err := s.db.WithContext(ctx).
		Where("project_name = ? AND deleted = ?", project, false).
		Order("name").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("listing applications of %s: %w", project, err)
	}
	out := make([]models.Application, 0, len(rows))
	for _, row := range rows {
		a, err := toDomainApplication(row)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, nil
}

func (s *Store) ElementsByProfileInstance(ctx context.Context, profileUUID, groupType string) ([]models.Element, error) {
	var rows []elementModel
	err := s.db.WithContext(ctx).
		Joins("JOIN substrates ON substrates.uuid = substrate_elements.replica_group_uuid").
		Where("substrate_elements.app_profile_instance_uuid = ?", profileUUID).
		Where("substrates.type = ? AND substrates.deleted = ? AND substrate_elements.deleted = ?", groupType, false, false).
		Order("substrate_elements.uuid").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("listing elements of %s: %w", profileUUID, err)
	}
	out := make([]models.Element, 0, len(rows))
	for _, row := range rows {
		e, err := toDomainElement(row)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, nil
}

// translate maps gorm's miss onto the store-agnostic sentinel.
func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return migration.ErrNotFound
	}
	return err
}

type unitOfWork struct {
	repository
	tx *gorm.DB
}

func (u *unitOfWork) Savepoint(name string) error {
	return u.tx.SavePoint(name).Error
}

func (u *unitOfWork) RollbackTo(name string) error {
	return u.tx.RollbackTo(name).Error
}

func (u *unitOfWork) Commit() error {
	return u.tx.Commit().Error
}

func (u *unitOfWork) Rollback() error {
	return u.tx.Rollback().Error
}
