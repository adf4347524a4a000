package repository

import (
	"context"

	"gorm.io/gorm"

	"bundlehub/internal/model"
)

type LegacyPurchaseRepository interface {
	// ListByType pages through legacy rows of one record type in insertion
	// order. The legacy collection is read-only to this core.
	ListByType(ctx context.Context, recordType string, afterID uint, limit int) ([]*model.LegacyPurchase, error)
}

type legacyPurchaseRepoImpl struct {
	db *gorm.DB
}

func NewLegacyPurchaseRepository(db *gorm.DB) LegacyPurchaseRepository {
	return &legacyPurchaseRepoImpl{
		db: db,
	}
}

func (r *legacyPurchaseRepoImpl) ListByType(ctx context.Context, recordType string, afterID uint, limit int) ([]*model.LegacyPurchase, error) {
	var rows []*model.LegacyPurchase
	err := r.db.WithContext(ctx).
		Where("record_type = ?", recordType).
		Where("id > ?", afterID).
		Order("id ASC").
		Limit(limit).
		Find(&rows).
		Error

	if err != nil {
		return nil, err
	}

	return rows, nil
}
