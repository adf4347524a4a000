package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"bundlehub/internal/model"
)

type PurchaseIndexRepository interface {
	// FindByKey returns the record for an idempotency key, or
	// model.ErrNotFound when the key has never been seen.
	FindByKey(ctx context.Context, idempotencyKey string) (*model.PurchaseRecord, error)
	// CreateIfAbsent inserts the record unless the key already exists.
	// The bool reports whether this call did the insert; losing the race
	// is not an error.
	CreateIfAbsent(ctx context.Context, record *model.PurchaseRecord) (bool, error)
	ListCompletedByBuyer(ctx context.Context, buyerID string) ([]*model.PurchaseRecord, error)
}

type purchaseIndexRepoImpl struct {
	db *gorm.DB
}

func NewPurchaseIndexRepository(db *gorm.DB) PurchaseIndexRepository {
	return &purchaseIndexRepoImpl{
		db: db,
	}
}

func (r *purchaseIndexRepoImpl) FindByKey(ctx context.Context, idempotencyKey string) (*model.PurchaseRecord, error) {
	var record model.PurchaseRecord
	err := r.db.WithContext(ctx).
		Where("idempotency_key = ?", idempotencyKey).
		First(&record).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		return nil, err
	}

	return &record, nil
}

func (r *purchaseIndexRepoImpl) CreateIfAbsent(ctx context.Context, record *model.PurchaseRecord) (bool, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(record)

	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected > 0, nil
}

func (r *purchaseIndexRepoImpl) ListCompletedByBuyer(ctx context.Context, buyerID string) ([]*model.PurchaseRecord, error) {
	var records []*model.PurchaseRecord
	err := r.db.WithContext(ctx).
		Where("buyer_id = ?", buyerID).
		Where("status = ?", model.PurchaseCompleted).
		Order("purchased_at DESC").
		Find(&records).
		Error

	if err != nil {
		return nil, err
	}

	return records, nil
}
