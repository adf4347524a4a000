package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"bundlehub/internal/model"
)

type SalesLedgerRepository interface {
	CreateIfAbsent(ctx context.Context, entry *model.SalesLedgerEntry) (bool, error)
	ListByCreator(ctx context.Context, creatorID string) ([]*model.SalesLedgerEntry, error)
}

type PurchaseHistoryRepository interface {
	CreateIfAbsent(ctx context.Context, entry *model.PurchaseHistoryEntry) (bool, error)
	ListByBuyer(ctx context.Context, buyerID string) ([]*model.PurchaseHistoryEntry, error)
}

type salesLedgerRepoImpl struct {
	db *gorm.DB
}

func NewSalesLedgerRepository(db *gorm.DB) SalesLedgerRepository {
	return &salesLedgerRepoImpl{
		db: db,
	}
}

func (r *salesLedgerRepoImpl) CreateIfAbsent(ctx context.Context, entry *model.SalesLedgerEntry) (bool, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(entry)

	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected > 0, nil
}

func (r *salesLedgerRepoImpl) ListByCreator(ctx context.Context, creatorID string) ([]*model.SalesLedgerEntry, error) {
	var entries []*model.SalesLedgerEntry
	err := r.db.WithContext(ctx).
		Where("creator_id = ?", creatorID).
		Order("sold_at DESC").
		Find(&entries).
		Error

	if err != nil {
		return nil, err
	}

	return entries, nil
}

type purchaseHistoryRepoImpl struct {
	db *gorm.DB
}

func NewPurchaseHistoryRepository(db *gorm.DB) PurchaseHistoryRepository {
	return &purchaseHistoryRepoImpl{
		db: db,
	}
}

func (r *purchaseHistoryRepoImpl) CreateIfAbsent(ctx context.Context, entry *model.PurchaseHistoryEntry) (bool, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(entry)

	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected > 0, nil
}

func (r *purchaseHistoryRepoImpl) ListByBuyer(ctx context.Context, buyerID string) ([]*model.PurchaseHistoryEntry, error) {
	var entries []*model.PurchaseHistoryEntry
	err := r.db.WithContext(ctx).
		Where("buyer_id = ?", buyerID).
		Order("purchased_at DESC").
		Find(&entries).
		Error

	if err != nil {
		return nil, err
	}

	return entries, nil
}
