package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"bundlehub/internal/model"
)

type CreatorRepository interface {
	Get(ctx context.Context, creatorID string) (*model.Creator, error)
	// IncrementSales bumps the aggregate counters atomically. The row is
	// created on first sale; the counters are never read-modify-written.
	IncrementSales(ctx context.Context, creatorID string, amountMinor int64) error
}

type BuyerRepository interface {
	Get(ctx context.Context, buyerID string) (*model.Buyer, error)
	IncrementPurchases(ctx context.Context, buyerID string, amountMinor int64) error
}

type creatorRepoImpl struct {
	db *gorm.DB
}

func NewCreatorRepository(db *gorm.DB) CreatorRepository {
	return &creatorRepoImpl{
		db: db,
	}
}

func (r *creatorRepoImpl) Get(ctx context.Context, creatorID string) (*model.Creator, error) {
	var creator model.Creator
	err := r.db.WithContext(ctx).
		Where("id = ?", creatorID).
		First(&creator).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		return nil, err
	}

	return &creator, nil
}

func (r *creatorRepoImpl) IncrementSales(ctx context.Context, creatorID string, amountMinor int64) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"total_sales":   gorm.Expr("creators.total_sales + 1"),
			"total_revenue": gorm.Expr("creators.total_revenue + ?", amountMinor),
			"updated_at":    time.Now(),
		}),
	}).Create(&model.Creator{
		ID:           creatorID,
		Plan:         string(model.PlanFree),
		TotalSales:   1,
		TotalRevenue: amountMinor,
	}).Error
}

type buyerRepoImpl struct {
	db *gorm.DB
}

func NewBuyerRepository(db *gorm.DB) BuyerRepository {
	return &buyerRepoImpl{
		db: db,
	}
}

func (r *buyerRepoImpl) Get(ctx context.Context, buyerID string) (*model.Buyer, error) {
	var buyer model.Buyer
	err := r.db.WithContext(ctx).
		Where("id = ?", buyerID).
		First(&buyer).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		return nil, err
	}

	return &buyer, nil
}

func (r *buyerRepoImpl) IncrementPurchases(ctx context.Context, buyerID string, amountMinor int64) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"total_purchases": gorm.Expr("buyers.total_purchases + 1"),
			"total_spent":     gorm.Expr("buyers.total_spent + ?", amountMinor),
			"updated_at":      time.Now(),
		}),
	}).Create(&model.Buyer{
		ID:             buyerID,
		TotalPurchases: 1,
		TotalSpent:     amountMinor,
	}).Error
}
