package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"bundlehub/internal/model"
)

type CheckoutOrderRepository interface {
	Create(ctx context.Context, order *model.CheckoutOrder) error
	FindBySessionID(ctx context.Context, sessionID string) (*model.CheckoutOrder, error)
	MarkCompleted(ctx context.Context, sessionID string) error
}

type checkoutOrderRepoImpl struct {
	db *gorm.DB
}

func NewCheckoutOrderRepository(db *gorm.DB) CheckoutOrderRepository {
	return &checkoutOrderRepoImpl{
		db: db,
	}
}

func (r *checkoutOrderRepoImpl) Create(ctx context.Context, order *model.CheckoutOrder) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *checkoutOrderRepoImpl) FindBySessionID(ctx context.Context, sessionID string) (*model.CheckoutOrder, error) {
	var order model.CheckoutOrder
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		First(&order).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		return nil, err
	}

	return &order, nil
}

func (r *checkoutOrderRepoImpl) MarkCompleted(ctx context.Context, sessionID string) error {
	return r.db.WithContext(ctx).Model(&model.CheckoutOrder{}).
		Where("session_id = ?", sessionID).
		Where("status IN ?", []string{"CREATED"}).
		Updates(map[string]interface{}{
			"status":     "COMPLETED",
			"updated_at": time.Now(),
		}).Error
}
