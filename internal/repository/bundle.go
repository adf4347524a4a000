package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"bundlehub/internal/model"
)

type BundleRepository interface {
	FindByID(ctx context.Context, bundleID string) (*model.BundleDocument, error)
	FindActiveByCreator(ctx context.Context, creatorID string) ([]*model.BundleDocument, error)
	// UpdateContent applies fn to the current bundle row and writes the
	// result back inside a single transaction, so concurrent content
	// additions on the same bundle serialize through the document.
	UpdateContent(ctx context.Context, bundleID string, fn func(b *model.BundleDocument) error) (*model.BundleDocument, error)
}

type bundleRepoImpl struct {
	db *gorm.DB
}

func NewBundleRepository(db *gorm.DB) BundleRepository {
	return &bundleRepoImpl{
		db: db,
	}
}

func (r *bundleRepoImpl) FindByID(ctx context.Context, bundleID string) (*model.BundleDocument, error) {
	var bundle model.BundleDocument
	err := r.db.WithContext(ctx).
		Where("id = ?", bundleID).
		First(&bundle).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("bundle %s: %w", bundleID, model.ErrNotFound)
		}
		return nil, err
	}

	return &bundle, nil
}

func (r *bundleRepoImpl) FindActiveByCreator(ctx context.Context, creatorID string) ([]*model.BundleDocument, error) {
	var bundles []*model.BundleDocument
	err := r.db.WithContext(ctx).
		Where("creator_id = ?", creatorID).
		Where("active = ?", true).
		Find(&bundles).
		Error

	if err != nil {
		return nil, err
	}

	return bundles, nil
}

func (r *bundleRepoImpl) UpdateContent(ctx context.Context, bundleID string, fn func(b *model.BundleDocument) error) (*model.BundleDocument, error) {
	var bundle model.BundleDocument
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", bundleID).First(&bundle).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("bundle %s: %w", bundleID, model.ErrNotFound)
			}
			return err
		}

		if err := fn(&bundle); err != nil {
			return err
		}

		return tx.Save(&bundle).Error
	})

	if err != nil {
		return nil, err
	}

	return &bundle, nil
}
