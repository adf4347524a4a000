package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"bundlehub/internal/model"
)

type ContentRepository interface {
	FindByID(ctx context.Context, contentID string) (*model.ContentRecord, error)
	FindByBundleID(ctx context.Context, bundleID string) ([]*model.ContentRecord, error)
}

type UploadRepository interface {
	FindByID(ctx context.Context, uploadID string) (*model.CreatorUpload, error)
	FindByBundleID(ctx context.Context, bundleID string) ([]*model.CreatorUpload, error)
}

type contentRepoImpl struct {
	db *gorm.DB
}

func NewContentRepository(db *gorm.DB) ContentRepository {
	return &contentRepoImpl{
		db: db,
	}
}

func (r *contentRepoImpl) FindByID(ctx context.Context, contentID string) (*model.ContentRecord, error) {
	var record model.ContentRecord
	err := r.db.WithContext(ctx).
		Where("id = ?", contentID).
		First(&record).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		return nil, err
	}

	return &record, nil
}

func (r *contentRepoImpl) FindByBundleID(ctx context.Context, bundleID string) ([]*model.ContentRecord, error) {
	var records []*model.ContentRecord
	err := r.db.WithContext(ctx).
		Where("bundle_id = ?", bundleID).
		Find(&records).
		Error

	if err != nil {
		return nil, err
	}

	return records, nil
}

type uploadRepoImpl struct {
	db *gorm.DB
}

func NewUploadRepository(db *gorm.DB) UploadRepository {
	return &uploadRepoImpl{
		db: db,
	}
}

func (r *uploadRepoImpl) FindByID(ctx context.Context, uploadID string) (*model.CreatorUpload, error) {
	var upload model.CreatorUpload
	err := r.db.WithContext(ctx).
		Where("id = ?", uploadID).
		First(&upload).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		return nil, err
	}

	return &upload, nil
}

func (r *uploadRepoImpl) FindByBundleID(ctx context.Context, bundleID string) ([]*model.CreatorUpload, error) {
	var uploads []*model.CreatorUpload
	err := r.db.WithContext(ctx).
		Where("bundle_id = ?", bundleID).
		Find(&uploads).
		Error

	if err != nil {
		return nil, err
	}

	return uploads, nil
}
