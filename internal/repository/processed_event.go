package repository

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"bundlehub/internal/model"
)

type ProcessedEventRepository interface {
	Exists(eventID string) (bool, error)
	MarkProcessed(eventID, eventType string) error
}

type processedEventRepositoryImpl struct {
	db *gorm.DB
}

func NewProcessedEventRepository(db *gorm.DB) ProcessedEventRepository {
	return &processedEventRepositoryImpl{db: db}
}

func (r *processedEventRepositoryImpl) Exists(eventID string) (bool, error) {
	var count int64
	err := r.db.Model(&model.ProcessedEvent{}).
		Where("event_id = ?", eventID).
		Count(&count).Error

	return count > 0, err
}

func (r *processedEventRepositoryImpl) MarkProcessed(eventID string, eventType string) error {
	// redelivery between Exists and here is harmless, the recorder dedups too
	return r.db.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&model.ProcessedEvent{
			EventID:     eventID,
			EventType:   eventType,
			ProcessedAt: time.Now(),
		}).Error
}
