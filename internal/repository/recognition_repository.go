package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"parking-service/internal/clock"
)

// RecognitionRepository persists the plate recognition history to Postgres.
// The realtime ledger only carries live operational state; this log is what
// the history and plate-search endpoints query.
type RecognitionRepository struct {
	db    *gorm.DB
	clock clock.Clock
}

func NewRecognitionRepository(db *gorm.DB, clk clock.Clock) *RecognitionRepository {
	return &RecognitionRepository{db: db, clock: clk}
}

type Plate struct {
	ID         int64  `gorm:"primaryKey"`
	Number     string `gorm:"not null"`
	Normalized string `gorm:"not null;uniqueIndex"`
	CreatedAt  time.Time
}

type RecognitionEvent struct {
	ID              int64 `gorm:"primaryKey"`
	PlateID         *int64
	RawText         string `gorm:"not null"`
	NormalizedPlate string `gorm:"not null"`
	FormattedPlate  string `gorm:"not null"`
	VehicleClass    *string
	Confidence      *float64
	Source          string            `gorm:"not null"`
	EventTime       time.Time         `gorm:"not null"`
	RawPayload      datatypes.JSONMap `gorm:"type:jsonb"`
	CreatedAt       time.Time
}

func (r *RecognitionRepository) GetOrCreatePlate(ctx context.Context, normalized, original string) (int64, error) {
	var plate Plate
	err := r.db.WithContext(ctx).Where("normalized = ?", normalized).First(&plate).Error
	if err == nil {
		return plate.ID, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, err
	}

	plate = Plate{
		Number:     original,
		Normalized: normalized,
		CreatedAt:  r.clock.Now(),
	}
	if err := r.db.WithContext(ctx).Create(&plate).Error; err != nil {
		return 0, err
	}
	return plate.ID, nil
}

func (r *RecognitionRepository) CreateEvent(ctx context.Context, event *RecognitionEvent) error {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = r.clock.Now()
	}
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *RecognitionRepository) FindPlatesByNormalized(ctx context.Context, normalized string) ([]Plate, error) {
	var plates []Plate
	err := r.db.WithContext(ctx).
		Where("normalized LIKE ?", normalized+"%").
		Order("created_at DESC").
		Limit(50).
		Find(&plates).Error
	if err != nil {
		return nil, err
	}
	return plates, nil
}

type EventFilter struct {
	NormalizedPlate *string
	From            *time.Time
	To              *time.Time
	Limit           int
	Offset          int
}

func (r *RecognitionRepository) FindEvents(ctx context.Context, filter EventFilter) ([]RecognitionEvent, error) {
	query := r.db.WithContext(ctx).Model(&RecognitionEvent{})

	if filter.NormalizedPlate != nil {
		query = query.Where("normalized_plate = ?", *filter.NormalizedPlate)
	}
	if filter.From != nil {
		query = query.Where("event_time >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("event_time <= ?", *filter.To)
	}

	var events []RecognitionEvent
	err := query.Order("event_time DESC").
		Limit(filter.Limit).
		Offset(filter.Offset).
		Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}

// DeleteOldEvents удаляет события старше указанного количества дней
func (r *RecognitionRepository) DeleteOldEvents(ctx context.Context, days int) (int64, error) {
	cutoff := r.clock.Now().AddDate(0, 0, -days)
	result := r.db.WithContext(ctx).
		Where("event_time < ?", cutoff).
		Delete(&RecognitionEvent{})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
