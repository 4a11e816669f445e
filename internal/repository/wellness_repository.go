package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"wellness-planner/internal/model"
)

// MoodRepository is the append-only mood log.
type MoodRepository struct {
	db *gorm.DB
}

func NewMoodRepository(db *gorm.DB) *MoodRepository {
	return &MoodRepository{db: db}
}

func (r *MoodRepository) Append(ctx context.Context, entry *model.MoodEntry) error {
	if !entry.Mood.Valid() {
		return model.Invalid("mood", "unknown mood %q", entry.Mood)
	}
	if entry.Timestamp.IsZero() {
		return model.Invalid("timestamp", "is required")
	}
	entry.Timestamp = utc(entry.Timestamp)
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("append mood: %w", err)
	}
	return nil
}

// ListByUser returns the whole log oldest first.
func (r *MoodRepository) ListByUser(ctx context.Context, userID uint) ([]model.MoodEntry, error) {
	var entries []model.MoodEntry
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).
		Order("timestamp ASC, id ASC").
		Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("list moods: %w", err)
	}
	return entries, nil
}

// ListSince returns entries logged at or after since, oldest first.
func (r *MoodRepository) ListSince(ctx context.Context, userID uint, since time.Time) ([]model.MoodEntry, error) {
	var entries []model.MoodEntry
	if err := r.db.WithContext(ctx).Where("user_id = ? AND timestamp >= ?", userID, utc(since)).
		Order("timestamp ASC, id ASC").
		Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("list moods: %w", err)
	}
	return entries, nil
}

// Latest returns the most recent entry; ok is false when the log is empty.
func (r *MoodRepository) Latest(ctx context.Context, userID uint) (entry model.MoodEntry, ok bool, err error) {
	res := r.db.WithContext(ctx).Where("user_id = ?", userID).
		Order("timestamp DESC, id DESC").
		Limit(1).Find(&entry)
	if res.Error != nil {
		return model.MoodEntry{}, false, fmt.Errorf("latest mood: %w", res.Error)
	}
	return entry, res.RowsAffected > 0, nil
}

// SleepRepository stores sleep records.
type SleepRepository struct {
	db *gorm.DB
}

func NewSleepRepository(db *gorm.DB) *SleepRepository {
	return &SleepRepository{db: db}
}

func (r *SleepRepository) Insert(ctx context.Context, record *model.SleepRecord) error {
	if err := record.Validate(); err != nil {
		return err
	}
	record.StartTime, record.EndTime = utc(record.StartTime), utc(record.EndTime)
	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		return fmt.Errorf("insert sleep record: %w", err)
	}
	return nil
}

// ListByUser returns records newest first.
func (r *SleepRepository) ListByUser(ctx context.Context, userID uint) ([]model.SleepRecord, error) {
	var records []model.SleepRecord
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).
		Order("start_time DESC, id DESC").
		Find(&records).Error; err != nil {
		return nil, fmt.Errorf("list sleep records: %w", err)
	}
	return records, nil
}
