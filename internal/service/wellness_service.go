package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"wellness-planner/internal/clock"
	"wellness-planner/internal/logger"
	"wellness-planner/internal/model"
	"wellness-planner/internal/repository"
	"wellness-planner/internal/wellness"
)

// WellnessService logs moods and sleep and computes their summaries.
type WellnessService struct {
	moodRepo  *repository.MoodRepository
	sleepRepo *repository.SleepRepository
	clock     clock.Clock
	logger    *zap.Logger
}

func NewWellnessService(moodRepo *repository.MoodRepository, sleepRepo *repository.SleepRepository, c clock.Clock, log *zap.Logger) *WellnessService {
	if c == nil {
		c = clock.System{}
	}
	return &WellnessService{moodRepo: moodRepo, sleepRepo: sleepRepo, clock: c, logger: logger.OrNop(log)}
}

// LogMood appends a mood stamped with the current time.
func (s *WellnessService) LogMood(ctx context.Context, user *model.User, mood model.Mood) (*model.MoodEntry, error) {
	entry := model.MoodEntry{UserID: user.ID, Mood: mood, Timestamp: s.clock.Now()}
	if err := s.moodRepo.Append(ctx, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

func (s *WellnessService) LatestMood(ctx context.Context, user *model.User) (model.Mood, bool, error) {
	entry, ok, err := s.moodRepo.Latest(ctx, user.ID)
	if err != nil || !ok {
		return "", false, err
	}
	return entry.Mood, true, nil
}

// MoodTrend returns the bar chart ending today plus the weekly direction.
func (s *WellnessService) MoodTrend(ctx context.Context, user *model.User, days int) ([]wellness.TrendDay, wellness.TrendDirection, error) {
	now := s.clock.Now()
	window := days
	if window < wellness.MonthlyWindow {
		window = wellness.MonthlyWindow
	}
	moods, err := s.moodRepo.ListSince(ctx, user.ID, now.AddDate(0, 0, -window-1))
	if err != nil {
		return nil, "", err
	}
	return wellness.Trend(moods, now, days), wellness.Direction(moods, now), nil
}

// SleepInput is one sleep log submitted by the user.
type SleepInput struct {
	Start        time.Time
	End          time.Time
	Quality      int
	Notes        string
	MoodOnWakeup *model.Mood
}

func (s *WellnessService) LogSleep(ctx context.Context, user *model.User, input SleepInput) (*model.SleepRecord, error) {
	record := model.SleepRecord{
		UserID:       user.ID,
		StartTime:    input.Start,
		EndTime:      input.End,
		Quality:      input.Quality,
		Notes:        strings.TrimSpace(input.Notes),
		MoodOnWakeup: input.MoodOnWakeup,
	}
	if err := s.sleepRepo.Insert(ctx, &record); err != nil {
		return nil, err
	}
	s.logger.Debug("sleep logged", zap.Uint("user_id", user.ID), zap.Duration("duration", record.Duration()))
	return &record, nil
}

// ListSleep returns the user's records newest first.
func (s *WellnessService) ListSleep(ctx context.Context, user *model.User) ([]model.SleepRecord, error) {
	return s.sleepRepo.ListByUser(ctx, user.ID)
}

func (s *WellnessService) SleepStats(ctx context.Context, user *model.User, days int) (wellness.SleepStats, error) {
	records, err := s.sleepRepo.ListByUser(ctx, user.ID)
	if err != nil {
		return wellness.SleepStats{}, err
	}
	return wellness.Stats(records, s.clock.Now(), days), nil
}

// LastSleep returns the newest record, if any.
func (s *WellnessService) LastSleep(ctx context.Context, user *model.User) (model.SleepRecord, bool, error) {
	records, err := s.sleepRepo.ListByUser(ctx, user.ID)
	if err != nil || len(records) == 0 {
		return model.SleepRecord{}, false, err
	}
	return records[0], true, nil
}
