package model

import "time"

// SleepRecord is one night (or nap). Spans across midnight are allowed.
type SleepRecord struct {
	ID           uint      `gorm:"primaryKey"`
	UserID       uint      `gorm:"index"`
	StartTime    time.Time `gorm:"index"`
	EndTime      time.Time
	Quality      int
	Notes        string
	MoodOnWakeup *Mood
	CreatedAt    time.Time
}

// Validate checks the record invariants before it is stored.
func (r SleepRecord) Validate() error {
	if r.StartTime.IsZero() || r.EndTime.IsZero() {
		return Invalid("sleep", "start and end time are required")
	}
	if !r.EndTime.After(r.StartTime) {
		return Invalid("sleep", "end time %s must be after start time %s",
			r.EndTime.Format(time.RFC3339), r.StartTime.Format(time.RFC3339))
	}
	if r.Quality < 1 || r.Quality > 5 {
		return Invalid("quality", "must be between 1 and 5, got %d", r.Quality)
	}
	if r.MoodOnWakeup != nil && !r.MoodOnWakeup.Valid() {
		return Invalid("mood_on_wakeup", "unknown mood %q", *r.MoodOnWakeup)
	}
	return nil
}

// Duration is EndTime - StartTime.
func (r SleepRecord) Duration() time.Duration {
	return r.EndTime.Sub(r.StartTime)
}
