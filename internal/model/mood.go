package model

import (
	"fmt"
	"strings"
	"time"
)

// Mood is an ordinal self-assessment, great = 5 down to bad = 1.
type Mood string

const (
	MoodGreat Mood = "great"
	MoodGood  Mood = "good"
	MoodOkay  Mood = "okay"
	MoodLow   Mood = "low"
	MoodBad   Mood = "bad"
)

// Moods lists every mood from best to worst.
func Moods() []Mood {
	return []Mood{MoodGreat, MoodGood, MoodOkay, MoodLow, MoodBad}
}

// Score returns the ordinal value, or 0 for an unknown mood.
func (m Mood) Score() int {
	switch m {
	case MoodGreat:
		return 5
	case MoodGood:
		return 4
	case MoodOkay:
		return 3
	case MoodLow:
		return 2
	case MoodBad:
		return 1
	default:
		return 0
	}
}

func (m Mood) Valid() bool {
	return m.Score() > 0
}

// ParseMood converts user input into a Mood.
func ParseMood(raw string) (Mood, error) {
	m := Mood(strings.ToLower(strings.TrimSpace(raw)))
	if !m.Valid() {
		return "", Invalid("mood", "unknown mood %q", raw)
	}
	return m, nil
}

// MoodEntry is one row of the append-only mood log.
type MoodEntry struct {
	ID        uint `gorm:"primaryKey"`
	UserID    uint `gorm:"index"`
	Mood      Mood
	Timestamp time.Time `gorm:"index"`
	CreatedAt time.Time
}

func (m MoodEntry) String() string {
	return fmt.Sprintf("%s@%s", m.Mood, m.Timestamp.Format(time.RFC3339))
}

func (m MoodEntry) ItemID() uint {
	return m.ID
}

func (m MoodEntry) AnchorTime() (time.Time, bool) {
	if m.Timestamp.IsZero() {
		return time.Time{}, false
	}
	return m.Timestamp, true
}

// Rule is always nil: mood entries never repeat.
func (m MoodEntry) Rule() *Recurrence {
	return nil
}
