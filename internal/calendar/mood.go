package calendar

import (
	"time"

	"wellness-planner/internal/model"
	"wellness-planner/internal/timeutil"
)

// Mood colors used by the grid; great uses the theme accent.
const (
	ColorGood = "#22c55e"
	ColorOkay = "#eab308"
	ColorLow  = "#ef4444"
	ColorBad  = "#b91c1c"
)

// MoodIndex keeps the chronologically last mood entry of every day.
type MoodIndex struct {
	loc  *time.Location
	last map[timeutil.Date]model.MoodEntry
}

// NewMoodIndex buckets moods by day in loc. Entries with equal timestamps
// resolve to the one appearing later in moods.
func NewMoodIndex(moods []model.MoodEntry, loc *time.Location) *MoodIndex {
	if loc == nil {
		loc = time.Local
	}
	idx := &MoodIndex{loc: loc, last: make(map[timeutil.Date]model.MoodEntry)}
	for _, m := range moods {
		if m.Timestamp.IsZero() || !m.Mood.Valid() {
			continue
		}
		key := timeutil.DateIn(m.Timestamp, loc)
		if prev, ok := idx.last[key]; ok && prev.Timestamp.After(m.Timestamp) {
			continue
		}
		idx.last[key] = m
	}
	return idx
}

// On returns the mood for day, if any entry landed on it.
func (x *MoodIndex) On(day time.Time) (model.Mood, bool) {
	entry, ok := x.last[timeutil.DateIn(day, x.loc)]
	if !ok {
		return "", false
	}
	return entry.Mood, true
}

// MoodForDay applies last-write-wins within day.
func MoodForDay(moods []model.MoodEntry, day time.Time) (model.Mood, bool) {
	return NewMoodIndex(moods, day.Location()).On(day)
}

// MoodColor maps a mood onto the grid background color.
func MoodColor(m model.Mood, accent string) string {
	switch m {
	case model.MoodGreat:
		return accent
	case model.MoodGood:
		return ColorGood
	case model.MoodOkay:
		return ColorOkay
	case model.MoodLow:
		return ColorLow
	case model.MoodBad:
		return ColorBad
	default:
		return ""
	}
}
