// Package wellness aggregates the sleep and mood logs into the numbers shown on
// the dashboard and in the daily report.
package wellness

import (
	"time"

	"wellness-planner/internal/calendar"
	"wellness-planner/internal/model"
	"wellness-planner/internal/timeutil"
)

const (
	// DefaultSleepWindow is the number of days covered by sleep statistics.
	DefaultSleepWindow = 7
	// DefaultTrendDays is the length of the mood bar chart.
	DefaultTrendDays = 7
	// MonthlyWindow is the comparison window for the mood direction.
	MonthlyWindow = 30
)

// SleepStats are expressed in hours. All fields are zero without records.
type SleepStats struct {
	Records         int
	AverageDuration float64
	AverageQuality  float64
	TotalSleep      float64
}

// Duration of one record, end minus start.
func Duration(r model.SleepRecord) time.Duration {
	return r.Duration()
}

// Stats summarises records that started within the last days days before now.
// Records with a non-positive duration are ignored.
func Stats(records []model.SleepRecord, now time.Time, days int) SleepStats {
	if days <= 0 {
		days = DefaultSleepWindow
	}
	cutoff := now.AddDate(0, 0, -days)

	var (
		stats   SleepStats
		total   time.Duration
		quality int
	)
	for _, r := range records {
		if r.StartTime.Before(cutoff) || Duration(r) <= 0 {
			continue
		}
		stats.Records++
		total += Duration(r)
		quality += r.Quality
	}
	if stats.Records == 0 {
		return SleepStats{}
	}
	stats.TotalSleep = total.Hours()
	stats.AverageDuration = stats.TotalSleep / float64(stats.Records)
	stats.AverageQuality = float64(quality) / float64(stats.Records)
	return stats
}

// Height maps a mood onto the chart bar height in percent; 0 means no entry.
func Height(m model.Mood) int {
	switch m {
	case model.MoodGreat:
		return 90
	case model.MoodGood:
		return 75
	case model.MoodOkay:
		return 60
	case model.MoodLow:
		return 40
	case model.MoodBad:
		return 20
	default:
		return 0
	}
}

// TrendDay is one bar of the mood chart.
type TrendDay struct {
	Date    time.Time
	Mood    model.Mood
	HasMood bool
	Height  int
}

// Trend returns days bars ending with today, oldest first. Each bar uses the
// last mood logged on that day.
func Trend(moods []model.MoodEntry, today time.Time, days int) []TrendDay {
	if days <= 0 {
		days = DefaultTrendDays
	}
	loc := today.Location()
	idx := calendar.NewMoodIndex(moods, loc)
	last := timeutil.DateOf(today)

	out := make([]TrendDay, 0, days)
	for i := days - 1; i >= 0; i-- {
		day := last.AddDays(-i).Time(loc)
		bar := TrendDay{Date: day}
		if m, ok := idx.On(day); ok {
			bar.Mood = m
			bar.HasMood = true
			bar.Height = Height(m)
		}
		out = append(out, bar)
	}
	return out
}

// AverageMood is the mean mood score of entries logged within the last days
// days before now, or 0 without entries.
func AverageMood(moods []model.MoodEntry, now time.Time, days int) float64 {
	cutoff := now.AddDate(0, 0, -days)
	var sum, n int
	for _, m := range moods {
		if m.Timestamp.Before(cutoff) || !m.Mood.Valid() {
			continue
		}
		sum += m.Mood.Score()
		n++
	}
	if n == 0 {
		return 0
	}
	return float64(sum) / float64(n)
}

// TrendDirection compares the weekly average against the monthly one.
type TrendDirection string

const (
	Improving TrendDirection = "improving"
	Declining TrendDirection = "declining"
	Stable    TrendDirection = "stable"
)

// Direction reports whether the last week is better or worse than the last month.
func Direction(moods []model.MoodEntry, now time.Time) TrendDirection {
	diff := AverageMood(moods, now, DefaultTrendDays) - AverageMood(moods, now, MonthlyWindow)
	switch {
	case diff > 0:
		return Improving
	case diff < 0:
		return Declining
	default:
		return Stable
	}
}
