// Package recurrence validates repeat rules and answers whether a rule anchored
// at a date produces an occurrence on a given day. It does not enumerate
// occurrences; callers test the days they are about to display.
package recurrence

import (
	"sort"
	"strings"
	"time"

	"wellness-planner/internal/model"
	"wellness-planner/internal/timeutil"
)

// ParseFrequency converts user input into a Frequency.
func ParseFrequency(raw string) (model.Frequency, error) {
	f := model.Frequency(strings.ToLower(strings.TrimSpace(raw)))
	switch f {
	case model.FrequencyDaily, model.FrequencyWeekly, model.FrequencyMonthly:
		return f, nil
	default:
		return "", model.Invalid("frequency", "unknown frequency %q", raw)
	}
}

// New builds a validated, normalised rule. Weekday indices are sorted and
// de-duplicated; they are dropped for daily and monthly rules.
func New(freq model.Frequency, interval int, daysOfWeek []int, endDate *time.Time) (model.Recurrence, error) {
	rule := model.Recurrence{
		Frequency:  freq,
		Interval:   interval,
		DaysOfWeek: daysOfWeek,
		EndDate:    endDate,
	}
	if err := Validate(rule); err != nil {
		return model.Recurrence{}, err
	}
	return Normalize(rule), nil
}

// Validate rejects unknown frequencies, intervals below one and weekday
// indices outside 0..6.
func Validate(rule model.Recurrence) error {
	switch rule.Frequency {
	case model.FrequencyDaily, model.FrequencyWeekly, model.FrequencyMonthly:
	default:
		return model.Invalid("frequency", "unknown frequency %q", rule.Frequency)
	}
	if rule.Interval <= 0 {
		return model.Invalid("interval", "must be a positive integer, got %d", rule.Interval)
	}
	if rule.Frequency == model.FrequencyWeekly {
		for _, d := range rule.DaysOfWeek {
			if d < 0 || d > 6 {
				return model.Invalid("days_of_week", "weekday %d out of range 0-6", d)
			}
		}
	}
	return nil
}

// Normalize returns a copy with canonical weekday ordering.
func Normalize(rule model.Recurrence) model.Recurrence {
	out := rule
	if rule.Frequency != model.FrequencyWeekly || len(rule.DaysOfWeek) == 0 {
		out.DaysOfWeek = nil
		return out
	}
	seen := make(map[int]struct{}, len(rule.DaysOfWeek))
	days := make([]int, 0, len(rule.DaysOfWeek))
	for _, d := range rule.DaysOfWeek {
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		days = append(days, d)
	}
	sort.Ints(days)
	out.DaysOfWeek = days
	return out
}

// EffectiveDays returns the weekdays a weekly rule fires on: its own set, or
// the anchor's weekday when the set is empty.
func EffectiveDays(rule model.Recurrence, anchor time.Time) []time.Weekday {
	if len(rule.DaysOfWeek) == 0 {
		return []time.Weekday{anchor.Weekday()}
	}
	days := make([]time.Weekday, 0, len(rule.DaysOfWeek))
	for _, d := range rule.DaysOfWeek {
		days = append(days, time.Weekday(d))
	}
	return days
}

// OccursOn reports whether rule, anchored at anchor, is active on candidate's
// calendar day. The anchor is read in candidate's location. The rule is assumed
// valid; see Validate.
func OccursOn(rule model.Recurrence, anchor, candidate time.Time) bool {
	loc := candidate.Location()
	anchor = anchor.In(loc)
	a := timeutil.DateOf(anchor)
	c := timeutil.DateOf(candidate)

	if c.Before(a) {
		return false
	}
	if rule.EndDate != nil && c.After(timeutil.DateIn(*rule.EndDate, loc)) {
		return false
	}
	interval := rule.Interval
	if interval <= 0 {
		interval = 1
	}

	switch rule.Frequency {
	case model.FrequencyDaily:
		return timeutil.DaysBetween(a, c)%interval == 0
	case model.FrequencyWeekly:
		weeks := timeutil.DaysBetween(a.WeekStart(), c.WeekStart()) / 7
		if weeks%interval != 0 {
			return false
		}
		wd := c.Weekday()
		for _, d := range EffectiveDays(rule, anchor) {
			if d == wd {
				return true
			}
		}
		return false
	case model.FrequencyMonthly:
		if timeutil.MonthsBetween(a, c)%interval != 0 {
			return false
		}
		day := a.Day
		if last := timeutil.DaysIn(c.Year, c.Month); day > last {
			day = last
		}
		return c.Day == day
	default:
		return false
	}
}
