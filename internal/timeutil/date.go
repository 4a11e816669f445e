// Package timeutil holds the calendar-date arithmetic shared by the indexer,
// the recurrence model and rollover. No timezone conversion happens here: every
// helper works on the location already carried by its argument.
package timeutil

import (
	"fmt"
	"time"

	"github.com/jinzhu/now"
)

// weekConfig pins weeks to start on Sunday, matching the month grid columns.
var weekConfig = &now.Config{WeekStartDay: time.Sunday}

// Date is a calendar date without time of day. It is comparable and usable as a map key.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf returns the calendar date of t in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// DateIn returns the calendar date of t as seen from loc.
func DateIn(t time.Time, loc *time.Location) Date {
	if loc != nil {
		t = t.In(loc)
	}
	return DateOf(t)
}

// Time returns midnight of d in loc.
func (d Date) Time(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

func (d Date) Before(o Date) bool {
	if d.Year != o.Year {
		return d.Year < o.Year
	}
	if d.Month != o.Month {
		return d.Month < o.Month
	}
	return d.Day < o.Day
}

func (d Date) After(o Date) bool {
	return o.Before(d)
}

// Weekday of d, Sunday = 0.
func (d Date) Weekday() time.Weekday {
	return d.utc().Weekday()
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

func (d Date) utc() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses YYYY-MM-DD into a Date.
func ParseDate(raw string) (Date, error) {
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return Date{}, err
	}
	return DateOf(t), nil
}

// StartOfDay returns midnight of t's day in t's location.
func StartOfDay(t time.Time) time.Time {
	return weekConfig.With(t).BeginningOfDay()
}

// StartOfWeek returns midnight of the Sunday starting t's week.
func StartOfWeek(t time.Time) time.Time {
	return weekConfig.With(t).BeginningOfWeek()
}

// StartOfMonth returns midnight of the first day of t's month.
func StartOfMonth(t time.Time) time.Time {
	return weekConfig.With(t).BeginningOfMonth()
}

// DaysIn returns the number of days in the given month.
func DaysIn(year int, month time.Month) int {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return weekConfig.With(first).EndOfMonth().Day()
}

// DaysBetween counts calendar days from a to b. It is DST-safe because the
// subtraction happens on UTC midnights built from the date components.
func DaysBetween(a, b Date) int {
	return int(b.utc().Sub(a.utc()).Hours() / 24)
}

// MonthsBetween counts whole calendar months from a's month to b's month.
func MonthsBetween(a, b Date) int {
	return (b.Year-a.Year)*12 + int(b.Month) - int(a.Month)
}

// AddDays moves d by n calendar days.
func (d Date) AddDays(n int) Date {
	return DateOf(d.utc().AddDate(0, 0, n))
}

// WeekStart returns the Sunday on or before d.
func (d Date) WeekStart() Date {
	return DateOf(StartOfWeek(d.utc()))
}
