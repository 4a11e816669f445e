// Package calendar maps tasks, events and mood entries onto calendar days,
// packs overlapping events into columns and builds the 42-cell month grid.
// Everything here is a pure function of its inputs.
package calendar

import (
	"sort"
	"time"

	"wellness-planner/internal/model"
	"wellness-planner/internal/recurrence"
	"wellness-planner/internal/timeutil"
)

// Dated is the capability shared by tasks, events and mood entries.
type Dated interface {
	ItemID() uint
	AnchorTime() (time.Time, bool)
	Rule() *model.Recurrence
}

// spanning items (all-day events) cover every day through LastDay.
type spanning interface {
	LastDay(loc *time.Location) timeutil.Date
}

// maxSpanDays bounds how many buckets a single all-day event may fill.
const maxSpanDays = 366

// Index buckets a snapshot of items by calendar day once, so that per-day
// lookups do not rescan the whole collection.
type Index[T Dated] struct {
	loc       *time.Location
	items     []T
	byDay     map[timeutil.Date][]int
	recurring []recurringItem
}

// recurringItem is a rule-driven item and the number of days each of its
// occurrences covers.
type recurringItem struct {
	pos  int
	span int
}

// NewIndex builds the day index for items in the reference location loc.
// Items without an anchor date are left out.
func NewIndex[T Dated](items []T, loc *time.Location) *Index[T] {
	if loc == nil {
		loc = time.Local
	}
	idx := &Index[T]{
		loc:   loc,
		items: items,
		byDay: make(map[timeutil.Date][]int, len(items)),
	}
	for i, item := range items {
		anchor, ok := item.AnchorTime()
		if !ok {
			continue
		}
		first := timeutil.DateIn(anchor, loc)
		last := first
		if s, ok := any(item).(spanning); ok {
			last = s.LastDay(loc)
		}
		if item.Rule() != nil {
			idx.recurring = append(idx.recurring, recurringItem{pos: i, span: spanDays(first, last)})
			continue
		}
		for d, n := first, 0; !d.After(last) && n < maxSpanDays; d, n = d.AddDays(1), n+1 {
			idx.byDay[d] = append(idx.byDay[d], i)
		}
	}
	return idx
}

// Location is the reference location used for bucketing.
func (x *Index[T]) Location() *time.Location {
	return x.loc
}

// On returns the items that belong to day, in input order. Recurring items are
// included on every day one of their occurrences covers.
func (x *Index[T]) On(day time.Time) []T {
	day = day.In(x.loc)
	key := timeutil.DateOf(day)

	positions := append([]int(nil), x.byDay[key]...)
	for _, r := range x.recurring {
		item := x.items[r.pos]
		anchor, _ := item.AnchorTime()
		if _, ok := coveringOccurrence(*item.Rule(), anchor, day, r.span); ok {
			positions = append(positions, r.pos)
		}
	}
	if len(positions) == 0 {
		return nil
	}
	sort.Ints(positions)

	out := make([]T, 0, len(positions))
	for _, i := range positions {
		out = append(out, x.items[i])
	}
	return out
}

// ItemsOnDay answers a single "what belongs to day" query. Dates are compared in
// day's location. Build an Index instead when querying many days.
func ItemsOnDay[T Dated](items []T, day time.Time) []T {
	return NewIndex(items, day.Location()).On(day)
}

// ProjectEvent moves a recurring event's times onto the occurrence that covers
// day, keeping the wall-clock start and the duration. For a multi-day all-day
// event that occurrence may start before day. Non-recurring events are
// returned unchanged.
func ProjectEvent(e model.CalendarEvent, day time.Time) model.CalendarEvent {
	if e.Recurrence == nil {
		return e
	}
	loc := day.Location()
	start := e.StartTime.In(loc)
	span := spanDays(timeutil.DateOf(start), e.LastDay(loc))
	if occ, ok := coveringOccurrence(*e.Recurrence, e.StartTime, day, span); ok {
		day = occ
	}
	offset := timeutil.DaysBetween(timeutil.DateOf(start), timeutil.DateOf(day))
	if offset == 0 {
		return e
	}
	duration := e.EndTime.Sub(e.StartTime)
	e.StartTime = start.AddDate(0, 0, offset)
	e.EndTime = e.StartTime.Add(duration)
	return e
}

// coveringOccurrence finds the occurrence of rule whose span of days includes
// day, preferring the one starting latest. It returns that occurrence's day.
func coveringOccurrence(rule model.Recurrence, anchor, day time.Time, span int) (time.Time, bool) {
	for k := 0; k < span; k++ {
		candidate := day.AddDate(0, 0, -k)
		if recurrence.OccursOn(rule, anchor, candidate) {
			return candidate, true
		}
	}
	return time.Time{}, false
}

func spanDays(first, last timeutil.Date) int {
	n := timeutil.DaysBetween(first, last) + 1
	switch {
	case n < 1:
		return 1
	case n > maxSpanDays:
		return maxSpanDays
	}
	return n
}
