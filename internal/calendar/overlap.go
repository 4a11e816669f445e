package calendar

import (
	"sort"

	"wellness-planner/internal/model"
)

// Placement is an event's column within its overlap cluster.
type Placement struct {
	Column       int
	TotalColumns int
}

// Width is the share of the day column, in percent.
func (p Placement) Width() float64 {
	if p.TotalColumns <= 0 {
		return 100
	}
	return 100 / float64(p.TotalColumns)
}

// Left is the offset from the day column's left edge, in percent.
func (p Placement) Left() float64 {
	return float64(p.Column) * p.Width()
}

// PlacedEvent pairs an event with its placement and resolved color.
type PlacedEvent struct {
	Event model.CalendarEvent
	Placement
	Color string
}

// Layout packs one day's events into columns. Events are colored greedily in
// start order (ties by id) with the lowest column not held by an overlapping,
// already placed event. TotalColumns is computed per connected overlap cluster,
// so unrelated events on the same day keep their full width.
func Layout(events []model.CalendarEvent) (map[uint]Placement, error) {
	ordered, err := sortForLayout(events)
	if err != nil {
		return nil, err
	}
	n := len(ordered)
	columns := make([]int, n)
	clusters := newUnionFind(n)

	for i := 0; i < n; i++ {
		taken := make(map[int]bool)
		for j := 0; j < i; j++ {
			if ordered[i].Overlaps(ordered[j]) {
				taken[columns[j]] = true
				clusters.union(i, j)
			}
		}
		col := 0
		for taken[col] {
			col++
		}
		columns[i] = col
	}

	width := make(map[int]int, n)
	for i := 0; i < n; i++ {
		root := clusters.find(i)
		if columns[i]+1 > width[root] {
			width[root] = columns[i] + 1
		}
	}

	out := make(map[uint]Placement, n)
	for i, e := range ordered {
		out[e.ID] = Placement{Column: columns[i], TotalColumns: width[clusters.find(i)]}
	}
	return out, nil
}

// LayoutDay is Layout returning events in render order with colors resolved
// against accent.
func LayoutDay(events []model.CalendarEvent, accent string) ([]PlacedEvent, error) {
	placements, err := Layout(events)
	if err != nil {
		return nil, err
	}
	ordered, _ := sortForLayout(events)
	out := make([]PlacedEvent, 0, len(ordered))
	for _, e := range ordered {
		out = append(out, PlacedEvent{
			Event:     e,
			Placement: placements[e.ID],
			Color:     e.ColorOr(accent),
		})
	}
	return out, nil
}

func sortForLayout(events []model.CalendarEvent) ([]model.CalendarEvent, error) {
	seen := make(map[uint]struct{}, len(events))
	ordered := make([]model.CalendarEvent, 0, len(events))
	for _, e := range events {
		if err := e.Validate(); err != nil {
			return nil, err
		}
		if _, dup := seen[e.ID]; dup {
			return nil, model.Invalid("event", "duplicate event id %d in layout", e.ID)
		}
		seen[e.ID] = struct{}{}
		ordered = append(ordered, e)
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		si, _ := ordered[i].Interval()
		sj, _ := ordered[j].Interval()
		if !si.Equal(sj) {
			return si.Before(sj)
		}
		return ordered[i].ID < ordered[j].ID
	})
	return ordered, nil
}

type unionFind struct {
	parent []int
}

func newUnionFind(n int) *unionFind {
	parent := make([]int, n)
	for i := range parent {
		parent[i] = i
	}
	return &unionFind{parent: parent}
}

func (u *unionFind) find(i int) int {
	for u.parent[i] != i {
		u.parent[i] = u.parent[u.parent[i]]
		i = u.parent[i]
	}
	return i
}

func (u *unionFind) union(a, b int) {
	ra, rb := u.find(a), u.find(b)
	if ra != rb {
		u.parent[ra] = rb
	}
}
