package calendar

import (
	"time"

	"wellness-planner/internal/clock"
	"wellness-planner/internal/model"
	"wellness-planner/internal/timeutil"
)

const (
	// GridCells is six full weeks, so the grid never changes row count.
	GridCells = 42
	// MaxVisibleEvents is the per-day display cap; the rest is summarised.
	MaxVisibleEvents = 3
	// DefaultAccent is used for great moods and events without a color.
	DefaultAccent = "#7c3aed"
)

// Cell is one square of the month grid. Padding cells have DayNumber 0 and no data.
type Cell struct {
	Index     int
	DayNumber int
	InMonth   bool
	IsToday   bool
	Date      time.Time
	Tasks     []model.Task
	Events    []PlacedEvent
	Mood      model.Mood
	HasMood   bool
	MoodColor string
}

// VisibleEvents returns at most MaxVisibleEvents events.
func (c Cell) VisibleEvents() []PlacedEvent {
	if len(c.Events) <= MaxVisibleEvents {
		return c.Events
	}
	return c.Events[:MaxVisibleEvents]
}

// HiddenEvents counts events beyond the display cap.
func (c Cell) HiddenEvents() int {
	if len(c.Events) <= MaxVisibleEvents {
		return 0
	}
	return len(c.Events) - MaxVisibleEvents
}

// HasHighPriority reports an open high-priority task on the day.
func (c Cell) HasHighPriority() bool {
	for _, t := range c.Tasks {
		if t.Priority == model.PriorityHigh && !t.IsDone() {
			return true
		}
	}
	return false
}

// Month is the computed grid for one calendar month.
type Month struct {
	Year         int
	Month        time.Month
	FirstWeekday time.Weekday
	DaysInMonth  int
	Cells        [GridCells]Cell
}

// InMonthCells returns the cells carrying a day number, in order.
func (m Month) InMonthCells() []Cell {
	out := make([]Cell, 0, m.DaysInMonth)
	for _, c := range m.Cells {
		if c.InMonth {
			out = append(out, c)
		}
	}
	return out
}

// CellFor returns the cell of the given day number.
func (m Month) CellFor(dayNumber int) (Cell, bool) {
	if dayNumber < 1 || dayNumber > m.DaysInMonth {
		return Cell{}, false
	}
	return m.Cells[int(m.FirstWeekday)+dayNumber-1], true
}

type options struct {
	clock  clock.Clock
	accent string
}

// Option customises BuildMonth.
type Option func(*options)

// WithClock sets the clock used for the today flag.
func WithClock(c clock.Clock) Option {
	return func(o *options) {
		if c != nil {
			o.clock = c
		}
	}
}

// WithAccent sets the theme accent color.
func WithAccent(accent string) Option {
	return func(o *options) {
		if accent != "" {
			o.accent = accent
		}
	}
}

// BuildMonth composes the indexer, the overlap packer and the mood rule into
// the 42-cell grid for monthAnchor's month. Dates are resolved in
// monthAnchor's location. Layout validation errors are returned unchanged.
func BuildMonth(monthAnchor time.Time, tasks []model.Task, events []model.CalendarEvent, moods []model.MoodEntry, opts ...Option) (Month, error) {
	loc := monthAnchor.Location()
	o := options{clock: clock.System{Location: loc}, accent: DefaultAccent}
	for _, opt := range opts {
		opt(&o)
	}

	first := timeutil.StartOfMonth(monthAnchor)
	month := Month{
		Year:         first.Year(),
		Month:        first.Month(),
		FirstWeekday: first.Weekday(),
		DaysInMonth:  timeutil.DaysIn(first.Year(), first.Month()),
	}
	today := timeutil.DateIn(o.clock.Now(), loc)

	taskIdx := NewIndex(tasks, loc)
	eventIdx := NewIndex(events, loc)
	moodIdx := NewMoodIndex(moods, loc)

	offset := int(month.FirstWeekday)
	for i := 0; i < GridCells; i++ {
		dayNumber := i - offset + 1
		cell := Cell{Index: i}
		if dayNumber < 1 || dayNumber > month.DaysInMonth {
			month.Cells[i] = cell
			continue
		}

		date := time.Date(month.Year, month.Month, dayNumber, 0, 0, 0, 0, loc)
		cell.DayNumber = dayNumber
		cell.InMonth = true
		cell.Date = date
		cell.IsToday = timeutil.DateOf(date) == today
		cell.Tasks = taskIdx.On(date)

		placed, err := layoutOn(eventIdx.On(date), date, o.accent)
		if err != nil {
			return Month{}, err
		}
		cell.Events = placed

		if mood, ok := moodIdx.On(date); ok {
			cell.Mood = mood
			cell.HasMood = true
			cell.MoodColor = MoodColor(mood, o.accent)
		}
		month.Cells[i] = cell
	}
	return month, nil
}

// DayEvents returns the events of day laid out for rendering, with recurring
// occurrences moved onto day.
func DayEvents(events []model.CalendarEvent, day time.Time, accent string) ([]PlacedEvent, error) {
	if accent == "" {
		accent = DefaultAccent
	}
	return layoutOn(ItemsOnDay(events, day), day, accent)
}

func layoutOn(events []model.CalendarEvent, day time.Time, accent string) ([]PlacedEvent, error) {
	if len(events) == 0 {
		return nil, nil
	}
	// All-day spans are resolved in the day's location, not the stored one.
	loc := day.Location()
	projected := make([]model.CalendarEvent, 0, len(events))
	for _, e := range events {
		e.StartTime, e.EndTime = e.StartTime.In(loc), e.EndTime.In(loc)
		projected = append(projected, ProjectEvent(e, day))
	}
	return LayoutDay(projected, accent)
}
