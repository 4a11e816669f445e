// Package rollover moves incomplete work forward: every task whose due date is
// before today and that is not done gets today's date.
package rollover

import (
	"time"

	"wellness-planner/internal/model"
	"wellness-planner/internal/timeutil"
)

// Change records one due date moved by the transition. From is nil for a
// dateless task that was given a date.
type Change struct {
	TaskID uint
	From   *time.Time
	To     time.Time
}

type options struct {
	datelessToday bool
}

// Option tunes the transition.
type Option func(*options)

// WithDatelessToday also assigns today to open tasks that have no due date, so
// they show up on the calendar.
func WithDatelessToday() Option {
	return func(o *options) {
		o.datelessToday = true
	}
}

func buildOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// IsStale reports a task due strictly before today's date that is not done.
// Dates are compared in today's location.
func IsStale(task model.Task, today time.Time) bool {
	return task.IsOverdue(today)
}

// Plan lists the due date changes the transition would make at now, in input order.
func Plan(tasks []model.Task, now time.Time, opts ...Option) []Change {
	o := buildOptions(opts)
	today := timeutil.StartOfDay(now)

	var changes []Change
	for _, t := range tasks {
		switch {
		case IsStale(t, now):
			from := *t.DueDate
			changes = append(changes, Change{TaskID: t.ID, From: &from, To: today})
		case t.DueDate == nil && o.datelessToday && !t.IsDone():
			changes = append(changes, Change{TaskID: t.ID, To: today})
		}
	}
	return changes
}

// Apply returns a copy of tasks with the transition applied, plus the changes
// made. The input slice is not modified. Applying the result again is a no-op.
func Apply(tasks []model.Task, now time.Time, opts ...Option) ([]model.Task, []Change) {
	changes := Plan(tasks, now, opts...)
	out := make([]model.Task, len(tasks))
	copy(out, tasks)
	if len(changes) == 0 {
		return out, nil
	}

	moved := make(map[uint]time.Time, len(changes))
	for _, c := range changes {
		moved[c.TaskID] = c.To
	}
	for i := range out {
		if to, ok := moved[out[i].ID]; ok {
			due := to
			out[i].DueDate = &due
		}
	}
	return out, changes
}

// DueDates flattens changes into the id to date map stores expect.
func DueDates(changes []Change) map[uint]time.Time {
	out := make(map[uint]time.Time, len(changes))
	for _, c := range changes {
		out[c.TaskID] = c.To
	}
	return out
}
