package model

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ts(day, hour, minute int) time.Time {
	return time.Date(2024, time.June, day, hour, minute, 0, 0, time.UTC)
}

func TestTaskIsOverdue(t *testing.T) {
	now := ts(10, 12, 0)
	yesterday := ts(9, 23, 0)
	today := ts(10, 0, 0)

	assert.False(t, Task{}.IsOverdue(now))
	assert.True(t, Task{Status: StatusTodo, DueDate: &yesterday}.IsOverdue(now))
	assert.True(t, Task{Status: StatusInProgress, DueDate: &yesterday}.IsOverdue(now))
	assert.False(t, Task{Status: StatusDone, DueDate: &yesterday}.IsOverdue(now))
	assert.False(t, Task{Status: StatusTodo, DueDate: &today}.IsOverdue(now))
}

func TestTaskAccessRole(t *testing.T) {
	editorID := uint(3)
	task := Task{
		UserID: 1,
		Collaborators: []TaskCollaborator{
			{UserID: &editorID, Email: "ed@example.com", Role: CollaboratorEditor},
			{Email: "Viewer@Example.com", Role: CollaboratorViewer},
		},
	}

	role, ok := task.AccessRole(User{ID: 1})
	require.True(t, ok)
	assert.Equal(t, CollaboratorOwner, role)
	assert.True(t, role.CanDelete())

	role, ok = task.AccessRole(User{ID: 3})
	require.True(t, ok)
	assert.True(t, role.CanEdit())
	assert.False(t, role.CanDelete())

	role, ok = task.AccessRole(User{ID: 9, Email: "viewer@example.com"})
	require.True(t, ok)
	assert.False(t, role.CanEdit())

	_, ok = task.AccessRole(User{ID: 4})
	assert.False(t, ok)
}

func TestEventValidate(t *testing.T) {
	ok := CalendarEvent{ID: 1, StartTime: ts(1, 9, 0), EndTime: ts(1, 9, 0)}
	require.NoError(t, ok.Validate())

	backwards := CalendarEvent{ID: 2, StartTime: ts(1, 10, 0), EndTime: ts(1, 9, 0)}
	err := backwards.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalid)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "end_time", verr.Field)

	badReminder := ok
	badReminder.Reminders = []EventReminder{{OffsetMinutes: -5, Channel: ChannelPush}}
	assert.ErrorIs(t, badReminder.Validate(), ErrInvalid)

	badChannel := ok
	badChannel.Reminders = []EventReminder{{OffsetMinutes: 5, Channel: "sms"}}
	assert.ErrorIs(t, badChannel.Validate(), ErrInvalid)

	assert.ErrorIs(t, CalendarEvent{}.Validate(), ErrInvalid)
}

func TestEventOverlaps(t *testing.T) {
	a := CalendarEvent{StartTime: ts(1, 9, 0), EndTime: ts(1, 10, 0)}
	b := CalendarEvent{StartTime: ts(1, 10, 0), EndTime: ts(1, 11, 0)}
	c := CalendarEvent{StartTime: ts(1, 9, 30), EndTime: ts(1, 9, 45)}
	instant := CalendarEvent{StartTime: ts(1, 9, 30), EndTime: ts(1, 9, 30)}
	allDay := CalendarEvent{StartTime: ts(1, 0, 0), EndTime: ts(1, 0, 0), AllDay: true}
	nextDay := CalendarEvent{StartTime: ts(2, 0, 0), EndTime: ts(2, 1, 0)}

	assert.False(t, a.Overlaps(b), "touching intervals")
	assert.True(t, a.Overlaps(c))
	assert.True(t, c.Overlaps(a))
	assert.False(t, a.Overlaps(instant))
	assert.True(t, allDay.Overlaps(b))
	assert.False(t, allDay.Overlaps(nextDay))
}

func TestAllDayInterval(t *testing.T) {
	e := CalendarEvent{AllDay: true, StartTime: ts(1, 15, 0), EndTime: ts(3, 8, 0)}
	start, end := e.Interval()
	assert.Equal(t, ts(1, 0, 0), start)
	assert.Equal(t, ts(4, 0, 0), end)
	assert.Equal(t, 3, e.LastDay(time.UTC).Day)
}

func TestSleepValidate(t *testing.T) {
	good := SleepRecord{StartTime: ts(1, 23, 0), EndTime: ts(2, 7, 0), Quality: 4}
	require.NoError(t, good.Validate())
	assert.Equal(t, 8*time.Hour, good.Duration())

	cases := map[string]SleepRecord{
		"end equals start": {StartTime: ts(1, 23, 0), EndTime: ts(1, 23, 0), Quality: 3},
		"quality zero":     {StartTime: ts(1, 23, 0), EndTime: ts(2, 7, 0), Quality: 0},
		"quality six":      {StartTime: ts(1, 23, 0), EndTime: ts(2, 7, 0), Quality: 6},
		"missing times":    {Quality: 3},
	}
	for name, rec := range cases {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, rec.Validate(), ErrInvalid)
		})
	}

	bad := Mood("sleepy")
	withMood := good
	withMood.MoodOnWakeup = &bad
	assert.ErrorIs(t, withMood.Validate(), ErrInvalid)
}

func TestParseMood(t *testing.T) {
	m, err := ParseMood(" Great ")
	require.NoError(t, err)
	assert.Equal(t, MoodGreat, m)
	assert.Equal(t, 5, m.Score())

	_, err = ParseMood("meh")
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestErrorMatching(t *testing.T) {
	wrapped := fmt.Errorf("get task: %w", ErrTaskNotFound)
	assert.ErrorIs(t, wrapped, ErrTaskNotFound)
	assert.False(t, errors.Is(wrapped, ErrEventNotFound))
	assert.True(t, IsCode(wrapped, ErrCodeNotFound))

	forbidden := Forbidden("delete task")
	assert.ErrorIs(t, forbidden, ErrForbidden)
	assert.Equal(t, "not allowed to delete task", forbidden.Error())

	inner := errors.New("boom")
	werr := WrapError(ErrCodeInternal, "save", inner)
	assert.ErrorIs(t, werr, inner)
	assert.Equal(t, "save: boom", werr.Error())

	assert.True(t, IsCode(Invalid("title", "required"), ErrCodeInvalid))
	assert.Equal(t, "invalid title: required", Invalid("title", "required").Error())
}
