package model

import (
	"strings"
	"time"

	"wellness-planner/internal/timeutil"
)

// ReminderChannel selects how an event reminder is delivered.
type ReminderChannel string

const (
	ChannelEmail ReminderChannel = "email"
	ChannelPush  ReminderChannel = "push"
	ChannelBoth  ReminderChannel = "both"
)

func (c ReminderChannel) Valid() bool {
	switch c {
	case ChannelEmail, ChannelPush, ChannelBoth:
		return true
	}
	return false
}

// CalendarEvent is a timed (or all-day) entry on the calendar. An empty Color
// means the theme accent is used.
type CalendarEvent struct {
	ID          uint `gorm:"primaryKey"`
	UserID      uint `gorm:"index"`
	Title       string
	Description string
	StartTime   time.Time `gorm:"index"`
	EndTime     time.Time
	AllDay      bool
	Location    string
	Color       string
	Recurrence  *Recurrence `gorm:"serializer:json;type:text"`
	Attendees   []EventAttendee
	Reminders   []EventReminder
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// EventAttendee shares an event with another person.
type EventAttendee struct {
	ID        uint  `gorm:"primaryKey"`
	EventID   uint  `gorm:"index"`
	UserID    *uint `gorm:"index"`
	Email     string
	Role      CollaboratorRole
	Status    string
	CreatedAt time.Time
}

// EventReminder fires OffsetMinutes before the event starts.
type EventReminder struct {
	ID            uint `gorm:"primaryKey"`
	EventID       uint `gorm:"index"`
	OffsetMinutes int
	Channel       ReminderChannel
}

// Validate checks the event invariants before it is stored or laid out.
func (e CalendarEvent) Validate() error {
	if e.StartTime.IsZero() || e.EndTime.IsZero() {
		return Invalid("event", "start and end time are required")
	}
	if e.EndTime.Before(e.StartTime) {
		return Invalid("end_time", "event %d ends at %s before it starts at %s",
			e.ID, e.EndTime.Format(time.RFC3339), e.StartTime.Format(time.RFC3339))
	}
	for _, r := range e.Reminders {
		if r.OffsetMinutes < 0 {
			return Invalid("reminder", "offset must not be negative, got %d", r.OffsetMinutes)
		}
		if !r.Channel.Valid() {
			return Invalid("reminder", "unknown channel %q", r.Channel)
		}
	}
	return nil
}

// Interval returns the half-open span the event occupies. All-day events cover
// whole days from the start date through the end date.
func (e CalendarEvent) Interval() (time.Time, time.Time) {
	if !e.AllDay {
		return e.StartTime, e.EndTime
	}
	start := timeutil.StartOfDay(e.StartTime)
	end := timeutil.StartOfDay(e.EndTime.In(e.StartTime.Location())).AddDate(0, 0, 1)
	return start, end
}

// IsInstant reports a zero-duration timed event.
func (e CalendarEvent) IsInstant() bool {
	return !e.AllDay && e.StartTime.Equal(e.EndTime)
}

// Overlaps uses half-open semantics: an event ending exactly when another
// starts does not overlap it. Zero-duration events overlap nothing.
func (e CalendarEvent) Overlaps(o CalendarEvent) bool {
	if e.IsInstant() || o.IsInstant() {
		return false
	}
	as, ae := e.Interval()
	bs, be := o.Interval()
	return as.Before(be) && bs.Before(ae)
}

// ColorOr returns the event color or fallback when none is set.
func (e CalendarEvent) ColorOr(fallback string) string {
	if e.Color == "" {
		return fallback
	}
	return e.Color
}

// AccessRole returns the role user has on the event; the creator is the owner.
func (e CalendarEvent) AccessRole(user User) (CollaboratorRole, bool) {
	if e.UserID == user.ID {
		return CollaboratorOwner, true
	}
	for _, a := range e.Attendees {
		if a.UserID != nil && *a.UserID == user.ID {
			return a.Role, true
		}
		if user.Email != "" && strings.EqualFold(a.Email, user.Email) {
			return a.Role, true
		}
	}
	return "", false
}

func (e CalendarEvent) ItemID() uint {
	return e.ID
}

func (e CalendarEvent) AnchorTime() (time.Time, bool) {
	if e.StartTime.IsZero() {
		return time.Time{}, false
	}
	return e.StartTime, true
}

func (e CalendarEvent) Rule() *Recurrence {
	return e.Recurrence
}

// LastDay returns the final calendar date an all-day event covers.
func (e CalendarEvent) LastDay(loc *time.Location) timeutil.Date {
	if !e.AllDay || e.EndTime.Before(e.StartTime) {
		return timeutil.DateIn(e.StartTime, loc)
	}
	return timeutil.DateIn(e.EndTime, loc)
}
