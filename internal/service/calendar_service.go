package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"wellness-planner/internal/calendar"
	"wellness-planner/internal/clock"
	"wellness-planner/internal/logger"
	"wellness-planner/internal/model"
	"wellness-planner/internal/repository"
	"wellness-planner/internal/timeutil"
)

// DayView is everything placed on a single day.
type DayView struct {
	Date    time.Time
	Tasks   []model.Task
	Events  []calendar.PlacedEvent
	Mood    model.Mood
	HasMood bool
}

// CalendarService loads snapshots from storage and hands them to the calendar package.
type CalendarService struct {
	taskRepo  *repository.TaskRepository
	eventRepo *repository.EventRepository
	moodRepo  *repository.MoodRepository
	clock     clock.Clock
	loc       *time.Location
	accent    string
	logger    *zap.Logger
}

func NewCalendarService(taskRepo *repository.TaskRepository, eventRepo *repository.EventRepository, moodRepo *repository.MoodRepository,
	c clock.Clock, loc *time.Location, accent string, log *zap.Logger) *CalendarService {
	if loc == nil {
		loc = time.Local
	}
	if c == nil {
		c = clock.System{Location: loc}
	}
	if accent == "" {
		accent = calendar.DefaultAccent
	}
	return &CalendarService{
		taskRepo:  taskRepo,
		eventRepo: eventRepo,
		moodRepo:  moodRepo,
		clock:     c,
		loc:       loc,
		accent:    accent,
		logger:    logger.OrNop(log),
	}
}

// Location is the reference location of every calendar computation.
func (s *CalendarService) Location() *time.Location {
	return s.loc
}

// Today is midnight of the current day in the reference location.
func (s *CalendarService) Today() time.Time {
	return timeutil.StartOfDay(s.clock.Now().In(s.loc))
}

// MonthView builds the 42-cell grid of the month containing anchor.
func (s *CalendarService) MonthView(ctx context.Context, user *model.User, anchor time.Time) (calendar.Month, error) {
	first := timeutil.StartOfMonth(anchor.In(s.loc))
	tasks, events, moods, err := s.load(ctx, user, first, first.AddDate(0, 1, 0))
	if err != nil {
		return calendar.Month{}, err
	}
	month, err := calendar.BuildMonth(first, tasks, events, moods,
		calendar.WithClock(s.clock), calendar.WithAccent(s.accent))
	if err != nil {
		return calendar.Month{}, err
	}
	s.logger.Debug("month built",
		zap.Uint("user_id", user.ID),
		zap.Int("year", month.Year),
		zap.Int("month", int(month.Month)),
		zap.Int("tasks", len(tasks)),
		zap.Int("events", len(events)),
	)
	return month, nil
}

// DayView lists the tasks, laid-out events and mood of day.
func (s *CalendarService) DayView(ctx context.Context, user *model.User, day time.Time) (DayView, error) {
	start := timeutil.StartOfDay(day.In(s.loc))
	tasks, events, moods, err := s.load(ctx, user, start, start.AddDate(0, 0, 1))
	if err != nil {
		return DayView{}, err
	}
	placed, err := calendar.DayEvents(events, start, s.accent)
	if err != nil {
		return DayView{}, err
	}
	view := DayView{
		Date:   start,
		Tasks:  calendar.ItemsOnDay(tasks, start),
		Events: placed,
	}
	view.Mood, view.HasMood = calendar.MoodForDay(moods, start)
	return view, nil
}

// load fetches one snapshot for [from, to). The event window is widened by a
// day so all-day events stored at another offset's midnight are not lost.
func (s *CalendarService) load(ctx context.Context, user *model.User, from, to time.Time) ([]model.Task, []model.CalendarEvent, []model.MoodEntry, error) {
	tasks, err := s.taskRepo.ListForUser(ctx, *user)
	if err != nil {
		return nil, nil, nil, err
	}
	events, err := s.eventRepo.ListBetween(ctx, user.ID, from.AddDate(0, 0, -1), to.AddDate(0, 0, 1))
	if err != nil {
		return nil, nil, nil, err
	}
	moods, err := s.moodRepo.ListSince(ctx, user.ID, from.AddDate(0, 0, -1))
	if err != nil {
		return nil, nil, nil, err
	}
	return tasks, events, moods, nil
}

// EventInput describes a new calendar event.
type EventInput struct {
	Title       string
	Description string
	Start       time.Time
	End         time.Time
	AllDay      bool
	Location    string
	Color       string
	Recurrence  *model.Recurrence
	Reminders   []model.EventReminder
}

func (s *CalendarService) CreateEvent(ctx context.Context, user *model.User, input EventInput) (*model.CalendarEvent, error) {
	event := model.CalendarEvent{
		UserID:      user.ID,
		Title:       strings.TrimSpace(input.Title),
		Description: strings.TrimSpace(input.Description),
		StartTime:   input.Start,
		EndTime:     input.End,
		AllDay:      input.AllDay,
		Location:    strings.TrimSpace(input.Location),
		Color:       strings.TrimSpace(input.Color),
		Reminders:   input.Reminders,
	}
	if event.Title == "" {
		return nil, model.Invalid("title", "is required")
	}
	if input.Recurrence != nil {
		rule, err := checkRule(*input.Recurrence)
		if err != nil {
			return nil, err
		}
		event.Recurrence = &rule
	}
	if err := s.eventRepo.Create(ctx, &event); err != nil {
		return nil, err
	}
	return &event, nil
}

// EventUpdate carries the event fields to change; nil fields are left as they are.
type EventUpdate struct {
	Title       *string
	Description *string
	Start       *time.Time
	End         *time.Time
	AllDay      *bool
	Location    *string
	Color       *string
}

// UpdateEvent edits an event. Owners and editors may edit; events the user
// cannot see are reported as missing.
func (s *CalendarService) UpdateEvent(ctx context.Context, user *model.User, eventID uint, upd EventUpdate) (*model.CalendarEvent, error) {
	event, role, err := s.loadEvent(ctx, user, eventID)
	if err != nil {
		return nil, err
	}
	if !role.CanEdit() {
		return nil, model.Forbidden("edit event")
	}
	if upd.Title != nil {
		event.Title = strings.TrimSpace(*upd.Title)
	}
	if upd.Description != nil {
		event.Description = strings.TrimSpace(*upd.Description)
	}
	if upd.Start != nil {
		event.StartTime = *upd.Start
	}
	if upd.End != nil {
		event.EndTime = *upd.End
	}
	if upd.AllDay != nil {
		event.AllDay = *upd.AllDay
	}
	if upd.Location != nil {
		event.Location = strings.TrimSpace(*upd.Location)
	}
	if upd.Color != nil {
		event.Color = strings.TrimSpace(*upd.Color)
	}
	if event.Title == "" {
		return nil, model.Invalid("title", "is required")
	}
	if err := s.eventRepo.Update(ctx, event); err != nil {
		return nil, err
	}
	s.logger.Debug("event updated", zap.Uint("event_id", event.ID), zap.Uint("user_id", user.ID))
	return event, nil
}

// ShareEvent invites email to the event with role. Only owners share.
func (s *CalendarService) ShareEvent(ctx context.Context, user *model.User, eventID uint, email string, role model.CollaboratorRole) error {
	email = strings.TrimSpace(email)
	if !strings.Contains(email, "@") {
		return model.Invalid("email", "%q is not an email address", email)
	}
	if !role.Valid() {
		return model.Invalid("role", "unknown collaborator role %q", role)
	}
	_, own, err := s.loadEvent(ctx, user, eventID)
	if err != nil {
		return err
	}
	if own != model.CollaboratorOwner {
		return model.Forbidden("share event")
	}
	return s.eventRepo.AddAttendee(ctx, &model.EventAttendee{EventID: eventID, Email: email, Role: role, Status: "invited"})
}

func (s *CalendarService) loadEvent(ctx context.Context, user *model.User, eventID uint) (*model.CalendarEvent, model.CollaboratorRole, error) {
	event, err := s.eventRepo.FindByID(ctx, eventID)
	if err != nil {
		return nil, "", err
	}
	role, ok := event.AccessRole(*user)
	if !ok {
		return nil, "", model.ErrEventNotFound
	}
	return event, role, nil
}

// DeleteEvent removes an event owned by user.
func (s *CalendarService) DeleteEvent(ctx context.Context, user *model.User, eventID uint) error {
	event, err := s.eventRepo.FindByID(ctx, eventID)
	if err != nil {
		return err
	}
	if event.UserID != user.ID {
		return model.Forbidden("delete event")
	}
	return s.eventRepo.Delete(ctx, eventID)
}

// ListEvents returns every event the user owns or attends.
func (s *CalendarService) ListEvents(ctx context.Context, user *model.User) ([]model.CalendarEvent, error) {
	return s.eventRepo.ListByUser(ctx, user.ID)
}
