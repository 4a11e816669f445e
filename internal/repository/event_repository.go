package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"wellness-planner/internal/model"
)

// EventRepository handles CRUD for calendar events, their reminders and attendees.
type EventRepository struct {
	db *gorm.DB
}

func NewEventRepository(db *gorm.DB) *EventRepository {
	return &EventRepository{db: db}
}

func (r *EventRepository) withRelations(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Preload("Attendees").Preload("Reminders")
}

func (r *EventRepository) Create(ctx context.Context, event *model.CalendarEvent) error {
	if err := event.Validate(); err != nil {
		return err
	}
	event.StartTime, event.EndTime = utc(event.StartTime), utc(event.EndTime)
	if err := r.db.WithContext(ctx).Create(event).Error; err != nil {
		return fmt.Errorf("create event: %w", err)
	}
	return nil
}

func (r *EventRepository) FindByID(ctx context.Context, eventID uint) (*model.CalendarEvent, error) {
	var event model.CalendarEvent
	if err := r.withRelations(ctx).First(&event, eventID).Error; err != nil {
		return nil, notFound(err, model.ErrEventNotFound, "find event")
	}
	return &event, nil
}

// ListByUser returns the user's events and the events they attend, by start time.
func (r *EventRepository) ListByUser(ctx context.Context, userID uint) ([]model.CalendarEvent, error) {
	attending := r.db.Model(&model.EventAttendee{}).Select("event_id").Where("user_id = ?", userID)

	var events []model.CalendarEvent
	if err := r.withRelations(ctx).
		Where("user_id = ? OR id IN (?)", userID, attending).
		Order("start_time ASC, id ASC").
		Find(&events).Error; err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return events, nil
}

// ListBetween narrows ListByUser to events that may touch [from, to): events
// starting before to and ending at or after from, plus recurring events
// anchored before to. All-day events are matched on their stored times, so
// callers pass day boundaries.
func (r *EventRepository) ListBetween(ctx context.Context, userID uint, from, to time.Time) ([]model.CalendarEvent, error) {
	attending := r.db.Model(&model.EventAttendee{}).Select("event_id").Where("user_id = ?", userID)

	var events []model.CalendarEvent
	if err := r.withRelations(ctx).
		Where("user_id = ? OR id IN (?)", userID, attending).
		Where("start_time < ?", utc(to)).
		Where("end_time >= ? OR recurrence IS NOT NULL", utc(from)).
		Order("start_time ASC, id ASC").
		Find(&events).Error; err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return events, nil
}

// Update rewrites the event columns and replaces its reminders.
func (r *EventRepository) Update(ctx context.Context, event *model.CalendarEvent) error {
	if err := event.Validate(); err != nil {
		return err
	}
	event.StartTime, event.EndTime = utc(event.StartTime), utc(event.EndTime)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(event).
			Select("Title", "Description", "StartTime", "EndTime", "AllDay", "Location", "Color", "Recurrence").
			Updates(event)
		if res.Error != nil {
			return fmt.Errorf("update event: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return model.ErrEventNotFound
		}
		if err := tx.Where("event_id = ?", event.ID).Delete(&model.EventReminder{}).Error; err != nil {
			return fmt.Errorf("clear reminders: %w", err)
		}
		for i := range event.Reminders {
			event.Reminders[i].ID = 0
			event.Reminders[i].EventID = event.ID
		}
		if len(event.Reminders) > 0 {
			if err := tx.Create(&event.Reminders).Error; err != nil {
				return fmt.Errorf("create reminders: %w", err)
			}
		}
		return nil
	})
}

func (r *EventRepository) Delete(ctx context.Context, eventID uint) error {
	res := r.db.WithContext(ctx).Select(clause.Associations).Delete(&model.CalendarEvent{ID: eventID})
	if res.Error != nil {
		return fmt.Errorf("delete event: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return model.ErrEventNotFound
	}
	return nil
}

// AddAttendee invites a person to an event. A known email is linked to its
// user right away; inviting the same email again updates the role.
func (r *EventRepository) AddAttendee(ctx context.Context, a *model.EventAttendee) error {
	a.Email = strings.TrimSpace(a.Email)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if a.UserID == nil && a.Email != "" {
			var ids []uint
			if err := tx.Model(&model.User{}).Where("lower(email) = lower(?)", a.Email).Limit(1).Pluck("id", &ids).Error; err != nil {
				return fmt.Errorf("find attendee user: %w", err)
			}
			if len(ids) > 0 {
				a.UserID = &ids[0]
			}
		}

		var existing model.EventAttendee
		if err := tx.Where("event_id = ? AND lower(email) = lower(?)", a.EventID, a.Email).Limit(1).Find(&existing).Error; err != nil {
			return fmt.Errorf("find attendee: %w", err)
		}
		if existing.ID != 0 {
			a.ID = existing.ID
			updates := map[string]any{"role": a.Role}
			if a.UserID != nil {
				updates["user_id"] = *a.UserID
			}
			if err := tx.Model(&existing).Updates(updates).Error; err != nil {
				return fmt.Errorf("update attendee: %w", err)
			}
			return nil
		}
		if err := tx.Create(a).Error; err != nil {
			return fmt.Errorf("add attendee: %w", err)
		}
		return nil
	})
}
