package model

import (
	"strings"
	"time"

	"wellness-planner/internal/timeutil"
)

// Role is the life area a task belongs to.
type Role string

const (
	RoleWork     Role = "work"
	RoleFamily   Role = "family"
	RolePersonal Role = "personal"
)

func (r Role) Valid() bool {
	switch r {
	case RoleWork, RoleFamily, RolePersonal:
		return true
	}
	return false
}

type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in-progress"
	StatusDone       Status = "done"
)

func (s Status) Valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusDone:
		return true
	}
	return false
}

// CollaboratorRole governs what a collaborator may do with a shared item.
type CollaboratorRole string

const (
	CollaboratorViewer CollaboratorRole = "viewer"
	CollaboratorEditor CollaboratorRole = "editor"
	CollaboratorOwner  CollaboratorRole = "owner"
)

func (r CollaboratorRole) Valid() bool {
	switch r {
	case CollaboratorViewer, CollaboratorEditor, CollaboratorOwner:
		return true
	}
	return false
}

// CanEdit is true for editors and owners.
func (r CollaboratorRole) CanEdit() bool {
	return r == CollaboratorEditor || r == CollaboratorOwner
}

// CanDelete is reserved to owners.
func (r CollaboratorRole) CanDelete() bool {
	return r == CollaboratorOwner
}

// Task represents a single item in the planner.
type Task struct {
	ID            uint `gorm:"primaryKey"`
	UserID        uint `gorm:"index"`
	Title         string
	Description   string
	Role          Role        `gorm:"default:personal"`
	Priority      Priority    `gorm:"default:medium"`
	Status        Status      `gorm:"default:todo;index"`
	DueDate       *time.Time  `gorm:"index"`
	Recurrence    *Recurrence `gorm:"serializer:json;type:text"`
	Collaborators []TaskCollaborator
	Categories    []Category `gorm:"many2many:task_categories;"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// TaskCollaborator shares a task with another person, identified by email and,
// once they have talked to the bot, by user id.
type TaskCollaborator struct {
	ID        uint  `gorm:"primaryKey"`
	TaskID    uint  `gorm:"index"`
	UserID    *uint `gorm:"index"`
	Email     string
	Role      CollaboratorRole
	CreatedAt time.Time
}

func (t Task) IsDone() bool {
	return t.Status == StatusDone
}

// IsOverdue is derived: a due date strictly before the start of now's day and
// a status other than done.
func (t Task) IsOverdue(now time.Time) bool {
	if t.DueDate == nil || t.IsDone() {
		return false
	}
	return timeutil.DateIn(*t.DueDate, now.Location()).Before(timeutil.DateOf(now))
}

// AccessRole returns the role user has on the task; owners of the row are owners.
func (t Task) AccessRole(user User) (CollaboratorRole, bool) {
	if t.UserID == user.ID {
		return CollaboratorOwner, true
	}
	for _, c := range t.Collaborators {
		if c.UserID != nil && *c.UserID == user.ID {
			return c.Role, true
		}
		if user.Email != "" && strings.EqualFold(c.Email, user.Email) {
			return c.Role, true
		}
	}
	return "", false
}

func (t Task) ItemID() uint {
	return t.ID
}

// AnchorTime is the series start for recurring tasks and the due date otherwise.
func (t Task) AnchorTime() (time.Time, bool) {
	if t.Recurrence != nil && t.Recurrence.Start != nil && !t.Recurrence.Start.IsZero() {
		return *t.Recurrence.Start, true
	}
	if t.DueDate == nil || t.DueDate.IsZero() {
		return time.Time{}, false
	}
	return *t.DueDate, true
}

func (t Task) Rule() *Recurrence {
	return t.Recurrence
}
