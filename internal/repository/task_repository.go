package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"wellness-planner/internal/model"
)

// TaskRepository handles CRUD for tasks and their collaborators.
type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) withRelations(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Preload("Collaborators").Preload("Categories")
}

// Create stores the task together with its collaborators and categories.
func (r *TaskRepository) Create(ctx context.Context, task *model.Task) error {
	task.DueDate = utcPtr(task.DueDate)
	if err := r.db.WithContext(ctx).Create(task).Error; err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

func (r *TaskRepository) FindByID(ctx context.Context, taskID uint) (*model.Task, error) {
	var task model.Task
	if err := r.withRelations(ctx).First(&task, taskID).Error; err != nil {
		return nil, notFound(err, model.ErrTaskNotFound, "find task")
	}
	return &task, nil
}

// ListOwned returns the tasks created by userID.
func (r *TaskRepository) ListOwned(ctx context.Context, userID uint) ([]model.Task, error) {
	var tasks []model.Task
	if err := r.withRelations(ctx).Where("user_id = ?", userID).
		Order("due_date NULLS LAST, created_at DESC").
		Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

// ListForUser returns owned tasks plus the tasks shared with user, either by
// user id or by email.
func (r *TaskRepository) ListForUser(ctx context.Context, user model.User) ([]model.Task, error) {
	shared := r.db.Model(&model.TaskCollaborator{}).Select("task_id").
		Where("user_id = ? OR (? <> '' AND lower(email) = lower(?))", user.ID, user.Email, user.Email)

	var tasks []model.Task
	if err := r.withRelations(ctx).
		Where("user_id = ? OR id IN (?)", user.ID, shared).
		Order("due_date NULLS LAST, created_at DESC").
		Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

// Update writes the editable task columns. Associations are managed separately.
func (r *TaskRepository) Update(ctx context.Context, task *model.Task) error {
	task.DueDate = utcPtr(task.DueDate)
	res := r.db.WithContext(ctx).Model(task).
		Select("Title", "Description", "Role", "Priority", "Status", "DueDate", "Recurrence").
		Updates(task)
	if res.Error != nil {
		return fmt.Errorf("update task: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return model.ErrTaskNotFound
	}
	return nil
}

// UpdateDueDates moves every listed task of userID in one transaction.
func (r *TaskRepository) UpdateDueDates(ctx context.Context, userID uint, dates map[uint]time.Time) error {
	if len(dates) == 0 {
		return nil
	}
	ids := make([]uint, 0, len(dates))
	for id := range dates {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, id := range ids {
			if err := tx.Model(&model.Task{}).
				Where("id = ? AND user_id = ?", id, userID).
				Update("due_date", utc(dates[id])).Error; err != nil {
				return fmt.Errorf("update due date of task %d: %w", id, err)
			}
		}
		return nil
	})
}

// Delete removes a task with its collaborator rows and category links.
func (r *TaskRepository) Delete(ctx context.Context, taskID uint) error {
	res := r.db.WithContext(ctx).Select(clause.Associations).Delete(&model.Task{ID: taskID})
	if res.Error != nil {
		return fmt.Errorf("delete task: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return model.ErrTaskNotFound
	}
	return nil
}

// AddCollaborator shares a task. An existing invitation for the same email is
// updated with the new role.
func (r *TaskRepository) AddCollaborator(ctx context.Context, c *model.TaskCollaborator) error {
	c.Email = strings.TrimSpace(c.Email)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing model.TaskCollaborator
		err := tx.Where("task_id = ? AND lower(email) = lower(?)", c.TaskID, c.Email).Limit(1).Find(&existing).Error
		if err != nil {
			return fmt.Errorf("find collaborator: %w", err)
		}
		if existing.ID != 0 {
			c.ID = existing.ID
			updates := map[string]any{"role": c.Role}
			if c.UserID != nil {
				updates["user_id"] = *c.UserID
			}
			if err := tx.Model(&existing).Updates(updates).Error; err != nil {
				return fmt.Errorf("update collaborator: %w", err)
			}
			return nil
		}
		if err := tx.Create(c).Error; err != nil {
			return fmt.Errorf("create collaborator: %w", err)
		}
		return nil
	})
}

func (r *TaskRepository) RemoveCollaborator(ctx context.Context, taskID uint, email string) error {
	if err := r.db.WithContext(ctx).
		Where("task_id = ? AND lower(email) = lower(?)", taskID, strings.TrimSpace(email)).
		Delete(&model.TaskCollaborator{}).Error; err != nil {
		return fmt.Errorf("remove collaborator: %w", err)
	}
	return nil
}

// SetCategories replaces the categories linked to task.
func (r *TaskRepository) SetCategories(ctx context.Context, task *model.Task, categories []model.Category) error {
	if err := r.db.WithContext(ctx).Model(task).Association("Categories").Replace(categories); err != nil {
		return fmt.Errorf("set categories: %w", err)
	}
	task.Categories = categories
	return nil
}
