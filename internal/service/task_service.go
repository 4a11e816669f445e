package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"wellness-planner/internal/clock"
	"wellness-planner/internal/logger"
	"wellness-planner/internal/model"
	"wellness-planner/internal/recurrence"
	"wellness-planner/internal/repository"
)

// TaskInput represents data required to create a task. Empty enum fields take
// the defaults personal, medium and todo.
type TaskInput struct {
	Title       string
	Description string
	Role        model.Role
	Priority    model.Priority
	Status      model.Status
	DueDate     *time.Time
	Categories  []string
	Recurrence  *model.Recurrence
}

// TaskUpdate carries the fields to change; nil fields are left as they are.
type TaskUpdate struct {
	Title       *string
	Description *string
	Role        *model.Role
	Priority    *model.Priority
	Status      *model.Status
}

// TaskService wraps task-related business logic and collaborator permissions.
type TaskService struct {
	taskRepo     *repository.TaskRepository
	categoryRepo *repository.CategoryRepository
	clock        clock.Clock
	logger       *zap.Logger
}

func NewTaskService(taskRepo *repository.TaskRepository, categoryRepo *repository.CategoryRepository, c clock.Clock, log *zap.Logger) *TaskService {
	if c == nil {
		c = clock.System{}
	}
	return &TaskService{taskRepo: taskRepo, categoryRepo: categoryRepo, clock: c, logger: logger.OrNop(log)}
}

func (s *TaskService) CreateTask(ctx context.Context, user *model.User, input TaskInput) (*model.Task, error) {
	task := model.Task{
		UserID:      user.ID,
		Title:       strings.TrimSpace(input.Title),
		Description: strings.TrimSpace(input.Description),
		Role:        input.Role,
		Priority:    input.Priority,
		Status:      input.Status,
		DueDate:     input.DueDate,
	}
	if task.Role == "" {
		task.Role = model.RolePersonal
	}
	if task.Priority == "" {
		task.Priority = model.PriorityMedium
	}
	if task.Status == "" {
		task.Status = model.StatusTodo
	}
	if err := validateTask(task); err != nil {
		return nil, err
	}

	if input.Recurrence != nil {
		rule, err := checkRule(*input.Recurrence)
		if err != nil {
			return nil, err
		}
		if task.DueDate == nil {
			return nil, model.Invalid("due_date", "a recurring task needs a start date")
		}
		rule.Start = anchorOf(*task.DueDate)
		task.Recurrence = &rule
	}

	categories, err := s.resolveCategories(ctx, user.ID, input.Categories)
	if err != nil {
		return nil, err
	}
	task.Categories = categories

	if err := s.taskRepo.Create(ctx, &task); err != nil {
		return nil, err
	}
	s.logger.Debug("task created", zap.Uint("task_id", task.ID), zap.Uint("user_id", user.ID))
	return &task, nil
}

// ListTasks returns owned and shared tasks.
func (s *TaskService) ListTasks(ctx context.Context, user *model.User) ([]model.Task, error) {
	return s.taskRepo.ListForUser(ctx, *user)
}

// ListOpen returns the tasks that are not done.
func (s *TaskService) ListOpen(ctx context.Context, user *model.User) ([]model.Task, error) {
	tasks, err := s.ListTasks(ctx, user)
	if err != nil {
		return nil, err
	}
	open := tasks[:0]
	for _, t := range tasks {
		if !t.IsDone() {
			open = append(open, t)
		}
	}
	return open, nil
}

// ListOverdue returns visible tasks past their due date and not done.
func (s *TaskService) ListOverdue(ctx context.Context, user *model.User) ([]model.Task, error) {
	tasks, err := s.ListTasks(ctx, user)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	var overdue []model.Task
	for _, t := range tasks {
		if t.IsOverdue(now) {
			overdue = append(overdue, t)
		}
	}
	return overdue, nil
}

// GetTask returns a task the user may at least view.
func (s *TaskService) GetTask(ctx context.Context, user *model.User, taskID uint) (*model.Task, error) {
	task, _, err := s.load(ctx, user, taskID)
	return task, err
}

func (s *TaskService) UpdateTask(ctx context.Context, user *model.User, taskID uint, upd TaskUpdate) (*model.Task, error) {
	return s.edit(ctx, user, taskID, func(task *model.Task) error {
		if upd.Title != nil {
			task.Title = strings.TrimSpace(*upd.Title)
		}
		if upd.Description != nil {
			task.Description = strings.TrimSpace(*upd.Description)
		}
		if upd.Role != nil {
			task.Role = *upd.Role
		}
		if upd.Priority != nil {
			task.Priority = *upd.Priority
		}
		if upd.Status != nil {
			task.Status = *upd.Status
		}
		return validateTask(*task)
	})
}

// ToggleStatus flips done and todo; an in-progress task becomes done.
func (s *TaskService) ToggleStatus(ctx context.Context, user *model.User, taskID uint) (*model.Task, error) {
	return s.edit(ctx, user, taskID, func(task *model.Task) error {
		if task.IsDone() {
			task.Status = model.StatusTodo
		} else {
			task.Status = model.StatusDone
		}
		return nil
	})
}

func (s *TaskService) SetStatus(ctx context.Context, user *model.User, taskID uint, status model.Status) (*model.Task, error) {
	return s.UpdateTask(ctx, user, taskID, TaskUpdate{Status: &status})
}

func (s *TaskService) SetDueDate(ctx context.Context, user *model.User, taskID uint, due *time.Time) (*model.Task, error) {
	return s.edit(ctx, user, taskID, func(task *model.Task) error {
		if due == nil && task.Recurrence != nil {
			return model.Invalid("due_date", "a recurring task needs a start date")
		}
		task.DueDate = due
		// An explicit date restarts the series there.
		if task.Recurrence != nil {
			rule := *task.Recurrence
			rule.Start = anchorOf(*due)
			task.Recurrence = &rule
		}
		return nil
	})
}

// SetRecurrence attaches a validated rule, or clears it when rule is nil.
func (s *TaskService) SetRecurrence(ctx context.Context, user *model.User, taskID uint, rule *model.Recurrence) (*model.Task, error) {
	return s.edit(ctx, user, taskID, func(task *model.Task) error {
		if rule == nil {
			task.Recurrence = nil
			return nil
		}
		if task.DueDate == nil {
			return model.Invalid("due_date", "a recurring task needs a start date")
		}
		checked, err := checkRule(*rule)
		if err != nil {
			return err
		}
		switch {
		case rule.Start != nil:
			checked.Start = anchorOf(*rule.Start)
		case task.Recurrence != nil && task.Recurrence.Start != nil:
			checked.Start = task.Recurrence.Start
		default:
			checked.Start = anchorOf(*task.DueDate)
		}
		task.Recurrence = &checked
		return nil
	})
}

// SetCategories replaces the task's categories by name, creating missing ones.
func (s *TaskService) SetCategories(ctx context.Context, user *model.User, taskID uint, names []string) (*model.Task, error) {
	task, role, err := s.load(ctx, user, taskID)
	if err != nil {
		return nil, err
	}
	if !role.CanEdit() {
		return nil, model.Forbidden("edit task")
	}
	categories, err := s.resolveCategories(ctx, task.UserID, names)
	if err != nil {
		return nil, err
	}
	if err := s.taskRepo.SetCategories(ctx, task, categories); err != nil {
		return nil, err
	}
	return task, nil
}

// DeleteTask is reserved to owners.
func (s *TaskService) DeleteTask(ctx context.Context, user *model.User, taskID uint) error {
	_, role, err := s.load(ctx, user, taskID)
	if err != nil {
		return err
	}
	if !role.CanDelete() {
		return model.Forbidden("delete task")
	}
	return s.taskRepo.Delete(ctx, taskID)
}

// ShareTask invites email with role. Only owners manage collaborators.
func (s *TaskService) ShareTask(ctx context.Context, user *model.User, taskID uint, email string, role model.CollaboratorRole) error {
	email = strings.TrimSpace(email)
	if !strings.Contains(email, "@") {
		return model.Invalid("email", "%q is not an email address", email)
	}
	if !role.Valid() {
		return model.Invalid("role", "unknown collaborator role %q", role)
	}
	_, own, err := s.load(ctx, user, taskID)
	if err != nil {
		return err
	}
	if own != model.CollaboratorOwner {
		return model.Forbidden("share task")
	}
	return s.taskRepo.AddCollaborator(ctx, &model.TaskCollaborator{TaskID: taskID, Email: email, Role: role})
}

func (s *TaskService) UnshareTask(ctx context.Context, user *model.User, taskID uint, email string) error {
	_, own, err := s.load(ctx, user, taskID)
	if err != nil {
		return err
	}
	if own != model.CollaboratorOwner {
		return model.Forbidden("share task")
	}
	return s.taskRepo.RemoveCollaborator(ctx, taskID, email)
}

func (s *TaskService) load(ctx context.Context, user *model.User, taskID uint) (*model.Task, model.CollaboratorRole, error) {
	task, err := s.taskRepo.FindByID(ctx, taskID)
	if err != nil {
		return nil, "", err
	}
	role, ok := task.AccessRole(*user)
	if !ok {
		// Tasks of other users are reported as missing.
		return nil, "", model.ErrTaskNotFound
	}
	return task, role, nil
}

func (s *TaskService) edit(ctx context.Context, user *model.User, taskID uint, mutate func(*model.Task) error) (*model.Task, error) {
	task, role, err := s.load(ctx, user, taskID)
	if err != nil {
		return nil, err
	}
	if !role.CanEdit() {
		return nil, model.Forbidden("edit task")
	}
	if err := mutate(task); err != nil {
		return nil, err
	}
	if err := s.taskRepo.Update(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

// resolveCategories looks categories up by name, creating missing ones. Blank
// and repeated names are skipped.
func (s *TaskService) resolveCategories(ctx context.Context, userID uint, names []string) ([]model.Category, error) {
	seen := make(map[uint]struct{}, len(names))
	categories := make([]model.Category, 0, len(names))
	for _, name := range names {
		category, err := s.categoryRepo.GetOrCreate(ctx, userID, name, "")
		if err != nil {
			return nil, err
		}
		if category == nil {
			continue
		}
		if _, dup := seen[category.ID]; dup {
			continue
		}
		seen[category.ID] = struct{}{}
		categories = append(categories, *category)
	}
	return categories, nil
}

func validateTask(task model.Task) error {
	if task.Title == "" {
		return model.Invalid("title", "is required")
	}
	if !task.Role.Valid() {
		return model.Invalid("role", "unknown role %q", task.Role)
	}
	if !task.Priority.Valid() {
		return model.Invalid("priority", "unknown priority %q", task.Priority)
	}
	if !task.Status.Valid() {
		return model.Invalid("status", "unknown status %q", task.Status)
	}
	return nil
}

func anchorOf(t time.Time) *time.Time {
	start := t.UTC()
	return &start
}

func checkRule(rule model.Recurrence) (model.Recurrence, error) {
	if err := recurrence.Validate(rule); err != nil {
		return model.Recurrence{}, fmt.Errorf("recurrence: %w", err)
	}
	return recurrence.Normalize(rule), nil
}
