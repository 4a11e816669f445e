package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"wellness-planner/internal/model"
)

// UserRepository stores chat users.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// UpsertFromTelegram finds or creates a user by TelegramID and refreshes the profile.
func (r *UserRepository) UpsertFromTelegram(ctx context.Context, telegramID int64, firstName, lastName, username string) (*model.User, error) {
	var user model.User
	db := r.db.WithContext(ctx)
	err := db.Where("telegram_id = ?", telegramID).First(&user).Error
	switch {
	case err == nil:
		updates := map[string]any{
			"first_name": firstName,
			"last_name":  lastName,
			"username":   username,
		}
		if err := db.Model(&user).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("update user: %w", err)
		}
		return &user, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		user = model.User{
			TelegramID: telegramID,
			FirstName:  firstName,
			LastName:   lastName,
			Username:   username,
		}
		if err := db.Create(&user).Error; err != nil {
			return nil, fmt.Errorf("create user: %w", err)
		}
		return &user, nil
	default:
		return nil, fmt.Errorf("find user: %w", err)
	}
}

func (r *UserRepository) FindByTelegramID(ctx context.Context, telegramID int64) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("telegram_id = ?", telegramID).First(&user).Error; err != nil {
		return nil, notFound(err, model.ErrUserNotFound, "find user")
	}
	return &user, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id uint) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, notFound(err, model.ErrUserNotFound, "find user")
	}
	return &user, nil
}

func (r *UserRepository) ListAll(ctx context.Context) ([]model.User, error) {
	var users []model.User
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// SetEmail stores the user's email and claims the task and event invitations
// addressed to it.
func (r *UserRepository) SetEmail(ctx context.Context, user *model.User, email string) error {
	email = strings.TrimSpace(email)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(user).Update("email", email).Error; err != nil {
			return fmt.Errorf("update email: %w", err)
		}
		if email == "" {
			return nil
		}
		if err := tx.Model(&model.TaskCollaborator{}).
			Where("user_id IS NULL AND lower(email) = lower(?)", email).
			Update("user_id", user.ID).Error; err != nil {
			return fmt.Errorf("link task invitations: %w", err)
		}
		if err := tx.Model(&model.EventAttendee{}).
			Where("user_id IS NULL AND lower(email) = lower(?)", email).
			Update("user_id", user.ID).Error; err != nil {
			return fmt.Errorf("link event invitations: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	user.Email = email
	return nil
}

// notFound maps gorm's not-found error onto a domain sentinel and wraps the rest.
func notFound(err error, sentinel error, action string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return sentinel
	}
	return fmt.Errorf("%s: %w", action, err)
}
