package service

import (
	"context"

	"wellness-planner/internal/model"
	"wellness-planner/internal/repository"
)

// CategoryService provides helpers around categories.
type CategoryService struct {
	repo *repository.CategoryRepository
}

func NewCategoryService(repo *repository.CategoryRepository) *CategoryService {
	return &CategoryService{repo: repo}
}

func (s *CategoryService) List(ctx context.Context, user *model.User) ([]model.Category, error) {
	return s.repo.ListByUser(ctx, user.ID)
}

// Ensure creates the category if needed. color applies only to new categories.
func (s *CategoryService) Ensure(ctx context.Context, user *model.User, name, color string) (*model.Category, error) {
	category, err := s.repo.GetOrCreate(ctx, user.ID, name, color)
	if err != nil {
		return nil, err
	}
	if category == nil {
		return nil, model.Invalid("name", "is required")
	}
	return category, nil
}
