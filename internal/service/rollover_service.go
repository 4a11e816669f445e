package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"wellness-planner/internal/logger"
	"wellness-planner/internal/model"
	"wellness-planner/internal/repository"
	"wellness-planner/internal/rollover"
)

// RolloverService runs the stale task transition for every known user under
// one session identity.
type RolloverService struct {
	users   *repository.UserRepository
	runner  *rollover.Runner
	session string
	logger  *zap.Logger
}

// NewRolloverService starts a new session. An empty session gets a random id.
func NewRolloverService(users *repository.UserRepository, runner *rollover.Runner, session string, log *zap.Logger) *RolloverService {
	if session == "" {
		session = uuid.NewString()
	}
	return &RolloverService{users: users, runner: runner, session: session, logger: logger.OrNop(log)}
}

func (s *RolloverService) Session() string {
	return s.session
}

// RunUser rolls one user's tasks, typically when they start talking to the bot.
func (s *RolloverService) RunUser(ctx context.Context, user *model.User) (rollover.Result, error) {
	return s.runner.Run(ctx, s.session, user.ID)
}

// RunAll rolls every user's tasks and returns how many due dates moved. A
// failure for one user does not stop the others; the errors are joined.
func (s *RolloverService) RunAll(ctx context.Context) (int, error) {
	users, err := s.users.ListAll(ctx)
	if err != nil {
		return 0, err
	}
	var (
		moved int
		errs  []error
	)
	for _, u := range users {
		res, err := s.runner.Run(ctx, s.session, u.ID)
		if err != nil {
			s.logger.Error("rollover failed", zap.Uint("user_id", u.ID), zap.Error(err))
			errs = append(errs, err)
			continue
		}
		moved += len(res.Changes)
	}
	return moved, errors.Join(errs...)
}
