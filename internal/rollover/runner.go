package rollover

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"wellness-planner/internal/clock"
	"wellness-planner/internal/logger"
	"wellness-planner/internal/model"
	"wellness-planner/internal/timeutil"
)

// Store is the part of the task repository the runner needs.
type Store interface {
	ListOwned(ctx context.Context, userID uint) ([]model.Task, error)
	UpdateDueDates(ctx context.Context, userID uint, dates map[uint]time.Time) error
}

// Result describes one Run.
type Result struct {
	Session string
	UserID  uint
	Day     timeutil.Date
	Changes []Change
	// Skipped is set when the guard was already held for this session and day.
	Skipped bool
}

// Runner applies the transition against a Store once per session, user and day.
type Runner struct {
	store  Store
	guard  Guard
	clock  clock.Clock
	logger *zap.Logger
	opts   []Option
	group  singleflight.Group
}

// NewRunner wires a runner. A nil guard falls back to a MemoryGuard.
func NewRunner(store Store, c clock.Clock, guard Guard, log *zap.Logger, opts ...Option) *Runner {
	if guard == nil {
		guard = NewMemoryGuard()
	}
	if c == nil {
		c = clock.System{}
	}
	return &Runner{store: store, guard: guard, clock: c, logger: logger.OrNop(log), opts: opts}
}

// Run rolls userID's stale tasks over to today. Concurrent calls for the same
// session and day share one execution, later calls are skipped by the guard.
// Storage errors release the guard so a retry can run.
func (r *Runner) Run(ctx context.Context, session string, userID uint) (Result, error) {
	now := r.clock.Now()
	day := timeutil.DateOf(now)
	key := fmt.Sprintf("%s:%d:%s", session, userID, day)

	v, err, _ := r.group.Do(key, func() (any, error) {
		return r.run(ctx, key, now, Result{Session: session, UserID: userID, Day: day})
	})
	if err != nil {
		return Result{}, err
	}
	return v.(Result), nil
}

func (r *Runner) run(ctx context.Context, key string, now time.Time, res Result) (Result, error) {
	ok, err := r.guard.Acquire(ctx, key)
	if err != nil {
		return res, err
	}
	if !ok {
		res.Skipped = true
		return res, nil
	}

	tasks, err := r.store.ListOwned(ctx, res.UserID)
	if err != nil {
		r.release(key)
		return res, fmt.Errorf("list tasks for rollover: %w", err)
	}

	res.Changes = Plan(tasks, now, r.opts...)
	if len(res.Changes) > 0 {
		if err := r.store.UpdateDueDates(ctx, res.UserID, DueDates(res.Changes)); err != nil {
			r.release(key)
			return res, fmt.Errorf("persist rollover: %w", err)
		}
	}

	r.logger.Info("rollover applied",
		zap.String("session", res.Session),
		zap.Uint("user_id", res.UserID),
		zap.String("day", res.Day.String()),
		zap.Int("moved", len(res.Changes)),
	)
	return res, nil
}

func (r *Runner) release(key string) {
	if err := r.guard.Release(context.Background(), key); err != nil {
		r.logger.Warn("release rollover guard", zap.String("key", key), zap.Error(err))
	}
}
