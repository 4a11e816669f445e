package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"wellness-planner/internal/bot"
	"wellness-planner/internal/clock"
	"wellness-planner/internal/config"
	"wellness-planner/internal/logger"
	"wellness-planner/internal/repository"
	"wellness-planner/internal/rollover"
	"wellness-planner/internal/service"
)

func main() {
	if code := serve(); code != 0 {
		os.Exit(code)
	}
}

// serve returns the exit code once every deferred cleanup, the log flush
// included, has run.
func serve() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Printf("config: %v", err)
		return 1
	}

	lg, err := logger.New(logger.Config{Level: cfg.Logger.Level, Encoding: cfg.Logger.Encoding})
	if err != nil {
		log.Printf("logger: %v", err)
		return 1
	}
	defer func() { _ = lg.Sync() }()

	return report(lg, run(ctx, cfg, lg))
}

// report logs how the planner stopped and maps it to an exit code.
func report(lg *zap.Logger, err error) int {
	if err != nil {
		lg.Error("planner stopped with error", zap.Error(err))
		return 1
	}
	lg.Info("shutdown complete")
	return 0
}

func run(ctx context.Context, cfg config.Config, lg *zap.Logger) error {
	db, err := repository.NewDB(cfg.DatabaseURL, lg)
	if err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	c := clock.System{Location: cfg.Location}

	userRepo := repository.NewUserRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	eventRepo := repository.NewEventRepository(db)
	moodRepo := repository.NewMoodRepository(db)
	sleepRepo := repository.NewSleepRepository(db)

	guard, closeGuard, err := newGuard(ctx, cfg.RedisURL, lg)
	if err != nil {
		return err
	}
	defer closeGuard()

	var rollOpts []rollover.Option
	if cfg.Rollover.AssignDateless {
		rollOpts = append(rollOpts, rollover.WithDatelessToday())
	}
	runner := rollover.NewRunner(taskRepo, c, guard, lg.Named("rollover"), rollOpts...)

	taskSvc := service.NewTaskService(taskRepo, categoryRepo, c, lg)
	categorySvc := service.NewCategoryService(categoryRepo)
	calendarSvc := service.NewCalendarService(taskRepo, eventRepo, moodRepo, c, cfg.Location, cfg.ThemeAccent, lg)
	wellnessSvc := service.NewWellnessService(moodRepo, sleepRepo, c, lg)
	reminderSvc := service.NewReminderService(taskSvc, calendarSvc, wellnessSvc)
	rolloverSvc := service.NewRolloverService(userRepo, runner, cfg.Rollover.Session, lg)

	lg.Info("session started", zap.String("session", rolloverSvc.Session()))
	rollAll := func() {
		jobCtx, cancel := context.WithTimeout(ctx, time.Minute)
		defer cancel()
		moved, err := rolloverSvc.RunAll(jobCtx)
		if err != nil {
			lg.Error("rollover", zap.Error(err))
		}
		lg.Info("rollover pass finished", zap.Int("moved", moved))
	}
	rollAll()

	telegramBot, err := bot.New(cfg.TelegramToken, bot.Deps{
		Users:      userRepo,
		Tasks:      taskSvc,
		Categories: categorySvc,
		Calendar:   calendarSvc,
		Wellness:   wellnessSvc,
		Reminders:  reminderSvc,
		Rollover:   rolloverSvc,
		Clock:      c,
		Logger:     lg,
	}, &cfg)
	if err != nil {
		return err
	}

	scheduler := service.NewSchedulerService(cfg.Location, lg)
	if _, err := scheduler.ScheduleDaily(cfg.Rollover.At, rollAll); err != nil {
		return err
	}
	if cfg.ReportInterval > 0 {
		if _, err := scheduler.ScheduleInterval(cfg.ReportInterval, func() {
			jobCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
			defer cancel()
			if err := telegramBot.SendDailyReports(jobCtx); err != nil && !errors.Is(err, context.Canceled) {
				lg.Error("report", zap.Error(err))
			}
		}); err != nil {
			return err
		}
	}
	scheduler.Start()
	defer scheduler.Stop()

	lg.Info("planner bot started", zap.String("rollover_at", cfg.Rollover.At), zap.Duration("report_interval", cfg.ReportInterval))
	if err := telegramBot.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// newGuard picks the Redis guard when REDIS_URL is set. Processes sharing
// ROLLOVER_SESSION then roll each user over once per day between them;
// otherwise the runner keeps its in-memory guard.
func newGuard(ctx context.Context, redisURL string, lg *zap.Logger) (rollover.Guard, func(), error) {
	if redisURL == "" {
		return nil, func() {}, nil
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, nil, err
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, nil, err
	}
	lg.Info("using redis rollover guard", zap.String("addr", opts.Addr))
	return rollover.NewRedisGuard(client, "planner:rollover:", rollover.DefaultGuardTTL), func() { client.Close() }, nil
}
