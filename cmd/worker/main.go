// Package main - точка входа фоновых процессов (Worker) Arena Progress Hub.
//
// Worker отвечает за периодические задачи:
// - Пересчёт лидерборда и публикация изменений рангов
// - Пробуждение отложенных алертов по истечении срока
// - Ежедневный пересчёт серий активности
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/arena-hub/arena-progress-hub/config"
	"github.com/arena-hub/arena-progress-hub/internal/application/command"
	"github.com/arena-hub/arena-progress-hub/internal/application/eventhandler"
	"github.com/arena-hub/arena-progress-hub/internal/domain/alert"
	"github.com/arena-hub/arena-progress-hub/internal/domain/leaderboard"
	"github.com/arena-hub/arena-progress-hub/internal/domain/notification"
	"github.com/arena-hub/arena-progress-hub/internal/domain/shared"
	"github.com/arena-hub/arena-progress-hub/internal/infrastructure/messaging"
	"github.com/arena-hub/arena-progress-hub/internal/infrastructure/persistence/postgres"
	"github.com/arena-hub/arena-progress-hub/internal/infrastructure/persistence/redis"
	"github.com/arena-hub/arena-progress-hub/internal/infrastructure/scheduler"
	"github.com/arena-hub/arena-progress-hub/internal/infrastructure/scheduler/jobs"
	"github.com/arena-hub/arena-progress-hub/internal/infrastructure/service"
	"github.com/arena-hub/arena-progress-hub/pkg/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "worker: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.Setup(logger.Options{
		Level:   logger.ParseLevel(cfg.Observability.LogLevel),
		Format:  logger.ParseFormat(cfg.Observability.LogFormat),
		Service: cfg.App.Name + "-worker",
	})
	log.Info("starting worker",
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
		"competitions", cfg.App.Competitions,
	)

	if !cfg.Scheduler.Enabled {
		return fmt.Errorf("scheduler is disabled, nothing to do")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ─────────────────────────────────────────────────────────────────────────
	// Infrastructure
	// ─────────────────────────────────────────────────────────────────────────

	conn, err := postgres.NewConnectionFromURL(ctx, cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer conn.Close()

	if cfg.Database.RunMigrations {
		migrator := postgres.NewMigrator(conn)
		if err := migrator.Migrate(ctx); err != nil {
			return fmt.Errorf("apply migrations: %w", err)
		}
	}

	var (
		leaderboardCache leaderboard.Cache
		snoozeTracker    alert.SnoozeTracker
	)
	if !cfg.Redis.Disabled {
		redisCfg := redis.DefaultConfig()
		redisCfg.Host = cfg.Redis.Host
		redisCfg.Port = cfg.Redis.Port
		redisCfg.Password = cfg.Redis.Password
		redisCfg.DB = cfg.Redis.DB
		redisCfg.PoolSize = cfg.Redis.PoolSize
		redisCfg.MinIdleConns = cfg.Redis.MinIdleConns

		cache, err := redis.NewCache(redisCfg)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer cache.Close()

		leaderboardCache = redis.NewLeaderboardCache(cache)
		snoozeTracker = redis.NewSnoozeTracker(cache)
	}

	participationRepo := postgres.NewParticipationRepository(conn)
	progressRepo := postgres.NewProgressRepository(conn)
	milestoneRepo := postgres.NewMilestoneRepository(conn)
	leaderboardRepo := postgres.NewLeaderboardRepository(conn)
	alertRepo := postgres.NewAlertRepository(conn)

	bus := messaging.NewInMemoryEventBus(messaging.InMemoryEventBusConfig{
		AsyncMode:      true,
		WorkerPoolSize: 4,
		Logger:         log,
	})
	defer func() { _ = bus.Close() }()

	var sender notification.Sender
	if cfg.Notifications.WebhookURL != "" {
		sender = service.NewWebhookSender(cfg.Notifications.WebhookURL, log)
	} else {
		sender = service.NewLogSender(log)
	}
	subscribeNotifications(bus, sender, log)

	// ─────────────────────────────────────────────────────────────────────────
	// Scheduler
	// ─────────────────────────────────────────────────────────────────────────

	competitions := make([]shared.CompetitionID, 0, len(cfg.App.Competitions))
	for _, id := range cfg.App.Competitions {
		competitions = append(competitions, shared.CompetitionID(id))
	}

	rebuildHandler := command.NewRebuildLeaderboardHandler(
		participationRepo, progressRepo, milestoneRepo,
		leaderboardRepo, leaderboardCache, bus, nil)
	wakeHandler := command.NewWakeSnoozedAlertsHandler(alertRepo, snoozeTracker, bus, nil)

	sched := scheduler.New(scheduler.Config{Logger: log})

	rebuildJob := jobs.NewRebuildLeaderboardJob(rebuildHandler, competitions, 5*time.Minute, log)
	if err := sched.Register(rebuildJob, scheduler.NewIntervalSchedule(cfg.Scheduler.RebuildLeaderboardInterval)); err != nil {
		return fmt.Errorf("register rebuild job: %w", err)
	}

	snoozeJob := jobs.NewExpireSnoozesJob(wakeHandler, time.Minute, log)
	if err := sched.Register(snoozeJob, scheduler.NewIntervalSchedule(cfg.Scheduler.ExpireSnoozesInterval)); err != nil {
		return fmt.Errorf("register snooze job: %w", err)
	}

	streakJob := jobs.NewRecomputeStreaksJob(participationRepo, progressRepo, bus, competitions, nil, log)
	if err := sched.Register(streakJob, scheduler.NewDailySchedule(cfg.Scheduler.StreakSweepHour, cfg.Scheduler.StreakSweepMinute)); err != nil {
		return fmt.Errorf("register streak job: %w", err)
	}

	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}

	<-ctx.Done()
	log.Info("shutdown signal received")

	if err := sched.Stop(); err != nil {
		log.Error("scheduler stop failed", "error", err)
	}

	log.Info("worker stopped")
	return nil
}

// subscribeNotifications wires domain events to participant notifications.
func subscribeNotifications(bus *messaging.InMemoryEventBus, sender notification.Sender, log *slog.Logger) {
	onMilestone := eventhandler.NewOnMilestoneAchievedHandler(sender, log)
	onRank := eventhandler.NewOnRankChangedHandler(sender, log, eventhandler.DefaultRankChangedConfig())
	onStreak := eventhandler.NewOnStreakBrokenHandler(sender, log, eventhandler.DefaultStreakBrokenConfig())

	_ = bus.Subscribe(shared.EventMilestoneAchieved, onMilestone.Handle)
	_ = bus.Subscribe(shared.EventRankChanged, onRank.Handle)
	_ = bus.Subscribe(shared.EventStreakBroken, onStreak.Handle)
}
