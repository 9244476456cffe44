// Package main - точка входа REST API Arena Progress Hub.
//
// API обслуживает дашборды инструкторов и внешние интеграции:
// - Приём отрецензированных сабмитов и пересчёт прогресса
// - Чтение прогресса, лидерборда и прогнозов завершения
// - Жизненный цикл алертов и интервенций
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/arena-hub/arena-progress-hub/config"
	"github.com/arena-hub/arena-progress-hub/internal/application/command"
	"github.com/arena-hub/arena-progress-hub/internal/application/eventhandler"
	"github.com/arena-hub/arena-progress-hub/internal/application/query"
	"github.com/arena-hub/arena-progress-hub/internal/domain/alert"
	"github.com/arena-hub/arena-progress-hub/internal/domain/leaderboard"
	"github.com/arena-hub/arena-progress-hub/internal/domain/notification"
	"github.com/arena-hub/arena-progress-hub/internal/domain/shared"
	"github.com/arena-hub/arena-progress-hub/internal/infrastructure/messaging"
	"github.com/arena-hub/arena-progress-hub/internal/infrastructure/metrics"
	"github.com/arena-hub/arena-progress-hub/internal/infrastructure/persistence/postgres"
	"github.com/arena-hub/arena-progress-hub/internal/infrastructure/persistence/redis"
	"github.com/arena-hub/arena-progress-hub/internal/infrastructure/service"
	httpapi "github.com/arena-hub/arena-progress-hub/internal/interface/http"
	"github.com/arena-hub/arena-progress-hub/internal/interface/http/handlers"
	"github.com/arena-hub/arena-progress-hub/pkg/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "api: %v\n", err)
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
		Service: cfg.App.Name,
	})
	log.Info("starting api",
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
	)

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
		cache            *redis.Cache
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
		redisCfg.DialTimeout = cfg.Redis.DialTimeout
		redisCfg.ReadTimeout = cfg.Redis.ReadTimeout
		redisCfg.WriteTimeout = cfg.Redis.WriteTimeout

		cache, err = redis.NewCache(redisCfg)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer cache.Close()

		leaderboardCache = redis.NewLeaderboardCache(cache)
		snoozeTracker = redis.NewSnoozeTracker(cache)
	} else {
		log.Warn("redis disabled, running without cache and snooze tracker")
	}

	participationRepo := postgres.NewParticipationRepository(conn)
	requirementRepo := postgres.NewRequirementRepository(conn)
	submissionRepo := postgres.NewSubmissionRepository(conn)
	progressRepo := postgres.NewProgressRepository(conn)
	milestoneRepo := postgres.NewMilestoneRepository(conn)
	leaderboardRepo := postgres.NewLeaderboardRepository(conn)
	alertRepo := postgres.NewAlertRepository(conn)
	interventionRepo := postgres.NewInterventionRepository(conn)

	bus := messaging.NewInMemoryEventBus(messaging.InMemoryEventBusConfig{
		AsyncMode:      true,
		WorkerPoolSize: 8,
		Logger:         log,
	})
	defer func() { _ = bus.Close() }()

	var sender notification.Sender
	if cfg.Notifications.WebhookURL != "" {
		sender = service.NewWebhookSender(cfg.Notifications.WebhookURL, log)
	} else {
		sender = service.NewLogSender(log)
	}

	promMetrics := metrics.New()

	// ─────────────────────────────────────────────────────────────────────────
	// Application layer
	// ─────────────────────────────────────────────────────────────────────────

	deps := httpapi.Dependencies{
		GetProgressHandler:             query.NewGetProgressHandler(participationRepo, progressRepo, milestoneRepo, nil),
		GetLeaderboardHandler:          query.NewGetLeaderboardHandler(leaderboardRepo, leaderboardCache),
		ListOpenAlertsHandler:          query.NewListOpenAlertsHandler(alertRepo, nil),
		GetInterventionInsightsHandler: query.NewGetInterventionInsightsHandler(interventionRepo, nil),

		RecordSubmissionHandler: command.NewRecordSubmissionHandler(
			participationRepo, requirementRepo, submissionRepo, progressRepo,
			milestoneRepo, nil, bus, nil),
		AcknowledgeAlertHandler:     command.NewAcknowledgeAlertHandler(alertRepo, bus, nil),
		ResolveAlertHandler:         command.NewResolveAlertHandler(alertRepo, snoozeTracker, sender, bus, nil),
		SnoozeAlertHandler:          command.NewSnoozeAlertHandler(alertRepo, snoozeTracker, bus, nil),
		AddAlertActionHandler:       command.NewAddAlertActionHandler(alertRepo, nil),
		CreateInterventionHandler:   command.NewCreateInterventionHandler(interventionRepo, alertRepo, bus, nil),
		StartInterventionHandler:    command.NewStartInterventionHandler(interventionRepo, bus, nil),
		CompleteInterventionHandler: command.NewCompleteInterventionHandler(interventionRepo, nil, bus, nil),
		CancelInterventionHandler:   command.NewCancelInterventionHandler(interventionRepo, bus, nil),

		Logger:        log,
		Metrics:       promMetrics,
		HealthChecker: buildHealthChecker(cfg, conn, cache),
	}

	subscribeNotifications(bus, sender, log)
	subscribeMetrics(bus, promMetrics)

	// ─────────────────────────────────────────────────────────────────────────
	// HTTP server
	// ─────────────────────────────────────────────────────────────────────────

	serverCfg := httpapi.DefaultConfig()
	serverCfg.Host = cfg.HTTP.Host
	serverCfg.Port = cfg.HTTP.Port
	serverCfg.ReadTimeout = cfg.HTTP.ReadTimeout
	serverCfg.WriteTimeout = cfg.HTTP.WriteTimeout
	serverCfg.IdleTimeout = cfg.HTTP.IdleTimeout
	serverCfg.EnableCORS = cfg.HTTP.EnableCORS
	serverCfg.AllowedOrigins = cfg.HTTP.AllowedOrigins
	serverCfg.EnableMetrics = cfg.HTTP.EnableMetrics
	serverCfg.RateLimitPerMinute = cfg.HTTP.RateLimitPerMinute
	serverCfg.APIKeyHashes = cfg.HTTP.APIKeyHashes

	server := httpapi.NewServer(serverCfg, deps)
	errCh := server.StartAsync()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown failed", "error", err)
	}

	log.Info("api stopped")
	return nil
}

// buildHealthChecker wires dependency pings into the /health endpoint.
func buildHealthChecker(cfg *config.Config, conn *postgres.Connection, cache *redis.Cache) handlers.HealthChecker {
	checker := handlers.NewCompositeHealthChecker(cfg.App.Version)
	checker.AddCheck("postgres", func(ctx context.Context) error {
		return conn.Ping(ctx)
	})
	if cache != nil {
		checker.AddCheck("redis", func(ctx context.Context) error {
			return cache.Ping(ctx)
		})
	}
	return checker
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

// subscribeMetrics feeds lifecycle counters from domain events.
func subscribeMetrics(bus *messaging.InMemoryEventBus, m *metrics.Metrics) {
	_ = bus.Subscribe(shared.EventMilestoneAchieved, func(shared.Event) error {
		m.MilestonesAchieved.Inc()
		return nil
	})

	alertEvents := []shared.EventType{
		shared.EventAlertAcknowledged,
		shared.EventAlertResolved,
		shared.EventAlertSnoozed,
		shared.EventAlertWoken,
	}
	for _, et := range alertEvents {
		target := statusFromEventType(et)
		_ = bus.Subscribe(et, func(shared.Event) error {
			m.AlertTransitions.WithLabelValues(target).Inc()
			return nil
		})
	}

	interventionEvents := []shared.EventType{
		shared.EventInterventionStarted,
		shared.EventInterventionCompleted,
		shared.EventInterventionCancelled,
	}
	for _, et := range interventionEvents {
		target := statusFromEventType(et)
		_ = bus.Subscribe(et, func(shared.Event) error {
			m.InterventionTransitions.WithLabelValues(target).Inc()
			return nil
		})
	}
}

// statusFromEventType extracts the target status from a lifecycle event type,
// e.g. "alert.resolved" -> "resolved".
func statusFromEventType(et shared.EventType) string {
	s := string(et)
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == '.' {
			return s[i+1:]
		}
	}
	return s
}
