package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"adherence-notify/internal/config"
	pgRepo "adherence-notify/internal/infra/adapter/persistence/postgres"
	"adherence-notify/internal/infra/db"
	"adherence-notify/internal/infra/notifier"
	"adherence-notify/internal/infra/push"
	"adherence-notify/internal/infra/stream"
	workerPkg "adherence-notify/internal/infra/worker"
	"adherence-notify/internal/observability/logging"
	"adherence-notify/internal/observability/metrics"
	"adherence-notify/internal/observability/tracing"
	pkgconfig "adherence-notify/internal/pkg/config"
	"adherence-notify/internal/resilience/circuitbreaker"
	"adherence-notify/internal/usecase/alert"
	"adherence-notify/internal/usecase/delivery"
	"adherence-notify/internal/usecase/notify"
	"adherence-notify/internal/usecase/queue"
	"adherence-notify/internal/usecase/reminder"
)

const serviceName = "adherence-notify-worker"

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "failed to load .env: %v\n", err)
	}

	logger := logging.NewLogger()
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger); err != nil {
		logger.Error("worker exited with error", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger) error {
	shutdownTracing, err := tracing.Init(ctx, serviceName)
	if err != nil {
		logger.Warn("tracing exporter disabled", slog.Any("error", err))
		shutdownTracing = func(context.Context) error { return nil }
	}

	// Configuration (fail-open: invalid values fall back to defaults)
	workerMetrics := workerPkg.NewWorkerMetrics()
	workerConfig := workerPkg.LoadConfigFromEnv(logger, workerMetrics)
	loc := workerConfig.Location()

	queueConfig := config.LoadQueueConfig(logger, pkgconfig.NewConfigMetrics("queue"))
	if err := queueConfig.Validate(); err != nil {
		return fmt.Errorf("queue configuration: %w", err)
	}
	alertConfig := config.LoadAlertConfig(logger, pkgconfig.NewConfigMetrics("alert"), loc)
	pushConfig := config.LoadPushConfig(logger, pkgconfig.NewConfigMetrics("push"))

	logger.Info("worker configuration loaded",
		slog.String("timezone", workerConfig.Timezone),
		slog.Bool("queue_enabled", queueConfig.Enabled),
		slog.String("queue_backend", queueConfig.Backend),
		slog.Duration("claim_min_idle", queueConfig.ClaimMinIdle),
		slog.String("push_provider", pushConfig.Provider),
		slog.Bool("dlq_alert_enabled", alertConfig.Enabled),
		slog.Int("health_port", workerConfig.HealthPort),
		slog.Int("metrics_port", workerConfig.MetricsPort))

	// Storage
	database, err := initDatabase(ctx, logger)
	if err != nil {
		return err
	}
	defer closeLogged(logger, "database", database.Close)

	store, redisClient := initStreamStore(logger, queueConfig)
	if redisClient != nil {
		defer closeLogged(logger, "redis", redisClient.Close)
	}

	dbBreaker := circuitbreaker.NewDBCircuitBreaker(database)
	prefsRepo := pgRepo.NewPreferencesRepo(dbBreaker)
	deviceRepo := pgRepo.NewDeviceTokenRepo(dbBreaker)

	// Delivery
	sender, err := initPushSender(ctx, logger, pushConfig)
	if err != nil {
		return err
	}
	processor := delivery.NewProcessor(prefsRepo, deviceRepo, push.NewBreakerSender(sender), delivery.Config{
		Location:          loc,
		FanoutConcurrency: pushConfig.FanoutConcurrency,
	}, logger)

	// Alerts
	alertService, natsNotifier, closeAlerts := initAlertService(logger, alertConfig)
	defer closeAlerts()

	// Queue
	qcfg := queueConfig.Queue()
	producer := queue.NewProducer(store, qcfg, logger)
	var consumer *queue.Consumer
	if queueConfig.Enabled {
		if err := producer.EnsureConsumerGroup(ctx); err != nil {
			return fmt.Errorf("ensure consumer group: %w", err)
		}
		dlq := queue.NewDeadLetterManager(producer, alertService, alertConfig.Enabled, qcfg.MaxRetries, logger)
		consumer = queue.NewConsumer(store, qcfg, processor, dlq, logger, queue.WithStatsSource(producer))
	}

	// Façade and reminders
	templates, err := notify.LoadTemplates(pushConfig.TemplatesFile)
	if err != nil {
		return fmt.Errorf("load notification templates: %w", err)
	}
	notifyService := notify.NewService(notify.Config{QueueEnabled: queueConfig.Enabled}, producer, processor, templates, logger)

	scheduler := reminder.NewScheduler(prefsRepo, notifyService, loc, logger)
	restored, err := scheduler.Restore(ctx)
	if err != nil {
		logger.Error("failed to restore reminders", slog.Any("error", err))
	}
	workerMetrics.RecordRemindersRestored(restored)

	// HTTP servers and background loops
	serverCtx, cancelServers := context.WithCancel(context.WithoutCancel(ctx))
	defer cancelServers()

	startMetricsServer(serverCtx, logger, workerConfig.MetricsPort, alertService)

	healthServer := workerPkg.NewHealthServer(fmt.Sprintf(":%d", workerConfig.HealthPort), logger)
	healthServer.AddCheck("database", database.PingContext)
	healthServer.AddCheck("stream", store.Ping)
	if natsNotifier != nil {
		healthServer.AddCheck("nats", func(context.Context) error {
			if !natsNotifier.IsConnected() {
				return errors.New("nats disconnected")
			}
			return nil
		})
	}
	go func() {
		if err := healthServer.Start(serverCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("health server failed", slog.Any("error", err))
		}
	}()

	go metrics.CollectPoolStats(serverCtx, 15*time.Second, database, redisClient)

	// Start
	scheduler.Start()
	workerMetrics.SetComponentUp("scheduler", true)
	if consumer != nil {
		// The consumer outlives the signal context so an in-flight batch can
		// finish within ShutdownTimeout.
		if err := consumer.Start(serverCtx); err != nil {
			return fmt.Errorf("start consumer: %w", err)
		}
		workerMetrics.SetComponentUp("consumer", true)
	} else {
		logger.Info("queue disabled, notifications are delivered directly")
	}

	workerMetrics.RecordStart()
	healthServer.SetReady(true)
	logger.Info("worker started", slog.Int("reminders_restored", restored))

	<-ctx.Done()
	logger.Info("shutdown signal received")
	healthServer.SetReady(false)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), workerConfig.ShutdownTimeout)
	defer cancel()

	if consumer != nil {
		if err := consumer.Stop(shutdownCtx); err != nil {
			logger.Warn("consumer stop incomplete", slog.Any("error", err))
		}
		workerMetrics.SetComponentUp("consumer", false)
	}
	if err := scheduler.Stop(shutdownCtx); err != nil {
		logger.Warn("scheduler stop incomplete", slog.Any("error", err))
	}
	workerMetrics.SetComponentUp("scheduler", false)
	if err := processor.Drain(shutdownCtx); err != nil {
		logger.Warn("device token updates still pending", slog.Any("error", err))
	}
	if err := alertService.Shutdown(shutdownCtx); err != nil {
		logger.Warn("alert dispatch shutdown incomplete", slog.Any("error", err))
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Warn("tracing shutdown failed", slog.Any("error", err))
	}

	logger.Info("worker stopped")
	return nil
}

type pinger interface {
	queue.Store
	Ping(ctx context.Context) error
}

func initDatabase(ctx context.Context, logger *slog.Logger) (*sql.DB, error) {
	database, err := db.Open(ctx)
	if err != nil {
		return nil, err
	}
	if err := db.MigrateUp(ctx, database); err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	logger.Info("database ready")
	return database, nil
}

// initStreamStore returns the configured stream store. The Redis client is
// nil for the memory backend.
func initStreamStore(logger *slog.Logger, cfg config.QueueConfig) (pinger, *redis.Client) {
	if cfg.Backend == config.BackendMemory {
		logger.Warn("using in-memory stream store, queued notifications are lost on restart")
		return stream.NewMemoryStore(), nil
	}
	client := stream.NewRedisClient(cfg.Redis())
	logger.Info("redis stream store configured",
		slog.String("addr", cfg.RedisAddr),
		slog.Int("db", cfg.RedisDB),
		slog.Int("stream_maxlen", cfg.StreamMaxLen))
	return stream.NewRedisStore(client, cfg.StoreOptions()...), client
}

func initPushSender(ctx context.Context, logger *slog.Logger, cfg config.PushConfig) (push.Sender, error) {
	if cfg.Provider != config.ProviderFCM {
		logger.Info("push provider: log")
		return push.NewLogSender(logger), nil
	}
	sender, err := push.NewFCMSender(ctx, cfg.FCM, logger)
	if err != nil {
		return nil, fmt.Errorf("init fcm: %w", err)
	}
	logger.Info("push provider: fcm", slog.String("project_id", cfg.FCM.ProjectID))
	return sender, nil
}

// initAlertService builds the dead-letter alert channels. The NATS notifier
// is nil unless that channel connected; the returned func closes it.
func initAlertService(logger *slog.Logger, cfg config.AlertConfig) (alert.Service, *notifier.NATSNotifier, func()) {
	channels := []alert.Channel{
		alert.NewDiscordChannel(cfg.Discord),
		alert.NewSlackChannel(cfg.Slack),
	}
	closeFn := func() {}

	var natsNotifier *notifier.NATSNotifier
	if cfg.NATS.Enabled {
		n, err := notifier.NewNATSNotifier(cfg.NATS)
		if err != nil {
			logger.Warn("NATS alert channel disabled", slog.Any("error", err))
		} else {
			natsNotifier = n
			channels = append(channels, alert.NewNotifierChannel("nats", n, true))
			closeFn = func() { closeLogged(logger, "nats", n.Close) }
		}
	}

	for _, ch := range channels {
		logger.Info("alert channel configured",
			slog.String("channel", ch.Name()),
			slog.Bool("enabled", ch.IsEnabled()))
	}
	return alert.NewService(channels, cfg.MaxConcurrent, logger), natsNotifier, closeFn
}

func closeLogged(logger *slog.Logger, name string, closeFn func() error) {
	if err := closeFn(); err != nil {
		logger.Error("failed to close "+name, slog.Any("error", err))
	}
}
