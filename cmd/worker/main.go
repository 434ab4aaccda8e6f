// cmd/worker/main.go
// Background worker for MedRemind. It runs the due-reminder scan on a cron
// schedule, publishes what it finds to Kafka and consumes reminder.due
// events to deliver notifications. A small HTTP listener exposes /healthz,
// /readyz and /metrics for probes.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/multierr"

	"github.com/turtacn/MedRemind/internal/application/scheduling"
	"github.com/turtacn/MedRemind/internal/bootstrap"
	"github.com/turtacn/MedRemind/internal/config"
	"github.com/turtacn/MedRemind/internal/infrastructure/database/redis"
	"github.com/turtacn/MedRemind/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/MedRemind/internal/infrastructure/monitoring/logging"
	httpserver "github.com/turtacn/MedRemind/internal/interfaces/http"
	"github.com/turtacn/MedRemind/internal/interfaces/http/handlers"
	"github.com/turtacn/MedRemind/internal/interfaces/http/middleware"
)

var version = "dev"

const (
	defaultWorkerConfigPath = "configs/config.yaml"
	defaultHealthPort       = 8081
	shutdownTimeout         = 30 * time.Second
	source                  = "medremind-worker"
)

func main() {
	configPath := flag.String("config", defaultWorkerConfigPath, "path to configuration file")
	healthPort := flag.Int("health-port", defaultHealthPort, "port for health and metrics endpoints (0 disables)")
	once := flag.Bool("once", false, "run a single scan for the current minute and exit")
	noConsume := flag.Bool("no-consume", false, "do not consume reminder.due events")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := bootstrap.NewLogger(cfg, source)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	opts := workerOptions{healthPort: *healthPort, once: *once, consume: !*noConsume}
	if err := run(cfg, opts, logger); err != nil {
		logger.Error("worker exited with error", logging.Err(err))
		os.Exit(1)
	}
}

type workerOptions struct {
	healthPort int
	once       bool
	consume    bool
}

func run(cfg *config.Config, opts workerOptions, logger logging.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	infra, err := bootstrap.Open(ctx, cfg, source, logger)
	if err != nil {
		return fmt.Errorf("initialize infrastructure: %w", err)
	}
	defer func() {
		if err := infra.Close(); err != nil {
			logger.Warn("infrastructure close reported errors", logging.Err(err))
		}
	}()

	scanner, err := newScanner(cfg, infra, logger)
	if err != nil {
		return err
	}

	if opts.once {
		due := scanner.Tick(ctx, time.Now())
		logger.Info("single scan finished", logging.Int("due", len(due)))
		return nil
	}

	logger.Info("starting MedRemind worker",
		logging.String("version", version),
		logging.String("cron_spec", cfg.Scheduler.CronSpec),
		logging.String("timezone", cfg.Location().String()),
	)

	runner, err := scheduling.NewCronRunner(scanner, cfg.Scheduler.CronSpec, cfg.Location(), logger)
	if err != nil {
		return err
	}
	runner.Start()

	var consumer *kafka.Consumer
	if opts.consume && cfg.Messaging.Kafka.Enabled {
		consumer, err = startConsumer(ctx, cfg, infra, logger)
		if err != nil {
			_ = runner.Stop(context.Background())
			return err
		}
	}

	var probes *httpserver.Server
	if opts.healthPort > 0 {
		probes = startProbeServer(cfg, infra, opts.healthPort, logger)
	}

	<-ctx.Done()
	logger.Info("received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var errs error
	errs = multierr.Append(errs, runner.Stop(shutdownCtx))
	if consumer != nil {
		errs = multierr.Append(errs, consumer.Close())
	}
	if probes != nil {
		errs = multierr.Append(errs, probes.Shutdown(shutdownCtx))
	}
	logger.Info("MedRemind worker stopped")
	return errs
}

// newScanner wires the due-scanner with whatever optional collaborators are
// configured: a Kafka publisher and a Redis scan lease.
func newScanner(cfg *config.Config, infra *bootstrap.Infrastructure, logger logging.Logger) (*scheduling.DueScanner, error) {
	opts := []scheduling.ScannerOption{scheduling.WithScanMetrics(infra.Metrics)}
	if infra.Publisher != nil {
		opts = append(opts, scheduling.WithPublisher(infra.Publisher))
	}
	if infra.Redis != nil {
		opts = append(opts, scheduling.WithLease(redis.NewScanLease(infra.Redis, cfg.Cache.Redis.KeyPrefix+"lease:")))
	}
	return scheduling.NewDueScanner(infra.Repo, scheduling.ScannerConfig{
		Location: cfg.Location(),
		LeaseTTL: cfg.Scheduler.LeaseTTL,
	}, logger, opts...)
}

// startConsumer subscribes the notifier to reminder.due. Messages that keep
// failing go to the dead-letter topic through the shared producer.
func startConsumer(ctx context.Context, cfg *config.Config, infra *bootstrap.Infrastructure, logger logging.Logger) (*kafka.Consumer, error) {
	k := cfg.Messaging.Kafka
	var deadLetter kafka.MessagePublisher
	if infra.Producer != nil {
		deadLetter = infra.Producer
	}
	consumer, err := kafka.NewConsumer(kafka.ConsumerConfig{
		Brokers: k.Brokers,
		GroupID: k.ConsumerGroup,
		Topics:  []string{kafka.TopicReminderDue},
		RetryConfig: kafka.RetryConfig{
			MaxRetries:      k.MaxRetries,
			RetryBackoff:    time.Second,
			MaxRetryBackoff: 4 * time.Second,
			DeadLetterTopic: kafka.TopicDeadLetterReminder,
		},
	}, deadLetter, logger)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	consumer.Subscribe(kafka.TopicReminderDue, kafka.NewDueReminderHandler(kafka.NewLogNotifier(logger), logger))
	if err := consumer.Start(ctx); err != nil {
		_ = consumer.Close()
		return nil, err
	}
	return consumer, nil
}

func startProbeServer(cfg *config.Config, infra *bootstrap.Infrastructure, port int, logger logging.Logger) *httpserver.Server {
	checks := infra.Checks()
	checkers := make([]handlers.HealthChecker, 0, len(checks))
	for _, c := range checks {
		checkers = append(checkers, handlers.CheckerFunc{ComponentName: c.Name, Fn: c.Fn})
	}

	routerCfg := httpserver.RouterConfig{
		HealthHandler: handlers.NewHealthHandler(version, checkers...),
		LoggingConfig: middleware.DefaultLoggingConfig(),
		Logger:        logger,
	}
	if cfg.Monitoring.Prometheus.Enabled {
		routerCfg.MetricsHandler = infra.Collector.Handler()
		routerCfg.MetricsPath = cfg.Monitoring.Prometheus.Path
	}

	srv := httpserver.NewServer(httpserver.ServerConfig{Port: port}, httpserver.NewRouter(routerCfg), logger)
	go func() {
		if err := srv.Start(); err != nil {
			logger.Error("probe server failed", logging.Err(err))
		}
	}()
	return srv
}

func loadConfig(path string) (*config.Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "warning: %s not found, using environment and defaults\n", path)
		return config.LoadFromEnv()
	}
	return config.LoadFromFile(path)
}

//Personal.AI order the ending
