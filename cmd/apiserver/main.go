// cmd/apiserver/main.go
// API server entry point for MedRemind.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/turtacn/MedRemind/internal/application/reminder"
	"github.com/turtacn/MedRemind/internal/application/scheduling"
	"github.com/turtacn/MedRemind/internal/bootstrap"
	"github.com/turtacn/MedRemind/internal/config"
	"github.com/turtacn/MedRemind/internal/infrastructure/monitoring/logging"
	httpserver "github.com/turtacn/MedRemind/internal/interfaces/http"
	"github.com/turtacn/MedRemind/internal/interfaces/http/handlers"
	"github.com/turtacn/MedRemind/internal/interfaces/http/middleware"
)

// Build-time variables injected via ldflags.
var (
	version = "dev"
	commit  = "unknown"
)

const defaultConfigPath = "configs/config.yaml"

func main() {
	configPath := flag.String("config", defaultConfigPath, "path to configuration file")
	httpPort := flag.Int("http-port", 0, "HTTP server port (overrides config)")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if *httpPort > 0 {
		cfg.Server.HTTP.Port = *httpPort
	}

	logger, err := bootstrap.NewLogger(cfg, "medremind-apiserver")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Error("API server exited with error", logging.Err(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger logging.Logger) error {
	logger.Info("starting MedRemind API server",
		logging.String("version", version),
		logging.String("commit", commit),
		logging.Int("http_port", cfg.Server.HTTP.Port),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	infra, err := bootstrap.Open(ctx, cfg, "medremind-apiserver", logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := infra.Close(); err != nil {
			logger.Warn("infrastructure close reported errors", logging.Err(err))
		}
	}()

	handler, err := buildHandler(cfg, infra, logger)
	if err != nil {
		return err
	}

	srv := httpserver.NewServer(httpserver.ServerConfig{
		Host:            cfg.Server.HTTP.Host,
		Port:            cfg.Server.HTTP.Port,
		ReadTimeout:     cfg.Server.HTTP.ReadTimeout,
		WriteTimeout:    cfg.Server.HTTP.WriteTimeout,
		IdleTimeout:     cfg.Server.HTTP.IdleTimeout,
		ShutdownTimeout: cfg.Server.HTTP.ShutdownTimeout,
	}, handler, logger)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		logger.Info("received shutdown signal")
	}
	return srv.Shutdown(context.Background())
}

// buildHandler assembles the reminder service and the HTTP route tree.
func buildHandler(cfg *config.Config, infra *bootstrap.Infrastructure, logger logging.Logger) (http.Handler, error) {
	validator, err := infra.NewValidator()
	if err != nil {
		return nil, err
	}
	parser, err := infra.NewParser(validator)
	if err != nil {
		return nil, err
	}

	generator := scheduling.NewGenerator()
	creator, err := scheduling.NewScheduleCreator(infra.Repo, generator, logger)
	if err != nil {
		return nil, err
	}

	deps := reminder.Deps{
		Repo:      infra.Repo,
		Parser:    parser,
		Validator: validator,
		Creator:   creator,
		Generator: generator,
		Metrics:   infra.Metrics,
	}
	// Optional collaborators stay nil interfaces when disabled.
	if infra.OCR != nil {
		deps.OCR = infra.OCR
	}
	if infra.Images != nil {
		deps.Images = infra.Images
	}
	if infra.Publisher != nil {
		deps.Publisher = infra.Publisher
	}
	svc, err := reminder.NewService(deps, reminder.Config{
		MaxImageBytes: cfg.OCR.MaxImageBytes,
		PresignExpiry: cfg.Storage.MinIO.PresignExpiry,
	}, logger)
	if err != nil {
		return nil, err
	}

	tokens, err := tokenValidator(cfg.Auth, logger)
	if err != nil {
		return nil, err
	}

	routerCfg := httpserver.RouterConfig{
		ReminderHandler:     handlers.NewReminderHandler(svc, cfg.Server.HTTP.MaxBodyBytes, logger),
		PrescriptionHandler: handlers.NewPrescriptionHandler(svc, cfg.Server.HTTP.MaxBodyBytes, logger),
		ExtractionHandler:   handlers.NewExtractionHandler(parser, svc, logger),
		HealthHandler:       handlers.NewHealthHandler(version, healthCheckers(infra)...),
		AuthMiddleware:      middleware.NewAuthMiddleware(tokens, middleware.AuthConfig{}, logger),
		LoggingConfig:       middleware.DefaultLoggingConfig(),
		HTTPMetrics:         infra.Metrics,
		Logger:              logger,
	}
	if cfg.Monitoring.Prometheus.Enabled {
		routerCfg.MetricsHandler = infra.Collector.Handler()
		routerCfg.MetricsPath = cfg.Monitoring.Prometheus.Path
	}
	return httpserver.NewRouter(routerCfg), nil
}

// loadConfig reads path when it exists, otherwise falls back to environment
// variables and defaults.
func loadConfig(path string) (*config.Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "warning: %s not found, using environment and defaults\n", path)
		return config.LoadFromEnv()
	}
	return config.LoadFromFile(path)
}

//Personal.AI order the ending
