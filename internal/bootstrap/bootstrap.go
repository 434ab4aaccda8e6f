// internal/bootstrap/bootstrap.go
// Shared start-up wiring for the apiserver and worker binaries: logger,
// prescription store, cache, drug vocabulary, object storage, OCR, Kafka
// producer and metrics, all selected by config.
//
// Dependencies:
//   - internal/config
//   - internal/infrastructure/*
//   - internal/intelligence/med_extractor
package bootstrap

import (
	"context"
	"fmt"

	"go.uber.org/multierr"

	"github.com/turtacn/MedRemind/internal/config"
	"github.com/turtacn/MedRemind/internal/domain/prescription"
	"github.com/turtacn/MedRemind/internal/infrastructure/database/memory"
	"github.com/turtacn/MedRemind/internal/infrastructure/database/postgres"
	"github.com/turtacn/MedRemind/internal/infrastructure/database/postgres/repositories"
	"github.com/turtacn/MedRemind/internal/infrastructure/database/redis"
	"github.com/turtacn/MedRemind/internal/infrastructure/drugvocab/openfda"
	"github.com/turtacn/MedRemind/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/MedRemind/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MedRemind/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/MedRemind/internal/infrastructure/ocr"
	"github.com/turtacn/MedRemind/internal/infrastructure/storage/minio"
	"github.com/turtacn/MedRemind/internal/intelligence/med_extractor"
)

// NewLogger builds the process logger from monitoring.logging.
func NewLogger(cfg *config.Config, service string) (logging.Logger, error) {
	lc := cfg.Monitoring.Logging
	out := lc.Output
	if out == "" {
		out = "stdout"
	}
	return logging.NewLogger(logging.LogConfig{
		Level:            lc.Level,
		Format:           lc.Format,
		OutputPaths:      []string{out},
		ErrorOutputPaths: []string{"stderr"},
		Service:          service,
	})
}

// Infrastructure holds every external client a binary may need. Optional
// components are nil when disabled in config.
type Infrastructure struct {
	Config *config.Config
	Logger logging.Logger

	Repo     prescription.Repository
	Postgres *postgres.Connection

	Redis *redis.Client
	Cache redis.Cache

	Collector prometheus.MetricsCollector
	Metrics   *prometheus.AppMetrics

	Producer  *kafka.Producer
	Publisher *kafka.ReminderPublisher

	MinIO  *minio.MinIOClient
	Images minio.ImageStore
	OCR    ocr.TextExtractor

	Vocabulary med_extractor.DrugVocabulary
}

// Open connects everything enabled in cfg. source tags published events.
// On error, whatever was already opened is closed.
func Open(ctx context.Context, cfg *config.Config, source string, logger logging.Logger) (_ *Infrastructure, err error) {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	infra := &Infrastructure{Config: cfg, Logger: logger}
	defer func() {
		if err != nil {
			_ = infra.Close()
		}
	}()

	if err = infra.openMetrics(); err != nil {
		return nil, fmt.Errorf("metrics: %w", err)
	}
	if err = infra.openStore(ctx); err != nil {
		return nil, fmt.Errorf("prescription store: %w", err)
	}
	if err = infra.openCache(); err != nil {
		return nil, fmt.Errorf("redis: %w", err)
	}
	if err = infra.openVocabulary(); err != nil {
		return nil, fmt.Errorf("drug vocabulary: %w", err)
	}
	if err = infra.openStorage(); err != nil {
		return nil, fmt.Errorf("minio: %w", err)
	}
	if err = infra.openOCR(); err != nil {
		return nil, fmt.Errorf("ocr: %w", err)
	}
	if err = infra.openMessaging(source); err != nil {
		return nil, fmt.Errorf("kafka: %w", err)
	}

	logger.Info("infrastructure initialized",
		logging.String("database", cfg.Database.Driver),
		logging.Bool("cache", infra.Redis != nil),
		logging.Bool("kafka", infra.Producer != nil),
		logging.Bool("minio", infra.Images != nil),
		logging.Bool("ocr", infra.OCR != nil))
	return infra, nil
}

func (i *Infrastructure) openMetrics() error {
	p := i.Config.Monitoring.Prometheus
	collector, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{
		Namespace:            p.Namespace,
		EnableProcessMetrics: p.Enabled,
		EnableGoMetrics:      p.Enabled,
	}, i.Logger)
	if err != nil {
		return err
	}
	i.Collector = collector
	i.Metrics = prometheus.NewAppMetrics(collector)
	return nil
}

func (i *Infrastructure) openStore(ctx context.Context) error {
	db := i.Config.Database
	if db.Driver == "memory" {
		i.Logger.Warn("using in-memory prescription store; data is lost on restart")
		i.Repo = memory.NewPrescriptionRepo()
		return nil
	}

	pg := db.Postgres
	conn, err := postgres.NewConnection(postgres.PostgresConfig{
		Host:            pg.Host,
		Port:            pg.Port,
		Database:        pg.DBName,
		Username:        pg.User,
		Password:        pg.Password,
		SSLMode:         pg.SSLMode,
		MaxOpenConns:    pg.MaxOpenConns,
		MaxIdleConns:    pg.MaxIdleConns,
		ConnMaxLifetime: pg.ConnMaxLifetime,
		ConnMaxIdleTime: pg.ConnMaxIdleTime,
	}, i.Logger)
	if err != nil {
		return err
	}
	i.Postgres = conn
	if err := conn.HealthCheck(ctx); err != nil {
		return err
	}
	if pg.AutoMigrate {
		if err := conn.RunMigrations(pg.MigrationsPath); err != nil {
			return err
		}
	}
	i.Repo = repositories.NewPostgresPrescriptionRepo(conn, i.Logger)
	return nil
}

func (i *Infrastructure) openCache() error {
	c := i.Config.Cache
	if !c.Enabled {
		return nil
	}
	rc := &redis.RedisConfig{
		Mode:         c.Redis.Mode,
		Addr:         c.Redis.Addr,
		MasterName:   c.Redis.MasterName,
		Password:     c.Redis.Password,
		DB:           c.Redis.DB,
		PoolSize:     c.Redis.PoolSize,
		MinIdleConns: c.Redis.MinIdleConns,
		DialTimeout:  c.Redis.DialTimeout,
		ReadTimeout:  c.Redis.ReadTimeout,
		WriteTimeout: c.Redis.WriteTimeout,
	}
	switch c.Redis.Mode {
	case "sentinel":
		rc.SentinelAddrs = c.Redis.Addrs
	case "cluster":
		rc.ClusterAddrs = c.Redis.Addrs
	}
	client, err := redis.NewClient(rc, i.Logger)
	if err != nil {
		return err
	}
	i.Redis = client
	i.Cache = redis.NewRedisCache(client, i.Logger, redis.WithPrefix(c.Redis.KeyPrefix))
	return nil
}

func (i *Infrastructure) openVocabulary() error {
	dv := i.Config.DrugVocabulary
	client, err := openfda.NewClient(openfda.Config{
		BaseURL: dv.BaseURL,
		APIKey:  dv.APIKey,
		Timeout: dv.Timeout,
	}, i.Logger)
	if err != nil {
		return err
	}
	i.Vocabulary = client
	if i.Cache != nil {
		i.Vocabulary = openfda.NewCachedVocabulary(client, i.Cache, dv.CacheTTL, i.Logger)
	}
	return nil
}

func (i *Infrastructure) openStorage() error {
	m := i.Config.Storage.MinIO
	if !m.Enabled {
		return nil
	}
	client, err := minio.NewMinIOClient(&minio.MinIOConfig{
		Endpoint:      m.Endpoint,
		AccessKey:     m.AccessKey,
		SecretKey:     m.SecretKey,
		BucketName:    m.BucketName,
		Region:        m.Region,
		UseSSL:        m.UseSSL,
		PresignExpiry: m.PresignExpiry,
	}, i.Logger)
	if err != nil {
		return err
	}
	i.MinIO = client
	i.Images = minio.NewImageStore(client, i.Logger)
	return nil
}

func (i *Infrastructure) openOCR() error {
	o := i.Config.OCR
	if o.Endpoint == "" {
		return nil
	}
	client, err := ocr.NewClient(ocr.Config{
		Endpoint:      o.Endpoint,
		APIKey:        o.APIKey,
		Timeout:       o.Timeout,
		MaxImageBytes: o.MaxImageBytes,
	}, i.Logger)
	if err != nil {
		return err
	}
	i.OCR = client
	return nil
}

func (i *Infrastructure) openMessaging(source string) error {
	k := i.Config.Messaging.Kafka
	if !k.Enabled {
		return nil
	}
	producer, err := kafka.NewProducer(kafka.ProducerConfig{
		Brokers:      k.Brokers,
		ClientID:     k.ClientID,
		RequiredAcks: k.RequiredAcks,
		MaxRetries:   k.MaxRetries,
		BatchSize:    k.BatchSize,
		BatchTimeout: k.BatchTimeout,
	}, i.Logger)
	if err != nil {
		return err
	}
	i.Producer = producer
	i.Publisher = kafka.NewReminderPublisher(producer, source, i.Logger)
	return nil
}

// NewValidator builds the drug validator over the configured vocabulary.
func (i *Infrastructure) NewValidator() (med_extractor.DrugValidator, error) {
	return med_extractor.NewDrugValidator(i.Vocabulary, med_extractor.ValidatorConfig{
		Timeout: i.Config.DrugVocabulary.Timeout,
	}, i.Metrics, i.Logger)
}

// NewParser builds the extraction pipeline, loading extractor.vocabulary_file
// when set.
func (i *Infrastructure) NewParser(validator med_extractor.DrugValidator) (med_extractor.Parser, error) {
	vocab := med_extractor.MustDefaultVocabulary()
	if path := i.Config.Extractor.VocabularyFile; path != "" {
		v, err := med_extractor.LoadVocabularyFile(path)
		if err != nil {
			return nil, err
		}
		vocab = v
	}
	return med_extractor.NewParser(
		med_extractor.NewEntityRecognizer(vocab),
		med_extractor.NewMedicationStructurer(vocab, med_extractor.NewFallbackMatcher(vocab), validator, i.Logger),
		med_extractor.ParserConfig{
			MaxTextLength:    i.Config.Extractor.MaxTextLength,
			BatchConcurrency: i.Config.Extractor.BatchConcurrency,
		},
		i.Metrics,
		i.Logger,
	)
}

// Check is a named readiness probe against one dependency.
type Check struct {
	Name string
	Fn   func(ctx context.Context) error
}

// Checks returns a probe for each opened backing service.
func (i *Infrastructure) Checks() []Check {
	var checks []Check
	if i.Postgres != nil {
		checks = append(checks, Check{Name: "postgres", Fn: i.Postgres.HealthCheck})
	}
	if i.Redis != nil {
		checks = append(checks, Check{Name: "redis", Fn: i.Redis.Ping})
	}
	if i.MinIO != nil {
		checks = append(checks, Check{Name: "minio", Fn: i.MinIO.EnsureBucket})
	}
	return checks
}

// Close releases every opened client, in reverse dependency order.
func (i *Infrastructure) Close() error {
	var errs error
	if i.Producer != nil {
		errs = multierr.Append(errs, i.Producer.Close())
	}
	if i.Redis != nil {
		errs = multierr.Append(errs, i.Redis.Close())
	}
	if i.Postgres != nil {
		errs = multierr.Append(errs, i.Postgres.Close())
	}
	return errs
}

//Personal.AI order the ending
