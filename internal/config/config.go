// Package config defines all configuration structures for the MedRemind
// services. No I/O or parsing logic lives here, only plain data types and
// validation.
package config

import (
	"fmt"
	"time"

	"go.uber.org/multierr"
)

// ─────────────────────────────────────────────────────────────────────────────
// Sub-configuration structs
// ─────────────────────────────────────────────────────────────────────────────

// HTTPConfig holds HTTP listener tunables.
type HTTPConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MaxBodyBytes    int64         `mapstructure:"max_body_bytes"`
}

// ServerConfig groups the listeners.
type ServerConfig struct {
	HTTP HTTPConfig `mapstructure:"http"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	MigrationsPath  string        `mapstructure:"migrations_path"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// DatabaseConfig selects and configures the prescription store.
type DatabaseConfig struct {
	// Driver is "postgres" or "memory".
	Driver   string         `mapstructure:"driver"`
	Postgres PostgresConfig `mapstructure:"postgres"`
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Mode         string        `mapstructure:"mode"` // "standalone" | "sentinel" | "cluster"
	Addr         string        `mapstructure:"addr"`
	Addrs        []string      `mapstructure:"addrs"`
	MasterName   string        `mapstructure:"master_name"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	KeyPrefix    string        `mapstructure:"key_prefix"`
}

// CacheConfig groups cache backends.
type CacheConfig struct {
	Enabled bool        `mapstructure:"enabled"`
	Redis   RedisConfig `mapstructure:"redis"`
}

// KafkaConfig holds Apache Kafka producer/consumer parameters.
type KafkaConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	Brokers       []string      `mapstructure:"brokers"`
	ConsumerGroup string        `mapstructure:"consumer_group"`
	ClientID      string        `mapstructure:"client_id"`
	BatchSize     int           `mapstructure:"batch_size"`
	BatchTimeout  time.Duration `mapstructure:"batch_timeout"`
	MaxRetries    int           `mapstructure:"max_retries"`
	RequiredAcks  int           `mapstructure:"required_acks"`
}

// MessagingConfig groups messaging backends.
type MessagingConfig struct {
	Kafka KafkaConfig `mapstructure:"kafka"`
}

// MinIOConfig holds MinIO / S3-compatible object-storage parameters.
type MinIOConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	Endpoint      string        `mapstructure:"endpoint"`
	AccessKey     string        `mapstructure:"access_key"`
	SecretKey     string        `mapstructure:"secret_key"`
	BucketName    string        `mapstructure:"bucket_name"`
	Region        string        `mapstructure:"region"`
	UseSSL        bool          `mapstructure:"use_ssl"`
	PresignExpiry time.Duration `mapstructure:"presign_expiry"`
}

// StorageConfig groups object storage backends.
type StorageConfig struct {
	MinIO MinIOConfig `mapstructure:"minio"`
}

// DrugVocabularyConfig points at the drug label lookup service.
type DrugVocabularyConfig struct {
	BaseURL  string        `mapstructure:"base_url"`
	APIKey   string        `mapstructure:"api_key"`
	Timeout  time.Duration `mapstructure:"timeout"`
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

// OCRConfig points at the text recognition service.
type OCRConfig struct {
	Endpoint      string        `mapstructure:"endpoint"`
	APIKey        string        `mapstructure:"api_key"`
	Timeout       time.Duration `mapstructure:"timeout"`
	MaxImageBytes int64         `mapstructure:"max_image_bytes"`
}

// ExtractorConfig tunes the parsing pipeline.
type ExtractorConfig struct {
	MaxTextLength    int    `mapstructure:"max_text_length"`
	BatchConcurrency int    `mapstructure:"batch_concurrency"`
	VocabularyFile   string `mapstructure:"vocabulary_file"`
}

// SchedulerConfig tunes the due-reminder scan.
type SchedulerConfig struct {
	CronSpec string        `mapstructure:"cron_spec"`
	Timezone string        `mapstructure:"timezone"`
	LeaseTTL time.Duration `mapstructure:"lease_ttl"`
}

// AuthConfig selects how bearer tokens are checked. Mode "static" accepts
// Tokens (token -> user id); mode "jwt" verifies signed tokens.
type AuthConfig struct {
	Enabled bool              `mapstructure:"enabled"`
	Mode    string            `mapstructure:"mode"` // "static" | "jwt"
	Tokens  map[string]string `mapstructure:"tokens"`
	JWT     JWTConfig         `mapstructure:"jwt"`
}

// JWTConfig holds the key source and claim checks for mode "jwt".
type JWTConfig struct {
	Secret              string        `mapstructure:"secret"`
	JWKSURL             string        `mapstructure:"jwks_url"`
	Issuer              string        `mapstructure:"issuer"`
	Audience            string        `mapstructure:"audience"`
	UserClaim           string        `mapstructure:"user_claim"`
	JWKSRefreshInterval time.Duration `mapstructure:"jwks_refresh_interval"`
}

// LogConfig holds structured-logging parameters.
type LogConfig struct {
	Level            string `mapstructure:"level"`  // "debug" | "info" | "warn" | "error"
	Format           string `mapstructure:"format"` // "json" | "console"
	Output           string `mapstructure:"output"`
	EnableCaller     bool   `mapstructure:"enable_caller"`
	EnableStacktrace bool   `mapstructure:"enable_stacktrace"`
}

// PrometheusConfig controls the metrics endpoint.
type PrometheusConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Namespace string `mapstructure:"namespace"`
	Path      string `mapstructure:"path"`
}

// MonitoringConfig groups observability settings.
type MonitoringConfig struct {
	Logging    LogConfig        `mapstructure:"logging"`
	Prometheus PrometheusConfig `mapstructure:"prometheus"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Root Config
// ─────────────────────────────────────────────────────────────────────────────

// Config is the root configuration structure shared by every binary.
type Config struct {
	Server         ServerConfig         `mapstructure:"server"`
	Database       DatabaseConfig       `mapstructure:"database"`
	Cache          CacheConfig          `mapstructure:"cache"`
	Messaging      MessagingConfig      `mapstructure:"messaging"`
	Storage        StorageConfig        `mapstructure:"storage"`
	DrugVocabulary DrugVocabularyConfig `mapstructure:"drug_vocabulary"`
	OCR            OCRConfig            `mapstructure:"ocr"`
	Extractor      ExtractorConfig      `mapstructure:"extractor"`
	Scheduler      SchedulerConfig      `mapstructure:"scheduler"`
	Auth           AuthConfig           `mapstructure:"auth"`
	Monitoring     MonitoringConfig     `mapstructure:"monitoring"`
}

// Location resolves Scheduler.Timezone, falling back to the process zone.
func (c *Config) Location() *time.Location {
	if c.Scheduler.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Scheduler.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// ─────────────────────────────────────────────────────────────────────────────
// Validation
// ─────────────────────────────────────────────────────────────────────────────

// Validate checks the fully-populated Config and reports every problem found
// in one combined error.
func (c *Config) Validate() error {
	var errs error
	add := func(format string, args ...interface{}) {
		errs = multierr.Append(errs, fmt.Errorf(format, args...))
	}

	if c.Server.HTTP.Port < 1 || c.Server.HTTP.Port > 65535 {
		add("server.http.port %d is out of range [1, 65535]", c.Server.HTTP.Port)
	}

	switch c.Database.Driver {
	case "memory":
	case "postgres":
		pg := c.Database.Postgres
		if pg.Host == "" {
			add("database.postgres.host is required")
		}
		if pg.Port < 1 || pg.Port > 65535 {
			add("database.postgres.port %d is out of range [1, 65535]", pg.Port)
		}
		if pg.User == "" {
			add("database.postgres.user is required")
		}
		if pg.DBName == "" {
			add("database.postgres.dbname is required")
		}
	default:
		add("database.driver %q is invalid; expected postgres|memory", c.Database.Driver)
	}

	if c.Cache.Enabled {
		r := c.Cache.Redis
		switch r.Mode {
		case "standalone":
			if r.Addr == "" {
				add("cache.redis.addr is required")
			}
		case "sentinel":
			if len(r.Addrs) == 0 || r.MasterName == "" {
				add("cache.redis sentinel mode needs addrs and master_name")
			}
		case "cluster":
			if len(r.Addrs) == 0 {
				add("cache.redis cluster mode needs addrs")
			}
		default:
			add("cache.redis.mode %q is invalid; expected standalone|sentinel|cluster", r.Mode)
		}
		if r.DB < 0 {
			add("cache.redis.db must be >= 0, got %d", r.DB)
		}
	}

	if c.Messaging.Kafka.Enabled {
		if len(c.Messaging.Kafka.Brokers) == 0 {
			add("messaging.kafka.brokers must contain at least one broker address")
		}
		if c.Messaging.Kafka.ConsumerGroup == "" {
			add("messaging.kafka.consumer_group is required")
		}
	}

	if c.Storage.MinIO.Enabled {
		m := c.Storage.MinIO
		if m.Endpoint == "" || m.AccessKey == "" || m.SecretKey == "" || m.BucketName == "" {
			add("storage.minio needs endpoint, access_key, secret_key and bucket_name")
		}
	}

	if c.DrugVocabulary.BaseURL == "" {
		add("drug_vocabulary.base_url is required")
	}
	if c.Extractor.MaxTextLength < 1 {
		add("extractor.max_text_length must be >= 1, got %d", c.Extractor.MaxTextLength)
	}
	if c.Scheduler.Timezone != "" {
		if _, err := time.LoadLocation(c.Scheduler.Timezone); err != nil {
			add("scheduler.timezone %q is invalid: %v", c.Scheduler.Timezone, err)
		}
	}
	if c.Auth.Enabled {
		switch c.Auth.Mode {
		case "", "static":
			if len(c.Auth.Tokens) == 0 {
				add("auth.tokens must not be empty when auth is enabled")
			}
		case "jwt":
			if (c.Auth.JWT.Secret == "") == (c.Auth.JWT.JWKSURL == "") {
				add("auth.jwt needs exactly one of secret or jwks_url")
			}
		default:
			add("auth.mode %q is invalid; expected static|jwt", c.Auth.Mode)
		}
	}

	switch c.Monitoring.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		add("monitoring.logging.level %q is invalid; expected debug|info|warn|error", c.Monitoring.Logging.Level)
	}
	switch c.Monitoring.Logging.Format {
	case "json", "console":
	default:
		add("monitoring.logging.format %q is invalid; expected json|console", c.Monitoring.Logging.Format)
	}

	return errs
}

//Personal.AI order the ending
