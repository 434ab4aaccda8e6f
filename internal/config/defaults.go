package config

import "time"

// ─────────────────────────────────────────────────────────────────────────────
// Default value constants
// ─────────────────────────────────────────────────────────────────────────────

const (
	DefaultHTTPHost            = "0.0.0.0"
	DefaultHTTPPort            = 8080
	DefaultHTTPReadTimeout     = 15 * time.Second
	DefaultHTTPWriteTimeout    = 30 * time.Second
	DefaultHTTPIdleTimeout     = 60 * time.Second
	DefaultHTTPShutdownTimeout = 15 * time.Second
	DefaultHTTPMaxBodyBytes    = 12 << 20

	DefaultDatabaseDriver = "postgres"
	DefaultDBHost         = "localhost"
	DefaultDBPort         = 5432
	DefaultDBName         = "medremind"
	DefaultDBSSLMode      = "disable"
	DefaultDBMaxOpenConns = 25
	DefaultDBMaxIdleConns = 5
	DefaultMigrationsPath = "migrations"

	DefaultRedisMode      = "standalone"
	DefaultRedisAddr      = "localhost:6379"
	DefaultRedisPoolSize  = 20
	DefaultRedisKeyPrefix = "medremind:"

	DefaultKafkaBroker        = "localhost:9092"
	DefaultKafkaConsumerGroup = "medremind-notifier"
	DefaultKafkaClientID      = "medremind"
	DefaultKafkaBatchSize     = 100
	DefaultKafkaBatchTimeout  = 10 * time.Millisecond

	DefaultMinIOEndpoint = "localhost:9000"
	DefaultMinIOBucket   = "medremind"
	DefaultMinIORegion   = "us-east-1"

	DefaultDrugVocabularyURL      = "https://api.fda.gov"
	DefaultDrugVocabularyTimeout  = 5 * time.Second
	DefaultDrugVocabularyCacheTTL = 24 * time.Hour

	DefaultOCRTimeout       = 30 * time.Second
	DefaultOCRMaxImageBytes = 10 << 20

	DefaultMaxTextLength    = 10000
	DefaultBatchConcurrency = 4

	DefaultCronSpec = "* * * * *"
	DefaultLeaseTTL = 90 * time.Second

	DefaultAuthMode            = "static"
	DefaultJWTUserClaim        = "sub"
	DefaultJWKSRefreshInterval = 15 * time.Minute

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
	DefaultLogOutput = "stdout"

	DefaultMetricsNamespace = "medremind"
	DefaultMetricsPath      = "/metrics"
)

// defaultValues are registered with viper so that every key is known to it;
// environment overrides only bind to keys viper has seen.
func defaultValues() map[string]interface{} {
	return map[string]interface{}{
		"server.http.host":             DefaultHTTPHost,
		"server.http.port":             DefaultHTTPPort,
		"server.http.read_timeout":     DefaultHTTPReadTimeout,
		"server.http.write_timeout":    DefaultHTTPWriteTimeout,
		"server.http.idle_timeout":     DefaultHTTPIdleTimeout,
		"server.http.shutdown_timeout": DefaultHTTPShutdownTimeout,
		"server.http.max_body_bytes":   DefaultHTTPMaxBodyBytes,

		"database.driver":                   DefaultDatabaseDriver,
		"database.postgres.host":            DefaultDBHost,
		"database.postgres.port":            DefaultDBPort,
		"database.postgres.user":            "",
		"database.postgres.password":        "",
		"database.postgres.dbname":          DefaultDBName,
		"database.postgres.sslmode":         DefaultDBSSLMode,
		"database.postgres.max_open_conns":  DefaultDBMaxOpenConns,
		"database.postgres.max_idle_conns":  DefaultDBMaxIdleConns,
		"database.postgres.migrations_path": DefaultMigrationsPath,
		"database.postgres.auto_migrate":    false,

		"cache.enabled":          false,
		"cache.redis.mode":       DefaultRedisMode,
		"cache.redis.addr":       DefaultRedisAddr,
		"cache.redis.password":   "",
		"cache.redis.db":         0,
		"cache.redis.pool_size":  DefaultRedisPoolSize,
		"cache.redis.key_prefix": DefaultRedisKeyPrefix,

		"messaging.kafka.enabled":        false,
		"messaging.kafka.brokers":        []string{DefaultKafkaBroker},
		"messaging.kafka.consumer_group": DefaultKafkaConsumerGroup,
		"messaging.kafka.client_id":      DefaultKafkaClientID,
		"messaging.kafka.batch_size":     DefaultKafkaBatchSize,
		"messaging.kafka.batch_timeout":  DefaultKafkaBatchTimeout,

		"storage.minio.enabled":     false,
		"storage.minio.endpoint":    DefaultMinIOEndpoint,
		"storage.minio.access_key":  "",
		"storage.minio.secret_key":  "",
		"storage.minio.bucket_name": DefaultMinIOBucket,
		"storage.minio.region":      DefaultMinIORegion,

		"drug_vocabulary.base_url":  DefaultDrugVocabularyURL,
		"drug_vocabulary.api_key":   "",
		"drug_vocabulary.timeout":   DefaultDrugVocabularyTimeout,
		"drug_vocabulary.cache_ttl": DefaultDrugVocabularyCacheTTL,

		"ocr.endpoint":        "",
		"ocr.api_key":         "",
		"ocr.timeout":         DefaultOCRTimeout,
		"ocr.max_image_bytes": DefaultOCRMaxImageBytes,

		"extractor.max_text_length":   DefaultMaxTextLength,
		"extractor.batch_concurrency": DefaultBatchConcurrency,
		"extractor.vocabulary_file":   "",

		"scheduler.cron_spec": DefaultCronSpec,
		"scheduler.timezone":  "",
		"scheduler.lease_ttl": DefaultLeaseTTL,

		"auth.enabled":                   false,
		"auth.mode":                      DefaultAuthMode,
		"auth.jwt.user_claim":            DefaultJWTUserClaim,
		"auth.jwt.jwks_refresh_interval": DefaultJWKSRefreshInterval,

		"monitoring.logging.level":             DefaultLogLevel,
		"monitoring.logging.format":            DefaultLogFormat,
		"monitoring.logging.output":            DefaultLogOutput,
		"monitoring.logging.enable_caller":     true,
		"monitoring.logging.enable_stacktrace": false,
		"monitoring.prometheus.enabled":        true,
		"monitoring.prometheus.namespace":      DefaultMetricsNamespace,
		"monitoring.prometheus.path":           DefaultMetricsPath,
	}
}

// ApplyDefaults fills every zero-value field in cfg with the default.
// Fields that have already been set are left unchanged so that explicit
// configuration always wins. Booleans are not touched.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	// ── Server ────────────────────────────────────────────────────────────────
	h := &cfg.Server.HTTP
	setString(&h.Host, DefaultHTTPHost)
	setInt(&h.Port, DefaultHTTPPort)
	setDuration(&h.ReadTimeout, DefaultHTTPReadTimeout)
	setDuration(&h.WriteTimeout, DefaultHTTPWriteTimeout)
	setDuration(&h.IdleTimeout, DefaultHTTPIdleTimeout)
	setDuration(&h.ShutdownTimeout, DefaultHTTPShutdownTimeout)
	if h.MaxBodyBytes == 0 {
		h.MaxBodyBytes = DefaultHTTPMaxBodyBytes
	}

	// ── Database ──────────────────────────────────────────────────────────────
	setString(&cfg.Database.Driver, DefaultDatabaseDriver)
	pg := &cfg.Database.Postgres
	setString(&pg.Host, DefaultDBHost)
	setInt(&pg.Port, DefaultDBPort)
	setString(&pg.DBName, DefaultDBName)
	setString(&pg.SSLMode, DefaultDBSSLMode)
	setInt(&pg.MaxOpenConns, DefaultDBMaxOpenConns)
	setInt(&pg.MaxIdleConns, DefaultDBMaxIdleConns)
	setString(&pg.MigrationsPath, DefaultMigrationsPath)

	// ── Cache ─────────────────────────────────────────────────────────────────
	r := &cfg.Cache.Redis
	setString(&r.Mode, DefaultRedisMode)
	setString(&r.Addr, DefaultRedisAddr)
	setInt(&r.PoolSize, DefaultRedisPoolSize)
	setString(&r.KeyPrefix, DefaultRedisKeyPrefix)

	// ── Messaging ─────────────────────────────────────────────────────────────
	k := &cfg.Messaging.Kafka
	if len(k.Brokers) == 0 {
		k.Brokers = []string{DefaultKafkaBroker}
	}
	setString(&k.ConsumerGroup, DefaultKafkaConsumerGroup)
	setString(&k.ClientID, DefaultKafkaClientID)
	setInt(&k.BatchSize, DefaultKafkaBatchSize)
	setDuration(&k.BatchTimeout, DefaultKafkaBatchTimeout)

	// ── Storage ───────────────────────────────────────────────────────────────
	m := &cfg.Storage.MinIO
	setString(&m.Endpoint, DefaultMinIOEndpoint)
	setString(&m.BucketName, DefaultMinIOBucket)
	setString(&m.Region, DefaultMinIORegion)

	// ── Collaborators ─────────────────────────────────────────────────────────
	setString(&cfg.DrugVocabulary.BaseURL, DefaultDrugVocabularyURL)
	setDuration(&cfg.DrugVocabulary.Timeout, DefaultDrugVocabularyTimeout)
	setDuration(&cfg.DrugVocabulary.CacheTTL, DefaultDrugVocabularyCacheTTL)
	setDuration(&cfg.OCR.Timeout, DefaultOCRTimeout)
	if cfg.OCR.MaxImageBytes == 0 {
		cfg.OCR.MaxImageBytes = DefaultOCRMaxImageBytes
	}

	// ── Pipeline ──────────────────────────────────────────────────────────────
	setInt(&cfg.Extractor.MaxTextLength, DefaultMaxTextLength)
	setInt(&cfg.Extractor.BatchConcurrency, DefaultBatchConcurrency)
	setString(&cfg.Scheduler.CronSpec, DefaultCronSpec)
	setDuration(&cfg.Scheduler.LeaseTTL, DefaultLeaseTTL)

	// ── Auth ──────────────────────────────────────────────────────────────────
	setString(&cfg.Auth.Mode, DefaultAuthMode)
	setString(&cfg.Auth.JWT.UserClaim, DefaultJWTUserClaim)
	setDuration(&cfg.Auth.JWT.JWKSRefreshInterval, DefaultJWKSRefreshInterval)

	// ── Monitoring ────────────────────────────────────────────────────────────
	setString(&cfg.Monitoring.Logging.Level, DefaultLogLevel)
	setString(&cfg.Monitoring.Logging.Format, DefaultLogFormat)
	setString(&cfg.Monitoring.Logging.Output, DefaultLogOutput)
	setString(&cfg.Monitoring.Prometheus.Namespace, DefaultMetricsNamespace)
	setString(&cfg.Monitoring.Prometheus.Path, DefaultMetricsPath)
}

func setString(dst *string, def string) {
	if *dst == "" {
		*dst = def
	}
}

func setInt(dst *int, def int) {
	if *dst == 0 {
		*dst = def
	}
}

func setDuration(dst *time.Duration, def time.Duration) {
	if *dst == 0 {
		*dst = def
	}
}

//Personal.AI order the ending
