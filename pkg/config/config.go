package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App      AppConfig
	Service  ServiceConfig
	Redis    RedisConfig
	GCP      GCPConfig
	BigQuery BigQueryConfig
	PubSub   PubSubConfig
	Metabase MetabaseConfig
	Source   SourceConfig
	Cache    CacheConfig
	Engine   EngineConfig
	Cron     CronConfig
	Eventing EventingConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"SELLERPULSE_APP_ENV" required:"true"`
	Port         string `envconfig:"SELLERPULSE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"SELLERPULSE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SELLERPULSE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind            string        `envconfig:"SELLERPULSE_SERVICE_KIND" default:"api"`
	CORSOrigins     []string      `envconfig:"SELLERPULSE_CORS_ORIGINS" default:"http://localhost:3000"`
	ShutdownTimeout time.Duration `envconfig:"SELLERPULSE_SHUTDOWN_TIMEOUT" default:"15s"`
	ReadyTimeout    time.Duration `envconfig:"SELLERPULSE_READY_TIMEOUT" default:"3s"`
}

type RedisConfig struct {
	URL          string        `envconfig:"SELLERPULSE_REDIS_URL"`
	Address      string        `envconfig:"SELLERPULSE_REDIS_ADDR"`
	Password     string        `envconfig:"SELLERPULSE_REDIS_PASSWORD"`
	DB           int           `envconfig:"SELLERPULSE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SELLERPULSE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SELLERPULSE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SELLERPULSE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SELLERPULSE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SELLERPULSE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Configured reports whether enough settings exist to dial Redis.
func (r RedisConfig) Configured() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

type GCPConfig struct {
	ProjectID              string `envconfig:"SELLERPULSE_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"SELLERPULSE_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"SELLERPULSE_GOOGLE_APPLICATION_CREDENTIALS"`
}

type BigQueryConfig struct {
	Dataset             string `envconfig:"SELLERPULSE_BIGQUERY_DATASET" default:"seller_reports"`
	AsinMappingTable    string `envconfig:"SELLERPULSE_BIGQUERY_ASIN_MAPPING_TABLE" default:"asin_mapping"`
	BusinessReportTable string `envconfig:"SELLERPULSE_BIGQUERY_BUSINESS_TABLE" default:"business_report"`
	AdsReportTable      string `envconfig:"SELLERPULSE_BIGQUERY_ADS_TABLE" default:"ads_report"`
}

type PubSubConfig struct {
	RefreshSubscription string `envconfig:"SELLERPULSE_PUBSUB_REFRESH_SUBSCRIPTION"`
}

type MetabaseConfig struct {
	URL             string        `envconfig:"SELLERPULSE_METABASE_URL"`
	APIKey          string        `envconfig:"SELLERPULSE_METABASE_API_KEY"`
	Timeout         time.Duration `envconfig:"SELLERPULSE_METABASE_TIMEOUT" default:"60s"`
	AdsReportCard   int           `envconfig:"SELLERPULSE_METABASE_CARD_ADS_REPORT" default:"665"`
	AsinMappingCard int           `envconfig:"SELLERPULSE_METABASE_CARD_ASIN_MAPPING" default:"666"`
	BusinessCard    int           `envconfig:"SELLERPULSE_METABASE_CARD_BUSINESS_REPORT" default:"681"`
	SellersCard     int           `envconfig:"SELLERPULSE_METABASE_CARD_SELLERS_LIST" default:"0"`
}

type SourceConfig struct {
	Kind         string        `envconfig:"SELLERPULSE_SOURCE_KIND" default:"metabase"`
	FetchTimeout time.Duration `envconfig:"SELLERPULSE_SOURCE_FETCH_TIMEOUT" default:"90s"`
}

type CacheConfig struct {
	Backend         string        `envconfig:"SELLERPULSE_CACHE_BACKEND" default:"memory"`
	TTL             time.Duration `envconfig:"SELLERPULSE_CACHE_TTL" default:"300s"`
	CleanupInterval time.Duration `envconfig:"SELLERPULSE_CACHE_CLEANUP_INTERVAL" default:"10m"`
}

type EngineConfig struct {
	BusinessDuplicates string `envconfig:"SELLERPULSE_ENGINE_BUSINESS_DUPLICATES" default:"sum"`
	AdsDuplicates      string `envconfig:"SELLERPULSE_ENGINE_ADS_DUPLICATES" default:"sum"`
	WeekStart          string `envconfig:"SELLERPULSE_ENGINE_WEEK_START" default:"sunday"`
}

// WeekStartDay resolves the configured weekday name.
func (e EngineConfig) WeekStartDay() (time.Weekday, error) {
	name := strings.ToLower(strings.TrimSpace(e.WeekStart))
	if name == "" {
		return time.Sunday, nil
	}
	for day := time.Sunday; day <= time.Saturday; day++ {
		if strings.ToLower(day.String()) == name {
			return day, nil
		}
	}
	return time.Sunday, fmt.Errorf("invalid %s %q", EnvEngineWeekStart, e.WeekStart)
}

type CronConfig struct {
	Interval    time.Duration `envconfig:"SELLERPULSE_CRON_INTERVAL" default:"1h"`
	LockTTL     time.Duration `envconfig:"SELLERPULSE_CRON_LOCK_TTL" default:"2h"`
	WarmSellers []string      `envconfig:"SELLERPULSE_CRON_WARM_SELLERS"`
}

type EventingConfig struct {
	IdempotencyTTL time.Duration `envconfig:"SELLERPULSE_EVENTING_IDEMPOTENCY_TTL" default:"72h"`
	WarmOnRefresh  bool          `envconfig:"SELLERPULSE_EVENTING_WARM_ON_REFRESH" default:"false"`
}

func (c *Config) validate() error {
	if _, err := c.Engine.WeekStartDay(); err != nil {
		return err
	}
	switch strings.ToLower(strings.TrimSpace(c.Source.Kind)) {
	case SourceKindMetabase:
		if strings.TrimSpace(c.Metabase.URL) == "" {
			return fmt.Errorf("%s is required when %s=%s", EnvMetabaseURL, EnvSourceKind, SourceKindMetabase)
		}
	case SourceKindBigQuery:
		if strings.TrimSpace(c.GCP.ProjectID) == "" {
			return fmt.Errorf("%s is required when %s=%s", EnvGCPProjectID, EnvSourceKind, SourceKindBigQuery)
		}
	default:
		return fmt.Errorf("invalid %s %q", EnvSourceKind, c.Source.Kind)
	}
	if strings.EqualFold(c.Cache.Backend, CacheBackendRedis) && !c.Redis.Configured() {
		return fmt.Errorf("either %s or %s is required when %s=%s", EnvRedisURL, EnvRedisAddr, EnvCacheBackend, CacheBackendRedis)
	}
	return nil
}
