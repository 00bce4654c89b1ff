package config

const EnvPrefix = "SELLERPULSE"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	SourceKindMetabase = "metabase"
	SourceKindBigQuery = "bigquery"

	CacheBackendMemory = "memory"
	CacheBackendRedis  = "redis"
	CacheBackendOff    = "off"
)

const (
	EnvAppEnv          = "SELLERPULSE_APP_ENV"
	EnvPort            = "SELLERPULSE_APP_PORT"
	EnvLogLevel        = "SELLERPULSE_LOG_LEVEL"
	EnvRedisURL        = "SELLERPULSE_REDIS_URL"
	EnvRedisAddr       = "SELLERPULSE_REDIS_ADDR"
	EnvGCPProjectID    = "SELLERPULSE_GCP_PROJECT_ID"
	EnvRefreshSub      = "SELLERPULSE_PUBSUB_REFRESH_SUBSCRIPTION"
	EnvMetabaseURL     = "SELLERPULSE_METABASE_URL"
	EnvMetabaseAPIKey  = "SELLERPULSE_METABASE_API_KEY"
	EnvMetabaseBizCard = "SELLERPULSE_METABASE_CARD_BUSINESS_REPORT"
	EnvSourceKind      = "SELLERPULSE_SOURCE_KIND"
	EnvCacheBackend    = "SELLERPULSE_CACHE_BACKEND"
	EnvCacheTTL        = "SELLERPULSE_CACHE_TTL"
	EnvEngineBizDupes  = "SELLERPULSE_ENGINE_BUSINESS_DUPLICATES"
	EnvEngineWeekStart = "SELLERPULSE_ENGINE_WEEK_START"
	EnvCronWarmSellers = "SELLERPULSE_CRON_WARM_SELLERS"
)
