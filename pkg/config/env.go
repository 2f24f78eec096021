package config

const EnvPrefix = "FOODYZONE"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"
	DefaultSQLiteDSN = "file:foodyzone.db?cache=shared&_foreign_keys=on"

	KVBackendRedis = "redis"
	KVBackendDB    = "db"
)

const (
	EnvAppEnv   = "FOODYZONE_APP_ENV"
	EnvPort     = "FOODYZONE_APP_PORT"
	EnvLogLevel = "FOODYZONE_LOG_LEVEL"

	EnvDBDSN    = "FOODYZONE_DB_DSN"
	EnvDBDriver = "FOODYZONE_DB_DRIVER"
	EnvDBHost   = "FOODYZONE_DB_HOST"
	EnvDBUser   = "FOODYZONE_DB_USER"
	EnvDBName   = "FOODYZONE_DB_NAME"

	EnvRedisURL  = "FOODYZONE_REDIS_URL"
	EnvRedisAddr = "FOODYZONE_REDIS_ADDR"

	EnvKVBackend = "FOODYZONE_KV_BACKEND"
	EnvKVTTL     = "FOODYZONE_KV_TTL"

	EnvConfirmationDelay = "FOODYZONE_CHECKOUT_CONFIRMATION_DELAY"
	EnvSessionIdleTTL    = "FOODYZONE_SESSION_IDLE_TTL"

	EnvGCPProjectID      = "FOODYZONE_GCP_PROJECT_ID"
	EnvPubSubOrdersTopic = "FOODYZONE_PUBSUB_ORDERS_TOPIC"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
