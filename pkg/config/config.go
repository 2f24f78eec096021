package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	Storage      StorageConfig
	Session      SessionConfig
	Checkout     CheckoutConfig
	Housekeeping HousekeepingConfig
	FeatureFlags FeatureFlagsConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Metrics      MetricsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Storage.validate(cfg.Redis); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"FOODYZONE_APP_ENV" required:"true"`
	Port         string `envconfig:"FOODYZONE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"FOODYZONE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"FOODYZONE_LOG_WARN_STACK" default:"false"`
	// browser origins allowed to call the API
	CORSOrigins []string `envconfig:"FOODYZONE_CORS_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"FOODYZONE_DB_DSN"`
	Driver string `envconfig:"FOODYZONE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"FOODYZONE_DB_HOST"`
	LegacyPort     int    `envconfig:"FOODYZONE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"FOODYZONE_DB_USER"`
	LegacyPassword string `envconfig:"FOODYZONE_DB_PASSWORD"`
	LegacyName     string `envconfig:"FOODYZONE_DB_NAME"`
	LegacySSLMode  string `envconfig:"FOODYZONE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"FOODYZONE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"FOODYZONE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"FOODYZONE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"FOODYZONE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// IsSQLite reports whether the sqlite driver was selected.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(strings.TrimSpace(db.Driver), DBDriverSQLite)
}

type RedisConfig struct {
	URL          string        `envconfig:"FOODYZONE_REDIS_URL"`
	Address      string        `envconfig:"FOODYZONE_REDIS_ADDR"`
	Password     string        `envconfig:"FOODYZONE_REDIS_PASSWORD"`
	DB           int           `envconfig:"FOODYZONE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"FOODYZONE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"FOODYZONE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"FOODYZONE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"FOODYZONE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"FOODYZONE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Configured reports whether any redis endpoint was supplied.
func (r RedisConfig) Configured() bool {
	return r.URL != "" || r.Address != ""
}

// StorageConfig selects where session carts are persisted.
type StorageConfig struct {
	KVBackend string        `envconfig:"FOODYZONE_KV_BACKEND" default:"redis"`
	KVTTL     time.Duration `envconfig:"FOODYZONE_KV_TTL" default:"168h"`
}

func (s *StorageConfig) validate(redisCfg RedisConfig) error {
	s.KVBackend = strings.ToLower(strings.TrimSpace(s.KVBackend))
	switch s.KVBackend {
	case KVBackendRedis:
		if !redisCfg.Configured() {
			return fmt.Errorf("%s or %s is required when %s=%s", EnvRedisURL, EnvRedisAddr, EnvKVBackend, KVBackendRedis)
		}
	case KVBackendDB:
	default:
		return fmt.Errorf("%s must be one of %s, %s", EnvKVBackend, KVBackendRedis, KVBackendDB)
	}
	return nil
}

// SessionConfig bounds how long an idle shopper session stays in memory. Its
// cart survives eviction in the KV store.
type SessionConfig struct {
	IdleTTL       time.Duration `envconfig:"FOODYZONE_SESSION_IDLE_TTL" default:"30m"`
	SweepInterval time.Duration `envconfig:"FOODYZONE_SESSION_SWEEP_INTERVAL" default:"1m"`
}

type CheckoutConfig struct {
	ConfirmationDelay  time.Duration `envconfig:"FOODYZONE_CHECKOUT_CONFIRMATION_DELAY" default:"5s"`
	PersistTimeout     time.Duration `envconfig:"FOODYZONE_CHECKOUT_PERSIST_TIMEOUT" default:"3s"`
	OrderSubmitTimeout time.Duration `envconfig:"FOODYZONE_CHECKOUT_ORDER_SUBMIT_TIMEOUT" default:"10s"`
}

// HousekeepingConfig drives the housekeeper binary.
type HousekeepingConfig struct {
	Interval time.Duration `envconfig:"FOODYZONE_HOUSEKEEPING_INTERVAL" default:"1h"`
	LockTTL  time.Duration `envconfig:"FOODYZONE_HOUSEKEEPING_LOCK_TTL" default:"10m"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"FOODYZONE_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"FOODYZONE_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"FOODYZONE_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"FOODYZONE_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	OrdersTopic string `envconfig:"FOODYZONE_PUBSUB_ORDERS_TOPIC"`
}

// Enabled reports whether orders should be published to Pub/Sub.
func (p PubSubConfig) Enabled() bool {
	return strings.TrimSpace(p.OrdersTopic) != ""
}

type MetricsConfig struct {
	Enabled bool   `envconfig:"FOODYZONE_METRICS_ENABLED" default:"true"`
	Path    string `envconfig:"FOODYZONE_METRICS_PATH" default:"/metrics"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	if db.IsSQLite() {
		db.DSN = DefaultSQLiteDSN
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
