package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "assetapp"

	AppEnvDev  = "dev"
	AppEnvProd = "production"

	EnvAppEnv       = "ASSETAPP_APP_ENV"
	EnvPort         = "ASSETAPP_APP_PORT"
	EnvDBDSN        = "ASSETAPP_DB_DSN"
	EnvDBHost       = "ASSETAPP_DB_HOST"
	EnvDBUser       = "ASSETAPP_DB_USER"
	EnvDBName       = "ASSETAPP_DB_NAME"
	EnvRedisURL     = "ASSETAPP_REDIS_URL"
	EnvGCPProjectID = "ASSETAPP_GCP_PROJECT_ID"
	EnvPubSubTopic  = "ASSETAPP_PUBSUB_ASSIGNMENTS_TOPIC"
	EnvPubSubSub    = "ASSETAPP_PUBSUB_ASSIGNMENTS_SUBSCRIPTION"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	FeatureFlags FeatureFlagsConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
	Assignment   AssignmentConfig
	Reconciler   ReconcilerConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"ASSETAPP_APP_ENV" required:"true"`
	Port         string `envconfig:"ASSETAPP_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"ASSETAPP_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"ASSETAPP_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd) || strings.EqualFold(a.Env, "prod")
}

type ServiceConfig struct {
	Kind string `envconfig:"ASSETAPP_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"ASSETAPP_DB_DSN"`
	Driver string `envconfig:"ASSETAPP_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"ASSETAPP_DB_HOST"`
	LegacyPort     int    `envconfig:"ASSETAPP_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"ASSETAPP_DB_USER"`
	LegacyPassword string `envconfig:"ASSETAPP_DB_PASSWORD"`
	LegacyName     string `envconfig:"ASSETAPP_DB_NAME"`
	LegacySSLMode  string `envconfig:"ASSETAPP_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"ASSETAPP_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"ASSETAPP_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"ASSETAPP_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"ASSETAPP_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"ASSETAPP_REDIS_URL" required:"true"`
	Address      string        `envconfig:"ASSETAPP_REDIS_ADDR"`
	Password     string        `envconfig:"ASSETAPP_REDIS_PASSWORD"`
	DB           int           `envconfig:"ASSETAPP_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"ASSETAPP_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"ASSETAPP_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"ASSETAPP_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"ASSETAPP_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"ASSETAPP_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"ASSETAPP_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"ASSETAPP_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"ASSETAPP_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"ASSETAPP_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	AssignmentsTopic        string `envconfig:"ASSETAPP_PUBSUB_ASSIGNMENTS_TOPIC" required:"true"`
	AssignmentsSubscription string `envconfig:"ASSETAPP_PUBSUB_ASSIGNMENTS_SUBSCRIPTION" required:"true"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"ASSETAPP_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"ASSETAPP_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"ASSETAPP_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type AssignmentConfig struct {
	// ConflictRetries bounds how often the engine replays a transaction that
	// lost an optimistic-concurrency race before surfacing CONFLICT.
	ConflictRetries int `envconfig:"ASSETAPP_ASSIGNMENT_CONFLICT_RETRIES" default:"3"`
}

type ReconcilerConfig struct {
	Interval time.Duration `envconfig:"ASSETAPP_RECONCILER_INTERVAL" default:"5m"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
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
