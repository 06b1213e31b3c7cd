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
	JWT          JWTConfig
	Realtime     RealtimeConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
	Eventing     EventingConfig
	FeatureFlags FeatureFlagsConfig
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
	Env          string `envconfig:"HIVELY_APP_ENV" required:"true"`
	Port         string `envconfig:"HIVELY_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"HIVELY_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"HIVELY_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"HIVELY_DB_DSN"`
	Driver string `envconfig:"HIVELY_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"HIVELY_DB_HOST"`
	LegacyPort     int    `envconfig:"HIVELY_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"HIVELY_DB_USER"`
	LegacyPassword string `envconfig:"HIVELY_DB_PASSWORD"`
	LegacyName     string `envconfig:"HIVELY_DB_NAME"`
	LegacySSLMode  string `envconfig:"HIVELY_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"HIVELY_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"HIVELY_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"HIVELY_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"HIVELY_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"HIVELY_REDIS_URL" required:"true"`
	Address      string        `envconfig:"HIVELY_REDIS_ADDR"`
	Password     string        `envconfig:"HIVELY_REDIS_PASSWORD"`
	DB           int           `envconfig:"HIVELY_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"HIVELY_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"HIVELY_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"HIVELY_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"HIVELY_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"HIVELY_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"HIVELY_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"HIVELY_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"HIVELY_JWT_EXPIRATION_MINUTES" default:"60"`
}

type RealtimeConfig struct {
	ChannelPrefix string `envconfig:"HIVELY_REALTIME_CHANNEL_PREFIX" default:"hv:rt"`
	QueueDepth    int    `envconfig:"HIVELY_REALTIME_QUEUE_DEPTH" default:"256"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"HIVELY_GCP_PROJECT_ID"`
	ApplicationCredentials string `envconfig:"HIVELY_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	DomainTopic        string `envconfig:"HIVELY_PUBSUB_DOMAIN_TOPIC" default:"hv-domain-events"`
	DomainSubscription string `envconfig:"HIVELY_PUBSUB_DOMAIN_SUBSCRIPTION"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"HIVELY_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"HIVELY_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"HIVELY_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type EventingConfig struct {
	IdempotencyTTL time.Duration `envconfig:"HIVELY_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"HIVELY_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"HIVELY_AUTO_MIGRATE" default:"false"`
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
