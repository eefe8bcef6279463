package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = ""

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "LOYALTY_DB_DSN"
	EnvDBHost = "LOYALTY_DB_HOST"
	EnvDBUser = "LOYALTY_DB_USER"
	EnvDBName = "LOYALTY_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Lock         LockConfig
	Worker       WorkerConfig
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
	Env          string `envconfig:"LOYALTY_APP_ENV" required:"true"`
	Port         string `envconfig:"LOYALTY_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"LOYALTY_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"LOYALTY_LOG_WARN_STACK" default:"false"`

	CORSOrigins []string `envconfig:"LOYALTY_CORS_ORIGINS"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"LOYALTY_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"LOYALTY_DB_DSN"`
	Driver string `envconfig:"LOYALTY_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"LOYALTY_DB_HOST"`
	LegacyPort     int    `envconfig:"LOYALTY_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"LOYALTY_DB_USER"`
	LegacyPassword string `envconfig:"LOYALTY_DB_PASSWORD"`
	LegacyName     string `envconfig:"LOYALTY_DB_NAME"`
	LegacySSLMode  string `envconfig:"LOYALTY_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"LOYALTY_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"LOYALTY_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"LOYALTY_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"LOYALTY_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"LOYALTY_REDIS_URL" required:"true"`
	Address      string        `envconfig:"LOYALTY_REDIS_ADDR"`
	Password     string        `envconfig:"LOYALTY_REDIS_PASSWORD"`
	DB           int           `envconfig:"LOYALTY_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"LOYALTY_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"LOYALTY_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"LOYALTY_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"LOYALTY_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"LOYALTY_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"LOYALTY_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"LOYALTY_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"LOYALTY_JWT_EXPIRATION_MINUTES" default:"60"`
}

// LockConfig bounds the coordination-store guards. The TTL is a safety net
// for crashed holders, not the release mechanism.
type LockConfig struct {
	TTL time.Duration `envconfig:"LOYALTY_LOCK_TTL" default:"5m"`
}

type WorkerConfig struct {
	// DistributionSchedule is a cron expression; the default fires at
	// midnight on the first day of every month.
	DistributionSchedule string `envconfig:"LOYALTY_WORKER_DISTRIBUTION_SCHEDULE" default:"0 0 1 * *"`
	UserBatchSize        int    `envconfig:"LOYALTY_WORKER_USER_BATCH_SIZE" default:"200"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"LOYALTY_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"LOYALTY_AUTO_MIGRATE" default:"false"`
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
