package config

import (
	"fmt"
	"time"

	"ballot-app-go/pkg/logger"
	"github.com/caarlos0/env/v11"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	HTTPPort    string   `env:"HTTP_PORT" envDefault:"8080"`
	Env         string   `env:"ENV" envDefault:"development"`
	CORSOrigins []string `env:"CORS_ORIGINS" envDefault:"http://localhost:5173" envSeparator:","`
	DB          DBConfig
	Ballots     BallotsConfig
	Auth        AuthConfig
	Tracing     TracingConfig
	Log         logger.Options
}

type DBConfig struct {
	Driver          string        `env:"DB_DRIVER" envDefault:"postgres"`
	DSN             string        `env:"DB_DSN"`
	Host            string        `env:"DB_HOST" envDefault:"localhost"`
	Port            string        `env:"DB_PORT" envDefault:"5432"`
	User            string        `env:"DB_USER" envDefault:"postgres"`
	Password        string        `env:"DB_PASSWORD" envDefault:"postgres"`
	Name            string        `env:"DB_NAME" envDefault:"ballot_app"`
	SSLMode         string        `env:"DB_SSLMODE" envDefault:"disable"`
	TimeZone        string        `env:"DB_TIMEZONE" envDefault:"UTC"`
	SQLitePath      string        `env:"SQLITE_PATH"`
	MaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS" envDefault:"10"`
	MaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
	ConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"30m"`
}

type BallotsConfig struct {
	PageSize      int           `env:"BALLOTS_PAGE_SIZE" envDefault:"40"`
	TallyCacheTTL time.Duration `env:"TALLY_CACHE_TTL" envDefault:"5m"`
	TallyCacheLen int           `env:"TALLY_CACHE_SIZE" envDefault:"256"`
	CastTimeout   time.Duration `env:"CAST_TIMEOUT" envDefault:"10s"`
}

type AuthConfig struct {
	JWTSecret  string `env:"AUTH_JWT_SECRET"`
	JWTIssuer  string `env:"AUTH_JWT_ISSUER" envDefault:"ballot-app"`
	SkipAuth   bool   `env:"AUTH_SKIP" envDefault:"false"`
	MockUserID string `env:"AUTH_MOCK_USER_ID"`
}

type TracingConfig struct {
	Enabled  bool   `env:"TRACING_ENABLED" envDefault:"false"`
	Exporter string `env:"TRACING_EXPORTER" envDefault:"stdout"`
}

func Load(log logger.Logger) (Config, error) {
	if err := loadDotEnv(log); err != nil {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	return Parse()
}

// Parse reads the process environment only.
func Parse() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.DB.Driver {
	case DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DB.Driver)
	}
	if c.Ballots.PageSize <= 0 {
		return fmt.Errorf("BALLOTS_PAGE_SIZE must be positive")
	}
	if !c.Auth.SkipAuth && c.Auth.JWTSecret == "" {
		return fmt.Errorf("AUTH_JWT_SECRET is required unless AUTH_SKIP is set")
	}
	return nil
}

func (c DBConfig) GetDSN() string {
	if c.DSN != "" {
		return c.DSN
	}
	return "host=" + c.Host +
		" user=" + c.User +
		" password=" + c.Password +
		" dbname=" + c.Name +
		" port=" + c.Port +
		" sslmode=" + c.SSLMode +
		" TimeZone=" + c.TimeZone
}
