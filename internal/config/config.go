package config

import (
	"errors"
	"fmt"
	"time"

	"the-work-standard/internal/shared/connection"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// APIConfig is read by cmd/api, cmd/worker and cmd/consumer.
type APIConfig struct {
	AppEnv       string        `envconfig:"APP_ENV" default:"development"`
	Port         string        `envconfig:"PORT" default:"3000"`
	ReadTimeout  time.Duration `envconfig:"READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"WRITE_TIMEOUT" default:"10s"`
	IdleTimeout  time.Duration `envconfig:"IDLE_TIMEOUT" default:"60s"`

	DBHost     string `envconfig:"DB_HOST" default:"localhost"`
	DBUser     string `envconfig:"DB_USER" default:"postgres"`
	DBPassword string `envconfig:"DB_PASSWORD"`
	DBName     string `envconfig:"DB_NAME" default:"work_standard"`
	DBPort     string `envconfig:"DB_PORT" default:"5432"`
	DBSSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`

	AutoMigrate bool `envconfig:"DB_AUTO_MIGRATE" default:"false"`

	RedisAddr   string `envconfig:"REDIS_ADDR" default:"127.0.0.1:6379"`
	KafkaBroker string `envconfig:"KAFKA_BROKER"`

	JWTSecret       string        `envconfig:"JWT_SECRET" required:"true"`
	AccessTokenTTL  time.Duration `envconfig:"ACCESS_TOKEN_TTL" default:"15m"`
	RefreshTokenTTL time.Duration `envconfig:"REFRESH_TOKEN_TTL" default:"168h"`

	RequireEmailConfirmation bool `envconfig:"AUTH_REQUIRE_EMAIL_CONFIRMATION" default:"false"`

	AttendanceTimezone string `envconfig:"ATTENDANCE_TIMEZONE" default:"Asia/Seoul"`
	LateAfter          string `envconfig:"ATTENDANCE_LATE_AFTER" default:"09:15"`
	WorkdayEnd         string `envconfig:"ATTENDANCE_WORKDAY_END" default:"18:00"`

	OutboxPollInterval  time.Duration `envconfig:"OUTBOX_POLL_INTERVAL" default:"3s"`
	CompanyCodeCacheTTL time.Duration `envconfig:"COMPANY_CODE_CACHE_TTL" default:"5m"`
}

func (c *APIConfig) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}

func (c *APIConfig) DB() connection.DBConfig {
	return connection.DBConfig{
		Host:     c.DBHost,
		User:     c.DBUser,
		Password: c.DBPassword,
		Name:     c.DBName,
		Port:     c.DBPort,
		SSLMode:  c.DBSSLMode,
	}
}

// LoadAPI loads .env when present, then the environment.
func LoadAPI() (*APIConfig, error) {
	_ = godotenv.Load()

	var cfg APIConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("jwt secret must be provided")
	}
	for _, clock := range []string{cfg.LateAfter, cfg.WorkdayEnd} {
		if _, err := ParseClock(clock); err != nil {
			return nil, err
		}
	}
	return &cfg, nil
}

// ClientConfig is read by cmd/workdesk. Variables are prefixed WORKDESK_.
type ClientConfig struct {
	APIURL        string        `envconfig:"API_URL" default:"http://localhost:3000/api/v1"`
	Timezone      string        `envconfig:"TIMEZONE" default:"Asia/Seoul"`
	SessionFile   string        `envconfig:"SESSION_FILE" default:".workdesk/session.yaml"`
	RetryMax      int           `envconfig:"RETRY_MAX" default:"3"`
	TickInterval  time.Duration `envconfig:"TICK_INTERVAL" default:"1s"`
	NotesDebounce time.Duration `envconfig:"NOTES_DEBOUNCE" default:"800ms"`
	LogLevel      string        `envconfig:"LOG_LEVEL" default:"warn"`
}

func LoadClient() (*ClientConfig, error) {
	_ = godotenv.Load()

	var cfg ClientConfig
	if err := envconfig.Process("workdesk", &cfg); err != nil {
		return nil, err
	}
	if _, err := time.LoadLocation(cfg.Timezone); err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", cfg.Timezone, err)
	}
	if cfg.TickInterval <= 0 {
		return nil, fmt.Errorf("invalid tick interval %s: must be positive", cfg.TickInterval)
	}
	return &cfg, nil
}

// ParseClock parses "HH:MM" into an offset from midnight.
func ParseClock(s string) (time.Duration, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("invalid clock value %q: %w", s, err)
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}
