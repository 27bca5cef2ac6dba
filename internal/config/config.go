package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App      AppConfig
	Store    StoreConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Logger   LoggerConfig
	SMTP     SMTPConfig
	Callback CallbackConfig
	Runtime  RuntimeConfig
	Expiry   ExpiryConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// StoreConfig selects and tunes the ticket store backend.
type StoreConfig struct {
	Driver      string // "file" or "postgres"
	FilePath    string
	StatusCache bool
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// SMTPConfig holds outgoing mail settings. An empty Password switches the
// mailer into demo mode: messages are logged instead of delivered, ticket
// semantics are unchanged.
type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
	TimeoutS int
}

// CallbackConfig controls how approve/reject links are built and verified.
type CallbackConfig struct {
	BaseURL         string
	TokenSecret     string
	TokenTTLMinutes int
}

// RuntimeConfig addresses the agent runtime that suspended invocations are
// resumed against.
type RuntimeConfig struct {
	URL              string
	AppName          string
	DefaultUserID    string
	DefaultSessionID string
	CapabilityName   string
	TimeoutSeconds   int
}

// ExpiryConfig controls the optional pending-ticket TTL sweep.
type ExpiryConfig struct {
	TicketTTLMinutes int
	SweepSchedule    string
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "approval-service"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8085"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Store: StoreConfig{
			Driver:      getEnv("STORE_DRIVER", "file"),
			FilePath:    getEnv("STORE_FILE_PATH", "data/tickets.json"),
			StatusCache: getEnvAsBool("REDIS_STATUS_CACHE", false),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		SMTP: SMTPConfig{
			Host:     getEnv("SMTP_HOST", "smtp.gmail.com"),
			Port:     getEnvAsInt("SMTP_PORT", 587),
			User:     getEnv("SMTP_USER", ""),
			Password: os.Getenv("SMTP_PASSWORD"),
			From:     getEnv("SMTP_FROM", "noreply@insurance.example.com"),
			TimeoutS: getEnvAsInt("SMTP_TIMEOUT_SECONDS", 15),
		},
		Callback: CallbackConfig{
			BaseURL:         getEnv("CALLBACK_BASE_URL", "http://localhost:8085"),
			TokenSecret:     os.Getenv("CALLBACK_TOKEN_SECRET"),
			TokenTTLMinutes: getEnvAsInt("CALLBACK_TOKEN_TTL_MINUTES", 0),
		},
		Runtime: RuntimeConfig{
			URL:              getEnv("RUNTIME_URL", "http://localhost:8000"),
			AppName:          getEnv("RUNTIME_APP_NAME", "insurance_notification"),
			DefaultUserID:    getEnv("RUNTIME_DEFAULT_USER_ID", "customer_001"),
			DefaultSessionID: getEnv("RUNTIME_DEFAULT_SESSION_ID", "default_session"),
			CapabilityName:   getEnv("RUNTIME_CAPABILITY_NAME", "request_claim_approval"),
			TimeoutSeconds:   getEnvAsInt("RUNTIME_TIMEOUT_SECONDS", 30),
		},
		Expiry: ExpiryConfig{
			TicketTTLMinutes: getEnvAsInt("TICKET_TTL_MINUTES", 0),
			SweepSchedule:    getEnv("EXPIRY_SWEEP_SCHEDULE", "@every 1m"),
		},
	}

	if cfg.Store.Driver != "file" && cfg.Store.Driver != "postgres" {
		return nil, fmt.Errorf("invalid STORE_DRIVER %q", cfg.Store.Driver)
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// DemoMode reports whether outgoing mail is logged instead of delivered.
func (s SMTPConfig) DemoMode() bool {
	return s.Password == ""
}

// Timeout returns the SMTP dial/send deadline.
func (s SMTPConfig) Timeout() time.Duration {
	if s.TimeoutS <= 0 {
		return 15 * time.Second
	}
	return time.Duration(s.TimeoutS) * time.Second
}

// Timeout returns the resumption push deadline.
func (r RuntimeConfig) Timeout() time.Duration {
	if r.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(r.TimeoutSeconds) * time.Second
}

// TicketTTL returns the pending ticket lifetime; zero disables expiry.
func (e ExpiryConfig) TicketTTL() time.Duration {
	if e.TicketTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(e.TicketTTLMinutes) * time.Minute
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
