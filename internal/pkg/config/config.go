package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	devSessionSecret  = "dev-only-session-secret-change-me-please"
	minSessionSecret  = 32
	defaultSessionTTL = 24 * time.Hour
)

type PostgresConfig struct {
	Host         string
	Port         string
	DB           string
	Username     string
	Password     string
	SSLMode      string
	MaxConns     int32
	MinConns     int32
	QueryTimeout time.Duration
}

type RepositoriesConfig struct {
	Postgres PostgresConfig
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type SessionConfig struct {
	Secret       string
	Store        string
	TTL          time.Duration
	CookieName   string
	CookieSecure bool
	ReapSchedule string
}

type LoginRateConfig struct {
	PerMinute int
	Burst     int
}

type ObservabilityConfig struct {
	ServiceName  string
	MetricsAddr  string
	OTLPEndpoint string
	PprofAddr    string
}

type Config struct {
	Env        string
	LogLevel   string
	ServerPort string
	// TrustedProxies lists the IPs or CIDRs allowed to set X-Forwarded-For.
	// Empty means the peer address is always the client IP.
	TrustedProxies []string
	Repositories   RepositoriesConfig
	Redis          RedisConfig
	Session        SessionConfig
	LoginRate      LoginRateConfig
	Observability  ObservabilityConfig
}

// IsDevelopment reports whether production-only safeguards are relaxed.
func (c *Config) IsDevelopment() bool {
	return c.Env == EnvDevelopment
}

func Load() (*Config, error) {
	env := strings.ToLower(getEnvOrDefault("APP_ENV", EnvDevelopment))
	isDev := env == EnvDevelopment

	maxConns, err := getEnvInt("DB_MAX_CONNS", 10)
	if err != nil {
		return nil, err
	}
	minConns, err := getEnvInt("DB_MIN_CONNS", 2)
	if err != nil {
		return nil, err
	}
	queryTimeout, err := getEnvDuration("DB_QUERY_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, err
	}
	redisDB, err := getEnvInt("REDIS_DB", 0)
	if err != nil {
		return nil, err
	}
	sessionTTL, err := getEnvDuration("SESSION_TTL", defaultSessionTTL)
	if err != nil {
		return nil, err
	}
	cookieSecure, err := getEnvBool("SESSION_COOKIE_SECURE", !isDev)
	if err != nil {
		return nil, err
	}
	ratePerMinute, err := getEnvInt("LOGIN_RATE_PER_MINUTE", 10)
	if err != nil {
		return nil, err
	}
	rateBurst, err := getEnvInt("LOGIN_RATE_BURST", 5)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Env:            env,
		LogLevel:       getEnvOrDefault("LOG_LEVEL", "info"),
		ServerPort:     getEnvOrDefault("SERVER_PORT", "3000"),
		TrustedProxies: getEnvList("TRUSTED_PROXIES"),
		Repositories: RepositoriesConfig{
			Postgres: PostgresConfig{
				Host:         getEnvOrDefault("POSTGRES_HOST", "localhost"),
				Port:         getEnvOrDefault("POSTGRES_PORT", "5432"),
				DB:           getEnvOrDefault("POSTGRES_DB", "dogwalks"),
				Username:     getEnvOrDefault("POSTGRES_USER", "postgres"),
				Password:     getEnvOrDefault("POSTGRES_PASSWORD", ""),
				SSLMode:      getEnvOrDefault("POSTGRES_SSLMODE", "disable"),
				MaxConns:     int32(maxConns),
				MinConns:     int32(minConns),
				QueryTimeout: queryTimeout,
			},
		},
		Redis: RedisConfig{
			Addr:     getEnvOrDefault("REDIS_ADDR", "localhost:6379"),
			Password: getEnvOrDefault("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		Session: SessionConfig{
			Secret:       getEnvOrDefault("SESSION_SECRET", ""),
			Store:        strings.ToLower(getEnvOrDefault("SESSION_STORE", "memory")),
			TTL:          sessionTTL,
			CookieName:   getEnvOrDefault("SESSION_COOKIE_NAME", "dogwalk_session"),
			CookieSecure: cookieSecure,
			ReapSchedule: getEnvOrDefault("SESSION_REAP_SCHEDULE", "@every 10m"),
		},
		LoginRate: LoginRateConfig{
			PerMinute: ratePerMinute,
			Burst:     rateBurst,
		},
		Observability: ObservabilityConfig{
			ServiceName:  getEnvOrDefault("SERVICE_NAME", "dogwalks"),
			MetricsAddr:  getEnvOrDefault("METRICS_ADDR", ":9092"),
			OTLPEndpoint: getEnvOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			PprofAddr:    getEnvOrDefault("PPROF_ADDR", "localhost:6060"),
		},
	}

	if cfg.Session.Secret == "" && isDev {
		cfg.Session.Secret = devSessionSecret
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Session.Store {
	case "memory", "redis", "postgres":
	default:
		return fmt.Errorf("SESSION_STORE must be one of memory, redis, postgres: got %q", c.Session.Store)
	}
	if c.Session.TTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}
	if c.Repositories.Postgres.MaxConns <= 0 {
		return fmt.Errorf("DB_MAX_CONNS must be positive")
	}
	if c.LoginRate.PerMinute <= 0 || c.LoginRate.Burst <= 0 {
		return fmt.Errorf("LOGIN_RATE_PER_MINUTE and LOGIN_RATE_BURST must be positive")
	}
	for _, p := range c.TrustedProxies {
		if net.ParseIP(p) == nil {
			if _, _, err := net.ParseCIDR(p); err != nil {
				return fmt.Errorf("TRUSTED_PROXIES entry %q is not an IP or CIDR", p)
			}
		}
	}

	if c.IsDevelopment() {
		return nil
	}

	if len(c.Session.Secret) < minSessionSecret {
		return fmt.Errorf("SESSION_SECRET must be at least %d bytes outside development", minSessionSecret)
	}
	if !c.Session.CookieSecure {
		return fmt.Errorf("SESSION_COOKIE_SECURE cannot be disabled outside development")
	}
	if c.Repositories.Postgres.Password == "" {
		return fmt.Errorf("POSTGRES_PASSWORD environment variable is required")
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvList(key string) []string {
	var out []string
	for _, v := range strings.Split(os.Getenv(key), ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid integer for %s: %w", key, err)
	}
	return i, nil
}

func getEnvBool(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid boolean for %s: %w", key, err)
	}
	return b, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid duration for %s: %w", key, err)
	}
	return d, nil
}
