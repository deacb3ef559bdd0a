package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	HTTPAddr    string
	Timezone    string

	OTLPEndpoint string

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBPath            string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int
	DBConnMaxIdleTime int

	Admin      AdminConfig
	Activation ActivationConfig
	RateLimit  RateLimitConfig
	Bootstrap  BootstrapConfig
	Metrics    MetricsPushConfig
}

// AdminConfig carries the credentials accepted on admin routes. Hashes are
// argon2id encoded strings; AdminPassword is a development fallback that is
// hashed at start-up and never stored.
type AdminConfig struct {
	AdminPassword        string
	AdminPasswordHash    string
	OperatorPasswordHash string
}

type ActivationConfig struct {
	SubscriptionDays int
	MaxBatchSize     int
}

type RateLimitConfig struct {
	Enabled       bool
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	ActivateRate  float64
	ActivateBurst int
}

type BootstrapConfig struct {
	SeedCatalog     bool
	SeedHistoryDays int
}

type MetricsPushConfig struct {
	Exporter  string
	Endpoint  string
	AuthToken string
	Interval  time.Duration
}

var Module = fx.Module("config",
	fx.Provide(Load),
	fx.Provide(NewPaymentInfoHolder),
)

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		AppName:           getenv("APP_SERVICE", "scraprates"),
		AppVersion:        getenv("APP_VERSION", "0.1.0"),
		Environment:       getenv("ENVIRONMENT", "development"),
		HTTPAddr:          getenv("HTTP_ADDR", ":8080"),
		Timezone:          getenv("APP_TIMEZONE", "Asia/Karachi"),
		OTLPEndpoint:      getenv("OTLP_ENDPOINT", "localhost:4317"),
		DBType:            getenv("DATABASE_TYPE", "postgres"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "scraprates"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBPath:            getenv("DATABASE_PATH", "scraprates.db"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 5),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 20),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 300),
		DBConnMaxIdleTime: getenvInt("DATABASE_CONN_MAX_IDLE_TIME", 60),
		Admin: AdminConfig{
			AdminPassword:        strings.TrimSpace(os.Getenv("ADMIN_PASSWORD")),
			AdminPasswordHash:    strings.TrimSpace(os.Getenv("ADMIN_PASSWORD_HASH")),
			OperatorPasswordHash: strings.TrimSpace(os.Getenv("OPERATOR_PASSWORD_HASH")),
		},
		Activation: ActivationConfig{
			SubscriptionDays: getenvInt("SUBSCRIPTION_DAYS", 30),
			MaxBatchSize:     getenvInt("ACTIVATION_MAX_BATCH", 500),
		},
		RateLimit: RateLimitConfig{
			Enabled:       getenvBool("RATE_LIMIT_ENABLED", false),
			RedisAddr:     getenv("REDIS_ADDR", "localhost:6379"),
			RedisPassword: strings.TrimSpace(os.Getenv("REDIS_PASSWORD")),
			RedisDB:       getenvInt("REDIS_DB", 0),
			ActivateRate:  getenvFloat("RATE_LIMIT_ACTIVATE_RATE", 0.2),
			ActivateBurst: getenvInt("RATE_LIMIT_ACTIVATE_BURST", 5),
		},
		Bootstrap: BootstrapConfig{
			SeedCatalog:     getenvBool("BOOTSTRAP_SEED_CATALOG", true),
			SeedHistoryDays: getenvInt("BOOTSTRAP_SEED_HISTORY_DAYS", 7),
		},
		Metrics: MetricsPushConfig{
			Exporter:  strings.ToLower(strings.TrimSpace(os.Getenv("METRICS_PUSH_EXPORTER"))),
			Endpoint:  strings.TrimSpace(os.Getenv("METRICS_PUSH_ENDPOINT")),
			AuthToken: strings.TrimSpace(os.Getenv("METRICS_PUSH_AUTH_TOKEN")),
			Interval:  time.Duration(getenvInt("METRICS_PUSH_INTERVAL_SECONDS", 300)) * time.Second,
		},
	}
}

// Location resolves the configured timezone used to decide "today" for rate
// history. Unknown zones fall back to UTC.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(strings.TrimSpace(c.Timezone))
	if err != nil || loc == nil {
		return time.UTC
	}
	return loc
}

func (c Config) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(c.Environment), "production")
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

func getenvFloat(key string, def float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return def
	}
	return parsed
}
