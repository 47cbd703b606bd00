package config

import (
	"context"
	"log/slog"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

type Config struct {
	Env         string
	Port        int
	ServiceName string

	StoreDriver    string
	DBURL          string
	DBMaxConns     int
	MigrateOnStart bool

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration

	BcryptCost int

	OTelEnabled     bool
	OTelEndpoint    string
	OTelSampleRatio float64

	CORSAllowedOrigins []string
	MaxBodyBytes       int64
	AuthRateLimit      int
	AuthRateWindow     time.Duration

	AdminEmail    string
	AdminPassword string
	AdminName     string
}

func Load() Config {
	// a missing .env is fine, the process environment still applies
	_ = godotenv.Load()

	return Config{
		Env:         getEnv("APP_ENV", "dev"),
		Port:        getEnvInt("PORT", 8080),
		ServiceName: getEnv("SERVICE_NAME", "storefront-api"),

		StoreDriver:    strings.ToLower(getEnv("STORE_DRIVER", StoreDriverPostgres)),
		DBURL:          getEnv("DATABASE_URL", buildDBURL()),
		DBMaxConns:     getEnvInt("DB_MAX_CONNS", 10),
		MigrateOnStart: getEnvBool("MIGRATE_ON_START", true),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		CacheTTL:      getEnvDuration("CACHE_TTL", 30*time.Second),

		BcryptCost: getEnvInt("BCRYPT_COST", 10),

		OTelEnabled:     getEnvBool("OTEL_ENABLED", false),
		OTelEndpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		OTelSampleRatio: getEnvFloat("OTEL_SAMPLE_RATIO", 1),

		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		MaxBodyBytes:       int64(getEnvInt("MAX_BODY_BYTES", 1<<20)),
		AuthRateLimit:      getEnvInt("AUTH_RATE_LIMIT", 20),
		AuthRateWindow:     getEnvDuration("AUTH_RATE_WINDOW", time.Minute),

		AdminEmail:    getEnv("ADMIN_EMAIL", ""),
		AdminPassword: getEnv("ADMIN_PASSWORD", ""),
		AdminName:     getEnv("ADMIN_NAME", "Store Admin"),
	}
}

func buildDBURL() string {
	host := getEnv("DB_HOST", "127.0.0.1")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "storefront")
	pass := getEnv("DB_PASSWORD", "storefront")
	name := getEnv("DB_NAME", "storefront")
	ssl := getEnv("DB_SSLMODE", "disable")

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(user, pass),
		Host:     net.JoinHostPort(host, port),
		Path:     "/" + name,
		RawQuery: url.Values{"sslmode": {ssl}}.Encode(),
	}

	return u.String()
}

func WithTimeout(duration time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), duration)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		num, err := strconv.Atoi(v)

		if err != nil {
			slog.Warn("config: invalid int, using default", "key", key, "value", v, "default", fallback)
			return fallback
		}

		return num
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)

		if err != nil {
			slog.Warn("config: invalid bool, using default", "key", key, "value", v, "default", fallback)
			return fallback
		}

		return b
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)

		if err != nil {
			slog.Warn("config: invalid float, using default", "key", key, "value", v, "default", fallback)
			return fallback
		}

		return f
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)

		if err != nil {
			slog.Warn("config: invalid duration, using default", "key", key, "value", v, "default", fallback)
			return fallback
		}

		return d
	}
	return fallback
}

// comma separated, blanks dropped
func getEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}

	out := make([]string, 0)
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}

	return out
}
