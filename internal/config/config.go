package config

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env   string
	Port  int
	DBURL string

	DBMaxConns     int32
	RequestTimeout time.Duration

	MetricsEnabled bool
	OTELEndpoint   string

	CORSAllowedOrigins []string
	RateLimitPerMinute int
}

func Load() Config {
	// a missing .env is fine, the real environment always wins
	_ = godotenv.Load()

	return Config{
		Env:                getEnv("APP_ENV", "dev"),
		Port:               getEnvInt("PORT", 8080),
		DBURL:              buildDBURL(),
		DBMaxConns:         int32(getEnvInt("DB_MAX_CONNS", 10)),
		RequestTimeout:     time.Duration(getEnvInt("REQUEST_TIMEOUT_MS", 5000)) * time.Millisecond,
		MetricsEnabled:     getEnvBool("METRICS_ENABLED", true),
		OTELEndpoint:       getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		CORSAllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "")),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 0),
	}
}

// DATABASE_URL wins; otherwise the url is composed on the fixed port 5432.
func buildDBURL() string {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		return v
	}

	user := getEnv("DATABASE_USER", "vagrant")
	pass := getEnv("DATABASE_PASSWORD", "password")
	host := getEnv("DATABASE_HOST", "localhost")
	name := getEnv("DATABASE_NAME", "userdb")

	u := url.URL{
		Scheme: "postgresql",
		User:   url.UserPassword(user, pass),
		Host:   host + ":5432",
		Path:   "/" + name,
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
			slog.Warn("invalid integer in env, using default", "key", key, "value", v, "default", fallback)
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
			slog.Warn("invalid boolean in env, using default", "key", key, "value", v, "default", fallback)
			return fallback
		}

		return b
	}
	return fallback
}

func splitList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	out := make([]string, 0)
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}

	return out
}
