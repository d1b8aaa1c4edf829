package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

func Load() App {
	// .env is optional outside local dev
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("could not read .env", "err", err)
	}

	cfg := App{
		Port:        getenv("APP_PORT", "8080"),
		Env:         getenv("APP_ENV", "dev"),
		DatabaseURL: must("DATABASE_URL"),
		AutoMigrate: getbool("AUTO_MIGRATE", true),
		JWTSecret:   getenv("JWT_SECRET", "local_dev_secret"),

		IdentityMode:         getenv("IDENTITY_MODE", "remote"),
		AuthVerifyURL:        getenv("AUTH_VERIFY_URL", "http://localhost:3001/api/auth/verify"),
		AuthUserURL:          getenv("AUTH_USER_URL", "http://localhost:3001/api/auth/user"),
		IdentityServiceToken: os.Getenv("IDENTITY_SERVICE_TOKEN"),
		RedisURL:             os.Getenv("REDIS_URL"),
		ProfileCacheTTL:      getduration("PROFILE_CACHE_TTL", 5*time.Minute),

		ListingServiceURL:      getenv("LISTING_SERVICE_URL", "http://localhost:3002/api/properties"),
		NotificationServiceURL: os.Getenv("NOTIFICATION_SERVICE_URL"),
		DependencyTimeout:      getduration("DEPENDENCY_TIMEOUT", 3*time.Second),

		RabbitMQURL:       os.Getenv("RABBITMQ_URL"),
		RabbitMQExchange:  getenv("RABBITMQ_EXCHANGE", "reservation.events"),
		RabbitMQQueue:     getenv("RABBITMQ_QUEUE", "reservation.notifications"),
		OutboxInterval:    getduration("OUTBOX_INTERVAL", 2*time.Second),
		OutboxBatch:       getint("OUTBOX_BATCH", 100),
		OutboxMaxAttempts: getint("OUTBOX_MAX_ATTEMPTS", 5),
		OutboxLease:       getduration("OUTBOX_LEASE", time.Minute),
		OutboxRetention:   getduration("OUTBOX_RETENTION", 7*24*time.Hour),
	}
	return cfg
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getint(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		slog.Warn("invalid int env, using default", "key", k, "value", v)
		return def
	}
	return n
}

func getbool(k string, def bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		slog.Warn("invalid bool env, using default", "key", k, "value", v)
		return def
	}
	return b
}

func getduration(k string, def time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		slog.Warn("invalid duration env, using default", "key", k, "value", v)
		return def
	}
	return d
}

func must(k string) string {
	v := os.Getenv(k)
	if v == "" {
		slog.Error("required env missing", "key", k)
		panic("missing env " + k)
	}
	return v
}
