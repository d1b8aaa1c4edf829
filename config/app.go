package config

import "time"

type App struct {
	Port        string `env:"APP_PORT" default:"8080"`
	Env         string `env:"APP_ENV" default:"dev"`
	DatabaseURL string `env:"DATABASE_URL,required"`
	AutoMigrate bool   `env:"AUTO_MIGRATE" default:"true"`
	JWTSecret   string `env:"JWT_SECRET"`

	// identity
	IdentityMode         string        `env:"IDENTITY_MODE" default:"remote"`
	AuthVerifyURL        string        `env:"AUTH_VERIFY_URL" default:"http://localhost:3001/api/auth/verify"`
	AuthUserURL          string        `env:"AUTH_USER_URL" default:"http://localhost:3001/api/auth/user"`
	IdentityServiceToken string        `env:"IDENTITY_SERVICE_TOKEN"`
	RedisURL             string        `env:"REDIS_URL"`
	ProfileCacheTTL      time.Duration `env:"PROFILE_CACHE_TTL" default:"5m"`

	// collaborators
	ListingServiceURL      string        `env:"LISTING_SERVICE_URL" default:"http://localhost:3002/api/properties"`
	NotificationServiceURL string        `env:"NOTIFICATION_SERVICE_URL"`
	DependencyTimeout      time.Duration `env:"DEPENDENCY_TIMEOUT" default:"3s"`

	// events
	RabbitMQURL       string        `env:"RABBITMQ_URL"`
	RabbitMQExchange  string        `env:"RABBITMQ_EXCHANGE" default:"reservation.events"`
	RabbitMQQueue     string        `env:"RABBITMQ_QUEUE" default:"reservation.notifications"`
	OutboxInterval    time.Duration `env:"OUTBOX_INTERVAL" default:"2s"`
	OutboxBatch       int           `env:"OUTBOX_BATCH" default:"100"`
	OutboxMaxAttempts int           `env:"OUTBOX_MAX_ATTEMPTS" default:"5"`
	OutboxLease       time.Duration `env:"OUTBOX_LEASE" default:"1m"`
	OutboxRetention   time.Duration `env:"OUTBOX_RETENTION" default:"168h"`
}
