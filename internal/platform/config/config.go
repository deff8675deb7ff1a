package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures process-level configuration so main stays lean. Empty
// DatabaseURL/RedisURL/KafkaBrokers switch the corresponding subsystem to its
// in-memory or no-op implementation for local development.
type Config struct {
	Addr          string
	DatabaseURL   string
	RedisURL      string
	KafkaBrokers  []string
	KafkaTopic    string
	JWTSigningKey string
	// WebhookSecret is the shared HMAC key for payment gateway callbacks.
	WebhookSecret string
	// AllowRestart enables the rejected/expired/revoked -> draft transition
	// edges. The upstream business policy is undecided, so it is a switch
	// rather than a fact baked into the transition table.
	AllowRestart bool
	// MaxRevisionAttempts caps how often a reviewer may send an application
	// back for revision before it is auto-rejected.
	MaxRevisionAttempts int
	SweepInterval       time.Duration
}

// FromEnv builds a Config from environment variables.
func FromEnv() Config {
	cfg := Config{
		Addr:                envOr("CERTFLOW_ADDR", ":8080"),
		DatabaseURL:         os.Getenv("DATABASE_URL"),
		RedisURL:            os.Getenv("REDIS_URL"),
		KafkaTopic:          envOr("KAFKA_TOPIC", "certflow.application-events"),
		JWTSigningKey:       envOr("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		WebhookSecret:       envOr("PAYMENT_WEBHOOK_SECRET", "dev-webhook-secret"),
		AllowRestart:        os.Getenv("WORKFLOW_ALLOW_RESTART") == "true",
		MaxRevisionAttempts: envIntOr("WORKFLOW_MAX_REVISIONS", 3),
		SweepInterval:       envDurationOr("EXPIRY_SWEEP_INTERVAL", time.Hour),
	}
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = strings.Split(brokers, ",")
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}
