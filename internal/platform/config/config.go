// Package config builds the runtime configuration from environment
// variables so main stays lean. Every external system is optional; an
// unset URL selects the in-memory fallback.
package config

import (
	"os"
	"strings"
	"time"

	platformstrings "posintake/pkg/platform/strings"
)

// RedisConfig captures Redis connection settings.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Config is the full service configuration.
type Config struct {
	Addr    string
	BaseURL string

	JWTSigningKey   string
	ResubmissionTTL time.Duration
	SessionTTL      time.Duration

	DatabaseURL string
	Redis       RedisConfig

	KafkaBrokers []string
	NotifyTopic  string

	UploadDir  string
	StaffEmail string
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

// FromEnv builds the configuration from environment variables.
func FromEnv() Config {
	cfg := Config{
		Addr:            envOr("POSINTAKE_ADDR", ":8080"),
		BaseURL:         envOr("POSINTAKE_BASE_URL", "http://localhost:8080"),
		JWTSigningKey:   envOr("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		ResubmissionTTL: durationOr("RESUBMISSION_TOKEN_TTL", 48*time.Hour),
		SessionTTL:      durationOr("STAFF_SESSION_TTL", 8*time.Hour),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		NotifyTopic: envOr("NOTIFY_TOPIC", "posintake.notifications"),
		UploadDir:   os.Getenv("UPLOAD_DIR"),
		StaffEmail:  os.Getenv("STAFF_NOTIFY_EMAIL"),
	}
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = platformstrings.DedupeAndTrim(strings.Split(brokers, ","))
	}
	return cfg
}
