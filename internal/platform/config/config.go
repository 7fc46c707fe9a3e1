package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	platformstrings "vouch/pkg/platform/strings"
)

// Config captures daemon-level configuration. Values come from the
// environment so main stays lean; zero values mean "not configured" and the
// daemon falls back to in-memory implementations.
type Config struct {
	Addr          string
	PostgresURL   string
	Redis         RedisConfig
	Kafka         KafkaConfig
	JWTSigningKey string
	AttestIssuer  string
}

// RedisConfig holds connection settings for the checkpoint store.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig holds settings for the notification publisher.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// FromEnv builds a Config from environment variables.
func FromEnv() Config {
	addr := os.Getenv("VOUCH_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	jwtSigningKey := os.Getenv("VOUCH_JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Use a default for development - should be overridden in production
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	issuer := os.Getenv("VOUCH_ATTEST_ISSUER")
	if issuer == "" {
		issuer = "vouch"
	}

	var brokers []string
	if raw := os.Getenv("VOUCH_KAFKA_BROKERS"); raw != "" {
		brokers = platformstrings.DedupeAndTrim(strings.Split(raw, ","))
	}
	topic := os.Getenv("VOUCH_KAFKA_TOPIC")
	if topic == "" {
		topic = "vouch.verification.events"
	}

	return Config{
		Addr:          addr,
		PostgresURL:   os.Getenv("VOUCH_POSTGRES_URL"),
		JWTSigningKey: jwtSigningKey,
		AttestIssuer:  issuer,
		Redis: RedisConfig{
			URL:          os.Getenv("VOUCH_REDIS_URL"),
			PoolSize:     envInt("VOUCH_REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("VOUCH_REDIS_MIN_IDLE", 2),
			DialTimeout:  envDuration("VOUCH_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("VOUCH_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("VOUCH_REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers: brokers,
			Topic:   topic,
		},
	}
}

func envInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

func envDuration(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}
	return v
}
