// Package config centralizes environment-driven configuration so main stays
// lean.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config aggregates all runtime configuration.
type Config struct {
	Server   Server
	Postgres Postgres
	Redis    Redis
	Kafka    Kafka
	Auth     Auth
	Match    Match
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string
	ShutdownTimeout time.Duration
}

// Postgres captures database connection configuration.
type Postgres struct {
	// URL is a standard postgres connection string. Empty means the service
	// runs on in-memory stores (development and unit tests).
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Redis captures session store configuration.
type Redis struct {
	// URL in redis://host:port/db form. Empty disables Redis; sessions fall
	// back to the in-memory store.
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Kafka captures event publishing configuration.
type Kafka struct {
	// Brokers is a comma-separated broker list. Empty disables Kafka;
	// notifications fall back to the log publisher.
	Brokers string
	Topic   string
}

// Auth captures token issuing configuration.
type Auth struct {
	JWTSigningKey string
	TokenTTL      time.Duration
	SessionTTL    time.Duration
}

// Match captures matching defaults.
type Match struct {
	MaxDistanceKm float64
	Limit         int
}

// FromEnv builds a Config from environment variables, applying development
// defaults for anything unset.
func FromEnv() Config {
	return Config{
		Server: Server{
			Addr:            envString("BLOODLINK_ADDR", ":8080"),
			ShutdownTimeout: envDuration("BLOODLINK_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Postgres: Postgres{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    envInt("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: envDuration("DATABASE_CONN_MAX_LIFETIME", 30*time.Minute),
		},
		Redis: Redis{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     envInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: Kafka{
			Brokers: os.Getenv("KAFKA_BROKERS"),
			Topic:   envString("KAFKA_NOTIFICATIONS_TOPIC", "bloodlink.notifications"),
		},
		Auth: Auth{
			// The default is for development only and must be overridden in
			// production.
			JWTSigningKey: envString("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
			TokenTTL:      envDuration("JWT_TOKEN_TTL", 24*time.Hour),
			SessionTTL:    envDuration("SESSION_TTL", 7*24*time.Hour),
		},
		Match: Match{
			MaxDistanceKm: envFloat("MATCH_MAX_DISTANCE_KM", 50),
			Limit:         envInt("MATCH_LIMIT", 20),
		},
	}
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
