package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// StoreKind selects the profile repository backend.
type StoreKind string

const (
	StoreMemory   StoreKind = "memory"
	StorePostgres StoreKind = "postgres"
	StoreRedis    StoreKind = "redis"
	StoreBadger   StoreKind = "badger"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr     string
	LogLevel string
	Store    StoreKind

	Postgres  PostgresConfig
	Redis     RedisConfig
	Badger    BadgerConfig
	Kafka     KafkaConfig
	Generator GeneratorConfig
}

type PostgresConfig struct {
	URL          string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type BadgerConfig struct {
	Path string
}

// KafkaConfig is empty when audit events stay in-process.
type KafkaConfig struct {
	Brokers       []string
	AuditTopic    string
	ConsumerGroup string
}

func (k KafkaConfig) Enabled() bool { return len(k.Brokers) > 0 }

// GeneratorConfig points at the external document generator. An empty URL
// selects the in-process outline generator.
type GeneratorConfig struct {
	URL     string
	Timeout time.Duration
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	return Server{
		Addr:     getenv("LEXDRAFT_ADDR", ":8080"),
		LogLevel: getenv("LOG_LEVEL", "info"),
		Store:    StoreKind(strings.ToLower(getenv("LEXDRAFT_STORE", string(StoreMemory)))),
		Postgres: PostgresConfig{
			URL:          os.Getenv("DATABASE_URL"),
			MaxOpenConns: getint("DATABASE_MAX_OPEN_CONNS", 10),
			MaxIdleConns: getint("DATABASE_MAX_IDLE_CONNS", 5),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     getint("REDIS_POOL_SIZE", 10),
			MinIdleConns: getint("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getduration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getduration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getduration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Badger: BadgerConfig{
			Path: getenv("BADGER_PATH", "./data/profiles"),
		},
		Kafka: KafkaConfig{
			Brokers:       splitList(os.Getenv("KAFKA_BROKERS")),
			AuditTopic:    getenv("AUDIT_TOPIC", "lexdraft.audit"),
			ConsumerGroup: getenv("AUDIT_CONSUMER_GROUP", "lexdraft-audit"),
		},
		Generator: GeneratorConfig{
			URL:     os.Getenv("GENERATOR_URL"),
			Timeout: getduration("GENERATION_TIMEOUT", 60*time.Second),
		},
	}
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getint(key string, fallback int) int {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return n
	}
	return fallback
}

func getduration(key string, fallback time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return d
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
