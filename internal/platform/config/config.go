package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ExpansionMode selects how far a resolve walks the contact graph.
type ExpansionMode string

const (
	// ExpansionClosure follows shared values and links until nothing new
	// is found.
	ExpansionClosure ExpansionMode = "closure"
	// ExpansionSingleHop pulls in direct matches, their primaries, and the
	// primaries' secondaries only.
	ExpansionSingleHop ExpansionMode = "single_hop"
)

// Server captures process level configuration.
type Server struct {
	Addr            string
	ShutdownTimeout time.Duration
	LogLevel        string
	LogFormat       string

	Database DatabaseConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Resolve  ResolveConfig
	Outbox   OutboxConfig
}

// DatabaseConfig configures the Postgres pool. An empty URL selects the
// in-memory stores.
type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig configures the cluster cache. An empty URL disables it.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	ClusterTTL   time.Duration
}

// KafkaConfig configures the outbox publisher. No brokers selects the log
// publisher.
type KafkaConfig struct {
	Brokers           []string
	Topic             string
	Partitions        int32
	ReplicationFactor int16
}

// ResolveConfig tunes the identity resolution engine.
type ResolveConfig struct {
	Expansion   ExpansionMode
	MaxAttempts int
	TxTimeout   time.Duration
}

// OutboxConfig tunes the outbox worker.
type OutboxConfig struct {
	PollInterval time.Duration
	BatchSize    int
}

// Load reads an optional .env file and then the environment.
func Load(envFiles ...string) (Server, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Server{}, fmt.Errorf("load %s: %w", f, err)
		}
	}
	return FromEnv()
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() (Server, error) {
	r := envReader{}
	cfg := Server{
		Addr:            r.str("RECONCILER_ADDR", ":8080"),
		ShutdownTimeout: r.duration("SHUTDOWN_TIMEOUT", 10*time.Second),
		LogLevel:        r.str("LOG_LEVEL", "info"),
		LogFormat:       r.str("LOG_FORMAT", "json"),
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    r.int("DATABASE_MAX_OPEN_CONNS", 20),
			MaxIdleConns:    r.int("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: r.duration("DATABASE_CONN_MAX_LIFETIME", 30*time.Minute),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     r.int("REDIS_POOL_SIZE", 10),
			MinIdleConns: r.int("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  r.duration("REDIS_DIAL_TIMEOUT", 2*time.Second),
			ReadTimeout:  r.duration("REDIS_READ_TIMEOUT", 500*time.Millisecond),
			WriteTimeout: r.duration("REDIS_WRITE_TIMEOUT", 500*time.Millisecond),
			ClusterTTL:   r.duration("CLUSTER_CACHE_TTL", 5*time.Minute),
		},
		Kafka: KafkaConfig{
			Brokers:           splitList(os.Getenv("KAFKA_BROKERS")),
			Topic:             r.str("KAFKA_TOPIC", "contact-events"),
			Partitions:        int32(r.int("KAFKA_TOPIC_PARTITIONS", 3)),
			ReplicationFactor: int16(r.int("KAFKA_TOPIC_REPLICATION", 1)),
		},
		Resolve: ResolveConfig{
			Expansion:   ExpansionMode(r.str("CLUSTER_EXPANSION", string(ExpansionClosure))),
			MaxAttempts: r.int("RESOLVE_MAX_ATTEMPTS", 3),
			TxTimeout:   r.duration("RESOLVE_TX_TIMEOUT", 5*time.Second),
		},
		Outbox: OutboxConfig{
			PollInterval: r.duration("OUTBOX_POLL_INTERVAL", time.Second),
			BatchSize:    r.int("OUTBOX_BATCH_SIZE", 100),
		},
	}
	if err := errors.Join(r.errs...); err != nil {
		return Server{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Server{}, err
	}
	return cfg, nil
}

// Validate rejects values the service cannot run with.
func (c Server) Validate() error {
	var errs []error
	switch c.Resolve.Expansion {
	case ExpansionClosure, ExpansionSingleHop:
	default:
		errs = append(errs, fmt.Errorf("CLUSTER_EXPANSION must be %q or %q, got %q", ExpansionClosure, ExpansionSingleHop, c.Resolve.Expansion))
	}
	if c.Resolve.MaxAttempts < 1 {
		errs = append(errs, errors.New("RESOLVE_MAX_ATTEMPTS must be at least 1"))
	}
	if c.Outbox.BatchSize < 1 {
		errs = append(errs, errors.New("OUTBOX_BATCH_SIZE must be at least 1"))
	}
	if c.Outbox.PollInterval <= 0 {
		errs = append(errs, errors.New("OUTBOX_POLL_INTERVAL must be positive"))
	}
	switch strings.ToLower(c.LogFormat) {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("LOG_FORMAT must be json or text, got %q", c.LogFormat))
	}
	return errors.Join(errs...)
}

type envReader struct {
	errs []error
}

func (r *envReader) str(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func (r *envReader) int(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return n
}

func (r *envReader) duration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return d
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
