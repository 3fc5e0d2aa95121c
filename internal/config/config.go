// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jason-s-yu/bluff/internal/lobby"
	"github.com/jason-s-yu/bluff/internal/session"
)

// Config is the process configuration, read from the environment.
type Config struct {
	Port string

	RedisAddr string
	RedisDB   int
	QueueName string

	PostgresUser     string
	PostgresPassword string
	PostgresHost     string
	PostgresPort     string
	PostgresDatabase string

	// TokenTTL of zero means guest tokens never expire.
	TokenTTL time.Duration

	JoinGrace       time.Duration
	DisconnectGrace time.Duration
	DestroyGrace    time.Duration

	RateLimitBurst    int
	RateLimitInterval time.Duration

	// SessionIdleTimeout is how long a guest session with no socket and no lobby is kept.
	SessionIdleTimeout time.Duration

	HistorianBatchSize     int
	HistorianFlushInterval time.Duration
}

// Load reads the configuration. Unset variables take their defaults; malformed ones are errors.
func Load() (Config, error) {
	var errs []string
	intVar := func(key string, def int) int {
		v, err := getEnvInt(key, def)
		if err != nil {
			errs = append(errs, err.Error())
		}
		return v
	}
	durVar := func(key string, def time.Duration) time.Duration {
		v, err := getEnvDuration(key, def)
		if err != nil {
			errs = append(errs, err.Error())
		}
		return v
	}

	cfg := Config{
		Port:      getEnv("PORT", "8080"),
		RedisAddr: getEnv("REDIS_ADDR", ""),
		RedisDB:   intVar("REDIS_DB", 0),
		QueueName: getEnv("HISTORIAN_QUEUE_NAME", "bluff_actions"),

		PostgresUser:     getEnv("POSTGRES_USER", "postgres"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", ""),
		PostgresHost:     getEnv("PG_HOST", "localhost"),
		PostgresPort:     getEnv("PG_PORT", "5432"),
		PostgresDatabase: getEnv("PG_DATABASE", "bluff"),

		JoinGrace:       durVar("JOIN_GRACE", lobby.DefaultJoinGrace),
		DisconnectGrace: durVar("DISCONNECT_GRACE", lobby.DefaultDisconnectGrace),
		DestroyGrace:    durVar("DESTROY_GRACE", lobby.DefaultDestroyGrace),

		RateLimitBurst:    intVar("RATE_LIMIT_BURST", session.DefaultBurst),
		RateLimitInterval: durVar("RATE_LIMIT_INTERVAL", session.DefaultInterval),

		HistorianBatchSize:     intVar("HISTORIAN_BATCH_SIZE", 50),
		HistorianFlushInterval: durVar("HISTORIAN_FLUSH_INTERVAL", 2*time.Second),
	}

	if raw := strings.TrimSpace(os.Getenv("TOKEN_EXPIRE_TIME")); raw != "" && !strings.EqualFold(raw, "never") {
		ttl, err := time.ParseDuration(raw)
		if err != nil {
			errs = append(errs, fmt.Sprintf("TOKEN_EXPIRE_TIME: %v", err))
		}
		cfg.TokenTTL = ttl
	}

	idleDefault := session.DefaultIdleTimeout
	if cfg.TokenTTL > 0 {
		idleDefault = cfg.TokenTTL
	}
	cfg.SessionIdleTimeout = durVar("SESSION_IDLE_TIMEOUT", idleDefault)

	if len(errs) > 0 {
		return cfg, fmt.Errorf("invalid configuration: %s", strings.Join(errs, "; "))
	}
	return cfg, nil
}

// PostgresDSN builds a pgx connection string.
func (c Config) PostgresDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s",
		c.PostgresUser, c.PostgresPassword, c.PostgresHost, c.PostgresPort, c.PostgresDatabase)
}

// LobbyOptions returns the lobby timings from c.
func (c Config) LobbyOptions() lobby.Options {
	return lobby.Options{
		JoinGrace:       c.JoinGrace,
		DisconnectGrace: c.DisconnectGrace,
		DestroyGrace:    c.DestroyGrace,
	}
}

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func getEnvDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
