package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig configures the Redis engine.
type RedisConfig struct {
	// Addr is the Redis address (host:port).
	Addr string

	// Password is the optional Redis password.
	Password string

	// DB selects the Redis logical database.
	DB int

	// Prefix namespaces every key, so several desks can share one Redis.
	// Default: "catdesk:"
	Prefix string

	// DialTimeout bounds connection setup.
	// Default: 3s
	DialTimeout time.Duration
}

// DefaultRedisConfig returns the default Redis configuration.
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Addr:        "localhost:6379",
		Prefix:      "catdesk:",
		DialTimeout: 3 * time.Second,
	}
}

// RedisEngine implements KVEngine on a Redis server.
type RedisEngine struct {
	client *redis.Client
	prefix string
	logger *slog.Logger
}

// NewRedisEngine connects to Redis and verifies the connection with PING.
func NewRedisEngine(cfg RedisConfig, logger *slog.Logger) (*RedisEngine, error) {
	addr := strings.TrimSpace(cfg.Addr)
	if addr == "" {
		return nil, errors.New("redis: addr is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	dialTimeout := cfg.DialTimeout
	if dialTimeout <= 0 {
		dialTimeout = 3 * time.Second
	}

	client := redis.NewClient(&redis.Options{
		Addr:        addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: dialTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis: ping %s: %w", addr, err)
	}

	logger.Debug("redis engine connected", "addr", addr, "prefix", cfg.Prefix)

	return &RedisEngine{
		client: client,
		prefix: cfg.Prefix,
		logger: logger,
	}, nil
}

func (e *RedisEngine) key(k []byte) string {
	return e.prefix + string(k)
}

// Get retrieves a value by key.
func (e *RedisEngine) Get(ctx context.Context, key []byte) ([]byte, error) {
	val, err := e.client.Get(ctx, e.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrKeyNotFound
	}
	if err != nil {
		return nil, e.mapErr(err)
	}
	return val, nil
}

// Set stores a key-value pair without expiry.
func (e *RedisEngine) Set(ctx context.Context, key, value []byte) error {
	return e.mapErr(e.client.Set(ctx, e.key(key), value, 0).Err())
}

// Delete removes a key.
func (e *RedisEngine) Delete(ctx context.Context, key []byte) error {
	if err := e.client.Del(ctx, e.key(key)).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return e.mapErr(err)
	}
	return nil
}

// Stats counts the keys under the engine's prefix.
func (e *RedisEngine) Stats(ctx context.Context) (*KVStats, error) {
	var n uint64
	iter := e.client.Scan(ctx, 0, escapeGlob(e.prefix)+"*", 100).Iterator()
	for iter.Next(ctx) {
		n++
	}
	if err := iter.Err(); err != nil {
		return nil, e.mapErr(err)
	}
	return &KVStats{Engine: EngineRedis, TotalKeys: n}, nil
}

// Close closes the client connection pool.
func (e *RedisEngine) Close() error {
	return e.mapErr(e.client.Close())
}

// escapeGlob quotes the characters SCAN MATCH treats as pattern syntax.
func escapeGlob(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '*', '?', '[', ']', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (e *RedisEngine) mapErr(err error) error {
	if errors.Is(err, redis.ErrClosed) {
		return ErrClosed
	}
	return err
}
