// Package storage provides durable local storage for catdesk.
//
// The session store persists its three keys through LocalStorage, which sits
// on a KVEngine. Engines: Badger (default, embedded on disk), Redis (shared
// between machines) and memory (ephemeral).
// Any engine can be wrapped by SealedEngine for at-rest encryption.
package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// Common errors
var (
	ErrKeyNotFound = errors.New("key not found")
	ErrClosed      = errors.New("kv engine closed")
)

// Engine names accepted by KVConfig.Engine.
const (
	EngineBadger = "badger"
	EngineRedis  = "redis"
	EngineMemory = "memory"
)

// KVEngine defines the interface for key-value storage engines.
//
// Implementations must be safe for concurrent use and, except for the
// memory engine, durable across process restarts.
type KVEngine interface {
	// Get retrieves a value by key.
	// Returns ErrKeyNotFound if key doesn't exist.
	Get(ctx context.Context, key []byte) ([]byte, error)

	// Set stores a key-value pair.
	Set(ctx context.Context, key, value []byte) error

	// Delete removes a key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key []byte) error

	// Stats returns storage statistics. Exported as gauges on /metrics.
	Stats(ctx context.Context) (*KVStats, error)

	// Close releases the engine.
	Close() error
}

// KVStats contains storage engine statistics.
type KVStats struct {
	// Engine is the engine name.
	Engine string

	// TotalKeys is the approximate number of keys (0 when unknown).
	TotalKeys uint64

	// TotalSize is the total disk usage in bytes (0 when unknown).
	TotalSize uint64

	// LSMSize is the LSM tree size (Badger only).
	LSMSize uint64

	// ValueLogSize is the value log size (Badger only).
	ValueLogSize uint64

	// LastGCTime is the last GC run timestamp (Unix milliseconds, Badger only).
	LastGCTime int64
}

// KVConfig configures a storage engine.
type KVConfig struct {
	// Engine specifies the engine type ("badger", "redis", "memory").
	// Default: "badger"
	Engine string

	// Dir is the Badger storage directory.
	Dir string

	// Passphrase enables at-rest encryption of values when non-empty.
	Passphrase string

	Badger BadgerConfig
	Redis  RedisConfig
}

// DefaultKVConfig returns the default storage configuration.
func DefaultKVConfig(dir string) KVConfig {
	return KVConfig{
		Engine: EngineBadger,
		Dir:    dir,
		Badger: DefaultBadgerConfig(),
		Redis:  DefaultRedisConfig(),
	}
}

// Open creates the engine selected by cfg.Engine, wrapped for encryption
// when a passphrase is configured.
func Open(cfg KVConfig, logger *slog.Logger) (KVEngine, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var (
		engine KVEngine
		err    error
	)
	switch strings.ToLower(strings.TrimSpace(cfg.Engine)) {
	case "", EngineBadger:
		engine, err = NewBadgerEngine(cfg, logger)
	case EngineRedis:
		engine, err = NewRedisEngine(cfg.Redis, logger)
	case EngineMemory:
		engine = NewMemoryEngine()
	default:
		return nil, fmt.Errorf("storage: unknown engine %q", cfg.Engine)
	}
	if err != nil {
		return nil, err
	}

	if cfg.Passphrase == "" {
		return engine, nil
	}

	sealed, err := NewSealedEngine(engine, []byte(cfg.Passphrase))
	if err != nil {
		engine.Close()
		return nil, err
	}
	return sealed, nil
}
