// Package config defines the catdesk-cli configuration and where it lives.
//
// Values are layered by confloader: built-in defaults, then
// ~/.catdesk/cli.yaml, then CATDESK_* environment variables, then flags.
package config

import (
	"os"
	"path/filepath"
	"time"
)

// Output formats.
const (
	OutputTable = "table"
	OutputJSON  = "json"
	OutputYAML  = "yaml"
)

// Storage engines.
const (
	EngineBadger = "badger"
	EngineRedis  = "redis"
	EngineMemory = "memory"
)

// DefaultServer is the catalog API used when none is configured.
const DefaultServer = "https://dummyjson.com"

// CLIConfig is the configuration for catdesk-cli.
type CLIConfig struct {
	Server  string        `koanf:"server"`
	Output  string        `koanf:"output"` // table, json, yaml
	Log     LogConfig     `koanf:"log"`
	Client  ClientConfig  `koanf:"client"`
	Storage StorageConfig `koanf:"storage"`
	Shell   ShellConfig   `koanf:"shell"`
}

// LogConfig controls diagnostic logging on stderr.
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"` // text, json
}

// ClientConfig tunes the HTTP client.
type ClientConfig struct {
	Timeout   time.Duration `koanf:"timeout"`
	RateLimit float64       `koanf:"rate_limit"` // requests per second, 0 = unlimited
	UserAgent string        `koanf:"user_agent"`
}

// StorageConfig selects where the session is persisted.
type StorageConfig struct {
	Engine     string      `koanf:"engine"`
	Dir        string      `koanf:"dir"`
	Passphrase string      `koanf:"passphrase"` // enables at-rest encryption when set
	Redis      RedisConfig `koanf:"redis"`
}

// RedisConfig is used when Storage.Engine is "redis".
type RedisConfig struct {
	Addr     string `koanf:"addr"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
	Prefix   string `koanf:"prefix"`
}

// ShellConfig configures the interactive shell.
type ShellConfig struct {
	HistoryFile   string `koanf:"history_file"`
	MetricsListen string `koanf:"metrics_listen"` // e.g. 127.0.0.1:9464; empty disables
}

// HomeDir is the catdesk state directory, ~/.catdesk.
func HomeDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = os.TempDir()
	}
	return filepath.Join(homeDir, ".catdesk")
}

// DefaultConfigPath returns the default CLI config file path.
func DefaultConfigPath() string {
	return filepath.Join(HomeDir(), "cli.yaml")
}

// Default returns the default CLI configuration.
func Default() *CLIConfig {
	return &CLIConfig{
		Server: DefaultServer,
		Output: OutputTable,
		Log: LogConfig{
			Level:  "warn",
			Format: "text",
		},
		Client: ClientConfig{
			Timeout: 30 * time.Second,
		},
		Storage: StorageConfig{
			Engine: EngineBadger,
			Dir:    filepath.Join(HomeDir(), "data"),
			Redis: RedisConfig{
				Addr:   "localhost:6379",
				Prefix: "catdesk:",
			},
		},
		Shell: ShellConfig{
			HistoryFile: filepath.Join(HomeDir(), "history"),
		},
	}
}

// ToMap flattens the configuration to dotted keys. Durations are rendered
// as strings so the map round-trips through YAML and the loader.
func (c *CLIConfig) ToMap() map[string]any {
	return map[string]any{
		"server":                 c.Server,
		"output":                 c.Output,
		"log.level":              c.Log.Level,
		"log.format":             c.Log.Format,
		"client.timeout":         c.Client.Timeout.String(),
		"client.rate_limit":      c.Client.RateLimit,
		"client.user_agent":      c.Client.UserAgent,
		"storage.engine":         c.Storage.Engine,
		"storage.dir":            c.Storage.Dir,
		"storage.passphrase":     c.Storage.Passphrase,
		"storage.redis.addr":     c.Storage.Redis.Addr,
		"storage.redis.password": c.Storage.Redis.Password,
		"storage.redis.db":       c.Storage.Redis.DB,
		"storage.redis.prefix":   c.Storage.Redis.Prefix,
		"shell.history_file":     c.Shell.HistoryFile,
		"shell.metrics_listen":   c.Shell.MetricsListen,
	}
}

// Keys lists every configuration key.
func Keys() []string {
	m := Default().ToMap()
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}
