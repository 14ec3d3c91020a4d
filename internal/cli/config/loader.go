package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"github.com/knadh/koanf/maps"
	"gopkg.in/yaml.v3"

	"github.com/yndnr/catdesk-go/internal/core/domain"
	"github.com/yndnr/catdesk-go/internal/infra/confloader"
	"github.com/yndnr/catdesk-go/internal/telemetry/logger"
)

// ErrConfigExists is returned by Init when the file is already there.
var ErrConfigExists = errors.New("config: file already exists")

// Load builds the configuration from defaults, the file at path, CATDESK_*
// environment variables and overrides, in increasing priority. A missing
// file is only an error when required is true.
func Load(path string, required bool, overrides map[string]any) (*CLIConfig, error) {
	if path == "" {
		path = DefaultConfigPath()
	}
	path = ExpandHome(path)

	loader := confloader.NewLoader(
		confloader.WithConfigFile(path, !required),
		confloader.WithKnownKeys(Keys()),
		confloader.WithDefaults(Default().ToMap()),
		confloader.WithOverrides(overrides),
	)

	cfg := &CLIConfig{}
	if err := loader.Load(cfg); err != nil {
		return nil, err
	}
	cfg.Storage.Dir = ExpandHome(cfg.Storage.Dir)
	cfg.Shell.HistoryFile = ExpandHome(cfg.Shell.HistoryFile)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks enumerated and numeric settings.
func (c *CLIConfig) Validate() error {
	if strings.TrimSpace(c.Server) == "" {
		return domain.ErrMissingArgument.WithDetails("server")
	}
	if !slices.Contains([]string{OutputTable, OutputJSON, OutputYAML}, c.Output) {
		return domain.ErrInvalidArgument.WithDetails(fmt.Sprintf("output %q: want table, json or yaml", c.Output))
	}
	if !slices.Contains([]string{EngineBadger, EngineRedis, EngineMemory}, c.Storage.Engine) {
		return domain.ErrInvalidArgument.WithDetails(fmt.Sprintf("storage.engine %q: want badger, redis or memory", c.Storage.Engine))
	}
	if c.Client.Timeout <= 0 {
		return domain.ErrInvalidArgument.WithDetails("client.timeout must be positive")
	}
	if c.Client.RateLimit < 0 {
		return domain.ErrInvalidArgument.WithDetails("client.rate_limit must not be negative")
	}
	if c.Storage.Engine == EngineBadger && c.Storage.Dir == "" {
		return domain.ErrMissingArgument.WithDetails("storage.dir")
	}
	return nil
}

// Save writes cfg as YAML with owner-only permissions.
func Save(cfg *CLIConfig, path string) error {
	if path == "" {
		path = DefaultConfigPath()
	}
	path = ExpandHome(path)

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	data, err := yaml.Marshal(maps.Unflatten(cfg.ToMap(), "."))
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return os.WriteFile(path, data, 0600)
}

// Init writes the default configuration to path. An existing file is kept
// unless force is set.
func Init(path string, force bool) (string, error) {
	if path == "" {
		path = DefaultConfigPath()
	}
	path = ExpandHome(path)

	if _, err := os.Stat(path); err == nil && !force {
		return path, fmt.Errorf("%w: %s", ErrConfigExists, path)
	} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return path, err
	}
	return path, Save(Default(), path)
}

// Entry is one key/value row of the effective configuration.
type Entry struct {
	Key   string `json:"key" yaml:"key"`
	Value any    `json:"value" yaml:"value"`
}

// Entries lists the effective configuration sorted by key, with secrets
// redacted.
func (c *CLIConfig) Entries() []Entry {
	m := c.ToMap()
	out := make([]Entry, 0, len(m))
	for k, v := range m {
		if s, ok := v.(string); ok && s != "" && logger.IsSensitiveKey(k) {
			v = "***"
		}
		out = append(out, Entry{Key: k, Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// ExpandHome replaces a leading "~/" with the user's home directory.
func ExpandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}
