package command

import (
	"context"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/catdesk-go/internal/infra/buildinfo"
)

const runtimeKey = "runtime"

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:     buildinfo.ProductName,
		Usage:    "Product catalog desk for dummyjson-style APIs",
		Version:  buildinfo.String(),
		Flags:    globalFlags(),
		Metadata: map[string]any{},
		Commands: []*cli.Command{
			AuthCommand(),
			ProductCommand(),
			ShellCommand(),
			ConfigCommand(),
			VersionCommand(),
		},
		After: func(c *cli.Context) error {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return closeRuntime(ctx, c)
		},
	}
}

// globalFlags returns the global CLI flags. Unset flags leave the value to
// CATDESK_* variables, the config file and the defaults.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Config file (default ~/.catdesk/cli.yaml)",
		},
		&cli.StringFlag{
			Name:    "server",
			Aliases: []string{"s"},
			Usage:   "Catalog API base URL (e.g., https://dummyjson.com)",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format: table, json, yaml",
		},
		&cli.BoolFlag{
			Name:    "wide",
			Aliases: []string{"w"},
			Usage:   "Show wide output (more columns)",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"V"},
			Usage:   "Log debug output to stderr",
		},
		&cli.StringFlag{
			Name:  "data-dir",
			Usage: "Session storage directory (badger engine)",
		},
		&cli.StringFlag{
			Name:  "storage",
			Usage: "Session storage engine: badger, redis, memory",
		},
	}
}

// GlobalFlags holds the global flags that were set on the command line.
type GlobalFlags struct {
	ConfigPath string
	Overrides  map[string]any
	Wide       bool
}

// ParseGlobalFlags extracts global flags from context. Only flags the user
// set become overrides.
func ParseGlobalFlags(c *cli.Context) *GlobalFlags {
	flags := &GlobalFlags{
		ConfigPath: c.String("config"),
		Overrides:  map[string]any{},
		Wide:       c.Bool("wide"),
	}
	set := func(flag, key string) {
		if c.IsSet(flag) {
			flags.Overrides[key] = c.String(flag)
		}
	}
	set("server", "server")
	set("output", "output")
	set("data-dir", "storage.dir")
	set("storage", "storage.engine")
	if c.Bool("verbose") {
		flags.Overrides["log.level"] = "debug"
	}
	return flags
}
