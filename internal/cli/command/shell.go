package command

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/catdesk-go/internal/cli/config"
	"github.com/yndnr/catdesk-go/internal/cli/repl"
	"github.com/yndnr/catdesk-go/internal/infra/confloader"
	"github.com/yndnr/catdesk-go/internal/infra/shutdown"
	"github.com/yndnr/catdesk-go/internal/telemetry/logger"
)

// ShellCommand returns the interactive shell command.
func ShellCommand() *cli.Command {
	return &cli.Command{
		Name:  "shell",
		Usage: "Start the interactive catalog shell",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "metrics-listen",
				Usage: "Serve Prometheus metrics on this address (e.g., 127.0.0.1:9464)",
			},
			&cli.BoolFlag{
				Name:  "no-history",
				Usage: "Do not read or write the history file",
			},
		},
		Action: runShell,
	}
}

func runShell(c *cli.Context) error {
	rt, err := requireRuntime(c)
	if err != nil {
		return err
	}

	ctx, stop := shutdown.WithSignals(c.Context)
	defer stop()

	history := repl.NewHistory("")
	if !c.Bool("no-history") {
		history = repl.NewHistory(rt.Config.Shell.HistoryFile)
		if err := history.Load(); err != nil {
			rt.Logger.Warn("load shell history", "file", rt.Config.Shell.HistoryFile, "error", err)
		}
		rt.Shutdown.OnShutdown(func(context.Context) error {
			return history.Save()
		})
	}

	listen := rt.Config.Shell.MetricsListen
	if c.IsSet("metrics-listen") {
		listen = c.String("metrics-listen")
	}
	if listen != "" {
		if err := serveMetrics(rt, listen); err != nil {
			return err
		}
	}

	watchConfig(rt)

	sh := repl.New(repl.Config{
		Session: rt.Session,
		Catalog: rt.Catalog,
		Routes:  rt.Routes,
		Format:  rt.Format(),
		Wide:    rt.Flags.Wide,
		History: history,
		Logger:  rt.Logger,
		Input:   c.App.Reader,
		Output:  rt.Out,
	})
	return sh.Run(ctx)
}

// serveMetrics exposes the registry on addr until the runtime shuts down.
func serveMetrics(rt *Runtime, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", rt.Metrics.Handler())
	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			rt.Logger.Error("metrics server stopped", "error", err)
		}
	}()
	rt.Logger.Info("serving metrics", "addr", ln.Addr().String())

	rt.Shutdown.OnShutdown(srv.Shutdown)
	return nil
}

// watchConfig follows the config file and applies log level changes while
// the shell runs. Other settings take effect on the next start.
func watchConfig(rt *Runtime) {
	if _, err := os.Stat(filepath.Dir(rt.ConfigPath)); err != nil {
		return
	}
	w, err := confloader.NewWatcher(confloader.WithWatcherLogger(rt.Logger.Slog()))
	if err != nil {
		rt.Logger.Debug("config watcher unavailable", "error", err)
		return
	}
	if err := w.Watch(rt.ConfigPath); err != nil {
		rt.Logger.Debug("not watching config", "path", rt.ConfigPath, "error", err)
		_ = w.Stop()
		return
	}

	w.OnChange(func(path string) {
		cfg, err := config.Load(path, false, rt.Flags.Overrides)
		if err != nil {
			rt.Logger.Warn("ignoring invalid config change", "path", path, "error", err)
			return
		}
		logger.SetLevel(cfg.Log.Level)
		rt.Logger.Info("config reloaded", "path", path, "log_level", cfg.Log.Level)
	})
	w.StartAsync()

	rt.Shutdown.OnShutdown(func(context.Context) error {
		return w.Stop()
	})
}
