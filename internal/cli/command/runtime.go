package command

import (
	"context"
	"errors"
	"io"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/catdesk-go/internal/cli/config"
	"github.com/yndnr/catdesk-go/internal/cli/connection"
	"github.com/yndnr/catdesk-go/internal/cli/output"
	"github.com/yndnr/catdesk-go/internal/core/domain"
	"github.com/yndnr/catdesk-go/internal/core/service"
	"github.com/yndnr/catdesk-go/internal/infra/buildinfo"
	"github.com/yndnr/catdesk-go/internal/infra/shutdown"
	"github.com/yndnr/catdesk-go/internal/navigation"
	"github.com/yndnr/catdesk-go/internal/storage"
	"github.com/yndnr/catdesk-go/internal/telemetry/logger"
	"github.com/yndnr/catdesk-go/internal/telemetry/metric"
)

// Runtime is everything a command needs for one invocation. It is built on
// first use and torn down by the App's After hook.
type Runtime struct {
	Config     *config.CLIConfig
	ConfigPath string
	Flags      *GlobalFlags
	Logger     logger.Logger

	Storage   storage.KVEngine
	Metrics   *metric.Registry
	Client    *connection.HTTPClient
	Session   *service.SessionStore
	Catalog   *service.CatalogStore
	Indicator *output.Indicator
	Routes    *navigation.Table
	Shutdown  *shutdown.Handler

	Out io.Writer
	Err io.Writer
}

// loadConfig resolves the effective configuration without opening storage.
func loadConfig(c *cli.Context) (*config.CLIConfig, *GlobalFlags, error) {
	flags := ParseGlobalFlags(c)
	cfg, err := config.Load(flags.ConfigPath, flags.ConfigPath != "", flags.Overrides)
	if err != nil {
		return nil, nil, err
	}
	return cfg, flags, nil
}

// requireRuntime returns the runtime for this invocation, building it on
// first use.
func requireRuntime(c *cli.Context) (*Runtime, error) {
	if rt, ok := c.App.Metadata[runtimeKey].(*Runtime); ok {
		return rt, nil
	}
	cfg, flags, err := loadConfig(c)
	if err != nil {
		return nil, err
	}
	rt, err := newRuntime(c.Context, cfg, flags, c.App.Writer, c.App.ErrWriter)
	if err != nil {
		return nil, err
	}
	c.App.Metadata[runtimeKey] = rt
	return rt, nil
}

func closeRuntime(ctx context.Context, c *cli.Context) error {
	rt, ok := c.App.Metadata[runtimeKey].(*Runtime)
	if !ok {
		return nil
	}
	delete(c.App.Metadata, runtimeKey)
	return rt.Close(ctx)
}

func newRuntime(ctx context.Context, cfg *config.CLIConfig, flags *GlobalFlags, out, errOut io.Writer) (*Runtime, error) {
	if out == nil {
		out = os.Stdout
	}
	if errOut == nil {
		errOut = os.Stderr
	}

	log := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: errOut,
	})
	logger.SetDefault(log)

	rt := &Runtime{
		Config:     cfg,
		ConfigPath: config.ExpandHome(flags.ConfigPath),
		Flags:      flags,
		Logger:     log,
		Metrics:    metric.NewRegistry(),
		Routes:     navigation.NewTable(navigation.DefaultRoutes()),
		Shutdown:   shutdown.NewHandler(10 * time.Second),
		Out:        out,
		Err:        errOut,
	}
	if rt.ConfigPath == "" {
		rt.ConfigPath = config.DefaultConfigPath()
	}

	kvCfg := storage.DefaultKVConfig(cfg.Storage.Dir)
	kvCfg.Engine = cfg.Storage.Engine
	kvCfg.Passphrase = cfg.Storage.Passphrase
	kvCfg.Redis.Addr = cfg.Storage.Redis.Addr
	kvCfg.Redis.Password = cfg.Storage.Redis.Password
	kvCfg.Redis.DB = cfg.Storage.Redis.DB
	kvCfg.Redis.Prefix = cfg.Storage.Redis.Prefix

	engine, err := storage.Open(kvCfg, log.Slog())
	if err != nil {
		return nil, domain.ErrStorage.WithDetails(err.Error()).WithCause(err)
	}
	rt.Storage = engine
	rt.Shutdown.OnShutdown(func(context.Context) error {
		return engine.Close()
	})
	if badger, ok := unwrapEngine(engine).(*storage.BadgerEngine); ok {
		badger.RegisterMetrics(rt.Metrics.Registerer())
	}

	userAgent := cfg.Client.UserAgent
	if userAgent == "" {
		userAgent = buildinfo.UserAgent()
	}
	rt.Client = connection.NewHTTPClient(cfg.Server, connection.Options{
		Timeout:   cfg.Client.Timeout,
		RateLimit: cfg.Client.RateLimit,
		UserAgent: userAgent,
		Logger:    log,
	})

	rt.Session = service.NewSessionStore(rt.Client, storage.NewLocalStorage(engine),
		service.WithSessionLogger(log),
		service.WithSessionObserver(rt.Metrics),
	)
	rt.Indicator = output.NewIndicator(errOut, cfg.Output == config.OutputTable && output.IsTerminal(errOut))
	rt.Catalog = service.NewCatalogStore(rt.Client, rt.Session,
		service.WithCatalogLogger(log),
		service.WithIndicator(rt.Indicator),
		service.WithCatalogObserver(rt.Metrics),
	)
	rt.Metrics.Registerer().MustRegister(metric.NewCollector(rt))

	if err := rt.restore(); err != nil {
		_ = rt.Close(ctx)
		return nil, err
	}
	return rt, nil
}

// restore adopts the persisted session. A corrupt session is discarded as
// if the user had logged out.
func (rt *Runtime) restore() error {
	err := rt.Session.RestoreSession()
	if errors.Is(err, domain.ErrSessionCorrupt) {
		rt.Logger.Warn("discarding corrupt stored session", "error", err)
		return rt.Session.Logout()
	}
	return err
}

// Close runs the shutdown hooks.
func (rt *Runtime) Close(ctx context.Context) error {
	return rt.Shutdown.Shutdown(ctx)
}

// ProductCount reports the size of the local product list.
func (rt *Runtime) ProductCount() int {
	return rt.Catalog.ProductCount()
}

// IsAuthenticated reports whether a session is held.
func (rt *Runtime) IsAuthenticated() bool {
	return rt.Session.IsAuthenticated()
}

// StorageStats reports the session storage engine's key count and size.
func (rt *Runtime) StorageStats(ctx context.Context) (*storage.KVStats, error) {
	return rt.Storage.Stats(ctx)
}

// Format returns the configured output format.
func (rt *Runtime) Format() output.Format {
	return output.Format(rt.Config.Output)
}

// Guard resolves path through the navigation guard. A redirect to the login
// view becomes ErrLoginRequired.
func (rt *Runtime) Guard(path string) (navigation.Route, error) {
	nav := navigation.NewNavigator(rt.Routes, rt.Session)
	route, redirected, err := nav.Resolve(path)
	if err != nil {
		return navigation.Route{}, err
	}
	if redirected && route.Path == navigation.PathLogin {
		return route, domain.ErrLoginRequired.WithDetails("run: " + buildinfo.ProductName + " auth login")
	}
	return route, nil
}

func unwrapEngine(e storage.KVEngine) storage.KVEngine {
	for {
		u, ok := e.(interface{ Unwrap() storage.KVEngine })
		if !ok {
			return e
		}
		e = u.Unwrap()
	}
}

func (rt *Runtime) formatter() output.Formatter {
	return output.NewFormatter(rt.Format(), rt.Flags.Wide)
}

// Print renders data in the configured format.
func (rt *Runtime) Print(data any) error {
	return rt.formatter().Format(rt.Out, data)
}

// PrintProducts renders a product list.
func (rt *Runtime) PrintProducts(products []domain.Product) error {
	if rt.Format() != output.FormatTable {
		return rt.Print(products)
	}
	if len(products) == 0 {
		_, err := io.WriteString(rt.Out, "No products.\n")
		return err
	}
	return output.ProductsTable(products, rt.Flags.Wide).Render(rt.Out)
}

// PrintProduct renders one product.
func (rt *Runtime) PrintProduct(p domain.Product) error {
	if rt.Format() != output.FormatTable {
		return rt.Print(p)
	}
	return output.ProductDetail(p).Render(rt.Out)
}
