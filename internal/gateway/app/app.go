package app

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"opendart/internal/corpcode"
	"opendart/internal/dart"
	"opendart/internal/gateway/config"
	"opendart/internal/gateway/handler"
	"opendart/internal/gateway/handler/rpc"
	"opendart/internal/gateway/server"
	"opendart/internal/mcp"
	"opendart/internal/platform/metrics"
)

// App wires configuration, the corp code directory, the upstream client
// and the tool registry.
type App struct {
	cfg      *config.Config
	log      logrus.FieldLogger
	fs       afero.Fs
	metrics  *metrics.Metrics
	gatherer prometheus.Gatherer

	Client   *dart.Client
	Store    *corpcode.Store
	Acquirer *corpcode.Acquirer
	Resolver *corpcode.Resolver
	Registry *mcp.Registry

	server *server.Server
}

// Options override collaborators, mainly for tests.
type Options struct {
	Fs         afero.Fs
	HTTPClient *http.Client
}

func New(cfg *config.Config, log logrus.FieldLogger, opts Options) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("app: config is required")
	}
	if log == nil {
		log = logrus.StandardLogger()
	}

	// Dependencies
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	client := dart.New(dart.Config{
		APIKey:     cfg.APIKey,
		BaseURL:    cfg.BaseURL,
		Timeout:    cfg.RequestTimeout,
		HTTPClient: opts.HTTPClient,
		Logger:     log,
		Metrics:    m,
	})
	store := corpcode.NewStore(opts.Fs, cfg.CorpCodePaths()...)
	acquirer := newAcquirer(cfg, store, client, log, m)
	resolver := corpcode.NewResolver(corpcode.ResolverConfig{Store: store, Logger: log, Metrics: m})

	registry := mcp.NewRegistry()
	registry.Instrument(log, m)
	mcp.RegisterDefaultTools(registry, mcp.Host{Resolver: resolver, DART: client})

	a := &App{
		cfg:      cfg,
		log:      log,
		fs:       opts.Fs,
		metrics:  m,
		gatherer: reg,
		Client:   client,
		Store:    store,
		Acquirer: acquirer,
		Resolver: resolver,
		Registry: registry,
	}

	// Routing & Server
	a.server = server.New(cfg.Addr, a.Handler(), log)
	return a, nil
}

func newAcquirer(cfg *config.Config, store *corpcode.Store, client *dart.Client, log logrus.FieldLogger, m *metrics.Metrics) *corpcode.Acquirer {
	return corpcode.NewAcquirer(corpcode.AcquirerConfig{
		Store:          store,
		Downloader:     client,
		Attempts:       cfg.DownloadAttempts,
		AttemptTimeout: cfg.DownloadTimeout,
		Delay:          cfg.DownloadDelay,
		Logger:         log,
		Metrics:        m,
	})
}

// UpdateCorpCodes downloads and rebuilds the directory file and returns the
// path it wrote. The user cache is the default target; toData writes the
// project-local data file instead. The cache is read first, so a data file
// only takes effect where no cache file exists.
func (a *App) UpdateCorpCodes(ctx context.Context, toData bool) (corpcode.BuildStats, string, error) {
	if !toData {
		var path string
		if paths := a.Store.Paths(); len(paths) > 0 {
			path = paths[0]
		}
		stats, err := a.Acquirer.Refresh(ctx)
		return stats, path, err
	}
	if a.cfg.DataPath == "" {
		return corpcode.BuildStats{}, "", fmt.Errorf("app: data_path is not configured")
	}
	target := corpcode.NewStore(a.fs, a.cfg.DataPath)
	stats, err := newAcquirer(a.cfg, target, a.Client, a.log, a.metrics).Refresh(ctx)
	return stats, a.cfg.DataPath, err
}

// Prepare makes sure a directory file exists before serving. Failures are
// logged by the acquirer and never stop startup.
func (a *App) Prepare(ctx context.Context) corpcode.Outcome {
	return a.Acquirer.Ensure(ctx)
}

// Handler builds the HTTP surface.
func (a *App) Handler() http.Handler {
	return server.NewMux(server.Handlers{
		Tools:    handler.NewToolsHandler(a.Registry, a.log),
		Health:   handler.NewHealthHandler(a.Resolver),
		RPC:      rpc.NewToolHandler(a.Registry),
		Stream:   rpc.NewToolStreamHandler(a.Registry, a.log),
		Gatherer: a.gatherer,
	}, a.log)
}

// Start serves on the configured address until Shutdown.
func (a *App) Start() error {
	return a.server.Start()
}

// Serve is Start on an existing listener.
func (a *App) Serve(ln net.Listener) error {
	return a.server.Serve(ln)
}

func (a *App) Shutdown(ctx context.Context) error {
	return a.server.Shutdown(ctx)
}

// ServeLines runs the stdio transport.
func (a *App) ServeLines(ctx context.Context, in io.Reader, out io.Writer) error {
	return handler.ServeLines(ctx, a.Registry, in, out, a.log)
}
