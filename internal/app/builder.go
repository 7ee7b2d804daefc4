package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/netip"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/tvbox-mirror/feed-mirror/internal/api"
	"github.com/tvbox-mirror/feed-mirror/internal/config"
	"github.com/tvbox-mirror/feed-mirror/internal/httpclient"
	"github.com/tvbox-mirror/feed-mirror/internal/mirror"
	"github.com/tvbox-mirror/feed-mirror/internal/publisher"
	"github.com/tvbox-mirror/feed-mirror/internal/sources"
	"github.com/tvbox-mirror/feed-mirror/internal/status"
	pkgsync "github.com/tvbox-mirror/feed-mirror/internal/sync"
	"github.com/tvbox-mirror/feed-mirror/internal/sync/coordinator"
	"github.com/tvbox-mirror/feed-mirror/internal/telemetry"
	"github.com/tvbox-mirror/feed-mirror/internal/versions"
)

const (
	defaultHTTPAddress    = ":8080"
	defaultRequestTimeout = 10 * time.Second
	defaultReadTimeout    = 10 * time.Second
	defaultWriteTimeout   = 15 * time.Second
	defaultIdleTimeout    = 60 * time.Second

	// instrumentationName names the tracer used by the sync pipeline
	instrumentationName = "github.com/tvbox-mirror/feed-mirror"
)

// AppOption is a function that configures the application builder
type AppOption func(*appConfig) error

// appConfig collects builder inputs.
// Component overrides are primarily for testing.
type appConfig struct {
	config    *config.Config
	outputDir string

	httpClient     httpclient.Client
	storageManager publisher.StorageManager
	syncManager    pkgsync.Manager
	gitCommitter   publisher.GitCommitter
	telemetry      *telemetry.Telemetry

	// HTTP server options
	address        string
	middlewares    []func(http.Handler) http.Handler
	requestTimeout time.Duration
	readTimeout    time.Duration
	writeTimeout   time.Duration
	idleTimeout    time.Duration
}

func baseConfig(opts ...AppOption) (*appConfig, error) {
	cfg := &appConfig{
		address:        defaultHTTPAddress,
		requestTimeout: defaultRequestTimeout,
		readTimeout:    defaultReadTimeout,
		writeTimeout:   defaultWriteTimeout,
		idleTimeout:    defaultIdleTimeout,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// NewMirrorApp builds the application that performs one mirror run
func NewMirrorApp(ctx context.Context, opts ...AppOption) (*MirrorApp, error) {
	cfg, err := baseConfig(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to build base configuration: %w", err)
	}
	if cfg.config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	tel, err := buildTelemetry(ctx, cfg)
	if err != nil {
		return nil, err
	}

	runCoordinator, err := buildSyncComponents(cfg, tel)
	if err != nil {
		_ = tel.Shutdown(ctx)
		return nil, fmt.Errorf("failed to build sync components: %w", err)
	}

	return &MirrorApp{
		config: cfg.config,
		components: &AppComponents{
			Coordinator: runCoordinator,
			Telemetry:   tel,
		},
	}, nil
}

// NewServerApp builds the application that serves an output directory over HTTP
func NewServerApp(ctx context.Context, opts ...AppOption) (*ServerApp, error) {
	cfg, err := baseConfig(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to build base configuration: %w", err)
	}
	if cfg.outputDir == "" {
		if cfg.config == nil {
			return nil, fmt.Errorf("output directory cannot be empty")
		}
		cfg.outputDir = cfg.config.GetOutputDir()
	}

	tel, err := buildTelemetry(ctx, cfg)
	if err != nil {
		return nil, err
	}

	httpServer, err := buildHTTPServer(cfg, tel)
	if err != nil {
		_ = tel.Shutdown(ctx)
		return nil, fmt.Errorf("failed to build HTTP server: %w", err)
	}

	return &ServerApp{
		components: &AppComponents{Telemetry: tel},
		httpServer: httpServer,
	}, nil
}

// WithConfig sets the configuration
func WithConfig(c *config.Config) AppOption {
	return func(cfg *appConfig) error {
		cfg.config = c
		return nil
	}
}

// WithOutputDir sets the directory served by the server app
func WithOutputDir(dir string) AppOption {
	return func(cfg *appConfig) error {
		if dir == "" {
			return fmt.Errorf("output directory cannot be empty")
		}
		cfg.outputDir = dir
		return nil
	}
}

// WithAddress sets the HTTP server address
func WithAddress(addr string) AppOption {
	return func(cfg *appConfig) error {
		if addr == "" {
			return fmt.Errorf("address cannot be empty")
		}

		host, port, found := strings.Cut(addr, ":")
		if !found || port == "" {
			return fmt.Errorf("address is not a valid port: %s", addr)
		}
		if host == "localhost" {
			host = "127.0.0.1"
		}
		if host == "" {
			host = "0.0.0.0"
		}

		if _, err := netip.ParseAddrPort(host + ":" + port); err != nil {
			return fmt.Errorf("address is not a valid port: %w", err)
		}

		cfg.address = addr
		return nil
	}
}

// WithMiddlewares sets custom HTTP middlewares
func WithMiddlewares(mw ...func(http.Handler) http.Handler) AppOption {
	return func(cfg *appConfig) error {
		cfg.middlewares = mw
		return nil
	}
}

// WithHTTPClient allows injecting the client used to fetch feeds and assets
func WithHTTPClient(c httpclient.Client) AppOption {
	return func(cfg *appConfig) error {
		cfg.httpClient = c
		return nil
	}
}

// WithStorageManager allows injecting a custom storage manager (for testing)
func WithStorageManager(sm publisher.StorageManager) AppOption {
	return func(cfg *appConfig) error {
		cfg.storageManager = sm
		return nil
	}
}

// WithSyncManager allows injecting a custom sync manager (for testing)
func WithSyncManager(sm pkgsync.Manager) AppOption {
	return func(cfg *appConfig) error {
		cfg.syncManager = sm
		return nil
	}
}

// WithGitCommitter allows injecting the committer used when git publishing is enabled
func WithGitCommitter(gc publisher.GitCommitter) AppOption {
	return func(cfg *appConfig) error {
		cfg.gitCommitter = gc
		return nil
	}
}

// WithTelemetry allows injecting pre-built telemetry providers
func WithTelemetry(t *telemetry.Telemetry) AppOption {
	return func(cfg *appConfig) error {
		cfg.telemetry = t
		return nil
	}
}

func buildTelemetry(ctx context.Context, b *appConfig) (*telemetry.Telemetry, error) {
	if b.telemetry != nil {
		return b.telemetry, nil
	}

	var telCfg *telemetry.Config
	if b.config != nil {
		telCfg = b.config.Telemetry
	}

	tel, err := telemetry.New(ctx,
		telemetry.WithTelemetryConfig(telCfg),
		telemetry.WithDefaultServiceVersion(versions.GetVersionInfo().Version),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	return tel, nil
}

// buildSyncComponents builds the fetch, mirror and publish pipeline behind the coordinator
func buildSyncComponents(b *appConfig, tel *telemetry.Telemetry) (coordinator.Coordinator, error) {
	slog.Info("Initializing sync components")

	if b.httpClient == nil {
		b.httpClient = httpclient.NewDefaultClient(b.config.GetConnectTimeout(), b.config.GetReadTimeout())
	}

	if b.storageManager == nil {
		b.storageManager = publisher.NewOSStorageManager(b.config.GetOutputDir(), b.config.MirrorBaseURL)
	}

	tracer := tel.Tracer(instrumentationName)

	if b.syncManager == nil {
		syncMetrics, err := telemetry.NewSyncMetrics(tel.MeterProvider())
		if err != nil {
			return nil, fmt.Errorf("failed to create sync metrics: %w", err)
		}

		b.syncManager = pkgsync.NewDefaultSyncManager(
			sources.NewSourceHandlerFactory(b.httpClient),
			b.storageManager,
			mirror.NewDefaultAssetMirror(b.httpClient, b.storageManager),
			pkgsync.WithSyncMetrics(syncMetrics),
			pkgsync.WithTracer(tracer),
		)
	}

	coordOpts := []coordinator.Option{
		coordinator.WithTracer(tracer),
		coordinator.WithStatusPersistence(status.NewOSStatusPersistence(b.config.GetOutputDir())),
	}
	if b.config.GitPublishEnabled() {
		git := b.config.Publish.Git
		if b.gitCommitter == nil {
			b.gitCommitter = publisher.NewDefaultGitCommitter(b.config.GetOutputDir(), publisher.CommitAuthor{
				Name:  git.GetAuthorName(),
				Email: git.GetAuthorEmail(),
			})
		}
		coordOpts = append(coordOpts, coordinator.WithGitCommitter(b.gitCommitter, git.GetMessage()))
		slog.Info("Git publishing enabled", "outputDir", b.config.GetOutputDir())
	}

	runCoordinator := coordinator.New(b.syncManager, b.storageManager, b.config, coordOpts...)
	slog.Info("Sync components initialized successfully")

	return runCoordinator, nil
}

// buildHTTPServer builds the HTTP server with router and middleware
func buildHTTPServer(b *appConfig, tel *telemetry.Telemetry) (*http.Server, error) {
	slog.Info("Initializing HTTP server")

	if b.middlewares == nil {
		b.middlewares = []func(http.Handler) http.Handler{
			middleware.RequestID,
			middleware.RealIP,
			middleware.Recoverer,
			middleware.Timeout(b.requestTimeout),
			api.LoggingMiddleware,
		}
	}

	serverOpts := []api.ServerOption{}
	if tel != nil {
		metricsMiddleware, err := telemetry.MetricsMiddleware(tel.MeterProvider())
		if err != nil {
			return nil, fmt.Errorf("failed to create metrics middleware: %w", err)
		}
		// Metrics and tracing go first so every request is observed
		b.middlewares = append([]func(http.Handler) http.Handler{
			metricsMiddleware,
			telemetry.TracingMiddleware(tel.TracerProvider()),
		}, b.middlewares...)
		serverOpts = append(serverOpts, api.WithMetricsHandler(tel.MetricsHandler()))
	}
	serverOpts = append(serverOpts, api.WithMiddlewares(b.middlewares...))

	router := api.NewServer(b.outputDir, serverOpts...)

	server := &http.Server{
		Addr:         b.address,
		Handler:      router,
		ReadTimeout:  b.readTimeout,
		WriteTimeout: b.writeTimeout,
		IdleTimeout:  b.idleTimeout,
	}

	slog.Info("HTTP server configured", "address", b.address, "outputDir", b.outputDir)
	return server, nil
}
