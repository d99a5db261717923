// Package app provides dependency injection container for assembling application components.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/allisson/pdvsync/internal/cache"
	"github.com/allisson/pdvsync/internal/config"
	"github.com/allisson/pdvsync/internal/connectivity"
	"github.com/allisson/pdvsync/internal/database"
	fiscalHTTP "github.com/allisson/pdvsync/internal/fiscal/http"
	fiscalUseCase "github.com/allisson/pdvsync/internal/fiscal/usecase"
	"github.com/allisson/pdvsync/internal/gateway"
	"github.com/allisson/pdvsync/internal/http"
	"github.com/allisson/pdvsync/internal/metrics"
	"github.com/allisson/pdvsync/internal/remote"
	syncHTTP "github.com/allisson/pdvsync/internal/sync/http"
	syncUseCase "github.com/allisson/pdvsync/internal/sync/usecase"
)

// Container holds all application dependencies and provides methods to access them.
// It follows the lazy initialization pattern - components are created on first access.
// Components with a lifecycle are started by Start and stopped by Shutdown; nothing
// starts on construction.
type Container struct {
	// Configuration
	config *config.Config

	// Infrastructure
	logger          *slog.Logger
	cacheStore      *cache.Store
	remoteDB        *sql.DB
	remoteStore     syncUseCase.RemoteStore
	bus             *connectivity.Bus
	monitor         *connectivity.Monitor
	metricsProvider *metrics.Provider
	businessMetrics metrics.BusinessMetrics
	gatewayAdapter  *gateway.Adapter

	// Sync
	pendingQueue syncUseCase.PendingQueue
	syncEngine   *syncUseCase.SyncEngine
	engine       syncUseCase.Engine

	// Fiscal
	fiscalLogRepository fiscalUseCase.LogRepository
	fiscalQueue         fiscalUseCase.QueueUseCase
	fiscalLogUseCase    fiscalUseCase.LogUseCase
	statusPoller        *fiscalUseCase.StatusPoller

	// Handlers
	recordHandler *syncHTTP.RecordHandler
	syncHandler   *syncHTTP.SyncHandler
	queueHandler  *fiscalHTTP.QueueHandler
	logHandler    *fiscalHTTP.LogHandler

	// Servers
	httpServer    *http.Server
	metricsServer *http.MetricsServer

	// Background runners started by Start
	cancelBackground context.CancelFunc
	background       *errgroup.Group

	// Initialization flags and mutex for thread-safety
	mu                      sync.Mutex
	loggerInit              sync.Once
	cacheStoreInit          sync.Once
	remoteDBInit            sync.Once
	remoteStoreInit         sync.Once
	busInit                 sync.Once
	monitorInit             sync.Once
	metricsProviderInit     sync.Once
	businessMetricsInit     sync.Once
	gatewayAdapterInit      sync.Once
	pendingQueueInit        sync.Once
	syncEngineInit          sync.Once
	engineInit              sync.Once
	fiscalLogRepositoryInit sync.Once
	fiscalQueueInit         sync.Once
	fiscalLogUseCaseInit    sync.Once
	statusPollerInit        sync.Once
	recordHandlerInit       sync.Once
	syncHandlerInit         sync.Once
	queueHandlerInit        sync.Once
	logHandlerInit          sync.Once
	httpServerInit          sync.Once
	metricsServerInit       sync.Once
	initErrors              map[string]error
}

// NewContainer creates a new dependency injection container with the provided configuration.
func NewContainer(cfg *config.Config) *Container {
	return &Container{
		config:     cfg,
		initErrors: make(map[string]error),
	}
}

// Config returns the application configuration.
func (c *Container) Config() *config.Config {
	return c.config
}

// Logger returns the configured logger instance.
// It creates a new logger on first access based on the log level in configuration.
func (c *Container) Logger() *slog.Logger {
	c.loggerInit.Do(func() {
		c.logger = c.initLogger()
	})
	return c.logger
}

// CacheStore returns the local cache, creating and migrating the SQLite file on first access.
func (c *Container) CacheStore() (*cache.Store, error) {
	var err error
	c.cacheStoreInit.Do(func() {
		c.cacheStore, err = c.initCacheStore()
		if err != nil {
			c.initErrors["cacheStore"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["cacheStore"]; exists {
		return nil, storedErr
	}
	return c.cacheStore, nil
}

// RemoteDB returns the connection pool of the remote store. It does not require the
// remote store to be reachable.
func (c *Container) RemoteDB() (*sql.DB, error) {
	var err error
	c.remoteDBInit.Do(func() {
		c.remoteDB, err = c.initRemoteDB()
		if err != nil {
			c.initErrors["remoteDB"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["remoteDB"]; exists {
		return nil, storedErr
	}
	return c.remoteDB, nil
}

// RemoteStore returns the remote authoritative store for the configured driver.
func (c *Container) RemoteStore() (syncUseCase.RemoteStore, error) {
	var err error
	c.remoteStoreInit.Do(func() {
		c.remoteStore, err = c.initRemoteStore()
		if err != nil {
			c.initErrors["remoteStore"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["remoteStore"]; exists {
		return nil, storedErr
	}
	return c.remoteStore, nil
}

// ConnectivityBus returns the connectivity event bus. It starts offline; the session
// starts signed in unless authentication is required.
func (c *Container) ConnectivityBus() *connectivity.Bus {
	c.busInit.Do(func() {
		c.bus = connectivity.NewBus(connectivity.State{
			Online:        false,
			Authenticated: !c.config.AuthRequired,
		}, c.Logger())
	})
	return c.bus
}

// ConnectivityMonitor returns the remote reachability monitor.
func (c *Container) ConnectivityMonitor() (*connectivity.Monitor, error) {
	var err error
	c.monitorInit.Do(func() {
		c.monitor, err = c.initConnectivityMonitor()
		if err != nil {
			c.initErrors["monitor"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["monitor"]; exists {
		return nil, storedErr
	}
	return c.monitor, nil
}

// MetricsProvider returns the metrics provider, or nil when metrics are disabled.
func (c *Container) MetricsProvider() (*metrics.Provider, error) {
	var err error
	c.metricsProviderInit.Do(func() {
		c.metricsProvider, err = c.initMetricsProvider()
		if err != nil {
			c.initErrors["metricsProvider"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["metricsProvider"]; exists {
		return nil, storedErr
	}
	return c.metricsProvider, nil
}

// BusinessMetrics returns the business metrics recorder. It is a no-op when metrics are disabled.
func (c *Container) BusinessMetrics() (metrics.BusinessMetrics, error) {
	var err error
	c.businessMetricsInit.Do(func() {
		c.businessMetrics, err = c.initBusinessMetrics()
		if err != nil {
			c.initErrors["businessMetrics"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["businessMetrics"]; exists {
		return nil, storedErr
	}
	return c.businessMetrics, nil
}

// HTTPServer returns the HTTP server instance with its router configured.
func (c *Container) HTTPServer() (*http.Server, error) {
	var err error
	c.httpServerInit.Do(func() {
		c.httpServer, err = c.initHTTPServer()
		if err != nil {
			c.initErrors["httpServer"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["httpServer"]; exists {
		return nil, storedErr
	}
	return c.httpServer, nil
}

// MetricsServer returns the metrics server, or nil when metrics are disabled.
func (c *Container) MetricsServer() (*http.MetricsServer, error) {
	var err error
	c.metricsServerInit.Do(func() {
		c.metricsServer, err = c.initMetricsServer()
		if err != nil {
			c.initErrors["metricsServer"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["metricsServer"]; exists {
		return nil, storedErr
	}
	return c.metricsServer, nil
}

// Start starts the sync engine and the background runners: the connectivity monitor
// and, when configured, the fiscal status poller. Servers are started by the caller.
func (c *Container) Start(ctx context.Context) error {
	engine, err := c.SyncEngine()
	if err != nil {
		return fmt.Errorf("failed to get sync engine: %w", err)
	}
	monitor, err := c.ConnectivityMonitor()
	if err != nil {
		return fmt.Errorf("failed to get connectivity monitor: %w", err)
	}
	poller, err := c.StatusPoller()
	if err != nil {
		return fmt.Errorf("failed to get fiscal status poller: %w", err)
	}

	if err := engine.Start(ctx); err != nil {
		return fmt.Errorf("failed to start sync engine: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	bgCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	group, bgCtx := errgroup.WithContext(bgCtx)
	c.cancelBackground = cancel
	c.background = group

	group.Go(func() error {
		return ignoreCanceled(monitor.Start(bgCtx))
	})
	if poller != nil {
		group.Go(func() error {
			return ignoreCanceled(poller.Start(bgCtx))
		})
	}

	return nil
}

// Shutdown performs cleanup of all initialized resources in reverse dependency order.
// It should be called when the application is shutting down.
func (c *Container) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var shutdownErrors []error

	if c.httpServer != nil {
		if err := c.httpServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("http server shutdown: %w", err))
		}
	}

	if c.metricsServer != nil {
		if err := c.metricsServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics server shutdown: %w", err))
		}
	}

	if c.cancelBackground != nil {
		c.cancelBackground()
		if err := c.background.Wait(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("background runners: %w", err))
		}
		c.cancelBackground = nil
	}

	if c.syncEngine != nil {
		if err := c.syncEngine.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("sync engine shutdown: %w", err))
		}
	}

	if c.gatewayAdapter != nil {
		if err := c.gatewayAdapter.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("fiscal gateway close: %w", err))
		}
	}

	if c.metricsProvider != nil {
		if err := c.metricsProvider.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics provider shutdown: %w", err))
		}
	}

	if c.cacheStore != nil {
		if err := c.cacheStore.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("cache close: %w", err))
		}
	}

	if c.remoteDB != nil {
		if err := c.remoteDB.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("remote database close: %w", err))
		}
	}

	if len(shutdownErrors) > 0 {
		return fmt.Errorf("shutdown errors: %w", errors.Join(shutdownErrors...))
	}

	return nil
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// initLogger creates and configures a structured logger based on the log level.
func (c *Container) initLogger() *slog.Logger {
	var logLevel slog.Level
	switch c.config.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})

	return slog.New(handler)
}

// initCacheStore opens the local cache file.
func (c *Container) initCacheStore() (*cache.Store, error) {
	store, err := cache.Open(
		context.Background(),
		c.config.LocalCachePath,
		cache.WithTimeout(c.config.SyncStoreTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to open local cache: %w", err)
	}
	return store, nil
}

// initRemoteDB opens the remote store pool without pinging it.
func (c *Container) initRemoteDB() (*sql.DB, error) {
	db, err := database.Open(database.Config{
		Driver:             c.config.DBDriver,
		ConnectionString:   c.config.DBConnectionString,
		MaxOpenConnections: c.config.DBMaxOpenConnections,
		MaxIdleConnections: c.config.DBMaxIdleConnections,
		ConnMaxLifetime:    c.config.DBConnMaxLifetime,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open remote database: %w", err)
	}
	return db, nil
}

// initRemoteStore selects the remote store implementation for the database driver.
func (c *Container) initRemoteStore() (syncUseCase.RemoteStore, error) {
	switch c.config.DBDriver {
	case database.DriverMySQL, database.DriverPostgres:
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}

	db, err := c.RemoteDB()
	if err != nil {
		return nil, fmt.Errorf("failed to get remote database for remote store: %w", err)
	}

	txManager := database.NewTxManager(db)
	bus := c.ConnectivityBus()
	logger := c.Logger()

	if c.config.DBDriver == database.DriverMySQL {
		return remote.NewMySQLStore(db, txManager, bus, c.config.SyncRemotePollInterval, logger), nil
	}
	return remote.NewPostgreSQLStore(db, txManager, bus, c.config.SyncRemotePollInterval, logger), nil
}

// initConnectivityMonitor creates the reachability monitor against the remote pool.
func (c *Container) initConnectivityMonitor() (*connectivity.Monitor, error) {
	db, err := c.RemoteDB()
	if err != nil {
		return nil, fmt.Errorf("failed to get remote database for connectivity monitor: %w", err)
	}

	return connectivity.NewMonitor(
		db,
		c.ConnectivityBus(),
		c.config.ConnectivityCheckInterval,
		c.config.SyncStoreTimeout,
		c.Logger(),
	), nil
}

// initMetricsProvider creates the Prometheus-backed provider when metrics are enabled.
func (c *Container) initMetricsProvider() (*metrics.Provider, error) {
	if !c.config.MetricsEnabled {
		return nil, nil
	}

	provider, err := metrics.NewProvider(c.config.MetricsNamespace)
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics provider: %w", err)
	}

	pendingQueue, err := c.PendingQueue()
	if err != nil {
		return nil, fmt.Errorf("failed to get pending queue for metrics provider: %w", err)
	}
	bus := c.ConnectivityBus()

	err = provider.RegisterGauge(
		"sync_pending_operations",
		"Remote writes deferred while the remote store was unreachable",
		func(ctx context.Context) (int64, error) {
			n, err := pendingQueue.Len(ctx)
			return int64(n), err
		},
	)
	if err != nil {
		return nil, err
	}

	err = provider.RegisterGauge(
		"sync_remote_reachable",
		"1 while the remote store is online and the session is authenticated",
		func(context.Context) (int64, error) {
			if bus.Reachable() {
				return 1, nil
			}
			return 0, nil
		},
	)
	if err != nil {
		return nil, err
	}
	return provider, nil
}

// initBusinessMetrics creates the business metrics recorder.
func (c *Container) initBusinessMetrics() (metrics.BusinessMetrics, error) {
	provider, err := c.MetricsProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics provider for business metrics: %w", err)
	}
	if provider == nil {
		return metrics.NewNoOpBusinessMetrics(), nil
	}

	businessMetrics, err := metrics.NewBusinessMetrics(provider.MeterProvider(), c.config.MetricsNamespace)
	if err != nil {
		return nil, fmt.Errorf("failed to create business metrics: %w", err)
	}
	return businessMetrics, nil
}

// initHTTPServer creates the HTTP server and registers every route.
func (c *Container) initHTTPServer() (*http.Server, error) {
	cacheStore, err := c.CacheStore()
	if err != nil {
		return nil, fmt.Errorf("failed to get local cache for http server: %w", err)
	}

	recordHandler, err := c.RecordHandler()
	if err != nil {
		return nil, fmt.Errorf("failed to get record handler for http server: %w", err)
	}

	syncHandler, err := c.SyncHandler()
	if err != nil {
		return nil, fmt.Errorf("failed to get sync handler for http server: %w", err)
	}

	queueHandler, err := c.QueueHandler()
	if err != nil {
		return nil, fmt.Errorf("failed to get queue handler for http server: %w", err)
	}

	logHandler, err := c.LogHandler()
	if err != nil {
		return nil, fmt.Errorf("failed to get log handler for http server: %w", err)
	}

	metricsProvider, err := c.MetricsProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics provider for http server: %w", err)
	}

	server := http.NewServer(
		cacheStore.DB(),
		c.config.ServerHost,
		c.config.ServerPort,
		c.Logger(),
		http.WithConnectivity(c.ConnectivityBus()),
	)
	server.SetupRouter(c.config, recordHandler, syncHandler, queueHandler, logHandler, metricsProvider)

	return server, nil
}

// initMetricsServer creates the metrics server when metrics are enabled.
func (c *Container) initMetricsServer() (*http.MetricsServer, error) {
	provider, err := c.MetricsProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics provider for metrics server: %w", err)
	}
	if provider == nil {
		return nil, nil
	}

	return http.NewMetricsServer(c.config.ServerHost, c.config.MetricsPort, c.Logger(), provider), nil
}
