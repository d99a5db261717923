package app

import (
	"fmt"

	"github.com/allisson/pdvsync/internal/cache"
	"github.com/allisson/pdvsync/internal/database"
	syncHTTP "github.com/allisson/pdvsync/internal/sync/http"
	syncUseCase "github.com/allisson/pdvsync/internal/sync/usecase"
)

// PendingQueue returns the pending operation list: durable in the cache file or
// in-memory for the current process, depending on configuration.
func (c *Container) PendingQueue() (syncUseCase.PendingQueue, error) {
	var err error
	c.pendingQueueInit.Do(func() {
		c.pendingQueue, err = c.initPendingQueue()
		if err != nil {
			c.initErrors["pendingQueue"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["pendingQueue"]; exists {
		return nil, storedErr
	}
	return c.pendingQueue, nil
}

// SyncEngine returns the undecorated sync engine. Its lifecycle is driven by Start and Shutdown.
func (c *Container) SyncEngine() (*syncUseCase.SyncEngine, error) {
	var err error
	c.syncEngineInit.Do(func() {
		c.syncEngine, err = c.initSyncEngine()
		if err != nil {
			c.initErrors["syncEngine"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["syncEngine"]; exists {
		return nil, storedErr
	}
	return c.syncEngine, nil
}

// Engine returns the sync engine used by handlers and the fiscal queue.
func (c *Container) Engine() (syncUseCase.Engine, error) {
	var err error
	c.engineInit.Do(func() {
		c.engine, err = c.initEngine()
		if err != nil {
			c.initErrors["engine"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["engine"]; exists {
		return nil, storedErr
	}
	return c.engine, nil
}

// RecordHandler returns the collection record HTTP handler.
func (c *Container) RecordHandler() (*syncHTTP.RecordHandler, error) {
	var err error
	c.recordHandlerInit.Do(func() {
		c.recordHandler, err = c.initRecordHandler()
		if err != nil {
			c.initErrors["recordHandler"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["recordHandler"]; exists {
		return nil, storedErr
	}
	return c.recordHandler, nil
}

// SyncHandler returns the sync control HTTP handler.
func (c *Container) SyncHandler() (*syncHTTP.SyncHandler, error) {
	var err error
	c.syncHandlerInit.Do(func() {
		c.syncHandler, err = c.initSyncHandler()
		if err != nil {
			c.initErrors["syncHandler"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["syncHandler"]; exists {
		return nil, storedErr
	}
	return c.syncHandler, nil
}

// initPendingQueue selects the pending operation list implementation.
func (c *Container) initPendingQueue() (syncUseCase.PendingQueue, error) {
	if !c.config.PendingOperationsDurable {
		c.Logger().Warn("pending operations are kept in memory and lost on restart")
		return syncUseCase.NewMemoryPendingQueue(), nil
	}

	cacheStore, err := c.CacheStore()
	if err != nil {
		return nil, fmt.Errorf("failed to get local cache for pending queue: %w", err)
	}
	return cache.NewPendingLog(cacheStore), nil
}

// initSyncEngine creates the sync engine with all its dependencies.
func (c *Container) initSyncEngine() (*syncUseCase.SyncEngine, error) {
	cacheStore, err := c.CacheStore()
	if err != nil {
		return nil, fmt.Errorf("failed to get local cache for sync engine: %w", err)
	}

	remoteStore, err := c.RemoteStore()
	if err != nil {
		return nil, fmt.Errorf("failed to get remote store for sync engine: %w", err)
	}

	pendingQueue, err := c.PendingQueue()
	if err != nil {
		return nil, fmt.Errorf("failed to get pending queue for sync engine: %w", err)
	}

	return syncUseCase.NewSyncEngine(
		cacheStore,
		remoteStore,
		pendingQueue,
		c.ConnectivityBus(),
		syncUseCase.Config{
			StoreTimeout:  c.config.SyncStoreTimeout,
			RetryInterval: c.config.SyncRetryInterval,
			CacheTx:       database.NewTxManager(cacheStore.DB()),
		},
		c.Logger(),
	), nil
}

// initEngine wraps the sync engine with metrics if enabled.
func (c *Container) initEngine() (syncUseCase.Engine, error) {
	syncEngine, err := c.SyncEngine()
	if err != nil {
		return nil, fmt.Errorf("failed to get sync engine: %w", err)
	}

	if c.config.MetricsEnabled {
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return nil, fmt.Errorf("failed to get business metrics for sync engine: %w", err)
		}
		return syncUseCase.NewEngineWithMetrics(syncEngine, businessMetrics), nil
	}

	return syncEngine, nil
}

// initRecordHandler creates the record HTTP handler.
func (c *Container) initRecordHandler() (*syncHTTP.RecordHandler, error) {
	engine, err := c.Engine()
	if err != nil {
		return nil, fmt.Errorf("failed to get sync engine for record handler: %w", err)
	}

	return syncHTTP.NewRecordHandler(engine, c.Logger()), nil
}

// initSyncHandler creates the sync control HTTP handler.
func (c *Container) initSyncHandler() (*syncHTTP.SyncHandler, error) {
	engine, err := c.Engine()
	if err != nil {
		return nil, fmt.Errorf("failed to get sync engine for sync handler: %w", err)
	}

	return syncHTTP.NewSyncHandler(engine, c.ConnectivityBus(), c.Logger()), nil
}
