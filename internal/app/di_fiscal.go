package app

import (
	"fmt"

	fiscalHTTP "github.com/allisson/pdvsync/internal/fiscal/http"
	fiscalRepository "github.com/allisson/pdvsync/internal/fiscal/repository"
	fiscalUseCase "github.com/allisson/pdvsync/internal/fiscal/usecase"
	"github.com/allisson/pdvsync/internal/gateway"
)

// GatewayAdapter returns the fiscal gateway client.
func (c *Container) GatewayAdapter() *gateway.Adapter {
	c.gatewayAdapterInit.Do(func() {
		c.gatewayAdapter = gateway.NewAdapter(gateway.Config{
			BaseURL:         c.config.FiscalGatewayURL,
			Environment:     gateway.Environment(c.config.FiscalGatewayEnvironment),
			Timeout:         c.config.FiscalGatewayTimeout,
			RateLimitPerSec: c.config.FiscalGatewayRateLimitPerSec,
			Burst:           c.config.FiscalGatewayBurst,
		}, c.Logger())
	})
	return c.gatewayAdapter
}

// FiscalLogRepository returns the fiscal log repository stored in the local cache file.
func (c *Container) FiscalLogRepository() (fiscalUseCase.LogRepository, error) {
	var err error
	c.fiscalLogRepositoryInit.Do(func() {
		c.fiscalLogRepository, err = c.initFiscalLogRepository()
		if err != nil {
			c.initErrors["fiscalLogRepository"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["fiscalLogRepository"]; exists {
		return nil, storedErr
	}
	return c.fiscalLogRepository, nil
}

// FiscalQueue returns the fiscal emission queue.
func (c *Container) FiscalQueue() (fiscalUseCase.QueueUseCase, error) {
	var err error
	c.fiscalQueueInit.Do(func() {
		c.fiscalQueue, err = c.initFiscalQueue()
		if err != nil {
			c.initErrors["fiscalQueue"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["fiscalQueue"]; exists {
		return nil, storedErr
	}
	return c.fiscalQueue, nil
}

// FiscalLogUseCase returns the fiscal log use case.
func (c *Container) FiscalLogUseCase() (fiscalUseCase.LogUseCase, error) {
	var err error
	c.fiscalLogUseCaseInit.Do(func() {
		c.fiscalLogUseCase, err = c.initFiscalLogUseCase()
		if err != nil {
			c.initErrors["fiscalLogUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["fiscalLogUseCase"]; exists {
		return nil, storedErr
	}
	return c.fiscalLogUseCase, nil
}

// StatusPoller returns the fiscal status poller, or nil when polling is disabled.
func (c *Container) StatusPoller() (*fiscalUseCase.StatusPoller, error) {
	var err error
	c.statusPollerInit.Do(func() {
		c.statusPoller, err = c.initStatusPoller()
		if err != nil {
			c.initErrors["statusPoller"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["statusPoller"]; exists {
		return nil, storedErr
	}
	return c.statusPoller, nil
}

// QueueHandler returns the fiscal queue HTTP handler.
func (c *Container) QueueHandler() (*fiscalHTTP.QueueHandler, error) {
	var err error
	c.queueHandlerInit.Do(func() {
		c.queueHandler, err = c.initQueueHandler()
		if err != nil {
			c.initErrors["queueHandler"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["queueHandler"]; exists {
		return nil, storedErr
	}
	return c.queueHandler, nil
}

// LogHandler returns the fiscal log HTTP handler.
func (c *Container) LogHandler() (*fiscalHTTP.LogHandler, error) {
	var err error
	c.logHandlerInit.Do(func() {
		c.logHandler, err = c.initLogHandler()
		if err != nil {
			c.initErrors["logHandler"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["logHandler"]; exists {
		return nil, storedErr
	}
	return c.logHandler, nil
}

// initFiscalLogRepository creates the SQLite fiscal log repository on the cache database.
func (c *Container) initFiscalLogRepository() (fiscalUseCase.LogRepository, error) {
	cacheStore, err := c.CacheStore()
	if err != nil {
		return nil, fmt.Errorf("failed to get local cache for fiscal log repository: %w", err)
	}
	return fiscalRepository.NewSQLiteLogRepository(cacheStore.DB()), nil
}

// initFiscalQueue creates the fiscal queue with all its dependencies.
func (c *Container) initFiscalQueue() (fiscalUseCase.QueueUseCase, error) {
	engine, err := c.Engine()
	if err != nil {
		return nil, fmt.Errorf("failed to get sync engine for fiscal queue: %w", err)
	}

	logRepository, err := c.FiscalLogRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get fiscal log repository for fiscal queue: %w", err)
	}

	baseQueue := fiscalUseCase.NewQueue(
		engine,
		c.GatewayAdapter(),
		c.ConnectivityBus(),
		logRepository,
		fiscalUseCase.Config{MaxAttempts: c.config.FiscalMaxAttempts},
		c.Logger(),
	)

	// Wrap with metrics if enabled
	if c.config.MetricsEnabled {
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return nil, fmt.Errorf("failed to get business metrics for fiscal queue: %w", err)
		}
		return fiscalUseCase.NewQueueWithMetrics(baseQueue, businessMetrics), nil
	}

	return baseQueue, nil
}

// initFiscalLogUseCase creates the fiscal log use case.
func (c *Container) initFiscalLogUseCase() (fiscalUseCase.LogUseCase, error) {
	logRepository, err := c.FiscalLogRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get fiscal log repository for fiscal log use case: %w", err)
	}
	return fiscalUseCase.NewLogUseCase(logRepository), nil
}

// initStatusPoller creates the poller when a poll interval is configured.
func (c *Container) initStatusPoller() (*fiscalUseCase.StatusPoller, error) {
	if c.config.FiscalStatusPollInterval <= 0 {
		return nil, nil
	}

	queue, err := c.FiscalQueue()
	if err != nil {
		return nil, fmt.Errorf("failed to get fiscal queue for status poller: %w", err)
	}
	return fiscalUseCase.NewStatusPoller(queue, c.config.FiscalStatusPollInterval, c.Logger()), nil
}

// initQueueHandler creates the fiscal queue HTTP handler.
func (c *Container) initQueueHandler() (*fiscalHTTP.QueueHandler, error) {
	queue, err := c.FiscalQueue()
	if err != nil {
		return nil, fmt.Errorf("failed to get fiscal queue for queue handler: %w", err)
	}
	return fiscalHTTP.NewQueueHandler(queue, c.Logger()), nil
}

// initLogHandler creates the fiscal log HTTP handler.
func (c *Container) initLogHandler() (*fiscalHTTP.LogHandler, error) {
	logUseCase, err := c.FiscalLogUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get fiscal log use case for log handler: %w", err)
	}
	return fiscalHTTP.NewLogHandler(logUseCase, c.Logger()), nil
}
