package connectivity

import (
	"context"
	"log/slog"
	"time"
)

// Pinger pings the remote store. *sql.DB satisfies it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Monitor periodically pings the remote store and publishes online/offline
// transitions on the bus.
type Monitor struct {
	pinger   Pinger
	bus      *Bus
	interval time.Duration
	timeout  time.Duration
	logger   *slog.Logger
}

// NewMonitor creates a connectivity monitor. Each ping is bounded by timeout.
func NewMonitor(pinger Pinger, bus *Bus, interval, timeout time.Duration, logger *slog.Logger) *Monitor {
	return &Monitor{
		pinger:   pinger,
		bus:      bus,
		interval: interval,
		timeout:  timeout,
		logger:   logger,
	}
}

// Check runs a single ping and publishes the result. Returns the ping outcome.
func (m *Monitor) Check(ctx context.Context) bool {
	pingCtx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	if err := m.pinger.PingContext(pingCtx); err != nil {
		if m.bus.IsOnline() && m.logger != nil {
			m.logger.Warn("remote store unreachable", slog.Any("error", err))
		}
		m.bus.Publish(Event{Type: EventOffline})
		return false
	}

	m.bus.Publish(Event{Type: EventOnline})
	return true
}

// Start pings immediately and then on every tick until ctx is cancelled.
func (m *Monitor) Start(ctx context.Context) error {
	if m.logger != nil {
		m.logger.Info("starting connectivity monitor", slog.Duration("interval", m.interval))
	}

	m.Check(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if m.logger != nil {
				m.logger.Info("stopping connectivity monitor")
			}
			return ctx.Err()
		case <-ticker.C:
			m.Check(ctx)
		}
	}
}
