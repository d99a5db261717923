package usecase

import (
	"context"
	"log/slog"
	"time"

	fiscalDomain "github.com/allisson/pdvsync/internal/fiscal/domain"
)

// StatusPoller periodically checks PROCESSING items at the gateway. It only resolves
// outcomes the gateway already decided; it never emits or retries.
type StatusPoller struct {
	queue    QueueUseCase
	interval time.Duration
	logger   *slog.Logger
}

// NewStatusPoller creates a poller running every interval.
func NewStatusPoller(queue QueueUseCase, interval time.Duration, logger *slog.Logger) *StatusPoller {
	return &StatusPoller{
		queue:    queue,
		interval: interval,
		logger:   logger,
	}
}

// Start runs the polling loop until ctx is done.
func (p *StatusPoller) Start(ctx context.Context) error {
	p.logger.Info("starting fiscal status poller", slog.Duration("interval", p.interval))

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("stopping fiscal status poller")
			return ctx.Err()
		case <-ticker.C:
			if _, err := p.PollOnce(ctx); err != nil {
				p.logger.Error("failed to poll fiscal queue", slog.Any("error", err))
			}
		}
	}
}

// PollOnce checks every PROCESSING item once and returns how many left PROCESSING.
// Errors on single items are logged and do not stop the pass.
func (p *StatusPoller) PollOnce(ctx context.Context) (int, error) {
	status := fiscalDomain.StatusProcessing
	items, err := p.queue.GetQueue(ctx, &status)
	if err != nil {
		return 0, err
	}

	resolved := 0
	for _, item := range items {
		if ctx.Err() != nil {
			return resolved, ctx.Err()
		}
		updated, err := p.queue.PollQueueItem(ctx, item.OrderID)
		if err != nil {
			p.logger.Warn("failed to poll fiscal document status",
				slog.String("order_id", item.OrderID),
				slog.Any("error", err),
			)
			continue
		}
		if updated.Status != fiscalDomain.StatusProcessing {
			resolved++
		}
	}
	return resolved, nil
}
