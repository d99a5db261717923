package remote

import (
	"context"
	"log/slog"
	"time"

	entityDomain "github.com/allisson/pdvsync/internal/entity/domain"
)

// Subscription is a running change feed. Close stops it and waits for the poller.
type Subscription struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Close stops the feed. It is safe to call more than once.
func (s *Subscription) Close() {
	if s == nil {
		return
	}
	s.cancel()
	<-s.done
}

// Done is closed once the feed has stopped.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// FeedSource is the commit-ordered change log read by Poll.
type FeedSource interface {
	Head(ctx context.Context, collection entityDomain.Collection) (int64, error)
	ChangesAfter(ctx context.Context, collection entityDomain.Collection, after int64, limit int) ([]Change, error)
}

// feedBatchSize bounds one ChangesAfter call. A full batch is followed by another read
// in the same tick.
const feedBatchSize = 256

// Poll runs a change feed over the seq column until ctx ends or the subscription is
// closed. The cursor starts at the head read before Poll returns, so only changes
// committed afterwards are delivered. If that read fails it is retried on every tick
// until it succeeds. A failed poll keeps the cursor for the next tick.
func Poll(
	ctx context.Context,
	source FeedSource,
	collection entityDomain.Collection,
	interval time.Duration,
	logger *slog.Logger,
	fn ChangeFunc,
) *Subscription {
	ctx, cancel := context.WithCancel(ctx)
	sub := &Subscription{cancel: cancel, done: make(chan struct{})}

	cursor, err := source.Head(ctx, collection)
	started := err == nil
	if err != nil {
		logger.Debug("remote change feed head unavailable",
			slog.String("collection", string(collection)),
			slog.Any("error", err),
		)
	}

	go func() {
		defer close(sub.done)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}

			if !started {
				head, err := source.Head(ctx, collection)
				if err != nil {
					continue
				}
				cursor, started = head, true
				continue
			}
			cursor = readFeed(ctx, source, collection, cursor, logger, fn)
		}
	}()

	return sub
}

// readFeed delivers every change after cursor and returns the new cursor.
func readFeed(
	ctx context.Context,
	source FeedSource,
	collection entityDomain.Collection,
	cursor int64,
	logger *slog.Logger,
	fn ChangeFunc,
) int64 {
	for {
		changes, err := source.ChangesAfter(ctx, collection, cursor, feedBatchSize)
		if err != nil {
			if ctx.Err() == nil {
				logger.Debug("remote change poll failed",
					slog.String("collection", string(collection)),
					slog.Int64("cursor", cursor),
					slog.Any("error", err),
				)
			}
			return cursor
		}

		for _, change := range changes {
			if change.Seq <= cursor {
				continue
			}
			cursor = change.Seq
			fn(change.Document)
		}
		if len(changes) < feedBatchSize || ctx.Err() != nil {
			return cursor
		}
	}
}
