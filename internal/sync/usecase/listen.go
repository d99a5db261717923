package usecase

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/allisson/pdvsync/internal/connectivity"
	entityDomain "github.com/allisson/pdvsync/internal/entity/domain"
	"github.com/allisson/pdvsync/internal/remote"
	syncDomain "github.com/allisson/pdvsync/internal/sync/domain"
)

// listener wraps a remote feed so the engine can close it on shutdown.
type listener struct {
	engine *SyncEngine
	once   sync.Once
	sub    *remote.Subscription
	stop   func() bool
}

// Close stops the feed.
func (l *listener) Close() {
	l.once.Do(func() {
		l.sub.Close()
		l.engine.mu.Lock()
		delete(l.engine.listeners, l)
		stop := l.stop
		l.engine.mu.Unlock()
		if stop != nil {
			stop()
		}
	})
}

type noopSubscription struct{}

func (noopSubscription) Close() {}

// Listen subscribes to remote changes of a collection. Each change is merged into the
// cache before fn is called; changes that lose last-writer-wins against the cache are
// not delivered. Only changes committed on the remote side after the call are seen,
// whatever their updatedAt. When the remote store is unreachable Listen logs a warning
// and returns a subscription that never fires. The feed stops when ctx ends or on Close.
func (e *SyncEngine) Listen(
	ctx context.Context,
	collection entityDomain.Collection,
	fn ListenFunc,
) Subscription {
	if _, ok := e.queues[collection]; !ok || !e.running.Load() {
		e.logger.Warn("listen ignored", slog.String("collection", string(collection)))
		return noopSubscription{}
	}
	if !e.bus.Reachable() {
		e.logger.Warn("remote store unreachable, listen is a no-op",
			slog.String("collection", string(collection)),
		)
		return noopSubscription{}
	}

	l := &listener{engine: e}
	l.sub = e.remote.Subscribe(e.baseCtx, collection, func(doc *syncDomain.Document) {
		report, err := e.backfill(e.baseCtx, collection, []*syncDomain.Document{doc})
		if err != nil {
			e.logger.Warn("failed to apply remote change",
				slog.String("collection", string(collection)),
				slog.String("id", doc.ID),
				slog.Any("error", err),
			)
			return
		}

		switch {
		case report.Applied > 0:
			fn(syncDomain.Change{Kind: syncDomain.ChangeUpsert, Document: doc.Clone()})
		case report.Deleted > 0:
			fn(syncDomain.Change{Kind: syncDomain.ChangeDelete, Document: doc.Clone()})
		}
	})
	e.mu.Lock()
	e.listeners[l] = struct{}{}
	l.stop = context.AfterFunc(ctx, l.Close)
	e.mu.Unlock()

	return l
}

// watchConnectivity drains and pulls whenever the remote store becomes reachable,
// including once at start when it already is. While it stays reachable, operations
// deferred by a failed write are replayed on request and every retry interval.
func (e *SyncEngine) watchConnectivity(events <-chan connectivity.Event, unsubscribe func()) {
	defer e.wg.Done()
	defer unsubscribe()

	ticker := time.NewTicker(e.retryInterval)
	defer ticker.Stop()

	reachable := e.bus.Reachable()
	if reachable {
		e.reconcile(e.baseCtx)
	}

	for {
		select {
		case <-e.baseCtx.Done():
			return
		case <-e.retry:
			e.retryPending(e.baseCtx)
		case <-ticker.C:
			e.retryPending(e.baseCtx)
		case event, ok := <-events:
			if !ok {
				return
			}
			now := e.bus.Reachable()
			if now && !reachable {
				e.logger.Info("remote store reachable, reconciling", slog.String("event", string(event.Type)))
				e.reconcile(e.baseCtx)
			}
			reachable = now
		}
	}
}
