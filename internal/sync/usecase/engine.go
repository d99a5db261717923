package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	validation "github.com/jellydator/validation"
	"golang.org/x/sync/singleflight"

	"github.com/allisson/pdvsync/internal/database"
	entityDomain "github.com/allisson/pdvsync/internal/entity/domain"
	apperrors "github.com/allisson/pdvsync/internal/errors"
	"github.com/allisson/pdvsync/internal/remote"
	syncDomain "github.com/allisson/pdvsync/internal/sync/domain"
	customValidation "github.com/allisson/pdvsync/internal/validation"
)

// job is one unit of work run by a collection worker.
type job struct {
	ctx  context.Context
	run  func(ctx context.Context)
	done chan struct{}
}

// Config holds the engine settings.
type Config struct {
	// StoreTimeout bounds every remote store call.
	StoreTimeout time.Duration
	// RetryInterval is the period between replays of pending operations while the remote
	// store stays reachable. Defaults to 15 seconds.
	RetryInterval time.Duration
	// Collections are the collections served by a worker. Defaults to entityDomain.Collections.
	Collections []entityDomain.Collection
	// CacheTx makes a deferred write and its pending operation one unit when the pending
	// queue lives in the cache database. Defaults to database.NopTxManager.
	CacheTx database.TxManager
}

// SyncEngine is the Engine implementation. Writes to one collection run on a single
// worker goroutine, so a second write waits for the first instead of interleaving.
type SyncEngine struct {
	cache   CacheStore
	remote  RemoteStore
	pending PendingQueue
	cacheTx database.TxManager
	bus     ConnectivityBus
	timeout time.Duration
	logger  *slog.Logger
	now     func() time.Time

	retryInterval time.Duration
	// retry asks the connectivity loop for a drain; it holds at most one request.
	retry chan struct{}

	queues map[entityDomain.Collection]chan job
	group  singleflight.Group
	// syncMu serializes drain, pull and push passes.
	syncMu sync.Mutex

	running atomic.Bool
	baseCtx context.Context
	cancel  context.CancelFunc
	quit    chan struct{}
	wg      sync.WaitGroup

	mu         sync.Mutex
	listeners  map[*listener]struct{}
	lastPullAt *time.Time
	lastPushAt *time.Time
}

// NewSyncEngine creates a stopped engine. Call Start before use.
func NewSyncEngine(
	cache CacheStore,
	remoteStore RemoteStore,
	pending PendingQueue,
	bus ConnectivityBus,
	cfg Config,
	logger *slog.Logger,
) *SyncEngine {
	collections := cfg.Collections
	if len(collections) == 0 {
		collections = entityDomain.Collections
	}
	timeout := cfg.StoreTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	retryInterval := cfg.RetryInterval
	if retryInterval <= 0 {
		retryInterval = 15 * time.Second
	}
	cacheTx := cfg.CacheTx
	if cacheTx == nil {
		cacheTx = database.NopTxManager()
	}

	queues := make(map[entityDomain.Collection]chan job, len(collections))
	for _, c := range collections {
		queues[c] = make(chan job)
	}

	return &SyncEngine{
		cache:         cache,
		remote:        remoteStore,
		pending:       pending,
		cacheTx:       cacheTx,
		bus:           bus,
		timeout:       timeout,
		logger:        logger,
		now:           time.Now,
		retryInterval: retryInterval,
		retry:         make(chan struct{}, 1),
		queues:        queues,
		listeners:     make(map[*listener]struct{}),
	}
}

// Start launches the collection workers and the reconnect handler. When the remote
// store is already reachable, pending operations from a previous session are drained.
func (e *SyncEngine) Start(ctx context.Context) error {
	if !e.running.CompareAndSwap(false, true) {
		return apperrors.New("sync engine already started")
	}

	e.baseCtx, e.cancel = context.WithCancel(context.WithoutCancel(ctx))
	e.quit = make(chan struct{})

	for collection, queue := range e.queues {
		e.wg.Add(1)
		go e.worker(collection, queue)
	}

	events, unsubscribe := e.bus.Subscribe(16)
	e.wg.Add(1)
	go e.watchConnectivity(events, unsubscribe)

	e.logger.Info("sync engine started", slog.Int("collections", len(e.queues)))
	return nil
}

// Shutdown stops workers, listeners and the reconnect handler.
func (e *SyncEngine) Shutdown(ctx context.Context) error {
	if !e.running.CompareAndSwap(true, false) {
		return nil
	}

	e.cancel()
	close(e.quit)

	e.mu.Lock()
	listeners := make([]*listener, 0, len(e.listeners))
	for l := range e.listeners {
		listeners = append(listeners, l)
	}
	e.mu.Unlock()
	for _, l := range listeners {
		l.Close()
	}

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return apperrors.Wrap(apperrors.FromContext(ctx.Err()), "sync engine shutdown")
	}

	if n, err := e.pending.Len(context.WithoutCancel(ctx)); err == nil && n > 0 {
		e.logger.Warn("sync engine stopped with pending operations", slog.Int("pending", n))
	}
	e.logger.Info("sync engine stopped")
	return nil
}

func (e *SyncEngine) worker(collection entityDomain.Collection, queue chan job) {
	defer e.wg.Done()
	for {
		select {
		case <-e.quit:
			return
		case j := <-queue:
			j.run(j.ctx)
			close(j.done)
			e.logger.Debug("collection job finished", slog.String("collection", string(collection)))
		}
	}
}

// submit runs fn on the collection worker and waits for it. When ctx ends first the
// job still runs to completion; the caller only stops waiting.
func (e *SyncEngine) submit(ctx context.Context, collection entityDomain.Collection, fn func(ctx context.Context)) error {
	queue, ok := e.queues[collection]
	if !ok {
		return fmt.Errorf("%w: %q", entityDomain.ErrUnknownCollection, collection)
	}
	if !e.running.Load() {
		return syncDomain.ErrEngineStopped
	}

	j := job{ctx: context.WithoutCancel(ctx), run: fn, done: make(chan struct{})}
	select {
	case queue <- j:
	case <-e.quit:
		return syncDomain.ErrEngineStopped
	case <-ctx.Done():
		return apperrors.FromContext(ctx.Err())
	}

	select {
	case <-j.done:
		return nil
	case <-ctx.Done():
		return apperrors.FromContext(ctx.Err())
	}
}

// bound applies the store timeout to a remote call.
func (e *SyncEngine) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, e.timeout)
}

// stamp returns the next updatedAt for a record: now, but never at or before the
// previous cached value.
func (e *SyncEngine) stamp(prev *syncDomain.Document) time.Time {
	now := e.now().UTC().Truncate(time.Microsecond)
	if prev != nil {
		if floor := prev.UpdatedAt.Add(time.Microsecond); now.Before(floor) {
			now = floor
		}
	}
	return now
}

func (e *SyncEngine) cached(ctx context.Context, collection entityDomain.Collection, id string) (*syncDomain.Document, error) {
	doc, err := e.cache.Get(ctx, collection, id)
	if err != nil {
		if errors.Is(err, syncDomain.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return doc, nil
}

// Save validates and stamps the record, then writes it through or defers it.
func (e *SyncEngine) Save(
	ctx context.Context,
	collection entityDomain.Collection,
	record entityDomain.Record,
) (*syncDomain.WriteResult, error) {
	if record == nil {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "record is required")
	}
	meta := record.RecordMeta()
	if meta.ID != "" {
		if err := customValidation.Identifier.Validate(meta.ID); err != nil {
			return nil, customValidation.WrapValidationError(fmt.Errorf("id: %w", err))
		}
	}
	if err := record.Validate(); err != nil {
		return nil, customValidation.WrapValidationError(err)
	}

	var (
		result *syncDomain.WriteResult
		opErr  error
	)
	err := e.submit(ctx, collection, func(ctx context.Context) {
		result, opErr = e.save(ctx, collection, record)
	})
	if err != nil {
		return nil, err
	}
	return result, opErr
}

func (e *SyncEngine) save(
	ctx context.Context,
	collection entityDomain.Collection,
	record entityDomain.Record,
) (*syncDomain.WriteResult, error) {
	meta := record.RecordMeta()
	if meta.ID == "" {
		meta.ID = uuid.Must(uuid.NewV7()).String()
	}

	prev, err := e.cached(ctx, collection, meta.ID)
	if err != nil {
		return nil, err
	}

	meta.UpdatedAt = e.stamp(prev)
	if meta.CreatedAt.IsZero() && prev != nil {
		meta.CreatedAt = prev.CreatedAt
	}
	if meta.CreatedAt.IsZero() {
		meta.CreatedAt = meta.UpdatedAt
	}
	meta.CreatedAt = meta.CreatedAt.UTC().Truncate(time.Microsecond)

	doc, err := syncDomain.NewDocument(collection, record)
	if err != nil {
		return nil, err
	}
	return e.write(ctx, syncDomain.OperationSave, doc)
}

// Delete removes the record from both stores, or from the cache with a pending operation.
func (e *SyncEngine) Delete(
	ctx context.Context,
	collection entityDomain.Collection,
	id string,
) (*syncDomain.WriteResult, error) {
	if err := validation.Validate(id, validation.Required, customValidation.Identifier); err != nil {
		return nil, customValidation.WrapValidationError(fmt.Errorf("id: %w", err))
	}

	var (
		result *syncDomain.WriteResult
		opErr  error
	)
	err := e.submit(ctx, collection, func(ctx context.Context) {
		prev, err := e.cached(ctx, collection, id)
		if err != nil {
			opErr = err
			return
		}
		at := e.stamp(prev)
		tombstone := &syncDomain.Document{
			Collection: collection,
			ID:         id,
			CreatedAt:  at,
			UpdatedAt:  at,
			DeletedAt:  &at,
		}
		if prev != nil {
			tombstone.CreatedAt = prev.CreatedAt
		}
		result, opErr = e.write(ctx, syncDomain.OperationDelete, tombstone)
	})
	if err != nil {
		return nil, err
	}
	return result, opErr
}

// write runs on the collection worker. The remote write goes first so the cache only
// holds what the remote accepted. On any remote failure the cache update and the
// deferred operation are stored together.
func (e *SyncEngine) write(
	ctx context.Context,
	kind syncDomain.OperationKind,
	doc *syncDomain.Document,
) (*syncDomain.WriteResult, error) {
	result := &syncDomain.WriteResult{Document: doc}

	direct, err := e.canWriteThrough(ctx)
	if err != nil {
		return nil, err
	}
	if direct {
		remoteErr := e.applyToRemote(ctx, kind, doc)
		if remoteErr == nil {
			if err := e.applyToCache(ctx, kind, doc); err != nil {
				return nil, err
			}
			return result, nil
		}
		result.TimedOut = errors.Is(remoteErr, apperrors.ErrTimeout)
		e.logger.Warn("remote write failed, deferring",
			slog.String("collection", string(doc.Collection)),
			slog.String("id", doc.ID),
			slog.String("kind", string(kind)),
			slog.Any("error", remoteErr),
		)
	}

	op := syncDomain.NewPendingOperation(kind, doc, e.now().UTC())
	err = e.cacheTx.WithTx(ctx, func(ctx context.Context) error {
		if err := e.applyToCache(ctx, kind, doc); err != nil {
			return err
		}
		if err := e.pending.Append(ctx, op); err != nil {
			return apperrors.Wrap(err, "failed to queue pending operation")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	result.Pending = true
	if e.bus.Reachable() {
		e.scheduleDrain()
	}
	return result, nil
}

// scheduleDrain requests a replay of pending operations without waiting for it.
func (e *SyncEngine) scheduleDrain() {
	select {
	case e.retry <- struct{}{}:
	default:
	}
}

// canWriteThrough reports whether a write may go straight to the remote store. Any
// older pending operation forces the write behind it to keep enqueue order.
func (e *SyncEngine) canWriteThrough(ctx context.Context) (bool, error) {
	if !e.bus.Reachable() {
		return false, nil
	}
	n, err := e.pending.Len(ctx)
	if err != nil {
		return false, apperrors.Wrap(err, "failed to inspect pending operations")
	}
	return n == 0, nil
}

func (e *SyncEngine) applyToRemote(ctx context.Context, kind syncDomain.OperationKind, doc *syncDomain.Document) error {
	ctx, cancel := e.bound(ctx)
	defer cancel()

	path := remote.NewPath(doc.Collection, doc.ID)
	if kind == syncDomain.OperationDelete {
		return e.remote.Delete(ctx, path, doc.UpdatedAt)
	}
	return e.remote.Write(ctx, path, doc)
}

func (e *SyncEngine) applyToCache(ctx context.Context, kind syncDomain.OperationKind, doc *syncDomain.Document) error {
	if kind == syncDomain.OperationDelete {
		return e.cache.Delete(ctx, doc.Collection, doc.ID)
	}
	return e.cache.Put(ctx, doc)
}

// Get decodes one record into dst.
func (e *SyncEngine) Get(
	ctx context.Context,
	collection entityDomain.Collection,
	id string,
	dst entityDomain.Record,
) error {
	doc, err := e.GetDocument(ctx, collection, id)
	if err != nil {
		return err
	}
	return doc.Decode(dst)
}

// GetDocument returns the cached document or, on a miss, fetches it from the remote
// store and backfills the cache. Concurrent misses for one record share a fetch.
func (e *SyncEngine) GetDocument(
	ctx context.Context,
	collection entityDomain.Collection,
	id string,
) (*syncDomain.Document, error) {
	if _, ok := e.queues[collection]; !ok {
		return nil, fmt.Errorf("%w: %q", entityDomain.ErrUnknownCollection, collection)
	}

	doc, err := e.cached(ctx, collection, id)
	if err != nil {
		return nil, err
	}
	if doc != nil {
		return doc, nil
	}
	if !e.bus.Reachable() {
		return nil, syncDomain.ErrRecordNotFound
	}

	key := remote.NewPath(collection, id).String()
	v, err, _ := e.group.Do(key, func() (any, error) {
		rctx, cancel := e.bound(ctx)
		defer cancel()

		remoteDoc, err := e.remote.Read(rctx, remote.NewPath(collection, id))
		if err != nil {
			return nil, err
		}
		if _, err := e.backfill(ctx, collection, []*syncDomain.Document{remoteDoc}); err != nil {
			return nil, err
		}
		return remoteDoc, nil
	})
	if err != nil {
		if !errors.Is(err, syncDomain.ErrRecordNotFound) {
			e.logger.Warn("remote read failed",
				slog.String("collection", string(collection)),
				slog.String("id", id),
				slog.Any("error", err),
			)
		}
		return nil, syncDomain.ErrRecordNotFound
	}

	// A concurrent save may have won the backfill; the cache holds the answer.
	doc, err = e.cached(ctx, collection, id)
	if err != nil {
		return nil, err
	}
	if doc != nil {
		return doc, nil
	}
	return v.(*syncDomain.Document).Clone(), nil
}

// List returns the cached records of a collection. An empty cache is filled from the
// remote store when it is reachable.
func (e *SyncEngine) List(
	ctx context.Context,
	collection entityDomain.Collection,
	filters ...syncDomain.Filter,
) ([]*syncDomain.Document, error) {
	if _, ok := e.queues[collection]; !ok {
		return nil, fmt.Errorf("%w: %q", entityDomain.ErrUnknownCollection, collection)
	}

	docs, err := e.cache.GetAll(ctx, collection, filters...)
	if err != nil {
		return nil, err
	}
	if len(docs) > 0 || !e.bus.Reachable() {
		return docs, nil
	}
	if len(filters) > 0 {
		all, err := e.cache.GetAll(ctx, collection)
		if err != nil {
			return nil, err
		}
		if len(all) > 0 {
			return docs, nil
		}
	}

	_, err, _ = e.group.Do(string(collection), func() (any, error) {
		rctx, cancel := e.bound(ctx)
		defer cancel()

		remoteDocs, err := e.remote.ReadAll(rctx, collection)
		if err != nil {
			return nil, err
		}
		return e.backfill(ctx, collection, remoteDocs)
	})
	if err != nil {
		e.logger.Warn("remote list failed",
			slog.String("collection", string(collection)),
			slog.Any("error", err),
		)
		return docs, nil
	}
	return e.cache.GetAll(ctx, collection, filters...)
}

// backfill merges remote documents into the cache on the collection worker.
func (e *SyncEngine) backfill(
	ctx context.Context,
	collection entityDomain.Collection,
	docs []*syncDomain.Document,
) (syncDomain.SyncReport, error) {
	var (
		report syncDomain.SyncReport
		opErr  error
	)
	err := e.submit(ctx, collection, func(ctx context.Context) {
		for _, doc := range docs {
			outcome, err := e.merge(ctx, doc)
			if err != nil {
				opErr = err
				return
			}
			report.Add(outcome)
		}
	})
	if err != nil {
		return syncDomain.SyncReport{}, err
	}
	return report, opErr
}

// merge applies one remote document under last-writer-wins. It must run on the
// document's collection worker.
func (e *SyncEngine) merge(ctx context.Context, doc *syncDomain.Document) (syncDomain.SyncReport, error) {
	cachedDoc, err := e.cached(ctx, doc.Collection, doc.ID)
	if err != nil {
		return syncDomain.SyncReport{}, err
	}

	if !syncDomain.RemoteWins(cachedDoc, doc) {
		return syncDomain.SyncReport{Skipped: 1}, nil
	}

	if doc.IsDeleted() {
		if cachedDoc == nil {
			return syncDomain.SyncReport{Skipped: 1}, nil
		}
		if err := e.cache.Delete(ctx, doc.Collection, doc.ID); err != nil {
			return syncDomain.SyncReport{}, err
		}
		return syncDomain.SyncReport{Deleted: 1}, nil
	}

	live := doc.Clone()
	live.DeletedAt = nil
	if err := e.cache.Put(ctx, live); err != nil {
		return syncDomain.SyncReport{}, err
	}
	return syncDomain.SyncReport{Applied: 1}, nil
}

// DrainPending replays pending operations in enqueue order and stops at the first
// failure so later operations never overtake an earlier one.
func (e *SyncEngine) DrainPending(ctx context.Context) (int, error) {
	e.syncMu.Lock()
	defer e.syncMu.Unlock()
	return e.drain(ctx)
}

func (e *SyncEngine) drain(ctx context.Context) (int, error) {
	drained := 0
	for {
		ops, err := e.pending.List(ctx)
		if err != nil {
			return drained, apperrors.Wrap(err, "failed to list pending operations")
		}
		if len(ops) == 0 {
			return drained, nil
		}
		if !e.bus.Reachable() {
			return drained, syncDomain.ErrRemoteUnavailable
		}

		for _, op := range ops {
			if err := e.applyToRemote(ctx, op.Kind, op.Payload); err != nil {
				e.logger.Warn("pending operation replay failed",
					slog.String("operation_id", op.ID.String()),
					slog.String("collection", string(op.Collection)),
					slog.String("id", op.RecordID),
					slog.Any("error", err),
				)
				return drained, apperrors.Wrap(err, "failed to replay pending operation")
			}
			if err := e.pending.Remove(ctx, op.ID); err != nil {
				return drained, apperrors.Wrap(err, "failed to remove pending operation")
			}
			drained++
		}
	}
}

// SyncFromCloud pushes pending operations and then pulls every collection. The pull is
// refused while pending operations remain, since it could overwrite edits not yet sent.
func (e *SyncEngine) SyncFromCloud(ctx context.Context) (syncDomain.SyncReport, error) {
	e.syncMu.Lock()
	defer e.syncMu.Unlock()
	return e.pull(ctx)
}

func (e *SyncEngine) pull(ctx context.Context) (syncDomain.SyncReport, error) {
	var report syncDomain.SyncReport
	if !e.bus.Reachable() {
		return report, syncDomain.ErrRemoteUnavailable
	}

	drained, err := e.drain(ctx)
	report.Drained = drained
	if err != nil {
		return report, errors.Join(syncDomain.ErrPendingNotDrained, err)
	}

	for collection := range e.queues {
		changes, err := e.changes(ctx, collection)
		if err != nil {
			return report, err
		}
		outcome, err := e.backfill(ctx, collection, changes)
		report.Add(outcome)
		if err != nil {
			return report, err
		}
	}

	at := e.now().UTC()
	e.mu.Lock()
	e.lastPullAt = &at
	e.mu.Unlock()

	e.logger.Info("pull sync finished",
		slog.Int("drained", report.Drained),
		slog.Int("applied", report.Applied),
		slog.Int("deleted", report.Deleted),
		slog.Int("skipped", report.Skipped),
	)
	return report, nil
}

func (e *SyncEngine) changes(ctx context.Context, collection entityDomain.Collection) ([]*syncDomain.Document, error) {
	rctx, cancel := e.bound(ctx)
	defer cancel()
	docs, err := e.remote.ChangesSince(rctx, collection, time.Time{})
	if err != nil {
		return nil, apperrors.Wrap(err, fmt.Sprintf("failed to read remote %s", collection))
	}
	return docs, nil
}

// SyncToCloud pushes pending operations and then every cached record that is newer
// than its remote copy. Records deleted remotely after their last local edit stay deleted.
func (e *SyncEngine) SyncToCloud(ctx context.Context) (syncDomain.SyncReport, error) {
	e.syncMu.Lock()
	defer e.syncMu.Unlock()

	var report syncDomain.SyncReport
	if !e.bus.Reachable() {
		return report, syncDomain.ErrRemoteUnavailable
	}

	drained, err := e.drain(ctx)
	report.Drained = drained
	if err != nil {
		return report, errors.Join(syncDomain.ErrPendingNotDrained, err)
	}

	for collection := range e.queues {
		remoteDocs, err := e.changes(ctx, collection)
		if err != nil {
			return report, err
		}
		byID := make(map[string]*syncDomain.Document, len(remoteDocs))
		for _, doc := range remoteDocs {
			byID[doc.ID] = doc
		}

		var (
			outcome syncDomain.SyncReport
			opErr   error
		)
		err = e.submit(ctx, collection, func(ctx context.Context) {
			cachedDocs, err := e.cache.GetAll(ctx, collection)
			if err != nil {
				opErr = err
				return
			}
			for _, doc := range cachedDocs {
				if !syncDomain.LocalWins(doc, byID[doc.ID]) {
					outcome.Skipped++
					continue
				}
				if err := e.applyToRemote(ctx, syncDomain.OperationSave, doc); err != nil {
					opErr = apperrors.Wrap(err, "failed to push cached document")
					return
				}
				outcome.Pushed++
			}
		})
		if err != nil {
			return report, err
		}
		report.Add(outcome)
		if opErr != nil {
			return report, opErr
		}
	}

	at := e.now().UTC()
	e.mu.Lock()
	e.lastPushAt = &at
	e.mu.Unlock()

	e.logger.Info("push sync finished",
		slog.Int("drained", report.Drained),
		slog.Int("pushed", report.Pushed),
		slog.Int("skipped", report.Skipped),
	)
	return report, nil
}

// reconcile runs after the remote store becomes reachable: pending operations are
// pushed first and the pull only runs once they are all gone.
func (e *SyncEngine) reconcile(ctx context.Context) {
	e.syncMu.Lock()
	defer e.syncMu.Unlock()

	report, err := e.pull(ctx)
	if err != nil {
		e.logger.Warn("reconnect sync incomplete",
			slog.Int("drained", report.Drained),
			slog.Any("error", err),
		)
	}
}

// retryPending replays pending operations while the remote store is reachable. A
// failure leaves them queued for the next attempt.
func (e *SyncEngine) retryPending(ctx context.Context) {
	if !e.bus.Reachable() {
		return
	}
	n, err := e.pending.Len(ctx)
	if err != nil || n == 0 {
		return
	}

	e.syncMu.Lock()
	defer e.syncMu.Unlock()

	drained, err := e.drain(ctx)
	if err != nil {
		e.logger.Debug("pending replay incomplete",
			slog.Int("drained", drained),
			slog.Any("error", err),
		)
		return
	}
	if drained > 0 {
		e.logger.Info("pending operations replayed", slog.Int("drained", drained))
	}
}

// Status reports connectivity, pending operations and last sync times.
func (e *SyncEngine) Status(ctx context.Context) (*syncDomain.Status, error) {
	n, err := e.pending.Len(ctx)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to count pending operations")
	}
	state := e.bus.State()

	e.mu.Lock()
	defer e.mu.Unlock()
	return &syncDomain.Status{
		Online:            state.Online,
		Authenticated:     state.Authenticated,
		PendingOperations: n,
		LastPullAt:        e.lastPullAt,
		LastPushAt:        e.lastPushAt,
	}, nil
}
