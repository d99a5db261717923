package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	entityDomain "github.com/allisson/pdvsync/internal/entity/domain"
	fiscalDomain "github.com/allisson/pdvsync/internal/fiscal/domain"
	"github.com/allisson/pdvsync/internal/gateway"
	syncDomain "github.com/allisson/pdvsync/internal/sync/domain"
	customValidation "github.com/allisson/pdvsync/internal/validation"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// memoryEngine stores serialized documents like the real engine, so records come back
// as fresh copies.
type memoryEngine struct {
	mu      sync.Mutex
	docs    map[string]*syncDomain.Document
	saveErr error
}

func newMemoryEngine() *memoryEngine {
	return &memoryEngine{docs: make(map[string]*syncDomain.Document)}
}

func engineKey(collection entityDomain.Collection, id string) string {
	return string(collection) + "/" + id
}

func (m *memoryEngine) Save(
	_ context.Context,
	collection entityDomain.Collection,
	record entityDomain.Record,
) (*syncDomain.WriteResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.saveErr != nil {
		return nil, m.saveErr
	}
	if err := record.Validate(); err != nil {
		return nil, customValidation.WrapValidationError(err)
	}
	meta := record.RecordMeta()
	now := time.Now().UTC()
	if meta.CreatedAt.IsZero() {
		meta.CreatedAt = now
	}
	meta.UpdatedAt = now

	doc, err := syncDomain.NewDocument(collection, record)
	if err != nil {
		return nil, err
	}
	m.docs[engineKey(collection, meta.ID)] = doc
	return &syncDomain.WriteResult{Document: doc.Clone()}, nil
}

func (m *memoryEngine) Get(
	_ context.Context,
	collection entityDomain.Collection,
	id string,
	dst entityDomain.Record,
) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	doc, ok := m.docs[engineKey(collection, id)]
	if !ok {
		return syncDomain.ErrRecordNotFound
	}
	return doc.Decode(dst)
}

func (m *memoryEngine) List(
	_ context.Context,
	collection entityDomain.Collection,
	filters ...syncDomain.Filter,
) ([]*syncDomain.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	docs := make([]*syncDomain.Document, 0)
	for _, doc := range m.docs {
		if doc.Collection != collection {
			continue
		}
		var fields map[string]any
		if err := json.Unmarshal(doc.Data, &fields); err != nil {
			return nil, err
		}
		match := true
		for _, f := range filters {
			if fmt.Sprint(fields[f.Field]) != fmt.Sprint(f.Value) {
				match = false
			}
		}
		if match {
			docs = append(docs, doc.Clone())
		}
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	return docs, nil
}

func (m *memoryEngine) Delete(
	_ context.Context,
	collection entityDomain.Collection,
	id string,
) (*syncDomain.WriteResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.docs, engineKey(collection, id))
	return &syncDomain.WriteResult{}, nil
}

func (m *memoryEngine) rawData(collection entityDomain.Collection, id string) json.RawMessage {
	m.mu.Lock()
	defer m.mu.Unlock()

	doc, ok := m.docs[engineKey(collection, id)]
	if !ok {
		return nil
	}
	return append(json.RawMessage(nil), doc.Data...)
}

// mockGateway mocks the gateway calls; readiness is a plain flag.
type mockGateway struct {
	mock.Mock
	ready atomic.Bool
}

func newMockGateway() *mockGateway {
	g := &mockGateway{}
	g.ready.Store(true)
	return g
}

func (m *mockGateway) Ready() bool {
	return m.ready.Load()
}

func (m *mockGateway) Environment() gateway.Environment {
	return gateway.EnvironmentSandbox
}

func (m *mockGateway) EmitDocument(
	ctx context.Context,
	payload *gateway.EmissionPayload,
) (*gateway.EmissionResult, error) {
	args := m.Called(ctx, payload)
	if r := args.Get(0); r != nil {
		return r.(*gateway.EmissionResult), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockGateway) CheckStatus(ctx context.Context, reference string) (*gateway.EmissionResult, error) {
	args := m.Called(ctx, reference)
	if r := args.Get(0); r != nil {
		return r.(*gateway.EmissionResult), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockGateway) CancelDocument(
	ctx context.Context,
	documentKey, justification string,
) (*gateway.CancelResult, error) {
	args := m.Called(ctx, documentKey, justification)
	if r := args.Get(0); r != nil {
		return r.(*gateway.CancelResult), args.Error(1)
	}
	return nil, args.Error(1)
}

type fakeConn struct {
	reachable atomic.Bool
}

func (c *fakeConn) Reachable() bool {
	return c.reachable.Load()
}

// memoryLogRepo is an append-only in-memory log.
type memoryLogRepo struct {
	mu      sync.Mutex
	entries []*fiscalDomain.LogEntry
}

func (r *memoryLogRepo) Create(_ context.Context, entry *fiscalDomain.LogEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry)
	return nil
}

func (r *memoryLogRepo) ListByOrder(_ context.Context, orderID string) ([]*fiscalDomain.LogEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entries := make([]*fiscalDomain.LogEntry, 0)
	for _, e := range r.entries {
		if e.OrderID == orderID {
			entries = append(entries, e)
		}
	}
	return entries, nil
}

func (r *memoryLogRepo) List(
	_ context.Context,
	offset, limit int,
	_, _ *time.Time,
) ([]*fiscalDomain.LogEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if offset >= len(r.entries) {
		return []*fiscalDomain.LogEntry{}, nil
	}
	end := min(offset+limit, len(r.entries))
	return r.entries[offset:end], nil
}

func (r *memoryLogRepo) actions(orderID string) []fiscalDomain.Action {
	entries, _ := r.ListByOrder(context.Background(), orderID)
	actions := make([]fiscalDomain.Action, 0, len(entries))
	for _, e := range entries {
		actions = append(actions, e.Action)
	}
	return actions
}

func testOrder(id string, number int) *entityDomain.Order {
	return &entityDomain.Order{
		Meta:   entityDomain.Meta{ID: id},
		Number: number,
		Status: entityDomain.OrderStatusFinalized,
		Items: []entityDomain.OrderItem{
			{
				ProductID: "p1",
				Name:      "Feijoada",
				Quantity:  decimal.NewFromInt(1),
				UnitPrice: decimal.RequireFromString("42.50"),
			},
		},
		Payment:  entityDomain.Payment{Method: entityDomain.PaymentPix, Amount: decimal.RequireFromString("42.50")},
		Subtotal: decimal.RequireFromString("42.50"),
		Total:    decimal.RequireFromString("42.50"),
	}
}

func testSettings() *entityDomain.Settings {
	return &entityDomain.Settings{
		Meta:          entityDomain.Meta{ID: entityDomain.SettingsID},
		FiscalEnabled: true,
		Company: entityDomain.CompanyProfile{
			LegalName:         "Restaurante Sabor LTDA",
			TaxID:             "11222333000181",
			StateRegistration: "123456789",
			Address: entityDomain.Address{
				Street:   "Rua das Flores",
				Number:   "100",
				District: "Centro",
				City:     "Sao Paulo",
				CityCode: "3550308",
				State:    "SP",
				ZipCode:  "01001000",
			},
		},
	}
}

func authorizedResult(reference string) *gateway.EmissionResult {
	return &gateway.EmissionResult{
		Success:     true,
		Status:      gateway.ResultAuthorized,
		Reference:   reference,
		DocumentKey: "35260311222333000181650010000000011000000017",
		Protocol:    "135260000000001",
		Number:      "1",
		Series:      "1",
		XMLURL:      "/arquivos/1.xml",
		PDFURL:      "/arquivos/1.pdf",
	}
}

type queueHarness struct {
	queue   *Queue
	engine  *memoryEngine
	gateway *mockGateway
	conn    *fakeConn
	logs    *memoryLogRepo
}

// newQueueHarness seeds complete settings and order O1 (number 1, total 42.50, pix).
func newQueueHarness(t *testing.T) *queueHarness {
	t.Helper()

	h := &queueHarness{
		engine:  newMemoryEngine(),
		gateway: newMockGateway(),
		conn:    &fakeConn{},
		logs:    &memoryLogRepo{},
	}
	h.conn.reachable.Store(true)
	h.queue = NewQueue(h.engine, h.gateway, h.conn, h.logs, Config{MaxAttempts: 3}, discardLogger)

	h.saveOrder(t, testOrder("O1", 1))
	_, err := h.engine.Save(context.Background(), entityDomain.CollectionSettings, testSettings())
	require.NoError(t, err)

	t.Cleanup(func() {
		h.gateway.AssertExpectations(t)
	})
	return h
}

func (h *queueHarness) saveOrder(t *testing.T, order *entityDomain.Order) {
	t.Helper()
	_, err := h.engine.Save(context.Background(), entityDomain.CollectionOrders, order)
	require.NoError(t, err)
}

func (h *queueHarness) order(t *testing.T, id string) *entityDomain.Order {
	t.Helper()
	var order entityDomain.Order
	require.NoError(t, h.engine.Get(context.Background(), entityDomain.CollectionOrders, id, &order))
	return &order
}

// storeItem overwrites the stored queue item after mutate.
func (h *queueHarness) storeItem(t *testing.T, orderID string, mutate func(item *fiscalDomain.QueueItem)) {
	t.Helper()
	var item fiscalDomain.QueueItem
	require.NoError(t, h.engine.Get(context.Background(), entityDomain.CollectionFiscalQueue, orderID, &item))
	mutate(&item)
	_, err := h.engine.Save(context.Background(), entityDomain.CollectionFiscalQueue, &item)
	require.NoError(t, err)
}

// enqueue sends O1-like orders to the queue.
func (h *queueHarness) enqueue(t *testing.T, orderID string) *fiscalDomain.QueueItem {
	t.Helper()
	item, err := h.queue.SendToQueue(context.Background(), orderID)
	require.NoError(t, err)
	return item
}
