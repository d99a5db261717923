// Package mocks provides mock implementations of the sync engine for testing.
package mocks

import (
	"context"
	"testing"

	"github.com/stretchr/testify/mock"

	entityDomain "github.com/allisson/pdvsync/internal/entity/domain"
	syncDomain "github.com/allisson/pdvsync/internal/sync/domain"
	syncUseCase "github.com/allisson/pdvsync/internal/sync/usecase"
)

// MockEngine is a mock implementation of the sync Engine.
type MockEngine struct {
	mock.Mock
}

// NewMockEngine creates a MockEngine whose expectations are asserted on cleanup.
func NewMockEngine(t *testing.T) *MockEngine {
	m := &MockEngine{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func writeResult(args mock.Arguments) (*syncDomain.WriteResult, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*syncDomain.WriteResult), args.Error(1)
}

// Save mocks the Save method.
func (m *MockEngine) Save(
	ctx context.Context,
	collection entityDomain.Collection,
	record entityDomain.Record,
) (*syncDomain.WriteResult, error) {
	return writeResult(m.Called(ctx, collection, record))
}

// Get mocks the Get method.
func (m *MockEngine) Get(
	ctx context.Context,
	collection entityDomain.Collection,
	id string,
	dst entityDomain.Record,
) error {
	return m.Called(ctx, collection, id, dst).Error(0)
}

// GetDocument mocks the GetDocument method.
func (m *MockEngine) GetDocument(
	ctx context.Context,
	collection entityDomain.Collection,
	id string,
) (*syncDomain.Document, error) {
	args := m.Called(ctx, collection, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*syncDomain.Document), args.Error(1)
}

// List mocks the List method.
func (m *MockEngine) List(
	ctx context.Context,
	collection entityDomain.Collection,
	filters ...syncDomain.Filter,
) ([]*syncDomain.Document, error) {
	args := m.Called(ctx, collection, filters)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*syncDomain.Document), args.Error(1)
}

// Delete mocks the Delete method.
func (m *MockEngine) Delete(
	ctx context.Context,
	collection entityDomain.Collection,
	id string,
) (*syncDomain.WriteResult, error) {
	return writeResult(m.Called(ctx, collection, id))
}

// Listen mocks the Listen method.
func (m *MockEngine) Listen(
	ctx context.Context,
	collection entityDomain.Collection,
	fn syncUseCase.ListenFunc,
) syncUseCase.Subscription {
	return m.Called(ctx, collection, fn).Get(0).(syncUseCase.Subscription)
}

// SyncFromCloud mocks the SyncFromCloud method.
func (m *MockEngine) SyncFromCloud(ctx context.Context) (syncDomain.SyncReport, error) {
	args := m.Called(ctx)
	return args.Get(0).(syncDomain.SyncReport), args.Error(1)
}

// SyncToCloud mocks the SyncToCloud method.
func (m *MockEngine) SyncToCloud(ctx context.Context) (syncDomain.SyncReport, error) {
	args := m.Called(ctx)
	return args.Get(0).(syncDomain.SyncReport), args.Error(1)
}

// DrainPending mocks the DrainPending method.
func (m *MockEngine) DrainPending(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

// Status mocks the Status method.
func (m *MockEngine) Status(ctx context.Context) (*syncDomain.Status, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*syncDomain.Status), args.Error(1)
}

// MockSubscription is a mock implementation of Subscription.
type MockSubscription struct {
	mock.Mock
}

// Close mocks the Close method.
func (m *MockSubscription) Close() {
	m.Called()
}
