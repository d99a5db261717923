// Package mocks provides mock implementations of the fiscal use cases for testing.
package mocks

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"

	fiscalDomain "github.com/allisson/pdvsync/internal/fiscal/domain"
)

// MockQueueUseCase is a mock implementation of QueueUseCase.
type MockQueueUseCase struct {
	mock.Mock
}

// NewMockQueueUseCase creates a MockQueueUseCase whose expectations are asserted on cleanup.
func NewMockQueueUseCase(t *testing.T) *MockQueueUseCase {
	m := &MockQueueUseCase{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockQueueUseCase) item(args mock.Arguments) (*fiscalDomain.QueueItem, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*fiscalDomain.QueueItem), args.Error(1)
}

// CanEmitFiscal mocks the CanEmitFiscal method.
func (m *MockQueueUseCase) CanEmitFiscal(ctx context.Context, orderID string) (*fiscalDomain.Eligibility, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*fiscalDomain.Eligibility), args.Error(1)
}

// SendToQueue mocks the SendToQueue method.
func (m *MockQueueUseCase) SendToQueue(ctx context.Context, orderID string) (*fiscalDomain.QueueItem, error) {
	return m.item(m.Called(ctx, orderID))
}

// ProcessQueueItem mocks the ProcessQueueItem method.
func (m *MockQueueUseCase) ProcessQueueItem(ctx context.Context, orderID string) (*fiscalDomain.QueueItem, error) {
	return m.item(m.Called(ctx, orderID))
}

// PollQueueItem mocks the PollQueueItem method.
func (m *MockQueueUseCase) PollQueueItem(ctx context.Context, orderID string) (*fiscalDomain.QueueItem, error) {
	return m.item(m.Called(ctx, orderID))
}

// ReprocessQueueItem mocks the ReprocessQueueItem method.
func (m *MockQueueUseCase) ReprocessQueueItem(ctx context.Context, orderID string) (*fiscalDomain.QueueItem, error) {
	return m.item(m.Called(ctx, orderID))
}

// CancelQueueItem mocks the CancelQueueItem method.
func (m *MockQueueUseCase) CancelQueueItem(
	ctx context.Context,
	orderID, reason string,
) (*fiscalDomain.QueueItem, error) {
	return m.item(m.Called(ctx, orderID, reason))
}

// RemoveFromQueue mocks the RemoveFromQueue method.
func (m *MockQueueUseCase) RemoveFromQueue(ctx context.Context, orderID string) error {
	return m.Called(ctx, orderID).Error(0)
}

// CancelDocument mocks the CancelDocument method.
func (m *MockQueueUseCase) CancelDocument(
	ctx context.Context,
	orderID, justification string,
) (*fiscalDomain.QueueItem, error) {
	return m.item(m.Called(ctx, orderID, justification))
}

// GetQueue mocks the GetQueue method.
func (m *MockQueueUseCase) GetQueue(
	ctx context.Context,
	status *fiscalDomain.Status,
) ([]*fiscalDomain.QueueItem, error) {
	args := m.Called(ctx, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*fiscalDomain.QueueItem), args.Error(1)
}

// GetQueueItem mocks the GetQueueItem method.
func (m *MockQueueUseCase) GetQueueItem(ctx context.Context, orderID string) (*fiscalDomain.QueueItem, error) {
	return m.item(m.Called(ctx, orderID))
}

// GetQueueStatus mocks the GetQueueStatus method.
func (m *MockQueueUseCase) GetQueueStatus(ctx context.Context) (*fiscalDomain.QueueStatus, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*fiscalDomain.QueueStatus), args.Error(1)
}

// MockLogUseCase is a mock implementation of LogUseCase.
type MockLogUseCase struct {
	mock.Mock
}

// NewMockLogUseCase creates a MockLogUseCase whose expectations are asserted on cleanup.
func NewMockLogUseCase(t *testing.T) *MockLogUseCase {
	m := &MockLogUseCase{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// ListByOrder mocks the ListByOrder method.
func (m *MockLogUseCase) ListByOrder(ctx context.Context, orderID string) ([]*fiscalDomain.LogEntry, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*fiscalDomain.LogEntry), args.Error(1)
}

// List mocks the List method.
func (m *MockLogUseCase) List(
	ctx context.Context,
	offset, limit int,
	createdAtFrom, createdAtTo *time.Time,
) ([]*fiscalDomain.LogEntry, error) {
	args := m.Called(ctx, offset, limit, createdAtFrom, createdAtTo)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*fiscalDomain.LogEntry), args.Error(1)
}
