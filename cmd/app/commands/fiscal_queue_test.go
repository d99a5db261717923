package commands

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	apperrors "github.com/allisson/pdvsync/internal/errors"
	fiscalDomain "github.com/allisson/pdvsync/internal/fiscal/domain"
	fiscalMocks "github.com/allisson/pdvsync/internal/fiscal/usecase/mocks"
)

func queueFixture() []*fiscalDomain.QueueItem {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	return []*fiscalDomain.QueueItem{
		{
			OrderID:     "O1",
			OrderNumber: 7,
			Total:       decimal.RequireFromString("42.5"),
			Status:      fiscalDomain.StatusQueued,
			MaxAttempts: 3,
			QueuedAt:    now,
		},
		{
			OrderID:     "O2",
			OrderNumber: 8,
			Total:       decimal.RequireFromString("10"),
			Status:      fiscalDomain.StatusError,
			Attempts:    3,
			MaxAttempts: 3,
			QueuedAt:    now.Add(time.Minute),
		},
	}
}

func TestRunFiscalQueue(t *testing.T) {
	ctx := context.Background()
	logger := slog.Default()

	t.Run("text-output", func(t *testing.T) {
		items := queueFixture()
		status := fiscalDomain.NewQueueStatus(items)
		status.Environment = "sandbox"

		queue := fiscalMocks.NewMockQueueUseCase(t)
		queue.On("GetQueue", ctx, (*fiscalDomain.Status)(nil)).Return(items, nil)
		queue.On("GetQueueStatus", ctx).Return(status, nil)

		var out bytes.Buffer
		err := RunFiscalQueue(ctx, queue, logger, &out, "", "text")

		require.NoError(t, err)
		require.Contains(t, out.String(), "Environment:    sandbox")
		require.Contains(t, out.String(), "queued:      1")
		require.Contains(t, out.String(), "total:       2")
		require.Contains(t, out.String(), "O1 #7 42.50 queued (0/3 attempts)")
		require.Contains(t, out.String(), "O2 #8 10.00 error (3/3 attempts)")
	})

	t.Run("json-output-with-status-filter", func(t *testing.T) {
		items := queueFixture()[1:]
		filter := fiscalDomain.StatusError

		queue := fiscalMocks.NewMockQueueUseCase(t)
		queue.On("GetQueue", ctx, &filter).Return(items, nil)
		queue.On("GetQueueStatus", ctx).Return(fiscalDomain.NewQueueStatus(queueFixture()), nil)

		var out bytes.Buffer
		err := RunFiscalQueue(ctx, queue, logger, &out, "error", "json")

		require.NoError(t, err)
		require.Contains(t, out.String(), `"order_id": "O2"`)
		require.NotContains(t, out.String(), `"order_id": "O1"`)
		require.Contains(t, out.String(), `"total": 2`)
	})

	t.Run("empty-queue", func(t *testing.T) {
		queue := fiscalMocks.NewMockQueueUseCase(t)
		queue.On("GetQueue", ctx, (*fiscalDomain.Status)(nil)).Return([]*fiscalDomain.QueueItem{}, nil)
		queue.On("GetQueueStatus", ctx).Return(fiscalDomain.NewQueueStatus(nil), nil)

		var out bytes.Buffer
		err := RunFiscalQueue(ctx, queue, logger, &out, "", "text")

		require.NoError(t, err)
		require.Contains(t, out.String(), "No items found")
	})

	t.Run("invalid-status", func(t *testing.T) {
		queue := fiscalMocks.NewMockQueueUseCase(t)

		err := RunFiscalQueue(ctx, queue, logger, &bytes.Buffer{}, "lost", "text")

		require.Error(t, err)
		require.Contains(t, err.Error(), "invalid status")
	})
}

func TestRunFiscalProcess(t *testing.T) {
	ctx := context.Background()
	logger := slog.Default()

	t.Run("authorized-text-output", func(t *testing.T) {
		item := queueFixture()[0]
		item.Status = fiscalDomain.StatusAuthorized
		item.Attempts = 1
		item.Document = &fiscalDomain.Document{Key: "35260312345678000199650010000000071000000070", Protocol: "135260000000001"}

		queue := fiscalMocks.NewMockQueueUseCase(t)
		queue.On("ProcessQueueItem", ctx, "O1").Return(item, nil)

		var out bytes.Buffer
		err := RunFiscalProcess(ctx, queue, logger, &out, "O1", "text")

		require.NoError(t, err)
		require.Contains(t, out.String(), "Status:    authorized")
		require.Contains(t, out.String(), "Attempts:  1/3")
		require.Contains(t, out.String(), "Protocol:  135260000000001")
	})

	t.Run("denied-json-output", func(t *testing.T) {
		item := queueFixture()[0]
		item.Status = fiscalDomain.StatusDenied
		item.Attempts = 1
		item.LastError = "Rejeicao: CNPJ do emitente invalido"
		item.ErrorCode = "207"

		queue := fiscalMocks.NewMockQueueUseCase(t)
		queue.On("ProcessQueueItem", ctx, "O1").Return(item, nil)

		var out bytes.Buffer
		err := RunFiscalProcess(ctx, queue, logger, &out, "O1", "json")

		require.NoError(t, err)
		require.Contains(t, out.String(), `"status": "denied"`)
		require.Contains(t, out.String(), `"error_code": "207"`)
	})

	t.Run("use-case-error", func(t *testing.T) {
		queue := fiscalMocks.NewMockQueueUseCase(t)
		queue.On("ProcessQueueItem", ctx, "O9").Return(nil, apperrors.ErrNotFound)

		err := RunFiscalProcess(ctx, queue, logger, &bytes.Buffer{}, "O9", "text")

		require.ErrorIs(t, err, apperrors.ErrNotFound)
	})
}
