package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	fiscalDomain "github.com/allisson/pdvsync/internal/fiscal/domain"
	"github.com/allisson/pdvsync/internal/fiscal/http/dto"
	fiscalUseCase "github.com/allisson/pdvsync/internal/fiscal/usecase"
)

// RunFiscalQueue prints the fiscal emission queue and its per-status counts.
// An empty status lists every item.
func RunFiscalQueue(
	ctx context.Context,
	queueUseCase fiscalUseCase.QueueUseCase,
	logger *slog.Logger,
	writer io.Writer,
	status string,
	format string,
) error {
	if err := validateFormat(format); err != nil {
		return err
	}

	var filter *fiscalDomain.Status
	if status != "" {
		parsed, err := fiscalDomain.ParseStatus(status)
		if err != nil {
			return fmt.Errorf("invalid status: %w", err)
		}
		filter = &parsed
	}

	items, err := queueUseCase.GetQueue(ctx, filter)
	if err != nil {
		return fmt.Errorf("failed to list fiscal queue: %w", err)
	}
	queueStatus, err := queueUseCase.GetQueueStatus(ctx)
	if err != nil {
		return fmt.Errorf("failed to get fiscal queue status: %w", err)
	}

	if format == "json" {
		if err := writeJSON(writer, map[string]any{
			"status": dto.MapQueueStatusToResponse(queueStatus),
			"items":  dto.MapQueueItemsToListResponse(items).Data,
		}); err != nil {
			return err
		}
	} else {
		outputQueueText(writer, queueStatus, items)
	}

	logger.Info("fiscal queue listed",
		slog.Int("items", len(items)),
		slog.Int("total", queueStatus.Total),
	)

	return nil
}

// RunFiscalProcess runs one emission attempt for an order and prints the resulting item.
// Gateway rejections are reported in the item status, not as command failures.
func RunFiscalProcess(
	ctx context.Context,
	queueUseCase fiscalUseCase.QueueUseCase,
	logger *slog.Logger,
	writer io.Writer,
	orderID string,
	format string,
) error {
	if err := validateFormat(format); err != nil {
		return err
	}

	logger.Info("processing fiscal queue item", slog.String("order_id", orderID))

	item, err := queueUseCase.ProcessQueueItem(ctx, orderID)
	if err != nil {
		return fmt.Errorf("failed to process fiscal queue item: %w", err)
	}

	if format == "json" {
		if err := writeJSON(writer, dto.MapQueueItemToResponse(item)); err != nil {
			return err
		}
	} else {
		outputQueueItemText(writer, item)
	}

	logger.Info("fiscal queue item processed",
		slog.String("order_id", item.OrderID),
		slog.String("status", string(item.Status)),
		slog.Int("attempts", item.Attempts),
	)

	return nil
}

// outputQueueText outputs the queue in human-readable text format.
func outputQueueText(writer io.Writer, status *fiscalDomain.QueueStatus, items []*fiscalDomain.QueueItem) {
	_, _ = fmt.Fprintf(writer, "Fiscal Emission Queue\n")
	_, _ = fmt.Fprintf(writer, "=====================\n\n")
	_, _ = fmt.Fprintf(writer, "Environment:    %s\n", status.Environment)
	_, _ = fmt.Fprintf(writer, "Online:         %t\n", status.Online)
	_, _ = fmt.Fprintf(writer, "Gateway Ready:  %t\n\n", status.GatewayReady)

	for _, s := range fiscalDomain.Statuses {
		_, _ = fmt.Fprintf(writer, "%-12s %d\n", string(s)+":", status.Counts[s])
	}
	_, _ = fmt.Fprintf(writer, "%-12s %d\n", "total:", status.Total)

	if len(items) == 0 {
		_, _ = fmt.Fprintf(writer, "\nNo items found\n")
		return
	}

	_, _ = fmt.Fprintf(writer, "\nItems:\n")
	for _, item := range items {
		_, _ = fmt.Fprintf(writer, "  - %s #%d %s %s (%d/%d attempts)\n",
			item.OrderID,
			item.OrderNumber,
			item.Total.StringFixed(2),
			item.Status,
			item.Attempts,
			item.MaxAttempts,
		)
	}
}

// outputQueueItemText outputs one queue item in human-readable text format.
func outputQueueItemText(writer io.Writer, item *fiscalDomain.QueueItem) {
	_, _ = fmt.Fprintf(writer, "Order:     %s (#%d)\n", item.OrderID, item.OrderNumber)
	_, _ = fmt.Fprintf(writer, "Status:    %s\n", item.Status)
	_, _ = fmt.Fprintf(writer, "Attempts:  %d/%d\n", item.Attempts, item.MaxAttempts)
	if item.LastError != "" {
		_, _ = fmt.Fprintf(writer, "Error:     %s (%s)\n", item.LastError, item.ErrorCode)
	}
	if item.Document != nil {
		_, _ = fmt.Fprintf(writer, "Key:       %s\n", item.Document.Key)
		_, _ = fmt.Fprintf(writer, "Protocol:  %s\n", item.Document.Protocol)
	}
}
