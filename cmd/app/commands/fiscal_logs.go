package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	fiscalDomain "github.com/allisson/pdvsync/internal/fiscal/domain"
	"github.com/allisson/pdvsync/internal/fiscal/http/dto"
	fiscalUseCase "github.com/allisson/pdvsync/internal/fiscal/usecase"
)

// FiscalLogsQuery selects fiscal log entries. OrderID takes precedence over the date range.
type FiscalLogsQuery struct {
	OrderID   string
	StartDate string
	EndDate   string
	Offset    int
	Limit     int
}

// RunFiscalLogs prints fiscal log entries: the full trail of one order oldest first, or
// a page of entries newest first, optionally bounded by dates.
func RunFiscalLogs(
	ctx context.Context,
	logUseCase fiscalUseCase.LogUseCase,
	logger *slog.Logger,
	writer io.Writer,
	query FiscalLogsQuery,
	format string,
) error {
	if err := validateFormat(format); err != nil {
		return err
	}

	var (
		entries []*fiscalDomain.LogEntry
		err     error
	)
	if query.OrderID != "" {
		entries, err = logUseCase.ListByOrder(ctx, query.OrderID)
	} else {
		if query.Offset < 0 {
			return fmt.Errorf("offset must be a non-negative number, got: %d", query.Offset)
		}
		if query.Limit < 1 || query.Limit > 100 {
			return fmt.Errorf("limit must be between 1 and 100, got: %d", query.Limit)
		}

		start, end, parseErr := parseDateRange(query.StartDate, query.EndDate)
		if parseErr != nil {
			return parseErr
		}
		entries, err = logUseCase.List(ctx, query.Offset, query.Limit, start, end)
	}
	if err != nil {
		return fmt.Errorf("failed to list fiscal logs: %w", err)
	}

	if format == "json" {
		if err := writeJSON(writer, dto.MapFiscalLogsToListResponse(entries)); err != nil {
			return err
		}
	} else {
		outputFiscalLogsText(writer, entries)
	}

	logger.Info("fiscal logs listed",
		slog.String("order_id", query.OrderID),
		slog.Int("count", len(entries)),
	)

	return nil
}

// parseDateRange parses optional start and end dates. An end date without a time part
// covers the whole day.
func parseDateRange(startDate, endDate string) (*time.Time, *time.Time, error) {
	var start, end *time.Time
	if startDate != "" {
		t, err := parseDate(startDate)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid start date: %w", err)
		}
		start = &t
	}
	if endDate != "" {
		t, err := parseDate(endDate)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid end date: %w", err)
		}
		if len(endDate) == len("2006-01-02") {
			t = t.Add(24*time.Hour - time.Nanosecond)
		}
		end = &t
	}
	if start != nil && end != nil && start.After(*end) {
		return nil, nil, fmt.Errorf("start date must be before or equal to end date")
	}
	return start, end, nil
}

// parseDate parses a date string in format "YYYY-MM-DD" or "YYYY-MM-DD HH:MM:SS" as UTC.
func parseDate(dateStr string) (time.Time, error) {
	t, err := time.Parse("2006-01-02 15:04:05", dateStr)
	if err == nil {
		return t, nil
	}

	t, err = time.Parse("2006-01-02", dateStr)
	if err != nil {
		return time.Time{}, fmt.Errorf(
			"invalid date format (expected YYYY-MM-DD or YYYY-MM-DD HH:MM:SS): %s",
			dateStr,
		)
	}

	return t, nil
}

// outputFiscalLogsText outputs log entries in human-readable text format.
func outputFiscalLogsText(writer io.Writer, entries []*fiscalDomain.LogEntry) {
	if len(entries) == 0 {
		_, _ = fmt.Fprintf(writer, "No fiscal log entries found\n")
		return
	}

	for _, entry := range entries {
		_, _ = fmt.Fprintf(writer, "%s  %-20s %-12s %s",
			entry.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
			entry.Action,
			entry.Status,
			entry.OrderID,
		)
		if entry.Message != "" {
			_, _ = fmt.Fprintf(writer, "  %s", entry.Message)
		}
		_, _ = fmt.Fprintln(writer)
	}
}
