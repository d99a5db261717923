package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/allisson/pdvsync/internal/sync/http/dto"
	syncUseCase "github.com/allisson/pdvsync/internal/sync/usecase"
)

// RunSync runs one manual synchronization between the local cache and the remote store.
// Direction "pull" merges remote data into the cache, "push" sends newer cached records
// and "drain" only replays pending operations. Both pull and push drain first.
func RunSync(
	ctx context.Context,
	engine syncUseCase.Engine,
	logger *slog.Logger,
	writer io.Writer,
	direction string,
	format string,
) error {
	if err := validateFormat(format); err != nil {
		return err
	}

	logger.Info("running manual sync", slog.String("direction", direction))

	var (
		response dto.SyncReportResponse
		err      error
	)
	switch direction {
	case "pull":
		report, syncErr := engine.SyncFromCloud(ctx)
		response, err = dto.MapSyncReportToResponse(report), syncErr
	case "push":
		report, syncErr := engine.SyncToCloud(ctx)
		response, err = dto.MapSyncReportToResponse(report), syncErr
	case "drain":
		response.Drained, err = engine.DrainPending(ctx)
	default:
		return fmt.Errorf("invalid direction: %s (valid options: pull, push, drain)", direction)
	}
	if err != nil {
		return fmt.Errorf("failed to sync (%s): %w", direction, err)
	}

	status, err := engine.Status(ctx)
	if err != nil {
		return fmt.Errorf("failed to get sync status: %w", err)
	}

	if format == "json" {
		if err := writeJSON(writer, map[string]any{
			"direction": direction,
			"report":    response,
			"status":    dto.MapStatusToResponse(status),
		}); err != nil {
			return err
		}
	} else {
		_, _ = fmt.Fprintf(writer, "Sync (%s) completed\n\n", direction)
		_, _ = fmt.Fprintf(writer, "Drained:  %d\n", response.Drained)
		_, _ = fmt.Fprintf(writer, "Applied:  %d\n", response.Applied)
		_, _ = fmt.Fprintf(writer, "Deleted:  %d\n", response.Deleted)
		_, _ = fmt.Fprintf(writer, "Skipped:  %d\n", response.Skipped)
		_, _ = fmt.Fprintf(writer, "Pushed:   %d\n\n", response.Pushed)
		_, _ = fmt.Fprintf(writer, "Pending operations: %d\n", status.PendingOperations)
	}

	logger.Info("manual sync completed",
		slog.String("direction", direction),
		slog.Int("drained", response.Drained),
		slog.Int("applied", response.Applied),
		slog.Int("pushed", response.Pushed),
		slog.Int("pending_operations", status.PendingOperations),
	)

	return nil
}
