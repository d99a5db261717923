package usecase

import (
	"context"
	"time"

	apperrors "github.com/allisson/pdvsync/internal/errors"
	fiscalDomain "github.com/allisson/pdvsync/internal/fiscal/domain"
)

// logUseCase implements LogUseCase.
type logUseCase struct {
	logRepo LogRepository
}

// NewLogUseCase creates a LogUseCase.
func NewLogUseCase(logRepo LogRepository) LogUseCase {
	return &logUseCase{logRepo: logRepo}
}

// ListByOrder returns the audit trail of one order, oldest first.
func (l *logUseCase) ListByOrder(ctx context.Context, orderID string) ([]*fiscalDomain.LogEntry, error) {
	if orderID == "" {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "order id is required")
	}
	entries, err := l.logRepo.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list fiscal log entries")
	}
	return entries, nil
}

// List retrieves entries newest first with pagination and optional inclusive time bounds
// (nil means unbounded). Timestamps are expected in UTC.
func (l *logUseCase) List(
	ctx context.Context,
	offset, limit int,
	createdAtFrom, createdAtTo *time.Time,
) ([]*fiscalDomain.LogEntry, error) {
	entries, err := l.logRepo.List(ctx, offset, limit, createdAtFrom, createdAtTo)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list fiscal log entries")
	}
	return entries, nil
}
