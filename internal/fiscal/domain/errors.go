package domain

import (
	"strings"

	apperrors "github.com/allisson/pdvsync/internal/errors"
)

// Fiscal queue errors.
var (
	// ErrQueueItemNotFound indicates the order has no fiscal queue item.
	ErrQueueItemNotFound = apperrors.Wrap(apperrors.ErrNotFound, "fiscal queue item not found")

	// ErrOrderNotFound indicates the referenced order does not exist.
	ErrOrderNotFound = apperrors.Wrap(apperrors.ErrNotFound, "order not found")

	// ErrAlreadyQueued indicates the order already has a queue item.
	ErrAlreadyQueued = apperrors.Wrap(apperrors.ErrConflict, "order already in the fiscal queue")

	// ErrNotEligible indicates the order failed the eligibility predicate.
	ErrNotEligible = apperrors.Wrap(apperrors.ErrInvalidInput, "order is not eligible for fiscal emission")

	// ErrInvalidTransition indicates a status change not allowed by the state machine.
	ErrInvalidTransition = apperrors.Wrap(apperrors.ErrInvalidTransition, "invalid fiscal status transition")

	// ErrLimitExceeded indicates the retry budget of the item is exhausted.
	ErrLimitExceeded = apperrors.Wrap(apperrors.ErrLimitExceeded, "fiscal emission attempts exhausted")

	// ErrReasonRequired indicates a cancellation without a reason.
	ErrReasonRequired = apperrors.Wrap(apperrors.ErrInvalidInput, "cancellation reason is required")

	// ErrSnapshotTampered indicates the stored snapshot no longer matches its digest.
	ErrSnapshotTampered = apperrors.Wrap(apperrors.ErrConflict, "fiscal snapshot digest mismatch")

	// ErrCancelRefused indicates the gateway refused to cancel an authorized document.
	ErrCancelRefused = apperrors.Wrap(apperrors.ErrConflict, "fiscal document cancellation refused")
)

// EligibilityError carries every unmet emission condition.
type EligibilityError struct {
	Reasons []string
}

func (e *EligibilityError) Error() string {
	return ErrNotEligible.Error() + ": " + strings.Join(e.Reasons, "; ")
}

// Unwrap exposes ErrNotEligible to errors.Is.
func (e *EligibilityError) Unwrap() error {
	return ErrNotEligible
}
