package domain

import (
	apperrors "github.com/allisson/pdvsync/internal/errors"
)

// Sync engine errors.
var (
	// ErrRecordNotFound indicates the record is in neither store.
	ErrRecordNotFound = apperrors.Wrap(apperrors.ErrNotFound, "record not found")

	// ErrPendingNotDrained indicates a pull was refused because older local writes
	// have not reached the remote store yet.
	ErrPendingNotDrained = apperrors.Wrap(apperrors.ErrOffline, "pending operations not drained")

	// ErrRemoteUnavailable indicates the remote store is offline or signed out.
	ErrRemoteUnavailable = apperrors.Wrap(apperrors.ErrOffline, "remote store unavailable")

	// ErrEngineStopped indicates the engine is not running.
	ErrEngineStopped = apperrors.New("sync engine is not running")
)
