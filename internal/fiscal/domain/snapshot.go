package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	validation "github.com/jellydator/validation"

	entityDomain "github.com/allisson/pdvsync/internal/entity/domain"
	apperrors "github.com/allisson/pdvsync/internal/errors"
)

// Snapshot is the frozen copy of an order taken when it entered the queue. Emission
// always uses the snapshot, never the live order.
type Snapshot struct {
	Order      entityDomain.Order `json:"order"`
	CapturedAt time.Time          `json:"capturedAt"`
	// Digest is the hex SHA-256 of the canonical JSON of Order.
	Digest string `json:"digest"`
}

// NewSnapshot deep-copies the order and seals it with a digest.
func NewSnapshot(order *entityDomain.Order, at time.Time) (Snapshot, error) {
	if order == nil {
		return Snapshot{}, apperrors.Wrap(apperrors.ErrInvalidInput, "order is required")
	}

	// A JSON round trip detaches every slice and pointer from the live order and
	// leaves the copy in the same form it will have after being stored.
	data, err := json.Marshal(order)
	if err != nil {
		return Snapshot{}, apperrors.Wrap(err, "failed to marshal order snapshot")
	}
	var frozen entityDomain.Order
	if err := json.Unmarshal(data, &frozen); err != nil {
		return Snapshot{}, apperrors.Wrap(err, "failed to copy order snapshot")
	}
	frozen.Meta = entityDomain.Meta{
		ID:        order.ID,
		CreatedAt: order.CreatedAt.UTC(),
		UpdatedAt: order.UpdatedAt.UTC(),
	}

	digest, err := digestOf(&frozen)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{Order: frozen, CapturedAt: at.UTC(), Digest: digest}, nil
}

// Verify recomputes the digest and fails with ErrSnapshotTampered on mismatch.
func (s Snapshot) Verify() error {
	digest, err := digestOf(&s.Order)
	if err != nil {
		return err
	}
	if digest != s.Digest {
		return fmt.Errorf("%w: order %s", ErrSnapshotTampered, s.Order.ID)
	}
	return nil
}

// Validate checks that the snapshot was sealed.
func (s Snapshot) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.CapturedAt, validation.Required),
		validation.Field(&s.Digest, validation.Required, validation.Length(64, 64)),
	)
}

func digestOf(order *entityDomain.Order) (string, error) {
	data, err := json.Marshal(order)
	if err != nil {
		return "", apperrors.Wrap(err, "failed to marshal order snapshot")
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
