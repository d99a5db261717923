// Package domain defines the typed records persisted through the sync engine: orders,
// customers, inventory and settings. Each collection has its own struct and validates
// itself before it is written to either store.
package domain

import (
	"fmt"
	"time"

	apperrors "github.com/allisson/pdvsync/internal/errors"
)

// Collection names a logical set of records sharing one schema.
type Collection string

const (
	CollectionOrders      Collection = "orders"
	CollectionCustomers   Collection = "customers"
	CollectionInventory   Collection = "inventory"
	CollectionSettings    Collection = "settings"
	CollectionFiscalQueue Collection = "fiscal_queue"
)

// Collections lists every collection the engine accepts.
var Collections = []Collection{
	CollectionOrders,
	CollectionCustomers,
	CollectionInventory,
	CollectionSettings,
	CollectionFiscalQueue,
}

// ErrUnknownCollection is returned for collection names outside Collections.
var ErrUnknownCollection = apperrors.Wrap(apperrors.ErrInvalidInput, "unknown collection")

// ParseCollection validates a collection name.
func ParseCollection(name string) (Collection, error) {
	for _, c := range Collections {
		if string(c) == name {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCollection, name)
}

// Meta carries the identity and timestamps shared by every record.
// CreatedAt and UpdatedAt are stamped by the sync engine; values set by callers are overwritten.
type Meta struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// RecordMeta exposes the metadata for stamping.
func (m *Meta) RecordMeta() *Meta {
	return m
}

// Record is implemented by every typed collection struct.
type Record interface {
	RecordMeta() *Meta
	Validate() error
}

// NewRecord returns an empty record of the collection's type, ready to be decoded into.
// The fiscal queue is owned by the fiscal package and is not constructible here.
func NewRecord(c Collection) (Record, error) {
	switch c {
	case CollectionOrders:
		return &Order{}, nil
	case CollectionCustomers:
		return &Customer{}, nil
	case CollectionInventory:
		return &InventoryItem{}, nil
	case CollectionSettings:
		return &Settings{}, nil
	case CollectionFiscalQueue:
		return nil, apperrors.Wrap(apperrors.ErrForbidden, "fiscal queue records are managed by the fiscal queue")
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCollection, c)
	}
}
