// Package domain defines the storage-neutral types moved between the local cache and
// the remote authoritative store.
package domain

import (
	"encoding/json"
	"time"

	entityDomain "github.com/allisson/pdvsync/internal/entity/domain"
	apperrors "github.com/allisson/pdvsync/internal/errors"
)

// Document is a serialized record as held by either store. Timestamps live in
// columns so stores can index and compare them without decoding Data.
type Document struct {
	Collection entityDomain.Collection `json:"collection"`
	ID         string                  `json:"id"`
	Data       json.RawMessage         `json:"data"`
	CreatedAt  time.Time               `json:"createdAt"`
	UpdatedAt  time.Time               `json:"updatedAt"`
	// DeletedAt marks a remote tombstone. Cache documents are never tombstones.
	DeletedAt *time.Time `json:"deletedAt,omitempty"`
}

// NewDocument serializes a stamped record.
func NewDocument(collection entityDomain.Collection, record entityDomain.Record) (*Document, error) {
	meta := record.RecordMeta()
	data, err := json.Marshal(record)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal record")
	}
	return &Document{
		Collection: collection,
		ID:         meta.ID,
		Data:       data,
		CreatedAt:  meta.CreatedAt,
		UpdatedAt:  meta.UpdatedAt,
	}, nil
}

// Decode unmarshals the document into dst and restores the column metadata.
func (d *Document) Decode(dst entityDomain.Record) error {
	if err := json.Unmarshal(d.Data, dst); err != nil {
		return apperrors.Wrap(err, "failed to unmarshal record")
	}
	meta := dst.RecordMeta()
	meta.ID = d.ID
	meta.CreatedAt = d.CreatedAt
	meta.UpdatedAt = d.UpdatedAt
	return nil
}

// IsDeleted reports whether the document is a tombstone.
func (d *Document) IsDeleted() bool {
	return d.DeletedAt != nil
}

// Clone returns a deep copy.
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	c := *d
	c.Data = append(json.RawMessage(nil), d.Data...)
	if d.DeletedAt != nil {
		at := *d.DeletedAt
		c.DeletedAt = &at
	}
	return &c
}

// RemoteWins applies last-writer-wins: the remote copy replaces the cached one only
// when it is strictly newer. Equal timestamps keep the cache.
func RemoteWins(cached, remote *Document) bool {
	if remote == nil {
		return false
	}
	if cached == nil {
		return true
	}
	return remote.UpdatedAt.After(cached.UpdatedAt)
}

// LocalWins is the push-side counterpart: the cached copy replaces the remote one
// only when it is strictly newer.
func LocalWins(cached, remote *Document) bool {
	if cached == nil {
		return false
	}
	if remote == nil {
		return true
	}
	return cached.UpdatedAt.After(remote.UpdatedAt)
}

// Filter restricts GetAll to documents whose JSON field equals Value.
type Filter struct {
	Field string
	Value any
}

// ChangeKind tells listeners what happened to a document.
type ChangeKind string

const (
	ChangeUpsert ChangeKind = "upsert"
	ChangeDelete ChangeKind = "delete"
)

// Change is delivered to listeners of a collection.
type Change struct {
	Kind     ChangeKind `json:"kind"`
	Document *Document  `json:"document"`
}
