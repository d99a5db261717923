package dto

import (
	"encoding/json"
	"time"

	syncDomain "github.com/allisson/pdvsync/internal/sync/domain"
)

// DocumentResponse represents a stored record in API responses.
type DocumentResponse struct {
	Collection string          `json:"collection"`
	ID         string          `json:"id"`
	Data       json.RawMessage `json:"data"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// MapDocumentToResponse converts a document to an API response.
func MapDocumentToResponse(doc *syncDomain.Document) DocumentResponse {
	return DocumentResponse{
		Collection: string(doc.Collection),
		ID:         doc.ID,
		Data:       doc.Data,
		CreatedAt:  doc.CreatedAt,
		UpdatedAt:  doc.UpdatedAt,
	}
}

// ListDocumentsResponse represents a list of records in API responses.
type ListDocumentsResponse struct {
	Data []DocumentResponse `json:"data"`
}

// MapDocumentsToListResponse converts documents to a list API response.
func MapDocumentsToListResponse(docs []*syncDomain.Document) ListDocumentsResponse {
	responses := make([]DocumentResponse, 0, len(docs))
	for _, doc := range docs {
		responses = append(responses, MapDocumentToResponse(doc))
	}
	return ListDocumentsResponse{Data: responses}
}

// WriteResponse reports the outcome of a save or delete. Pending means the write only
// reached the local cache and will be replayed to the remote store.
type WriteResponse struct {
	Document *DocumentResponse `json:"document,omitempty"`
	Pending  bool              `json:"pending"`
	TimedOut bool              `json:"timed_out"`
}

// MapWriteResultToResponse converts a write result to an API response.
func MapWriteResultToResponse(result *syncDomain.WriteResult) WriteResponse {
	response := WriteResponse{Pending: result.Pending, TimedOut: result.TimedOut}
	if result.Document != nil {
		doc := MapDocumentToResponse(result.Document)
		response.Document = &doc
	}
	return response
}

// ChangeResponse is one event of the change stream.
type ChangeResponse struct {
	Kind     string           `json:"kind"`
	Document DocumentResponse `json:"document"`
}

// MapChangeToResponse converts a change to a stream event.
func MapChangeToResponse(change syncDomain.Change) ChangeResponse {
	return ChangeResponse{
		Kind:     string(change.Kind),
		Document: MapDocumentToResponse(change.Document),
	}
}

// SyncReportResponse summarizes a reconciliation pass.
type SyncReportResponse struct {
	Drained int `json:"drained"`
	Applied int `json:"applied"`
	Deleted int `json:"deleted"`
	Skipped int `json:"skipped"`
	Pushed  int `json:"pushed"`
}

// MapSyncReportToResponse converts a sync report to an API response.
func MapSyncReportToResponse(report syncDomain.SyncReport) SyncReportResponse {
	return SyncReportResponse(report)
}

// DrainResponse reports how many pending operations were replayed.
type DrainResponse struct {
	Drained int `json:"drained"`
}

// StatusResponse is a point-in-time view of the sync engine.
type StatusResponse struct {
	Online            bool       `json:"online"`
	Authenticated     bool       `json:"authenticated"`
	PendingOperations int        `json:"pending_operations"`
	LastPullAt        *time.Time `json:"last_pull_at,omitempty"`
	LastPushAt        *time.Time `json:"last_push_at,omitempty"`
}

// MapStatusToResponse converts an engine status to an API response.
func MapStatusToResponse(status *syncDomain.Status) StatusResponse {
	return StatusResponse{
		Online:            status.Online,
		Authenticated:     status.Authenticated,
		PendingOperations: status.PendingOperations,
		LastPullAt:        status.LastPullAt,
		LastPushAt:        status.LastPushAt,
	}
}

// SessionResponse reports the connectivity state after a session change.
type SessionResponse struct {
	Online        bool `json:"online"`
	Authenticated bool `json:"authenticated"`
	Reachable     bool `json:"reachable"`
}
