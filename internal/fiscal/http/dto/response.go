package dto

import (
	"time"

	fiscalDomain "github.com/allisson/pdvsync/internal/fiscal/domain"
)

// DocumentResponse represents an authorized fiscal document.
type DocumentResponse struct {
	Key          string    `json:"key"`
	Protocol     string    `json:"protocol,omitempty"`
	Number       string    `json:"number,omitempty"`
	Series       string    `json:"series,omitempty"`
	XMLURL       string    `json:"xml_url,omitempty"`
	PDFURL       string    `json:"pdf_url,omitempty"`
	AuthorizedAt time.Time `json:"authorized_at"`
}

// CancellationResponse represents the cancellation of an authorized document.
type CancellationResponse struct {
	Justification string    `json:"justification"`
	Protocol      string    `json:"protocol,omitempty"`
	CancelledAt   time.Time `json:"cancelled_at"`
}

// HistoryEntryResponse represents one recorded status transition.
type HistoryEntryResponse struct {
	From string    `json:"from,omitempty"`
	To   string    `json:"to"`
	Note string    `json:"note,omitempty"`
	At   time.Time `json:"at"`
}

// QueueItemResponse represents a fiscal queue item in API responses. The frozen
// snapshot is summarized by its digest.
type QueueItemResponse struct {
	OrderID        string                 `json:"order_id"`
	OrderNumber    int                    `json:"order_number"`
	Total          string                 `json:"total"`
	Status         string                 `json:"status"`
	Attempts       int                    `json:"attempts"`
	MaxAttempts    int                    `json:"max_attempts"`
	QueuedAt       time.Time              `json:"queued_at"`
	LastAttempt    *time.Time             `json:"last_attempt,omitempty"`
	LastError      string                 `json:"last_error,omitempty"`
	ErrorCode      string                 `json:"error_code,omitempty"`
	ProcessedAt    *time.Time             `json:"processed_at,omitempty"`
	SnapshotDigest string                 `json:"snapshot_digest"`
	Document       *DocumentResponse      `json:"document,omitempty"`
	Cancellation   *CancellationResponse  `json:"cancellation,omitempty"`
	CancelReason   string                 `json:"cancel_reason,omitempty"`
	History        []HistoryEntryResponse `json:"history"`
}

// MapQueueItemToResponse converts a domain queue item to an API response.
func MapQueueItemToResponse(item *fiscalDomain.QueueItem) QueueItemResponse {
	response := QueueItemResponse{
		OrderID:        item.OrderID,
		OrderNumber:    item.OrderNumber,
		Total:          item.Total.StringFixed(2),
		Status:         string(item.Status),
		Attempts:       item.Attempts,
		MaxAttempts:    item.MaxAttempts,
		QueuedAt:       item.QueuedAt,
		LastAttempt:    item.LastAttempt,
		LastError:      item.LastError,
		ErrorCode:      item.ErrorCode,
		ProcessedAt:    item.ProcessedAt,
		SnapshotDigest: item.Snapshot.Digest,
		CancelReason:   item.CancelReason,
		History:        make([]HistoryEntryResponse, 0, len(item.History)),
	}
	if doc := item.Document; doc != nil {
		response.Document = &DocumentResponse{
			Key:          doc.Key,
			Protocol:     doc.Protocol,
			Number:       doc.Number,
			Series:       doc.Series,
			XMLURL:       doc.XMLURL,
			PDFURL:       doc.PDFURL,
			AuthorizedAt: doc.AuthorizedAt,
		}
	}
	if c := item.Cancellation; c != nil {
		response.Cancellation = &CancellationResponse{
			Justification: c.Justification,
			Protocol:      c.Protocol,
			CancelledAt:   c.CancelledAt,
		}
	}
	for _, h := range item.History {
		response.History = append(response.History, HistoryEntryResponse{
			From: string(h.From),
			To:   string(h.To),
			Note: h.Note,
			At:   h.At,
		})
	}
	return response
}

// ListQueueItemsResponse represents a list of queue items in API responses.
type ListQueueItemsResponse struct {
	Data []QueueItemResponse `json:"data"`
}

// MapQueueItemsToListResponse converts a slice of queue items to a list API response.
func MapQueueItemsToListResponse(items []*fiscalDomain.QueueItem) ListQueueItemsResponse {
	responses := make([]QueueItemResponse, 0, len(items))
	for _, item := range items {
		responses = append(responses, MapQueueItemToResponse(item))
	}
	return ListQueueItemsResponse{Data: responses}
}

// QueueStatusResponse summarizes the queue.
type QueueStatusResponse struct {
	Counts       map[string]int `json:"counts"`
	Total        int            `json:"total"`
	GatewayReady bool           `json:"gateway_ready"`
	Online       bool           `json:"online"`
	Environment  string         `json:"environment"`
}

// MapQueueStatusToResponse converts a domain queue status to an API response.
func MapQueueStatusToResponse(status *fiscalDomain.QueueStatus) QueueStatusResponse {
	counts := make(map[string]int, len(status.Counts))
	for s, n := range status.Counts {
		counts[string(s)] = n
	}
	return QueueStatusResponse{
		Counts:       counts,
		Total:        status.Total,
		GatewayReady: status.GatewayReady,
		Online:       status.Online,
		Environment:  status.Environment,
	}
}

// EligibilityResponse reports whether an order can be emitted and why not.
type EligibilityResponse struct {
	CanEmit bool     `json:"can_emit"`
	Reasons []string `json:"reasons"`
}

// MapEligibilityToResponse converts an eligibility result to an API response.
func MapEligibilityToResponse(e *fiscalDomain.Eligibility) EligibilityResponse {
	reasons := e.Reasons
	if reasons == nil {
		reasons = []string{}
	}
	return EligibilityResponse{CanEmit: e.CanEmit, Reasons: reasons}
}

// FiscalLogResponse represents a fiscal log entry in API responses.
type FiscalLogResponse struct {
	ID          string         `json:"id"`
	OrderID     string         `json:"order_id"`
	OrderNumber int            `json:"order_number"`
	Action      string         `json:"action"`
	Status      string         `json:"status"`
	Message     string         `json:"message,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

// MapFiscalLogToResponse converts a domain log entry to an API response.
func MapFiscalLogToResponse(entry *fiscalDomain.LogEntry) FiscalLogResponse {
	return FiscalLogResponse{
		ID:          entry.ID.String(),
		OrderID:     entry.OrderID,
		OrderNumber: entry.OrderNumber,
		Action:      string(entry.Action),
		Status:      string(entry.Status),
		Message:     entry.Message,
		Metadata:    entry.Metadata,
		CreatedAt:   entry.CreatedAt,
	}
}

// ListFiscalLogsResponse represents a list of fiscal log entries in API responses.
type ListFiscalLogsResponse struct {
	FiscalLogs []FiscalLogResponse `json:"fiscal_logs"`
}

// MapFiscalLogsToListResponse converts a slice of log entries to a list API response.
func MapFiscalLogsToListResponse(entries []*fiscalDomain.LogEntry) ListFiscalLogsResponse {
	responses := make([]FiscalLogResponse, 0, len(entries))
	for _, entry := range entries {
		responses = append(responses, MapFiscalLogToResponse(entry))
	}
	return ListFiscalLogsResponse{FiscalLogs: responses}
}
