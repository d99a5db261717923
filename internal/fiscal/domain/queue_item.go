package domain

import (
	"time"

	validation "github.com/jellydator/validation"
	"github.com/shopspring/decimal"

	entityDomain "github.com/allisson/pdvsync/internal/entity/domain"
	customValidation "github.com/allisson/pdvsync/internal/validation"
)

// DefaultMaxAttempts is the emission retry budget of a new queue item.
const DefaultMaxAttempts = 3

// MaxStatusCheckFailures is the number of consecutive failed status checks after which a
// PROCESSING item is moved to ERROR.
const MaxStatusCheckFailures = 3

// Document holds the identifiers of an authorized fiscal document.
type Document struct {
	Key          string    `json:"key"`
	Protocol     string    `json:"protocol,omitempty"`
	Number       string    `json:"number,omitempty"`
	Series       string    `json:"series,omitempty"`
	XMLURL       string    `json:"xmlUrl,omitempty"`
	PDFURL       string    `json:"pdfUrl,omitempty"`
	AuthorizedAt time.Time `json:"authorizedAt"`
}

// Cancellation records the gateway cancellation of an authorized document.
type Cancellation struct {
	Justification string    `json:"justification"`
	Protocol      string    `json:"protocol,omitempty"`
	CancelledAt   time.Time `json:"cancelledAt"`
}

// QueueItem is one order's fiscal emission task. It is stored in the fiscal_queue
// collection under the order id.
type QueueItem struct {
	entityDomain.Meta
	OrderID      string          `json:"orderId"`
	OrderNumber  int             `json:"orderNumber"`
	Total        decimal.Decimal `json:"total"`
	Status       Status          `json:"status"`
	Attempts     int             `json:"attempts"`
	MaxAttempts  int             `json:"maxAttempts"`
	QueuedAt     time.Time       `json:"queuedAt"`
	LastAttempt  *time.Time      `json:"lastAttempt,omitempty"`
	LastError    string          `json:"lastError,omitempty"`
	ErrorCode    string          `json:"errorCode,omitempty"`
	ProcessedAt  *time.Time      `json:"processedAt,omitempty"`
	Snapshot     Snapshot        `json:"snapshot"`
	Document     *Document       `json:"document,omitempty"`
	Cancellation *Cancellation   `json:"cancellation,omitempty"`
	CancelReason string          `json:"cancelReason,omitempty"`
	History      []HistoryEntry  `json:"history"`

	// StatusCheckFailures counts failed status checks since the last emission attempt.
	StatusCheckFailures int `json:"statusCheckFailures,omitempty"`
}

// NewQueueItem creates a QUEUED item for the snapshot.
func NewQueueItem(snapshot Snapshot, maxAttempts int, at time.Time) *QueueItem {
	if maxAttempts < 1 {
		maxAttempts = DefaultMaxAttempts
	}
	at = at.UTC()
	order := snapshot.Order
	return &QueueItem{
		Meta:        entityDomain.Meta{ID: order.ID},
		OrderID:     order.ID,
		OrderNumber: order.Number,
		Total:       order.Total,
		Status:      StatusQueued,
		MaxAttempts: maxAttempts,
		QueuedAt:    at,
		Snapshot:    snapshot,
		History:     []HistoryEntry{{To: StatusQueued, At: at}},
	}
}

// AttemptsExhausted reports whether the retry budget is spent.
func (q *QueueItem) AttemptsExhausted() bool {
	return q.Attempts >= q.MaxAttempts
}

// Validate checks the stored shape of the item.
func (q *QueueItem) Validate() error {
	return validation.ValidateStruct(q,
		validation.Field(&q.OrderID, validation.Required, customValidation.Identifier),
		validation.Field(&q.Status, validation.Required, validation.By(func(value interface{}) error {
			if _, err := ParseStatus(string(q.Status)); err != nil {
				return validation.NewError("validation_fiscal_status", "must be a known fiscal status")
			}
			return nil
		})),
		validation.Field(&q.Attempts, validation.Min(0)),
		validation.Field(&q.MaxAttempts, validation.Min(1)),
		validation.Field(&q.QueuedAt, validation.Required),
		validation.Field(&q.Snapshot),
	)
}

// QueueStatus summarizes the queue for display.
type QueueStatus struct {
	Counts       map[Status]int `json:"counts"`
	Total        int            `json:"total"`
	GatewayReady bool           `json:"gatewayReady"`
	Online       bool           `json:"online"`
	Environment  string         `json:"environment"`
}

// NewQueueStatus counts items per status. Every status is present in Counts.
func NewQueueStatus(items []*QueueItem) *QueueStatus {
	counts := make(map[Status]int, len(Statuses))
	for _, s := range Statuses {
		counts[s] = 0
	}
	for _, item := range items {
		counts[item.Status]++
	}
	return &QueueStatus{Counts: counts, Total: len(items)}
}
