// Package gateway translates fiscal emission requests to and from the external
// fiscal gateway's JSON API.
//
// The adapter never talks to the production environment. Any configuration that asks
// for production is downgraded to sandbox (homologation) with a warning. No
// credentials are held here; the gateway endpoint is a service boundary that owns them.
package gateway

import (
	"strings"
	"time"

	validation "github.com/jellydator/validation"
	"github.com/shopspring/decimal"

	entityDomain "github.com/allisson/pdvsync/internal/entity/domain"
	apperrors "github.com/allisson/pdvsync/internal/errors"
	customValidation "github.com/allisson/pdvsync/internal/validation"
)

// Environment is the gateway environment a request is issued against.
type Environment string

const (
	EnvironmentSandbox    Environment = "sandbox"
	EnvironmentProduction Environment = "production"
)

// MinJustificationLength is the minimum number of characters of a cancellation reason.
const MinJustificationLength = 15

// Gateway errors.
var (
	// ErrNotConfigured indicates the adapter has no gateway URL.
	ErrNotConfigured = apperrors.Wrap(apperrors.ErrGatewayUnavailable, "fiscal gateway not configured")

	// ErrJustificationTooShort indicates a cancellation reason below MinJustificationLength.
	ErrJustificationTooShort = apperrors.Wrap(
		apperrors.ErrInvalidInput,
		"justification must have at least 15 characters",
	)
)

// ResultStatus is the outcome reported by the gateway for a document.
type ResultStatus string

const (
	ResultAuthorized ResultStatus = "authorized"
	ResultDenied     ResultStatus = "denied"
	ResultProcessing ResultStatus = "processing"
	ResultCancelled  ResultStatus = "cancelled"
)

// Item is one line of the document.
type Item struct {
	ProductID string
	Name      string
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
	Unit      string
	NCM       string
	CFOP      string
}

// Buyer identifies the customer on the document.
type Buyer struct {
	Name  string
	TaxID string
	Email string
}

// Payment is the settlement printed on the document.
type Payment struct {
	Method entityDomain.PaymentMethod
	Amount decimal.Decimal
	Change decimal.Decimal
}

// EmissionPayload is everything the gateway needs to issue one consumer receipt.
type EmissionPayload struct {
	// Reference is the caller's idempotency key; the fiscal queue uses the order id.
	Reference  string
	IssuedAt   time.Time
	Issuer     entityDomain.CompanyProfile
	Buyer      *Buyer
	Items      []Item
	Payment    Payment
	Subtotal   decimal.Decimal
	Discount   decimal.Decimal
	ServiceFee decimal.Decimal
	Total      decimal.Decimal
}

// Validate checks the payload before any network call.
func (p *EmissionPayload) Validate() error {
	return validation.ValidateStruct(p,
		validation.Field(&p.Reference, validation.Required, customValidation.Identifier),
		validation.Field(&p.IssuedAt, validation.Required),
		validation.Field(&p.Items, validation.Required),
		validation.Field(&p.Total, customValidation.PositiveDecimal),
	)
}

// EmissionResult is returned by EmitDocument and CheckStatus.
type EmissionResult struct {
	Success      bool
	Status       ResultStatus
	Reference    string
	DocumentKey  string
	Protocol     string
	Number       string
	Series       string
	XMLURL       string
	PDFURL       string
	ErrorCode    string
	ErrorMessage string
}

// CancelResult is returned by CancelDocument.
type CancelResult struct {
	Success      bool
	Status       ResultStatus
	Protocol     string
	ErrorCode    string
	ErrorMessage string
}

// ValidateJustification checks the cancellation reason length after trimming.
func ValidateJustification(justification string) error {
	trimmed := strings.TrimSpace(justification)
	if err := validation.Validate(trimmed, validation.Required, customValidation.MinRunes(MinJustificationLength)); err != nil {
		return ErrJustificationTooShort
	}
	return nil
}
