package domain

import (
	"time"

	validation "github.com/jellydator/validation"
	"github.com/shopspring/decimal"

	customValidation "github.com/allisson/pdvsync/internal/validation"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderStatusOpen      OrderStatus = "open"
	OrderStatusPreparing OrderStatus = "preparing"
	OrderStatusReady     OrderStatus = "ready"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusFinalized OrderStatus = "finalized"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// IsFinalized reports whether the order is closed for sale and may be invoiced.
func (s OrderStatus) IsFinalized() bool {
	return s == OrderStatusFinalized || s == OrderStatusDelivered
}

// PaymentMethod is how the customer paid.
type PaymentMethod string

const (
	PaymentCash    PaymentMethod = "cash"
	PaymentCredit  PaymentMethod = "credit"
	PaymentDebit   PaymentMethod = "debit"
	PaymentPix     PaymentMethod = "pix"
	PaymentVoucher PaymentMethod = "voucher"
)

// IsRecognized reports whether the method maps to a fiscal payment code.
func (p PaymentMethod) IsRecognized() bool {
	switch p {
	case PaymentCash, PaymentCredit, PaymentDebit, PaymentPix, PaymentVoucher:
		return true
	}
	return false
}

// OrderItem is a single line of an order.
type OrderItem struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Unit      string          `json:"unit,omitempty"`
	NCM       string          `json:"ncm,omitempty"`
	CFOP      string          `json:"cfop,omitempty"`
	Notes     string          `json:"notes,omitempty"`
}

// LineTotal returns quantity times unit price.
func (i OrderItem) LineTotal() decimal.Decimal {
	return i.Quantity.Mul(i.UnitPrice)
}

// Validate checks a single order line.
func (i OrderItem) Validate() error {
	return validation.ValidateStruct(&i,
		validation.Field(&i.Name, validation.Required, customValidation.NotBlank),
		validation.Field(&i.Quantity, customValidation.PositiveDecimal),
		validation.Field(&i.UnitPrice, customValidation.NonNegativeDecimal),
		validation.Field(&i.NCM, customValidation.Digits, validation.Length(8, 8)),
		validation.Field(&i.CFOP, customValidation.Digits, validation.Length(4, 4)),
	)
}

// OrderCustomer identifies the buyer on the receipt.
type OrderCustomer struct {
	Name  string `json:"name,omitempty"`
	TaxID string `json:"taxId,omitempty"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// Validate checks the optional buyer identification.
func (c OrderCustomer) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.TaxID, customValidation.Digits, validation.Length(11, 14)),
		validation.Field(&c.Email, customValidation.Email),
	)
}

// Payment holds the settlement of an order.
type Payment struct {
	Method PaymentMethod   `json:"method"`
	Amount decimal.Decimal `json:"amount"`
	Change decimal.Decimal `json:"change"`
}

// OrderFiscal is written back onto the order once a fiscal document is authorized.
type OrderFiscal struct {
	Status         string     `json:"status"`
	DocumentKey    string     `json:"documentKey,omitempty"`
	Protocol       string     `json:"protocol,omitempty"`
	Number         string     `json:"number,omitempty"`
	Series         string     `json:"series,omitempty"`
	XMLURL         string     `json:"xmlUrl,omitempty"`
	PDFURL         string     `json:"pdfUrl,omitempty"`
	IssuedAt       *time.Time `json:"issuedAt,omitempty"`
	CancelledAt    *time.Time `json:"cancelledAt,omitempty"`
	CancelProtocol string     `json:"cancelProtocol,omitempty"`
}

// Order is a restaurant ticket.
type Order struct {
	Meta
	Number        int             `json:"number"`
	Status        OrderStatus     `json:"status"`
	Table         string          `json:"table,omitempty"`
	Items         []OrderItem     `json:"items"`
	Customer      *OrderCustomer  `json:"customer,omitempty"`
	Payment       Payment         `json:"payment"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	Discount      decimal.Decimal `json:"discount"`
	ServiceFee    decimal.Decimal `json:"serviceFee"`
	Total         decimal.Decimal `json:"total"`
	FiscalEnabled bool            `json:"fiscalEnabled"`
	Fiscal        *OrderFiscal    `json:"fiscal,omitempty"`
	ClosedAt      *time.Time      `json:"closedAt,omitempty"`
}

// Validate checks the order shape. Fiscal eligibility is a separate, stricter check.
func (o *Order) Validate() error {
	return validation.ValidateStruct(o,
		validation.Field(&o.Number, validation.Min(0)),
		validation.Field(&o.Status, validation.Required, validation.In(
			OrderStatusOpen,
			OrderStatusPreparing,
			OrderStatusReady,
			OrderStatusDelivered,
			OrderStatusFinalized,
			OrderStatusCancelled,
		)),
		validation.Field(&o.Items),
		validation.Field(&o.Customer),
		validation.Field(&o.Subtotal, customValidation.NonNegativeDecimal),
		validation.Field(&o.Discount, customValidation.NonNegativeDecimal),
		validation.Field(&o.ServiceFee, customValidation.NonNegativeDecimal),
		validation.Field(&o.Total, customValidation.NonNegativeDecimal),
	)
}

// ItemsTotal sums the line totals.
func (o *Order) ItemsTotal() decimal.Decimal {
	sum := decimal.Zero
	for _, item := range o.Items {
		sum = sum.Add(item.LineTotal())
	}
	return sum
}
