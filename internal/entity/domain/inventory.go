package domain

import (
	validation "github.com/jellydator/validation"
	"github.com/shopspring/decimal"

	customValidation "github.com/allisson/pdvsync/internal/validation"
)

// InventoryItem is a stock keeping unit with its on-hand quantity.
type InventoryItem struct {
	Meta
	SKU         string          `json:"sku"`
	Name        string          `json:"name"`
	Unit        string          `json:"unit"`
	Quantity    decimal.Decimal `json:"quantity"`
	MinQuantity decimal.Decimal `json:"minQuantity"`
	CostPrice   decimal.Decimal `json:"costPrice"`
}

// BelowMinimum reports whether the item needs restocking.
func (i *InventoryItem) BelowMinimum() bool {
	return i.Quantity.LessThan(i.MinQuantity)
}

// Validate checks the inventory record.
func (i *InventoryItem) Validate() error {
	return validation.ValidateStruct(i,
		validation.Field(&i.SKU, validation.Required, customValidation.NoWhitespace),
		validation.Field(&i.Name, validation.Required, customValidation.NotBlank),
		validation.Field(&i.Unit, validation.Required),
		validation.Field(&i.Quantity, customValidation.NonNegativeDecimal),
		validation.Field(&i.MinQuantity, customValidation.NonNegativeDecimal),
		validation.Field(&i.CostPrice, customValidation.NonNegativeDecimal),
	)
}
