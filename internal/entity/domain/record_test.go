package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/allisson/pdvsync/internal/errors"
)

func validOrder() *Order {
	return &Order{
		Number: 42,
		Status: OrderStatusFinalized,
		Items: []OrderItem{
			{Name: "X-Burger", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.RequireFromString("42.50")},
		},
		Payment:  Payment{Method: PaymentPix, Amount: decimal.RequireFromString("42.50")},
		Subtotal: decimal.RequireFromString("42.50"),
		Total:    decimal.RequireFromString("42.50"),
	}
}

func TestParseCollection(t *testing.T) {
	c, err := ParseCollection("orders")
	require.NoError(t, err)
	assert.Equal(t, CollectionOrders, c)

	_, err = ParseCollection("payments")
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestNewRecord(t *testing.T) {
	tests := []struct {
		collection Collection
		expected   Record
	}{
		{CollectionOrders, &Order{}},
		{CollectionCustomers, &Customer{}},
		{CollectionInventory, &InventoryItem{}},
		{CollectionSettings, &Settings{}},
	}
	for _, tt := range tests {
		t.Run(string(tt.collection), func(t *testing.T) {
			rec, err := NewRecord(tt.collection)
			require.NoError(t, err)
			assert.IsType(t, tt.expected, rec)
			assert.NotNil(t, rec.RecordMeta())
		})
	}

	t.Run("Error_FiscalQueueIsNotConstructible", func(t *testing.T) {
		_, err := NewRecord(CollectionFiscalQueue)
		assert.ErrorIs(t, err, apperrors.ErrForbidden)
	})

	t.Run("Error_Unknown", func(t *testing.T) {
		_, err := NewRecord("nope")
		assert.ErrorIs(t, err, ErrUnknownCollection)
	})
}

func TestOrder_Validate(t *testing.T) {
	t.Run("Success_ValidOrder", func(t *testing.T) {
		assert.NoError(t, validOrder().Validate())
	})

	t.Run("Success_ZeroTotalIsStorable", func(t *testing.T) {
		o := validOrder()
		o.Total = decimal.Zero
		assert.NoError(t, o.Validate())
	})

	t.Run("Error_UnknownStatus", func(t *testing.T) {
		o := validOrder()
		o.Status = "paid"
		assert.Error(t, o.Validate())
	})

	t.Run("Error_NegativeTotal", func(t *testing.T) {
		o := validOrder()
		o.Total = decimal.NewFromInt(-1)
		assert.Error(t, o.Validate())
	})

	t.Run("Error_ItemWithoutQuantity", func(t *testing.T) {
		o := validOrder()
		o.Items[0].Quantity = decimal.Zero
		assert.Error(t, o.Validate())
	})

	t.Run("Error_InvalidCustomerTaxID", func(t *testing.T) {
		o := validOrder()
		o.Customer = &OrderCustomer{TaxID: "123"}
		assert.Error(t, o.Validate())
	})
}

func TestOrder_Helpers(t *testing.T) {
	o := validOrder()
	o.Items = append(o.Items, OrderItem{
		Name:      "Soda",
		Quantity:  decimal.NewFromInt(2),
		UnitPrice: decimal.RequireFromString("6.25"),
	})
	assert.True(t, o.ItemsTotal().Equal(decimal.RequireFromString("55")))

	assert.True(t, OrderStatusDelivered.IsFinalized())
	assert.True(t, OrderStatusFinalized.IsFinalized())
	assert.False(t, OrderStatusOpen.IsFinalized())

	assert.True(t, PaymentPix.IsRecognized())
	assert.False(t, PaymentMethod("barter").IsRecognized())
}

func TestCustomer_Validate(t *testing.T) {
	assert.NoError(t, (&Customer{Name: "Ana", Email: "ana@example.com", TaxID: "12345678901"}).Validate())
	assert.Error(t, (&Customer{Name: "  "}).Validate())
	assert.Error(t, (&Customer{Name: "Ana", Email: "not-an-email"}).Validate())
	assert.Error(t, (&Customer{Name: "Ana", Address: &Address{ZipCode: "abc"}}).Validate())
}

func TestInventoryItem(t *testing.T) {
	item := &InventoryItem{
		SKU:         "BUN-01",
		Name:        "Burger bun",
		Unit:        "un",
		Quantity:    decimal.NewFromInt(3),
		MinQuantity: decimal.NewFromInt(10),
	}
	assert.NoError(t, item.Validate())
	assert.True(t, item.BelowMinimum())

	item.SKU = " BUN-01"
	assert.Error(t, item.Validate())
}

func TestSettings_Validate(t *testing.T) {
	s := &Settings{Company: CompanyProfile{TaxID: "12345678000195"}}
	assert.NoError(t, s.Validate())

	s.Company.TaxID = "1234"
	assert.Error(t, s.Validate())
}

func TestAddress_IsComplete(t *testing.T) {
	addr := Address{
		Street:   "Rua A",
		Number:   "10",
		District: "Centro",
		City:     "Curitiba",
		CityCode: "4106902",
		State:    "PR",
		ZipCode:  "80010000",
	}
	assert.True(t, addr.IsComplete())
	assert.NoError(t, addr.Validate())

	addr.CityCode = ""
	assert.False(t, addr.IsComplete())
}
