package usecase

import (
	"time"

	entityDomain "github.com/allisson/pdvsync/internal/entity/domain"
	fiscalDomain "github.com/allisson/pdvsync/internal/fiscal/domain"
	"github.com/allisson/pdvsync/internal/gateway"
)

// buildPayload derives the emission request from the frozen snapshot, never from the
// live order. The issuer comes from the current settings.
func buildPayload(
	item *fiscalDomain.QueueItem,
	company entityDomain.CompanyProfile,
	issuedAt time.Time,
) *gateway.EmissionPayload {
	order := item.Snapshot.Order

	items := make([]gateway.Item, 0, len(order.Items))
	for _, line := range order.Items {
		items = append(items, gateway.Item{
			ProductID: line.ProductID,
			Name:      line.Name,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
			Unit:      line.Unit,
			NCM:       line.NCM,
			CFOP:      line.CFOP,
		})
	}

	var buyer *gateway.Buyer
	if c := order.Customer; c != nil && (c.TaxID != "" || c.Name != "") {
		buyer = &gateway.Buyer{Name: c.Name, TaxID: c.TaxID, Email: c.Email}
	}

	return &gateway.EmissionPayload{
		Reference: item.OrderID,
		IssuedAt:  issuedAt.UTC(),
		Issuer:    company,
		Buyer:     buyer,
		Items:     items,
		Payment: gateway.Payment{
			Method: order.Payment.Method,
			Amount: order.Payment.Amount,
			Change: order.Payment.Change,
		},
		Subtotal:   order.Subtotal,
		Discount:   order.Discount,
		ServiceFee: order.ServiceFee,
		Total:      order.Total,
	}
}
