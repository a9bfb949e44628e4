// Package sales records completed checkouts and serves sales history and
// summary views.
package sales

import (
	"time"

	"github.com/google/uuid"

	"github.com/mtaasisi/lats-pos-api/internal/pricing"
)

// StatusCompleted is the only status written by checkout. StatusRefunded is
// reserved for refunds recorded outside this service; summaries skip such
// rows.
const (
	StatusCompleted = "completed"
	StatusRefunded  = "refunded"
)

// SaleItem is one sold line, copied from the cart at checkout time.
type SaleItem struct {
	ID        uuid.UUID     `json:"id"`
	SaleID    uuid.UUID     `json:"saleId"`
	ProductID *uuid.UUID    `json:"productId,omitempty"`
	Name      string        `json:"name"`
	Variant   string        `json:"variant,omitempty"`
	Qty       int           `json:"qty"`
	UnitPrice pricing.Money `json:"unitPrice"`
	Total     pricing.Money `json:"total"`
}

// Sale is a completed checkout with its money breakdown.
type Sale struct {
	ID             uuid.UUID     `json:"id"`
	ReceiptNumber  string        `json:"receiptNumber"`
	CustomerID     *uuid.UUID    `json:"customerId,omitempty"`
	CustomerName   string        `json:"customerName,omitempty"`
	DeliveryMethod string        `json:"deliveryMethod"`
	Status         string        `json:"status"`
	Subtotal       pricing.Money `json:"subtotal"`
	Tax            pricing.Money `json:"tax"`
	Shipping       pricing.Money `json:"shipping"`
	Total          pricing.Money `json:"total"`
	AmountPaid     pricing.Money `json:"amountPaid"`
	Balance        pricing.Money `json:"balance"`
	SoldAt         time.Time     `json:"soldAt"`
	Items          []SaleItem    `json:"items,omitempty"`
}
