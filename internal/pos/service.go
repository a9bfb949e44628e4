package pos

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mtaasisi/lats-pos-api/internal/catalog"
	"github.com/mtaasisi/lats-pos-api/internal/obs"
	"github.com/mtaasisi/lats-pos-api/internal/pricing"
	"github.com/mtaasisi/lats-pos-api/internal/sales"
)

// ProductSource resolves catalog products referenced by cart lines.
type ProductSource interface {
	GetProduct(ctx context.Context, id uuid.UUID) (catalog.Product, error)
}

// FeeSource provides the live delivery fee table.
type FeeSource interface {
	FeeTable(ctx context.Context) (pricing.FeeTable, error)
}

// SaleRecorder persists a completed checkout.
type SaleRecorder interface {
	Record(ctx context.Context, sale sales.Sale) (sales.Sale, error)
}

// SummaryInvalidator drops cached sales summaries after a checkout.
type SummaryInvalidator interface {
	InvalidateSummary(ctx context.Context)
}

// AddLineInput describes a line to add. Catalog lines carry a ProductID;
// external ad-hoc lines carry a name and unit price instead.
type AddLineInput struct {
	ProductID *uuid.UUID     `json:"productId,omitempty"`
	Name      string         `json:"name,omitempty"`
	Variant   string         `json:"variant,omitempty"`
	UnitPrice *pricing.Money `json:"unitPrice,omitempty"`
	Qty       int            `json:"qty"`
}

// CheckoutInput captures everything needed to turn a cart into a sale.
type CheckoutInput struct {
	CartID         uuid.UUID     `json:"cartId"`
	CustomerID     *uuid.UUID    `json:"customerId,omitempty"`
	CustomerName   string        `json:"customerName,omitempty"`
	DeliveryMethod string        `json:"deliveryMethod"`
	AmountPaid     pricing.Money `json:"amountPaid"`
}

// Service encapsulates cart and checkout operations.
type Service struct {
	Carts     *CartStore
	Products  ProductSource
	Fees      FeeSource
	Sales     SaleRecorder
	Summaries SummaryInvalidator
	TaxBps    int
	Log       zerolog.Logger
	Now       func() time.Time
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// CreateCart allocates a new empty cart.
func (s *Service) CreateCart(ctx context.Context) (Cart, error) {
	now := s.now()
	cart := Cart{ID: uuid.New(), Lines: []CartLine{}, CreatedAt: now, UpdatedAt: now}
	if err := s.Carts.Save(ctx, cart); err != nil {
		return Cart{}, err
	}
	s.countOp("create", nil)
	return cart, nil
}

// GetCart loads a cart.
func (s *Service) GetCart(ctx context.Context, id uuid.UUID) (Cart, error) {
	return s.Carts.Get(ctx, id)
}

// AddLine appends or merges a line into the cart. Catalog lines pointing at
// the same product and variant merge by incrementing quantity; external lines
// are always appended.
func (s *Service) AddLine(ctx context.Context, cartID uuid.UUID, in AddLineInput) (Cart, error) {
	if in.Qty < 1 {
		return Cart{}, fmt.Errorf("qty must be at least 1: %w", ErrInvalidInput)
	}
	cart, err := s.Carts.Get(ctx, cartID)
	if err != nil {
		s.countOp("add_line", err)
		return Cart{}, err
	}

	var line CartLine
	if in.ProductID != nil {
		product, err := s.Products.GetProduct(ctx, *in.ProductID)
		if err != nil {
			s.countOp("add_line", err)
			if errors.Is(err, catalog.ErrNotFound) {
				return Cart{}, fmt.Errorf("product not found: %w", ErrInvalidInput)
			}
			return Cart{}, err
		}
		for i := range cart.Lines {
			existing := &cart.Lines[i]
			if existing.ProductID != nil && *existing.ProductID == product.ID && existing.Variant == product.Variant {
				existing.Qty += in.Qty
				existing.Total = existing.UnitPrice * pricing.Money(existing.Qty)
				return s.saveCart(ctx, cart, "add_line")
			}
		}
		pid := product.ID
		line = CartLine{
			ID:        uuid.New(),
			ProductID: &pid,
			Name:      product.Name,
			Variant:   product.Variant,
			Qty:       in.Qty,
			UnitPrice: product.SellingPrice,
		}
	} else {
		name := strings.TrimSpace(in.Name)
		if name == "" {
			return Cart{}, fmt.Errorf("external line requires a name: %w", ErrInvalidInput)
		}
		if in.UnitPrice == nil {
			return Cart{}, fmt.Errorf("external line requires a unit price: %w", ErrInvalidInput)
		}
		line = CartLine{
			ID:        uuid.New(),
			Name:      name,
			Variant:   strings.TrimSpace(in.Variant),
			Qty:       in.Qty,
			UnitPrice: *in.UnitPrice,
			External:  true,
		}
	}
	line.Total = line.UnitPrice * pricing.Money(line.Qty)
	cart.Lines = append(cart.Lines, line)
	return s.saveCart(ctx, cart, "add_line")
}

// UpdateQty sets the quantity for a line. A quantity of zero or less removes
// the line instead of failing.
func (s *Service) UpdateQty(ctx context.Context, cartID, lineID uuid.UUID, qty int) (Cart, error) {
	cart, err := s.Carts.Get(ctx, cartID)
	if err != nil {
		s.countOp("update_qty", err)
		return Cart{}, err
	}
	idx := -1
	for i := range cart.Lines {
		if cart.Lines[i].ID == lineID {
			idx = i
			break
		}
	}
	if idx == -1 {
		s.countOp("update_qty", ErrNotFound)
		return Cart{}, fmt.Errorf("line not found: %w", ErrNotFound)
	}
	if qty <= 0 {
		cart.Lines = append(cart.Lines[:idx], cart.Lines[idx+1:]...)
		return s.saveCart(ctx, cart, "remove_line")
	}
	cart.Lines[idx].Qty = qty
	cart.Lines[idx].Total = cart.Lines[idx].UnitPrice * pricing.Money(qty)
	return s.saveCart(ctx, cart, "update_qty")
}

// RemoveLine deletes a line from the cart.
func (s *Service) RemoveLine(ctx context.Context, cartID, lineID uuid.UUID) (Cart, error) {
	return s.UpdateQty(ctx, cartID, lineID, 0)
}

// ClearCart empties the cart but keeps the document alive.
func (s *Service) ClearCart(ctx context.Context, cartID uuid.UUID) (Cart, error) {
	cart, err := s.Carts.Get(ctx, cartID)
	if err != nil {
		s.countOp("clear", err)
		return Cart{}, err
	}
	cart.Lines = []CartLine{}
	return s.saveCart(ctx, cart, "clear")
}

// Quote computes checkout totals for the cart without committing anything.
func (s *Service) Quote(ctx context.Context, cartID uuid.UUID, method string, amountPaid pricing.Money) (pricing.OrderTotals, error) {
	cart, err := s.Carts.Get(ctx, cartID)
	if err != nil {
		return pricing.OrderTotals{}, err
	}
	fees, err := s.Fees.FeeTable(ctx)
	if err != nil {
		return pricing.OrderTotals{}, err
	}
	return pricing.ComputeOrderTotals(cart.PricingLines(), method, amountPaid, s.TaxBps, fees), nil
}

// Checkout turns a non-empty cart into a recorded sale and empties the cart.
func (s *Service) Checkout(ctx context.Context, in CheckoutInput) (sales.Sale, error) {
	cart, err := s.Carts.Get(ctx, in.CartID)
	if err != nil {
		return sales.Sale{}, err
	}
	if len(cart.Lines) == 0 {
		return sales.Sale{}, fmt.Errorf("cart is empty: %w", ErrInvalidInput)
	}
	fees, err := s.Fees.FeeTable(ctx)
	if err != nil {
		return sales.Sale{}, err
	}
	totals := pricing.ComputeOrderTotals(cart.PricingLines(), in.DeliveryMethod, in.AmountPaid, s.TaxBps, fees)

	sale := sales.Sale{
		ID:             uuid.New(),
		ReceiptNumber:  receiptNumber(),
		CustomerID:     in.CustomerID,
		CustomerName:   strings.TrimSpace(in.CustomerName),
		DeliveryMethod: in.DeliveryMethod,
		Status:         sales.StatusCompleted,
		Subtotal:       totals.Subtotal,
		Tax:            totals.Tax,
		Shipping:       totals.Shipping,
		Total:          totals.Total,
		AmountPaid:     totals.AmountPaid,
		Balance:        totals.Balance,
		SoldAt:         s.now(),
	}
	for _, l := range cart.Lines {
		sale.Items = append(sale.Items, sales.SaleItem{
			ID:        uuid.New(),
			SaleID:    sale.ID,
			ProductID: l.ProductID,
			Name:      l.Name,
			Variant:   l.Variant,
			Qty:       l.Qty,
			UnitPrice: l.UnitPrice,
			Total:     l.Total,
		})
	}

	recorded, err := s.Sales.Record(ctx, sale)
	if err != nil {
		s.Log.Error().Err(err).Str("cart_id", in.CartID.String()).Msg("record sale")
		return sales.Sale{}, err
	}
	if err := s.Carts.Delete(ctx, cart.ID); err != nil {
		s.Log.Warn().Err(err).Str("cart_id", cart.ID.String()).Msg("clear cart after checkout")
	}
	if s.Summaries != nil {
		s.Summaries.InvalidateSummary(ctx)
	}
	if obs.SalesCompletedTotal != nil {
		obs.SalesCompletedTotal.WithLabelValues(recorded.DeliveryMethod).Inc()
	}
	if obs.SaleValue != nil {
		obs.SaleValue.WithLabelValues(recorded.DeliveryMethod).Observe(float64(recorded.Total))
	}
	return recorded, nil
}

func (s *Service) saveCart(ctx context.Context, cart Cart, op string) (Cart, error) {
	cart.UpdatedAt = s.now()
	err := s.Carts.Save(ctx, cart)
	s.countOp(op, err)
	if err != nil {
		return Cart{}, err
	}
	return cart, nil
}

func (s *Service) countOp(op string, err error) {
	if obs.CartOperationsTotal == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	obs.CartOperationsTotal.WithLabelValues(op, result).Inc()
}

func receiptNumber() string {
	return "RCP-" + strings.ToUpper(uuid.NewString()[:8])
}
