package pricing

// Money represents a monetary value stored in minor units.
type Money = int64

// Delivery methods accepted at checkout. Anything else falls back to the
// default non-pickup fee.
const (
	MethodPickup         = "pickup"
	MethodLocalTransport = "local_transport"
	MethodAirCargo       = "air_cargo"
	MethodBusCargo       = "bus_cargo"
)

// Line describes a cart line used for totals calculation. UnitPrice may be
// negative to represent a discount or gift-card redemption line.
type Line struct {
	Qty       int
	UnitPrice Money
}

// Total returns the derived line total.
func (l Line) Total() Money {
	return Money(l.Qty) * l.UnitPrice
}

// FeeTable maps a delivery method to its flat shipping fee in minor units.
type FeeTable struct {
	Fees       map[string]Money
	DefaultFee Money
}

// Fee resolves the shipping fee for a delivery method. Pickup is always free;
// unknown methods resolve to the default fee.
func (t FeeTable) Fee(method string) Money {
	if method == MethodPickup {
		return 0
	}
	if fee, ok := t.Fees[method]; ok {
		return fee
	}
	return t.DefaultFee
}

// OrderTotals aggregates the money figures shown at checkout. Total is always
// Subtotal + Tax + Shipping and Balance is Total - AmountPaid; a negative
// balance is change due to the customer.
type OrderTotals struct {
	Subtotal   Money
	Tax        Money
	Shipping   Money
	Total      Money
	AmountPaid Money
	Balance    Money
}

// ComputeOrderTotals calculates order totals from cart lines, the chosen
// delivery method, the amount tendered, and the tax rate in basis points.
// Tax applies to the subtotal only, never to shipping. The function is pure
// and total over its inputs.
func ComputeOrderTotals(lines []Line, method string, amountPaid Money, taxBps int, fees FeeTable) OrderTotals {
	var subtotal Money
	for _, l := range lines {
		subtotal += l.Total()
	}
	tax := (subtotal * Money(taxBps)) / 10000
	shipping := fees.Fee(method)
	total := subtotal + tax + shipping
	return OrderTotals{
		Subtotal:   subtotal,
		Tax:        tax,
		Shipping:   shipping,
		Total:      total,
		AmountPaid: amountPaid,
		Balance:    total - amountPaid,
	}
}
