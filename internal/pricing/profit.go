package pricing

import "math"

// ProfitMetrics derives profitability figures from a cost/selling price pair.
// Margin expresses profit as a share of the selling price, markup as a share
// of the cost price.
type ProfitMetrics struct {
	Profit    Money   `json:"profit"`
	MarginPct float64 `json:"marginPct"`
	MarkupPct float64 `json:"markupPct"`
}

// ComputeProfitMetrics returns profit, margin, and markup for the given
// prices. The second return value is false when either price is zero or
// negative; metrics are never fabricated from partial data.
func ComputeProfitMetrics(costPrice, sellingPrice Money) (ProfitMetrics, bool) {
	if costPrice <= 0 || sellingPrice <= 0 {
		return ProfitMetrics{}, false
	}
	profit := sellingPrice - costPrice
	return ProfitMetrics{
		Profit:    profit,
		MarginPct: float64(profit) / float64(sellingPrice) * 100,
		MarkupPct: float64(profit) / float64(costPrice) * 100,
	}, true
}

// QuickMarkupPresets are the markup percentages offered as one-tap selling
// price suggestions in the product form.
var QuickMarkupPresets = []int{10, 20, 30, 50}

// QuickMarkup returns the selling price obtained by applying a percentage
// markup to the cost price, rounded to the nearest minor unit.
func QuickMarkup(costPrice Money, markupPercent int) Money {
	return Money(math.Round(float64(costPrice) * (1 + float64(markupPercent)/100)))
}
