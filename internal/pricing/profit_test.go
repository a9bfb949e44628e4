package pricing

import (
	"math"
	"testing"
)

func TestComputeProfitMetrics(t *testing.T) {
	metrics, ok := ComputeProfitMetrics(1000, 1500)
	if !ok {
		t.Fatal("expected metrics for valid prices")
	}
	if metrics.Profit != 500 {
		t.Fatalf("expected profit 500, got %d", metrics.Profit)
	}
	if math.Abs(metrics.MarginPct-33.333333) > 0.001 {
		t.Fatalf("expected margin ~33.33, got %f", metrics.MarginPct)
	}
	if math.Abs(metrics.MarkupPct-50) > 0.001 {
		t.Fatalf("expected markup 50, got %f", metrics.MarkupPct)
	}
}

func TestComputeProfitMetricsAbsent(t *testing.T) {
	for _, pair := range [][2]Money{{0, 1500}, {1000, 0}, {-5, 1500}, {1000, -5}, {0, 0}} {
		if _, ok := ComputeProfitMetrics(pair[0], pair[1]); ok {
			t.Fatalf("expected absent metrics for cost=%d selling=%d", pair[0], pair[1])
		}
	}
}

func TestMarkupExceedsMarginWhenProfitable(t *testing.T) {
	metrics, ok := ComputeProfitMetrics(800, 1200)
	if !ok {
		t.Fatal("expected metrics")
	}
	if metrics.MarkupPct <= metrics.MarginPct {
		t.Fatalf("markup (%f) should exceed margin (%f) when profit is positive", metrics.MarkupPct, metrics.MarginPct)
	}
}

func TestQuickMarkup(t *testing.T) {
	cases := []struct {
		cost    Money
		percent int
		want    Money
	}{
		{1000, 10, 1100},
		{1000, 20, 1200},
		{1000, 30, 1300},
		{1000, 50, 1500},
		{333, 10, 366},
	}
	for _, tc := range cases {
		if got := QuickMarkup(tc.cost, tc.percent); got != tc.want {
			t.Fatalf("QuickMarkup(%d, %d) = %d, want %d", tc.cost, tc.percent, got, tc.want)
		}
	}
}
