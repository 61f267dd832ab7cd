package portfolio

import (
	"math"
	"testing"
	"time"

	"stockboard/internal/domain"
)

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func holding(sym string, qty, price float64) domain.Holding {
	return domain.Holding{Symbol: sym, Quantity: qty, PurchasePrice: price, AddedAt: time.Now()}
}

func TestValueBasic(t *testing.T) {
	holdings := []domain.Holding{
		holding("AAPL", 10, 100),
		holding("msft", 2, 200),
	}
	prices := map[string]float64{"AAPL": 110, "MSFT": 190}

	v := Value(holdings, prices)
	if len(v.Positions) != 2 {
		t.Fatalf("positions = %d", len(v.Positions))
	}
	if !approx(v.TotalCost, 1400) {
		t.Fatalf("TotalCost = %v", v.TotalCost)
	}
	if !approx(v.TotalValue, 1100+380) {
		t.Fatalf("TotalValue = %v", v.TotalValue)
	}
	if !approx(v.PnL, 80) {
		t.Fatalf("PnL = %v", v.PnL)
	}
	if !approx(v.PnLPercent, 80.0/1400*100) {
		t.Fatalf("PnLPercent = %v", v.PnLPercent)
	}

	aapl := v.Positions[0]
	if aapl.Symbol != "AAPL" || !aapl.Priced {
		t.Fatalf("position = %+v", aapl)
	}
	if !approx(aapl.PnL, 100) || !approx(aapl.PnLPercent, 10) {
		t.Fatalf("aapl pnl = %v (%v%%)", aapl.PnL, aapl.PnLPercent)
	}

	msft := v.Positions[1]
	if msft.Symbol != "MSFT" {
		t.Fatalf("symbol not normalized: %q", msft.Symbol)
	}
	if !approx(msft.PnL, -20) {
		t.Fatalf("msft pnl = %v", msft.PnL)
	}
}

func TestValueUnpricedHolding(t *testing.T) {
	holdings := []domain.Holding{
		holding("AAPL", 1, 100),
		holding("ZZZZ", 5, 10),
	}
	v := Value(holdings, map[string]float64{"AAPL": 120})

	if !approx(v.TotalCost, 150) {
		t.Fatalf("TotalCost = %v", v.TotalCost)
	}
	if !approx(v.TotalValue, 120) {
		t.Fatalf("TotalValue = %v", v.TotalValue)
	}
	if !approx(v.PnL, 20) {
		t.Fatalf("PnL = %v", v.PnL)
	}

	zz := v.Positions[1]
	if zz.Priced || zz.Value != 0 || zz.PnL != 0 {
		t.Fatalf("unpriced position = %+v", zz)
	}
}

func TestValueEmpty(t *testing.T) {
	v := Value(nil, nil)
	if len(v.Positions) != 0 || v.TotalCost != 0 || v.PnLPercent != 0 {
		t.Fatalf("empty valuation = %+v", v)
	}
}
