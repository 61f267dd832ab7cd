// Package portfolio computes position valuations and profit/loss from
// holdings and current prices.
package portfolio

import (
	"stockboard/internal/domain"
)

// Position is a single holding valued at a current price. Priced is false
// when no live or cached price was available; value fields are then zero
// and the position is excluded from portfolio totals beyond cost.
type Position struct {
	Symbol        string  `json:"symbol"`
	Quantity      float64 `json:"quantity"`
	PurchasePrice float64 `json:"purchase_price"`
	CurrentPrice  float64 `json:"current_price"`
	Cost          float64 `json:"cost"`
	Value         float64 `json:"value"`
	PnL           float64 `json:"pnl"`
	PnLPercent    float64 `json:"pnl_percent"`
	Priced        bool    `json:"priced"`
}

// Valuation is the portfolio-level rollup.
type Valuation struct {
	Positions  []Position `json:"positions"`
	TotalCost  float64    `json:"total_cost"`
	TotalValue float64    `json:"total_value"`
	PnL        float64    `json:"pnl"`
	PnLPercent float64    `json:"pnl_percent"`
}

// Value computes a Valuation for holdings given current prices keyed by
// normalized symbol. Holdings without a price contribute cost but no value
// or P&L. Positions keep the input holding order.
func Value(holdings []domain.Holding, prices map[string]float64) Valuation {
	v := Valuation{Positions: make([]Position, 0, len(holdings))}
	for _, h := range holdings {
		sym := domain.NormalizeSymbol(h.Symbol)
		pos := Position{
			Symbol:        sym,
			Quantity:      h.Quantity,
			PurchasePrice: h.PurchasePrice,
			Cost:          h.Quantity * h.PurchasePrice,
		}
		if price, ok := prices[sym]; ok && price > 0 {
			pos.Priced = true
			pos.CurrentPrice = price
			pos.Value = h.Quantity * price
			pos.PnL = pos.Value - pos.Cost
			if pos.Cost != 0 {
				pos.PnLPercent = pos.PnL / pos.Cost * 100
			}
			v.TotalValue += pos.Value
			v.PnL += pos.PnL
		}
		v.TotalCost += pos.Cost
		v.Positions = append(v.Positions, pos)
	}
	if v.TotalCost != 0 {
		v.PnLPercent = v.PnL / v.TotalCost * 100
	}
	return v
}
