// Package httpapi provides the HTTP REST API for the stockboard dashboard,
// serving quotes, watchlist, portfolio, news, and symbol search as JSON.
package httpapi

import (
	"time"

	"stockboard/internal/dashboard"
	"stockboard/internal/domain"
	"stockboard/internal/news"
	"stockboard/internal/portfolio"
)

// BarJSON is the JSON representation of one daily bar.
type BarJSON struct {
	Date   string  `json:"date"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume int64   `json:"volume"`
}

// LiveJSON is the JSON representation of a live snapshot with display strings
// precomputed server-side.
type LiveJSON struct {
	CurrentPrice  *float64 `json:"currentPrice"`
	TodayHigh     *float64 `json:"todayHigh"`
	TodayLow      *float64 `json:"todayLow"`
	TodayVolume   *int64   `json:"todayVolume"`
	PrevClose     *float64 `json:"prevClose"`
	MarketStatus  string   `json:"marketStatus"`
	StatusColor   string   `json:"statusColor"`
	PriceDisplay  string   `json:"priceDisplay"`
	VolumeDisplay string   `json:"volumeDisplay"`
	ChangeDisplay string   `json:"changeDisplay,omitempty"`
	ChangeAmount  float64  `json:"changeAmount,omitempty"`
	ChangePercent float64  `json:"changePercent,omitempty"`
}

// QuoteResponse is the unified per-symbol payload.
type QuoteResponse struct {
	Symbol  string    `json:"symbol"`
	Name    string    `json:"name,omitempty"`
	Status  string    `json:"status"`
	History []BarJSON `json:"history"`
	Live    LiveJSON  `json:"live"`
}

// QuotesResponse is the batch payload; failed symbols carry an error string.
type QuotesResponse struct {
	Quotes []QuoteEntry `json:"quotes"`
}

// QuoteEntry is one element of a batch response.
type QuoteEntry struct {
	Symbol string         `json:"symbol"`
	Quote  *QuoteResponse `json:"quote,omitempty"`
	Error  string         `json:"error,omitempty"`
}

// WatchlistResponse lists watched symbols.
type WatchlistResponse struct {
	Symbols []string `json:"symbols"`
}

// HoldingJSON is one portfolio row.
type HoldingJSON struct {
	Symbol        string    `json:"symbol"`
	Quantity      float64   `json:"quantity"`
	PurchasePrice float64   `json:"purchase_price"`
	AddedAt       time.Time `json:"added_at"`
}

// PortfolioResponse lists holdings.
type PortfolioResponse struct {
	Holdings []HoldingJSON `json:"holdings"`
}

// ValuationResponse wraps the portfolio valuation rollup.
type ValuationResponse struct {
	Valuation portfolio.Valuation `json:"valuation"`
}

// NewsResponse lists recent articles for one symbol.
type NewsResponse struct {
	Symbol   string         `json:"symbol"`
	Articles []news.Article `json:"articles"`
}

// SymbolsResponse lists directory search hits.
type SymbolsResponse struct {
	Symbols []SymbolEntryJSON `json:"symbols"`
}

// SymbolEntryJSON is one directory hit.
type SymbolEntryJSON struct {
	Symbol  string `json:"symbol"`
	Name    string `json:"name,omitempty"`
	Display string `json:"display"`
}

func convertBars(bars []domain.DailyBar) []BarJSON {
	out := make([]BarJSON, 0, len(bars))
	for _, b := range bars {
		out = append(out, BarJSON{
			Date:   b.Date.Format("2006-01-02"),
			Open:   b.Open,
			High:   b.High,
			Low:    b.Low,
			Close:  b.Close,
			Volume: b.Volume,
		})
	}
	return out
}

func convertLive(l domain.LiveSnapshot) LiveJSON {
	status := domain.NormalizeMarketStatus(l.MarketStatus)
	j := LiveJSON{
		CurrentPrice:  l.CurrentPrice,
		TodayHigh:     l.TodayHigh,
		TodayLow:      l.TodayLow,
		TodayVolume:   l.TodayVolume,
		PrevClose:     l.PrevClose,
		MarketStatus:  status,
		StatusColor:   dashboard.StatusColor(status),
		PriceDisplay:  dashboard.FormatCurrency(l.CurrentPrice),
		VolumeDisplay: dashboard.FormatVolume(l.TodayVolume),
	}
	if amount, percent, ok := dashboard.Change(l.CurrentPrice, l.PrevClose); ok {
		j.ChangeAmount = amount
		j.ChangePercent = percent
		j.ChangeDisplay = dashboard.FormatChange(amount, percent)
	}
	return j
}
