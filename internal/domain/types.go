// Package domain defines the core types shared across stockboard: daily
// OHLCV bars, live quote snapshots, refresh results, and portfolio holdings.
package domain

import (
	"strings"
	"time"
)

// DailyBar is one trading day's OHLCV aggregate for one symbol.
// (Symbol, Date) is the unique key; re-fetching the same key overwrites.
type DailyBar struct {
	Symbol string    `json:"symbol"`
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

// LiveSnapshot is the latest known trading state for a symbol at the moment
// of a request. Nil fields mean the value is not available from any source;
// presentation code renders those as "N/A". Snapshots are recomputed per
// request and never persisted.
type LiveSnapshot struct {
	CurrentPrice *float64 `json:"currentPrice,omitempty"`
	TodayHigh    *float64 `json:"todayHigh,omitempty"`
	TodayLow     *float64 `json:"todayLow,omitempty"`
	TodayVolume  *int64   `json:"todayVolume,omitempty"`
	PrevClose    *float64 `json:"prevClose,omitempty"`
	MarketStatus string   `json:"marketStatus,omitempty"`
}

// HasPrice reports whether the snapshot carries a usable current price.
func (s LiveSnapshot) HasPrice() bool {
	return s.CurrentPrice != nil
}

// RefreshStatus classifies how a RefreshResult was obtained.
type RefreshStatus string

const (
	// StatusCache means stored data is being served as-is: either it was
	// fresh enough to skip the provider, or a refresh brought back nothing
	// new to store.
	StatusCache RefreshStatus = "cache"
	// StatusFetched means a refresh succeeded and new rows were stored.
	StatusFetched RefreshStatus = "fetched"
	// StatusFetchFailed means a refresh was attempted but the provider call
	// failed; previously cached rows are served as fallback.
	StatusFetchFailed RefreshStatus = "fetch-failed"
	// StatusEmpty means neither the store nor the provider had any data.
	StatusEmpty RefreshStatus = "empty"
)

// RefreshResult is the unit returned to presentation code: history is
// chronologically ordered oldest first, deduplicated by (symbol, date), and
// never nil — an empty slice is valid and distinct from a fetch failure,
// which is signalled through Status.
type RefreshResult struct {
	Symbol  string        `json:"symbol"`
	History []DailyBar    `json:"history"`
	Live    LiveSnapshot  `json:"live"`
	Status  RefreshStatus `json:"status"`
}

// Holding is one portfolio position.
type Holding struct {
	Symbol        string    `json:"symbol"`
	Quantity      float64   `json:"quantity"`
	PurchasePrice float64   `json:"purchasePrice"`
	AddedAt       time.Time `json:"addedAt"`
}

// Day truncates t to a calendar date at UTC midnight. All bar dates and
// freshness comparisons operate on Day-normalized times.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// NormalizeSymbol uppercases and trims a ticker symbol. Returns "" for
// blank input.
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// NormalizeMarketStatus lowercases a provider-supplied market status string.
// Unrecognised values pass through lowercased; "" maps to "unknown".
func NormalizeMarketStatus(status string) string {
	s := strings.ToLower(strings.TrimSpace(status))
	if s == "" {
		return "unknown"
	}
	return s
}

// Ptr returns a pointer to v. Convenience for building snapshots.
func Ptr[T any](v T) *T {
	return &v
}
