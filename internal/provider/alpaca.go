package provider

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/alpaca"
	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"

	"stockboard/internal/domain"
)

// Compile-time interface check.
var _ Provider = (*AlpacaProvider)(nil)

// AlpacaProvider implements Provider using the Alpaca market-data API for
// bars and snapshots and the trading API clock for market status.
type AlpacaProvider struct {
	data    *marketdata.Client
	trading *alpaca.Client
	timeout time.Duration
	log     *slog.Logger
}

// AlpacaOpts configures an AlpacaProvider.
type AlpacaOpts struct {
	APIKey    string
	APISecret string
	BaseURL   string // live trading API, used for the market clock
	DataURL   string // market-data API
	Timeout   time.Duration
}

// NewAlpacaProvider creates an AlpacaProvider with the given credentials.
// Timeout defaults to 10s and bounds every upstream HTTP call; an expired
// call surfaces as a timeout-kind provider error, never a crash.
func NewAlpacaProvider(opts AlpacaOpts) *AlpacaProvider {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	httpClient := &http.Client{Timeout: opts.Timeout}

	dataOpts := marketdata.ClientOpts{
		APIKey:     opts.APIKey,
		APISecret:  opts.APISecret,
		HTTPClient: httpClient,
	}
	if opts.DataURL != "" {
		dataOpts.BaseURL = opts.DataURL
	}

	tradingOpts := alpaca.ClientOpts{
		APIKey:     opts.APIKey,
		APISecret:  opts.APISecret,
		HTTPClient: httpClient,
	}
	if opts.BaseURL != "" {
		tradingOpts.BaseURL = opts.BaseURL
	}

	return &AlpacaProvider{
		data:    marketdata.NewClient(dataOpts),
		trading: alpaca.NewClient(tradingOpts),
		timeout: opts.Timeout,
		log:     slog.Default().With("provider", "alpaca"),
	}
}

// MarketDataClient exposes the underlying market-data client for callers
// that need endpoints beyond the Provider interface, such as news.
func (p *AlpacaProvider) MarketDataClient() *marketdata.Client {
	return p.data
}

// FetchHistory fetches daily bars for the last windowDays calendar days.
func (p *AlpacaProvider) FetchHistory(ctx context.Context, symbol string, windowDays int) ([]domain.DailyBar, error) {
	if err := ctx.Err(); err != nil {
		return nil, classify(symbol, err)
	}

	symbol = domain.NormalizeSymbol(symbol)
	end := time.Now().UTC()
	start := end.AddDate(0, 0, -windowDays)

	alpacaBars, err := p.data.GetBars(symbol, marketdata.GetBarsRequest{
		TimeFrame: marketdata.OneDay,
		Start:     start,
		End:       end,
	})
	if err != nil {
		return nil, classify(symbol, err)
	}

	bars := make([]domain.DailyBar, 0, len(alpacaBars))
	for _, ab := range alpacaBars {
		bars = append(bars, domain.DailyBar{
			Symbol: symbol,
			Date:   domain.Day(ab.Timestamp),
			Open:   ab.Open,
			High:   ab.High,
			Low:    ab.Low,
			Close:  ab.Close,
			Volume: int64(ab.Volume),
		})
	}
	return bars, nil
}

// FetchLive fetches the current snapshot for a symbol. A symbol unknown to
// the source yields (nil, nil), not an error.
func (p *AlpacaProvider) FetchLive(ctx context.Context, symbol string) (*domain.LiveSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, classify(symbol, err)
	}

	symbol = domain.NormalizeSymbol(symbol)
	snap, err := p.data.GetSnapshot(symbol, marketdata.GetSnapshotRequest{})
	if err != nil {
		return nil, classify(symbol, err)
	}
	if snap == nil {
		return nil, nil
	}

	live := &domain.LiveSnapshot{
		MarketStatus: p.marketStatus(),
	}
	if snap.LatestTrade != nil {
		live.CurrentPrice = domain.Ptr(snap.LatestTrade.Price)
	}
	if snap.DailyBar != nil {
		if live.CurrentPrice == nil {
			live.CurrentPrice = domain.Ptr(snap.DailyBar.Close)
		}
		live.TodayHigh = domain.Ptr(snap.DailyBar.High)
		live.TodayLow = domain.Ptr(snap.DailyBar.Low)
		live.TodayVolume = domain.Ptr(int64(snap.DailyBar.Volume))
	}
	if snap.PrevDailyBar != nil {
		live.PrevClose = domain.Ptr(snap.PrevDailyBar.Close)
	}
	if live.CurrentPrice == nil {
		// Nothing usable in the snapshot.
		return nil, nil
	}
	return live, nil
}

// marketStatus asks the trading-API clock whether the market is open. Clock
// failures degrade to "unknown" rather than failing the snapshot.
func (p *AlpacaProvider) marketStatus() string {
	clock, err := p.trading.GetClock()
	if err != nil {
		p.log.Debug("clock unavailable", "err", err)
		return domain.NormalizeMarketStatus("")
	}
	if clock.IsOpen {
		return "open"
	}
	return "closed"
}

// classify maps an upstream failure to a provider Error kind.
func classify(symbol string, err error) error {
	kind := KindUnavailable

	var apiErr *alpaca.APIError
	var netErr net.Error
	var jsonSyntax *json.SyntaxError
	var jsonType *json.UnmarshalTypeError

	switch {
	case errors.As(err, &apiErr):
		switch {
		case apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden:
			kind = KindUnauthorized
		case apiErr.StatusCode == http.StatusTooManyRequests:
			kind = KindRateLimited
		case apiErr.StatusCode >= 500:
			kind = KindUnavailable
		default:
			kind = KindMalformed
		}
	case errors.Is(err, context.DeadlineExceeded):
		kind = KindTimeout
	case errors.As(err, &netErr) && netErr.Timeout():
		kind = KindTimeout
	case errors.As(err, &jsonSyntax), errors.As(err, &jsonType):
		kind = KindMalformed
	default:
		// Some transports surface auth and throttling failures as plain
		// strings; sniff the common ones before giving up.
		msg := strings.ToLower(err.Error())
		switch {
		case strings.Contains(msg, "unauthorized") || strings.Contains(msg, "forbidden") || strings.Contains(msg, "not entitled"):
			kind = KindUnauthorized
		case strings.Contains(msg, "rate limit") || strings.Contains(msg, "too many requests"):
			kind = KindRateLimited
		case strings.Contains(msg, "timeout") || strings.Contains(msg, "deadline"):
			kind = KindTimeout
		}
	}

	return &Error{Kind: kind, Symbol: symbol, Err: err}
}
