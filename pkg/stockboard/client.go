// Package stockboard provides a Go SDK for the stockboard-server HTTP API.
package stockboard

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Client talks to a running stockboard-server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a stockboard API client for the given base URL, e.g.
// "http://localhost:8080".
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// APIError is a non-2xx response from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

// Bar is one daily OHLCV bar.
type Bar struct {
	Date   string  `json:"date"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume int64   `json:"volume"`
}

// Live holds the current-session snapshot for a symbol.
type Live struct {
	CurrentPrice  *float64 `json:"currentPrice"`
	TodayHigh     *float64 `json:"todayHigh"`
	TodayLow      *float64 `json:"todayLow"`
	TodayVolume   *int64   `json:"todayVolume"`
	PrevClose     *float64 `json:"prevClose"`
	MarketStatus  string   `json:"marketStatus"`
	PriceDisplay  string   `json:"priceDisplay"`
	VolumeDisplay string   `json:"volumeDisplay"`
	ChangeDisplay string   `json:"changeDisplay"`
	ChangeAmount  float64  `json:"changeAmount"`
	ChangePercent float64  `json:"changePercent"`
}

// Quote is a unified quote result for one symbol.
type Quote struct {
	Symbol  string `json:"symbol"`
	Name    string `json:"name"`
	Status  string `json:"status"`
	History []Bar  `json:"history"`
	Live    Live   `json:"live"`
}

// QuoteEntry is one element of a batch quote response.
type QuoteEntry struct {
	Symbol string `json:"symbol"`
	Quote  *Quote `json:"quote"`
	Error  string `json:"error"`
}

// Holding is one portfolio row.
type Holding struct {
	Symbol        string    `json:"symbol"`
	Quantity      float64   `json:"quantity"`
	PurchasePrice float64   `json:"purchase_price"`
	AddedAt       time.Time `json:"added_at"`
}

// Position is a valued holding.
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

// Valuation is the portfolio rollup.
type Valuation struct {
	Positions  []Position `json:"positions"`
	TotalCost  float64    `json:"total_cost"`
	TotalValue float64    `json:"total_value"`
	PnL        float64    `json:"pnl"`
	PnLPercent float64    `json:"pnl_percent"`
}

// Article is one news item.
type Article struct {
	Time     time.Time `json:"time"`
	Source   string    `json:"source"`
	Headline string    `json:"headline"`
	Content  string    `json:"content"`
	URL      string    `json:"url"`
}

// SymbolEntry is one symbol directory hit.
type SymbolEntry struct {
	Symbol  string `json:"symbol"`
	Name    string `json:"name"`
	Display string `json:"display"`
}

// GetQuote retrieves the unified quote for a symbol. days <= 0 uses the
// server default.
func (c *Client) GetQuote(ctx context.Context, symbol string, days int) (*Quote, error) {
	path := "/api/quote/" + url.PathEscape(symbol)
	if days > 0 {
		path += "?days=" + strconv.Itoa(days)
	}
	var q Quote
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &q); err != nil {
		return nil, err
	}
	return &q, nil
}

// GetQuotes retrieves quotes for several symbols in one call.
func (c *Client) GetQuotes(ctx context.Context, symbols []string, days int) ([]QuoteEntry, error) {
	q := url.Values{"symbols": {strings.Join(symbols, ",")}}
	if days > 0 {
		q.Set("days", strconv.Itoa(days))
	}
	var resp struct {
		Quotes []QuoteEntry `json:"quotes"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/api/quotes?"+q.Encode(), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Quotes, nil
}

// GetWatchlist retrieves the watched symbols.
func (c *Client) GetWatchlist(ctx context.Context) ([]string, error) {
	var resp struct {
		Symbols []string `json:"symbols"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/api/watchlist", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Symbols, nil
}

// GetWatchlistQuotes retrieves quotes for every watched symbol.
func (c *Client) GetWatchlistQuotes(ctx context.Context) ([]QuoteEntry, error) {
	var resp struct {
		Quotes []QuoteEntry `json:"quotes"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/api/watchlist/quotes", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Quotes, nil
}

// AddToWatchlist adds a symbol to the watchlist.
func (c *Client) AddToWatchlist(ctx context.Context, symbol string) error {
	return c.doJSON(ctx, http.MethodPut, "/api/watchlist/"+url.PathEscape(symbol), nil, nil)
}

// RemoveFromWatchlist removes a symbol from the watchlist.
func (c *Client) RemoveFromWatchlist(ctx context.Context, symbol string) error {
	return c.doJSON(ctx, http.MethodDelete, "/api/watchlist/"+url.PathEscape(symbol), nil, nil)
}

// GetPortfolio retrieves all holdings.
func (c *Client) GetPortfolio(ctx context.Context) ([]Holding, error) {
	var resp struct {
		Holdings []Holding `json:"holdings"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/api/portfolio", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Holdings, nil
}

// SaveHolding creates or updates a holding.
func (c *Client) SaveHolding(ctx context.Context, h Holding) error {
	return c.doJSON(ctx, http.MethodPost, "/api/portfolio", h, nil)
}

// DeleteHolding removes a holding.
func (c *Client) DeleteHolding(ctx context.Context, symbol string) error {
	return c.doJSON(ctx, http.MethodDelete, "/api/portfolio/"+url.PathEscape(symbol), nil, nil)
}

// GetValuation retrieves the portfolio valuation at current prices.
func (c *Client) GetValuation(ctx context.Context) (*Valuation, error) {
	var resp struct {
		Valuation Valuation `json:"valuation"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/api/portfolio/valuation", nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Valuation, nil
}

// GetNews retrieves recent articles for a symbol.
func (c *Client) GetNews(ctx context.Context, symbol string, limit int) ([]Article, error) {
	path := "/api/news/" + url.PathEscape(symbol)
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var resp struct {
		Articles []Article `json:"articles"`
	}
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Articles, nil
}

// SearchSymbols searches the symbol directory.
func (c *Client) SearchSymbols(ctx context.Context, query string, limit int) ([]SymbolEntry, error) {
	q := url.Values{}
	if query != "" {
		q.Set("q", query)
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	path := "/api/symbols"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var resp struct {
		Symbols []SymbolEntry `json:"symbols"`
	}
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Symbols, nil
}

// doJSON sends a request with an optional JSON body and decodes the JSON
// response into out when out is non-nil.
func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr struct {
			Error string `json:"error"`
		}
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		msg := strings.TrimSpace(string(data))
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			msg = apiErr.Error
		}
		return &APIError{StatusCode: resp.StatusCode, Message: msg}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
