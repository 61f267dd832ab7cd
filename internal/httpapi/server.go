package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"stockboard/internal/domain"
	"stockboard/internal/news"
	"stockboard/internal/portfolio"
	"stockboard/internal/refresh"
	"stockboard/internal/store"
	"stockboard/internal/symbols"
)

// QuoteService resolves unified quote results. Implemented by
// refresh.Service.
type QuoteService interface {
	GetHistory(ctx context.Context, symbol string, days int) (*domain.RefreshResult, error)
	RefreshBatch(ctx context.Context, symbols []string, days int) []refresh.BatchResult
	Live(ctx context.Context, symbol string) (domain.LiveSnapshot, error)
}

// NewsFetcher fetches recent articles for a symbol.
type NewsFetcher interface {
	Fetch(ctx context.Context, symbol string, limit int) []news.Article
}

// DashboardServer serves the dashboard HTTP API.
type DashboardServer struct {
	quotes      QuoteService
	watchlist   store.WatchlistStore
	portfolio   store.PortfolioStore
	news        NewsFetcher
	directory   *symbols.Directory
	defaultDays int
	log         *slog.Logger
}

// NewDashboardServer creates a dashboard HTTP server. news may be nil to
// disable the news endpoint.
func NewDashboardServer(
	quotes QuoteService,
	watchlist store.WatchlistStore,
	pf store.PortfolioStore,
	nf NewsFetcher,
	directory *symbols.Directory,
	defaultDays int,
	log *slog.Logger,
) *DashboardServer {
	if directory == nil {
		directory = symbols.NewDefault()
	}
	if defaultDays <= 0 {
		defaultDays = 30
	}
	if log == nil {
		log = slog.Default()
	}
	return &DashboardServer{
		quotes:      quotes,
		watchlist:   watchlist,
		portfolio:   pf,
		news:        nf,
		directory:   directory,
		defaultDays: defaultDays,
		log:         log.With("component", "httpapi"),
	}
}

// RegisterRoutes registers all API routes on the given mux.
func (s *DashboardServer) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/quote/{symbol}", s.handleQuote)
	mux.HandleFunc("GET /api/quotes", s.handleQuotes)
	mux.HandleFunc("GET /api/watchlist", s.handleGetWatchlist)
	mux.HandleFunc("GET /api/watchlist/quotes", s.handleWatchlistQuotes)
	mux.HandleFunc("PUT /api/watchlist/{symbol}", s.handleAddWatchlist)
	mux.HandleFunc("DELETE /api/watchlist/{symbol}", s.handleRemoveWatchlist)
	mux.HandleFunc("GET /api/portfolio", s.handleGetPortfolio)
	mux.HandleFunc("POST /api/portfolio", s.handleSaveHolding)
	mux.HandleFunc("DELETE /api/portfolio/{symbol}", s.handleDeleteHolding)
	mux.HandleFunc("GET /api/portfolio/valuation", s.handleValuation)
	mux.HandleFunc("GET /api/news/{symbol}", s.handleNews)
	mux.HandleFunc("GET /api/symbols", s.handleSymbols)
}

// Handler returns an http.Handler with CORS middleware.
func (s *DashboardServer) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	return corsMiddleware(mux)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, PUT, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encoding JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// parseDays extracts the history window from the "days" query param.
func (s *DashboardServer) parseDays(r *http.Request) int {
	v := r.URL.Query().Get("days")
	if v == "" {
		return s.defaultDays
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return s.defaultDays
	}
	return n
}

func (s *DashboardServer) quoteResponse(result *domain.RefreshResult) *QuoteResponse {
	return &QuoteResponse{
		Symbol:  result.Symbol,
		Name:    s.directory.Name(result.Symbol),
		Status:  string(result.Status),
		History: convertBars(result.History),
		Live:    convertLive(result.Live),
	}
}

func (s *DashboardServer) handleQuote(w http.ResponseWriter, r *http.Request) {
	symbol := r.PathValue("symbol")
	result, err := s.quotes.GetHistory(r.Context(), symbol, s.parseDays(r))
	if err != nil {
		if errors.Is(err, refresh.ErrEmptySymbol) {
			writeError(w, http.StatusBadRequest, "symbol required")
			return
		}
		s.log.Error("resolving quote", "symbol", symbol, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to resolve quote")
		return
	}
	writeJSON(w, s.quoteResponse(result))
}

func (s *DashboardServer) batchQuotes(ctx context.Context, syms []string, days int) QuotesResponse {
	results := s.quotes.RefreshBatch(ctx, syms, days)
	resp := QuotesResponse{Quotes: make([]QuoteEntry, 0, len(results))}
	for _, br := range results {
		entry := QuoteEntry{Symbol: br.Symbol}
		if br.Err != nil {
			entry.Error = br.Err.Error()
		} else {
			entry.Quote = s.quoteResponse(br.Result)
		}
		resp.Quotes = append(resp.Quotes, entry)
	}
	return resp
}

func (s *DashboardServer) handleQuotes(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("symbols")
	if raw == "" {
		writeError(w, http.StatusBadRequest, "symbols required")
		return
	}
	var syms []string
	for _, part := range strings.Split(raw, ",") {
		if sym := domain.NormalizeSymbol(part); sym != "" {
			syms = append(syms, sym)
		}
	}
	if len(syms) == 0 {
		writeError(w, http.StatusBadRequest, "symbols required")
		return
	}
	writeJSON(w, s.batchQuotes(r.Context(), syms, s.parseDays(r)))
}

func (s *DashboardServer) handleGetWatchlist(w http.ResponseWriter, r *http.Request) {
	syms, err := s.watchlist.Watchlist(r.Context())
	if err != nil {
		s.log.Error("reading watchlist", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to read watchlist")
		return
	}
	if syms == nil {
		syms = []string{}
	}
	sort.Strings(syms)
	writeJSON(w, WatchlistResponse{Symbols: syms})
}

func (s *DashboardServer) handleWatchlistQuotes(w http.ResponseWriter, r *http.Request) {
	syms, err := s.watchlist.Watchlist(r.Context())
	if err != nil {
		s.log.Error("reading watchlist", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to read watchlist")
		return
	}
	sort.Strings(syms)
	writeJSON(w, s.batchQuotes(r.Context(), syms, s.parseDays(r)))
}

func (s *DashboardServer) handleAddWatchlist(w http.ResponseWriter, r *http.Request) {
	symbol := domain.NormalizeSymbol(r.PathValue("symbol"))
	if symbol == "" {
		writeError(w, http.StatusBadRequest, "symbol required")
		return
	}
	if err := s.watchlist.AddToWatchlist(r.Context(), symbol); err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to add %s", symbol))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *DashboardServer) handleRemoveWatchlist(w http.ResponseWriter, r *http.Request) {
	symbol := domain.NormalizeSymbol(r.PathValue("symbol"))
	if symbol == "" {
		writeError(w, http.StatusBadRequest, "symbol required")
		return
	}
	if err := s.watchlist.RemoveFromWatchlist(r.Context(), symbol); err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to remove %s", symbol))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *DashboardServer) handleGetPortfolio(w http.ResponseWriter, r *http.Request) {
	holdings, err := s.portfolio.Holdings(r.Context())
	if err != nil {
		s.log.Error("reading portfolio", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to read portfolio")
		return
	}
	resp := PortfolioResponse{Holdings: make([]HoldingJSON, 0, len(holdings))}
	for _, h := range holdings {
		resp.Holdings = append(resp.Holdings, HoldingJSON{
			Symbol:        h.Symbol,
			Quantity:      h.Quantity,
			PurchasePrice: h.PurchasePrice,
			AddedAt:       h.AddedAt,
		})
	}
	writeJSON(w, resp)
}

func (s *DashboardServer) handleSaveHolding(w http.ResponseWriter, r *http.Request) {
	var req HoldingJSON
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	symbol := domain.NormalizeSymbol(req.Symbol)
	if symbol == "" {
		writeError(w, http.StatusBadRequest, "symbol required")
		return
	}
	if req.Quantity <= 0 || req.PurchasePrice <= 0 {
		writeError(w, http.StatusBadRequest, "quantity and purchase_price must be positive")
		return
	}
	h := domain.Holding{Symbol: symbol, Quantity: req.Quantity, PurchasePrice: req.PurchasePrice}
	if err := s.portfolio.SaveHolding(r.Context(), h); err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to save %s", symbol))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *DashboardServer) handleDeleteHolding(w http.ResponseWriter, r *http.Request) {
	symbol := domain.NormalizeSymbol(r.PathValue("symbol"))
	if symbol == "" {
		writeError(w, http.StatusBadRequest, "symbol required")
		return
	}
	if err := s.portfolio.DeleteHolding(r.Context(), symbol); err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to delete %s", symbol))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *DashboardServer) handleValuation(w http.ResponseWriter, r *http.Request) {
	holdings, err := s.portfolio.Holdings(r.Context())
	if err != nil {
		s.log.Error("reading portfolio", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to read portfolio")
		return
	}

	// Price each distinct symbol once via the live resolver; symbols with no
	// price available are valued at cost only.
	prices := make(map[string]float64, len(holdings))
	for _, h := range holdings {
		sym := domain.NormalizeSymbol(h.Symbol)
		if _, ok := prices[sym]; ok {
			continue
		}
		live, err := s.quotes.Live(r.Context(), sym)
		if err != nil {
			// Live absorbs provider outages internally; an error here means
			// the store itself failed, which must not masquerade as a
			// successful zero-value quote.
			s.log.Error("pricing holding", "symbol", sym, "error", err)
			writeError(w, http.StatusInternalServerError, "failed to price portfolio")
			return
		}
		if live.CurrentPrice != nil {
			prices[sym] = *live.CurrentPrice
		}
	}

	writeJSON(w, ValuationResponse{Valuation: portfolio.Value(holdings, prices)})
}

func (s *DashboardServer) handleNews(w http.ResponseWriter, r *http.Request) {
	symbol := domain.NormalizeSymbol(r.PathValue("symbol"))
	if symbol == "" {
		writeError(w, http.StatusBadRequest, "symbol required")
		return
	}
	limit := 10
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	articles := []news.Article{}
	if s.news != nil {
		if got := s.news.Fetch(r.Context(), symbol, limit); got != nil {
			articles = got
		}
	}
	writeJSON(w, NewsResponse{Symbol: symbol, Articles: articles})
}

func (s *DashboardServer) handleSymbols(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	var entries []symbols.Entry
	if q == "" {
		entries = s.directory.All()
		if len(entries) > limit {
			entries = entries[:limit]
		}
	} else {
		entries = s.directory.Search(q, limit)
	}

	resp := SymbolsResponse{Symbols: make([]SymbolEntryJSON, 0, len(entries))}
	for _, e := range entries {
		resp.Symbols = append(resp.Symbols, SymbolEntryJSON{
			Symbol:  e.Symbol,
			Name:    e.Name,
			Display: e.Display(),
		})
	}
	writeJSON(w, resp)
}
