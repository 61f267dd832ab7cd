package refresh

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"stockboard/internal/domain"
	"stockboard/internal/provider"
	"stockboard/internal/store"
	"stockboard/internal/util"
)

// ErrEmptySymbol is returned when a caller requests history for a blank
// symbol. It is a caller error, rejected before any I/O.
var ErrEmptySymbol = errors.New("refresh: empty symbol")

// defaultFetchBuffer is how many extra calendar days are requested beyond
// the caller's day count, absorbing weekends and holidays so the window
// still yields enough trading rows.
const defaultFetchBuffer = 15

// Options configures a Service.
type Options struct {
	// FetchBuffer is added to the requested day count when fetching from the
	// provider. Defaults to 15 calendar days.
	FetchBuffer int
	// CacheTTL enables the front-line result cache when positive.
	CacheTTL time.Duration
	// RateLimitPerMin bounds provider calls across all workers when positive.
	RateLimitPerMin int
	// MaxWorkers bounds batch fan-out. Defaults to 4.
	MaxWorkers int
	// Now overrides the clock, for tests.
	Now func() time.Time
	// Logger defaults to slog.Default.
	Logger *slog.Logger
}

// Service orchestrates the refresh pipeline for one or more symbols.
// It is safe for concurrent use: runs for different symbols are independent,
// and writes for the same (symbol, date) key are idempotent upserts.
type Service struct {
	store       store.BarStore
	provider    provider.Provider
	fetchBuffer int
	maxWorkers  int
	now         func() time.Time
	cache       *resultCache
	limiter     *util.RateLimiter
	log         *slog.Logger
}

// NewService creates a refresh Service over the given bar store and
// provider.
func NewService(barStore store.BarStore, p provider.Provider, opts Options) *Service {
	if opts.FetchBuffer <= 0 {
		opts.FetchBuffer = defaultFetchBuffer
	}
	if opts.MaxWorkers <= 0 {
		opts.MaxWorkers = 4
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	s := &Service{
		store:       barStore,
		provider:    p,
		fetchBuffer: opts.FetchBuffer,
		maxWorkers:  opts.MaxWorkers,
		now:         opts.Now,
		log:         opts.Logger.With("component", "refresh"),
	}
	if opts.CacheTTL > 0 {
		s.cache = newResultCache(opts.CacheTTL)
	}
	if opts.RateLimitPerMin > 0 {
		// Burst sized to the worker pool so a batch kicks off a full round
		// of fetches before the per-minute pacing takes over.
		s.limiter = util.NewBurstRateLimiter(opts.RateLimitPerMin, opts.MaxWorkers)
	}
	return s
}

// GetHistory returns up to days of daily bars for symbol plus a live
// snapshot and a status tag, refreshing from the provider when the stored
// data is stale. Provider failures are absorbed into the status; storage
// failures propagate as errors because an unreadable store makes the result
// untrustworthy.
func (s *Service) GetHistory(ctx context.Context, symbol string, days int) (*domain.RefreshResult, error) {
	symbol = domain.NormalizeSymbol(symbol)
	if symbol == "" {
		return nil, ErrEmptySymbol
	}
	if days <= 0 {
		days = 30
	}

	if cached, ok := s.cache.get(symbol, days); ok {
		return cached, nil
	}

	history, err := s.store.ReadRange(ctx, symbol, days)
	if err != nil {
		return nil, fmt.Errorf("reading history for %s: %w", symbol, err)
	}
	latest, err := s.store.LatestDate(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("reading latest date for %s: %w", symbol, err)
	}

	status := domain.StatusCache
	if NeedsRefresh(latest, s.now()) {
		history, status, err = s.refresh(ctx, symbol, days, history)
		if err != nil {
			return nil, err
		}
	}
	var tail, prev *domain.DailyBar
	if n := len(history); n > 0 {
		tail = &history[n-1]
		if n > 1 {
			prev = &history[n-2]
		}
	}
	live := s.resolveLive(ctx, symbol, tail, prev)

	result := &domain.RefreshResult{
		Symbol:  symbol,
		History: history,
		Live:    live,
		Status:  status,
	}
	if result.History == nil {
		result.History = []domain.DailyBar{}
	}
	s.cache.put(symbol, days, result)
	return result, nil
}

// refresh fetches a buffered window from the provider, merges it into the
// store, and re-reads the range. On provider failure the previously read
// history is kept untouched: an upstream outage must never wipe cached data.
func (s *Service) refresh(ctx context.Context, symbol string, days int, cached []domain.DailyBar) ([]domain.DailyBar, domain.RefreshStatus, error) {
	fetched, err := s.fetchHistory(ctx, symbol, days+s.fetchBuffer)
	if err != nil {
		s.log.Warn("history fetch failed, serving cached data",
			"symbol", symbol, "cachedRows", len(cached), "err", err)
		return cached, domain.StatusFetchFailed, nil
	}

	if len(fetched) == 0 {
		// Nothing new arrived; report what the serving actually is. The
		// fetched status is reserved for refreshes that stored rows.
		if len(cached) == 0 {
			return cached, domain.StatusEmpty, nil
		}
		return cached, domain.StatusCache, nil
	}
	if err := s.store.UpsertBars(ctx, fetched); err != nil {
		return nil, domain.StatusFetchFailed, fmt.Errorf("merging bars for %s: %w", symbol, err)
	}

	// Re-read from the store rather than trusting the provider's raw
	// ordering or completeness.
	history, err := s.store.ReadRange(ctx, symbol, days)
	if err != nil {
		return nil, domain.StatusFetchFailed, fmt.Errorf("re-reading history for %s: %w", symbol, err)
	}
	return history, domain.StatusFetched, nil
}

// fetchHistory wraps the provider history call with the shared rate limiter.
func (s *Service) fetchHistory(ctx context.Context, symbol string, windowDays int) ([]domain.DailyBar, error) {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	return s.provider.FetchHistory(ctx, symbol, windowDays)
}

// Live returns just a live snapshot for symbol, using stored bars for the
// synthesized and prev-close fallback tiers. Used by watchlist and portfolio
// views that need prices without full history.
func (s *Service) Live(ctx context.Context, symbol string) (domain.LiveSnapshot, error) {
	symbol = domain.NormalizeSymbol(symbol)
	if symbol == "" {
		return domain.LiveSnapshot{}, ErrEmptySymbol
	}

	recent, err := s.store.ReadRange(ctx, symbol, 2)
	if err != nil {
		return domain.LiveSnapshot{}, fmt.Errorf("reading history for %s: %w", symbol, err)
	}
	var tail, prev *domain.DailyBar
	if n := len(recent); n > 0 {
		tail = &recent[n-1]
		if n > 1 {
			prev = &recent[n-2]
		}
	}
	return s.resolveLive(ctx, symbol, tail, prev), nil
}

// BatchResult pairs one symbol of a batch refresh with its outcome.
type BatchResult struct {
	Symbol string
	Result *domain.RefreshResult
	Err    error
}

// RefreshBatch runs GetHistory for each symbol using a bounded worker pool.
// The provider rate limiter is shared across workers, so fan-out never
// exceeds the upstream request budget. Results are returned in input order.
func (s *Service) RefreshBatch(ctx context.Context, symbols []string, days int) []BatchResult {
	results := make([]BatchResult, len(symbols))

	jobs := make(chan int, len(symbols))
	for i := range symbols {
		jobs <- i
	}
	close(jobs)

	var wg sync.WaitGroup
	workers := min(s.maxWorkers, len(symbols))
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				if ctx.Err() != nil {
					results[i] = BatchResult{Symbol: symbols[i], Err: ctx.Err()}
					continue
				}
				res, err := s.GetHistory(ctx, symbols[i], days)
				results[i] = BatchResult{Symbol: symbols[i], Result: res, Err: err}
			}
		}()
	}
	wg.Wait()

	return results
}
