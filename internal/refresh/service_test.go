package refresh

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"stockboard/internal/domain"
	"stockboard/internal/provider"
	"stockboard/internal/store"
)

// ---------------------------------------------------------------------------
// In-memory fakes
// ---------------------------------------------------------------------------

type fakeStore struct {
	mu   sync.Mutex
	bars map[string]map[string]domain.DailyBar // symbol → date → bar
	err  error                                 // injected storage failure
}

var _ store.BarStore = (*fakeStore)(nil)

func newFakeStore() *fakeStore {
	return &fakeStore{bars: make(map[string]map[string]domain.DailyBar)}
}

func (f *fakeStore) UpsertBars(_ context.Context, bars []domain.DailyBar) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	for _, b := range bars {
		sym := domain.NormalizeSymbol(b.Symbol)
		if f.bars[sym] == nil {
			f.bars[sym] = make(map[string]domain.DailyBar)
		}
		f.bars[sym][domain.Day(b.Date).Format("2006-01-02")] = b
	}
	return nil
}

func (f *fakeStore) ReadRange(_ context.Context, symbol string, limit int) ([]domain.DailyBar, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	rows := f.bars[domain.NormalizeSymbol(symbol)]
	var dates []string
	for d := range rows {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	if len(dates) > limit {
		dates = dates[len(dates)-limit:]
	}
	var out []domain.DailyBar
	for _, d := range dates {
		out = append(out, rows[d])
	}
	return out, nil
}

func (f *fakeStore) LatestDate(_ context.Context, symbol string) (*time.Time, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	rows := f.bars[domain.NormalizeSymbol(symbol)]
	if len(rows) == 0 {
		return nil, nil
	}
	var latest string
	for d := range rows {
		if d > latest {
			latest = d
		}
	}
	t, _ := time.Parse("2006-01-02", latest)
	return &t, nil
}

func (f *fakeStore) ListSymbols(_ context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var syms []string
	for s := range f.bars {
		syms = append(syms, s)
	}
	sort.Strings(syms)
	return syms, nil
}

type fakeProvider struct {
	mu           sync.Mutex
	history      []domain.DailyBar
	historyErr   error
	live         *domain.LiveSnapshot
	liveErr      error
	historyCalls int
	liveCalls    int
}

var _ provider.Provider = (*fakeProvider)(nil)

func (f *fakeProvider) FetchHistory(_ context.Context, symbol string, _ int) ([]domain.DailyBar, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.historyCalls++
	if f.historyErr != nil {
		return nil, f.historyErr
	}
	var out []domain.DailyBar
	for _, b := range f.history {
		b.Symbol = domain.NormalizeSymbol(symbol)
		out = append(out, b)
	}
	return out, nil
}

func (f *fakeProvider) FetchLive(_ context.Context, _ string) (*domain.LiveSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.liveCalls++
	if f.liveErr != nil {
		return nil, f.liveErr
	}
	return f.live, nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func mkBar(symbol string, date time.Time, close float64) domain.DailyBar {
	return domain.DailyBar{
		Symbol: symbol,
		Date:   date,
		Open:   close - 1,
		High:   close + 1,
		Low:    close - 2,
		Close:  close,
		Volume: 1000,
	}
}

func unauthorized() error {
	return &provider.Error{Kind: provider.KindUnauthorized, Err: errors.New("not entitled")}
}

func newTestService(fs *fakeStore, fp *fakeProvider, now time.Time) *Service {
	return NewService(fs, fp, Options{Now: func() time.Time { return now }})
}

// ---------------------------------------------------------------------------
// Pipeline tests
// ---------------------------------------------------------------------------

func TestGetHistoryEmptySymbol(t *testing.T) {
	s := newTestService(newFakeStore(), &fakeProvider{}, day(2024, 1, 5))
	if _, err := s.GetHistory(context.Background(), "   ", 30); !errors.Is(err, ErrEmptySymbol) {
		t.Errorf("GetHistory(blank) err = %v, want ErrEmptySymbol", err)
	}
}

func TestGetHistoryFirstFetch(t *testing.T) {
	// Store empty for ZZZZ; provider returns 3 bars and raises Unauthorized
	// for the live snapshot.
	fp := &fakeProvider{
		history: []domain.DailyBar{
			mkBar("ZZZZ", day(2024, 1, 3), 11),
			mkBar("ZZZZ", day(2024, 1, 2), 10),
			mkBar("ZZZZ", day(2024, 1, 4), 12),
		},
		liveErr: unauthorized(),
	}
	s := newTestService(newFakeStore(), fp, day(2024, 1, 5))

	res, err := s.GetHistory(context.Background(), "zzzz", 30)
	if err != nil {
		t.Fatalf("GetHistory: %v", err)
	}
	if res.Status != domain.StatusFetched {
		t.Errorf("status = %s, want fetched", res.Status)
	}
	if len(res.History) != 3 {
		t.Fatalf("history has %d rows, want 3", len(res.History))
	}
	for i := 1; i < len(res.History); i++ {
		if !res.History[i].Date.After(res.History[i-1].Date) {
			t.Error("history not ascending by date")
		}
	}
	if res.Live.CurrentPrice == nil || *res.Live.CurrentPrice != 12 {
		t.Errorf("live current = %v, want 12 (synthesized from last close)", res.Live.CurrentPrice)
	}
	if res.Live.PrevClose == nil || *res.Live.PrevClose != 11 {
		t.Errorf("live prevClose = %v, want 11", res.Live.PrevClose)
	}
	if res.Live.MarketStatus != "closed" {
		t.Errorf("live marketStatus = %q, want closed", res.Live.MarketStatus)
	}
}

func TestGetHistoryFreshCacheSkipsProvider(t *testing.T) {
	// One stored row dated 2024-01-04 with today 2024-01-05: gap of one day
	// is fresh, so no provider history call may happen.
	fs := newFakeStore()
	fs.UpsertBars(context.Background(), []domain.DailyBar{mkBar("YYYY", day(2024, 1, 4), 12)})
	fp := &fakeProvider{liveErr: unauthorized()}
	s := newTestService(fs, fp, day(2024, 1, 5))

	res, err := s.GetHistory(context.Background(), "YYYY", 30)
	if err != nil {
		t.Fatalf("GetHistory: %v", err)
	}
	if res.Status != domain.StatusCache {
		t.Errorf("status = %s, want cache", res.Status)
	}
	if fp.historyCalls != 0 {
		t.Errorf("provider history called %d times, want 0", fp.historyCalls)
	}
	if len(res.History) != 1 || res.History[0].Close != 12 {
		t.Errorf("history = %+v, want the single cached row", res.History)
	}
}

func TestGetHistoryProviderFailureKeepsCache(t *testing.T) {
	fs := newFakeStore()
	var seed []domain.DailyBar
	for i := 0; i < 5; i++ {
		seed = append(seed, mkBar("AAPL", day(2024, 1, 2+i), 185+float64(i)))
	}
	fs.UpsertBars(context.Background(), seed)

	fp := &fakeProvider{
		historyErr: &provider.Error{Kind: provider.KindTimeout, Err: errors.New("i/o timeout")},
		liveErr:    unauthorized(),
	}
	// Today far ahead of the stored data forces a refresh attempt.
	s := newTestService(fs, fp, day(2024, 2, 1))

	res, err := s.GetHistory(context.Background(), "AAPL", 30)
	if err != nil {
		t.Fatalf("GetHistory: %v", err)
	}
	if res.Status != domain.StatusFetchFailed {
		t.Errorf("status = %s, want fetch-failed", res.Status)
	}
	if len(res.History) != 5 {
		t.Errorf("history has %d rows after provider failure, want the 5 cached rows", len(res.History))
	}
}

func TestGetHistoryZeroRowFetchKeepsCacheStatus(t *testing.T) {
	fs := newFakeStore()
	var seed []domain.DailyBar
	for i := 0; i < 5; i++ {
		seed = append(seed, mkBar("AAPL", day(2024, 1, 2+i), 185+float64(i)))
	}
	fs.UpsertBars(context.Background(), seed)

	// Provider reachable but returns no bars (e.g. delisted symbol).
	fp := &fakeProvider{liveErr: unauthorized()}
	// Today far ahead of the stored data forces a refresh attempt.
	s := newTestService(fs, fp, day(2024, 2, 1))

	res, err := s.GetHistory(context.Background(), "AAPL", 30)
	if err != nil {
		t.Fatalf("GetHistory: %v", err)
	}
	if fp.historyCalls != 1 {
		t.Errorf("provider history called %d times, want 1", fp.historyCalls)
	}
	if res.Status != domain.StatusCache {
		t.Errorf("status = %s, want cache when nothing new was stored", res.Status)
	}
	if len(res.History) != 5 {
		t.Errorf("history has %d rows, want the 5 cached rows", len(res.History))
	}
}

func TestGetHistoryEmptyEverywhere(t *testing.T) {
	fp := &fakeProvider{liveErr: unauthorized()} // empty history, no error
	s := newTestService(newFakeStore(), fp, day(2024, 1, 5))

	res, err := s.GetHistory(context.Background(), "NOPE", 30)
	if err != nil {
		t.Fatalf("GetHistory: %v", err)
	}
	if res.Status != domain.StatusEmpty {
		t.Errorf("status = %s, want empty", res.Status)
	}
	if res.History == nil {
		t.Error("history must never be nil")
	}
	if len(res.History) != 0 {
		t.Errorf("history has %d rows, want 0", len(res.History))
	}
	if res.Live.HasPrice() {
		t.Error("live snapshot should be all-absent with no data anywhere")
	}
}

func TestGetHistoryProviderFailureEmptyStore(t *testing.T) {
	fp := &fakeProvider{
		historyErr: &provider.Error{Kind: provider.KindRateLimited, Err: errors.New("429")},
		liveErr:    unauthorized(),
	}
	s := newTestService(newFakeStore(), fp, day(2024, 1, 5))

	res, err := s.GetHistory(context.Background(), "NEWB", 30)
	if err != nil {
		t.Fatalf("GetHistory: %v", err)
	}
	// A failed fetch is distinct from a successful fetch that found nothing.
	if res.Status != domain.StatusFetchFailed {
		t.Errorf("status = %s, want fetch-failed", res.Status)
	}
	if len(res.History) != 0 {
		t.Errorf("history has %d rows, want 0", len(res.History))
	}
}

func TestGetHistoryStorageErrorPropagates(t *testing.T) {
	fs := newFakeStore()
	fs.err = &store.StorageError{Op: "read range", Err: errors.New("disk gone")}
	s := newTestService(fs, &fakeProvider{}, day(2024, 1, 5))

	_, err := s.GetHistory(context.Background(), "AAPL", 30)
	if err == nil {
		t.Fatal("GetHistory should propagate storage errors")
	}
	if !store.IsStorageError(err) {
		t.Errorf("err = %v, want a StorageError", err)
	}
}

func TestGetHistoryBound(t *testing.T) {
	fs := newFakeStore()
	var seed []domain.DailyBar
	for i := 0; i < 45; i++ {
		seed = append(seed, mkBar("MSFT", day(2024, 1, 1).AddDate(0, 0, i), 400+float64(i)))
	}
	fs.UpsertBars(context.Background(), seed)
	fp := &fakeProvider{liveErr: unauthorized()}
	s := newTestService(fs, fp, day(2024, 2, 14)) // latest bar = 2024-02-14, fresh

	res, err := s.GetHistory(context.Background(), "MSFT", 30)
	if err != nil {
		t.Fatalf("GetHistory: %v", err)
	}
	if len(res.History) > 30 {
		t.Fatalf("history has %d rows, want at most 30", len(res.History))
	}
	seen := make(map[string]bool)
	for i, b := range res.History {
		key := b.Date.Format("2006-01-02")
		if seen[key] {
			t.Errorf("duplicate date %s in history", key)
		}
		seen[key] = true
		if i > 0 && !b.Date.After(res.History[i-1].Date) {
			t.Error("history not strictly ascending")
		}
	}
}

func TestGetHistoryMergeOverwrites(t *testing.T) {
	// A re-fetch of an existing date must overwrite, not duplicate.
	fs := newFakeStore()
	fs.UpsertBars(context.Background(), []domain.DailyBar{mkBar("TSLA", day(2024, 1, 2), 240)})

	fp := &fakeProvider{
		history: []domain.DailyBar{
			mkBar("TSLA", day(2024, 1, 2), 241), // revised value, same key
			mkBar("TSLA", day(2024, 1, 3), 245),
		},
		liveErr: unauthorized(),
	}
	s := newTestService(fs, fp, day(2024, 1, 10))

	res, err := s.GetHistory(context.Background(), "TSLA", 30)
	if err != nil {
		t.Fatalf("GetHistory: %v", err)
	}
	if len(res.History) != 2 {
		t.Fatalf("history has %d rows, want 2 (merged, deduplicated)", len(res.History))
	}
	if res.History[0].Close != 241 {
		t.Errorf("re-fetched row Close = %v, want 241 (overwrite)", res.History[0].Close)
	}
}

// ---------------------------------------------------------------------------
// Live snapshot resolver tests
// ---------------------------------------------------------------------------

func TestResolveLiveProviderSnapshot(t *testing.T) {
	fp := &fakeProvider{
		live: &domain.LiveSnapshot{
			CurrentPrice: domain.Ptr(250.5),
			TodayHigh:    domain.Ptr(252.0),
			TodayLow:     domain.Ptr(248.0),
			TodayVolume:  domain.Ptr(int64(9_000_000)),
			MarketStatus: "OPEN",
		},
	}
	s := newTestService(newFakeStore(), fp, day(2024, 1, 5))

	prev := mkBar("TSLA", day(2024, 1, 3), 245)
	tail := mkBar("TSLA", day(2024, 1, 4), 248)
	snap := s.resolveLive(context.Background(), "TSLA", &tail, &prev)

	if snap.CurrentPrice == nil || *snap.CurrentPrice != 250.5 {
		t.Errorf("current = %v, want provider value 250.5", snap.CurrentPrice)
	}
	if snap.MarketStatus != "open" {
		t.Errorf("marketStatus = %q, want normalized \"open\"", snap.MarketStatus)
	}
	// Provider did not supply prev close: backfilled from second-to-last bar.
	if snap.PrevClose == nil || *snap.PrevClose != 245 {
		t.Errorf("prevClose = %v, want backfilled 245", snap.PrevClose)
	}
}

func TestResolveLiveSynthesized(t *testing.T) {
	fp := &fakeProvider{liveErr: unauthorized()}
	s := newTestService(newFakeStore(), fp, day(2024, 1, 5))

	prev := mkBar("TSLA", day(2024, 1, 3), 245)
	tail := mkBar("TSLA", day(2024, 1, 4), 248)
	snap := s.resolveLive(context.Background(), "TSLA", &tail, &prev)

	if snap.CurrentPrice == nil || *snap.CurrentPrice != 248 {
		t.Errorf("current = %v, want tail close 248", snap.CurrentPrice)
	}
	if snap.TodayHigh == nil || *snap.TodayHigh != tail.High {
		t.Errorf("todayHigh = %v, want tail high %v", snap.TodayHigh, tail.High)
	}
	if snap.TodayVolume == nil || *snap.TodayVolume != tail.Volume {
		t.Errorf("todayVolume = %v, want tail volume %v", snap.TodayVolume, tail.Volume)
	}
	if snap.PrevClose == nil || *snap.PrevClose != 245 {
		t.Errorf("prevClose = %v, want 245", snap.PrevClose)
	}
	if snap.MarketStatus != "closed" {
		t.Errorf("marketStatus = %q, want closed for synthesized snapshot", snap.MarketStatus)
	}
}

func TestResolveLiveSynthesizedNoPrev(t *testing.T) {
	fp := &fakeProvider{liveErr: unauthorized()}
	s := newTestService(newFakeStore(), fp, day(2024, 1, 5))

	tail := mkBar("TSLA", day(2024, 1, 4), 248)
	snap := s.resolveLive(context.Background(), "TSLA", &tail, nil)
	if snap.PrevClose != nil {
		t.Errorf("prevClose = %v, want nil with a single stored bar", snap.PrevClose)
	}
}

func TestResolveLiveAllAbsent(t *testing.T) {
	fp := &fakeProvider{liveErr: unauthorized()}
	s := newTestService(newFakeStore(), fp, day(2024, 1, 5))

	snap := s.resolveLive(context.Background(), "TSLA", nil, nil)
	if snap.HasPrice() || snap.PrevClose != nil || snap.TodayVolume != nil {
		t.Errorf("snapshot = %+v, want all fields absent", snap)
	}
}

// ---------------------------------------------------------------------------
// Cache and batch tests
// ---------------------------------------------------------------------------

func TestResultCacheAbsorbsBursts(t *testing.T) {
	fs := newFakeStore()
	fs.UpsertBars(context.Background(), []domain.DailyBar{mkBar("AAPL", day(2024, 1, 4), 185)})
	fp := &fakeProvider{liveErr: unauthorized()}
	s := NewService(fs, fp, Options{
		Now:      func() time.Time { return day(2024, 1, 5) },
		CacheTTL: time.Minute,
	})

	for i := 0; i < 5; i++ {
		if _, err := s.GetHistory(context.Background(), "AAPL", 30); err != nil {
			t.Fatalf("GetHistory #%d: %v", i, err)
		}
	}
	// Only the first request should have touched the live provider.
	if fp.liveCalls != 1 {
		t.Errorf("provider live called %d times across burst, want 1", fp.liveCalls)
	}
}

func TestRefreshBatch(t *testing.T) {
	fs := newFakeStore()
	fp := &fakeProvider{
		history: []domain.DailyBar{mkBar("", day(2024, 1, 4), 100)},
		liveErr: unauthorized(),
	}
	s := NewService(fs, fp, Options{
		Now:             func() time.Time { return day(2024, 1, 10) },
		MaxWorkers:      3,
		RateLimitPerMin: 6000,
	})

	symbols := []string{"AAPL", "MSFT", "", "TSLA"}
	results := s.RefreshBatch(context.Background(), symbols, 30)
	if len(results) != len(symbols) {
		t.Fatalf("got %d results, want %d", len(results), len(symbols))
	}
	for i, r := range results {
		if r.Symbol != symbols[i] {
			t.Errorf("result %d symbol = %q, want input order preserved (%q)", i, r.Symbol, symbols[i])
		}
	}
	if !errors.Is(results[2].Err, ErrEmptySymbol) {
		t.Errorf("blank symbol err = %v, want ErrEmptySymbol", results[2].Err)
	}
	for _, i := range []int{0, 1, 3} {
		if results[i].Err != nil {
			t.Errorf("%s: unexpected error %v", symbols[i], results[i].Err)
			continue
		}
		if results[i].Result.Status != domain.StatusFetched {
			t.Errorf("%s: status = %s, want fetched", symbols[i], results[i].Result.Status)
		}
	}
}

func TestLiveUsesStoredFallback(t *testing.T) {
	fs := newFakeStore()
	fs.UpsertBars(context.Background(), []domain.DailyBar{
		mkBar("NVDA", day(2024, 1, 3), 450),
		mkBar("NVDA", day(2024, 1, 4), 460),
	})
	fp := &fakeProvider{liveErr: unauthorized()}
	s := newTestService(fs, fp, day(2024, 1, 5))

	snap, err := s.Live(context.Background(), "nvda")
	if err != nil {
		t.Fatalf("Live: %v", err)
	}
	if snap.CurrentPrice == nil || *snap.CurrentPrice != 460 {
		t.Errorf("current = %v, want 460", snap.CurrentPrice)
	}
	if snap.PrevClose == nil || *snap.PrevClose != 450 {
		t.Errorf("prevClose = %v, want 450", snap.PrevClose)
	}
}
