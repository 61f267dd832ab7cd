package refresh

import (
	"context"

	"stockboard/internal/domain"
)

// resolveLive obtains a current-session snapshot for a symbol with a
// three-tier fallback: provider live data, then a snapshot synthesized from
// the most recent stored bar, then an all-absent snapshot. It never returns
// an error; every failure path degrades to the next tier.
//
// tail is the most recent stored bar and prev the one before it; either may
// be nil.
func (s *Service) resolveLive(ctx context.Context, symbol string, tail, prev *domain.DailyBar) domain.LiveSnapshot {
	live, err := s.fetchLive(ctx, symbol)
	if err == nil && live != nil && live.HasPrice() {
		snap := *live
		snap.MarketStatus = domain.NormalizeMarketStatus(snap.MarketStatus)
		if snap.PrevClose == nil && prev != nil {
			snap.PrevClose = domain.Ptr(prev.Close)
		}
		return snap
	}
	if err != nil {
		s.log.Debug("live snapshot unavailable", "symbol", symbol, "err", err)
	}

	if tail != nil {
		// Synthesized from end-of-day data, so the market is definitionally
		// closed from this snapshot's point of view.
		snap := domain.LiveSnapshot{
			CurrentPrice: domain.Ptr(tail.Close),
			TodayHigh:    domain.Ptr(tail.High),
			TodayLow:     domain.Ptr(tail.Low),
			TodayVolume:  domain.Ptr(tail.Volume),
			MarketStatus: "closed",
		}
		if prev != nil {
			snap.PrevClose = domain.Ptr(prev.Close)
		}
		return snap
	}

	return domain.LiveSnapshot{}
}

// fetchLive wraps the provider live call with the shared rate limiter.
func (s *Service) fetchLive(ctx context.Context, symbol string) (*domain.LiveSnapshot, error) {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	return s.provider.FetchLive(ctx, symbol)
}
