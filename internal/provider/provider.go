// Package provider defines the upstream market-data interface and its Alpaca
// implementation. Provider failures are expected and transient: callers catch
// them at the pipeline boundary and degrade to cached or synthesized data.
package provider

import (
	"context"
	"errors"
	"fmt"

	"stockboard/internal/domain"
)

// Provider fetches daily bar history and live quote snapshots for a symbol
// from an external market-data source.
type Provider interface {
	// FetchHistory returns daily bars covering the last windowDays calendar
	// days, in whatever order the source supplies them. Callers must not
	// trust ordering or completeness; the bar store is the source of truth
	// after merging.
	FetchHistory(ctx context.Context, symbol string, windowDays int) ([]domain.DailyBar, error)

	// FetchLive returns the current-session snapshot for a symbol, or nil
	// if the source has no live data for it.
	FetchLive(ctx context.Context, symbol string) (*domain.LiveSnapshot, error)
}

// ErrorKind classifies a provider failure.
type ErrorKind string

const (
	KindUnauthorized ErrorKind = "unauthorized"
	KindRateLimited  ErrorKind = "rate-limited"
	KindTimeout      ErrorKind = "timeout"
	KindMalformed    ErrorKind = "malformed-response"
	KindUnavailable  ErrorKind = "unavailable"
)

// Error is a classified provider failure. All kinds are non-fatal: the
// refresh pipeline reflects them in the result status instead of propagating.
type Error struct {
	Kind   ErrorKind
	Symbol string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("provider: %s: %s: %v", e.Symbol, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// IsProviderError reports whether err is (or wraps) a provider Error, and
// returns it if so.
func IsProviderError(err error) (*Error, bool) {
	var pe *Error
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}
