// Package store defines storage interfaces for persisting and retrieving
// daily bars, watchlist entries, and portfolio holdings.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"stockboard/internal/domain"
)

// BarStore persists and retrieves daily OHLCV bars keyed by (symbol, date).
type BarStore interface {
	// UpsertBars writes a batch of bars, overwriting rows that share a
	// (symbol, date) key. The merge is idempotent.
	UpsertBars(ctx context.Context, bars []domain.DailyBar) error

	// ReadRange returns up to limit of the most recent bars for symbol,
	// ordered oldest first; a non-positive limit returns every bar. A
	// missing symbol yields an empty slice, not an error.
	ReadRange(ctx context.Context, symbol string, limit int) ([]domain.DailyBar, error)

	// LatestDate returns the most recent stored bar date for symbol, or nil
	// if no rows exist.
	LatestDate(ctx context.Context, symbol string) (*time.Time, error)

	// ListSymbols returns all distinct symbols with stored bars, sorted.
	ListSymbols(ctx context.Context) ([]string, error)
}

// WatchlistStore persists the set of watched symbols.
type WatchlistStore interface {
	AddToWatchlist(ctx context.Context, symbol string) error
	RemoveFromWatchlist(ctx context.Context, symbol string) error
	Watchlist(ctx context.Context) ([]string, error)
}

// PortfolioStore persists portfolio holdings keyed by symbol.
type PortfolioStore interface {
	SaveHolding(ctx context.Context, h domain.Holding) error
	DeleteHolding(ctx context.Context, symbol string) error
	Holdings(ctx context.Context) ([]domain.Holding, error)
}

// StorageError wraps a failure of the underlying datastore. Unlike provider
// errors, storage errors are fatal to the current request: callers must
// propagate them instead of degrading to a cached or empty result, since an
// unreadable store means nothing about the data can be trusted.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// IsStorageError reports whether err is (or wraps) a StorageError.
func IsStorageError(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}

// storageErr wraps err as a StorageError unless it is nil.
func storageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Err: err}
}
