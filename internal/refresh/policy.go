// Package refresh implements the data-freshness pipeline: it decides when
// stored daily bars are stale, re-fetches them from the upstream provider,
// merges new rows into the bar store, and assembles a unified result of
// history, live snapshot, and status for presentation code.
package refresh

import (
	"time"

	"stockboard/internal/domain"
)

// NeedsRefresh reports whether stored daily bars are stale. It is a pure
// function with no I/O.
//
// A nil latest date (no rows for the symbol) always requires a refresh. A
// gap of more than one calendar day between latest and today requires a
// refresh; a gap of exactly one day is still fresh, which avoids redundant
// calls on Saturday for Friday-close data already stored.
func NeedsRefresh(latest *time.Time, today time.Time) bool {
	if latest == nil {
		return true
	}
	gap := int(domain.Day(today).Sub(domain.Day(*latest)).Hours() / 24)
	return gap > 1
}
