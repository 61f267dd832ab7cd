// Package symbols provides a searchable directory of ticker symbols and
// company names, loaded from a CSV file or a built-in default list.
package symbols

import (
	"encoding/csv"
	"fmt"
	"os"
	"sort"
	"strings"

	"stockboard/internal/domain"
)

// Entry is one directory row.
type Entry struct {
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
}

// Display returns the "SYM - Company Name" form used in pickers.
func (e Entry) Display() string {
	if e.Name == "" {
		return e.Symbol
	}
	return e.Symbol + " - " + e.Name
}

// Directory is an in-memory symbol lookup. Safe for concurrent reads after
// construction.
type Directory struct {
	entries []Entry
	byName  map[string]string
}

// defaultEntries covers widely traded large caps so the dashboard works
// without a CSV file.
var defaultEntries = []Entry{
	{"AAPL", "Apple Inc."},
	{"MSFT", "Microsoft Corporation"},
	{"GOOGL", "Alphabet Inc."},
	{"AMZN", "Amazon.com Inc."},
	{"NVDA", "NVIDIA Corporation"},
	{"META", "Meta Platforms Inc."},
	{"TSLA", "Tesla Inc."},
	{"BRK.B", "Berkshire Hathaway Inc."},
	{"JPM", "JPMorgan Chase & Co."},
	{"V", "Visa Inc."},
	{"JNJ", "Johnson & Johnson"},
	{"WMT", "Walmart Inc."},
	{"UNH", "UnitedHealth Group Incorporated"},
	{"MA", "Mastercard Incorporated"},
	{"PG", "Procter & Gamble Company"},
	{"HD", "Home Depot Inc."},
	{"XOM", "Exxon Mobil Corporation"},
	{"KO", "Coca-Cola Company"},
	{"PEP", "PepsiCo Inc."},
	{"DIS", "Walt Disney Company"},
	{"NFLX", "Netflix Inc."},
	{"AMD", "Advanced Micro Devices Inc."},
	{"INTC", "Intel Corporation"},
	{"CSCO", "Cisco Systems Inc."},
	{"ORCL", "Oracle Corporation"},
	{"CRM", "Salesforce Inc."},
	{"BAC", "Bank of America Corporation"},
	{"ADBE", "Adobe Inc."},
	{"PYPL", "PayPal Holdings Inc."},
	{"UBER", "Uber Technologies Inc."},
}

// NewDefault returns a Directory backed by the built-in list.
func NewDefault() *Directory {
	return newDirectory(defaultEntries)
}

// LoadCSV builds a Directory from a CSV file with a header row and at least
// symbol and name columns, in that order.
func LoadCSV(path string) (*Directory, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening symbols CSV %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading symbols CSV %s: %w", path, err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("symbols CSV %s: no data rows", path)
	}

	entries := make([]Entry, 0, len(records)-1)
	for _, row := range records[1:] {
		if len(row) == 0 {
			continue
		}
		sym := domain.NormalizeSymbol(row[0])
		if sym == "" {
			continue
		}
		name := ""
		if len(row) > 1 {
			name = strings.TrimSpace(row[1])
		}
		entries = append(entries, Entry{Symbol: sym, Name: name})
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("symbols CSV %s: no valid rows", path)
	}
	return newDirectory(entries), nil
}

func newDirectory(entries []Entry) *Directory {
	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Symbol < sorted[j].Symbol })

	byName := make(map[string]string, len(sorted))
	for _, e := range sorted {
		byName[e.Symbol] = e.Name
	}
	return &Directory{entries: sorted, byName: byName}
}

// Len reports the number of directory entries.
func (d *Directory) Len() int { return len(d.entries) }

// Name returns the company name for a symbol, or "" if unknown.
func (d *Directory) Name(symbol string) string {
	return d.byName[domain.NormalizeSymbol(symbol)]
}

// All returns every entry sorted by symbol.
func (d *Directory) All() []Entry {
	out := make([]Entry, len(d.entries))
	copy(out, d.entries)
	return out
}

// Search returns up to limit entries matching q, best match first. Ranking:
// exact symbol, symbol prefix, name prefix, then substring anywhere.
func (d *Directory) Search(q string, limit int) []Entry {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil
	}
	if limit <= 0 {
		limit = 20
	}
	upper := strings.ToUpper(q)

	type ranked struct {
		e    Entry
		rank int
	}
	var hits []ranked
	for _, e := range d.entries {
		nameUpper := strings.ToUpper(e.Name)
		switch {
		case e.Symbol == upper:
			hits = append(hits, ranked{e, 0})
		case strings.HasPrefix(e.Symbol, upper):
			hits = append(hits, ranked{e, 1})
		case strings.HasPrefix(nameUpper, upper):
			hits = append(hits, ranked{e, 2})
		case strings.Contains(e.Symbol, upper) || strings.Contains(nameUpper, upper):
			hits = append(hits, ranked{e, 3})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].rank < hits[j].rank })

	if len(hits) > limit {
		hits = hits[:limit]
	}
	out := make([]Entry, len(hits))
	for i, h := range hits {
		out[i] = h.e
	}
	return out
}
