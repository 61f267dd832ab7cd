package store

import (
	"context"
	"database/sql"
	"time"

	"stockboard/internal/domain"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.
)

// Compile-time interface checks.
var _ BarStore = (*SQLiteStore)(nil)
var _ WatchlistStore = (*SQLiteStore)(nil)
var _ PortfolioStore = (*SQLiteStore)(nil)

// dateLayout is how bar dates are stored. Lexicographic order equals
// chronological order, so ORDER BY and MAX work directly on the column.
const dateLayout = "2006-01-02"

// SQLiteStore implements BarStore, WatchlistStore, and PortfolioStore backed
// by a single SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS daily_bars (
	symbol TEXT    NOT NULL,
	date   TEXT    NOT NULL,
	open   REAL    NOT NULL,
	high   REAL    NOT NULL,
	low    REAL    NOT NULL,
	close  REAL    NOT NULL,
	volume INTEGER NOT NULL,
	PRIMARY KEY (symbol, date)
);

CREATE TABLE IF NOT EXISTS watchlist (
	symbol   TEXT PRIMARY KEY,
	added_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS portfolio (
	symbol         TEXT PRIMARY KEY,
	quantity       REAL NOT NULL,
	purchase_price REAL NOT NULL,
	added_at       TEXT NOT NULL
);
`

// NewSQLiteStore opens (or creates) a SQLite database at dbPath, creates the
// schema if needed, and returns a ready-to-use SQLiteStore.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, storageErr("open", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, storageErr("migrate", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ---------------------------------------------------------------------------
// BarStore implementation
// ---------------------------------------------------------------------------

// UpsertBars writes bars inside one transaction, overwriting rows with the
// same (symbol, date) key.
func (s *SQLiteStore) UpsertBars(ctx context.Context, bars []domain.DailyBar) error {
	if len(bars) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storageErr("begin upsert", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO daily_bars (symbol, date, open, high, low, close, volume)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (symbol, date) DO UPDATE SET
			open = excluded.open,
			high = excluded.high,
			low = excluded.low,
			close = excluded.close,
			volume = excluded.volume`)
	if err != nil {
		return storageErr("prepare upsert", err)
	}
	defer stmt.Close()

	for _, b := range bars {
		symbol := domain.NormalizeSymbol(b.Symbol)
		date := domain.Day(b.Date).Format(dateLayout)
		if _, err := stmt.ExecContext(ctx, symbol, date, b.Open, b.High, b.Low, b.Close, b.Volume); err != nil {
			return storageErr("upsert bar", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return storageErr("commit upsert", err)
	}
	return nil
}

// ReadRange returns up to limit most-recent bars for symbol, oldest first.
// A non-positive limit returns every stored bar.
func (s *SQLiteStore) ReadRange(ctx context.Context, symbol string, limit int) ([]domain.DailyBar, error) {
	if limit <= 0 {
		limit = -1 // SQLite: negative LIMIT means unbounded
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT symbol, date, open, high, low, close, volume
		FROM daily_bars
		WHERE symbol = ?
		ORDER BY date DESC
		LIMIT ?`, domain.NormalizeSymbol(symbol), limit)
	if err != nil {
		return nil, storageErr("read range", err)
	}
	defer rows.Close()

	var bars []domain.DailyBar
	for rows.Next() {
		var b domain.DailyBar
		var date string
		if err := rows.Scan(&b.Symbol, &date, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			return nil, storageErr("scan bar", err)
		}
		t, err := time.Parse(dateLayout, date)
		if err != nil {
			return nil, storageErr("parse bar date", err)
		}
		b.Date = t
		bars = append(bars, b)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("read range", err)
	}

	// The query returns newest first; reverse for chronological order.
	for i, j := 0, len(bars)-1; i < j; i, j = i+1, j-1 {
		bars[i], bars[j] = bars[j], bars[i]
	}
	return bars, nil
}

// LatestDate returns the most recent stored bar date for symbol, or nil.
func (s *SQLiteStore) LatestDate(ctx context.Context, symbol string) (*time.Time, error) {
	var date sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT MAX(date) FROM daily_bars WHERE symbol = ?`,
		domain.NormalizeSymbol(symbol)).Scan(&date)
	if err != nil {
		return nil, storageErr("latest date", err)
	}
	if !date.Valid {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, date.String)
	if err != nil {
		return nil, storageErr("parse latest date", err)
	}
	return &t, nil
}

// ListSymbols returns all distinct symbols with stored bars, sorted.
func (s *SQLiteStore) ListSymbols(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT symbol FROM daily_bars ORDER BY symbol`)
	if err != nil {
		return nil, storageErr("list symbols", err)
	}
	defer rows.Close()

	var symbols []string
	for rows.Next() {
		var sym string
		if err := rows.Scan(&sym); err != nil {
			return nil, storageErr("scan symbol", err)
		}
		symbols = append(symbols, sym)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list symbols", err)
	}
	return symbols, nil
}

// ---------------------------------------------------------------------------
// WatchlistStore implementation
// ---------------------------------------------------------------------------

// AddToWatchlist inserts a symbol; adding an existing symbol is a no-op.
func (s *SQLiteStore) AddToWatchlist(ctx context.Context, symbol string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO watchlist (symbol, added_at) VALUES (?, ?)
		 ON CONFLICT (symbol) DO NOTHING`,
		domain.NormalizeSymbol(symbol), time.Now().UTC().Format(time.RFC3339))
	return storageErr("add watchlist", err)
}

// RemoveFromWatchlist deletes a symbol from the watchlist.
func (s *SQLiteStore) RemoveFromWatchlist(ctx context.Context, symbol string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM watchlist WHERE symbol = ?`, domain.NormalizeSymbol(symbol))
	return storageErr("remove watchlist", err)
}

// Watchlist returns all watched symbols, sorted.
func (s *SQLiteStore) Watchlist(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT symbol FROM watchlist ORDER BY symbol`)
	if err != nil {
		return nil, storageErr("read watchlist", err)
	}
	defer rows.Close()

	var symbols []string
	for rows.Next() {
		var sym string
		if err := rows.Scan(&sym); err != nil {
			return nil, storageErr("scan watchlist", err)
		}
		symbols = append(symbols, sym)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("read watchlist", err)
	}
	return symbols, nil
}

// ---------------------------------------------------------------------------
// PortfolioStore implementation
// ---------------------------------------------------------------------------

// SaveHolding inserts or replaces the holding for a symbol.
func (s *SQLiteStore) SaveHolding(ctx context.Context, h domain.Holding) error {
	added := h.AddedAt
	if added.IsZero() {
		added = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO portfolio (symbol, quantity, purchase_price, added_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (symbol) DO UPDATE SET
			quantity = excluded.quantity,
			purchase_price = excluded.purchase_price`,
		domain.NormalizeSymbol(h.Symbol), h.Quantity, h.PurchasePrice,
		added.Format(time.RFC3339))
	return storageErr("save holding", err)
}

// DeleteHolding removes the holding for a symbol.
func (s *SQLiteStore) DeleteHolding(ctx context.Context, symbol string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM portfolio WHERE symbol = ?`, domain.NormalizeSymbol(symbol))
	return storageErr("delete holding", err)
}

// Holdings returns all portfolio holdings, sorted by symbol.
func (s *SQLiteStore) Holdings(ctx context.Context) ([]domain.Holding, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT symbol, quantity, purchase_price, added_at FROM portfolio ORDER BY symbol`)
	if err != nil {
		return nil, storageErr("read portfolio", err)
	}
	defer rows.Close()

	var holdings []domain.Holding
	for rows.Next() {
		var h domain.Holding
		var added string
		if err := rows.Scan(&h.Symbol, &h.Quantity, &h.PurchasePrice, &added); err != nil {
			return nil, storageErr("scan holding", err)
		}
		if t, err := time.Parse(time.RFC3339, added); err == nil {
			h.AddedAt = t
		}
		holdings = append(holdings, h)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("read portfolio", err)
	}
	return holdings, nil
}
