// Archive tool: exports daily bars from SQLite to per-symbol parquet files,
// or restores them back into SQLite.
//
// Usage:
//
//	go run cmd/stockboard-export/main.go            # export all symbols
//	go run cmd/stockboard-export/main.go -restore   # import archive into SQLite
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"stockboard/internal/config"
	"stockboard/internal/store"
	"stockboard/internal/util"
)

func main() {
	restore := flag.Bool("restore", false, "import parquet archive into SQLite instead of exporting")
	flag.Parse()

	cfgPath := "config/stockboard.yaml"
	if p := os.Getenv("STOCKBOARD_CONFIG"); p != "" {
		cfgPath = p
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := util.NewLogger(cfg.Logging.Level)
	util.SetDefault(logger)

	sqlStore, err := store.NewSQLiteStore(cfg.Storage.SQLitePath)
	if err != nil {
		log.Fatalf("failed to open store: %v", err)
	}
	defer sqlStore.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if *restore {
		if err := restoreArchive(ctx, sqlStore, cfg.Storage.ArchiveDir); err != nil {
			log.Fatalf("restore failed: %v", err)
		}
		return
	}

	if err := exportArchive(ctx, sqlStore, cfg.Storage.ArchiveDir); err != nil {
		log.Fatalf("export failed: %v", err)
	}
}

func exportArchive(ctx context.Context, s *store.SQLiteStore, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	symbols, err := s.ListSymbols(ctx)
	if err != nil {
		return err
	}

	var exported int
	for _, sym := range symbols {
		bars, err := s.ReadRange(ctx, sym, 0)
		if err != nil {
			return err
		}
		if len(bars) == 0 {
			continue
		}
		path := filepath.Join(dir, sym+".parquet")
		if err := store.ExportBars(path, bars); err != nil {
			return err
		}
		exported += len(bars)
	}

	log.Printf("exported %d bars for %d symbols to %s", exported, len(symbols), dir)
	return nil
}

func restoreArchive(ctx context.Context, s *store.SQLiteStore, dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}

	var restored int
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".parquet") {
			continue
		}
		bars, err := store.ImportBars(filepath.Join(dir, e.Name()))
		if err != nil {
			return err
		}
		if err := s.UpsertBars(ctx, bars); err != nil {
			return err
		}
		restored += len(bars)
	}

	log.Printf("restored %d bars from %s", restored, dir)
	return nil
}
