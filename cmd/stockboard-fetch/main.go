// Batch refresh tool: resolves quotes for the watchlist (or symbols given
// on the command line) so the cache is warm before the dashboard starts.
//
// Usage:
//
//	go run cmd/stockboard-fetch/main.go [SYMBOL ...]
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"stockboard/internal/config"
	"stockboard/internal/provider"
	"stockboard/internal/refresh"
	"stockboard/internal/store"
	"stockboard/internal/util"
)

func main() {
	days := flag.Int("days", 0, "history window in days (default from config)")
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

	symbols := flag.Args()
	if len(symbols) == 0 {
		symbols, err = sqlStore.Watchlist(ctx)
		if err != nil {
			log.Fatalf("failed to read watchlist: %v", err)
		}
		if len(symbols) == 0 {
			symbols = cfg.Watchlist.Default
		}
	}
	if len(symbols) == 0 {
		log.Fatal("no symbols to fetch")
	}

	prov := provider.NewAlpacaProvider(provider.AlpacaOpts{
		APIKey:    cfg.Alpaca.APIKey,
		APISecret: cfg.Alpaca.APISecret,
		BaseURL:   cfg.Alpaca.BaseURL,
		DataURL:   cfg.Alpaca.DataURL,
		Timeout:   time.Duration(cfg.Refresh.ProviderTimeoutSecs) * time.Second,
	})

	svc := refresh.NewService(sqlStore, prov, refresh.Options{
		FetchBuffer:     cfg.Refresh.FetchBuffer,
		CacheTTL:        time.Duration(cfg.Refresh.CacheTTLSecs) * time.Second,
		RateLimitPerMin: cfg.Refresh.RateLimitPerMin,
		MaxWorkers:      cfg.Refresh.MaxWorkers,
		Logger:          logger,
	})

	window := cfg.Refresh.Days
	if *days > 0 {
		window = *days
	}

	logger.Info("warming cache", "symbols", len(symbols), "days", window)
	start := time.Now()

	var refreshed, failed int
	statuses := make(map[string]int)
	for _, br := range svc.RefreshBatch(ctx, symbols, window) {
		if br.Err != nil {
			// Hard errors (bad symbol, storage trouble) are worth another
			// couple of attempts before writing the symbol off.
			sym := br.Symbol
			err := util.Retry(ctx, 3, 2*time.Second, func() error {
				r, err := svc.GetHistory(ctx, sym, window)
				if err != nil {
					return err
				}
				statuses[string(r.Status)]++
				return nil
			})
			if err != nil {
				failed++
				logger.Error("refresh failed", "symbol", sym, "error", err)
				continue
			}
			refreshed++
			continue
		}
		statuses[string(br.Result.Status)]++
		refreshed++
	}

	logger.Info("cache warm complete",
		"refreshed", refreshed,
		"failed", failed,
		"statuses", statuses,
		"elapsed", time.Since(start).Round(time.Millisecond))
	if failed > 0 {
		os.Exit(1)
	}
}
