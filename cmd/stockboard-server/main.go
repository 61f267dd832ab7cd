package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"stockboard/internal/config"
	"stockboard/internal/httpapi"
	"stockboard/internal/news"
	"stockboard/internal/provider"
	"stockboard/internal/refresh"
	"stockboard/internal/store"
	"stockboard/internal/symbols"
	"stockboard/internal/util"
)

func main() {
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

	seedWatchlist(ctx, sqlStore, cfg.Watchlist.Default)

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

	directory := loadDirectory(cfg.Symbols.CSVPath, logger)

	fetcher := news.NewFetcher(prov.MarketDataClient())

	api := httpapi.NewDashboardServer(
		svc,
		sqlStore,
		sqlStore,
		fetcher,
		directory,
		cfg.Refresh.Days,
		logger,
	)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      api.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		srv.Shutdown(shutdownCtx)
	}()

	logger.Info("stockboard-server listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("server error: %v", err)
	}
	logger.Info("stockboard-server stopped")
}

// seedWatchlist adds the configured default symbols; symbols already present
// are left alone.
func seedWatchlist(ctx context.Context, ws store.WatchlistStore, defaults []string) {
	existing, err := ws.Watchlist(ctx)
	if err != nil || len(existing) > 0 {
		return
	}
	for _, sym := range defaults {
		if err := ws.AddToWatchlist(ctx, sym); err != nil {
			log.Printf("seeding watchlist symbol %s: %v", sym, err)
		}
	}
}

func loadDirectory(csvPath string, logger *slog.Logger) *symbols.Directory {
	if csvPath == "" {
		return symbols.NewDefault()
	}
	d, err := symbols.LoadCSV(csvPath)
	if err != nil {
		logger.Warn("loading symbols CSV, using built-in list", "path", csvPath, "error", err)
		return symbols.NewDefault()
	}
	return d
}
