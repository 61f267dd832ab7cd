package config

import (
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// ---------------------------------------------------------------------------
// Configuration structs
// ---------------------------------------------------------------------------

// Config is the top-level configuration for the stockboard service.
type Config struct {
	Storage   Storage       `yaml:"storage"`
	Server    Server        `yaml:"server"`
	Alpaca    Alpaca        `yaml:"alpaca"`
	Logging   Logging       `yaml:"logging"`
	Refresh   RefreshConfig `yaml:"refresh"`
	Watchlist Watchlist     `yaml:"watchlist"`
	Symbols   Symbols       `yaml:"symbols"`
}

// Storage holds paths for data persistence.
type Storage struct {
	SQLitePath string `yaml:"sqlite_path"`
	ArchiveDir string `yaml:"archive_dir"`
}

// Server holds network listener configuration.
type Server struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Alpaca holds credentials and endpoints for the Alpaca market data API.
type Alpaca struct {
	APIKey    string `yaml:"api_key"`
	APISecret string `yaml:"api_secret"`
	BaseURL   string `yaml:"base_url"`
	DataURL   string `yaml:"data_url"`
}

// Logging configures the application logger.
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// RefreshConfig controls history fetching and caching behaviour.
type RefreshConfig struct {
	Days                int `yaml:"days"`
	FetchBuffer         int `yaml:"fetch_buffer"`
	ProviderTimeoutSecs int `yaml:"provider_timeout_secs"`
	RateLimitPerMin     int `yaml:"rate_limit_per_min"`
	MaxWorkers          int `yaml:"max_workers"`
	CacheTTLSecs        int `yaml:"cache_ttl_secs"`
}

// Watchlist holds the symbols seeded on first startup.
type Watchlist struct {
	Default []string `yaml:"default"`
}

// Symbols configures the symbol directory.
type Symbols struct {
	CSVPath string `yaml:"csv_path"`
}

// Default returns a Config with working defaults for local use.
func Default() *Config {
	return &Config{
		Storage: Storage{
			SQLitePath: "data/stockboard.db",
			ArchiveDir: "data/archive",
		},
		Server: Server{
			Host: "127.0.0.1",
			Port: 8080,
		},
		Logging: Logging{
			Level:  "info",
			Format: "json",
		},
		Refresh: RefreshConfig{
			Days:                30,
			FetchBuffer:         15,
			ProviderTimeoutSecs: 10,
			RateLimitPerMin:     200,
			MaxWorkers:          4,
			CacheTTLSecs:        60,
		},
		Watchlist: Watchlist{
			Default: []string{"AAPL", "MSFT", "GOOGL", "AMZN", "NVDA"},
		},
	}
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Load reads the YAML configuration file at the given path on top of the
// defaults, then applies environment variable overrides. A missing file is
// not an error; defaults plus env vars apply.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// fall through to env overrides
	case err != nil:
		return nil, err
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)

	return cfg, nil
}

// applyEnvOverrides checks well-known environment variables and overrides the
// corresponding configuration fields when they are set.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Storage.SQLitePath = v
	}
	if v := os.Getenv("ARCHIVE_DIR"); v != "" {
		cfg.Storage.ArchiveDir = v
	}

	if v := os.Getenv("SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}

	if v := os.Getenv("ALPACA_API_KEY"); v != "" {
		cfg.Alpaca.APIKey = v
	}
	if v := os.Getenv("ALPACA_API_SECRET"); v != "" {
		cfg.Alpaca.APISecret = v
	}
	if v := os.Getenv("ALPACA_BASE_URL"); v != "" {
		cfg.Alpaca.BaseURL = v
	}
	if v := os.Getenv("ALPACA_DATA_URL"); v != "" {
		cfg.Alpaca.DataURL = v
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	if v := os.Getenv("SYMBOLS_CSV"); v != "" {
		cfg.Symbols.CSVPath = v
	}

	// Standard Alpaca env vars (highest priority — canonical names used by SDK).
	if v := os.Getenv("APCA_API_KEY_ID"); v != "" {
		cfg.Alpaca.APIKey = v
	}
	if v := os.Getenv("APCA_API_SECRET_KEY"); v != "" {
		cfg.Alpaca.APISecret = v
	}
}
