package configloader

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ServerConfig holds settings for the REST API consumed by the UI.
type ServerConfig struct {
	Enabled bool   `yaml:"enabled" env:"SERVER_ENABLED"`
	Port    string `yaml:"port" env:"SERVER_PORT"`

	// SwaggerSpecPath is served under /docs/swagger.yaml with a UI at /swagger/. Empty disables both.
	SwaggerSpecPath string `yaml:"swaggerSpecPath"`
}

// LoggingConfig holds logging-specific configurations.
type LoggingConfig struct {
	Level string `yaml:"level" env:"LOG_LEVEL"`
}

// CoinGeckoConfig holds CoinGecko API specific configurations.
type CoinGeckoConfig struct {
	BaseURL               string `yaml:"baseURL" env:"COINGECKO_BASE_URL"`
	APIKey                string `yaml:"apiKey" env:"COINGECKO_API_KEY"`
	RequestTimeoutMillis  int64  `yaml:"requestTimeoutMillis"`
	MaxIDsPerRequest      int    `yaml:"maxIdsPerRequest"`
	OHLCDays              int    `yaml:"ohlcDays"`
	SearchCacheTTLMinutes int    `yaml:"searchCacheTTLMinutes"`
	// RequestsPerMinute enables a client-side limiter when positive.
	RequestsPerMinute int `yaml:"requestsPerMinute" env:"COINGECKO_REQUESTS_PER_MINUTE"`
}

// RefreshConfig holds the auto refresh policy and the foreground tick rate.
type RefreshConfig struct {
	IntervalSeconds   int  `yaml:"intervalSeconds" env:"REFRESH_INTERVAL_SECONDS"`
	TickMillis        int  `yaml:"tickMillis"`
	PauseWhileEditing bool `yaml:"pauseWhileEditing"`
}

// AnalysisConfig lists the moving average periods drawn over a coin's history.
type AnalysisConfig struct {
	SMAPeriods []int `yaml:"smaPeriods"`
}

// StorageConfig selects where the catalog and the ledger are persisted.
type StorageConfig struct {
	Driver     string `yaml:"driver" env:"STORAGE_DRIVER"` // "json" or "sqlite"
	DataDir    string `yaml:"dataDir" env:"STORAGE_DATA_DIR"`
	SQLitePath string `yaml:"sqlitePath" env:"STORAGE_SQLITE_PATH"`
}

// Config is the top-level configuration structure.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Logging   LoggingConfig   `yaml:"logging"`
	CoinGecko CoinGeckoConfig `yaml:"coingecko"`
	Refresh   RefreshConfig   `yaml:"refresh"`
	Analysis  AnalysisConfig  `yaml:"analysis"`
	Storage   StorageConfig   `yaml:"storage"`
}

const (
	StorageDriverJSON   = "json"
	StorageDriverSQLite = "sqlite"
)

// RequestTimeout returns the per request timeout as a duration.
func (c CoinGeckoConfig) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutMillis) * time.Millisecond
}

// SearchCacheTTL returns how long search results stay cached.
func (c CoinGeckoConfig) SearchCacheTTL() time.Duration {
	return time.Duration(c.SearchCacheTTLMinutes) * time.Minute
}

// Interval returns the auto refresh interval.
func (c RefreshConfig) Interval() time.Duration {
	return time.Duration(c.IntervalSeconds) * time.Second
}

// Tick returns the foreground loop period.
func (c RefreshConfig) Tick() time.Duration {
	return time.Duration(c.TickMillis) * time.Millisecond
}

// Load reads the YAML configuration file from the given path, applies .env and
// environment overrides, then fills in defaults. A missing file is not an
// error: the defaults alone describe a working setup.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config data from %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	// .env is optional; values already in the environment win.
	_ = godotenv.Load()
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment overrides: %w", err)
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns a configuration made only of defaults.
func Default() *Config {
	var cfg Config
	applyDefaults(&cfg)
	return &cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == "" {
		cfg.Server.Port = "8080"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}

	if cfg.CoinGecko.BaseURL == "" {
		cfg.CoinGecko.BaseURL = "https://api.coingecko.com/api/v3" // Default public API
	}
	if cfg.CoinGecko.RequestTimeoutMillis <= 0 {
		cfg.CoinGecko.RequestTimeoutMillis = 10000
	}
	if cfg.CoinGecko.MaxIDsPerRequest <= 0 {
		cfg.CoinGecko.MaxIDsPerRequest = 50
	}
	if cfg.CoinGecko.OHLCDays <= 0 {
		cfg.CoinGecko.OHLCDays = 1
	}
	if cfg.CoinGecko.SearchCacheTTLMinutes <= 0 {
		cfg.CoinGecko.SearchCacheTTLMinutes = 10
	}

	if cfg.Refresh.IntervalSeconds <= 0 {
		cfg.Refresh.IntervalSeconds = 60
	}
	if cfg.Refresh.TickMillis <= 0 {
		cfg.Refresh.TickMillis = 100
	}

	if len(cfg.Analysis.SMAPeriods) == 0 {
		cfg.Analysis.SMAPeriods = []int{20, 50}
	}

	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = StorageDriverJSON
	}
	if cfg.Storage.DataDir == "" {
		cfg.Storage.DataDir = "."
	}
	if cfg.Storage.SQLitePath == "" {
		cfg.Storage.SQLitePath = "crypto_tracker.db"
	}
}

// Validate rejects settings the application cannot run with.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case StorageDriverJSON, StorageDriverSQLite:
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	for _, p := range c.Analysis.SMAPeriods {
		if p <= 0 {
			return fmt.Errorf("sma period must be positive, got %d", p)
		}
	}
	return nil
}
