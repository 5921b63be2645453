package store

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/gabrielschull/TraderML/internal/strategy"
)

// Config is the process configuration loaded at startup. Strategy holds
// the initial parameter set; the control API can patch it afterwards.
type Config struct {
	Mode       string `yaml:"mode"`        // SERVER or LIVE
	ListenAddr string `yaml:"listen_addr"` // control API bind address
	CronSpec   string `yaml:"cron_spec"`   // live iteration schedule

	IterationTimeoutSeconds int `yaml:"iteration_timeout_seconds"`
	LogRetentionDays        int `yaml:"log_retention_days"`

	Alpaca struct {
		BaseURL   string `yaml:"base_url"`
		KeyEnv    string `yaml:"key_env"`
		SecretEnv string `yaml:"secret_env"`
	} `yaml:"alpaca"`

	Classifier struct {
		Provider       string `yaml:"provider"` // finbert or lexicon
		BaseURL        string `yaml:"base_url"`
		Model          string `yaml:"model"`
		TokenEnv       string `yaml:"token_env"`
		TimeoutSeconds int    `yaml:"timeout_seconds"`
		CacheTTLMin    int    `yaml:"cache_ttl_minutes"`
	} `yaml:"classifier"`

	Backtest struct {
		InitialEquity float64 `yaml:"initial_equity"`
	} `yaml:"backtest"`

	Strategy strategy.Params `yaml:"strategy"`

	// StrategySet reports whether the config file carried a strategy
	// section, so a server-mode process can start unconfigured.
	StrategySet bool `yaml:"-"`
}

func (c *Config) Validate() error {
	if c.Mode != "SERVER" && c.Mode != "LIVE" {
		return fmt.Errorf("invalid mode '%s': must be 'SERVER' or 'LIVE'", c.Mode)
	}
	switch c.Classifier.Provider {
	case "finbert", "lexicon":
	default:
		return fmt.Errorf("classifier.provider must be 'finbert' or 'lexicon', got '%s'", c.Classifier.Provider)
	}
	if c.Mode == "LIVE" && c.CronSpec == "" {
		return fmt.Errorf("cron_spec is required in LIVE mode")
	}
	if c.StrategySet {
		if err := c.Strategy.Validate(); err != nil {
			return fmt.Errorf("strategy section: %w", err)
		}
	}
	return nil
}

// AlpacaKey resolves the API key from the configured env var.
func (c *Config) AlpacaKey() string {
	return os.Getenv(envOr(c.Alpaca.KeyEnv, "ALPACA_API_KEY"))
}

// AlpacaSecret resolves the API secret from the configured env var.
func (c *Config) AlpacaSecret() string {
	return os.Getenv(envOr(c.Alpaca.SecretEnv, "ALPACA_API_SECRET"))
}

// ClassifierToken resolves the inference API token from the configured
// env var.
func (c *Config) ClassifierToken() string {
	return os.Getenv(envOr(c.Classifier.TokenEnv, "HF_API_TOKEN"))
}

// IterationTimeout returns the per-iteration deadline.
func (c *Config) IterationTimeout() time.Duration {
	return time.Duration(c.IterationTimeoutSeconds) * time.Second
}

// ClassifierTimeout returns the inference request deadline.
func (c *Config) ClassifierTimeout() time.Duration {
	return time.Duration(c.Classifier.TimeoutSeconds) * time.Second
}

// ClassifierCacheTTL returns how long classified signals stay cached.
func (c *Config) ClassifierCacheTTL() time.Duration {
	return time.Duration(c.Classifier.CacheTTLMin) * time.Minute
}

func envOr(name, fallback string) string {
	if name != "" {
		return name
	}
	return fallback
}

// LoadConfig reads and validates the YAML config at path. Environment
// variables override the file: TRADER_MODE, TRADER_LISTEN_ADDR,
// TRADER_CRON_SPEC, ALPACA_BASE_URL.
func LoadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Detect whether a strategy section exists before the typed decode,
	// so absent means "start unconfigured" rather than zero values.
	var probe struct {
		Strategy *yaml.Node `yaml:"strategy"`
	}
	if err := yaml.Unmarshal(b, &probe); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	c := Config{Strategy: strategy.Defaults()}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	c.StrategySet = probe.Strategy != nil

	if c.Mode == "" {
		c.Mode = "SERVER"
	}
	if c.ListenAddr == "" {
		c.ListenAddr = ":8000"
	}
	if c.IterationTimeoutSeconds == 0 {
		c.IterationTimeoutSeconds = 60
	}
	if c.LogRetentionDays == 0 {
		c.LogRetentionDays = 30
	}
	if c.Alpaca.BaseURL == "" {
		c.Alpaca.BaseURL = "https://paper-api.alpaca.markets"
	}
	if c.Classifier.Provider == "" {
		c.Classifier.Provider = "lexicon"
	}
	if c.Classifier.TimeoutSeconds == 0 {
		c.Classifier.TimeoutSeconds = 15
	}
	if c.Classifier.CacheTTLMin == 0 {
		c.Classifier.CacheTTLMin = 30
	}
	if c.Backtest.InitialEquity == 0 {
		c.Backtest.InitialEquity = 100000
	}

	if v := os.Getenv("TRADER_MODE"); v != "" {
		c.Mode = v
	}
	if v := os.Getenv("TRADER_LISTEN_ADDR"); v != "" {
		c.ListenAddr = v
	}
	if v := os.Getenv("TRADER_CRON_SPEC"); v != "" {
		c.CronSpec = v
	}
	if v := os.Getenv("ALPACA_BASE_URL"); v != "" {
		c.Alpaca.BaseURL = v
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &c, nil
}
