// Package config loads application configuration from file and environment.
package config

import (
	"strings"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Harvest   HarvestConfig   `yaml:"harvest" mapstructure:"harvest"`
	EDGAR     EDGARConfig     `yaml:"edgar" mapstructure:"edgar"`
	Yahoo     YahooConfig     `yaml:"yahoo" mapstructure:"yahoo"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// HarvestConfig configures a harvest run.
type HarvestConfig struct {
	WindowDays  int    `yaml:"window_days" mapstructure:"window_days"`
	Output      string `yaml:"output" mapstructure:"output"`
	Concurrency int    `yaml:"concurrency" mapstructure:"concurrency"`
	MinVolume   int64  `yaml:"min_volume" mapstructure:"min_volume"`
	Summarize   bool   `yaml:"summarize" mapstructure:"summarize"`
}

// EDGARConfig configures SEC endpoints and politeness limits. SEC publishes
// a hard ceiling of 10 requests per second per client; the default sits
// just under it.
type EDGARConfig struct {
	UserAgent      string  `yaml:"user_agent" mapstructure:"user_agent"`
	BaseURL        string  `yaml:"base_url" mapstructure:"base_url"`
	DataBaseURL    string  `yaml:"data_base_url" mapstructure:"data_base_url"`
	RequestsPerSec float64 `yaml:"requests_per_sec" mapstructure:"requests_per_sec"`
	DayConcurrency int     `yaml:"day_concurrency" mapstructure:"day_concurrency"`
}

// YahooConfig holds Yahoo Finance settings.
type YahooConfig struct {
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// AnthropicConfig holds Anthropic API settings for summarization.
type AnthropicConfig struct {
	Key             string `yaml:"key" mapstructure:"key"`
	Model           string `yaml:"model" mapstructure:"model"`
	MaxInputChars   int    `yaml:"max_input_chars" mapstructure:"max_input_chars"`
	MaxSummaryChars int    `yaml:"max_summary_chars" mapstructure:"max_summary_chars"`
}

// StoreConfig configures the local run log database.
type StoreConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	// A local .env is a development convenience; absence is fine.
	_ = godotenv.Load()

	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("EDGAR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("harvest.window_days", 30)
	v.SetDefault("harvest.output", "exhibit_99_1_filings.csv")
	v.SetDefault("harvest.concurrency", 8)
	v.SetDefault("harvest.min_volume", 0)
	v.SetDefault("harvest.summarize", false)
	v.SetDefault("edgar.user_agent", "Sells Advisors blake@sellsadvisors.com")
	v.SetDefault("edgar.base_url", "https://www.sec.gov")
	v.SetDefault("edgar.data_base_url", "https://data.sec.gov")
	v.SetDefault("edgar.requests_per_sec", 9)
	v.SetDefault("edgar.day_concurrency", 3)
	v.SetDefault("yahoo.base_url", "https://query1.finance.yahoo.com")
	// No default value; registering the key is what lets AutomaticEnv pick
	// up EDGAR_ANTHROPIC_KEY without a config file.
	v.SetDefault("anthropic.key", "")
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.max_input_chars", 12000)
	v.SetDefault("anthropic.max_summary_chars", 500)
	v.SetDefault("store.path", "harvest_runs.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings a harvest run depends on. All problems are
// reported at once.
func (c *Config) Validate() error {
	var problems []string
	if c.EDGAR.UserAgent == "" {
		problems = append(problems, "edgar.user_agent is required (SEC rejects anonymous clients)")
	}
	if c.Harvest.WindowDays <= 0 {
		problems = append(problems, "harvest.window_days must be positive")
	}
	if c.Harvest.Concurrency <= 0 {
		problems = append(problems, "harvest.concurrency must be positive")
	}
	if c.EDGAR.RequestsPerSec <= 0 || c.EDGAR.RequestsPerSec > 10 {
		problems = append(problems, "edgar.requests_per_sec must be in (0, 10]")
	}
	if c.Harvest.Summarize && c.Anthropic.Key == "" {
		problems = append(problems, "anthropic.key is required when harvest.summarize is enabled")
	}
	if len(problems) > 0 {
		return eris.New("config: " + strings.Join(problems, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
