// Package config loads application configuration and initialises the
// global logger.
package config

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/ajitpratap0/tradefolio/internal/repository"
	"github.com/ajitpratap0/tradefolio/internal/strategy"
)

// Config holds all application configuration.
type Config struct {
	App       AppConfig              `mapstructure:"app"`
	Redis     repository.RedisConfig `mapstructure:"redis"`
	Portfolio PortfolioConfig        `mapstructure:"portfolio"`
	Strategy  StrategyConfig         `mapstructure:"strategy"`
	Execution ExecutionConfig        `mapstructure:"execution"`
}

// AppConfig contains application-level settings.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"` // development, staging, production
	LogLevel    string `mapstructure:"log_level"`
	LogFormat   string `mapstructure:"log_format"` // "json" or "console"
}

// MarketConfig names one market the portfolio tracks.
type MarketConfig struct {
	Exchange string `mapstructure:"exchange"`
	Base     string `mapstructure:"base"`
	Quote    string `mapstructure:"quote"`
}

// PortfolioConfig contains portfolio settings.
type PortfolioConfig struct {
	// Repository backend: "memory" or "redis".
	Repository string `mapstructure:"repository"`
	// StartingCash the portfolio bootstraps with.
	StartingCash float64 `mapstructure:"starting_cash"`
	// DefaultOrderValue sizes entries in quote currency.
	DefaultOrderValue float64        `mapstructure:"default_order_value"`
	Markets           []MarketConfig `mapstructure:"markets"`
}

// StrategyConfig contains signal generation settings.
type StrategyConfig struct {
	RSI strategy.RSIConfig `mapstructure:"rsi"`
}

// ExecutionConfig contains the simulated execution fee model.
type ExecutionConfig struct {
	ExchangeFeeRate float64 `mapstructure:"exchange_fee_rate"`
	SlippageRate    float64 `mapstructure:"slippage_rate"`
	NetworkFeeRate  float64 `mapstructure:"network_fee_rate"`
}

// Load loads configuration from file and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	v.AutomaticEnv()
	v.SetEnvPrefix("TRADEFOLIO")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found; defaults and environment apply.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks configuration invariants that would otherwise
// surface as silent misbehaviour at runtime.
func (c *Config) Validate() error {
	if c.Portfolio.Repository != "memory" && c.Portfolio.Repository != "redis" {
		return fmt.Errorf("portfolio.repository must be \"memory\" or \"redis\", got %q", c.Portfolio.Repository)
	}
	if c.Portfolio.StartingCash < 0 {
		return fmt.Errorf("portfolio.starting_cash must be non-negative, got %f", c.Portfolio.StartingCash)
	}
	if c.Portfolio.DefaultOrderValue <= 0 {
		return fmt.Errorf("portfolio.default_order_value must be positive, got %f", c.Portfolio.DefaultOrderValue)
	}
	for i, m := range c.Portfolio.Markets {
		if m.Exchange == "" || m.Base == "" || m.Quote == "" {
			return fmt.Errorf("portfolio.markets[%d] incomplete: exchange, base and quote are required", i)
		}
	}
	return nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "tradefolio")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.log_format", "console")

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.op_timeout", "2s")

	v.SetDefault("portfolio.repository", "memory")
	v.SetDefault("portfolio.starting_cash", 10000.0)
	v.SetDefault("portfolio.default_order_value", 1000.0)

	v.SetDefault("strategy.rsi.period", 14)
	v.SetDefault("strategy.rsi.oversold_threshold", 40.0)
	v.SetDefault("strategy.rsi.overbought_threshold", 60.0)

	v.SetDefault("execution.exchange_fee_rate", 0.001)
	v.SetDefault("execution.slippage_rate", 0.0005)
	v.SetDefault("execution.network_fee_rate", 0.0)
}
