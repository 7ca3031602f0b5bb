// Package config loads runtime configuration from a config file and
// environment variables, with environment taking precedence.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds all runtime settings for the server
type Config struct {
	ListenAddr string `mapstructure:"listen_addr"`
	Production bool   `mapstructure:"production"`

	DB        DBConfig        `mapstructure:"db"`
	PriceFeed PriceFeedConfig `mapstructure:"price_feed"`
	Payments  PaymentsConfig  `mapstructure:"payments"`

	// DustThreshold is the quote-currency market value at or below which a
	// position left over after a sell is removed. A negative value disables
	// the cleanup entirely.
	DustThreshold decimal.Decimal `mapstructure:"-"`

	// WalletIDAttempts bounds how many random wallet ids are tried before
	// allocation gives up.
	WalletIDAttempts int `mapstructure:"wallet_id_attempts"`

	// APITokens maps bearer tokens to user ids, as "token=uuid" pairs.
	// Stand-in credential store for development deployments.
	APITokens map[string]string `mapstructure:"api_tokens"`
}

// DBConfig holds PostgreSQL connection settings
type DBConfig struct {
	ConnStr  string `mapstructure:"conn_str"`
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
}

// PriceFeedConfig holds market-data provider settings
type PriceFeedConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// PaymentsConfig holds payment provider settings
type PaymentsConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// DSN returns the PostgreSQL connection string, preferring the explicit
// conn_str and otherwise assembling one from the discrete fields.
func (d DBConfig) DSN() string {
	if d.ConnStr != "" {
		return d.ConnStr
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		d.Host, d.Port, d.User, d.Password, d.Name)
}

// Load reads configuration from config.yaml (if present) and the
// environment. Environment variables use the COINHARBOR_ prefix with
// underscores, e.g. COINHARBOR_DB_HOST.
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("listen_addr", ":8080")
	v.SetDefault("production", false)
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", "5432")
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "postgres")
	v.SetDefault("db.name", "coinharbor")
	v.SetDefault("price_feed.base_url", "http://localhost:9090")
	v.SetDefault("price_feed.timeout", "5s")
	v.SetDefault("payments.base_url", "http://localhost:9091")
	v.SetDefault("payments.timeout", "10s")
	v.SetDefault("dust_threshold", "1")
	v.SetDefault("wallet_id_attempts", 100)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/coinharbor")

	v.SetEnvPrefix("COINHARBOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// Config file is optional; anything else is a real error.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	dust, err := decimal.NewFromString(v.GetString("dust_threshold"))
	if err != nil {
		return nil, fmt.Errorf("invalid dust_threshold %q: %w", v.GetString("dust_threshold"), err)
	}
	cfg.DustThreshold = dust

	return &cfg, nil
}
