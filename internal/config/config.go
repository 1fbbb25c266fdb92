package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Port        string `mapstructure:"PORT"`
	Env         string `mapstructure:"ENV"`
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	DBMaxConns  int32  `mapstructure:"DB_MAX_CONNS"`
	DBMinConns  int32  `mapstructure:"DB_MIN_CONNS"`

	// Validation rule toggles for the reconciliation report.
	RequireAuthorization bool `mapstructure:"REQUIRE_AUTHORIZATION"`
	AllowZeroFee         bool `mapstructure:"ALLOW_ZERO_FEE"`
	CompanionFormEnabled bool `mapstructure:"COMPANION_FORM_ENABLED"`

	// Report presentation defaults.
	CurrencySymbol string `mapstructure:"CURRENCY_SYMBOL"`
	DateFormat     string `mapstructure:"DATE_FORMAT"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("DB_MIN_CONNS", 2)
	v.SetDefault("REQUIRE_AUTHORIZATION", true)
	v.SetDefault("ALLOW_ZERO_FEE", false)
	v.SetDefault("COMPANION_FORM_ENABLED", false)
	v.SetDefault("CURRENCY_SYMBOL", "$")
	v.SetDefault("DATE_FORMAT", "2006-01-02")

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("DB_MAX_CONNS")
	v.BindEnv("DB_MIN_CONNS")
	v.BindEnv("REQUIRE_AUTHORIZATION")
	v.BindEnv("ALLOW_ZERO_FEE")
	v.BindEnv("COMPANION_FORM_ENABLED")
	v.BindEnv("CURRENCY_SYMBOL")
	v.BindEnv("DATE_FORMAT")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the service is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate checks that the configuration is safe to run.
func (c *Config) Validate() error {
	if c.DBMaxConns < c.DBMinConns {
		return fmt.Errorf("DB_MAX_CONNS (%d) must be >= DB_MIN_CONNS (%d)", c.DBMaxConns, c.DBMinConns)
	}
	if strings.TrimSpace(c.DateFormat) == "" {
		return fmt.Errorf("DATE_FORMAT must not be empty")
	}
	return nil
}
