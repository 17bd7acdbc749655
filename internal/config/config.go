// Package config loads runtime settings from a .env file, the environment and
// an optional config file.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/projeto-sistema-financas-pessoais/financas-pessoais-backand/internal/logger"
	"github.com/projeto-sistema-financas-pessoais/financas-pessoais-backand/internal/plan"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// LedgerConfig holds the tunable constants of installment and recurrence
// expansion.
type LedgerConfig struct {
	AnnualOccurrences    int `mapstructure:"ledger_annual_occurrences"`
	RecurringOccurrences int `mapstructure:"ledger_recurring_occurrences"`
	BiweeklyDays         int `mapstructure:"ledger_biweekly_days"`
	MaxInstallments      int `mapstructure:"ledger_max_installments"`
}

// Config holds application configuration
type Config struct {
	Env      string `mapstructure:"env"`
	LogLevel string `mapstructure:"log_level"`

	// Server
	Port string `mapstructure:"port"`

	// Database
	DBHost     string `mapstructure:"db_host"`
	DBPort     string `mapstructure:"db_port"`
	DBUser     string `mapstructure:"db_user"`
	DBPassword string `mapstructure:"db_password"`
	DBName     string `mapstructure:"db_name"`
	DBSSLMode  string `mapstructure:"db_sslmode"`

	// JWT
	JWTSecret        string        `mapstructure:"jwt_secret"`
	JWTExpirationDur time.Duration `mapstructure:"jwt_expires_in"`

	// Events; publishing is disabled when AMQPURL is empty.
	AMQPURL      string `mapstructure:"amqp_url"`
	AMQPExchange string `mapstructure:"amqp_exchange"`

	SweepInterval time.Duration `mapstructure:"sweep_interval"`

	// OperatorAPIKey guards the operator endpoints; they are disabled when empty.
	OperatorAPIKey string `mapstructure:"operator_api_key"`

	Ledger LedgerConfig `mapstructure:",squash"`
}

var appConfig *Config

var defaults = map[string]interface{}{
	"env":                          "development",
	"log_level":                    "",
	"port":                         "8080",
	"db_host":                      "localhost",
	"db_port":                      "5432",
	"db_user":                      "financas",
	"db_password":                  "financas",
	"db_name":                      "financas",
	"db_sslmode":                   "disable",
	"jwt_secret":                   "fallback-secret-key-for-dev-only",
	"jwt_expires_in":               "24h",
	"amqp_url":                     "",
	"amqp_exchange":                "ledger",
	"sweep_interval":               "1h",
	"operator_api_key":             "",
	"ledger_annual_occurrences":    4,
	"ledger_recurring_occurrences": 24,
	"ledger_biweekly_days":         15,
	"ledger_max_installments":      120,
}

// Load reads .env (when present), then the environment, then the file named
// by CONFIG_FILE (when set). Environment variables win over the file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Get().Debug(".env file not found, using environment only")
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file := os.Getenv("CONFIG_FILE"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", file, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	appConfig = &cfg
	return &cfg, nil
}

// Validate rejects settings the ledger cannot run with.
func (c *Config) Validate() error {
	if c.Ledger.AnnualOccurrences < 1 || c.Ledger.RecurringOccurrences < 1 {
		return fmt.Errorf("recurring occurrence counts must be positive")
	}
	if c.Ledger.BiweeklyDays < 1 {
		return fmt.Errorf("ledger_biweekly_days must be positive")
	}
	if c.Ledger.MaxInstallments < 1 {
		return fmt.Errorf("ledger_max_installments must be positive")
	}
	if c.SweepInterval <= 0 {
		return fmt.Errorf("sweep_interval must be positive")
	}
	return nil
}

// LedgerPolicy returns the plan expansion policy built from the settings.
func (c *Config) LedgerPolicy() plan.Policy {
	return plan.Policy{
		AnnualOccurrences:    c.Ledger.AnnualOccurrences,
		RecurringOccurrences: c.Ledger.RecurringOccurrences,
		BiweeklyDays:         c.Ledger.BiweeklyDays,
		MaxInstallments:      c.Ledger.MaxInstallments,
	}
}

// Get returns the application configuration
func Get() *Config {
	if appConfig == nil {
		var err error
		appConfig, err = Load()
		if err != nil {
			logger.Get().Fatalf("Failed to load configuration: %v", err)
		}
	}
	return appConfig
}
