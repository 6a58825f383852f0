package config

import (
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

type Config struct {
	Port                        string        `mapstructure:"PORT"`
	Env                         string        `mapstructure:"ENV"`
	LogLevel                    string        `mapstructure:"LOG_LEVEL"`
	DatabaseURL                 string        `mapstructure:"DATABASE_URL"`
	DBMaxConns                  int32         `mapstructure:"DB_MAX_CONNS"`
	DBMinConns                  int32         `mapstructure:"DB_MIN_CONNS"`
	DefaultHospital             string        `mapstructure:"DEFAULT_HOSPITAL"`
	CORSOrigins                 []string      `mapstructure:"CORS_ORIGINS"`
	AuthIssuer                  string        `mapstructure:"AUTH_ISSUER"`
	AuthAudience                string        `mapstructure:"AUTH_AUDIENCE"`
	AuthSigningKey              string        `mapstructure:"AUTH_SIGNING_KEY"`
	RequestTimeout              time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	RateLimitRPS                float64       `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst              int           `mapstructure:"RATE_LIMIT_BURST"`
	KafkaBrokers                []string      `mapstructure:"KAFKA_BROKERS"`
	KafkaTopic                  string        `mapstructure:"KAFKA_TOPIC"`
	CashBookOpeningBalance      string        `mapstructure:"CASH_BOOK_OPENING_BALANCE"`
	AccountLedgerOpeningBalance string        `mapstructure:"ACCOUNT_LEDGER_OPENING_BALANCE"`
}

var keys = []string{
	"PORT", "ENV", "LOG_LEVEL",
	"DATABASE_URL", "DB_MAX_CONNS", "DB_MIN_CONNS", "DEFAULT_HOSPITAL",
	"CORS_ORIGINS", "AUTH_ISSUER", "AUTH_AUDIENCE", "AUTH_SIGNING_KEY",
	"REQUEST_TIMEOUT", "RATE_LIMIT_RPS", "RATE_LIMIT_BURST",
	"KAFKA_BROKERS", "KAFKA_TOPIC",
	"CASH_BOOK_OPENING_BALANCE", "ACCOUNT_LEDGER_OPENING_BALANCE",
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("DEFAULT_HOSPITAL", "default")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("REQUEST_TIMEOUT", "30s")
	v.SetDefault("RATE_LIMIT_RPS", 20)
	v.SetDefault("RATE_LIMIT_BURST", 40)
	v.SetDefault("KAFKA_TOPIC", "ledger-events")
	v.SetDefault("CASH_BOOK_OPENING_BALANCE", "50000")
	v.SetDefault("ACCOUNT_LEDGER_OPENING_BALANCE", "0")

	// Bind env vars explicitly so Unmarshal picks them up
	for _, k := range keys {
		_ = v.BindEnv(k)
	}

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.CORSOrigins = splitList(cfg.CORSOrigins)
	cfg.KafkaBrokers = splitList(cfg.KafkaBrokers)

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	return cfg, nil
}

// splitList flattens comma-joined entries and drops blanks.
func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// EventsEnabled reports whether ledger events go to Kafka.
func (c *Config) EventsEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

// SigningKey decodes AUTH_SIGNING_KEY. It returns nil when unset.
func (c *Config) SigningKey() ([]byte, error) {
	if c.AuthSigningKey == "" {
		return nil, nil
	}
	key, err := hex.DecodeString(c.AuthSigningKey)
	if err != nil {
		return nil, fmt.Errorf("AUTH_SIGNING_KEY is not valid hex: %w", err)
	}
	return key, nil
}

// OpeningBalances parses the configured cash book and account ledger
// opening balances.
func (c *Config) OpeningBalances() (cashBook, accountLedger decimal.Decimal, err error) {
	cashBook, err = decimal.NewFromString(c.CashBookOpeningBalance)
	if err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("CASH_BOOK_OPENING_BALANCE is not a number: %q", c.CashBookOpeningBalance)
	}
	accountLedger, err = decimal.NewFromString(c.AccountLedgerOpeningBalance)
	if err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("ACCOUNT_LEDGER_OPENING_BALANCE is not a number: %q", c.AccountLedgerOpeningBalance)
	}
	return cashBook, accountLedger, nil
}

// Validate checks that the configuration is safe to run. Outside development
// a signing key is mandatory so that every request is authenticated.
func (c *Config) Validate() error {
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("LOG_LEVEL %q is not a valid level", c.LogLevel)
	}
	key, err := c.SigningKey()
	if err != nil {
		return err
	}
	if !c.IsDev() && len(key) == 0 {
		return fmt.Errorf("AUTH_SIGNING_KEY is required when ENV=%q", c.Env)
	}
	if len(key) > 0 && len(key) < 32 {
		return fmt.Errorf("AUTH_SIGNING_KEY must be at least 32 bytes (64 hex chars), got %d bytes", len(key))
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive, got %s", c.RequestTimeout)
	}
	if c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("DB_MIN_CONNS (%d) exceeds DB_MAX_CONNS (%d)", c.DBMinConns, c.DBMaxConns)
	}
	if c.EventsEnabled() && c.KafkaTopic == "" {
		return fmt.Errorf("KAFKA_TOPIC is required when KAFKA_BROKERS is set")
	}
	if _, _, err := c.OpeningBalances(); err != nil {
		return err
	}
	return nil
}
