package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/bellapacxx/bingo-engine/utils/logger"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

// App is the process configuration, read from the environment (and .env when present).
type App struct {
	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`
	Port        string `envconfig:"PORT" default:"4000"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	// Number caller cadence; 0 leaves sessions in manual-call mode.
	CallInterval     time.Duration `envconfig:"CALL_INTERVAL" default:"3500ms"`
	AutoResumeDelay  time.Duration `envconfig:"AUTO_RESUME_DELAY" default:"0s"`
	// How long a completed session stays in memory for late readers.
	SessionRetention time.Duration `envconfig:"SESSION_RETENTION" default:"30m"`

	DefaultProfitMargin string `envconfig:"DEFAULT_PROFIT_MARGIN" default:"0.20"`
	DefaultCommission   string `envconfig:"DEFAULT_COMMISSION" default:"0.15"`
	DefaultReferral     string `envconfig:"DEFAULT_REFERRAL" default:"0"`

	LedgerRetryBase time.Duration `envconfig:"LEDGER_RETRY_BASE" default:"500ms"`
	LedgerRetryMax  time.Duration `envconfig:"LEDGER_RETRY_MAX" default:"30s"`

	RabbitURL      string `envconfig:"RABBIT_URL"`
	RabbitExchange string `envconfig:"RABBIT_EXCHANGE" default:"bingo.events"`

	CORSOrigins    string `envconfig:"CORS_ORIGINS" default:"http://localhost:3000"`
	RateLimitRPS   int    `envconfig:"RATE_LIMIT_RPS" default:"20"`
	RateLimitBurst int    `envconfig:"RATE_LIMIT_BURST" default:"40"`
}

// Load reads .env (if any) and then the environment into App.
func Load() (App, error) {
	if err := godotenv.Load(); err != nil {
		logger.Info("[INFO] No .env file found, reading environment variables")
	}

	var c App
	if err := envconfig.Process("", &c); err != nil {
		return c, err
	}
	if _, _, _, err := c.DefaultRates(); err != nil {
		return c, err
	}
	return c, nil
}

// DefaultRates parses the fallback profit split fractions.
func (c App) DefaultRates() (margin, commission, referral decimal.Decimal, err error) {
	if margin, err = decimal.NewFromString(c.DefaultProfitMargin); err != nil {
		return margin, commission, referral, fmt.Errorf("DEFAULT_PROFIT_MARGIN: %w", err)
	}
	if commission, err = decimal.NewFromString(c.DefaultCommission); err != nil {
		return margin, commission, referral, fmt.Errorf("DEFAULT_COMMISSION: %w", err)
	}
	if referral, err = decimal.NewFromString(c.DefaultReferral); err != nil {
		return margin, commission, referral, fmt.Errorf("DEFAULT_REFERRAL: %w", err)
	}
	return margin, commission, referral, nil
}

// Origins splits CORS_ORIGINS on commas.
func (c App) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
