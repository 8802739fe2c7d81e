package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/sharavanan171081/AI-Stock-App/internal/model"
)

// DefaultSymbols are the NSE large caps tracked when SYMBOLS is unset.
var DefaultSymbols = []string{
	"TCS", "HDFCBANK", "INFY", "RELIANCE", "ICICIBANK", "SBIN",
	"AXISBANK", "KOTAKBANK", "LT", "ITC", "HINDUNILVR", "BAJFINANCE",
	"ASIANPAINT", "MARUTI", "SUNPHARMA", "TECHM", "ULTRACEMCO",
	"BHARTIARTL", "POWERGRID", "NESTLEIND",
}

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// Universe
	Symbols      string `envconfig:"SYMBOLS"`
	SymbolSuffix string `envconfig:"SYMBOL_SUFFIX" default:".NS"`
	HistoryYears int    `envconfig:"HISTORY_YEARS" default:"20" validate:"min=1,max=40"`

	// Infrastructure
	SQLitePath    string `envconfig:"SQLITE_PATH" default:"data/signals.db" validate:"required"`
	RedisAddr     string `envconfig:"REDIS_ADDR"` // empty disables Redis
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0" validate:"min=0,max=15"`
	MetricsAddr   string `envconfig:"METRICS_ADDR" default:":9090"`
	DashboardAddr string `envconfig:"DASHBOARD_ADDR" default:":8080" validate:"required"`
	Workers       int    `envconfig:"WORKERS" default:"4" validate:"min=1,max=64"`

	// Backtest
	StopMult     float64 `envconfig:"STOP_MULT" default:"2" validate:"gt=0"`
	TPMult       float64 `envconfig:"TP_MULT" default:"3" validate:"gt=0"`
	LookbackDays int     `envconfig:"LOOKBACK_DAYS" default:"365" validate:"min=100,max=5000"`

	// Notifications
	WebhookURL       string `envconfig:"WEBHOOK_URL" validate:"omitempty,url"`
	TelegramBotToken string `envconfig:"TELEGRAM_BOT_TOKEN" validate:"required_with=TelegramChatID"`
	TelegramChatID   string `envconfig:"TELEGRAM_CHAT_ID" validate:"required_with=TelegramBotToken"`

	// Scheduling
	RunAfterClose time.Duration `envconfig:"RUN_AFTER_CLOSE" default:"45m"`

	LogLevel string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn warning error"`
}

var validate = validator.New()

// Load reads .env (if present) and the environment, applies defaults and validates.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv()
}

// FromEnv parses the current environment without touching .env.
func FromEnv() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if len(cfg.Instruments()) == 0 {
		return nil, errors.New("invalid config: SYMBOLS has no usable symbols")
	}
	return &cfg, nil
}

// RedisEnabled reports whether a Redis address is configured.
func (c *Config) RedisEnabled() bool {
	return c.RedisAddr != ""
}

// Instruments returns the configured universe, or DefaultSymbols when SYMBOLS is empty.
func (c *Config) Instruments() []model.Instrument {
	symbols := ParseSymbols(c.Symbols)
	if strings.TrimSpace(c.Symbols) == "" {
		symbols = DefaultSymbols
	}
	out := make([]model.Instrument, 0, len(symbols))
	for _, s := range symbols {
		out = append(out, model.NewInstrument(s, c.SymbolSuffix))
	}
	return out
}

// ParseSymbols splits a comma-separated symbol list, upper-cases entries,
// strips a trailing ".NS" and drops blanks and duplicates.
func ParseSymbols(s string) []string {
	parts := strings.Split(s, ",")
	seen := make(map[string]bool, len(parts))
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.ToUpper(strings.TrimSpace(p))
		p = strings.TrimSuffix(p, ".NS")
		if p == "" {
			continue
		}
		if strings.ContainsAny(p, " \t/") {
			log.Printf("[config] skipping invalid symbol: %q", p)
			continue
		}
		if seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}
