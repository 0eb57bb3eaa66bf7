// Package config 由環境變數載入服務設定（可選擇先載入 .env 檔）。
package config

import (
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"go.uber.org/zap/zapcore"

	"bankledger/internal/bank"
)

// Config 為服務設定。
type Config struct {
	HTTPAddr        string        `env:"BANK_HTTP_ADDR" envDefault:":8080"`
	DefaultCurrency string        `env:"BANK_DEFAULT_CURRENCY"`
	LogLevel        string        `env:"BANK_LOG_LEVEL" envDefault:"info"`
	WebhookURL      string        `env:"BANK_ONBOARDING_WEBHOOK_URL"`
	WebhookTimeout  time.Duration `env:"BANK_WEBHOOK_TIMEOUT" envDefault:"5s"`
	ShutdownTimeout time.Duration `env:"BANK_SHUTDOWN_TIMEOUT" envDefault:"5s"`
}

// Load 先嘗試載入 dotenvFiles（檔案不存在時略過），再解析環境變數。
func Load(dotenvFiles ...string) (*Config, error) {
	for _, f := range dotenvFiles {
		// .env 可不存在；已存在的環境變數不會被覆寫
		_ = godotenv.Load(f)
	}
	// 未設定 BANK_DEFAULT_CURRENCY 時沿用引擎預設
	cfg := &Config{DefaultCurrency: bank.DefaultCurrency}
	if err := env.Parse(cfg); err != nil {
		return nil, errors.Wrap(err, "parse environment")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate 檢查設定值。
func (c *Config) Validate() error {
	if strings.TrimSpace(c.DefaultCurrency) == "" {
		return errors.New("BANK_DEFAULT_CURRENCY cannot be blank")
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level 解析 LogLevel。
func (c *Config) Level() (zapcore.Level, error) {
	lvl, err := zapcore.ParseLevel(c.LogLevel)
	if err != nil {
		return zapcore.InfoLevel, errors.Wrapf(err, "invalid log level %q", c.LogLevel)
	}
	return lvl, nil
}
