package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/Ayuga01/Quantara/internal/logging"
)

// Config materialises application configuration.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Logging  logging.Config `mapstructure:"logging"`
	API      APIConfig      `mapstructure:"api"`
	OAuth    OAuthConfig    `mapstructure:"oauth"`
	Identity IdentityConfig `mapstructure:"identity"`
	Display  DisplayConfig  `mapstructure:"display"`
	Predict  PredictConfig  `mapstructure:"predict"`
	Poller   PollerConfig   `mapstructure:"poller"`
	Database DatabaseConfig `mapstructure:"database"`
	Alerting AlertingConfig `mapstructure:"alerting"`
	Export   ExportConfig   `mapstructure:"export"`
}

// AppConfig general metadata.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

// APIConfig covers forecasting API connectivity.
type APIConfig struct {
	BaseURL         string        `mapstructure:"base_url"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	RequestsPerSec  int           `mapstructure:"requests_per_sec"`
	RetryMaxElapsed time.Duration `mapstructure:"retry_max_elapsed"`
}

// OAuthConfig points at the third-party session provider. Only its
// current-user and logout endpoints are consumed.
type OAuthConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// IdentityConfig locates the persisted identity state.
type IdentityConfig struct {
	StateFile string `mapstructure:"state_file"`
}

// DisplayConfig selects the display currency. The USD to INR rate is a
// fixed configuration constant, not a live FX rate.
type DisplayConfig struct {
	Currency string  `mapstructure:"currency"`
	USDToINR float64 `mapstructure:"usd_inr_rate"`
}

// PredictConfig caps user-entered prediction parameters.
type PredictConfig struct {
	MaxSteps int `mapstructure:"max_steps"`
}

// PollerConfig governs live price refresh cadence.
type PollerConfig struct {
	Interval      time.Duration `mapstructure:"interval"`
	StartupDelay  time.Duration `mapstructure:"startup_delay"`
	HistoryPoints int           `mapstructure:"history_points"`
}

// DatabaseConfig encapsulates optional local PostgreSQL recording.
type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	AdvisoryLockKey int64         `mapstructure:"advisory_lock_key"`
}

// AlertingConfig defines signal alert routing.
type AlertingConfig struct {
	Enabled  bool           `mapstructure:"enabled"`
	Cooldown time.Duration  `mapstructure:"cooldown"`
	Channels []string       `mapstructure:"channels"`
	Telegram TelegramConfig `mapstructure:"telegram"`
}

// TelegramConfig 描述 Telegram 告警参数。
type TelegramConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
	APIBase  string `mapstructure:"api_base"`
}

// ExportConfig sets CLI export behaviour.
type ExportConfig struct {
	MaxDataPoints int `mapstructure:"max_data_points"`
}

// Load builds configuration from file, environment, and defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("QUANTARA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "quantara")
	v.SetDefault("app.environment", "development")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("api.base_url", "http://localhost:8000")
	v.SetDefault("api.request_timeout", "15s")
	v.SetDefault("api.requests_per_sec", 5)
	v.SetDefault("api.retry_max_elapsed", "30s")

	v.SetDefault("oauth.request_timeout", "10s")

	v.SetDefault("display.currency", "USD")
	v.SetDefault("display.usd_inr_rate", 83.0)

	v.SetDefault("predict.max_steps", 100)

	v.SetDefault("poller.interval", "30s")
	v.SetDefault("poller.startup_delay", "0s")
	v.SetDefault("poller.history_points", 192)

	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("database.advisory_lock_key", int64(0x71746172))

	v.SetDefault("alerting.enabled", false)
	v.SetDefault("alerting.cooldown", "30m")
	v.SetDefault("alerting.channels", []string{"telegram"})
	v.SetDefault("alerting.telegram.enabled", false)
	v.SetDefault("alerting.telegram.api_base", "https://api.telegram.org")

	v.SetDefault("export.max_data_points", 100000)
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}

// Validate performs basic sanity checks on the configuration values.
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("api.base_url is required")
	}
	if c.Display.USDToINR <= 0 {
		return fmt.Errorf("display.usd_inr_rate must be greater than zero")
	}
	if cur := strings.ToUpper(c.Display.Currency); cur != "USD" && cur != "INR" {
		return fmt.Errorf("display.currency must be USD or INR")
	}
	if c.Predict.MaxSteps < 1 {
		return fmt.Errorf("predict.max_steps must be at least 1")
	}
	if c.Poller.Interval <= 0 {
		return fmt.Errorf("poller.interval must be greater than zero")
	}
	if c.Export.MaxDataPoints <= 0 {
		return fmt.Errorf("export.max_data_points must be greater than zero")
	}
	if c.Alerting.Telegram.Enabled {
		if c.Alerting.Telegram.BotToken == "" {
			return fmt.Errorf("alerting.telegram.bot_token 必须配置")
		}
		if c.Alerting.Telegram.ChatID == "" {
			return fmt.Errorf("alerting.telegram.chat_id 必须配置")
		}
	}
	return nil
}

// ResolveMaxPoints returns either the CLI override or config default.
func (c *Config) ResolveMaxPoints(override int) int {
	if override > 0 {
		return override
	}
	return c.Export.MaxDataPoints
}

// ResolveStateFile returns the identity state file path, defaulting to the
// user config directory when unset.
func (c *Config) ResolveStateFile() string {
	if c.Identity.StateFile != "" {
		return c.Identity.StateFile
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".", ".quantara-identity.json")
	}
	return filepath.Join(base, "quantara", "identity.json")
}
