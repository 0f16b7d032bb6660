package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/newthinker/orderdesk/internal/core"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig              `mapstructure:"server"`
	Database  DatabaseConfig            `mapstructure:"database"`
	Dashboard DashboardConfig           `mapstructure:"dashboard"`
	Archive   ArchiveConfig             `mapstructure:"archive"`
	QR        QRConfig                  `mapstructure:"qr"`
	Notifiers map[string]NotifierConfig `mapstructure:"notifiers"`
	Metrics   MetricsConfig             `mapstructure:"metrics"`
}

type ServerConfig struct {
	Host             string `mapstructure:"host"`
	Port             int    `mapstructure:"port"`
	CSRFCookieSecure bool   `mapstructure:"csrf_cookie_secure"`
}

type DatabaseConfig struct {
	Driver string `mapstructure:"driver"` // "sqlite" or "memory"
	Path   string `mapstructure:"path"`   // For sqlite
}

// DashboardConfig holds settings for the polling dashboard client.
type DashboardConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	PollInterval   time.Duration `mapstructure:"poll_interval"`
	Filter         string        `mapstructure:"filter"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"` // 0 means no timeout
	SequenceGuard  bool          `mapstructure:"sequence_guard"`
	DedupeMarkDone bool          `mapstructure:"dedupe_mark_done"`
	LogFile        string        `mapstructure:"log_file"`
}

type ArchiveConfig struct {
	Type string   `mapstructure:"type"` // "localfs" or "s3"
	Path string   `mapstructure:"path"` // For localfs
	S3   S3Config `mapstructure:"s3"`   // For S3
}

type S3Config struct {
	Bucket    string `mapstructure:"bucket"`
	Endpoint  string `mapstructure:"endpoint"`
	Region    string `mapstructure:"region"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Prefix    string `mapstructure:"prefix"`
}

// QRConfig holds seat QR code settings.
type QRConfig struct {
	BaseURL string `mapstructure:"base_url"`
}

type NotifierConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
	URL      string `mapstructure:"url"`
	// Webhook notifier fields
	Headers map[string]string `mapstructure:"headers"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// Load reads configuration from file
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	setDefaults(v)

	// Support environment variable overrides
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	// Expand environment variables in string values
	for _, key := range v.AllKeys() {
		val := v.GetString(key)
		if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
			envKey := strings.TrimSuffix(strings.TrimPrefix(val, "${"), "}")
			v.Set(key, os.Getenv(envKey))
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}

// setDefaults mirrors Defaults so a partial file still yields a usable config.
func setDefaults(v *viper.Viper) {
	d := Defaults()
	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("database.driver", d.Database.Driver)
	v.SetDefault("database.path", d.Database.Path)
	v.SetDefault("dashboard.base_url", d.Dashboard.BaseURL)
	v.SetDefault("dashboard.poll_interval", d.Dashboard.PollInterval)
	v.SetDefault("dashboard.filter", d.Dashboard.Filter)
	v.SetDefault("dashboard.log_file", d.Dashboard.LogFile)
	v.SetDefault("archive.type", d.Archive.Type)
	v.SetDefault("archive.path", d.Archive.Path)
	v.SetDefault("qr.base_url", d.QR.BaseURL)
	v.SetDefault("metrics.enabled", d.Metrics.Enabled)
	v.SetDefault("metrics.path", d.Metrics.Path)
}

// Defaults returns a config with sensible defaults
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8000,
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
			Path:   "orderdesk.db",
		},
		Dashboard: DashboardConfig{
			BaseURL:      "http://127.0.0.1:8000",
			PollInterval: 5 * time.Second,
			Filter:       string(core.StatusNew),
			LogFile:      "orderdesk-watch.log",
		},
		Archive: ArchiveConfig{
			Type: "localfs",
			Path: "media",
		},
		QR: QRConfig{
			BaseURL: "http://127.0.0.1:8000",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	// Server validation
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("port must be between 1 and 65535, got %d", c.Server.Port))
	}

	switch c.Database.Driver {
	case "memory":
	case "sqlite":
		if c.Database.Path == "" {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("database path required when driver is sqlite"))
		}
	default:
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("unsupported database driver: %q", c.Database.Driver))
	}

	// Dashboard validation
	if _, err := url.ParseRequestURI(c.Dashboard.BaseURL); err != nil {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("dashboard base_url: %w", err))
	}
	if c.Dashboard.PollInterval <= 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("poll_interval must be positive, got %s", c.Dashboard.PollInterval))
	}
	if c.Dashboard.RequestTimeout < 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("request_timeout cannot be negative, got %s", c.Dashboard.RequestTimeout))
	}
	if _, err := core.ParseStatus(c.Dashboard.Filter); err != nil {
		return core.WrapError(core.ErrConfigInvalid, err)
	}

	// Archive validation
	switch c.Archive.Type {
	case "localfs":
		if c.Archive.Path == "" {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("archive path required when type is localfs"))
		}
	case "s3":
		if c.Archive.S3.Bucket == "" {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("s3 bucket required when archive type is s3"))
		}
	default:
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("unsupported archive type: %q", c.Archive.Type))
	}

	// Notifier validation - only enabled ones need credentials
	for name, n := range c.Notifiers {
		if !n.Enabled {
			continue
		}
		switch name {
		case "webhook":
			if n.URL == "" {
				return core.WrapError(core.ErrConfigMissing,
					fmt.Errorf("webhook url required when webhook notifier is enabled"))
			}
		case "telegram":
			if n.BotToken == "" || n.ChatID == "" {
				return core.WrapError(core.ErrConfigMissing,
					fmt.Errorf("telegram bot_token and chat_id required when telegram notifier is enabled"))
			}
		default:
			return core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("unknown notifier: %s", name))
		}
	}

	return nil
}
