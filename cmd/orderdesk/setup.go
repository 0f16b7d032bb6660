package main

import (
	"fmt"

	"github.com/newthinker/orderdesk/internal/config"
	"github.com/newthinker/orderdesk/internal/core"
	"github.com/newthinker/orderdesk/internal/dashboard"
	"github.com/newthinker/orderdesk/internal/notifier"
	"github.com/newthinker/orderdesk/internal/notifier/telegram"
	"github.com/newthinker/orderdesk/internal/notifier/webhook"
	"github.com/newthinker/orderdesk/internal/storage/order"
	"go.uber.org/zap"
)

// loadConfig reads --config, or the defaults when it is unset, and
// validates the result.
func loadConfig(log *zap.Logger) (*config.Config, error) {
	var cfg *config.Config
	if cfgFile != "" {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
	} else {
		cfg = config.Defaults()
		log.Warn("no config file specified, using defaults")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func openStore(cfg config.DatabaseConfig) (order.Store, error) {
	switch cfg.Driver {
	case "memory":
		return order.NewMemoryStore(), nil
	case "sqlite":
		return order.OpenSQLite(cfg.Path)
	default:
		return nil, core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("unsupported database driver: %q", cfg.Driver))
	}
}

func buildNotifiers(cfgs map[string]config.NotifierConfig, log *zap.Logger) (*notifier.Registry, error) {
	reg := notifier.NewRegistry()
	for name, n := range cfgs {
		if !n.Enabled {
			continue
		}

		var nt notifier.Notifier
		switch name {
		case "webhook":
			nt = webhook.New(n.URL, n.Headers)
		case "telegram":
			nt = telegram.New(n.BotToken, n.ChatID)
		default:
			return nil, core.WrapError(core.ErrConfigInvalid, fmt.Errorf("unknown notifier: %s", name))
		}

		if err := reg.Register(nt); err != nil {
			return nil, err
		}
		log.Info("notifier enabled", zap.String("notifier", name))
	}
	return reg, nil
}

// dashboardOptions maps the dashboard config section onto controller
// options. Alerter, Metrics and OnChange are left to the caller.
func dashboardOptions(cfg config.DashboardConfig) (dashboard.Options, error) {
	filter, err := core.ParseStatus(cfg.Filter)
	if err != nil {
		return dashboard.Options{}, err
	}
	return dashboard.Options{
		Filter:         filter,
		PollInterval:   cfg.PollInterval,
		SequenceGuard:  cfg.SequenceGuard,
		DedupeMarkDone: cfg.DedupeMarkDone,
	}, nil
}

func newDashboardClient(cfg config.DashboardConfig, baseURL string) (*dashboard.Client, error) {
	if baseURL == "" {
		baseURL = cfg.BaseURL
	}
	return dashboard.NewClient(baseURL, dashboard.WithTimeout(cfg.RequestTimeout))
}
