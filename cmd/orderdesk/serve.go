package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/newthinker/orderdesk/internal/api"
	"github.com/newthinker/orderdesk/internal/logger"
	"github.com/newthinker/orderdesk/internal/metrics"
	"github.com/newthinker/orderdesk/internal/router"
	"github.com/newthinker/orderdesk/internal/seed"
	"github.com/newthinker/orderdesk/internal/storage/archive"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveSeedFile string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the order backend",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveSeedFile, "seed", "", "apply a seed file before serving")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	log := logger.Must(debug)
	defer log.Sync()

	cfg, err := loadConfig(log)
	if err != nil {
		return err
	}

	store, err := openStore(cfg.Database)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer store.Close()

	if serveSeedFile != "" {
		fixture, err := seed.Load(serveSeedFile)
		if err != nil {
			return err
		}
		if _, err := seed.Apply(cmd.Context(), store, fixture, log); err != nil {
			return fmt.Errorf("seeding: %w", err)
		}
	}

	media, err := archive.New(cfg.Archive)
	if err != nil {
		return fmt.Errorf("opening archive: %w", err)
	}

	notifiers, err := buildNotifiers(cfg.Notifiers, log)
	if err != nil {
		return fmt.Errorf("building notifiers: %w", err)
	}

	deps := api.Dependencies{
		Store: store,
		Media: media,
	}
	srvCfg := api.Config{
		Host:             cfg.Server.Host,
		Port:             cfg.Server.Port,
		CSRFCookieSecure: cfg.Server.CSRFCookieSecure,
	}
	var recorder router.Recorder
	if cfg.Metrics.Enabled {
		deps.Metrics = metrics.NewRegistry()
		srvCfg.MetricsPath = cfg.Metrics.Path
		recorder = deps.Metrics
	}

	ctx, cancelRouting := context.WithCancel(context.Background())
	defer cancelRouting()
	deps.Router = router.New(router.DefaultConfig(), notifiers, recorder, log)
	deps.Router.Start(ctx)

	log.Info("starting order backend",
		zap.String("host", cfg.Server.Host),
		zap.Int("port", cfg.Server.Port),
		zap.String("database", cfg.Database.Driver),
		zap.Strings("notifiers", notifiers.Names()),
	)

	server, err := api.NewServer(srvCfg, deps, log)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	go func() {
		if err := server.Start(); err != nil {
			log.Error("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	err = server.Shutdown(shutdownCtx)
	deps.Router.Stop()
	return err
}
