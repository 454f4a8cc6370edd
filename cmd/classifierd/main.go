package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/econindex/classifier/internal/config"
	"github.com/econindex/classifier/internal/metrics"
	"github.com/econindex/classifier/internal/persistence/db"
	"github.com/econindex/classifier/internal/scheduler"
	"github.com/econindex/classifier/internal/service"
	"github.com/econindex/classifier/internal/workflow"
)

const appName = "classifierd"

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	rootCmd := &cobra.Command{
		Use:   appName,
		Short: "Economic indicator classification service",
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP submission endpoint and background cron jobs",
		RunE:  runServe,
	}
	serveCmd.Flags().String("config", "config.yaml", "Path to service config YAML")
	serveCmd.Flags().String("workflow-dir", "./workflow-state", "Directory for durable workflow checkpoints")

	rootCmd.AddCommand(serveCmd)

	if err := rootCmd.Execute(); err != nil {
		log.Fatal().Err(err).Msg("classifierd failed")
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	workflowDir, _ := cmd.Flags().GetString("workflow-dir")

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	dbConfig := db.DefaultConfig()
	dbConfig.DSN = cfg.Database.DSN
	if cfg.Database.QueryTimeoutMS > 0 {
		dbConfig.QueryTimeout = time.Duration(cfg.Database.QueryTimeoutMS) * time.Millisecond
	}
	dbManager, err := db.NewManager(dbConfig)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer dbManager.Close()

	engine, err := workflow.NewFileEngine(workflowDir)
	if err != nil {
		return fmt.Errorf("failed to open workflow engine: %w", err)
	}

	svc := service.New(*cfg, dbManager.Repository(), engine, log.Logger)

	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := svc.RefreshFX(startupCtx); err != nil {
		startupCancel()
		return fmt.Errorf("failed initial FX refresh: %w", err)
	}
	startupCancel()

	registry := prometheus.NewRegistry()
	collector := metrics.NewDispatchCollector(svc.Capability.Dispatcher(), svc.Circuits, svc.Scheduler)
	registry.MustRegister(collector)
	metricsHandler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	router := svc.NewRouter(metricsHandler)

	server := &http.Server{
		Addr:         cfg.Server.ListenAddr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	cron := scheduler.New(log.Logger, 5*time.Minute)
	if err := cron.AddJob(cfg.Server.FXRefreshCron, service.NewFXRefreshJob(svc)); err != nil {
		return fmt.Errorf("failed to register fx-refresh job: %w", err)
	}
	if err := cron.AddJob(cfg.Server.SweepCron, service.NewSweepJob(svc, cfg.Server.SweepLimit)); err != nil {
		return fmt.Errorf("failed to register stage-failed-sweep job: %w", err)
	}
	cron.Start()
	defer cron.Stop()

	serverErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Server.ListenAddr).Msg("classifierd listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		log.Info().Msg("shutdown signal received")
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown error")
		return err
	}

	log.Info().Msg("classifierd shutdown complete")
	return nil
}
