package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/parcelgrid/shipping/internal/server"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var version = "0.1.0"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "shipping",
	Short:   "Parcelgrid Shipping - multi-carrier rate aggregation and tracking service",
	Version: version,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the shipping HTTP server and tracking poller",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger, err := initLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	tracerShutdown, err := initTracer(ctx, cfg)
	if err != nil {
		logger.Warn("Failed to initialize tracer", zap.Error(err))
	} else {
		defer tracerShutdown(ctx)
	}

	store := initCacheStore(cfg, logger)
	if store != nil {
		defer store.Close()
	}

	registry := initCarrierRegistry(cfg, logger)
	aggregator, issuer, tracker := initServices(cfg, registry, store, logger)

	poller := initPoller(cfg, tracker, logger)
	if err := poller.Start(ctx); err != nil {
		return err
	}
	defer poller.Stop()

	logger.Info("Starting Parcelgrid Shipping",
		zap.Int("port", cfg.Port),
		zap.String("version", cfg.Version),
		zap.Strings("carriers", registry.Names()),
		zap.Bool("cache", store != nil),
	)

	srv := server.New(server.Config{Port: cfg.Port}, registry, aggregator, issuer, tracker, logger)
	if err := srv.Run(ctx); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}
