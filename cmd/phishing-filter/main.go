package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/phishguard/phishing-filter/internal/config"
	"github.com/phishguard/phishing-filter/internal/core"
	"github.com/phishguard/phishing-filter/internal/detector"
	"github.com/phishguard/phishing-filter/internal/di"
	"github.com/phishguard/phishing-filter/internal/retrain"
)

func main() {
	// Build the dependency injection container
	container, err := di.BuildContainer()
	if err != nil {
		fmt.Printf("Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	// Run the application
	if err := container.Invoke(run); err != nil {
		fmt.Printf("Application error: %v\n", err)
		os.Exit(1)
	}
}

// run is the main application function that gets all dependencies injected
func run(
	logger *zap.Logger,
	cfg *config.Config,
	engine *detector.Engine,
	scheduler *retrain.Scheduler,
	history core.HistoryStore,
) error {
	defer logger.Sync()

	logger.Info("Phishing filter started",
		zap.Bool("model_loaded", engine.HasModel()),
		zap.String("model_version", engine.ModelVersion()))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	if cfg.GetBool("retrain.enabled") {
		go func() {
			errCh <- scheduler.Run(ctx)
		}()
	} else {
		logger.Info("Retrain scheduler disabled")
	}

	select {
	case <-ctx.Done():
		logger.Info("Shutting down...")
	case err := <-errCh:
		if err != nil {
			logger.Error("Retrain scheduler exited", zap.Error(err))
		}
	}
	stop()

	if err := history.Close(); err != nil {
		logger.Error("Failed to close history store", zap.Error(err))
	}

	logger.Info("Shutdown complete")
	return nil
}
