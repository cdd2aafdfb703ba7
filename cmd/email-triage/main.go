package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mikey/llm-email-triage/internal/adapters/httpapi"
	"github.com/mikey/llm-email-triage/internal/adapters/smtpingress"
	"github.com/mikey/llm-email-triage/internal/config"
	"github.com/mikey/llm-email-triage/internal/core"
	"github.com/mikey/llm-email-triage/internal/di"
	"go.uber.org/zap"
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
	cfg *config.Config,
	logger *zap.Logger,
	server *httpapi.Server,
	ingress *smtpingress.Ingress,
	tiers []core.TierClassifier,
	profiles core.ProfileStore,
) error {
	defer logger.Sync()

	// Start the HTTP server
	errCh := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil {
			errCh <- err
		}
	}()

	// Start the SMTP ingress if enabled
	smtpEnabled := cfg.GetSMTP().Enabled
	if smtpEnabled {
		if err := ingress.Start(); err != nil {
			logger.Fatal("Failed to start SMTP ingress", zap.Error(err))
			return err
		}
	}

	// Handle graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("Shutting down...", zap.String("signal", sig.String()))
	case err := <-errCh:
		logger.Error("HTTP server failed", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Stop(shutdownCtx); err != nil {
		logger.Error("Failed to stop HTTP server", zap.Error(err))
	}
	if smtpEnabled {
		if err := ingress.Stop(); err != nil {
			logger.Error("Failed to stop SMTP ingress", zap.Error(err))
		}
	}

	// Close any resources that need closing
	for _, tier := range tiers {
		if closer, ok := tier.(interface{ Close() error }); ok {
			if err := closer.Close(); err != nil {
				logger.Error("Failed to close tier client",
					zap.String("tier", tier.Name()),
					zap.Error(err))
			}
		}
	}
	if err := profiles.Close(); err != nil {
		logger.Error("Failed to close profile store", zap.Error(err))
	}

	logger.Info("Shutdown complete")
	return nil
}
