package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/minicode/internal/domain/persistence"
	"github.com/GriffinCanCode/minicode/internal/infrastructure/config"
	"github.com/GriffinCanCode/minicode/internal/infrastructure/logging"
	"github.com/GriffinCanCode/minicode/internal/infrastructure/server"
	"github.com/GriffinCanCode/minicode/internal/providers/clipboard"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configPath := flag.String("config", "", "Path to a TOML or YAML config file")
	port := flag.String("port", "", "Server port (overrides config)")
	dev := flag.Bool("dev", false, "Development mode (console logs, debug level)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *port != "" {
		cfg.Server.Port = *port
	}
	if *dev {
		cfg.Logging.Development = true
		cfg.Logging.Level = "debug"
	}

	logger, err := logging.New(logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
	})
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	backend := persistence.OpenOrMemory(cfg.Storage.Backend, cfg.Storage.Path, logger.Component(logging.ComponentPersistence))
	storeOpts := persistence.DefaultOptions()
	storeOpts.Key = cfg.Storage.Key
	store := persistence.NewStore(backend, storeOpts, logger.Component(logging.ComponentPersistence))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv, err := server.NewServer(ctx, cfg, logger, server.Dependencies{
		Store:     store,
		Clipboard: clipboard.NewProvider(logger.Component("clipboard")),
	})
	if err != nil {
		logger.Fatal("Failed to create server", zap.Error(err))
	}

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Run()
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutting down gracefully")
	case err := <-errChan:
		if err != nil {
			logger.Error("Server error", zap.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}
	if err := store.Close(); err != nil {
		logger.Error("Failed to close storage", zap.Error(err))
	}
}
