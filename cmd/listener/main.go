package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/shubham-shewale/portfolio-price-stream/cmd/listener/internal/listener"
	"github.com/shubham-shewale/portfolio-price-stream/cmd/listener/internal/registry"
	"github.com/shubham-shewale/portfolio-price-stream/cmd/listener/internal/snapshot"
	"github.com/shubham-shewale/portfolio-price-stream/pkg/config"
)

func main() {
	// Load .env into the environment before the config loader reads it
	if err := godotenv.Load(); err != nil {
		fmt.Println("Note: No .env file found, relying on System Env Vars")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	logger, err := config.NewLogger(cfg.Logger)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	reg := registry.New()
	if dir := os.Getenv("PORTFOLIO_DIR"); dir != "" {
		loaded, errs := reg.LoadDir(dir)
		for _, e := range errs {
			logger.Warn("Skipping portfolio file", zap.Error(e))
		}
		logger.Info("Portfolios loaded", zap.Int("count", loaded), zap.String("dir", dir))
	}

	cache := snapshot.NewCache(logger)

	l := listener.NewListener(cfg.Redis, logger, reg, cache)
	l.Start()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Info("Shutdown signal received, stopping listener...")
	l.Stop()
	logger.Info("Listener exited cleanly")
}
