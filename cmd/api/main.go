package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"onomast/internal/app"
	"onomast/internal/config"
	"onomast/internal/logger"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to YAML config (optional)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	lg, err := logger.New(cfg.LogMode)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer lg.Sync()

	ctx := context.Background()
	a, err := app.New(ctx, cfg, lg)
	if err != nil {
		lg.Fatal("Failed to initialize app", "error", err)
	}

	go func() {
		if err := a.Start(); err != nil {
			lg.Error("Server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	lg.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	if err := a.Shutdown(shutdownCtx); err != nil {
		lg.Error("Server forced to shutdown", "error", err)
	}

	lg.Info("Server exiting")
}
