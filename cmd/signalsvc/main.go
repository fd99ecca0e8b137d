package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"okx-analysis/config"
	"okx-analysis/internal/logger"
	"okx-analysis/internal/signalsvc"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)

	cfg := config.Load()
	logger.Init("signalsvc", logger.ParseLevel(cfg.LogLevel))
	log.Printf("[signalsvc] watchlist: %s, scan interval: %s", cfg.WatchlistPath, cfg.ScanInterval)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	svc, err := signalsvc.New(ctx, cfg)
	if err != nil {
		log.Fatalf("[signalsvc] init failed: %v", err)
	}

	if err := svc.Run(ctx); err != nil {
		log.Fatalf("[signalsvc] fatal: %v", err)
	}
}
