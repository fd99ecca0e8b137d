// cmd/analyze runs a single analysis against the OKX market-data API and
// prints the result as JSON.
//
// Usage:
//
//	go run ./cmd/analyze --action=signal --inst=BTC-USDT --bar=1H --limit=100
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"okx-analysis/config"
	"okx-analysis/internal/analysis"
	"okx-analysis/internal/logger"
	"okx-analysis/internal/marketdata/okx"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfg := config.Load()

	action := flag.String("action", "signal", "kline | ma | rsi | macd | signal")
	inst := flag.String("inst", "", "Instrument ID (default BTC-USDT)")
	bar := flag.String("bar", "", "Bar: 1m,5m,15m,30m,1H,4H,1D (default 1H)")
	limit := flag.Int("limit", 0, "Candles to fetch, at most 300 (default 100)")
	baseURL := flag.String("base-url", cfg.OKXBaseURL, "OKX REST base URL")
	flag.Parse()

	// stdout carries the result document
	logger.InitWriter(os.Stderr, "analyze", logger.ParseLevel(cfg.LogLevel))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	client := okx.NewClient(okx.Config{BaseURL: *baseURL, Timeout: cfg.UpstreamTimeout}, nil, nil)
	res := analysis.New(client, nil).Run(ctx, analysis.Request{
		Action: analysis.Action(*action),
		InstID: *inst,
		Bar:    *bar,
		Limit:  *limit,
	})

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(res); err != nil {
		log.Fatalf("[analyze] encode: %v", err)
	}
	if !res.Success {
		os.Exit(1)
	}
}
