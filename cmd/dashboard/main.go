package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"WeatherDeck/internal/config"
	"WeatherDeck/internal/dashboard"
	"WeatherDeck/internal/httpapi"
	"WeatherDeck/internal/meteo"
	"WeatherDeck/internal/realtime"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("[INFO] WeatherDeck starting...")

	// Optional .env for local development; ignore if absent
	_ = godotenv.Load()

	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}

	// Init upstream fetcher with a rate-limit decorator
	client := meteo.NewClient(cfg.Upstream.BaseURL, cfg.Upstream.Timeout)
	fetcher := meteo.NewRateLimitedFetcher(client, cfg.Upstream.RatePerSec, cfg.Upstream.Burst)
	log.Printf("[INFO] forecast source: %s", fetcher.Name())

	// Init state cell and realtime hub
	cell := dashboard.NewStateCell()
	hub := realtime.NewHub()

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Init refresher
	refresher := dashboard.NewRefresher(fetcher, cell, cfg.ForecastRequest(), cfg.Upstream.Timeout, hub.NotifyRefreshed)
	if err := refresher.RegisterInterval(cfg.Refresh.Interval); err != nil {
		log.Fatalf("[FATAL] register refresh interval: %v", err)
	}
	refresher.Start(ctx)
	defer refresher.Stop()

	// First refresh straight away rather than waiting out the interval
	refresher.Trigger()

	// Init HTTP server
	srv, err := httpapi.NewServer(cell, refresher, hub, "WeatherDeck", cfg.Location.Name, cfg.MapImageURL)
	if err != nil {
		log.Fatalf("[FATAL] init http server: %v", err)
	}
	httpSrv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: srv.Router(),
	}
	go func() {
		log.Printf("[INFO] http server listening on %s", httpSrv.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("[FATAL] http server: %v", err)
		}
	}()

	log.Println("[INFO] WeatherDeck is running. Press Ctrl+C to stop.")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[INFO] shutdown signal received, stopping...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[WARN] http shutdown: %v", err)
	}
	log.Println("[INFO] WeatherDeck stopped")
}
