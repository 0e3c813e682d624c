package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"GoTrackerAI/app/configs"
	"GoTrackerAI/app/dispatch"
)

func main() {
	cfg, err := configs.LoadConfig(configPath())
	if err != nil {
		log.Fatalf("🚨 Critical error loading configs: %v", err)
	}

	store := getDB(cfg)
	logger := getLogger()
	defer logger.Close()

	pool := dispatch.NewPool(cfg.Dispatch.Workers, cfg.Dispatch.QueueSize)
	server := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: buildWebhookServer(cfg, store, pool, logger).Handler(),
	}

	go func() {
		logger.Printf("✅ Listening on %s", cfg.Server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("🚨 HTTP server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	logger.Print("⚠️ Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Stop intake first, then let in-flight rounds finish.
	if err := server.Shutdown(ctx); err != nil {
		logger.Printf("❌ HTTP shutdown: %v", err)
	}
	if err := pool.Shutdown(ctx); err != nil {
		logger.Printf("❌ Dispatch drain: %v", err)
	}
	logger.Print("✅ Shutdown complete")
}

func configPath() string {
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		return path
	}
	return "config.yaml"
}
