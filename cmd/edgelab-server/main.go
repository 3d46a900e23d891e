package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"edgelab/internal/config"
	"edgelab/internal/httpapi"
	"edgelab/internal/store"
	"edgelab/internal/util"
)

func main() {
	addr := flag.String("addr", ":8080", "listen address")
	flag.Parse()

	_ = godotenv.Load()

	cfgPath := "config/edgelab.yaml"
	if p := os.Getenv("EDGELAB_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := util.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	util.SetDefault(logger)

	pstore := store.NewParquetStore(cfg.Storage.DataDir)
	sstore, err := store.OpenSweepStore(cfg.Storage.SQLitePath, cfg.Storage.PostgresDSN)
	if err != nil {
		log.Fatalf("failed to open sweep store: %v", err)
	}
	defer sstore.Close()

	srv := httpapi.NewServer(sstore, pstore, logger)

	httpServer := &http.Server{
		Addr:    *addr,
		Handler: srv.Handler(),
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	go func() {
		logger.Info("results API listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}
