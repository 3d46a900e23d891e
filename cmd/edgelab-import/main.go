package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"edgelab/internal/config"
	"edgelab/internal/fetch"
	"edgelab/internal/store"
	"edgelab/internal/util"
)

func main() {
	file := flag.String("file", "", "CSV file of scored sentiment (required)")
	model := flag.String("model", "", "model version to tag the rows with (required)")
	flag.Parse()

	_ = godotenv.Load()

	if *file == "" || *model == "" {
		flag.Usage()
		os.Exit(1)
	}

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

	n, err := fetch.ImportSentimentCSV(context.Background(), pstore, *file, *model)
	if err != nil {
		log.Fatalf("import failed: %v", err)
	}
	slog.Info("sentiment imported", "file", *file, "model", *model, "points", n)
}
