package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"edgelab/internal/config"
	"edgelab/internal/fetch"
	"edgelab/internal/store"
	"edgelab/internal/util"
)

func main() {
	symbols := flag.String("symbols", "", "comma-separated symbols to backfill (required)")
	startStr := flag.String("start", "", "first date to fetch (YYYY-MM-DD, required)")
	endStr := flag.String("end", "", "last date to fetch (YYYY-MM-DD, required)")
	rps := flag.Int("rps", 5, "request rate limit per second")
	flag.Parse()

	_ = godotenv.Load()

	if *symbols == "" || *startStr == "" || *endStr == "" {
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

	start, err := util.ParseDate(*startStr)
	if err != nil {
		log.Fatalf("invalid -start: %v", err)
	}
	end, err := util.ParseDate(*endStr)
	if err != nil {
		log.Fatalf("invalid -end: %v", err)
	}

	var list []string
	for _, s := range strings.Split(*symbols, ",") {
		if s = strings.TrimSpace(s); s != "" {
			list = append(list, strings.ToUpper(s))
		}
	}

	pstore := store.NewParquetStore(cfg.Storage.DataDir)
	backfiller := fetch.NewPriceBackfiller(
		cfg.Alpaca.APIKey,
		cfg.Alpaca.APISecret,
		cfg.Alpaca.DataURL,
		pstore,
		*rps,
		logger,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	slog.Info("starting price backfill", "symbols", len(list), "start", *startStr, "end", *endStr)
	n, err := backfiller.Run(ctx, list, start, end)
	if err != nil {
		log.Fatalf("backfill failed: %v", err)
	}
	slog.Info("backfill complete", "bars", n)
}
