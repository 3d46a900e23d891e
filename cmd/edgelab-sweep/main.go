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
	"time"

	"github.com/joho/godotenv"

	"edgelab/internal/config"
	"edgelab/internal/domain"
	"edgelab/internal/store"
	"edgelab/internal/sweep"
	"edgelab/internal/util"
)

func main() {
	model := flag.String("model", "", "override the configured model version")
	symbols := flag.String("symbols", "", "comma-separated symbol override")
	workers := flag.Int("workers", 0, "override the configured worker count")
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

	grid, err := gridFromConfig(cfg.Sweep)
	if err != nil {
		log.Fatalf("invalid sweep config: %v", err)
	}
	if *model != "" {
		grid.ModelVersion = *model
	}
	if *symbols != "" {
		grid.Symbols = nil
		for _, s := range strings.Split(*symbols, ",") {
			if s = strings.TrimSpace(s); s != "" {
				grid.Symbols = append(grid.Symbols, strings.ToUpper(s))
			}
		}
	}

	pstore := store.NewParquetStore(cfg.Storage.DataDir)
	sstore, err := store.OpenSweepStore(cfg.Storage.SQLitePath, cfg.Storage.PostgresDSN)
	if err != nil {
		log.Fatalf("failed to open sweep store: %v", err)
	}
	defer sstore.Close()

	n := cfg.Sweep.MaxWorkers
	if *workers > 0 {
		n = *workers
	}
	driver := sweep.NewDriver(pstore, pstore, sstore, n, logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	started := time.Now()
	slog.Info("starting sweep", "model", grid.ModelVersion, "jobs", grid.Jobs(), "workers", n)
	written, err := driver.Run(ctx, grid)
	if err != nil {
		log.Fatalf("sweep failed: %v", err)
	}
	slog.Info("sweep complete", "rows", written, "elapsed", time.Since(started).Round(time.Millisecond))
}

func gridFromConfig(sc config.SweepConfig) (sweep.Grid, error) {
	grid := sweep.Grid{
		ModelVersion:   sc.ModelVersion,
		Symbols:        sc.Symbols,
		HoldingPeriods: sc.HoldingPeriods,
		MinMentions:    sc.MinMentions,
		PosThresholds:  sc.PosThresholds,
		PositionSize:   sc.PositionSize,
	}
	for _, s := range sc.Sides {
		grid.Sides = append(grid.Sides, domain.Side(s))
	}
	for _, w := range sc.Windows {
		start, end, err := w.ParseDates()
		if err != nil {
			return sweep.Grid{}, err
		}
		grid.Windows = append(grid.Windows, sweep.Window{Start: start, End: end})
	}
	return grid, nil
}
