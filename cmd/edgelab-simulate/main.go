package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"edgelab/internal/config"
	"edgelab/internal/domain"
	"edgelab/internal/simulate"
	"edgelab/internal/store"
	"edgelab/internal/util"
)

func main() {
	symbol := flag.String("symbol", "", "symbol to simulate (required)")
	model := flag.String("model", "", "sentiment model version (required)")
	threshold := flag.Float64("threshold", 0.3, "entry sentiment threshold")
	holding := flag.Int("holding", 3, "holding period in calendar days")
	size := flag.Float64("size", 0.1, "position size as a fraction of capital")
	minMentions := flag.Int64("min-mentions", 0, "ignore sentiment days with fewer mentions")
	side := flag.String("side", "long", "trade side: long or short")
	startStr := flag.String("start", "", "window start date (YYYY-MM-DD, required)")
	endStr := flag.String("end", "", "window end date (YYYY-MM-DD, required)")
	asJSON := flag.Bool("json", false, "emit the full run as JSON")
	flag.Parse()

	_ = godotenv.Load()

	if *symbol == "" || *model == "" || *startStr == "" || *endStr == "" {
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

	params := domain.StrategyParams{
		SentimentThreshold: *threshold,
		HoldingPeriodDays:  *holding,
		PositionSize:       *size,
		MinMentions:        *minMentions,
		Side:               domain.Side(*side),
	}

	pstore := store.NewParquetStore(cfg.Storage.DataDir)
	ctx := context.Background()

	sentiment, err := pstore.ReadSentiment(ctx, *symbol, *model, start, end)
	if err != nil {
		log.Fatalf("failed to read sentiment: %v", err)
	}
	prices, err := pstore.ReadPrices(ctx, *symbol, start, end)
	if err != nil {
		log.Fatalf("failed to read prices: %v", err)
	}

	run := simulate.Simulate(*symbol, params, sentiment, prices, start, end)

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(run); err != nil {
			log.Fatalf("failed to encode run: %v", err)
		}
		return
	}

	m := run.Metrics
	for _, tr := range run.Trades {
		fmt.Printf("%s -> %s  entry %.2f exit %.2f  return %+.4f (sent %.2f)\n",
			tr.EntryDate.Format(store.DateFormat), tr.ExitDate.Format(store.DateFormat),
			tr.EntryPrice, tr.ExitPrice, tr.ReturnPct, tr.SentimentAtEntry)
	}
	fmt.Printf("%s %s %dd %s  %s .. %s\n",
		run.Symbol, params.Side, params.HoldingPeriodDays, *model,
		start.Format(store.DateFormat), end.Format(store.DateFormat))
	fmt.Printf("  trades:       %d\n", len(run.Trades))
	fmt.Printf("  total_return: %.4f\n", m.TotalReturn)
	fmt.Printf("  annualized:   %.4f\n", m.AnnualizedReturn)
	fmt.Printf("  sharpe:       %.4f\n", m.SharpeRatio)
	fmt.Printf("  volatility:   %.4f\n", m.Volatility)
	fmt.Printf("  max_drawdown: %.4f\n", m.MaxDrawdown)
	fmt.Printf("  win_rate:     %.1f%%\n", m.WinRate)
	fmt.Printf("  sent_corr:    %.4f\n", m.SentimentCorrelation)
	fmt.Printf("  buy_hold:     %.4f\n", m.BuyHoldReturn)
	fmt.Printf("  uplift:       %.4f\n", m.Uplift)
}
