package main

import (
	"context"
	"flag"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"edgelab/internal/config"
	"edgelab/internal/domain"
	"edgelab/internal/report"
	"edgelab/internal/store"
	"edgelab/internal/util"
)

func main() {
	model := flag.String("model", "", "filter rows to this sentiment model version")
	symbols := flag.String("symbols", "", "comma-separated symbol filter")
	symbol := flag.String("symbol", "", "single symbol filter (shorthand for -symbols)")
	horizon := flag.String("horizon", "", "holding-period label filter, e.g. 3d")
	side := flag.String("side", "", "side filter: long or short")
	startStr := flag.String("start", "", "minimum window start date (YYYY-MM-DD)")
	endStr := flag.String("end", "", "maximum window end date (YYYY-MM-DD)")
	minTrades := flag.Int64("min-trades", 0, "drop rows with fewer trades")
	minSharpe := flag.Float64("min-sharpe", 0, "drop rows below this sharpe")
	minWinRate := flag.Float64("min-win-rate", 0, "drop rows below this win rate (percent)")
	minWindows := flag.Int("min-windows", 0, "cohorts must cover at least this many distinct windows")
	order := flag.String("order", "", "cohort sort metric: avg_sharpe, robust_sharpe, avg_win_rate, avg_return")
	limit := flag.Int("limit", 0, "maximum cohort rows")
	asJSON := flag.Bool("json", false, "emit the report as JSON instead of tables")
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

	q := store.RowQuery{
		ModelVersion: *model,
		Horizon:      *horizon,
		Side:         domain.Side(*side),
		MinTrades:    *minTrades,
	}
	if *symbols != "" {
		for _, s := range strings.Split(*symbols, ",") {
			if s = strings.TrimSpace(s); s != "" {
				q.Symbols = append(q.Symbols, strings.ToUpper(s))
			}
		}
	}
	if *symbol != "" {
		q.Symbols = append(q.Symbols, strings.ToUpper(*symbol))
	}
	if *startStr != "" {
		t, err := util.ParseDate(*startStr)
		if err != nil {
			log.Fatalf("invalid -start: %v", err)
		}
		q.StartFrom = t
	}
	if *endStr != "" {
		t, err := util.ParseDate(*endStr)
		if err != nil {
			log.Fatalf("invalid -end: %v", err)
		}
		q.EndTo = t
	}
	// Distinguish "flag left at default" from "explicit 0 threshold".
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "min-sharpe":
			q.MinSharpe = minSharpe
		case "min-win-rate":
			q.MinWinRate = minWinRate
		}
	})

	f := report.Filter{
		RowQuery:   q,
		MinWindows: cfg.Report.MinWindows,
		OrderBy:    report.OrderBy(cfg.Report.OrderBy),
		Limit:      cfg.Report.Limit,
	}
	if *minWindows > 0 {
		f.MinWindows = *minWindows
	}
	if *order != "" {
		f.OrderBy = report.OrderBy(*order)
	}
	if *limit > 0 {
		f.Limit = *limit
	}

	st, err := store.OpenSweepStore(cfg.Storage.SQLitePath, cfg.Storage.PostgresDSN)
	if err != nil {
		log.Fatalf("failed to open sweep store: %v", err)
	}
	defer st.Close()

	rep, err := report.Generate(context.Background(), st, f)
	if err != nil {
		log.Fatalf("failed to generate report: %v", err)
	}

	if *asJSON {
		err = report.WriteJSON(os.Stdout, rep)
	} else {
		err = report.WriteText(os.Stdout, rep)
	}
	if err != nil {
		log.Fatalf("failed to write report: %v", err)
	}
}
