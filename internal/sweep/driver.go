// Package sweep drives the parameter sweep: it expands a parameter grid into
// simulator jobs, runs them across a bounded worker pool, and upserts one
// sweep row per (symbol, horizon, side, parameter-combination, window).
package sweep

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"edgelab/internal/domain"
	"edgelab/internal/metrics"
	"edgelab/internal/simulate"
	"edgelab/internal/store"
)

// Window is one concrete evaluation period.
type Window struct {
	Start time.Time
	End   time.Time
}

// Grid is the full sweep parameter space. The cross product of all
// dimensions is evaluated.
type Grid struct {
	ModelVersion   string
	Symbols        []string
	HoldingPeriods []int
	Sides          []domain.Side
	MinMentions    []int64
	PosThresholds  []float64
	PositionSize   float64
	Windows        []Window
}

// Jobs returns the number of simulator invocations the grid expands to.
func (g Grid) Jobs() int {
	return len(g.Symbols) * len(g.HoldingPeriods) * len(g.Sides) *
		len(g.MinMentions) * len(g.PosThresholds) * len(g.Windows)
}

// job is one simulator invocation.
type job struct {
	symbol string
	params domain.StrategyParams
	window Window
}

// Driver runs sweeps against the configured stores.
type Driver struct {
	sentiment store.SentimentStore
	prices    store.PriceStore
	sweeps    store.SweepStore
	workers   int
	log       *slog.Logger
}

// NewDriver creates a Driver with the given stores and worker count.
// A non-positive worker count falls back to 1.
func NewDriver(sentiment store.SentimentStore, prices store.PriceStore, sweeps store.SweepStore, workers int, log *slog.Logger) *Driver {
	if workers < 1 {
		workers = 1
	}
	return &Driver{
		sentiment: sentiment,
		prices:    prices,
		sweeps:    sweeps,
		workers:   workers,
		log:       log,
	}
}

// Run evaluates every combination in the grid and upserts one sweep row per
// run. Combinations are independent, so they are fanned out across the
// worker pool; failures on individual rows are logged and counted rather
// than aborting the sweep. Returns the number of rows written.
func (d *Driver) Run(ctx context.Context, grid Grid) (int, error) {
	jobs := make(chan job)
	var written, failed atomic.Int64

	var wg sync.WaitGroup
	for w := 0; w < d.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				if err := d.runOne(ctx, grid.ModelVersion, j); err != nil {
					failed.Add(1)
					d.log.Error("sweep job failed",
						"symbol", j.symbol,
						"horizon", domain.HorizonLabel(j.params.HoldingPeriodDays),
						"side", j.params.Side,
						"error", err)
					continue
				}
				written.Add(1)
			}
		}()
	}

	total := grid.Jobs()
	d.log.Info("starting sweep", "jobs", total, "workers", d.workers, "model", grid.ModelVersion)

expand:
	for _, symbol := range grid.Symbols {
		for _, hp := range grid.HoldingPeriods {
			for _, side := range grid.Sides {
				for _, mm := range grid.MinMentions {
					for _, th := range grid.PosThresholds {
						for _, win := range grid.Windows {
							select {
							case <-ctx.Done():
								break expand
							case jobs <- job{
								symbol: symbol,
								params: domain.StrategyParams{
									SentimentThreshold: th,
									HoldingPeriodDays:  hp,
									PositionSize:       grid.PositionSize,
									MinMentions:        mm,
									Side:               side,
								},
								window: win,
							}:
							}
						}
					}
				}
			}
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return int(written.Load()), err
	}
	if n := failed.Load(); n > 0 {
		return int(written.Load()), fmt.Errorf("%d of %d sweep jobs failed", n, total)
	}

	d.log.Info("sweep complete", "rows", written.Load())
	return int(written.Load()), nil
}

// runOne reads the series for one job, simulates, and upserts the row.
func (d *Driver) runOne(ctx context.Context, modelVersion string, j job) error {
	sentiment, err := d.sentiment.ReadSentiment(ctx, j.symbol, modelVersion, j.window.Start, j.window.End)
	if err != nil {
		return fmt.Errorf("reading sentiment: %w", err)
	}
	prices, err := d.prices.ReadPrices(ctx, j.symbol, j.window.Start, j.window.End)
	if err != nil {
		return fmt.Errorf("reading prices: %w", err)
	}

	run := simulate.Simulate(j.symbol, j.params, sentiment, prices, j.window.Start, j.window.End)
	return d.sweeps.UpsertRow(ctx, RowFrom(run, modelVersion))
}

// RowFrom flattens a backtest run into its persisted sweep-row summary.
func RowFrom(run domain.BacktestRun, modelVersion string) domain.SweepRow {
	raw := make([]float64, len(run.Trades))
	for i, t := range run.Trades {
		raw[i] = t.ReturnPct
	}

	return domain.SweepRow{
		ModelVersion:  modelVersion,
		Symbol:        run.Symbol,
		Horizon:       domain.HorizonLabel(run.Params.HoldingPeriodDays),
		Side:          run.Params.Side,
		MinMentions:   run.Params.MinMentions,
		PosThresh:     run.Params.SentimentThreshold,
		StartDate:     run.StartDate,
		EndDate:       run.EndDate,
		Trades:        int64(len(run.Trades)),
		TotalReturn:   run.Metrics.TotalReturn,
		AvgReturn:     metrics.Mean(raw),
		Sharpe:        run.Metrics.SharpeRatio,
		WinRate:       run.Metrics.WinRate,
		MaxDrawdown:   run.Metrics.MaxDrawdown,
		Volatility:    run.Metrics.Volatility,
		SentimentCorr: run.Metrics.SentimentCorrelation,
		Uplift:        run.Metrics.Uplift,
	}
}
