// Package report implements the cohort robustness aggregator: it reduces
// persisted sweep rows into ranked, dispersion-discounted cohorts plus
// coarser symbol and window breakdowns, so a robust edge can be told apart
// from an overfit one.
package report

import (
	"context"
	"sort"
	"time"

	"edgelab/internal/domain"
	"edgelab/internal/metrics"
	"edgelab/internal/store"
)

// OrderBy selects the cohort table sort metric.
type OrderBy string

const (
	OrderAvgSharpe    OrderBy = "avg_sharpe"
	OrderRobustSharpe OrderBy = "robust_sharpe"
	OrderAvgWinRate   OrderBy = "avg_win_rate"
	OrderAvgReturn    OrderBy = "avg_return"
)

const (
	// DefaultMinWindows is the central anti-overfitting guard: a cohort
	// backed by fewer distinct evaluation windows never surfaces.
	DefaultMinWindows = 3

	// DefaultLimit caps the cohort table.
	DefaultLimit = 20

	symbolSummaryCap = 50
	windowSummaryCap = 30
)

// Filter combines the row-level pushdown filters with the post-group
// controls of the cohort table.
type Filter struct {
	store.RowQuery

	MinWindows int     // cohorts with fewer distinct windows are dropped; 0 means DefaultMinWindows
	OrderBy    OrderBy // cohort sort metric; empty means OrderAvgSharpe
	Limit      int     // cohort table cap; 0 means DefaultLimit
}

// CohortRow is one ranked parameter-combination cohort across windows.
type CohortRow struct {
	Symbol      string      `json:"symbol"`
	Horizon     string      `json:"horizon"`
	Side        domain.Side `json:"side"`
	MinMentions int64       `json:"min_mentions"`
	PosThresh   float64     `json:"pos_thresh"`

	Runs    int `json:"runs"`
	Windows int `json:"windows"`

	AvgSharpe    float64 `json:"avg_sharpe"`
	StdSharpe    float64 `json:"stddev_sharpe"`
	RobustSharpe float64 `json:"robust_sharpe"`
	AvgWinRate   float64 `json:"avg_win_rate"`
	StdWinRate   float64 `json:"stddev_win_rate"`
	AvgReturn    float64 `json:"avg_return"`
	StdReturn    float64 `json:"stddev_return"`
	AvgUplift    float64 `json:"avg_uplift"`
	StdUplift    float64 `json:"stddev_uplift"`

	AvgTrades   float64 `json:"avg_trades"`
	TotalTrades int64   `json:"total_trades"`
}

// SymbolRow is one symbol/horizon/side summary line, independent of the
// parameter dimensions.
type SymbolRow struct {
	Symbol  string      `json:"symbol"`
	Horizon string      `json:"horizon"`
	Side    domain.Side `json:"side"`

	Runs        int     `json:"runs"`
	AvgSharpe   float64 `json:"avg_sharpe"`
	AvgWinRate  float64 `json:"avg_win_rate"`
	AvgReturn   float64 `json:"avg_return"`
	TotalTrades int64   `json:"total_trades"`
}

// WindowRow is one evaluation-window summary line, revealing whether overall
// quality is time-varying.
type WindowRow struct {
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`

	Runs        int     `json:"runs"`
	AvgSharpe   float64 `json:"avg_sharpe"`
	AvgWinRate  float64 `json:"avg_win_rate"`
	AvgReturn   float64 `json:"avg_return"`
	TotalTrades int64   `json:"total_trades"`
}

// Report is the full three-part aggregation output.
type Report struct {
	Cohorts []CohortRow `json:"cohorts"`
	Symbols []SymbolRow `json:"symbols"`
	Windows []WindowRow `json:"windows"`
}

// Generate reads the filtered rows from the store and aggregates them.
func Generate(ctx context.Context, st store.SweepStore, f Filter) (Report, error) {
	rows, err := st.ListRows(ctx, f.RowQuery)
	if err != nil {
		return Report{}, err
	}
	return Aggregate(rows, f), nil
}

// Aggregate reduces already-filtered sweep rows into the three reports. It
// is a pure batch reduction: a single pass folds rows into per-group
// accumulators which are finalized into report rows at the end. An empty
// input yields an empty report, never an error.
func Aggregate(rows []domain.SweepRow, f Filter) Report {
	if f.MinWindows == 0 {
		f.MinWindows = DefaultMinWindows
	}
	if f.Limit == 0 {
		f.Limit = DefaultLimit
	}
	if f.OrderBy == "" {
		f.OrderBy = OrderAvgSharpe
	}

	return Report{
		Cohorts: cohortTable(rows, f),
		Symbols: symbolSummary(rows),
		Windows: windowSummary(rows),
	}
}

// ---------------------------------------------------------------------------
// Cohort table
// ---------------------------------------------------------------------------

type cohortKey struct {
	symbol      string
	horizon     string
	side        domain.Side
	minMentions int64
	posThresh   float64
}

type windowKey struct {
	start, end string
}

// cohortAcc accumulates one cohort's rows during the fold. Metric samples
// are kept so population dispersion can be computed at finalize time.
type cohortAcc struct {
	runs        int
	windows     map[windowKey]struct{}
	sharpes     []float64
	winRates    []float64
	avgReturns  []float64
	uplifts     []float64
	totalTrades int64
}

func cohortTable(rows []domain.SweepRow, f Filter) []CohortRow {
	accs := make(map[cohortKey]*cohortAcc)
	for _, r := range rows {
		k := cohortKey{r.Symbol, r.Horizon, r.Side, r.MinMentions, r.PosThresh}
		acc, ok := accs[k]
		if !ok {
			acc = &cohortAcc{windows: make(map[windowKey]struct{})}
			accs[k] = acc
		}
		acc.runs++
		acc.windows[windowKey{
			start: r.StartDate.UTC().Format(store.DateFormat),
			end:   r.EndDate.UTC().Format(store.DateFormat),
		}] = struct{}{}
		acc.sharpes = append(acc.sharpes, r.Sharpe)
		acc.winRates = append(acc.winRates, r.WinRate)
		acc.avgReturns = append(acc.avgReturns, r.AvgReturn)
		acc.uplifts = append(acc.uplifts, r.Uplift)
		acc.totalTrades += r.Trades
	}

	out := make([]CohortRow, 0, len(accs))
	for k, acc := range accs {
		// The HAVING-style guard: one great window is not robustness.
		if len(acc.windows) < f.MinWindows {
			continue
		}

		row := CohortRow{
			Symbol:      k.symbol,
			Horizon:     k.horizon,
			Side:        k.side,
			MinMentions: k.minMentions,
			PosThresh:   k.posThresh,
			Runs:        acc.runs,
			Windows:     len(acc.windows),
			AvgSharpe:   metrics.Mean(acc.sharpes),
			StdSharpe:   metrics.PopStdDev(acc.sharpes),
			AvgWinRate:  metrics.Mean(acc.winRates),
			StdWinRate:  metrics.PopStdDev(acc.winRates),
			AvgReturn:   metrics.Mean(acc.avgReturns),
			StdReturn:   metrics.PopStdDev(acc.avgReturns),
			AvgUplift:   metrics.Mean(acc.uplifts),
			StdUplift:   metrics.PopStdDev(acc.uplifts),
			AvgTrades:   float64(acc.totalTrades) / float64(acc.runs),
			TotalTrades: acc.totalTrades,
		}
		row.RobustSharpe = row.AvgSharpe - row.StdSharpe
		out = append(out, row)
	}

	sort.Slice(out, func(i, j int) bool {
		a, b := sortMetric(out[i], f.OrderBy), sortMetric(out[j], f.OrderBy)
		if a != b {
			return a > b
		}
		return cohortLess(out[i], out[j])
	})

	if len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out
}

func sortMetric(r CohortRow, by OrderBy) float64 {
	switch by {
	case OrderRobustSharpe:
		return r.RobustSharpe
	case OrderAvgWinRate:
		return r.AvgWinRate
	case OrderAvgReturn:
		return r.AvgReturn
	default:
		return r.AvgSharpe
	}
}

// cohortLess is the deterministic tie-break on the grouping key.
func cohortLess(a, b CohortRow) bool {
	if a.Symbol != b.Symbol {
		return a.Symbol < b.Symbol
	}
	if a.Horizon != b.Horizon {
		return a.Horizon < b.Horizon
	}
	if a.Side != b.Side {
		return a.Side < b.Side
	}
	if a.MinMentions != b.MinMentions {
		return a.MinMentions < b.MinMentions
	}
	return a.PosThresh < b.PosThresh
}

// ---------------------------------------------------------------------------
// Symbol/horizon/side summary
// ---------------------------------------------------------------------------

type symbolKey struct {
	symbol  string
	horizon string
	side    domain.Side
}

type summaryAcc struct {
	runs        int
	sharpes     []float64
	winRates    []float64
	avgReturns  []float64
	totalTrades int64
}

func symbolSummary(rows []domain.SweepRow) []SymbolRow {
	accs := make(map[symbolKey]*summaryAcc)
	for _, r := range rows {
		k := symbolKey{r.Symbol, r.Horizon, r.Side}
		acc, ok := accs[k]
		if !ok {
			acc = &summaryAcc{}
			accs[k] = acc
		}
		acc.runs++
		acc.sharpes = append(acc.sharpes, r.Sharpe)
		acc.winRates = append(acc.winRates, r.WinRate)
		acc.avgReturns = append(acc.avgReturns, r.AvgReturn)
		acc.totalTrades += r.Trades
	}

	out := make([]SymbolRow, 0, len(accs))
	for k, acc := range accs {
		out = append(out, SymbolRow{
			Symbol:      k.symbol,
			Horizon:     k.horizon,
			Side:        k.side,
			Runs:        acc.runs,
			AvgSharpe:   metrics.Mean(acc.sharpes),
			AvgWinRate:  metrics.Mean(acc.winRates),
			AvgReturn:   metrics.Mean(acc.avgReturns),
			TotalTrades: acc.totalTrades,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].AvgSharpe != out[j].AvgSharpe {
			return out[i].AvgSharpe > out[j].AvgSharpe
		}
		if out[i].Symbol != out[j].Symbol {
			return out[i].Symbol < out[j].Symbol
		}
		if out[i].Horizon != out[j].Horizon {
			return out[i].Horizon < out[j].Horizon
		}
		return out[i].Side < out[j].Side
	})

	if len(out) > symbolSummaryCap {
		out = out[:symbolSummaryCap]
	}
	return out
}

// ---------------------------------------------------------------------------
// Window summary
// ---------------------------------------------------------------------------

func windowSummary(rows []domain.SweepRow) []WindowRow {
	type winAcc struct {
		start, end time.Time
		acc        summaryAcc
	}
	accs := make(map[windowKey]*winAcc)
	for _, r := range rows {
		k := windowKey{
			start: r.StartDate.UTC().Format(store.DateFormat),
			end:   r.EndDate.UTC().Format(store.DateFormat),
		}
		wa, ok := accs[k]
		if !ok {
			wa = &winAcc{start: r.StartDate, end: r.EndDate}
			accs[k] = wa
		}
		wa.acc.runs++
		wa.acc.sharpes = append(wa.acc.sharpes, r.Sharpe)
		wa.acc.winRates = append(wa.acc.winRates, r.WinRate)
		wa.acc.avgReturns = append(wa.acc.avgReturns, r.AvgReturn)
		wa.acc.totalTrades += r.Trades
	}

	out := make([]WindowRow, 0, len(accs))
	for _, wa := range accs {
		out = append(out, WindowRow{
			StartDate:   wa.start,
			EndDate:     wa.end,
			Runs:        wa.acc.runs,
			AvgSharpe:   metrics.Mean(wa.acc.sharpes),
			AvgWinRate:  metrics.Mean(wa.acc.winRates),
			AvgReturn:   metrics.Mean(wa.acc.avgReturns),
			TotalTrades: wa.acc.totalTrades,
		})
	}

	// Most recent windows first.
	sort.Slice(out, func(i, j int) bool {
		if !out[i].EndDate.Equal(out[j].EndDate) {
			return out[i].EndDate.After(out[j].EndDate)
		}
		return out[i].StartDate.After(out[j].StartDate)
	})

	if len(out) > windowSummaryCap {
		out = out[:windowSummaryCap]
	}
	return out
}
