// Package domain defines the core data types shared across the edgelab
// system: sentiment and price series points, trades, backtest runs, and
// persisted sweep rows.
package domain

import (
	"fmt"
	"time"
)

// Side identifies the direction a strategy trades.
type Side string

const (
	SideLong  Side = "long"
	SideShort Side = "short"
)

// SentimentPoint is one externally-scored sentiment aggregate for a symbol on
// a single trading day. Score is in [-1, 1]. Mentions is the number of social
// mentions behind the aggregate; points with too few mentions can be ignored
// by a strategy's min-mentions filter.
type SentimentPoint struct {
	Symbol       string
	Date         time.Time // calendar day, UTC midnight
	Score        float64
	Mentions     int64
	ModelVersion string
}

// PricePoint is one closing price observation for a symbol. Series are
// ordered ascending by Timestamp, one point per trading session.
type PricePoint struct {
	Symbol    string
	Timestamp time.Time
	Close     float64
}

// Trade is a single closed round-trip produced by the simulator. Every trade
// has both an entry and an exit; open positions are force-closed on the last
// price day of a run.
type Trade struct {
	EntryDate        time.Time
	ExitDate         time.Time
	EntryPrice       float64
	ExitPrice        float64
	ReturnPct        float64 // raw percent return, unweighted
	SentimentAtEntry float64
	PositionSize     float64 // fraction of capital
}

// WeightedReturn is the portfolio-weighted return this trade contributed.
func (t Trade) WeightedReturn() float64 {
	return t.ReturnPct * t.PositionSize
}

// StrategyParams is one parameter combination evaluated by the simulator.
type StrategyParams struct {
	SentimentThreshold float64
	HoldingPeriodDays  int
	PositionSize       float64
	MinMentions        int64
	Side               Side
}

// SummaryMetrics are the per-run performance figures derived from the trade
// list. All fields degrade to 0 when undefined (no trades, zero variance)
// so every metric stays sortable and displayable.
type SummaryMetrics struct {
	TotalReturn          float64
	AnnualizedReturn     float64
	Volatility           float64
	SharpeRatio          float64
	MaxDrawdown          float64 // worst single weighted trade return
	WinRate              float64 // 0..100
	SentimentCorrelation float64
	BuyHoldReturn        float64 // passive close-to-close return over the window
	Uplift               float64 // avg trade return minus pro-rated buy-hold
}

// BacktestRun is one simulator invocation: one symbol, one parameter set,
// one date window. Runs are immutable once created and deterministic for
// identical inputs.
type BacktestRun struct {
	Symbol    string
	StartDate time.Time
	EndDate   time.Time
	Params    StrategyParams
	Trades    []Trade
	Metrics   SummaryMetrics
}

// SweepRow is one persisted run summary, keyed by the full parameter+window
// tuple. At most one row exists per key per model version (upsert, not
// append).
type SweepRow struct {
	ModelVersion string
	Symbol       string
	Horizon      string // holding-period bucket label, e.g. "3d"
	Side         Side
	MinMentions  int64
	PosThresh    float64
	StartDate    time.Time
	EndDate      time.Time

	Trades        int64
	TotalReturn   float64
	AvgReturn     float64 // mean raw per-trade return
	Sharpe        float64
	WinRate       float64
	MaxDrawdown   float64
	Volatility    float64
	SentimentCorr float64
	Uplift        float64
}

// HorizonLabel returns the holding-period bucket label for a number of days.
func HorizonLabel(days int) string {
	return fmt.Sprintf("%dd", days)
}
