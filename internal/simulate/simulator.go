// Package simulate implements the trade simulator: a single-pass replay of a
// daily sentiment series against a daily price series under one parameter
// set, producing an ordered trade list and summary performance metrics.
package simulate

import (
	"sort"
	"time"

	"edgelab/internal/domain"
	"edgelab/internal/metrics"
)

const hoursPerDay = 24

// Simulate replays the sentiment and price series for one symbol under the
// given parameters, restricted to [start, end] (zero times are unbounded).
// It holds a single position at a time: enter on the first price day whose
// same-date average sentiment triggers the threshold, exit once the holding
// period has elapsed or on the final price day (forced liquidation). The
// result is deterministic for identical inputs; empty inputs yield an empty
// run with zero metrics, never an error.
func Simulate(
	symbol string,
	params domain.StrategyParams,
	sentiment []domain.SentimentPoint,
	prices []domain.PricePoint,
	start, end time.Time,
) domain.BacktestRun {
	run := domain.BacktestRun{
		Symbol:    symbol,
		StartDate: start,
		EndDate:   end,
		Params:    params,
	}

	days := restrictAndSort(prices, start, end)
	if len(days) == 0 {
		return run
	}

	dayScore := averageByDate(sentiment, params.MinMentions)

	inPosition := false
	var entryDate time.Time
	var entryPrice, entryScore float64

	for i, p := range days {
		last := i == len(days)-1

		if inPosition {
			held := dayDiff(entryDate, p.Timestamp)
			if held >= params.HoldingPeriodDays || last {
				run.Trades = append(run.Trades, closeTrade(
					entryDate, p.Timestamp, entryPrice, p.Close, entryScore, params,
				))
				inPosition = false
			}
		}

		// Entry is evaluated in the same pass, including on the day a
		// position just closed. The final price day never opens: there is
		// no later day left to close it.
		if !inPosition && !last {
			score := dayScore[dateKey(p.Timestamp)]
			if triggers(score, params) {
				inPosition = true
				entryDate = p.Timestamp
				entryPrice = p.Close
				entryScore = score
			}
		}
	}

	run.Metrics = summarize(run.Trades, days, params, start, end)
	return run
}

// triggers reports whether a day's average sentiment score opens a position
// for the configured side.
func triggers(score float64, params domain.StrategyParams) bool {
	if params.Side == domain.SideShort {
		return score < -params.SentimentThreshold
	}
	return score > params.SentimentThreshold
}

// closeTrade builds the immutable trade record for a round trip. Short
// trades profit from falling prices, so their return is negated.
func closeTrade(entryDate, exitDate time.Time, entryPrice, exitPrice, score float64, params domain.StrategyParams) domain.Trade {
	var retPct float64
	if entryPrice != 0 {
		retPct = (exitPrice - entryPrice) / entryPrice * 100
	}
	if params.Side == domain.SideShort {
		retPct = -retPct
	}
	return domain.Trade{
		EntryDate:        entryDate,
		ExitDate:         exitDate,
		EntryPrice:       entryPrice,
		ExitPrice:        exitPrice,
		ReturnPct:        retPct,
		SentimentAtEntry: score,
		PositionSize:     params.PositionSize,
	}
}

// summarize derives the run-level metrics from the trade list. Weighted
// returns (ReturnPct x PositionSize) feed the total/average figures; the
// sentiment correlation pairs entry scores with raw unweighted returns.
func summarize(trades []domain.Trade, days []domain.PricePoint, params domain.StrategyParams, start, end time.Time) domain.SummaryMetrics {
	var m domain.SummaryMetrics

	windowDays := dayDiff(start, end)
	if len(days) > 1 && days[0].Close != 0 {
		m.BuyHoldReturn = (days[len(days)-1].Close - days[0].Close) / days[0].Close * 100
	}

	if len(trades) == 0 {
		return m
	}

	weighted := make([]float64, len(trades))
	raw := make([]float64, len(trades))
	scores := make([]float64, len(trades))
	wins := 0
	for i, t := range trades {
		weighted[i] = t.WeightedReturn()
		raw[i] = t.ReturnPct
		scores[i] = t.SentimentAtEntry
		if t.ReturnPct > 0 {
			wins++
		}
		m.TotalReturn += weighted[i]
	}

	m.AnnualizedReturn = m.TotalReturn * (365 / float64(max(1, windowDays)))
	m.Volatility = metrics.PopStdDev(weighted)
	m.SharpeRatio = metrics.SharpeLike(weighted)
	m.WinRate = 100 * float64(wins) / float64(len(trades))
	m.SentimentCorrelation = metrics.PearsonCorrelation(scores, raw)

	// Max drawdown here is the worst single weighted trade return, not a
	// running peak-to-trough figure.
	for _, w := range weighted {
		if w < m.MaxDrawdown {
			m.MaxDrawdown = w
		}
	}

	avgRaw := metrics.Mean(raw)
	prorated := 0.0
	if windowDays > 0 {
		prorated = m.BuyHoldReturn * float64(params.HoldingPeriodDays) / float64(windowDays)
	}
	m.Uplift = avgRaw - prorated

	return m
}

// restrictAndSort returns the price points inside [start, end] in ascending
// timestamp order. Zero bounds are open. The input slice is not mutated.
func restrictAndSort(prices []domain.PricePoint, start, end time.Time) []domain.PricePoint {
	out := make([]domain.PricePoint, 0, len(prices))
	for _, p := range prices {
		if !start.IsZero() && p.Timestamp.Before(start) {
			continue
		}
		if !end.IsZero() && p.Timestamp.After(end) {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out
}

// averageByDate computes the mean score per calendar date across all points
// meeting the min-mentions bar. Dates with no qualifying points are simply
// absent; lookups then see the zero value, which never triggers an entry at
// a positive threshold.
func averageByDate(points []domain.SentimentPoint, minMentions int64) map[string]float64 {
	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, sp := range points {
		if sp.Mentions < minMentions {
			continue
		}
		k := dateKey(sp.Date)
		sums[k] += sp.Score
		counts[k]++
	}
	avg := make(map[string]float64, len(sums))
	for k, sum := range sums {
		avg[k] = sum / float64(counts[k])
	}
	return avg
}

func dateKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// dayDiff returns the whole calendar days between two instants, flooring
// toward zero.
func dayDiff(a, b time.Time) int {
	return int(b.Sub(a).Hours() / hoursPerDay)
}
