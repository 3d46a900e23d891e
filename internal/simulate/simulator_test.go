package simulate

import (
	"math"
	"reflect"
	"testing"
	"time"

	"edgelab/internal/domain"
)

func day(d int) time.Time {
	return time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, d-1)
}

// risingSeries builds a strictly rising price series $100 -> $110 over ten
// days with flat sentiment at the given score.
func risingSeries(score float64) ([]domain.SentimentPoint, []domain.PricePoint) {
	var sents []domain.SentimentPoint
	var prices []domain.PricePoint
	for i := 1; i <= 10; i++ {
		sents = append(sents, domain.SentimentPoint{
			Symbol: "TEST", Date: day(i), Score: score, Mentions: 50,
		})
		prices = append(prices, domain.PricePoint{
			Symbol: "TEST", Timestamp: day(i), Close: 100 + float64(i-1)*10.0/9.0,
		})
	}
	return sents, prices
}

func TestRisingMarketFlatSentiment(t *testing.T) {
	sents, prices := risingSeries(0.5)
	params := domain.StrategyParams{
		SentimentThreshold: 0.3,
		HoldingPeriodDays:  3,
		PositionSize:       0.1,
		Side:               domain.SideLong,
	}

	run := Simulate("TEST", params, sents, prices, day(1), day(10))

	if len(run.Trades) == 0 {
		t.Fatal("expected trades in a rising market with triggering sentiment")
	}
	first := run.Trades[0]
	if !first.EntryDate.Equal(day(1)) {
		t.Errorf("first entry = %v, want %v", first.EntryDate, day(1))
	}
	if first.EntryPrice != 100 {
		t.Errorf("first entry price = %v, want 100", first.EntryPrice)
	}
	if !first.ExitDate.Equal(day(4)) {
		t.Errorf("first exit = %v, want %v", first.ExitDate, day(4))
	}
	if first.ExitPrice != prices[3].Close {
		t.Errorf("first exit price = %v, want day-4 close %v", first.ExitPrice, prices[3].Close)
	}
	if first.ReturnPct <= 0 {
		t.Errorf("first trade return = %v, want > 0", first.ReturnPct)
	}
	if run.Metrics.WinRate != 100 {
		t.Errorf("win rate = %v, want 100", run.Metrics.WinRate)
	}
}

func TestEmptyPriceSeries(t *testing.T) {
	sents, _ := risingSeries(0.5)
	params := domain.StrategyParams{SentimentThreshold: 0.3, HoldingPeriodDays: 3, PositionSize: 0.1}

	run := Simulate("TEST", params, sents, nil, day(1), day(10))

	if len(run.Trades) != 0 {
		t.Fatalf("expected no trades, got %d", len(run.Trades))
	}
	m := run.Metrics
	if m.TotalReturn != 0 || m.SharpeRatio != 0 || m.MaxDrawdown != 0 || m.WinRate != 0 {
		t.Errorf("expected all-zero metrics for empty prices, got %+v", m)
	}
}

func TestThresholdNeverReached(t *testing.T) {
	sents, prices := risingSeries(0.1)
	params := domain.StrategyParams{SentimentThreshold: 0.9, HoldingPeriodDays: 3, PositionSize: 0.1}

	run := Simulate("TEST", params, sents, prices, day(1), day(10))
	if len(run.Trades) != 0 {
		t.Fatalf("expected no trades when threshold is never reached, got %d", len(run.Trades))
	}
}

func TestSingleTradeCorrelationIsZero(t *testing.T) {
	// One trade cannot define a correlation; it resolves to 0.
	sents := []domain.SentimentPoint{{Symbol: "TEST", Date: day(1), Score: 0.4, Mentions: 10}}
	prices := []domain.PricePoint{
		{Symbol: "TEST", Timestamp: day(1), Close: 100},
		{Symbol: "TEST", Timestamp: day(5), Close: 105},
	}
	params := domain.StrategyParams{SentimentThreshold: 0.3, HoldingPeriodDays: 3, PositionSize: 1}

	run := Simulate("TEST", params, sents, prices, day(1), day(5))
	if len(run.Trades) != 1 {
		t.Fatalf("expected exactly 1 trade, got %d", len(run.Trades))
	}
	if got := run.Trades[0].ReturnPct; math.Abs(got-5) > 1e-9 {
		t.Errorf("return = %v, want 5", got)
	}
	if run.Metrics.SentimentCorrelation != 0 {
		t.Errorf("single-trade correlation = %v, want 0", run.Metrics.SentimentCorrelation)
	}
}

func TestDeterminism(t *testing.T) {
	sents, prices := risingSeries(0.5)
	params := domain.StrategyParams{SentimentThreshold: 0.3, HoldingPeriodDays: 3, PositionSize: 0.1}

	a := Simulate("TEST", params, sents, prices, day(1), day(10))
	b := Simulate("TEST", params, sents, prices, day(1), day(10))

	if !reflect.DeepEqual(a, b) {
		t.Error("two identical simulations produced different runs")
	}
}

func TestTradeClosureInvariant(t *testing.T) {
	sents, prices := risingSeries(0.5)
	// Holding period longer than the series forces liquidation on the last day.
	params := domain.StrategyParams{SentimentThreshold: 0.3, HoldingPeriodDays: 30, PositionSize: 0.1}

	run := Simulate("TEST", params, sents, prices, day(1), day(10))
	if len(run.Trades) != 1 {
		t.Fatalf("expected 1 force-closed trade, got %d", len(run.Trades))
	}
	for _, tr := range run.Trades {
		if tr.ExitDate.Before(tr.EntryDate) {
			t.Errorf("trade exit %v before entry %v", tr.ExitDate, tr.EntryDate)
		}
		if tr.ExitDate.IsZero() {
			t.Error("trade with no recorded exit")
		}
	}
	if !run.Trades[0].ExitDate.Equal(day(10)) {
		t.Errorf("forced exit = %v, want final day %v", run.Trades[0].ExitDate, day(10))
	}
}

func TestWinRateBound(t *testing.T) {
	sents, prices := risingSeries(0.5)
	for _, hp := range []int{1, 2, 3, 7, 30} {
		params := domain.StrategyParams{SentimentThreshold: 0.3, HoldingPeriodDays: hp, PositionSize: 0.1}
		run := Simulate("TEST", params, sents, prices, day(1), day(10))
		if wr := run.Metrics.WinRate; wr < 0 || wr > 100 {
			t.Errorf("holding %d: win rate %v out of [0, 100]", hp, wr)
		}
	}
}

func TestMissingSentimentNeverEnters(t *testing.T) {
	// Price days without sentiment data average to score 0.
	_, prices := risingSeries(0)
	params := domain.StrategyParams{SentimentThreshold: 0.3, HoldingPeriodDays: 3, PositionSize: 0.1}

	run := Simulate("TEST", params, nil, prices, day(1), day(10))
	if len(run.Trades) != 0 {
		t.Fatalf("expected no trades without sentiment, got %d", len(run.Trades))
	}
}

func TestMinMentionsFilter(t *testing.T) {
	_, prices := risingSeries(0)
	sents := []domain.SentimentPoint{
		{Symbol: "TEST", Date: day(1), Score: 0.9, Mentions: 2}, // below the bar
	}
	params := domain.StrategyParams{
		SentimentThreshold: 0.3, HoldingPeriodDays: 3, PositionSize: 0.1, MinMentions: 5,
	}

	run := Simulate("TEST", params, sents, prices, day(1), day(10))
	if len(run.Trades) != 0 {
		t.Fatalf("expected low-mention sentiment to be ignored, got %d trades", len(run.Trades))
	}
}

func TestDateAverageAcrossPoints(t *testing.T) {
	// Two qualifying points on the same date average to the triggering score.
	_, prices := risingSeries(0)
	sents := []domain.SentimentPoint{
		{Symbol: "TEST", Date: day(1), Score: 0.2, Mentions: 10},
		{Symbol: "TEST", Date: day(1), Score: 0.8, Mentions: 10},
	}
	params := domain.StrategyParams{SentimentThreshold: 0.4, HoldingPeriodDays: 3, PositionSize: 0.1}

	run := Simulate("TEST", params, sents, prices, day(1), day(10))
	if len(run.Trades) == 0 {
		t.Fatal("expected entry on averaged score 0.5 > 0.4")
	}
	if got := run.Trades[0].SentimentAtEntry; math.Abs(got-0.5) > 1e-9 {
		t.Errorf("entry score = %v, want 0.5", got)
	}
}

func TestShortSideMirrors(t *testing.T) {
	// Falling prices with strongly negative sentiment: the short side wins.
	var sents []domain.SentimentPoint
	var prices []domain.PricePoint
	for i := 1; i <= 10; i++ {
		sents = append(sents, domain.SentimentPoint{Symbol: "TEST", Date: day(i), Score: -0.6, Mentions: 50})
		prices = append(prices, domain.PricePoint{Symbol: "TEST", Timestamp: day(i), Close: 110 - float64(i)})
	}
	params := domain.StrategyParams{
		SentimentThreshold: 0.3, HoldingPeriodDays: 3, PositionSize: 0.1, Side: domain.SideShort,
	}

	run := Simulate("TEST", params, sents, prices, day(1), day(10))
	if len(run.Trades) == 0 {
		t.Fatal("expected short entries on negative sentiment")
	}
	for _, tr := range run.Trades {
		if tr.ReturnPct <= 0 {
			t.Errorf("short trade in falling market returned %v, want > 0", tr.ReturnPct)
		}
	}
	if run.Metrics.WinRate != 100 {
		t.Errorf("win rate = %v, want 100", run.Metrics.WinRate)
	}
}

func TestUnsortedPricesAreSorted(t *testing.T) {
	sents, prices := risingSeries(0.5)
	// Shuffle deterministically: reverse.
	rev := make([]domain.PricePoint, len(prices))
	for i, p := range prices {
		rev[len(prices)-1-i] = p
	}
	params := domain.StrategyParams{SentimentThreshold: 0.3, HoldingPeriodDays: 3, PositionSize: 0.1}

	a := Simulate("TEST", params, sents, prices, day(1), day(10))
	b := Simulate("TEST", params, sents, rev, day(1), day(10))
	if !reflect.DeepEqual(a.Trades, b.Trades) {
		t.Error("simulation depends on input order; series must be sorted before the pass")
	}
}
