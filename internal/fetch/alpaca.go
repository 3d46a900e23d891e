// Package fetch implements the price-source collaborator: a thin backfill
// adapter that pulls daily closes from the Alpaca market-data API into the
// local price store. It contains only I/O glue; retries and rate limiting
// live here, never in the simulation or aggregation core.
package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"

	"edgelab/internal/domain"
	"edgelab/internal/store"
)

// PriceBackfiller fetches daily close prices for a symbol set and writes
// them to a PriceStore.
type PriceBackfiller struct {
	client  *marketdata.Client
	store   store.PriceStore
	limiter *rate.Limiter
	log     *slog.Logger
}

// NewPriceBackfiller creates a backfiller with the given Alpaca credentials
// and target store. requestsPerSec bounds the API call rate; non-positive
// values fall back to 5.
func NewPriceBackfiller(apiKey, apiSecret, dataURL string, ps store.PriceStore, requestsPerSec int, log *slog.Logger) *PriceBackfiller {
	opts := marketdata.ClientOpts{
		APIKey:    apiKey,
		APISecret: apiSecret,
	}
	if dataURL != "" {
		opts.BaseURL = dataURL
	}
	if requestsPerSec <= 0 {
		requestsPerSec = 5
	}

	return &PriceBackfiller{
		client:  marketdata.NewClient(opts),
		store:   ps,
		limiter: rate.NewLimiter(rate.Every(time.Second), requestsPerSec),
		log:     log,
	}
}

// Run backfills daily closes for all symbols in [start, end]. Each symbol is
// fetched with exponential-backoff retries; a symbol that keeps failing is
// logged and skipped so the rest of the backfill proceeds. Returns the
// number of price points written.
func (b *PriceBackfiller) Run(ctx context.Context, symbols []string, start, end time.Time) (int, error) {
	written := 0
	for _, symbol := range symbols {
		if err := ctx.Err(); err != nil {
			return written, err
		}

		points, err := b.fetchSymbol(ctx, symbol, start, end)
		if err != nil {
			b.log.Error("backfill failed", "symbol", symbol, "error", err)
			continue
		}
		if len(points) == 0 {
			b.log.Debug("no bars returned", "symbol", symbol)
			continue
		}

		if err := b.store.WritePrices(ctx, points); err != nil {
			return written, fmt.Errorf("writing prices for %s: %w", symbol, err)
		}
		written += len(points)
		b.log.Info("backfilled", "symbol", symbol, "points", len(points))
	}
	return written, nil
}

// fetchSymbol pulls daily bars for one symbol with rate limiting and
// exponential backoff.
func (b *PriceBackfiller) fetchSymbol(ctx context.Context, symbol string, start, end time.Time) ([]domain.PricePoint, error) {
	if err := b.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var bars []marketdata.Bar
	operation := func() error {
		var err error
		bars, err = b.client.GetBars(symbol, marketdata.GetBarsRequest{
			TimeFrame: marketdata.OneDay,
			Start:     start,
			End:       end,
		})
		return err
	}

	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = 30 * time.Second
	if err := backoff.Retry(operation, backoff.WithContext(policy, ctx)); err != nil {
		return nil, fmt.Errorf("GetBars %s: %w", symbol, err)
	}

	points := make([]domain.PricePoint, 0, len(bars))
	for _, bar := range bars {
		points = append(points, domain.PricePoint{
			Symbol:    strings.ToUpper(symbol),
			Timestamp: bar.Timestamp.UTC(),
			Close:     bar.Close,
		})
	}
	return points, nil
}
