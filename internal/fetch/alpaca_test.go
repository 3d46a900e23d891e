package fetch

import (
	"log/slog"
	"testing"

	"edgelab/internal/store"
)

func TestNewPriceBackfiller(t *testing.T) {
	ps := store.NewParquetStore(t.TempDir())
	b := NewPriceBackfiller("key", "secret", "", ps, 0, slog.New(slog.DiscardHandler))
	if b == nil {
		t.Fatal("NewPriceBackfiller returned nil")
	}
	if b.limiter == nil {
		t.Error("backfiller has no rate limiter")
	}
}
