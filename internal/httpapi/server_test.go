package httpapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"edgelab/internal/domain"
	"edgelab/internal/report"
	"edgelab/internal/store"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	dir := t.TempDir()

	sq, err := store.NewSQLiteStore(filepath.Join(dir, "sweeps.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { sq.Close() })

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)
	for i, sym := range []string{"AAPL", "AAPL", "AAPL"} {
		row := domain.SweepRow{
			ModelVersion: "v1",
			Symbol:       sym,
			Horizon:      "3d",
			Side:         domain.SideLong,
			MinMentions:  10,
			PosThresh:    0.3,
			StartDate:    start.AddDate(0, i, 0),
			EndDate:      end.AddDate(0, i, 0),
			Trades:       10,
			Sharpe:       1.5,
			WinRate:      60,
		}
		if err := sq.UpsertRow(context.Background(), row); err != nil {
			t.Fatalf("UpsertRow: %v", err)
		}
	}

	ps := store.NewParquetStore(dir)
	if err := ps.WritePrices(context.Background(), []domain.PricePoint{
		{Symbol: "AAPL", Timestamp: start, Close: 100},
	}); err != nil {
		t.Fatalf("WritePrices: %v", err)
	}

	return NewServer(sq, ps, slog.New(slog.DiscardHandler))
}

func TestHandleReport(t *testing.T) {
	srv := httptest.NewServer(testServer(t).Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/report?model=v1&symbols=aapl")
	if err != nil {
		t.Fatalf("GET /api/report: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var rep report.Report
	if err := json.NewDecoder(resp.Body).Decode(&rep); err != nil {
		t.Fatalf("decoding report: %v", err)
	}
	if len(rep.Cohorts) != 1 {
		t.Fatalf("got %d cohorts, want 1", len(rep.Cohorts))
	}
	if rep.Cohorts[0].Symbol != "AAPL" {
		t.Errorf("cohort symbol = %q", rep.Cohorts[0].Symbol)
	}
}

func TestHandleReportBadDate(t *testing.T) {
	srv := httptest.NewServer(testServer(t).Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/report?start=01-02-2024")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestHandleSymbols(t *testing.T) {
	srv := httptest.NewServer(testServer(t).Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/symbols")
	if err != nil {
		t.Fatalf("GET /api/symbols: %v", err)
	}
	defer resp.Body.Close()

	var symbols []string
	if err := json.NewDecoder(resp.Body).Decode(&symbols); err != nil {
		t.Fatalf("decoding symbols: %v", err)
	}
	if len(symbols) != 1 || symbols[0] != "AAPL" {
		t.Errorf("symbols = %v, want [AAPL]", symbols)
	}
}
