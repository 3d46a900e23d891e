package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"edgelab/internal/domain"
)

func sampleReport() Report {
	return Report{
		Cohorts: []CohortRow{{
			Symbol: "AAPL", Horizon: "3d", Side: domain.SideLong,
			MinMentions: 10, PosThresh: 0.3,
			Runs: 4, Windows: 4,
			AvgSharpe: 1.25, StdSharpe: 0.4, RobustSharpe: 0.85,
			AvgWinRate: 57.5, AvgReturn: 0.62, AvgUplift: 0.3,
			AvgTrades: 11.5, TotalTrades: 46,
		}},
		Symbols: []SymbolRow{{
			Symbol: "AAPL", Horizon: "3d", Side: domain.SideLong,
			Runs: 12, AvgSharpe: 0.9, AvgWinRate: 54.2, AvgReturn: 0.4, TotalTrades: 1234,
		}},
		Windows: []WindowRow{{
			StartDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			EndDate:   time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
			Runs:      6, AvgSharpe: 1.1, AvgWinRate: 55.0, AvgReturn: 0.5, TotalTrades: 72,
		}},
	}
}

func TestWriteTableLayout(t *testing.T) {
	var buf bytes.Buffer
	headers := []string{"A", "LONGHEADER", "C"}
	rows := [][]string{
		{"wide-cell-value", "x", "1"},
		{"y", "z", "22"},
	}
	if err := writeTable(&buf, headers, rows); err != nil {
		t.Fatalf("writeTable: %v", err)
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("table has %d lines, want 4 (header, rule, 2 rows)", len(lines))
	}

	// Column width follows the widest cell: "wide-cell-value" beats "A",
	// so the first separator sits after 15 padded characters.
	if idx := strings.Index(lines[0], " | "); idx != len("wide-cell-value") {
		t.Errorf("first column width = %d, want %d: %q", idx, len("wide-cell-value"), lines[0])
	}
	if !strings.Contains(lines[0], " | ") {
		t.Errorf("header missing space-surrounded pipe separators: %q", lines[0])
	}
	if strings.Trim(lines[1], "-") != "" {
		t.Errorf("rule line is not dash-filled: %q", lines[1])
	}
	if len(lines[1]) != len(lines[0]) {
		t.Errorf("rule line width %d != header width %d", len(lines[1]), len(lines[0]))
	}
	if !strings.Contains(lines[2], "wide-cell-value | x") {
		t.Errorf("row cells not separated correctly: %q", lines[2])
	}
}

func TestWriteTextSections(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteText(&buf, sampleReport()); err != nil {
		t.Fatalf("WriteText: %v", err)
	}
	out := buf.String()

	for _, want := range []string{"COHORTS (1)", "SYMBOLS (1)", "WINDOWS (1)"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing section %q", want)
		}
	}
	if !strings.Contains(out, "AAPL") {
		t.Error("output missing symbol cell")
	}
	if !strings.Contains(out, "2024-01-01") {
		t.Error("output missing window start date")
	}
	if !strings.Contains(out, "1,234") {
		t.Error("trade counts not comma-formatted")
	}
}

func TestWriteJSONRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, sampleReport()); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}

	var decoded Report
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("decoding report JSON: %v", err)
	}
	if len(decoded.Cohorts) != 1 || decoded.Cohorts[0].Symbol != "AAPL" {
		t.Errorf("decoded cohorts = %+v", decoded.Cohorts)
	}
	if decoded.Cohorts[0].RobustSharpe != 0.85 {
		t.Errorf("robust sharpe = %v, want 0.85", decoded.Cohorts[0].RobustSharpe)
	}
}

func TestFormatInt(t *testing.T) {
	cases := map[int]string{
		0: "0", 999: "999", 1000: "1,000", 1234567: "1,234,567", -4200: "-4,200",
	}
	for n, want := range cases {
		if got := FormatInt(n); got != want {
			t.Errorf("FormatInt(%d) = %q, want %q", n, got, want)
		}
	}
}
