package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"edgelab/internal/store"
)

// WriteJSON writes the machine-readable form of the report.
func WriteJSON(w io.Writer, r Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// WriteText writes the human-readable tabular form of the report: the
// ranked cohort table, the symbol/horizon/side summary, and the window
// summary.
func WriteText(w io.Writer, r Report) error {
	if err := writeSection(w, "COHORTS", cohortHeaders, cohortCells(r.Cohorts)); err != nil {
		return err
	}
	if err := writeSection(w, "SYMBOLS", symbolHeaders, symbolCells(r.Symbols)); err != nil {
		return err
	}
	return writeSection(w, "WINDOWS", windowHeaders, windowCells(r.Windows))
}

var cohortHeaders = []string{
	"SYMBOL", "HORIZON", "SIDE", "MIN_MENT", "POS_THR",
	"RUNS", "WINDOWS", "AVG_SHARPE", "STD_SHARPE", "ROBUST_SHARPE",
	"AVG_WIN%", "AVG_RET", "UPLIFT", "AVG_TRD", "TOTAL_TRD",
}

func cohortCells(rows []CohortRow) [][]string {
	out := make([][]string, len(rows))
	for i, c := range rows {
		out[i] = []string{
			c.Symbol,
			c.Horizon,
			string(c.Side),
			fmt.Sprintf("%d", c.MinMentions),
			formatFloat(c.PosThresh),
			fmt.Sprintf("%d", c.Runs),
			fmt.Sprintf("%d", c.Windows),
			formatFloat(c.AvgSharpe),
			formatFloat(c.StdSharpe),
			formatFloat(c.RobustSharpe),
			formatPct(c.AvgWinRate),
			formatFloat(c.AvgReturn),
			formatFloat(c.AvgUplift),
			formatFloat(c.AvgTrades),
			FormatInt(int(c.TotalTrades)),
		}
	}
	return out
}

var symbolHeaders = []string{
	"SYMBOL", "HORIZON", "SIDE", "RUNS", "AVG_SHARPE", "AVG_WIN%", "AVG_RET", "TOTAL_TRD",
}

func symbolCells(rows []SymbolRow) [][]string {
	out := make([][]string, len(rows))
	for i, s := range rows {
		out[i] = []string{
			s.Symbol,
			s.Horizon,
			string(s.Side),
			fmt.Sprintf("%d", s.Runs),
			formatFloat(s.AvgSharpe),
			formatPct(s.AvgWinRate),
			formatFloat(s.AvgReturn),
			FormatInt(int(s.TotalTrades)),
		}
	}
	return out
}

var windowHeaders = []string{
	"START", "END", "RUNS", "AVG_SHARPE", "AVG_WIN%", "AVG_RET", "TOTAL_TRD",
}

func windowCells(rows []WindowRow) [][]string {
	out := make([][]string, len(rows))
	for i, wr := range rows {
		out[i] = []string{
			wr.StartDate.UTC().Format(store.DateFormat),
			wr.EndDate.UTC().Format(store.DateFormat),
			fmt.Sprintf("%d", wr.Runs),
			formatFloat(wr.AvgSharpe),
			formatPct(wr.AvgWinRate),
			formatFloat(wr.AvgReturn),
			FormatInt(int(wr.TotalTrades)),
		}
	}
	return out
}

func writeSection(w io.Writer, title string, headers []string, rows [][]string) error {
	if _, err := fmt.Fprintf(w, "%s (%d)\n", title, len(rows)); err != nil {
		return err
	}
	if err := writeTable(w, headers, rows); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w)
	return err
}

// writeTable renders a table with column widths computed from the widest
// cell per column. Cells are left-justified and separated by " | "; a
// dash-filled rule line sits under the header.
func writeTable(w io.Writer, headers []string, rows [][]string) error {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	writeRow := func(cells []string) error {
		parts := make([]string, len(cells))
		for i, cell := range cells {
			parts[i] = pad(cell, widths[i])
		}
		_, err := fmt.Fprintln(w, strings.Join(parts, " | "))
		return err
	}

	if err := writeRow(headers); err != nil {
		return err
	}

	total := 0
	for _, wd := range widths {
		total += wd
	}
	total += 3 * (len(widths) - 1)
	if _, err := fmt.Fprintln(w, strings.Repeat("-", total)); err != nil {
		return err
	}

	for _, row := range rows {
		if err := writeRow(row); err != nil {
			return err
		}
	}
	return nil
}

func pad(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

func formatFloat(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

func formatPct(v float64) string {
	return fmt.Sprintf("%.1f", v)
}

// FormatInt formats an integer with comma separators.
func FormatInt(n int) string {
	s := fmt.Sprintf("%d", n)
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}
	if len(s) <= 3 {
		if neg {
			return "-" + s
		}
		return s
	}
	var b strings.Builder
	start := len(s) % 3
	if start > 0 {
		b.WriteString(s[:start])
	}
	for i := start; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}
