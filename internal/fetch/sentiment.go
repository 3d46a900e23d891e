package fetch

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"edgelab/internal/domain"
	"edgelab/internal/store"
	"edgelab/internal/util"
)

// ImportSentimentCSV loads externally-scored sentiment rows from a CSV file
// into the sentiment store, tagged with the given model version. The file
// must have a header row with at least the columns symbol, date, score and
// mentions (any order, case-insensitive; extra columns are ignored). Dates
// are YYYY-MM-DD. Returns the number of points written.
//
// Scoring itself happens upstream; this is operator glue for getting a
// scored series into the local store.
func ImportSentimentCSV(ctx context.Context, ss store.SentimentStore, path, modelVersion string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return 0, fmt.Errorf("reading CSV header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"symbol", "date", "score", "mentions"} {
		if _, ok := cols[required]; !ok {
			return 0, fmt.Errorf("CSV missing required column %q", required)
		}
	}

	var points []domain.SentimentPoint
	line := 1
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("reading CSV line %d: %w", line+1, err)
		}
		line++

		date, err := util.ParseDate(record[cols["date"]])
		if err != nil {
			return 0, fmt.Errorf("line %d: %w", line, err)
		}
		score, err := strconv.ParseFloat(record[cols["score"]], 64)
		if err != nil {
			return 0, fmt.Errorf("line %d: invalid score %q: %w", line, record[cols["score"]], err)
		}
		if score < -1 || score > 1 {
			return 0, fmt.Errorf("line %d: score %v outside [-1, 1]", line, score)
		}
		mentions, err := strconv.ParseInt(record[cols["mentions"]], 10, 64)
		if err != nil {
			return 0, fmt.Errorf("line %d: invalid mentions %q: %w", line, record[cols["mentions"]], err)
		}

		points = append(points, domain.SentimentPoint{
			Symbol:       strings.ToUpper(strings.TrimSpace(record[cols["symbol"]])),
			Date:         date,
			Score:        score,
			Mentions:     mentions,
			ModelVersion: modelVersion,
		})
	}

	if err := ss.WriteSentiment(ctx, points); err != nil {
		return 0, fmt.Errorf("writing sentiment: %w", err)
	}
	return len(points), nil
}
