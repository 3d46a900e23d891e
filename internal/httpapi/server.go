// Package httpapi serves read-only JSON endpoints over the sweep results so
// the report can be pulled into notebooks or dashboards without shelling out
// to the CLI.
package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"edgelab/internal/domain"
	"edgelab/internal/report"
	"edgelab/internal/store"
	"edgelab/internal/util"
)

// Server serves the results HTTP API.
type Server struct {
	sweeps store.SweepStore
	prices store.PriceStore
	log    *slog.Logger
}

// NewServer creates a results API server over the given stores.
func NewServer(sweeps store.SweepStore, prices store.PriceStore, log *slog.Logger) *Server {
	return &Server{sweeps: sweeps, prices: prices, log: log}
}

// RegisterRoutes registers all API routes on the given mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /api/symbols", s.handleSymbols)
	mux.HandleFunc("GET /api/report", s.handleReport)
}

// Handler returns an http.Handler with CORS middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	return corsMiddleware(mux)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encoding JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

func (s *Server) handleSymbols(w http.ResponseWriter, r *http.Request) {
	symbols, err := s.prices.ListSymbols(r.Context())
	if err != nil {
		s.log.Error("listing symbols", "error", err)
		writeError(w, http.StatusInternalServerError, "listing symbols")
		return
	}
	writeJSON(w, symbols)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	f, err := filterFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rep, err := report.Generate(r.Context(), s.sweeps, f)
	if err != nil {
		s.log.Error("generating report", "error", err)
		writeError(w, http.StatusInternalServerError, "generating report")
		return
	}
	writeJSON(w, rep)
}

// filterFromQuery maps URL query params onto a report filter. Param names
// mirror the CLI flags.
func filterFromQuery(r *http.Request) (report.Filter, error) {
	var f report.Filter
	q := r.URL.Query()

	f.ModelVersion = q.Get("model")
	f.Horizon = q.Get("horizon")
	f.Side = domain.Side(q.Get("side"))
	if v := q.Get("symbols"); v != "" {
		for _, s := range strings.Split(v, ",") {
			if s = strings.TrimSpace(s); s != "" {
				f.Symbols = append(f.Symbols, strings.ToUpper(s))
			}
		}
	}
	if v := q.Get("start"); v != "" {
		t, err := util.ParseDate(v)
		if err != nil {
			return report.Filter{}, err
		}
		f.StartFrom = t
	}
	if v := q.Get("end"); v != "" {
		t, err := util.ParseDate(v)
		if err != nil {
			return report.Filter{}, err
		}
		f.EndTo = t
	}
	if v := q.Get("min_trades"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return report.Filter{}, err
		}
		f.MinTrades = n
	}
	if v := q.Get("min_sharpe"); v != "" {
		x, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return report.Filter{}, err
		}
		f.MinSharpe = &x
	}
	if v := q.Get("min_win_rate"); v != "" {
		x, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return report.Filter{}, err
		}
		f.MinWinRate = &x
	}
	if v := q.Get("min_windows"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return report.Filter{}, err
		}
		f.MinWindows = n
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return report.Filter{}, err
		}
		f.Limit = n
	}
	f.OrderBy = report.OrderBy(q.Get("order"))

	return f, nil
}
