package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"

	"MarketPulse/internal/model"
	"MarketPulse/internal/recorder"
)

// RunLister lists recorded analysis runs.
type RunLister interface {
	RecentRuns(ctx context.Context, limit int) ([]recorder.RunSummary, error)
}

// Server exposes the latest snapshot over HTTP.
type Server struct {
	store *Store
	runs  RunLister
}

// New creates a Server. runs may be nil, which disables /api/v1/runs.
func New(store *Store, runs RunLister) *Server {
	return &Server{store: store, runs: runs}
}

// Router builds the HTTP routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)

	r.Get("/healthz", s.handleHealth)
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/snapshot", s.handleSnapshot)
		r.Get("/signals", s.handleSignals)
		r.Get("/signals/{symbol}", s.handleSignal)
		if s.runs != nil {
			r.Get("/runs", s.handleRuns)
		}
	})
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	resp := map[string]interface{}{"status": "ok"}
	if snap := s.store.Latest(); snap != nil {
		resp["last_run"] = snap.GeneratedAt
		resp["snapshot_status"] = snap.Status
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSnapshot(w http.ResponseWriter, _ *http.Request) {
	snap := s.store.Latest()
	if snap == nil {
		writeError(w, http.StatusNotFound, "no snapshot published yet")
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleSignals(w http.ResponseWriter, r *http.Request) {
	snap := s.store.Latest()
	if snap == nil {
		writeError(w, http.StatusNotFound, "no snapshot published yet")
		return
	}
	assetType := model.AssetType(strings.ToLower(r.URL.Query().Get("asset_type")))
	if assetType != "" && !assetType.Valid() {
		writeError(w, http.StatusBadRequest, "asset_type must be crypto or stock")
		return
	}

	signals := make([]model.Signal, 0, len(snap.Signals))
	for _, sig := range snap.Signals {
		if assetType == "" || sig.AssetType == assetType {
			signals = append(signals, sig)
		}
	}
	writeJSON(w, http.StatusOK, signals)
}

func (s *Server) handleSignal(w http.ResponseWriter, r *http.Request) {
	snap := s.store.Latest()
	if snap == nil {
		writeError(w, http.StatusNotFound, "no snapshot published yet")
		return
	}
	symbol := strings.ToUpper(chi.URLParam(r, "symbol"))
	for _, sig := range snap.Signals {
		if sig.Symbol == symbol {
			writeJSON(w, http.StatusOK, sig)
			return
		}
	}
	writeError(w, http.StatusNotFound, "no signal for "+symbol)
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 500 {
			writeError(w, http.StatusBadRequest, "limit must be between 1 and 500")
			return
		}
		limit = n
	}
	runs, err := s.runs.RecentRuns(r.Context(), limit)
	if err != nil {
		log.Errorf("list runs: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to list runs")
		return
	}
	if runs == nil {
		runs = []recorder.RunSummary{}
	}
	writeJSON(w, http.StatusOK, runs)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warnf("encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		log.WithFields(log.Fields{
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     ww.Status(),
			"duration":   time.Since(start),
			"request_id": middleware.GetReqID(r.Context()),
		}).Debug("http request")
	})
}
