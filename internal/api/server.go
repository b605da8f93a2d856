// File path: internal/api/server.go
package api

import (
	"encoding/json"
	"errors"
	"expvar"
	"net/http"
	"strconv"
	"time"

	chi "github.com/go-chi/chi/v5"

	"github.com/activitylens/lens/internal/capture"
	"github.com/activitylens/lens/internal/catalog"
	"github.com/activitylens/lens/internal/common"
	"github.com/activitylens/lens/internal/pipeline"
)

var errInvalidLimit = errors.New("limit must be a positive integer")

// Server exposes read-only visibility into the running pipeline: progress,
// record counts, recent runs, captured logs, and expvar counters.
type Server struct {
	router   chi.Router
	store    *capture.Store
	progress func() pipeline.ProgressSnapshot
	catalog  *catalog.Store
}

// NewServer wires the status routes. The catalog may be nil when run history
// is disabled.
func NewServer(store *capture.Store, progress func() pipeline.ProgressSnapshot, cat *catalog.Store) *Server {
	s := &Server{
		router:   chi.NewRouter(),
		store:    store,
		progress: progress,
		catalog:  cat,
	}
	s.routes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	logger := common.Logger()
	s.router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			logger.Debug("request", "method", r.Method, "path", r.URL.Path, "dur", time.Since(start), "remote", r.RemoteAddr)
		})
	})

	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	s.router.Get("/v1/status", s.handleStatus)
	s.router.Get("/v1/runs", s.handleRuns)
	s.router.Get("/v1/logs", s.handleLogs)
	s.router.Handle("/debug/vars", expvar.Handler())
}

type statusResponse struct {
	Records  int                       `json:"records"`
	Pending  pendingCounts             `json:"pending"`
	Progress pipeline.ProgressSnapshot `json:"progress"`
}

type pendingCounts struct {
	Extraction int `json:"extraction"`
	Summary    int `json:"summary"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	records := s.store.Records()
	resp := statusResponse{Records: len(records)}
	for _, rec := range records {
		if rec.NeedsExtraction() {
			resp.Pending.Extraction++
		}
		if rec.NeedsSummary() {
			resp.Pending.Summary++
		}
	}
	if s.progress != nil {
		resp.Progress = s.progress()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, errInvalidLimit)
			return
		}
		limit = parsed
	}
	if s.catalog == nil {
		writeJSON(w, http.StatusOK, []catalog.Run{})
		return
	}
	runs, err := s.catalog.RecentRuns(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if runs == nil {
		runs = []catalog.Run{}
	}
	writeJSON(w, http.StatusOK, runs)
}

func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, common.LogEntries())
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, err error) {
	logger := common.Logger()
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "status", status, "error", err)
	} else {
		logger.Warn("request failed", "status", status, "error", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
