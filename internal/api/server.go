// Package api serves the latest clustering result and the stored run history
// over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/banshee-data/dbscan/internal/cluster"
	"github.com/banshee-data/dbscan/internal/httputil"
	"github.com/banshee-data/dbscan/internal/monitoring"
	"github.com/banshee-data/dbscan/internal/report"
	"github.com/banshee-data/dbscan/internal/store"
)

// RunStore is the part of the run history the API reads.
type RunStore interface {
	ListRuns(ctx context.Context, limit int) ([]*store.Run, error)
	GetRun(ctx context.Context, runID string) (*store.Run, error)
	LoadPoints(ctx context.Context, runID string) ([]cluster.Point, error)
}

// PointJSON is the wire form of one clustered point.
type PointJSON struct {
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	ClusterID int     `json:"cluster_id"`
}

// Server exposes the chart at / and JSON under /api/.
type Server struct {
	chart *report.ChartHandler
	runs  RunStore

	mu      sync.RWMutex
	current *store.Run
	points  []PointJSON
}

// NewServer creates a server. runs may be nil when no history is kept.
func NewServer(runs RunStore, o report.ChartOptions) *Server {
	return &Server{
		chart: report.NewChartHandler(o),
		runs:  runs,
	}
}

// Publish replaces the result served at / and /api/result.
func (s *Server) Publish(source string, params cluster.Params, points []cluster.Point, res cluster.Result) {
	s.chart.Publish(points, res.MaxClusterID)

	run := store.NewRun(source, params, points, res)
	wire := toPointJSON(points)

	s.mu.Lock()
	s.current = run
	s.points = wire
	s.mu.Unlock()
}

func toPointJSON(points []cluster.Point) []PointJSON {
	out := make([]PointJSON, len(points))
	for i, p := range points {
		out[i] = PointJSON{X: p.X, Y: p.Y, ClusterID: p.ClusterID}
	}
	return out
}

// ServeMux returns the routes of the server.
func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/{$}", s.chart)
	mux.HandleFunc("/api/result", s.showResult)
	mux.HandleFunc("/api/result/points", s.showResultPoints)
	mux.HandleFunc("/api/runs", s.listRuns)
	mux.HandleFunc("/api/runs/{id}", s.showRun)
	mux.HandleFunc("/api/runs/{id}/points", s.showRunPoints)
	return mux
}

func (s *Server) showResult(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	s.mu.RLock()
	run := s.current
	s.mu.RUnlock()

	if run == nil {
		httputil.ServiceUnavailable(w, "no result published yet")
		return
	}
	httputil.WriteJSONOK(w, run)
}

func (s *Server) showResultPoints(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	s.mu.RLock()
	points := s.points
	s.mu.RUnlock()

	if points == nil {
		httputil.ServiceUnavailable(w, "no result published yet")
		return
	}
	httputil.WriteJSONOK(w, points)
}

func (s *Server) listRuns(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	if s.runs == nil {
		httputil.NotFound(w, "run history is not enabled")
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			httputil.BadRequest(w, fmt.Sprintf("invalid limit %q", v))
			return
		}
		limit = n
	}

	runs, err := s.runs.ListRuns(r.Context(), limit)
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to list runs: %v", err))
		return
	}
	if runs == nil {
		runs = []*store.Run{}
	}
	httputil.WriteJSONOK(w, runs)
}

func (s *Server) showRun(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	if s.runs == nil {
		httputil.NotFound(w, "run history is not enabled")
		return
	}

	run, err := s.runs.GetRun(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	httputil.WriteJSONOK(w, run)
}

func (s *Server) showRunPoints(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	if s.runs == nil {
		httputil.NotFound(w, "run history is not enabled")
		return
	}

	points, err := s.runs.LoadPoints(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	httputil.WriteJSONOK(w, toPointJSON(points))
}

func (s *Server) writeStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, store.ErrRunNotFound) {
		httputil.NotFound(w, err.Error())
		return
	}
	httputil.InternalServerError(w, err.Error())
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

// LoggingMiddleware logs method, path, status, and duration
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		monitoring.Debugf("[%d] %s %s %vms",
			lrw.statusCode, r.Method, r.RequestURI,
			float64(time.Since(start).Nanoseconds())/1e6)
	})
}
