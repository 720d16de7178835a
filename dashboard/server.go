// server.go
package dashboard

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/spf13/afero"

	"github.com/searchlens/searchlens/core"
	"github.com/searchlens/searchlens/dataset"
	"github.com/searchlens/searchlens/querier"
)

// Server wires the dashboard API: per-page view endpoints over the cached
// datasets, raw CSV export, and the ad-hoc SQL endpoint.
type Server struct {
	Loader      *dataset.Loader
	QueryClient core.QueryClient
	DataFS      afero.Fs
	DataDir     string
	UIFS        afero.Fs
}

// NewServer creates a new server instance. uiDir may be empty to disable
// static UI serving.
func NewServer(fs afero.Fs, dataDir string, loader *dataset.Loader, qc core.QueryClient, uiDir string) *Server {
	s := &Server{
		Loader:      loader,
		QueryClient: qc,
		DataFS:      fs,
		DataDir:     dataDir,
	}
	if uiDir != "" {
		s.UIFS = afero.NewBasePathFs(fs, uiDir)
	}
	return s
}

var reqId int32

// Routes builds the router for all dashboard endpoints.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(corsMiddleware)

	r.Get("/health", s.HandleHealth)
	r.Post("/query", s.HandleQuery)
	r.Get("/data/{dataset}", s.HandleDatasetExport)

	r.Route("/api", func(r chi.Router) {
		r.Get("/overview", s.page(func(v *Views) (any, error) { return v.Overview(), nil }))
		r.Get("/monthly", s.page(func(v *Views) (any, error) { return v.MonthlyTrend(), nil }))
		r.Get("/weekly", s.page(func(v *Views) (any, error) { return v.WeeklyTrend(), nil }))
		r.Get("/clusters", s.page(func(v *Views) (any, error) { return v.Clusters(), nil }))
		r.Get("/content-types", s.page(func(v *Views) (any, error) { return v.ContentTypes(), nil }))
		r.Get("/positions", s.page(func(v *Views) (any, error) { return v.Positions() }))
		r.Get("/pages", s.HandleTopPages)
		r.Get("/sections", s.HandleSections)
	})

	if s.UIFS != nil {
		r.Get("/*", s.HandleUI)
	}
	return r
}

// page adapts a view builder into a JSON handler with the shared load and
// error plumbing.
func (s *Server) page(build func(*Views) (any, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := core.WithDefaultLogger(r.Context(), fmt.Sprintf("req-%d", atomic.AddInt32(&reqId, 1)))

		b, err := s.Loader.Load(ctx)
		if err != nil {
			core.Errorf(ctx, "load failed: %v", err)
			sendErrorResponse(w, err.Error(), http.StatusServiceUnavailable)
			return
		}

		out, err := build(NewViews(b))
		if err != nil {
			var oor *core.OutOfRangeError
			if errors.As(err, &oor) {
				sendErrorResponse(w, err.Error(), http.StatusUnprocessableEntity)
				return
			}
			sendErrorResponse(w, err.Error(), http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(out)
	}
}

// HandleTopPages serves /api/pages with n and min_impressions parameters.
func (s *Server) HandleTopPages(w http.ResponseWriter, r *http.Request) {
	n := intParam(r, "n", 20)
	minImpr := intParam(r, "min_impressions", 0)
	s.page(func(v *Views) (any, error) {
		return v.TopPages(n, float64(minImpr)), nil
	})(w, r)
}

// HandleSections serves /api/sections with an n parameter.
func (s *Server) HandleSections(w http.ResponseWriter, r *http.Request) {
	n := intParam(r, "n", 15)
	s.page(func(v *Views) (any, error) {
		return v.Sections(n), nil
	})(w, r)
}

// QueryRequest represents a query API request
type QueryRequest struct {
	Query  string `json:"query"`
	Format string `json:"format,omitempty"`
}

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// HandleQuery handles the /query endpoint
func (s *Server) HandleQuery(w http.ResponseWriter, r *http.Request) {
	ctx := core.WithDefaultLogger(r.Context(), fmt.Sprintf("req-%d", atomic.AddInt32(&reqId, 1)))

	var req QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendErrorResponse(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Query == "" {
		sendErrorResponse(w, "Missing query parameter", http.StatusBadRequest)
		return
	}

	format := r.URL.Query().Get("format")
	if format == "" {
		format = req.Format
	}

	results, err := s.QueryClient.Query(ctx, req.Query)
	if err != nil {
		sendErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := querier.Formatter(format)(results, w); err != nil {
		core.Errorf(ctx, "failed to write query response: %v", err)
	}
}

// HandleDatasetExport streams a raw CSV export so the frontend can offer
// downloads of the exact data behind each page.
func (s *Server) HandleDatasetExport(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "dataset")
	file, ok := dataset.Tables[name]
	if !ok {
		sendErrorResponse(w, fmt.Sprintf("unknown dataset %q", name), http.StatusNotFound)
		return
	}

	f, err := s.DataFS.Open(filepath.Join(s.DataDir, file))
	if err != nil {
		sendErrorResponse(w, "dataset unavailable", http.StatusServiceUnavailable)
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file))
	io.Copy(w, f)
}

// Health check endpoint
func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// HandleUI serves the static dashboard frontend.
func (s *Server) HandleUI(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/" {
		f, err := s.UIFS.Open("index.html")
		if err != nil {
			http.NotFound(w, r)
			return
		}
		defer f.Close()
		io.Copy(w, f)
		return
	}
	http.FileServer(afero.NewHttpFs(s.UIFS)).ServeHTTP(w, r)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Send an error response in JSON format
func sendErrorResponse(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponse{
		Error: message,
	})
}

func intParam(r *http.Request, name string, def int) int {
	if raw := r.URL.Query().Get(name); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			return n
		}
	}
	return def
}
