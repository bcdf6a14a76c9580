// Package server exposes refresh and search over a local HTTP JSON API.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/runnerr0/archistory/internal/snapshot"
	"github.com/runnerr0/archistory/internal/storage"
)

// Snapshots is the subset of snapshot.Manager the server needs.
type Snapshots interface {
	Refresh(ctx context.Context) []snapshot.Outcome
	Lookup(profile string) snapshot.Snapshot
	Profiles() []string
}

// Searcher runs a merged search.
type Searcher interface {
	Search(ctx context.Context, f storage.Filter) storage.SearchPage
}

// Options configures a Server.
type Options struct {
	Addr         string
	Version      string
	PerPage      int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	Snapshots    Snapshots
	Searcher     Searcher
	Logger       *slog.Logger
}

// Server is the HTTP front end.
type Server struct {
	opts   Options
	logger *slog.Logger
	mux    *http.ServeMux
}

// New creates a Server and registers its routes.
func New(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.PerPage < 1 {
		opts.PerPage = storage.DefaultPerPage
	}

	s := &Server{opts: opts, logger: opts.Logger, mux: http.NewServeMux()}
	s.mux.HandleFunc("GET /search", s.handleSearch)
	s.mux.HandleFunc("POST /refresh", s.handleRefresh)
	s.mux.HandleFunc("GET /status", s.handleStatus)
	return s
}

// Handler returns the root handler with request logging applied.
func (s *Server) Handler() http.Handler {
	return s.withRequestID(s.mux)
}

// Start listens on the configured address until ctx is cancelled, then
// shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.opts.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Start with a caller-provided listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  s.opts.ReadTimeout,
		WriteTimeout: s.opts.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("serving", "addr", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter, errs := storage.ParseFilter(storage.FilterParams{
		Keyword: q.Get("q"),
		Start:   q.Get("start"),
		End:     q.Get("end"),
		Profile: q.Get("profile"),
		Page:    q.Get("page"),
		PerPage: q.Get("per_page"),
	}, s.opts.Snapshots.Profiles(), s.opts.PerPage)

	for _, err := range errs {
		s.logger.Debug("search parameter replaced by default", "request_id", requestID(r), "error", err)
	}

	page := s.opts.Searcher.Search(r.Context(), filter)
	s.writeJSON(w, r, http.StatusOK, storage.NewPageJSON(page))
}

// RefreshResponse is the body returned after a refresh.
type RefreshResponse struct {
	Success           bool     `json:"success"`
	Message           string   `json:"message"`
	ProfilesAvailable []string `json:"profiles_available"`
}

// RefreshMessage renders the human summary of a refresh.
func RefreshMessage(available []string) string {
	if len(available) == 0 {
		return "Refreshed history for: none"
	}
	return "Refreshed history for: " + strings.Join(available, ", ")
}

// NewRefreshResponse summarizes refresh outcomes. Failed profiles are left
// out of ProfilesAvailable; the refresh itself always succeeds.
func NewRefreshResponse(outcomes []snapshot.Outcome) RefreshResponse {
	available := snapshot.Available(outcomes)
	return RefreshResponse{
		Success:           true,
		Message:           RefreshMessage(available),
		ProfilesAvailable: available,
	}
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, http.StatusOK, NewRefreshResponse(s.opts.Snapshots.Refresh(r.Context())))
}

type profileStatus struct {
	Profile   string `json:"profile"`
	Snapshot  string `json:"snapshot"`
	Exists    bool   `json:"exists"`
	SizeBytes int64  `json:"size_bytes"`
	Modified  string `json:"modified,omitempty"`
}

type statusResponse struct {
	Status   string          `json:"status"`
	Version  string          `json:"version"`
	Profiles []profileStatus `json:"profiles"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	out := statusResponse{Status: "ok", Version: s.opts.Version, Profiles: []profileStatus{}}

	for _, profile := range s.opts.Snapshots.Profiles() {
		snap := s.opts.Snapshots.Lookup(profile)
		ps := profileStatus{Profile: profile, Snapshot: snap.Path, Exists: snap.Exists}
		if snap.Exists {
			if info, err := os.Stat(snap.Path); err == nil {
				ps.SizeBytes = info.Size()
				ps.Modified = info.ModTime().UTC().Format(time.RFC3339)
			}
		}
		out.Profiles = append(out.Profiles, ps)
	}

	s.writeJSON(w, r, http.StatusOK, out)
}

func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("write response", "request_id", requestID(r), "error", err)
	}
}
