// Package server provides the preview HTTP server: it serves the published
// site directory, streams livereload events, and exposes health and metrics
// endpoints.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"
)

// BuildStatus tracks the latest build result for error display.
type BuildStatus struct {
	mu           sync.RWMutex
	lastError    error
	hasGoodBuild bool
}

// SetError records a failed build.
func (bs *BuildStatus) SetError(err error) {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	bs.lastError = err
}

// SetSuccess records a successful build.
func (bs *BuildStatus) SetSuccess() {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	bs.lastError = nil
	bs.hasGoodBuild = true
}

// Status returns the current error state.
func (bs *BuildStatus) Status() (err error, hasGoodBuild bool) {
	bs.mu.RLock()
	defer bs.mu.RUnlock()
	return bs.lastError, bs.hasGoodBuild
}

// Options configures the preview server.
type Options struct {
	Port      int
	OutputDir string
	// Metrics is mounted at /metrics when non-nil.
	Metrics http.Handler
}

// Server is the preview HTTP server.
type Server struct {
	opts       Options
	status     *BuildStatus
	liveReload *LiveReloadHub
	httpServer *http.Server
	startTime  time.Time
}

// New creates a preview server. status may be shared with the rebuild worker.
func New(opts Options, status *BuildStatus) *Server {
	if status == nil {
		status = &BuildStatus{}
	}
	return &Server{
		opts:       opts,
		status:     status,
		liveReload: NewLiveReloadHub(),
	}
}

// LiveReload returns the hub used to announce finished rebuilds.
func (s *Server) LiveReload() *LiveReloadHub {
	return s.liveReload
}

// Start begins listening. It returns once the listener is bound; request
// serving continues in the background until Stop.
func (s *Server) Start(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.Handle("/livereload", s.liveReload)
	mux.HandleFunc("/healthz", s.handleHealth)
	if s.opts.Metrics != nil {
		mux.Handle("/metrics", s.opts.Metrics)
	}
	mux.HandleFunc("/", s.handleSite)

	addr := fmt.Sprintf("127.0.0.1:%d", s.opts.Port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}

	s.startTime = time.Now()
	s.httpServer = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if serveErr := s.httpServer.Serve(listener); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			slog.Error("preview server stopped", "error", serveErr)
		}
	}()

	slog.Info("preview server listening", "addr", "http://"+addr)
	return nil
}

// Stop shuts the server down gracefully.
func (s *Server) Stop(ctx context.Context) error {
	s.liveReload.Close()
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// handleSite serves the published output dir, or the build error page while
// no good build exists.
func (s *Server) handleSite(w http.ResponseWriter, r *http.Request) {
	buildErr, hasGoodBuild := s.status.Status()
	if buildErr != nil && !hasGoodBuild {
		s.writeBuildErrorPage(w, buildErr)
		return
	}
	http.FileServer(http.Dir(s.opts.OutputDir)).ServeHTTP(w, r)
}

func (s *Server) writeBuildErrorPage(w http.ResponseWriter, buildErr error) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusInternalServerError)
	fmt.Fprintf(w, `<!doctype html>
<html><head><title>Build failed</title></head>
<body><h1>Build failed</h1><pre>%s</pre>
<p>Fix the error and save; the page reloads automatically.</p>
<script>new EventSource("/livereload").onmessage = function(){ location.reload(); };</script>
</body></html>`, html.EscapeString(buildErr.Error()))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	buildErr, hasGoodBuild := s.status.Status()

	w.Header().Set("Content-Type", "application/json")
	payload := map[string]any{
		"status":         "ok",
		"uptime":         time.Since(s.startTime).String(),
		"has_good_build": hasGoodBuild,
		"clients":        s.liveReload.ClientCount(),
	}
	if buildErr != nil {
		payload["status"] = "degraded"
		payload["last_error"] = buildErr.Error()
	}
	_ = json.NewEncoder(w).Encode(payload)
}
