// Package ops serves liveness, readiness and build information over HTTP.
package ops

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"runtime"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/m3rciful/trainbot/core/buildinfo"
	"github.com/m3rciful/trainbot/core/logger"
)

const (
	checkTimeout    = 2 * time.Second
	shutdownTimeout = 5 * time.Second
)

// Check reports whether a dependency is reachable.
type Check func(ctx context.Context) error

// Server is the ops HTTP endpoint.
type Server struct {
	addr   string
	checks map[string]Check
	srv    *http.Server
}

// New returns a server for addr. Checks are run by /readyz.
func New(addr string, checks map[string]Check) *Server {
	s := &Server{addr: addr, checks: checks}
	s.srv = &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Router wires the ops routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestLog)

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/version", s.handleVersion)
	return r
}

// Start listens in the background until Shutdown is called.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	logger.Info(ctx, logger.CompOps, "ops.listen", slog.String("addr", ln.Addr().String()))
	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(ctx, logger.CompOps, "ops.serve", slog.Any("err", err))
		}
	}()
	return nil
}

// Shutdown stops the server, waiting for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()
	return s.srv.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	names := make([]string, 0, len(s.checks))
	for name := range s.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	status := http.StatusOK
	results := make(map[string]string, len(names))
	for _, name := range names {
		ctx, cancel := context.WithTimeout(r.Context(), checkTimeout)
		err := s.checks[name](ctx)
		cancel()
		if err != nil {
			status = http.StatusServiceUnavailable
			results[name] = err.Error()
			logger.Warn(r.Context(), logger.CompOps, "ready.check",
				slog.String("check", name),
				slog.String("outcome", "fail"),
				slog.Any("err", err),
			)
			continue
		}
		results[name] = "ok"
	}
	respondJSON(w, status, map[string]any{"status": logger.Status(statusErr(status)), "checks": results})
}

func (s *Server) handleVersion(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"version":    buildinfo.Version,
		"commit":     buildinfo.Commit,
		"date":       buildinfo.Date,
		"go_version": runtime.Version(),
	})
}

var errNotReady = errors.New("not ready")

func statusErr(status int) error {
	if status != http.StatusOK {
		return errNotReady
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func requestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		if !logger.ShouldSampleDebug() {
			return
		}
		logger.Debug(r.Context(), logger.CompOps, "http.request",
			slog.String("rid", middleware.GetReqID(r.Context())),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("code", ww.Status()),
			slog.Duration("duration", time.Since(start)),
		)
	})
}
