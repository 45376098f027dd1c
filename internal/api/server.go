// Package api exposes the HTTP interface for the feed service.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vmakarov/tgparse/internal/config"
	"github.com/vmakarov/tgparse/internal/feed"
	"github.com/vmakarov/tgparse/internal/metrics"
)

// FeedProvider is the pipeline behind the /posts endpoint.
type FeedProvider interface {
	GetPosts(ctx context.Context, channel string, limit int, before string) (feed.Result, error)
}

// Server wires HTTP handlers to the feed pipeline.
type Server struct {
	router chi.Router
	feed   FeedProvider
	cfg    config.Config
	logger *zap.Logger
}

// NewServer constructs a Server with middleware and routes.
func NewServer(provider FeedProvider, cfg config.Config, logger *zap.Logger) *Server {
	s := &Server{
		feed:   provider,
		cfg:    cfg,
		logger: logger,
	}
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoverMiddleware)
	r.Use(timeoutMiddleware(60 * time.Second))

	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())
	r.Get("/posts", s.getPosts)

	s.router = r
	return s
}

// Handler returns the Router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) readyz(w http.ResponseWriter, _ *http.Request) {
	// Stateless service: ready as soon as the process serves.
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) getPosts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if !q.Has("channel") {
		writeError(w, http.StatusBadRequest, feed.ErrMissingChannel.Error())
		return
	}
	limit := s.cfg.Feed.DefaultLimit
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}
	before := strings.TrimSpace(q.Get("before"))

	result, err := s.feed.GetPosts(r.Context(), q.Get("channel"), limit, before)
	if err != nil {
		s.writeFeedError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) writeFeedError(w http.ResponseWriter, r *http.Request, err error) {
	var upstream *feed.UpstreamError
	switch {
	case errors.Is(err, feed.ErrMissingChannel), errors.Is(err, feed.ErrInvalidChannel):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &upstream):
		s.logger.Warn("upstream fetch failed",
			zap.String("path", r.URL.Path),
			zap.Error(upstream.Err),
		)
		writeJSON(w, http.StatusBadGateway, map[string]string{
			"error":   "failed to fetch/parse channel page",
			"details": upstream.Err.Error(),
		})
	default:
		s.logger.Error("unexpected feed error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := uuid.NewString()
		ctx := context.WithValue(r.Context(), requestIDKey{}, reqID)
		w.Header().Set("X-Request-ID", reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(ww, r)
		metrics.ObserveHTTPRequest(r.Method, r.URL.Path, ww.status, time.Since(start))
		s.logger.Info("request completed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.status),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
	})
}

func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("panic recovered", zap.Any("error", rec))
				writeError(w, http.StatusInternalServerError, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func timeoutMiddleware(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, d, "request timed out")
	}
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

type requestIDKey struct{}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		zap.L().Error("write JSON failed", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
