// Package api exposes the HTTP interface for the exposure checker.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/JakeFAU/blog-exposure-checker/internal/config"
	"github.com/JakeFAU/blog-exposure-checker/internal/job"
	"github.com/JakeFAU/blog-exposure-checker/internal/logging"
	"github.com/JakeFAU/blog-exposure-checker/internal/metrics"
	"github.com/JakeFAU/blog-exposure-checker/internal/search"
)

const (
	requestTimeout = 60 * time.Second

	msgKeywordRequired = "키워드를 입력해주세요."
	msgURLRequired     = "블로그 URL을 입력해주세요."
	msgDatesRequired   = "시작일과 종료일을 입력해주세요."
	msgRunActive       = "이미 실행 중인 작업이 있습니다."
	msgNoActiveRun     = "실행 중인 작업이 없습니다."
	msgRunStarted      = "노출 체크가 시작되었습니다."
	msgStopRequested   = "중단 요청됨"
)

// ExposureChecker runs a single exposure check.
type ExposureChecker interface {
	CheckExposure(ctx context.Context, keyword, targetURL string) search.ExposureResult
}

// JobControl is the batch job control surface.
type JobControl interface {
	Start(ctx context.Context, start, end string) error
	Status() job.Snapshot
	TogglePause() (job.Status, error)
	Stop() error
}

// Server wires HTTP handlers to the exposure checker and batch job.
type Server struct {
	router  chi.Router
	checker ExposureChecker
	jobs    JobControl
	logger  *zap.Logger
}

// NewServer constructs a Server with middleware and routes.
func NewServer(checker ExposureChecker, jobs JobControl, auth config.AuthConfig, logger *zap.Logger) *Server {
	s := &Server{
		checker: checker,
		jobs:    jobs,
		logger:  logging.OrNop(logger),
	}
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoverMiddleware)
	r.Use(metrics.Middleware)

	r.Get("/health", s.healthz)
	r.Get("/healthz", s.healthz)
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(timeoutMiddleware(requestTimeout))
		if auth.Enabled {
			r.Use(apiKeyMiddleware(auth.APIKey))
		}
		r.Post("/check-exposure", s.checkExposure)
		r.Post("/check-sheet", s.checkSheet)
		r.Get("/status", s.status)
		r.Post("/pause", s.pause)
		r.Post("/stop", s.stop)
	})

	s.router = r
	return s
}

// Handler returns the Router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type exposureRequest struct {
	Keyword string `json:"keyword"`
	BlogURL string `json:"blog_url"`
}

func (s *Server) checkExposure(w http.ResponseWriter, r *http.Request) {
	var req exposureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	keyword := strings.TrimSpace(req.Keyword)
	blogURL := strings.TrimSpace(req.BlogURL)
	if keyword == "" {
		s.writeError(w, http.StatusBadRequest, msgKeywordRequired)
		return
	}
	if blogURL == "" {
		s.writeError(w, http.StatusBadRequest, msgURLRequired)
		return
	}
	s.writeJSON(w, http.StatusOK, s.checker.CheckExposure(r.Context(), keyword, blogURL))
}

type sheetRequest struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

func (s *Server) checkSheet(w http.ResponseWriter, r *http.Request) {
	var req sheetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	start := strings.TrimSpace(req.StartDate)
	end := strings.TrimSpace(req.EndDate)
	if start == "" || end == "" {
		s.writeError(w, http.StatusBadRequest, msgDatesRequired)
		return
	}
	err := s.jobs.Start(r.Context(), start, end)
	switch {
	case errors.Is(err, job.ErrRunActive):
		s.writeError(w, http.StatusConflict, msgRunActive)
		return
	case errors.Is(err, job.ErrInvalidWindow):
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": msgRunStarted})
}

func (s *Server) status(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.jobs.Status())
}

func (s *Server) pause(w http.ResponseWriter, _ *http.Request) {
	status, err := s.jobs.TogglePause()
	if err != nil {
		s.writeError(w, http.StatusBadRequest, msgNoActiveRun)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"success": true, "status": status})
}

func (s *Server) stop(w http.ResponseWriter, _ *http.Request) {
	if err := s.jobs.Stop(); err != nil {
		s.writeError(w, http.StatusBadRequest, msgNoActiveRun)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": msgStopRequested})
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
		reqID, _ := r.Context().Value(requestIDKey{}).(string)
		s.logger.Info("request completed",
			zap.String("request_id", reqID),
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
				s.logger.Error("panic recovered", zap.Any("error", rec), zap.String("path", r.URL.Path))
				s.writeError(w, http.StatusInternalServerError, "internal server error")
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

func apiKeyMiddleware(expected string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get("X-API-Key")
			if key == "" {
				key = r.URL.Query().Get("api_key")
			}
			if key != expected {
				writeJSONTo(w, http.StatusForbidden, map[string]string{"detail": "unauthorized"}, nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	writeJSONTo(w, status, payload, s.logger)
}

// writeError uses the {"detail": ...} body the web client reads.
func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"detail": msg})
}

func writeJSONTo(w http.ResponseWriter, status int, payload any, logger *zap.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.OrNop(logger).Error("write JSON failed", zap.Error(err))
	}
}
