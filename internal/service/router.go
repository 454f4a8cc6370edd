package service

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

type requestIDKey struct{}

// NewRouter builds the gorilla/mux router for the classification
// service, following
// _examples/sawpanic-cryptorun/internal/interfaces/http/server.go's
// middleware stack (request ID, structured logging) trimmed to this
// service's two routes plus a metrics endpoint. metricsHandler is built
// by the caller against its own prometheus.Registry, never the global
// default registry (SPEC_FULL.md §2.7); nil omits the route entirely.
func (s *Service) NewRouter(metricsHandler http.Handler) *mux.Router {
	router := mux.NewRouter()
	router.Use(s.requestIDMiddleware)
	router.Use(s.loggingMiddleware)

	router.HandleFunc("/health", s.Health).Methods(http.MethodGet)
	router.HandleFunc("/classify/batch", s.ClassifyBatch).Methods(http.MethodPost)
	if metricsHandler != nil {
		router.Handle("/metrics", metricsHandler).Methods(http.MethodGet)
	}

	return router
}

func (s *Service) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.New().String()
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Service) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapper := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(wrapper, r)

		s.Log.Info().
			Str("request_id", requestIDFrom(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", wrapper.status).
			Dur("duration", time.Since(start)).
			Msg("handled request")
	})
}

func requestIDFrom(ctx context.Context) string {
	if v, ok := ctx.Value(requestIDKey{}).(string); ok {
		return v
	}
	return ""
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
