package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"doc-analyzer/internal/domain"

	"github.com/google/uuid"
)

type contextKey string

const requestIDContextKey contextKey = "request_id"

const requestIDHeader = "X-Request-ID"

// RequestMiddleware tags every request with an ID, logs its outcome and
// turns handler panics into 500 responses.
type RequestMiddleware struct {
	logger domain.Logger
}

func NewRequestMiddleware(logger domain.Logger) *RequestMiddleware {
	return &RequestMiddleware{logger: logger}
}

func (m *RequestMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()

		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}
		w.Header().Set(requestIDHeader, id)
		ctx := context.WithValue(r.Context(), requestIDContextKey, id)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		defer func() {
			if p := recover(); p != nil {
				m.logger.Error("Handler panic", fmt.Errorf("%v", p), "request_id", id, "path", r.URL.Path)
				if !rec.wroteHeader {
					writeError(rec, http.StatusInternalServerError, "Internal server error")
				}
			}
			m.logger.Info("Request handled",
				"request_id", id,
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.status,
				"duration_ms", time.Since(started).Milliseconds(),
			)
		}()

		next.ServeHTTP(rec, r.WithContext(ctx))
	})
}

// GetRequestID extracts the request ID set by RequestMiddleware.
func GetRequestID(r *http.Request) (string, bool) {
	id, ok := r.Context().Value(requestIDContextKey).(string)
	return id, ok
}

type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (r *statusRecorder) WriteHeader(code int) {
	if !r.wroteHeader {
		r.status = code
		r.wroteHeader = true
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if !r.wroteHeader {
		r.wroteHeader = true
	}
	return r.ResponseWriter.Write(b)
}
