package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/okian/posturai/pkg/logger"
	"github.com/okian/posturai/pkg/metrics"
)

// MetricsMiddleware wraps a route handler to record request metrics under
// endpoint. Failed requests are counted by the API error code written by the
// handler (session_paused, backpressure, ...), or by a status class when the
// handler wrote none.
func MetricsMiddleware(next http.HandlerFunc, endpoint string) http.HandlerFunc {
	log := logger.GetOrNop().Named("http")
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &responseRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		durationMs := float64(time.Since(start).Microseconds()) / 1000
		status := strconv.Itoa(rec.status)
		metrics.RecordHTTPRequest(endpoint, r.Method, status)
		metrics.RecordHTTPRequestDuration(endpoint, r.Method, status, durationMs)

		if rec.status < http.StatusBadRequest {
			return
		}
		code := rec.code
		if code == "" {
			code = statusClass(rec.status)
		}
		metrics.RecordErrorByEndpoint(endpoint, r.Method, code)
		metrics.RecordErrorByComponent("http", code)

		if rec.status >= http.StatusInternalServerError {
			log.Error(r.Context(), "request failed",
				logger.String("endpoint", endpoint),
				logger.String("method", r.Method),
				logger.String("session", r.PathValue("id")),
				logger.Int("status", rec.status),
				logger.String("code", code))
		}
	}
}

// statusClass labels a failure whose handler did not write an API error body.
func statusClass(status int) string {
	switch {
	case status >= http.StatusInternalServerError:
		return "server_error"
	case status == http.StatusTooManyRequests:
		return "backpressure"
	case status == http.StatusNotFound:
		return "not_found"
	case status == http.StatusConflict:
		return "invalid_state"
	default:
		return "client_error"
	}
}

// responseRecorder captures the status and API error code of a response.
type responseRecorder struct {
	http.ResponseWriter
	status int
	code   string
}

func (rw *responseRecorder) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseRecorder) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	if err != nil {
		return n, fmt.Errorf("failed to write response: %w", err)
	}
	return n, nil
}

// setErrorCode lets writeError tag the response when it goes through the
// middleware.
func setErrorCode(w http.ResponseWriter, code string) {
	if rw, ok := w.(*responseRecorder); ok {
		rw.code = code
	}
}
