package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/superdango/carbon-footprint/internal/monitoring"
)

// statusRecorder captures the status code written by a handler
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(code int) {
	rec.status = code
	rec.ResponseWriter.WriteHeader(code)
}

// instrument records the duration and status of every request served by next.
func instrument(name string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		duration := time.Since(start)
		monitoring.RecordHTTPRequest(name, rec.status, duration)
		slog.Debug("request served", "handler", name, "method", r.Method, "status", rec.status, "duration_ms", duration.Milliseconds())
	})
}
