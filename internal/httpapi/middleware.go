package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"ridepulse/internal/metrics"
)

// statusRecorder captures the written status code for instrumentation.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(code int) {
	rec.status = code
	rec.ResponseWriter.WriteHeader(code)
}

// instrument stamps a request ID onto the context and records request
// counters and latency under the route pattern, not the raw path.
func (handler *Handler) instrument(pattern string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		ctx := handler.withReqID(r.Context(), r)
		next(rec, r.WithContext(ctx))

		status := strconv.Itoa(rec.status)
		metrics.HTTPRequestsTotal.WithLabelValues(r.Method, pattern, status).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(r.Method, pattern, status).Observe(time.Since(start).Seconds())
	}
}
