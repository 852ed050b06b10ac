package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	prom "github.com/reubenai/dealsense/internal/infrastructure/monitoring/prometheus"
)

// Metrics records request counts and latency per route pattern. The
// chi route pattern is used instead of the raw path so metrics stay
// low-cardinality.
func Metrics(m *prom.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			start := time.Now()
			next.ServeHTTP(rec, r)

			pattern := chi.RouteContext(r.Context()).RoutePattern()
			if pattern == "" {
				pattern = "unmatched"
			}
			m.ObserveHTTP(r.Method, pattern, strconv.Itoa(rec.status), time.Since(start))
		})
	}
}
