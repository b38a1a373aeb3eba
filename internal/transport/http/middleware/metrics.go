package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"zoskagram/internal/metrics"
)

// Metrics records request count and latency per route pattern. Labels use
// the pattern (e.g. /api/posts/{id}) so ids do not blow up cardinality.
func Metrics(next http.Handler) http.Handler {
	m := metrics.Get()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		startTime := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		// Numeric status so queries like status=~"5.." work
		statusStr := strconv.Itoa(status)

		m.HTTPRequestsTotal.WithLabelValues(r.Method, route, statusStr).Inc()
		m.HTTPRequestDuration.WithLabelValues(r.Method, route, statusStr).Observe(time.Since(startTime).Seconds())
	})
}
