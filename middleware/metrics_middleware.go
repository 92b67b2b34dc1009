package middleware

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"objrpc/message"
)

// MetricsMiddleware records request counts by method and response status,
// plus a latency histogram per method. Pass prometheus.DefaultRegisterer
// unless the caller owns its own registry (tests do).
func MetricsMiddleware(reg prometheus.Registerer) Middleware {
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "objrpc_requests_total",
		Help: "RPC requests by method and response status.",
	}, []string{"method", "status"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "objrpc_request_duration_seconds",
		Help:    "RPC request handling latency by method.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method"})
	reg.MustRegister(requests, duration)

	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *message.Request) *message.Response {
			start := time.Now()
			resp := next(ctx, req)
			requests.WithLabelValues(req.Method, resp.Status).Inc()
			duration.WithLabelValues(req.Method).Observe(time.Since(start).Seconds())
			return resp
		}
	}
}
