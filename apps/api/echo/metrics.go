package echoapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	apiRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "freetime",
		Subsystem: "api",
		Name:      "requests_total",
		Help:      "Total number of HTTP requests by method, route and status code.",
	}, []string{"method", "route", "status"})

	apiRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "freetime",
		Subsystem: "api",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latencies in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	apiActiveRequests = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "freetime",
		Subsystem: "api",
		Name:      "active_requests",
		Help:      "Number of HTTP requests being served.",
	})

	rateLimitedRequests = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "freetime",
		Subsystem: "api",
		Name:      "rate_limited_requests_total",
		Help:      "Requests rejected by the rate limiter.",
	})
)

func metricsHandler() http.Handler {
	return promhttp.Handler()
}

// metricsMiddleware tracks HTTP request metrics, labelled by route pattern.
func metricsMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		start := time.Now()
		apiActiveRequests.Inc()
		defer apiActiveRequests.Dec()

		err := next(ctx)
		if err != nil {
			// let the error handler write the response so the status code is known
			ctx.Error(err)
		}

		route := ctx.Path()
		if route == "" {
			route = "unmatched"
		}
		status := strconv.Itoa(ctx.Response().Status)
		apiRequestDuration.WithLabelValues(ctx.Request().Method, route, status).Observe(time.Since(start).Seconds())
		apiRequestsTotal.WithLabelValues(ctx.Request().Method, route, status).Inc()
		return nil
	}
}
