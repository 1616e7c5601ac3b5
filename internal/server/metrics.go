package server

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "kouki",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by route and status code.",
	}, []string{"method", "route", "code"})
	metricLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "kouki",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency by route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})
	metricChatFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "kouki",
		Subsystem: "chat",
		Name:      "model_failures_total",
		Help:      "Chat turns that failed in the model runtime.",
	})
	metricChatTokens = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "kouki",
		Subsystem: "chat",
		Name:      "tokens_total",
		Help:      "Model tokens reported by the runtime.",
	}, []string{"direction"})
)

// instrument records request counts and latency keyed by the route pattern.
func instrument(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)
		status := c.Response().Status
		if he, ok := err.(*echo.HTTPError); ok {
			status = he.Code
		} else if err != nil {
			status = 500
		}
		route := c.Path()
		if route == "" {
			route = "unmatched"
		}
		method := c.Request().Method
		metricRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
		metricLatency.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
		return err
	}
}
