// Package metrics exposes Prometheus instrumentation for planning runs and
// the HTTP surface.
package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

var (
	PointsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "horisont",
		Subsystem: "plan",
		Name:      "points_total",
		Help:      "Observation points planned, by method and outcome",
	}, []string{"method", "status"})

	LinesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "horisont",
		Subsystem: "plan",
		Name:      "lines_total",
		Help:      "Sight-lines sampled",
	})

	ExtentFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "horisont",
		Subsystem: "plan",
		Name:      "extent_failures_total",
		Help:      "Points that failed because the raster did not cover their sight-lines",
	})

	PointDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "horisont",
		Subsystem: "plan",
		Name:      "point_duration_seconds",
		Help:      "Time to profile one observation point",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	}, []string{"method"})

	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "horisont",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests processed",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "horisont",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
	}, []string{"method", "path"})
)

// Middleware records request metrics.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		path := c.Route().Path
		if path == "" {
			path = c.Path()
		}
		status := strconv.Itoa(c.Response().StatusCode())
		httpRequestsTotal.WithLabelValues(c.Method(), path, status).Inc()
		httpRequestDuration.WithLabelValues(c.Method(), path).Observe(time.Since(start).Seconds())

		return err
	}
}

// Handler serves the Prometheus registry.
func Handler() fiber.Handler {
	handler := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
	return func(c *fiber.Ctx) error {
		handler(c.Context())
		return nil
	}
}
