// Package metrics exposes Prometheus instruments for HTTP traffic and store
// operations on a dedicated registry.
package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// Collector holds the application's instruments. It implements
// database.Observer so the store layer reports into it.
type Collector struct {
	registry *prometheus.Registry

	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
	HTTPInflight prometheus.Gauge

	DBOperations *prometheus.CounterVec
	DBDuration   *prometheus.HistogramVec
	DBIndexes    *prometheus.CounterVec
}

func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		HTTPInflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_inflight_requests",
			Help:      "HTTP requests currently being served",
		}),
		DBOperations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "db_operations_total",
				Help:      "Total number of document store operations",
			},
			[]string{"operation", "collection", "status"},
		),
		DBDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "db_operation_duration_seconds",
				Help:      "Document store operation duration in seconds",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
			},
			[]string{"operation", "collection"},
		),
		DBIndexes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "db_index_provisioning_total",
				Help:      "Index provisioning attempts by outcome",
			},
			[]string{"collection", "index", "status"},
		),
	}

	registry.MustRegister(
		c.HTTPRequests,
		c.HTTPDuration,
		c.HTTPInflight,
		c.DBOperations,
		c.DBDuration,
		c.DBIndexes,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

func (c *Collector) ObserveOperation(collection, operation string, took time.Duration, err error) {
	c.DBOperations.WithLabelValues(operation, collection, status(err)).Inc()
	c.DBDuration.WithLabelValues(operation, collection).Observe(took.Seconds())
}

func (c *Collector) ObserveIndex(collection, index string, err error) {
	c.DBIndexes.WithLabelValues(collection, index, status(err)).Inc()
}

func status(err error) string {
	switch {
	case err == nil:
		return "ok"
	case mongo.IsTimeout(err):
		return "timeout"
	case mongo.IsDuplicateKeyError(err):
		return "duplicate"
	case mongo.IsNetworkError(err):
		return "network"
	case errors.Is(err, mongo.ErrNoDocuments):
		return "not_found"
	default:
		return "error"
	}
}

// Middleware records count, latency and in-flight gauge per matched route.
// Unmatched paths share one label so random URLs cannot grow the series.
func (c *Collector) Middleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		start := time.Now()
		c.HTTPInflight.Inc()
		defer c.HTTPInflight.Dec()

		err := ctx.Next()

		code := ctx.Response().StatusCode()
		var fe *fiber.Error
		if errors.As(err, &fe) {
			code = fe.Code
		} else if err != nil {
			code = fiber.StatusInternalServerError
		}

		route := "unmatched"
		if r := ctx.Route(); r != nil && r.Path != "" && r.Path != "/" {
			route = r.Path
		}
		method := ctx.Method()
		c.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
		c.HTTPDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
		return err
	}
}
