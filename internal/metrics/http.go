package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

type httpMetrics struct {
	requests metric.Int64Counter
	duration metric.Float64Histogram
}

func newHTTPMetrics(meterProvider metric.MeterProvider, namespace string) (*httpMetrics, error) {
	meter := meterProvider.Meter(namespace)

	requests, err := meter.Int64Counter(
		instrumentName(namespace, "http_requests_total"),
		metric.WithDescription("Total number of HTTP requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	duration, err := meter.Float64Histogram(
		instrumentName(namespace, "http_request_duration_seconds"),
		metric.WithDescription("HTTP request duration in seconds, change streams excluded"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &httpMetrics{requests: requests, duration: duration}, nil
}

// HTTPMetricsMiddleware records requests by method, route pattern, status and
// collection. The collection label is only set on successful requests, since a failed
// one may name a collection that does not exist. Change streams are counted but kept
// out of the duration histogram because they stay open while a client listens.
// When the instruments cannot be created the middleware records nothing.
func HTTPMetricsMiddleware(meterProvider metric.MeterProvider, namespace string) gin.HandlerFunc {
	m, err := newHTTPMetrics(meterProvider, namespace)
	if err != nil {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		ctx := c.Request.Context()
		attrs := metric.WithAttributes(requestAttributes(c)...)
		m.requests.Add(ctx, 1, attrs)
		if !isChangeStream(c) {
			m.duration.Record(ctx, time.Since(start).Seconds(), attrs)
		}
	}
}

func requestAttributes(c *gin.Context) []attribute.KeyValue {
	status := c.Writer.Status()
	attrs := []attribute.KeyValue{
		attribute.String("method", c.Request.Method),
		attribute.String("path", routeLabel(c.FullPath())),
		attribute.String("status_code", strconv.Itoa(status)),
	}
	if collection := c.Param("collection"); collection != "" && status < http.StatusBadRequest {
		attrs = append(attrs, attribute.String("collection", collection))
	}
	return attrs
}

// routeLabel keeps the gin route pattern so record ids never become label values.
func routeLabel(fullPath string) string {
	if fullPath == "" {
		return "unmatched"
	}
	return fullPath
}

func isChangeStream(c *gin.Context) bool {
	return strings.HasPrefix(c.Writer.Header().Get("Content-Type"), "text/event-stream")
}
