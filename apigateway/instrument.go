package gateway

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var instrumentOnce sync.Once

var (
	requestsCount *prometheus.CounterVec
	responseTime  prometheus.Histogram
	responseSize  prometheus.Histogram
	requestSize   prometheus.Histogram
)

func registerCollector[T prometheus.Collector](c T) T {
	if err := prometheus.Register(c); err != nil {
		if already, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := already.ExistingCollector.(T); ok {
				return existing
			}
		}
	}
	return c
}

func initInstrumentation() {
	instrumentOnce.Do(func() {
		requestsCount = registerCollector(prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "accountd",
			Subsystem: "request",
			Name:      "requests_count",
			Help:      "Number of requests per each endpoint",
		}, []string{"code", "method", "handler", "host", "url"}))

		responseTime = registerCollector(prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "accountd",
			Subsystem: "response",
			Name:      "response_time_hist",
			Help:      "accountd response duration",
		}))

		responseSize = registerCollector(prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "accountd",
			Subsystem: "response",
			Name:      "size_histogram",
			Help:      "accountd response size",
		}))

		requestSize = registerCollector(prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "accountd",
			Subsystem: "request",
			Name:      "size_hist",
			Help:      "Request size instrumenter",
		}))
	})
}

// Instrumentation observes request counts, sizes and latency per endpoint.
func Instrumentation() gin.HandlerFunc {
	initInstrumentation()
	return func(c *gin.Context) {
		if c.Request.URL.Path == "/metrics" {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()
		duration := float64(time.Since(start)) * 1e-6 // to millisecond

		status := strconv.Itoa(c.Writer.Status())
		requestsCount.WithLabelValues(status, c.Request.Method, c.HandlerName(), c.Request.Host, c.Request.URL.Path).Inc()
		responseTime.Observe(duration)
		responseSize.Observe(float64(c.Writer.Size()))
		requestSize.Observe(float64(c.Request.ContentLength))
	}
}
