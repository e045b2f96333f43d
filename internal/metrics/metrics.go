package metrics

import (
	"strconv"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	initOnce sync.Once

	httpRequests *prometheus.CounterVec
	operations   *prometheus.CounterVec
)

// InitMetrics registers the application collectors. Safe to call more than once.
func InitMetrics() {
	initOnce.Do(func() {
		httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "filebox",
			Name:      "http_requests_total",
			Help:      "HTTP requests processed, partitioned by method and status.",
		}, []string{"method", "status"})

		operations = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "filebox",
			Name:      "operations_total",
			Help:      "Core store operations, partitioned by operation and outcome.",
		}, []string{"operation", "outcome"})

		prometheus.MustRegister(httpRequests, operations)
	})
}

// Middleware counts finished HTTP requests.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if httpRequests != nil {
			httpRequests.WithLabelValues(c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
		}
	}
}

// ObserveOperation records the outcome of a core operation such as upload or move.
func ObserveOperation(operation string, err error) {
	if operations == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	operations.WithLabelValues(operation, outcome).Inc()
}

// Register attaches the Prometheus metrics endpoint to the router.
func Register(router *gin.Engine, path string) {
	router.GET(path, gin.WrapH(promhttp.Handler()))
}
