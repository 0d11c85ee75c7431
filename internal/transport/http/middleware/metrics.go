package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

const metricsNS = "tours"

var (
	reqCount = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNS, Subsystem: "http", Name: "requests_total",
		Help: "HTTP requests by route, method and status code",
	}, []string{"route", "method", "code"})

	reqDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: metricsNS, Subsystem: "http", Name: "request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
	}, []string{"route", "method"})

	reqInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: metricsNS, Subsystem: "http", Name: "in_flight_requests",
		Help: "Requests currently being served",
	})
)

func init() { prometheus.MustRegister(reqCount, reqDuration, reqInFlight) }

// Metrics 以路由模板为 label；未匹配的路径统一记为 unmatched，防止 label 爆炸
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		reqInFlight.Inc()
		defer reqInFlight.Dec()

		began := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m := c.Request.Method
		reqCount.WithLabelValues(route, m, strconv.Itoa(c.Writer.Status())).Inc()
		reqDuration.WithLabelValues(route, m).Observe(time.Since(began).Seconds())
	}
}
