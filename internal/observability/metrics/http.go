package metrics

import (
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// Config carries the constant labels stamped on every metric.
type Config struct {
	ServiceName string
	Environment string
}

func (c Config) constLabels() prometheus.Labels {
	name := strings.TrimSpace(c.ServiceName)
	if name == "" {
		name = "shopbooks"
	}
	env := strings.TrimSpace(c.Environment)
	if env == "" {
		env = "unknown"
	}
	return prometheus.Labels{"service": name, "env": env}
}

// HTTPMetrics captures low-cardinality HTTP server metrics.
type HTTPMetrics struct {
	requestDuration *prometheus.HistogramVec
	inFlight        prometheus.Gauge
}

var (
	httpMetricsOnce sync.Once
	httpMetrics     *HTTPMetrics
)

// HTTP returns the process-wide HTTP metrics, registering the instruments
// on first use.
func HTTP(cfg Config) *HTTPMetrics {
	httpMetricsOnce.Do(func() {
		httpMetrics = newHTTPMetrics(prometheus.DefaultRegisterer, cfg)
	})
	return httpMetrics
}

func ResetHTTPMetricsForTest() {
	httpMetricsOnce = sync.Once{}
	httpMetrics = nil
}

func newHTTPMetrics(registerer prometheus.Registerer, cfg Config) *HTTPMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	constLabels := cfg.constLabels()

	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:        "http_server_duration_ms",
			Help:        "HTTP request duration in milliseconds.",
			Buckets:     []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
			ConstLabels: constLabels,
		},
		[]string{"endpoint", "status_code"},
	)
	inFlight := prometheus.NewGauge(prometheus.GaugeOpts{
		Name:        "http_server_in_flight",
		Help:        "HTTP requests currently being served.",
		ConstLabels: constLabels,
	})
	registerer.MustRegister(requestDuration, inFlight)

	return &HTTPMetrics{
		requestDuration: requestDuration,
		inFlight:        inFlight,
	}
}

// GinMiddleware records request duration and in-flight metrics.
func GinMiddleware(m *HTTPMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}
		endpoint := normalizeEndpoint(c.FullPath())
		m.inFlight.Inc()
		start := time.Now()
		c.Next()
		m.inFlight.Dec()

		m.requestDuration.
			WithLabelValues(endpoint, strconv.Itoa(c.Writer.Status())).
			Observe(float64(time.Since(start).Milliseconds()))
	}
}

func normalizeEndpoint(endpoint string) string {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return "unknown"
	}
	return endpoint
}
