package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tableside_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)
	httpLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tableside_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
	eventsPublished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tableside_events_published_total",
			Help: "Events published to the topic registry by topic family.",
		},
		[]string{"family"},
	)
	listenerPanics = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tableside_listener_panics_total",
			Help: "Listener invocations that panicked and were recovered.",
		},
	)
	activeStreams = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "tableside_active_streams",
			Help: "Open streaming connections by transport.",
		},
		[]string{"transport"},
	)
	heartbeatsSent = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tableside_heartbeats_sent_total",
			Help: "Heartbeat frames written to SSE streams.",
		},
	)
	droppedFrames = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tableside_dropped_frames_total",
			Help: "Frames dropped because a subscriber buffer was full.",
		},
		[]string{"transport"},
	)
	orderTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tableside_order_transitions_total",
			Help: "Order status transitions by target status and outcome.",
		},
		[]string{"target", "outcome"},
	)
)

var registerOnce sync.Once

func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(httpRequests, httpLatency, eventsPublished, listenerPanics,
			activeStreams, heartbeatsSent, droppedFrames, orderTransitions)
	})
}

func Handler() http.Handler {
	return promhttp.Handler()
}

// Instrument records request counts and latency keyed by the matched route.
// It keeps gin's ResponseWriter so streaming handlers can still flush.
func Instrument() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		httpRequests.WithLabelValues(c.Request.Method, path, status).Inc()
		httpLatency.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

// TopicFamily strips the per-entity suffix so labels stay bounded.
// "orders:customer:42" becomes "orders:customer".
func TopicFamily(topic string) string {
	parts := strings.SplitN(topic, ":", 3)
	if len(parts) == 3 {
		return parts[0] + ":" + parts[1]
	}
	return topic
}

func IncEventPublished(topic string) {
	eventsPublished.WithLabelValues(TopicFamily(topic)).Inc()
}

func IncListenerPanic() {
	listenerPanics.Inc()
}

func StreamOpened(transport string) {
	activeStreams.WithLabelValues(transport).Inc()
}

func StreamClosed(transport string) {
	activeStreams.WithLabelValues(transport).Dec()
}

func IncHeartbeat() {
	heartbeatsSent.Inc()
}

func IncDroppedFrame(transport string) {
	droppedFrames.WithLabelValues(transport).Inc()
}

func IncOrderTransition(target string, outcome string) {
	orderTransitions.WithLabelValues(target, outcome).Inc()
}
