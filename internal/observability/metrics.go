package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "trafficctl",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total control-plane HTTP requests.",
		},
		[]string{"node", "method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "trafficctl",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Control-plane HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"node", "method", "path", "status"},
	)
	linkLines = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "trafficctl",
			Subsystem: "link",
			Name:      "lines_total",
			Help:      "Field-controller lines by decode result.",
		},
		[]string{"node", "result"},
	)
	linkReconnects = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "trafficctl",
			Subsystem: "link",
			Name:      "reconnects_total",
			Help:      "Field-controller link reconnect attempts.",
		},
		[]string{"node", "success"},
	)
	beaconActivations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "trafficctl",
			Subsystem: "beacon",
			Name:      "activations_total",
			Help:      "Emergency priority activations by source.",
		},
		[]string{"node", "lane", "source"},
	)
	proposals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "trafficctl",
			Subsystem: "cycle",
			Name:      "proposals_total",
			Help:      "Accepted next-cycle proposals.",
		},
		[]string{"node"},
	)
	proposalLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "trafficctl",
			Subsystem: "cycle",
			Name:      "proposal_latency_seconds",
			Help:      "Reported decision latency for accepted proposals.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"node"},
	)
)

// Line decode results recorded against link_lines_total.
const (
	LineDecoded = "decoded"
	LineDropped = "dropped"
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			httpRequests,
			httpDuration,
			linkLines,
			linkReconnects,
			beaconActivations,
			proposals,
			proposalLatency,
		)
	})
}

func RecordHTTPRequest(node, method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(node, method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(node, method, path, statusLabel).Observe(duration.Seconds())
}

func RecordLinkLine(node, result string) {
	RegisterMetrics()
	linkLines.WithLabelValues(node, result).Inc()
}

func RecordLinkReconnect(node string, success bool) {
	RegisterMetrics()
	linkReconnects.WithLabelValues(node, strconv.FormatBool(success)).Inc()
}

func RecordBeaconActivation(node string, lane int, source string) {
	RegisterMetrics()
	beaconActivations.WithLabelValues(node, strconv.Itoa(lane), source).Inc()
}

func RecordProposal(node string, latency time.Duration) {
	RegisterMetrics()
	proposals.WithLabelValues(node).Inc()
	proposalLatency.WithLabelValues(node).Observe(latency.Seconds())
}
