package mqttclient

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds optional Prometheus instrumentation for a Client. A
// nil *Metrics (the default) disables instrumentation entirely; every
// method on Metrics is nil-receiver safe.
type Metrics struct {
	packetsSent     *prometheus.CounterVec
	packetsRecv     *prometheus.CounterVec
	inflightPublish prometheus.Gauge
	operationWait   prometheus.Histogram
}

// NewMetrics builds a Metrics that registers its collectors against
// reg under the given namespace/subsystem. Pass a fresh
// prometheus.NewRegistry() in tests to avoid collisions with the
// default registry.
func NewMetrics(reg prometheus.Registerer, namespace, subsystem string) *Metrics {
	m := &Metrics{
		packetsSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "packets_sent_total",
			Help:      "Control packets written to the broker, by packet kind.",
		}, []string{"kind"}),
		packetsRecv: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "packets_received_total",
			Help:      "Control packets read from the broker, by packet kind.",
		}, []string{"kind"}),
		inflightPublish: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "inflight_publishes",
			Help:      "QoS 1 PUBLISH packets awaiting PUBACK.",
		}),
		operationWait: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "operation_wait_seconds",
			Help:      "Time spent waiting for a correlated response packet.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(m.packetsSent, m.packetsRecv, m.inflightPublish, m.operationWait)
	return m
}

func (m *Metrics) sent(kind string) {
	if m == nil {
		return
	}
	m.packetsSent.WithLabelValues(kind).Inc()
}

func (m *Metrics) received(kind string) {
	if m == nil {
		return
	}
	m.packetsRecv.WithLabelValues(kind).Inc()
}

func (m *Metrics) inflightDelta(delta float64) {
	if m == nil {
		return
	}
	m.inflightPublish.Add(delta)
}

func (m *Metrics) observeWait(seconds float64) {
	if m == nil {
		return
	}
	m.operationWait.Observe(seconds)
}
