package coordinator

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics instruments the coordinator's topology operations. A nil *Metrics
// is valid and disables all instrumentation, which keeps tests and tools
// free of registry plumbing.
type Metrics struct {
	topologyReads *prometheus.CounterVec
	createTotal   *prometheus.CounterVec
	pushTotal     *prometheus.CounterVec
	shardCount    prometheus.Gauge
}

// NewMetrics builds and registers the coordinator metrics on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		topologyReads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "distcolony_topology_reads_total",
			Help: "Topology query results, by outcome (hit or miss).",
		}, []string{"outcome"}),
		createTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "distcolony_cluster_create_total",
			Help: "Cluster create attempts, by outcome.",
		}, []string{"outcome"}),
		pushTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "distcolony_shard_init_push_total",
			Help: "Shard initialization pushes to backends, by outcome.",
		}, []string{"outcome"}),
		shardCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "distcolony_topology_shards",
			Help: "Number of shards in the installed topology (0 before create).",
		}),
	}
	reg.MustRegister(m.topologyReads, m.createTotal, m.pushTotal, m.shardCount)
	return m
}

// ReadOutcome records one topology query result ("hit" or "miss").
func (m *Metrics) ReadOutcome(outcome string) {
	if m == nil {
		return
	}
	m.topologyReads.WithLabelValues(outcome).Inc()
}

func (m *Metrics) createOutcome(outcome string) {
	if m == nil {
		return
	}
	m.createTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) pushOutcome(outcome string) {
	if m == nil {
		return
	}
	m.pushTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) setShardCount(n int) {
	if m == nil {
		return
	}
	m.shardCount.Set(float64(n))
}
