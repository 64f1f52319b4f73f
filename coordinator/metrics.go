package coordinator

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the coordinator's Prometheus instrumentation (ambient
// addition, spec §2 DOMAIN STACK — the teacher itself has no metrics
// surface, adopted from the rest of the pack's prometheus/client_golang
// usage). Registered once per coordinator process and exposed at
// GET /metrics (spec §6 addition).
type Metrics struct {
	VotesTotal      *prometheus.CounterVec
	DecisionsTotal  *prometheus.CounterVec
	TxnDuration     prometheus.Histogram
}

// NewMetrics builds and registers the coordinator's metric set against reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		VotesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "upload2pc_votes_total",
			Help: "Votes received from participants during the voting phase, by vote.",
		}, []string{"vote"}),
		DecisionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "upload2pc_decisions_total",
			Help: "Global decisions reached by the coordinator, by decision.",
		}, []string{"decision"}),
		TxnDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "upload2pc_txn_duration_seconds",
			Help:    "Wall-clock duration of a full two-phase-commit round, from voting start to decision acks collected.",
			Buckets: prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(m.VotesTotal, m.DecisionsTotal, m.TxnDuration)
	return m
}
