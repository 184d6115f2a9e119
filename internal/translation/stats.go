package translation

import (
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Tier names the resolution stage that produced a translation.
type Tier string

const (
	TierNoop        Tier = "noop"
	TierCache       Tier = "cache"
	TierTemplate    Tier = "template"
	TierPhrase      Tier = "phrase"
	TierRemote      Tier = "remote"
	TierPassthrough Tier = "passthrough"
)

var allTiers = []Tier{TierNoop, TierCache, TierTemplate, TierPhrase, TierRemote, TierPassthrough}

type tierCounter struct {
	hits  atomic.Int64
	nanos atomic.Int64
}

// Stats counts resolutions per tier and mirrors them into a Prometheus registry.
// A nil *Stats discards everything.
type Stats struct {
	tiers          map[Tier]*tierCounter
	remoteFailures atomic.Int64
	sharedRemote   atomic.Int64

	registry           *prometheus.Registry
	tierTotal          *prometheus.CounterVec
	tierSeconds        *prometheus.HistogramVec
	remoteFailureTotal prometheus.Counter
	sharedRemoteTotal  *prometheus.CounterVec
}

func NewStats() *Stats {
	s := &Stats{
		tiers:    make(map[Tier]*tierCounter, len(allTiers)),
		registry: prometheus.NewRegistry(),
		tierTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "agrolingo_translation_tier_total",
			Help: "Translations resolved, by tier.",
		}, []string{"tier"}),
		tierSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "agrolingo_translation_tier_seconds",
			Help:    "Time spent resolving a translation, by tier.",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.025, 0.1, 0.5, 1, 2.5, 5, 10},
		}, []string{"tier"}),
		remoteFailureTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "agrolingo_translation_remote_failures_total",
			Help: "Remote translation calls that failed after retries.",
		}),
		sharedRemoteTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "agrolingo_translation_remote_calls_total",
			Help: "Remote translation results, split by whether they joined an in-flight call.",
		}, []string{"shared"}),
	}
	for _, tier := range allTiers {
		s.tiers[tier] = &tierCounter{}
	}
	s.registry.MustRegister(s.tierTotal, s.tierSeconds, s.remoteFailureTotal, s.sharedRemoteTotal)
	return s
}

// Record counts one resolution at tier taking d.
func (s *Stats) Record(tier Tier, d time.Duration) {
	if s == nil {
		return
	}
	counter, ok := s.tiers[tier]
	if !ok {
		return
	}
	counter.hits.Add(1)
	counter.nanos.Add(int64(d))
	s.tierTotal.WithLabelValues(string(tier)).Inc()
	s.tierSeconds.WithLabelValues(string(tier)).Observe(d.Seconds())
}

func (s *Stats) RecordRemoteFailure() {
	if s == nil {
		return
	}
	s.remoteFailures.Add(1)
	s.remoteFailureTotal.Inc()
}

// RecordRemoteCall counts a remote result; shared is true when the caller joined
// a call already in flight.
func (s *Stats) RecordRemoteCall(shared bool) {
	if s == nil {
		return
	}
	label := "false"
	if shared {
		s.sharedRemote.Add(1)
		label = "true"
	}
	s.sharedRemoteTotal.WithLabelValues(label).Inc()
}

// Registry returns the Prometheus registry holding this instance's metrics.
func (s *Stats) Registry() *prometheus.Registry {
	if s == nil {
		return nil
	}
	return s.registry
}

// TierStats is the per-tier part of a StatsSnapshot.
type TierStats struct {
	Hits      int64   `json:"hits"`
	AvgMillis float64 `json:"avg_ms"`
}

// StatsSnapshot is a point-in-time copy of the counters.
type StatsSnapshot struct {
	Total          int64                `json:"total"`
	Tiers          map[string]TierStats `json:"tiers"`
	RemoteFailures int64                `json:"remote_failures"`
	SharedRemote   int64                `json:"shared_remote"`
}

func (s *Stats) Snapshot() StatsSnapshot {
	snapshot := StatsSnapshot{Tiers: make(map[string]TierStats, len(allTiers))}
	if s == nil {
		return snapshot
	}
	for _, tier := range allTiers {
		counter := s.tiers[tier]
		hits := counter.hits.Load()
		stats := TierStats{Hits: hits}
		if hits > 0 {
			stats.AvgMillis = float64(counter.nanos.Load()) / float64(hits) / float64(time.Millisecond)
		}
		snapshot.Tiers[string(tier)] = stats
		snapshot.Total += hits
	}
	snapshot.RemoteFailures = s.remoteFailures.Load()
	snapshot.SharedRemote = s.sharedRemote.Load()
	return snapshot
}
