// Package store aggregates probe outcomes into per-endpoint counters and
// latency histograms and exposes them as Prometheus metrics.
package store

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"pingmon/pkg/endpoint"
	"pingmon/pkg/probe"
)

// entry holds one endpoint's aggregates. The mutex makes each recorded
// outcome visible to readers as a whole: a scrape can never observe the
// success counter incremented but the histogram not yet updated.
type entry struct {
	mu      sync.RWMutex
	success uint64
	fail    uint64
	sum     float64
	buckets []uint64 // cumulative count per bound; success is the +Inf count
}

// Snapshot is a consistent copy of one endpoint's aggregates.
type Snapshot struct {
	Endpoint endpoint.Endpoint
	Success  uint64
	Fail     uint64
	Sum      float64
	Buckets  []uint64
}

// Store maps registry indices to metric aggregates. Each index has exactly
// one writer (that endpoint's probe loop); scrapes and snapshots only read.
// The endpoint set is fixed at construction.
type Store struct {
	reg    *endpoint.Registry
	bounds []float64
	labels [][]string // label values per endpoint, aligned with descs

	descSuccess *prometheus.Desc
	descFail    *prometheus.Desc
	descLatency *prometheus.Desc

	entries []*entry
}

// New builds a store with one zeroed entry per registered endpoint.
// bounds are the histogram upper bounds in ascending order; nil selects
// the Prometheus defaults. The location label is included only when at
// least one endpoint defines a location.
func New(reg *endpoint.Registry, bounds []float64) *Store {
	if bounds == nil {
		bounds = prometheus.DefBuckets
	}
	b := make([]float64, len(bounds))
	copy(b, bounds)

	keys := []string{"name", "address"}
	if reg.HasLocations() {
		keys = append(keys, "location")
	}

	s := &Store{
		reg:    reg,
		bounds: b,
		descSuccess: prometheus.NewDesc(
			"ping_success", "Count of successful pings", keys, nil),
		descFail: prometheus.NewDesc(
			"ping_fail", "Count of failed pings", keys, nil),
		descLatency: prometheus.NewDesc(
			"ping_latency", "Ping latency in seconds", keys, nil),
		labels:  make([][]string, reg.Len()),
		entries: make([]*entry, reg.Len()),
	}
	for i := 0; i < reg.Len(); i++ {
		ep := reg.At(i)
		vals := []string{ep.Name, ep.Address}
		if reg.HasLocations() {
			vals = append(vals, ep.Location)
		}
		s.labels[i] = vals
		s.entries[i] = &entry{buckets: make([]uint64, len(b))}
	}
	return s
}

// Bounds returns the histogram upper bounds.
func (s *Store) Bounds() []float64 {
	out := make([]float64, len(s.bounds))
	copy(out, s.bounds)
	return out
}

// Record applies one probe outcome to the endpoint at index i. The whole
// update is atomic with respect to Collect and Snapshot.
func (s *Store) Record(i int, o probe.Outcome) {
	e := s.entries[i]
	e.mu.Lock()
	defer e.mu.Unlock()

	if !o.OK {
		e.fail++
		return
	}
	e.success++
	sec := o.Latency.Seconds()
	e.sum += sec
	for j, bound := range s.bounds {
		if sec <= bound {
			e.buckets[j]++
		}
	}
}

// Snapshot returns a copy of every endpoint's aggregates. Each endpoint's
// values reflect a whole number of recorded outcomes; no cross-endpoint
// instant is implied.
func (s *Store) Snapshot() []Snapshot {
	out := make([]Snapshot, len(s.entries))
	for i, e := range s.entries {
		e.mu.RLock()
		buckets := make([]uint64, len(e.buckets))
		copy(buckets, e.buckets)
		out[i] = Snapshot{
			Endpoint: s.reg.At(i),
			Success:  e.success,
			Fail:     e.fail,
			Sum:      e.sum,
			Buckets:  buckets,
		}
		e.mu.RUnlock()
	}
	return out
}

// Describe implements prometheus.Collector.
func (s *Store) Describe(ch chan<- *prometheus.Desc) {
	ch <- s.descSuccess
	ch <- s.descFail
	ch <- s.descLatency
}

// Collect implements prometheus.Collector. Each endpoint's three metrics
// are built from one coherent state taken under that endpoint's lock.
func (s *Store) Collect(ch chan<- prometheus.Metric) {
	for i, e := range s.entries {
		e.mu.RLock()
		success := e.success
		fail := e.fail
		sum := e.sum
		cum := make(map[float64]uint64, len(s.bounds))
		for j, bound := range s.bounds {
			cum[bound] = e.buckets[j]
		}
		e.mu.RUnlock()

		vals := s.labels[i]
		ch <- prometheus.MustNewConstMetric(
			s.descSuccess, prometheus.CounterValue, float64(success), vals...)
		ch <- prometheus.MustNewConstMetric(
			s.descFail, prometheus.CounterValue, float64(fail), vals...)
		ch <- prometheus.MustNewConstHistogram(
			s.descLatency, success, sum, cum, vals...)
	}
}
