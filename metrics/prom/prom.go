// Package prom exports simulator metrics to Prometheus.
package prom

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/IvanBrykalov/tracesim/sim"
)

// Adapter implements sim.Metrics and exports Prometheus counters/gauges.
// The simulator core is single-threaded, but Prometheus metric types are
// goroutine-safe, so one registry can serve several replays (use distinct
// const labels per instance).
type Adapter struct {
	hits      prometheus.Counter
	misses    prometheus.Counter
	hitBytes  prometheus.Counter
	missBytes prometheus.Counter
	evicts    prometheus.Counter
	sizeObj   prometheus.Gauge
	sizeBytes prometheus.Gauge
}

// New constructs a Prometheus metrics adapter.
//   - reg:         registry to register metrics with (nil => prometheus.DefaultRegisterer)
//   - ns, sub:     Prometheus namespace and subsystem
//   - constLabels: static labels applied to all metrics (may be nil)
func New(reg prometheus.Registerer, ns, sub string, constLabels prometheus.Labels) *Adapter {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	counter := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        name,
			Help:        help,
			ConstLabels: constLabels,
		})
	}
	gauge := func(name, help string) prometheus.Gauge {
		return prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        name,
			Help:        help,
			ConstLabels: constLabels,
		})
	}
	a := &Adapter{
		hits:      counter("hits_total", "Simulated cache hits"),
		misses:    counter("misses_total", "Simulated cache misses"),
		hitBytes:  counter("hit_bytes_total", "Bytes served from cache"),
		missBytes: counter("miss_bytes_total", "Bytes missed"),
		evicts:    counter("evictions_total", "Objects evicted or ghostified"),
		sizeObj:   gauge("resident_objects", "Currently resident objects"),
		sizeBytes: gauge("occupied_bytes", "Currently occupied bytes"),
	}
	reg.MustRegister(a.hits, a.misses, a.hitBytes, a.missBytes, a.evicts, a.sizeObj, a.sizeBytes)
	return a
}

// Hit records a cache hit of the given size.
func (a *Adapter) Hit(bytes int64) {
	a.hits.Inc()
	a.hitBytes.Add(float64(bytes))
}

// Miss records a cache miss of the given size.
func (a *Adapter) Miss(bytes int64) {
	a.misses.Inc()
	a.missBytes.Add(float64(bytes))
}

// Evict records one eviction.
func (a *Adapter) Evict(bytes int64) { a.evicts.Inc() }

// Size updates the residency gauges.
func (a *Adapter) Size(objects int, bytes int64) {
	a.sizeObj.Set(float64(objects))
	a.sizeBytes.Set(float64(bytes))
}

// Compile-time check: ensure Adapter implements sim.Metrics.
var _ sim.Metrics = (*Adapter)(nil)
