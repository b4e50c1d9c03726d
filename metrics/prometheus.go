// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package metrics

import (
	"net/http"
	"sync"

	"github.com/ethereum/go-ethereum/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "ledger"

// InitializePrometheusMetrics switches the active provider to prometheus.
// Calling it again keeps the existing registry.
func InitializePrometheusMetrics() {
	if _, ok := active.(*promProvider); !ok {
		active = newPromProvider()
	}
}

// Gatherer exposes the registry backing the prometheus provider, or nil when
// metrics are disabled.
func Gatherer() prometheus.Gatherer {
	if p, ok := active.(*promProvider); ok {
		return p.registry
	}
	return nil
}

type promProvider struct {
	registry *prometheus.Registry
	meters   sync.Map // kind/name -> meter
	mu       sync.Mutex
}

func newPromProvider() *promProvider {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return &promProvider{registry: reg}
}

// getOrCreate returns the meter registered under kind/name, building and
// registering it on first use.
func getOrCreate[T any](p *promProvider, kind, name string, build func() (prometheus.Collector, T)) T {
	key := kind + "/" + name
	if m, ok := p.meters.Load(key); ok {
		return m.(T)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if m, ok := p.meters.Load(key); ok {
		return m.(T)
	}
	collector, meter := build()
	if err := p.registry.Register(collector); err != nil {
		log.Warn("unable to register metric", "name", name, "err", err)
	}
	p.meters.Store(key, meter)
	return meter
}

func floatBuckets(buckets []int64) []float64 {
	if len(buckets) == 0 {
		return nil
	}
	out := make([]float64, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, float64(b))
	}
	return out
}

func (p *promProvider) handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{Registry: p.registry})
}

func (p *promProvider) counter(name string) CountMeter {
	return getOrCreate(p, "counter", name, func() (prometheus.Collector, CountMeter) {
		c := prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: name})
		return c, &promCountMeter{c}
	})
}

func (p *promProvider) counterVec(name string, labels []string) CountVecMeter {
	return getOrCreate(p, "counterVec", name, func() (prometheus.Collector, CountVecMeter) {
		c := prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: name}, labels)
		return c, &promCountVecMeter{c}
	})
}

func (p *promProvider) gauge(name string) GaugeMeter {
	return getOrCreate(p, "gauge", name, func() (prometheus.Collector, GaugeMeter) {
		g := prometheus.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: name})
		return g, &promGaugeMeter{g}
	})
}

func (p *promProvider) gaugeVec(name string, labels []string) GaugeVecMeter {
	return getOrCreate(p, "gaugeVec", name, func() (prometheus.Collector, GaugeVecMeter) {
		g := prometheus.NewGaugeVec(prometheus.GaugeOpts{Namespace: namespace, Name: name}, labels)
		return g, &promGaugeVecMeter{g}
	})
}

func (p *promProvider) histogram(name string, buckets []int64) HistogramMeter {
	return getOrCreate(p, "histogram", name, func() (prometheus.Collector, HistogramMeter) {
		h := prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      name,
			Buckets:   floatBuckets(buckets),
		})
		return h, &promHistogramMeter{h}
	})
}

func (p *promProvider) histogramVec(name string, labels []string, buckets []int64) HistogramVecMeter {
	return getOrCreate(p, "histogramVec", name, func() (prometheus.Collector, HistogramVecMeter) {
		h := prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      name,
			Buckets:   floatBuckets(buckets),
		}, labels)
		return h, &promHistogramVecMeter{h}
	})
}

type promCountMeter struct{ c prometheus.Counter }

func (m *promCountMeter) Add(i int64) { m.c.Add(float64(i)) }

type promCountVecMeter struct{ c *prometheus.CounterVec }

func (m *promCountVecMeter) AddWithLabel(i int64, labels map[string]string) {
	m.c.With(labels).Add(float64(i))
}

type promGaugeMeter struct{ g prometheus.Gauge }

func (m *promGaugeMeter) Add(i int64) { m.g.Add(float64(i)) }
func (m *promGaugeMeter) Set(i int64) { m.g.Set(float64(i)) }

type promGaugeVecMeter struct{ g *prometheus.GaugeVec }

func (m *promGaugeVecMeter) AddWithLabel(i int64, labels map[string]string) {
	m.g.With(labels).Add(float64(i))
}

func (m *promGaugeVecMeter) SetWithLabel(i int64, labels map[string]string) {
	m.g.With(labels).Set(float64(i))
}

type promHistogramMeter struct{ h prometheus.Histogram }

func (m *promHistogramMeter) Observe(i int64) { m.h.Observe(float64(i)) }

type promHistogramVecMeter struct{ h *prometheus.HistogramVec }

func (m *promHistogramVecMeter) ObserveWithLabels(i int64, labels map[string]string) {
	m.h.With(labels).Observe(float64(i))
}
