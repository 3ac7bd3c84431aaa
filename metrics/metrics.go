// Package metrics exposes analysis counters and session totals to Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Analysis outcomes.
const (
	OutcomeComplete     = "complete"      // both metrics found
	OutcomePartial      = "partial"       // answer returned without both metrics
	OutcomeRejected     = "rejected"      // request failed validation
	OutcomeModelError   = "model_error"   // provider call failed
	OutcomeSessionError = "session_error" // session store write failed
)

type Collector struct {
	registry *prometheus.Registry

	analysesTotal       *prometheus.CounterVec
	modelLatencySeconds *prometheus.HistogramVec
	energySavedKWH      prometheus.Counter
	co2ReducedKg        prometheus.Counter
	sessionEnergyGauge  prometheus.Gauge
	sessionCO2Gauge     prometheus.Gauge
}

// NewCollector registers the collectors on a fresh registry, so several instances can coexist.
func NewCollector() *Collector {
	c := &Collector{registry: prometheus.NewRegistry()}

	c.analysesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ecocode_analyses_total",
			Help: "Analyses performed, by provider and outcome",
		},
		[]string{"provider", "outcome"},
	)

	c.modelLatencySeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ecocode_model_request_duration_seconds",
			Help:    "Model completion latency in seconds",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40},
		},
		[]string{"provider", "model"},
	)

	c.energySavedKWH = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ecocode_projected_energy_savings_kwh_total",
		Help: "Projected monthly energy savings reported by analyses, in kWh",
	})

	c.co2ReducedKg = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ecocode_projected_co2_reduction_kg_total",
		Help: "Projected monthly CO2 reduction derived from analyses, in kg",
	})

	c.sessionEnergyGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "ecocode_session_energy_savings_kwh",
		Help: "Running session total of energy savings in kWh",
	})

	c.sessionCO2Gauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "ecocode_session_co2_reduction_kg",
		Help: "Running session total of CO2 reduction in kg",
	})

	c.registry.MustRegister(
		c.analysesTotal,
		c.modelLatencySeconds,
		c.energySavedKWH,
		c.co2ReducedKg,
		c.sessionEnergyGauge,
		c.sessionCO2Gauge,
	)
	return c
}

// ObserveAnalysis counts one analysis. savingsKWH and co2Kg are added only for complete outcomes.
func (c *Collector) ObserveAnalysis(provider, outcome string, savingsKWH, co2Kg float64) {
	if c == nil {
		return
	}
	c.analysesTotal.WithLabelValues(provider, outcome).Inc()
	if outcome == OutcomeComplete {
		if savingsKWH > 0 {
			c.energySavedKWH.Add(savingsKWH)
		}
		if co2Kg > 0 {
			c.co2ReducedKg.Add(co2Kg)
		}
	}
}

func (c *Collector) ObserveModelLatency(provider, model string, d time.Duration) {
	if c == nil {
		return
	}
	c.modelLatencySeconds.WithLabelValues(provider, model).Observe(d.Seconds())
}

// SetSessionTotals mirrors the session accumulator's running totals.
func (c *Collector) SetSessionTotals(energyKWH, co2Kg float64) {
	if c == nil {
		return
	}
	c.sessionEnergyGauge.Set(energyKWH)
	c.sessionCO2Gauge.Set(co2Kg)
}

func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the collector's registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
