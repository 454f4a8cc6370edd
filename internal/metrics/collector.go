// Package metrics exposes the Dispatcher's and Rate Limiter's runtime
// counters as Prometheus metrics, in the pull-based custom-Collector
// shape rather than push-on-every-call instrumentation: both
// dispatcher.Dispatcher.Counters and circuit.Manager.Stats already
// snapshot cumulative state on demand, so a Collector that reads them on
// every scrape needs no call-site changes inside internal/dispatcher or
// internal/ratelimiter.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/econindex/classifier/internal/dispatcher"
	"github.com/econindex/classifier/internal/dispatcher/circuit"
	"github.com/econindex/classifier/internal/ratelimiter"
)

var (
	endpointAttemptsDesc = prometheus.NewDesc(
		"classifier_dispatcher_endpoint_attempts_total",
		"Cumulative dispatch attempts per endpoint.",
		[]string{"endpoint"}, nil,
	)
	endpointSuccessesDesc = prometheus.NewDesc(
		"classifier_dispatcher_endpoint_successes_total",
		"Cumulative successful dispatches per endpoint.",
		[]string{"endpoint"}, nil,
	)
	endpointFailuresDesc = prometheus.NewDesc(
		"classifier_dispatcher_endpoint_failures_total",
		"Cumulative failed dispatches per endpoint.",
		[]string{"endpoint"}, nil,
	)
	circuitStateDesc = prometheus.NewDesc(
		"classifier_dispatcher_circuit_state",
		"Circuit breaker state per endpoint (0=closed, 1=open, 2=half-open).",
		[]string{"endpoint"}, nil,
	)
	circuitSuccessRateDesc = prometheus.NewDesc(
		"classifier_dispatcher_circuit_success_rate",
		"Circuit breaker rolling success rate per endpoint.",
		[]string{"endpoint"}, nil,
	)
	targetRPMDesc = prometheus.NewDesc(
		"classifier_ratelimiter_target_rpm",
		"Current target requests-per-minute, halved after a persistent 429.",
		nil, nil,
	)
)

// DispatchCollector implements prometheus.Collector over the Dispatcher's
// and circuit Manager's cumulative counters.
type DispatchCollector struct {
	dispatcher *dispatcher.Dispatcher
	circuits   *circuit.Manager
	scheduler  *ratelimiter.Scheduler
}

// NewDispatchCollector builds a collector over the given components. Any
// of circuits or scheduler may be nil, in which case that section of
// metrics is simply omitted from every scrape.
func NewDispatchCollector(d *dispatcher.Dispatcher, circuits *circuit.Manager, scheduler *ratelimiter.Scheduler) *DispatchCollector {
	return &DispatchCollector{dispatcher: d, circuits: circuits, scheduler: scheduler}
}

// Describe implements prometheus.Collector.
func (c *DispatchCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- endpointAttemptsDesc
	ch <- endpointSuccessesDesc
	ch <- endpointFailuresDesc
	ch <- circuitStateDesc
	ch <- circuitSuccessRateDesc
	ch <- targetRPMDesc
}

// Collect implements prometheus.Collector.
func (c *DispatchCollector) Collect(ch chan<- prometheus.Metric) {
	if c.dispatcher != nil {
		for name, counters := range c.dispatcher.Counters() {
			ch <- prometheus.MustNewConstMetric(endpointAttemptsDesc, prometheus.CounterValue, float64(counters.Attempts), name)
			ch <- prometheus.MustNewConstMetric(endpointSuccessesDesc, prometheus.CounterValue, float64(counters.Successes), name)
			ch <- prometheus.MustNewConstMetric(endpointFailuresDesc, prometheus.CounterValue, float64(counters.Failures), name)
		}
	}
	if c.circuits != nil {
		for name, stats := range c.circuits.Stats() {
			ch <- prometheus.MustNewConstMetric(circuitStateDesc, prometheus.GaugeValue, float64(stats.State), name)
			ch <- prometheus.MustNewConstMetric(circuitSuccessRateDesc, prometheus.GaugeValue, stats.SuccessRate, name)
		}
	}
	if c.scheduler != nil {
		ch <- prometheus.MustNewConstMetric(targetRPMDesc, prometheus.GaugeValue, c.scheduler.CurrentTargetRPM())
	}
}
