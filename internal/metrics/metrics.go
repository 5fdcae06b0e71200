// Package metrics defines the narrow Metrics interface injected into the
// indexer and API components. Each component depends only on the
// methods it needs rather than on shared, clonable Prometheus metric
// families, per the "shared mutable metric handles" design note.
//
// Registration and HTTP exposition of the default implementation's
// collectors is out of scope for this repository (see spec.md §1); the
// Prometheus client is still used for the collector types themselves so
// a real exporter can be wired in without changing any call site.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics is the full surface any component may depend on. Components
// should accept the narrowest sub-interface that covers what they use
// (see NodeMetrics, PreprocessorMetrics, ProcessorMetrics, GraphQLMetrics
// below); Metrics itself satisfies all of them.
type Metrics interface {
	NodeMetrics
	PreprocessorMetrics
	ProcessorMetrics
	GraphQLMetrics
}

// NodeMetrics is consumed by internal/nodeclient.
type NodeMetrics interface {
	IncNodeRequests(method string)
	IncNodeErrors(method string)
	IncNodeRotations()
}

// PreprocessorMetrics is consumed by internal/indexer's preprocessor.
type PreprocessorMetrics interface {
	ObservePreprocessDuration(seconds float64)
	IncPreprocessFailures()
}

// ProcessorMetrics is consumed by internal/indexer's processor/pipeline.
type ProcessorMetrics interface {
	IncBlocksProcessed(n int)
	ObserveBatchDuration(seconds float64)
	SetProcessingLag(blocks int64)
}

// GraphQLMetrics covers GraphQL request counts and durations. Metrics
// implements it, but internal/graphql takes no metrics dependency, so
// nothing in the module calls these methods.
type GraphQLMetrics interface {
	IncGraphQLRequests(operation string)
	ObserveGraphQLDuration(operation string, seconds float64)
}

// prom is the default Metrics implementation, backed by
// prometheus/client_golang collectors. Callers that want exposition
// register Collectors() with their own registry; this package does not
// start an HTTP server or register with the default registry itself.
type prom struct {
	nodeRequests  *prometheus.CounterVec
	nodeErrors    *prometheus.CounterVec
	nodeRotations prometheus.Counter

	preprocessDuration prometheus.Histogram
	preprocessFailures prometheus.Counter

	blocksProcessed prometheus.Counter
	batchDuration   prometheus.Histogram
	processingLag   prometheus.Gauge

	graphqlRequests *prometheus.CounterVec
	graphqlDuration *prometheus.HistogramVec
}

// New constructs the default Prometheus-backed Metrics implementation.
func New() Metrics {
	return &prom{
		nodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ccdscan", Subsystem: "node", Name: "requests_total",
		}, []string{"method"}),
		nodeErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ccdscan", Subsystem: "node", Name: "errors_total",
		}, []string{"method"}),
		nodeRotations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ccdscan", Subsystem: "node", Name: "rotations_total",
		}),
		preprocessDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "ccdscan", Subsystem: "preprocessor", Name: "duration_seconds",
		}),
		preprocessFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ccdscan", Subsystem: "preprocessor", Name: "failures_total",
		}),
		blocksProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ccdscan", Subsystem: "processor", Name: "blocks_processed_total",
		}),
		batchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "ccdscan", Subsystem: "processor", Name: "batch_duration_seconds",
		}),
		processingLag: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "ccdscan", Subsystem: "processor", Name: "lag_blocks",
		}),
		graphqlRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ccdscan", Subsystem: "graphql", Name: "requests_total",
		}, []string{"operation"}),
		graphqlDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "ccdscan", Subsystem: "graphql", Name: "duration_seconds",
		}, []string{"operation"}),
	}
}

// Collectors returns every collector for registration with an external
// Prometheus registry.
func (p *prom) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		p.nodeRequests, p.nodeErrors, p.nodeRotations,
		p.preprocessDuration, p.preprocessFailures,
		p.blocksProcessed, p.batchDuration, p.processingLag,
		p.graphqlRequests, p.graphqlDuration,
	}
}

func (p *prom) IncNodeRequests(method string) { p.nodeRequests.WithLabelValues(method).Inc() }
func (p *prom) IncNodeErrors(method string)   { p.nodeErrors.WithLabelValues(method).Inc() }
func (p *prom) IncNodeRotations()             { p.nodeRotations.Inc() }

func (p *prom) ObservePreprocessDuration(s float64) { p.preprocessDuration.Observe(s) }
func (p *prom) IncPreprocessFailures()              { p.preprocessFailures.Inc() }

func (p *prom) IncBlocksProcessed(n int)        { p.blocksProcessed.Add(float64(n)) }
func (p *prom) ObserveBatchDuration(s float64)  { p.batchDuration.Observe(s) }
func (p *prom) SetProcessingLag(blocks int64)   { p.processingLag.Set(float64(blocks)) }

func (p *prom) IncGraphQLRequests(op string) { p.graphqlRequests.WithLabelValues(op).Inc() }
func (p *prom) ObserveGraphQLDuration(op string, s float64) {
	p.graphqlDuration.WithLabelValues(op).Observe(s)
}

// Noop is a Metrics implementation that discards everything, useful for
// tests and components that don't care about metrics.
type Noop struct{}

func (Noop) IncNodeRequests(string)                 {}
func (Noop) IncNodeErrors(string)                   {}
func (Noop) IncNodeRotations()                      {}
func (Noop) ObservePreprocessDuration(float64)      {}
func (Noop) IncPreprocessFailures()                 {}
func (Noop) IncBlocksProcessed(int)                 {}
func (Noop) ObserveBatchDuration(float64)           {}
func (Noop) SetProcessingLag(int64)                 {}
func (Noop) IncGraphQLRequests(string)              {}
func (Noop) ObserveGraphQLDuration(string, float64) {}
