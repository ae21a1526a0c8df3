package authoritydiscovery

import "github.com/prometheus/client_golang/prometheus"

// metrics holds the exact gauge/counters named in SPEC_FULL.md §6.
// A nil *metrics is safe to pass to the components: every caller
// checks for nil before recording. A zero-value metrics is not, since
// its fields are nil. Tests use newMetrics(nil) instead.
type metrics struct {
	requestsPending         prometheus.Gauge
	dhtPuts                 prometheus.Counter
	dhtGetsIssued           prometheus.Counter
	dhtGetsSucceeded        prometheus.Counter
	dhtGetsFailed           prometheus.Counter
	handledValueFoundEvents prometheus.Counter
	bogusValues             prometheus.Counter
	signatureCheckFailures  prometheus.Counter
	encodingFailures        prometheus.Counter
}

// newMetrics constructs and registers the worker's metrics against
// reg. Passing nil uses a private registry, matching components that
// are constructed without an injected prometheus.Registerer (e.g. in
// unit tests).
func newMetrics(reg prometheus.Registerer) *metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	m := &metrics{
		requestsPending: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "authority_discovery_requests_pending",
			Help: "Number of authority address resolutions awaiting a DHT response.",
		}),
		dhtPuts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "authority_discovery_dht_puts_total",
			Help: "Number of DHT put_value calls issued.",
		}),
		dhtGetsIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "authority_discovery_dht_gets_issued_total",
			Help: "Number of DHT get_value calls issued.",
		}),
		dhtGetsSucceeded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "authority_discovery_dht_gets_succeeded_total",
			Help: "Number of DHT gets that resolved with a usable value.",
		}),
		dhtGetsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "authority_discovery_dht_gets_failed_total",
			Help: "Number of in-flight DHT gets that did not yield a usable record: resolved not-found, or resolved with a value that failed to decode or verify.",
		}),
		handledValueFoundEvents: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "authority_discovery_handled_value_found_events_total",
			Help: "Number of ValueFound DHT events processed.",
		}),
		bogusValues: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "authority_discovery_bogus_values_total",
			Help: "Number of DHT values discarded for referencing an unknown record key.",
		}),
		signatureCheckFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "authority_discovery_signature_check_failures_total",
			Help: "Number of records discarded for failing signature verification.",
		}),
		encodingFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "authority_discovery_encoding_failures_total",
			Help: "Number of records discarded for failing to decode.",
		}),
	}

	reg.MustRegister(
		m.requestsPending,
		m.dhtPuts,
		m.dhtGetsIssued,
		m.dhtGetsSucceeded,
		m.dhtGetsFailed,
		m.handledValueFoundEvents,
		m.bogusValues,
		m.signatureCheckFailures,
		m.encodingFailures,
	)
	return m
}
