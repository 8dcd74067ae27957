package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the client's collectors on a private registry. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	reg *prometheus.Registry

	eventsDispatched *prometheus.CounterVec
	notifications    *prometheus.CounterVec
	duplicates       *prometheus.CounterVec
	restRequests     *prometheus.CounterVec
	cacheRecords     *prometheus.GaugeVec
	sweeps           *prometheus.CounterVec
	swept            *prometheus.CounterVec
	queueDropped     prometheus.Counter
}

// New registers every collector under namespace, plus the Go runtime and
// process collectors.
func New(namespace string) *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		eventsDispatched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gateway_events_dispatched_total",
			Help:      "Push events handed to the dispatch registry, by event kind.",
		}, []string{"kind"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_emitted_total",
			Help:      "Notifications raised to subscribers, by notification kind.",
		}, []string{"kind"}),
		duplicates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deltas_swallowed_total",
			Help:      "Duplicate, late or zero-effect deltas dropped without notification.",
		}, []string{"kind"}),
		restRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rest_requests_total",
			Help:      "REST requests issued, by method and status class.",
		}, []string{"method", "status"}),
		cacheRecords: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cache_records",
			Help:      "Records currently cached, by store.",
		}, []string{"store"}),
		sweeps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_sweeps_total",
			Help:      "Cache sweep runs, by target.",
		}, []string{"target"}),
		swept: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_swept_records_total",
			Help:      "Records removed by cache sweeps, by target.",
		}, []string{"target"}),
		queueDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gateway_queue_dropped_total",
			Help:      "Push events dropped because the event queue was full.",
		}),
	}
	m.reg.MustRegister(
		m.eventsDispatched,
		m.notifications,
		m.duplicates,
		m.restRequests,
		m.cacheRecords,
		m.sweeps,
		m.swept,
		m.queueDropped,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry exposes the private registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

func (m *Metrics) EventDispatched(kind string) {
	if m == nil {
		return
	}
	m.eventsDispatched.WithLabelValues(kind).Inc()
}

func (m *Metrics) Notification(kind string) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(kind).Inc()
}

func (m *Metrics) Swallowed(kind string) {
	if m == nil {
		return
	}
	m.duplicates.WithLabelValues(kind).Inc()
}

// RESTRequest records a request. status 0 means the transport failed.
func (m *Metrics) RESTRequest(method string, status int) {
	if m == nil {
		return
	}
	m.restRequests.WithLabelValues(method, StatusClass(status)).Inc()
}

// CacheDelta is a cache.Observer.
func (m *Metrics) CacheDelta(store string, delta int) {
	if m == nil {
		return
	}
	m.cacheRecords.WithLabelValues(store).Add(float64(delta))
}

func (m *Metrics) Sweep(target string, removed int) {
	if m == nil {
		return
	}
	m.sweeps.WithLabelValues(target).Inc()
	m.swept.WithLabelValues(target).Add(float64(removed))
}

func (m *Metrics) QueueDropped() {
	if m == nil {
		return
	}
	m.queueDropped.Inc()
}

// StatusClass maps 204 to "2xx" and 0 to "error".
func StatusClass(status int) string {
	if status < 100 || status > 599 {
		return "error"
	}
	return strconv.Itoa(status/100) + "xx"
}
