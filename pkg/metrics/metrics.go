// Package metrics collects Prometheus metrics for the sign-in flow and
// serves them for scraping.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "linkaura"

// Collector records identity service and sign-in flow events. It
// satisfies identity.Recorder and signin.Recorder.
type Collector struct {
	linksDispatched *prometheus.CounterVec
	sessionsStarted *prometheus.CounterVec
	sessionsEnded   prometheus.Counter
	transitions     *prometheus.CounterVec
	failures        *prometheus.CounterVec
}

// NewCollector creates a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		linksDispatched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "signin_links_dispatched_total",
			Help:      "Sign-in link requests by outcome.",
		}, []string{"outcome"}),
		sessionsStarted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_started_total",
			Help:      "Sessions started by sign-in provider.",
		}, []string{"provider"}),
		sessionsEnded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_ended_total",
			Help:      "Sessions ended by sign-out.",
		}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "signin_transitions_total",
			Help:      "Sign-in flow state transitions.",
		}, []string{"from", "to"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "signin_failures_total",
			Help:      "Sign-in flow failures by reason.",
		}, []string{"reason"}),
	}

	reg.MustRegister(
		c.linksDispatched,
		c.sessionsStarted,
		c.sessionsEnded,
		c.transitions,
		c.failures,
	)

	return c
}

func (c *Collector) LinkDispatched(outcome string) {
	c.linksDispatched.WithLabelValues(outcome).Inc()
}

func (c *Collector) SessionStarted(provider string) {
	c.sessionsStarted.WithLabelValues(provider).Inc()
}

func (c *Collector) SessionEnded() {
	c.sessionsEnded.Inc()
}

func (c *Collector) Transition(from, to string) {
	c.transitions.WithLabelValues(from, to).Inc()
}

func (c *Collector) Failure(reason string) {
	c.failures.WithLabelValues(reason).Inc()
}

// Handler returns the scrape handler for gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
