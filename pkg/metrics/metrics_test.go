package metrics_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linkaura/linkaura/pkg/identity"
	"github.com/linkaura/linkaura/pkg/metrics"
	"github.com/linkaura/linkaura/pkg/signin"
)

var (
	_ identity.Recorder = (*metrics.Collector)(nil)
	_ signin.Recorder   = (*metrics.Collector)(nil)
)

// counter returns the value of the counter name whose labels include all
// of want.
func counter(t *testing.T, reg *prometheus.Registry, name string, want map[string]string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			if labelsMatch(m, want) {
				return m.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func labelsMatch(m *dto.Metric, want map[string]string) bool {
	matched := 0
	for _, lp := range m.GetLabel() {
		if v, ok := want[lp.GetName()]; ok && v == lp.GetValue() {
			matched++
		}
	}
	return matched == len(want)
}

func TestCollector(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	c := metrics.NewCollector(reg)

	c.LinkDispatched("sent")
	c.LinkDispatched("sent")
	c.LinkDispatched("rate_limited")
	c.SessionStarted(identity.ProviderGoogle)
	c.SessionEnded()
	c.Transition("idle", "validating_input")
	c.Failure("popup_closed")

	assert.Equal(t, 2.0, counter(t, reg, "linkaura_signin_links_dispatched_total", map[string]string{"outcome": "sent"}))
	assert.Equal(t, 1.0, counter(t, reg, "linkaura_signin_links_dispatched_total", map[string]string{"outcome": "rate_limited"}))
	assert.Equal(t, 1.0, counter(t, reg, "linkaura_sessions_started_total", map[string]string{"provider": "google"}))
	assert.Equal(t, 1.0, counter(t, reg, "linkaura_sessions_ended_total", nil))
	assert.Equal(t, 1.0, counter(t, reg, "linkaura_signin_transitions_total", map[string]string{"from": "idle", "to": "validating_input"}))
	assert.Equal(t, 1.0, counter(t, reg, "linkaura_signin_failures_total", map[string]string{"reason": "popup_closed"}))
}

func TestHTTP_Middleware(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	h := metrics.NewHTTP(reg)

	r := chi.NewRouter()
	r.Use(h.Middleware)
	r.Get("/login/{provider}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusFound)
	})
	r.Get("/account", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	for _, path := range []string{"/login/google", "/login/github", "/account", "/missing"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, 2.0, counter(t, reg, "linkaura_http_requests_total",
		map[string]string{"route": "/login/{provider}", "status_code": "302"}))
	assert.Equal(t, 1.0, counter(t, reg, "linkaura_http_requests_total",
		map[string]string{"route": "/account", "status_code": "200"}))
	assert.Equal(t, 1.0, counter(t, reg, "linkaura_http_requests_total",
		map[string]string{"route": "unmatched", "status_code": "404"}))
}

func TestHandler(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	metrics.NewCollector(reg).LinkDispatched("sent")

	w := httptest.NewRecorder()
	metrics.Handler(reg).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	resp := w.Result()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `linkaura_signin_links_dispatched_total{outcome="sent"} 1`)
}
