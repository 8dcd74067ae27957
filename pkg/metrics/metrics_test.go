package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m := New("fosscord_test")

	m.EventDispatched("GUILD_ROLE_CREATE")
	m.EventDispatched("GUILD_ROLE_CREATE")
	m.Notification("roleCreate")
	m.Swallowed("GUILD_ROLE_CREATE")
	m.RESTRequest("GET", 200)
	m.RESTRequest("PATCH", 404)
	m.RESTRequest("GET", 0)
	m.CacheDelta("roles", 3)
	m.CacheDelta("roles", -1)
	m.Sweep("users", 4)
	m.QueueDropped()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.eventsDispatched.WithLabelValues("GUILD_ROLE_CREATE")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.notifications.WithLabelValues("roleCreate")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.duplicates.WithLabelValues("GUILD_ROLE_CREATE")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.restRequests.WithLabelValues("PATCH", "4xx")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.restRequests.WithLabelValues("GET", "error")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.cacheRecords.WithLabelValues("roles")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.sweeps.WithLabelValues("users")))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.swept.WithLabelValues("users")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.queueDropped))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.EventDispatched("x")
		m.Notification("x")
		m.Swallowed("x")
		m.RESTRequest("GET", 200)
		m.CacheDelta("s", 1)
		m.Sweep("t", 1)
		m.QueueDropped()
	})
}

func TestHandlerExposesRegistry(t *testing.T) {
	m := New("fosscord_test")
	m.Notification("guildCreate")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), `fosscord_test_notifications_emitted_total{kind="guildCreate"} 1`))
}

func TestStatusClass(t *testing.T) {
	assert.Equal(t, "2xx", StatusClass(204))
	assert.Equal(t, "5xx", StatusClass(503))
	assert.Equal(t, "error", StatusClass(0))
}
