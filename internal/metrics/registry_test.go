package metrics

import (
	"net/http/httptest"
	"testing"

	io_prometheus_client "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gaugeValue(t *testing.T, r *Registry) float64 {
	t.Helper()
	m := &io_prometheus_client.Metric{}
	require.NoError(t, r.SaveSuccessRatio.Write(m))
	return m.GetGauge().GetValue()
}

func TestSaveSuccessRatio(t *testing.T) {
	r := NewRegistry()

	r.RecordSave("ok")
	r.RecordSave("ok")
	r.RecordSave("failed")

	assert.InDelta(t, 2.0/3.0, gaugeValue(t, r), 1e-9)

	r.RecordSave("ok")
	assert.InDelta(t, 0.75, gaugeValue(t, r), 1e-9)
}

func TestIndependentRegistries(t *testing.T) {
	// Two registries must not collide on registration.
	a := NewRegistry()
	b := NewRegistry()

	a.RecordToggle("accepted")
	b.RecordCapacityRejection("starter")

	assert.NotPanics(t, func() { NewRegistry() })
}

func TestMetricsEndpointExposesCounters(t *testing.T) {
	r := NewRegistry()
	r.RecordToggle("accepted")
	r.RecordCapacityRejection("starter")
	r.ActiveSessions.Inc()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/metrics", nil)
	r.Handler().ServeHTTP(rec, req)

	body := rec.Body.String()
	assert.Contains(t, body, "propflow_toggles_total")
	assert.Contains(t, body, "propflow_capacity_rejections_total")
	assert.Contains(t, body, "propflow_active_sessions 1")
}
