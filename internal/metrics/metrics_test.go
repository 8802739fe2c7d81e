package metrics

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetrics_PrivateRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.RunsTotal.WithLabelValues("ok").Inc()
	m.PredictionsTotal.Add(20)
	m.HTTPRequests.WithLabelValues("/api/predictions", "200").Inc()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.RunsTotal.WithLabelValues("ok")))
	assert.Equal(t, 20.0, testutil.ToFloat64(m.PredictionsTotal))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)

	// a second set on a fresh registry must not collide
	assert.NotPanics(t, func() { NewMetrics(prometheus.NewRegistry()) })
}

func TestHealthStatus_Snapshot(t *testing.T) {
	h := NewHealthStatus(true)

	_, code := h.Snapshot()
	assert.Equal(t, http.StatusServiceUnavailable, code)

	h.SetSQLiteOK(true)
	st, code := h.Snapshot()
	assert.Equal(t, "degraded", st.Status)
	assert.Equal(t, http.StatusServiceUnavailable, code)

	h.SetRedisConnected(true)
	st, code = h.Snapshot()
	assert.Equal(t, "healthy", st.Status)
	assert.Equal(t, http.StatusOK, code)
}

func TestHealthStatus_RedisDisabled(t *testing.T) {
	h := NewHealthStatus(false)
	h.SetSQLiteOK(true)
	st, code := h.Snapshot()
	assert.Equal(t, "healthy", st.Status)
	assert.Equal(t, http.StatusOK, code)
}

func TestHealthStatus_ServeHTTP(t *testing.T) {
	h := NewHealthStatus(false)
	h.SetSQLiteOK(true)
	h.SetModelVersion(7)
	h.RecordRun(time.Date(2024, 3, 1, 16, 15, 0, 0, time.UTC), errors.New("fetch failed"))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var st Status
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	assert.Equal(t, int64(7), st.ModelVersion)
	assert.Equal(t, "2024-03-01T16:15:00Z", st.LastRunAt)
	assert.Equal(t, "fetch failed", st.LastRunError)
}
