package metrics

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RegistersOnCustomRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.Recommendation.WithLabelValues("neutral").Inc()
	m.CacheHits.Add(2)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Recommendation.WithLabelValues("neutral")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.CacheHits))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestHealth_StartsHealthyButDegradedWithoutRedis(t *testing.T) {
	h := NewHealthStatus()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "degraded", body["status"])
}

func TestHealth_UpstreamFailureIsUnhealthy(t *testing.T) {
	h := NewHealthStatus()
	h.RecordFetch(true)
	h.RecordFetch(false)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "unhealthy", body["status"])
	assert.Equal(t, false, body["upstream_ok"])
}

func TestServer_StopReturnsShutdownResult(t *testing.T) {
	s := NewServer("127.0.0.1:0", NewHealthStatus())
	s.Start()
	require.NoError(t, s.Stop(context.Background()))
}
