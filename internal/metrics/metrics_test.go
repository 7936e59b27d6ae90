package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_RecordRequest(t *testing.T) {
	m := NewManager(WithRegistry(prometheus.NewRegistry()))

	m.RecordRequest("http", 200)
	m.RecordRequest("http", 200)
	m.RecordRequest("mqtt", 400)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues("http", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("mqtt", "400")))
}

func TestManager_RecordMatch(t *testing.T) {
	m := NewManager(WithRegistry(prometheus.NewRegistry()))

	m.RecordMatch(2, 40, 3, 1)
	m.RecordMatch(1, 10, 0, 4)
	m.ObserveStage(StageExtract, 150*time.Millisecond)

	assert.Equal(t, 5.0, testutil.ToFloat64(m.comparisonsSkipped))
	assert.Equal(t, 1, testutil.CollectAndCount(m.stageDuration))
}

func TestManager_Disabled(t *testing.T) {
	m := NewManager(WithRegistry(prometheus.NewRegistry()), WithMetricsEnabled(false))

	m.RecordRequest("http", 500)
	m.RecordMatch(1, 1, 1, 1)

	assert.Equal(t, 0, testutil.CollectAndCount(m.requests))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.comparisonsSkipped))
}

func TestManager_NilIsNoop(t *testing.T) {
	var m *Manager

	assert.NotPanics(t, func() {
		m.RecordRequest("http", 200)
		m.ObserveStage(StageMatch, time.Millisecond)
		m.RecordMatch(1, 2, 3, 4)
	})
}

func TestManager_Handler(t *testing.T) {
	m := NewManager(WithNamespace("test"))
	m.RecordRequest("lambda", 200)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)

	out := string(body)
	assert.True(t, strings.Contains(out, `test_match_requests_total{source="lambda",status="200"} 1`), out)
	assert.Contains(t, out, "go_goroutines")
}
