package observability

import (
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsNilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveStorageOp("local", "put", time.Now(), nil)
		m.ObserveLifecycleOp("addChannel", "")
		m.ObserveContentSize(42)
	})
}

func TestMetricsScrape(t *testing.T) {
	m := NewMetrics()
	m.ObserveStorageOp("s3", "get", time.Now(), errors.New("boom"))
	m.ObserveLifecycleOp("removeChannel", "backend")
	m.ObserveContentSize(2048)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/metrics", nil)
	m.Handler().ServeHTTP(rec, req)

	require.Equal(t, 200, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "channelstore_storage_operations_total")
	assert.Contains(t, body, "channelstore_storage_errors_total")
	assert.Contains(t, body, "channelstore_lifecycle_operations_total")
	assert.Contains(t, body, "channelstore_version_content_bytes")
}
