package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := New()
	m.EntryOutcome("weekly", "materialized")
	m.EntryOutcome("weekly", "skipped")
	m.EntryOutcome("weekly", "skipped")
	m.DeliveryAttempt("interactive", false)
	m.DeliveryAttempt("interactive", true)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.entries.WithLabelValues("weekly", "materialized")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.entries.WithLabelValues("weekly", "skipped")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.deliveries.WithLabelValues("interactive", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.deliveries.WithLabelValues("interactive", "ok")))
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.EntryOutcome("monthly", "delivery_failed")

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)

	body, err := io.ReadAll(w.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `assistant_entry_outcomes_total{entry="monthly",outcome="delivery_failed"} 1`)
}
