package prometheus

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObservePackCountsDegraded(t *testing.T) {
	m := New()

	m.ObservePack("vc_market_opportunity", 2*time.Second, true, "provider_error")
	m.ObservePack("vc_market_opportunity", time.Second, false, "")

	degraded := testutil.ToFloat64(m.EnrichmentPacksDegraded.WithLabelValues("vc_market_opportunity", "provider_error"))
	assert.Equal(t, 1.0, degraded)
}

func TestObserveHTTPIncrementsCounter(t *testing.T) {
	m := New()

	m.ObserveHTTP("POST", "/api/v1/deals/{id}/enrich", "200", 120*time.Millisecond)
	m.ObserveHTTP("POST", "/api/v1/deals/{id}/enrich", "200", 80*time.Millisecond)

	total := testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("POST", "/api/v1/deals/{id}/enrich", "200"))
	assert.Equal(t, 2.0, total)
}

func TestHandlerServesRegisteredMetrics(t *testing.T) {
	m := New()
	m.EnrichmentRunsTotal.WithLabelValues("completed").Inc()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/metrics", nil)
	m.Handler().ServeHTTP(rec, req)

	require.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), "dealsense_enrichment_runs_total")
}

func TestSeparateInstancesAreIsolated(t *testing.T) {
	a := New()
	b := New()

	a.ScoringRunsTotal.WithLabelValues("completed").Inc()

	assert.Equal(t, 1.0, testutil.ToFloat64(a.ScoringRunsTotal.WithLabelValues("completed")))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.ScoringRunsTotal.WithLabelValues("completed")))
}
