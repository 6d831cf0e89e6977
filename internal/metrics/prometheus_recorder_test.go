package metrics

import (
	"net/http/httptest"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusRecorder_RecordsAndExposes(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)

	pr.ObserveStageDuration("load_content", 120*time.Millisecond)
	pr.ObserveBuildDuration(time.Second)
	pr.IncStageResult("load_content", ResultSuccess)
	pr.IncBuildOutcome("success")
	pr.AddReferenceWarnings(3)
	pr.SetPages(42)

	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	pr.Handler().ServeHTTP(rec, req)

	body := rec.Body.String()
	require.Equal(t, 200, rec.Code)
	assert.Contains(t, body, "bookbuilder_stage_results_total")
	assert.Contains(t, body, "bookbuilder_build_outcomes_total")
	assert.Contains(t, body, "bookbuilder_reference_warnings_total 3")
	assert.Contains(t, body, "bookbuilder_content_pages 42")
}

func TestNoopRecorder_SatisfiesInterface(t *testing.T) {
	var r Recorder = NoopRecorder{}
	r.ObserveStageDuration("x", time.Second)
	r.IncBuildOutcome("success")
	r.AddReferenceWarnings(1)
	r.SetPages(1)
}

func TestNewPrometheusRecorder_NilRegistry(t *testing.T) {
	pr := NewPrometheusRecorder(nil)
	require.NotNil(t, pr.Handler())
}
