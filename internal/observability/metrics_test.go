package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNewMetricsRegisters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.RecordAssessment("city", "success")

	families, err := reg.Gather()
	assert.NoError(t, err)
	assert.NotEmpty(t, families)
	assert.Panics(t, func() { NewMetrics(reg) }, "collectors register once per registry")
}

func TestRecorders(t *testing.T) {
	m := NewMetricsForTesting()

	m.RecordAssessment("point", "error")
	m.RecordAssessment("point", "error")
	m.RecordPrediction("model", "High")
	m.RecordModelFallback("neutral")
	m.ObserveUpstream("weather", "success", 120*time.Millisecond)
	m.RecordSweep(4, 11)
	m.RecordSweep(1, 10)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Assessments.WithLabelValues("point", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Predictions.WithLabelValues("model", "High")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ModelFallbacks.WithLabelValues("neutral")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.UpstreamRequests.WithLabelValues("weather", "success")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.UpstreamDuration))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.SessionsEvicted))
	assert.Equal(t, 10.0, testutil.ToFloat64(m.ActiveSessions))
}
