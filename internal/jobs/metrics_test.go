package jobmetrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestTrackerRecordsOutcome(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	assert.NoError(t, m.Track("refresh").End(nil))
	boom := errors.New("boom")
	assert.ErrorIs(t, m.Track("refresh").End(boom), boom)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("refresh", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("refresh", "failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.failures.WithLabelValues("refresh")))
}

func TestRoundOffRulesGauge(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	m.SetRoundOffRules(7)
	assert.Equal(t, 7.0, testutil.ToFloat64(m.rules))

	var nilMetrics *Metrics
	nilMetrics.SetRoundOffRules(3)
	assert.NoError(t, nilMetrics.Track("x").End(nil))
}
