package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCounters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.IncrementTransition("applied")
	m.IncrementTransition("applied")
	m.IncrementTransition("forbidden")
	m.AddNotifications("REMARK", 2)
	m.IncrementDispatchFailure("empty_target_set")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Transitions.WithLabelValues("applied")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Transitions.WithLabelValues("forbidden")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.NotificationsCreated.WithLabelValues("REMARK")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DispatchFailures.WithLabelValues("empty_target_set")))
}

func TestGaugesReset(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.SetOpenBusinessMinutes(map[string]float64{"Open": 30, "Backlog": 600})
	m.SetOpenBusinessMinutes(map[string]float64{"Open": 45})
	m.SetSLABreaches(3)

	assert.Equal(t, 1, testutil.CollectAndCount(m.OpenBusinessMinutes))
	assert.Equal(t, 45.0, testutil.ToFloat64(m.OpenBusinessMinutes.WithLabelValues("Open")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.SLABreaches))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.IncrementTransition("applied")
		m.AddNotifications("TAG", 1)
		m.IncrementDispatchFailure("store")
		m.SetOpenBusinessMinutes(map[string]float64{"Open": 1})
		m.SetSLABreaches(1)
		m.ObserveHTTP("/health", "200", time.Millisecond)
	})
}
