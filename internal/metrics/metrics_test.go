package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCounters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.Selection("catalog")
	m.Selection("catalog")
	m.Generation("timeout")
	m.CacheLookup(true)
	m.CacheLookup(false)
	m.Completion(true)
	m.BadgeAwarded("First Spark")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.selections.WithLabelValues("catalog")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.generations.WithLabelValues("timeout")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cacheLookups.WithLabelValues("hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cacheLookups.WithLabelValues("miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.completions.WithLabelValues("duplicate")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.badges.WithLabelValues("First Spark")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.Selection("fallback")
		m.Generation("ok")
		m.CacheLookup(true)
		m.Completion(false)
		m.BadgeAwarded("Inferno")
	})
}
