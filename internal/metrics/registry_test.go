package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRegistry_Register(t *testing.T) {
	reg := prometheus.NewRegistry()
	mr := NewMetricsRegistry("testns")

	require.NoError(t, mr.Register(reg))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)

	names := map[string]bool{}
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["testns_store_query_duration_seconds"])
	assert.True(t, names["testns_scheduler_ticks_total"])
	assert.True(t, names["testns_governance_locks_active"])
	assert.True(t, names["testns_engine_evaluations_total"])
}

func TestMetricsRegistry_RegisterTwiceConflicts(t *testing.T) {
	reg := prometheus.NewRegistry()
	mr := NewMetricsRegistry("testns")
	require.NoError(t, mr.Register(reg))

	other := NewMetricsRegistry("testns")
	assert.Error(t, other.Register(reg))
}
