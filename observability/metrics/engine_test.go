package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestObserveOrderPlacedIncrementsCounter(t *testing.T) {
	m := Engine()
	before := testutil.ToFloat64(m.ordersPlaced.WithLabelValues("0", "limit"))
	m.ObserveOrderPlaced(0, "limit")
	after := testutil.ToFloat64(m.ordersPlaced.WithLabelValues("0", "limit"))
	require.Equal(t, before+1, after)
}

func TestNilEngineMetricsAreNoops(t *testing.T) {
	var m *EngineMetrics
	require.NotPanics(t, func() {
		m.ObserveOrderPlaced(0, "limit")
		m.ObserveRejection("OrderDoesNotExist")
	})
}
