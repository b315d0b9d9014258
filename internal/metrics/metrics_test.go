package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"netscan"
)

func TestCollectorRefreshPublishesCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	summary := netscan.NewSummary()
	summary.AddFlow()
	summary.AddFlow()
	summary.Record(netscan.EventScan)
	summary.Record(netscan.EventBenign)

	c := NewCollector(reg, summary, zap.NewNop())
	c.Refresh()

	families, err := reg.Gather()
	require.NoError(t, err)

	values := map[string]float64{}
	for _, f := range families {
		for _, m := range f.Metric {
			values[f.GetName()] = m.GetGauge().GetValue()
		}
	}

	require.Equal(t, float64(2), values["netscan_flows_total"])
	require.Equal(t, float64(1), values["netscan_events_scanner_total"])
	require.Equal(t, float64(1), values["netscan_events_benign_total"])
}
