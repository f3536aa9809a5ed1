package backupq

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"
)

func gaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, g.Write(&m))
	return m.GetGauge().GetValue()
}

func TestMetrics_LabelledByNamespace(t *testing.T) {
	store := NewMemoryStore()
	qa, _ := newTestQueue(t, store, &scriptedUploader{}, WithNamespace("metrics-a"))
	qb, _ := newTestQueue(t, store, &scriptedUploader{}, WithNamespace("metrics-b"))
	ctx := context.Background()

	for _, name := range []string{"1", "2"} {
		_, err := qa.Enqueue(ctx, sampleArtifact(name), Destination{})
		require.NoError(t, err)
	}
	_, err := qb.Enqueue(ctx, sampleArtifact("3"), Destination{})
	require.NoError(t, err)
	qb.OnOffline()

	require.Equal(t, 2.0, gaugeValue(t, queueLengthVec.WithLabelValues("metrics-a")))
	require.Equal(t, 1.0, gaugeValue(t, queueLengthVec.WithLabelValues("metrics-b")))
	require.Equal(t, 1.0, gaugeValue(t, onlineGaugeVec.WithLabelValues("metrics-a")))
	require.Equal(t, 0.0, gaugeValue(t, onlineGaugeVec.WithLabelValues("metrics-b")))
}
