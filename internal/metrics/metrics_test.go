package metrics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func setupMetricsTest(t *testing.T) *sdkmetric.ManualReader {
	t.Helper()

	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	original := otel.GetMeterProvider()
	otel.SetMeterProvider(provider)

	t.Cleanup(func() {
		otel.SetMeterProvider(original)
		_ = provider.Shutdown(context.Background())
	})

	return reader
}

func collectSum(t *testing.T, reader *sdkmetric.ManualReader, name string) int64 {
	t.Helper()

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok, "metric %s is not an int64 sum", name)
			var total int64
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}

			return total
		}
	}

	return 0
}

func TestRecorder_Counts(t *testing.T) {
	reader := setupMetricsTest(t)

	r, err := newOtelRecorder(otel.Meter(MeterName))
	require.NoError(t, err)

	ctx := context.Background()
	r.RecordCompile(ctx, false, nil)
	r.RecordCompile(ctx, true, nil)
	r.RecordExpand(ctx, 12, time.Millisecond, nil)
	r.RecordExpand(ctx, 0, time.Millisecond, errors.New("boom"))
	r.RecordSubstitute(ctx, "replace-all", 5, time.Microsecond, nil)

	assert.Equal(t, int64(2), collectSum(t, reader, "strbuf.template.compiles"))
	assert.Equal(t, int64(2), collectSum(t, reader, "strbuf.template.expands"))
	assert.Equal(t, int64(1), collectSum(t, reader, "strbuf.buffer.substitutes"))
	assert.Equal(t, int64(1), collectSum(t, reader, "strbuf.errors"))
}

func TestSnapshot(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	r, err := NewFromProvider(provider)
	require.NoError(t, err)

	ctx := context.Background()
	r.RecordSubstitute(ctx, "replace-all", 5, 2*time.Millisecond, nil)
	r.RecordSubstitute(ctx, "range", 3, 4*time.Millisecond, nil)

	points, err := Snapshot(ctx, reader)
	require.NoError(t, err)

	var latency []Point
	for _, p := range points {
		if p.Name == "strbuf.buffer.substitute_latency_ms" {
			latency = append(latency, p)
		}
	}
	require.Len(t, latency, 2)
	assert.Equal(t, "range", latency[0].Attributes["op"], "sorted by op")
	assert.Equal(t, uint64(1), latency[0].Count)
	assert.InDelta(t, 4.0, latency[0].Value, 0.001)
	assert.InDelta(t, 2.0, latency[1].Value, 0.001)

	assert.Contains(t, points, Point{Name: "strbuf.output.size_bytes", Attributes: map[string]string{"op": "range"}, Value: 3, Count: 1})
}

func TestNew_ReturnsRecorder(t *testing.T) {
	r := New()
	require.NotNil(t, r)

	_, isNoop := r.(Noop)
	assert.False(t, isNoop)
}

func TestNoop(t *testing.T) {
	var r Recorder = Noop{}
	r.RecordCompile(context.Background(), true, nil)
	r.RecordExpand(context.Background(), 1, time.Second, nil)
	r.RecordSubstitute(context.Background(), "x", 1, time.Second, nil)
}
