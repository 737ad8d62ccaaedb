package metrics

import (
	"cmp"
	"context"
	"slices"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// Collector 可按需采集指标的 reader，[sdkmetric.ManualReader] 即满足。
//
// [sdkmetric.ManualReader]: https://pkg.go.dev/go.opentelemetry.io/otel/sdk/metric#ManualReader
type Collector interface {
	Collect(ctx context.Context, rm *metricdata.ResourceMetrics) error
}

// Point 一个数据点的扁平快照。
//
// 计数器只填 Value；直方图的 Value 为总和，Count 为样本数。
type Point struct {
	Name       string            `json:"name"`
	Attributes map[string]string `json:"attributes,omitempty"`
	Value      float64           `json:"value"`
	Count      uint64            `json:"count,omitempty"`
}

// Snapshot 采集一次并按名称、属性排序返回所有数据点。
func Snapshot(ctx context.Context, c Collector) ([]Point, error) {
	var rm metricdata.ResourceMetrics
	if err := c.Collect(ctx, &rm); err != nil {
		return nil, err
	}

	var points []Point
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			points = appendPoints(points, m)
		}
	}
	slices.SortFunc(points, func(a, b Point) int {
		return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.Attributes["op"], b.Attributes["op"]),
			cmp.Compare(a.Attributes["cached"], b.Attributes["cached"]))
	})

	return points, nil
}

func appendPoints(points []Point, m metricdata.Metrics) []Point {
	switch data := m.Data.(type) {
	case metricdata.Sum[int64]:
		for _, dp := range data.DataPoints {
			points = append(points, Point{Name: m.Name, Attributes: attrs(dp.Attributes.ToSlice()), Value: float64(dp.Value)})
		}
	case metricdata.Sum[float64]:
		for _, dp := range data.DataPoints {
			points = append(points, Point{Name: m.Name, Attributes: attrs(dp.Attributes.ToSlice()), Value: dp.Value})
		}
	case metricdata.Histogram[int64]:
		for _, dp := range data.DataPoints {
			points = append(points, Point{Name: m.Name, Attributes: attrs(dp.Attributes.ToSlice()), Value: float64(dp.Sum), Count: dp.Count})
		}
	case metricdata.Histogram[float64]:
		for _, dp := range data.DataPoints {
			points = append(points, Point{Name: m.Name, Attributes: attrs(dp.Attributes.ToSlice()), Value: dp.Sum, Count: dp.Count})
		}
	}

	return points
}

func attrs(kvs []attribute.KeyValue) map[string]string {
	if len(kvs) == 0 {
		return nil
	}
	out := make(map[string]string, len(kvs))
	for _, kv := range kvs {
		out[string(kv.Key)] = kv.Value.Emit()
	}

	return out
}
