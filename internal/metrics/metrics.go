// Package metrics 记录模板展开与替换服务的指标。
//
// 使用 OpenTelemetry 全局 MeterProvider；未配置 provider 时指标被丢弃。
// 关闭指标时使用 [Noop]。
package metrics

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MeterName 指标的 instrumentation scope 名称。
const MeterName = "strbuf"

// Recorder 指标记录接口。
type Recorder interface {
	// RecordCompile 记录一次模板获取，cached 表示命中已编译模板缓存。
	RecordCompile(ctx context.Context, cached bool, err error)

	// RecordExpand 记录一次模板展开。
	RecordExpand(ctx context.Context, outputBytes int, duration time.Duration, err error)

	// RecordSubstitute 记录一次缓冲区替换。
	RecordSubstitute(ctx context.Context, op string, outputBytes int, duration time.Duration, err error)
}

type otelRecorder struct {
	compiles      metric.Int64Counter
	expands       metric.Int64Counter
	expandLatency metric.Float64Histogram
	substitutes   metric.Int64Counter
	subLatency    metric.Float64Histogram
	outputSize    metric.Int64Histogram
	errors        metric.Int64Counter
}

var (
	defaultRecorder     *otelRecorder
	defaultRecorderOnce sync.Once
	defaultRecorderErr  error
)

func newOtelRecorder(meter metric.Meter) (*otelRecorder, error) {
	compiles, err := meter.Int64Counter("strbuf.template.compiles",
		metric.WithDescription("Number of template lookups"),
	)
	if err != nil {
		return nil, err
	}

	expands, err := meter.Int64Counter("strbuf.template.expands",
		metric.WithDescription("Number of template expansions"),
	)
	if err != nil {
		return nil, err
	}

	expandLatency, err := meter.Float64Histogram("strbuf.template.expand_latency_ms",
		metric.WithDescription("Template expansion latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	substitutes, err := meter.Int64Counter("strbuf.buffer.substitutes",
		metric.WithDescription("Number of buffer substitutions"),
	)
	if err != nil {
		return nil, err
	}

	subLatency, err := meter.Float64Histogram("strbuf.buffer.substitute_latency_ms",
		metric.WithDescription("Buffer substitution latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	outputSize, err := meter.Int64Histogram("strbuf.output.size_bytes",
		metric.WithDescription("Result size in bytes"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, err
	}

	errs, err := meter.Int64Counter("strbuf.errors",
		metric.WithDescription("Number of failed operations"),
	)
	if err != nil {
		return nil, err
	}

	return &otelRecorder{
		compiles:      compiles,
		expands:       expands,
		expandLatency: expandLatency,
		substitutes:   substitutes,
		subLatency:    subLatency,
		outputSize:    outputSize,
		errors:        errs,
	}, nil
}

// New 返回基于 OpenTelemetry 的 Recorder，初始化失败时回退到 [Noop]。
//
// 需要在调用前通过 otel.SetMeterProvider 配置 provider。
func New() Recorder {
	defaultRecorderOnce.Do(func() {
		defaultRecorder, defaultRecorderErr = newOtelRecorder(otel.Meter(MeterName))
	})
	if defaultRecorderErr != nil {
		slog.Warn("metrics initialization failed, using no-op recorder",
			slog.String("error", defaultRecorderErr.Error()))

		return Noop{}
	}

	return defaultRecorder
}

// NewFromProvider 基于指定 provider 创建 Recorder，不读写全局 provider。
func NewFromProvider(provider metric.MeterProvider) (Recorder, error) {
	return newOtelRecorder(provider.Meter(MeterName))
}

func (r *otelRecorder) RecordCompile(ctx context.Context, cached bool, err error) {
	r.compiles.Add(ctx, 1, metric.WithAttributes(attribute.Bool("cached", cached)))
	if err != nil {
		r.errors.Add(ctx, 1, metric.WithAttributes(attribute.String("op", "compile")))
	}
}

func (r *otelRecorder) RecordExpand(ctx context.Context, outputBytes int, duration time.Duration, err error) {
	attrs := metric.WithAttributes(attribute.String("op", "expand"))
	r.expands.Add(ctx, 1, attrs)
	r.expandLatency.Record(ctx, float64(duration.Microseconds())/1000, attrs)
	if err != nil {
		r.errors.Add(ctx, 1, attrs)

		return
	}
	r.outputSize.Record(ctx, int64(outputBytes), attrs)
}

func (r *otelRecorder) RecordSubstitute(ctx context.Context, op string, outputBytes int, duration time.Duration, err error) {
	attrs := metric.WithAttributes(attribute.String("op", op))
	r.substitutes.Add(ctx, 1, attrs)
	r.subLatency.Record(ctx, float64(duration.Microseconds())/1000, attrs)
	if err != nil {
		r.errors.Add(ctx, 1, attrs)

		return
	}
	r.outputSize.Record(ctx, int64(outputBytes), attrs)
}

// Noop 不做任何记录。
type Noop struct{}

var _ Recorder = Noop{}

// RecordCompile does nothing.
func (Noop) RecordCompile(context.Context, bool, error) {}

// RecordExpand does nothing.
func (Noop) RecordExpand(context.Context, int, time.Duration, error) {}

// RecordSubstitute does nothing.
func (Noop) RecordSubstitute(context.Context, string, int, time.Duration, error) {}
