// Package telemetry records parse and recovery counters through
// OpenTelemetry.
package telemetry

import (
	"context"
	"time"

	"github.com/dhamidi/ziggurat/syntax/recovery"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	ParseCounterName           = "ziggurat_parses_total"
	RecoveryCounterName        = "ziggurat_recoveries_total"
	ExhaustedCounterName       = "ziggurat_recoveries_exhausted_total"
	CancelledCounterName       = "ziggurat_parses_cancelled_total"
	ParseDurationHistogramName = "ziggurat_parse_duration_seconds"
)

const (
	AttrSource  = "source"  // codebase, check, lsp
	AttrOutcome = "outcome" // clean, recovered, failed
)

const instrumentationName = "github.com/dhamidi/ziggurat"

// Metrics holds the instruments for one meter. A nil *Metrics records
// nothing, so callers never need to check whether metrics are enabled.
type Metrics struct {
	parses    metric.Int64Counter
	recovered metric.Int64Counter
	exhausted metric.Int64Counter
	cancelled metric.Int64Counter
	duration  metric.Float64Histogram
}

// NewMetricsWithProvider creates the instruments on a meter from provider.
func NewMetricsWithProvider(provider metric.MeterProvider) (*Metrics, error) {
	meter := provider.Meter(instrumentationName, metric.WithInstrumentationVersion("0.1.0"))

	parses, err := meter.Int64Counter(
		ParseCounterName,
		metric.WithDescription("Total number of parse sessions"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, err
	}

	recovered, err := meter.Int64Counter(
		RecoveryCounterName,
		metric.WithDescription("Total number of recovery attempts that found a sync point"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, err
	}

	exhausted, err := meter.Int64Counter(
		ExhaustedCounterName,
		metric.WithDescription("Total number of recovery attempts refused by the per-position budget"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, err
	}

	cancelled, err := meter.Int64Counter(
		CancelledCounterName,
		metric.WithDescription("Total number of parse sessions stopped by cancellation"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, err
	}

	// Parses of a single file range from microseconds to a few hundred
	// milliseconds.
	duration, err := meter.Float64Histogram(
		ParseDurationHistogramName,
		metric.WithDescription("Duration of parse sessions in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		parses:    parses,
		recovered: recovered,
		exhausted: exhausted,
		cancelled: cancelled,
		duration:  duration,
	}, nil
}

// Parse describes one finished parse session.
type Parse struct {
	Source    string
	Stats     recovery.Stats
	Failed    bool
	Cancelled bool
	Duration  time.Duration
}

func (p Parse) outcome() string {
	switch {
	case p.Failed:
		return "failed"
	case p.Stats.Recovered > 0:
		return "recovered"
	default:
		return "clean"
	}
}

// RecordParse adds one session to every instrument.
func (m *Metrics) RecordParse(ctx context.Context, p Parse) {
	if m == nil {
		return
	}

	source := attribute.String(AttrSource, p.Source)
	m.parses.Add(ctx, 1, metric.WithAttributes(source, attribute.String(AttrOutcome, p.outcome())))
	m.duration.Record(ctx, p.Duration.Seconds(), metric.WithAttributes(source))

	if p.Stats.Recovered > 0 {
		m.recovered.Add(ctx, int64(p.Stats.Recovered), metric.WithAttributes(source))
	}
	if p.Stats.Exhausted > 0 {
		m.exhausted.Add(ctx, int64(p.Stats.Exhausted), metric.WithAttributes(source))
	}
	if p.Cancelled {
		m.cancelled.Add(ctx, 1, metric.WithAttributes(source))
	}
}
