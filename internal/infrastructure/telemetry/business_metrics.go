package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// BusinessMetrics records dealership business metrics: settlements by exit
// kind and outcome, and media quota usage. A nil *BusinessMetrics is valid
// and records nothing.
type BusinessMetrics struct {
	logger *zap.Logger

	settlementTotal    *Counter
	settlementDuration *Histogram
	quotaUsedBytes     *Gauge
	quotaBudgetBytes   *Gauge
}

// BusinessMetricsConfig holds configuration for business metrics.
type BusinessMetricsConfig struct {
	Meter  metric.Meter
	Logger *zap.Logger
}

// NewBusinessMetrics creates the business instruments on the given meter
func NewBusinessMetrics(cfg BusinessMetricsConfig) (*BusinessMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	bm := &BusinessMetrics{logger: logger}

	var err error
	if bm.settlementTotal, err = NewCounter(cfg.Meter,
		"dealership_settlement_total",
		"Settlement attempts by exit kind and outcome",
		"{settlements}",
	); err != nil {
		return nil, err
	}
	if bm.settlementDuration, err = NewHistogram(cfg.Meter,
		"dealership_settlement_duration_seconds",
		"Settlement latency including lock wait",
		"s",
		SettlementDurationBuckets...,
	); err != nil {
		return nil, err
	}
	if bm.quotaUsedBytes, err = NewGauge(cfg.Meter,
		"dealership_media_quota_used_bytes",
		"Encoded media bytes held by live stock items",
		"By",
	); err != nil {
		return nil, err
	}
	if bm.quotaBudgetBytes, err = NewGauge(cfg.Meter,
		"dealership_media_quota_budget_bytes",
		"Configured media storage budget",
		"By",
	); err != nil {
		return nil, err
	}

	return bm, nil
}

// RecordSettlement counts one settlement attempt
func (bm *BusinessMetrics) RecordSettlement(ctx context.Context, exitKind, outcome string) {
	if bm == nil {
		return
	}
	bm.settlementTotal.Inc(ctx, AttrExitKind.String(exitKind), AttrOutcome.String(outcome))
}

// RecordSettlementDuration records how long a settlement took
func (bm *BusinessMetrics) RecordSettlementDuration(ctx context.Context, exitKind string, d time.Duration) {
	if bm == nil {
		return
	}
	bm.settlementDuration.RecordDuration(ctx, d, AttrExitKind.String(exitKind))
}

// RecordQuotaUsage publishes the current media quota usage
func (bm *BusinessMetrics) RecordQuotaUsage(ctx context.Context, used, budget int64) {
	if bm == nil {
		return
	}
	bm.quotaUsedBytes.Record(ctx, used)
	bm.quotaBudgetBytes.Record(ctx, budget)
	if budget > 0 && used*10 >= budget*9 {
		bm.logger.Warn("media quota above 90%",
			zap.Int64("used", used),
			zap.Int64("budget", budget),
		)
	}
}

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewBusinessMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}
