package telemetry_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/dealership/backend/internal/domain/shared"
	"github.com/dealership/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// setupTestTracer installs an in-memory span recorder as the global provider
func setupTestTracer(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()

	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))

	original := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(original)
		_ = tp.Shutdown(context.Background())
	})
	return sr
}

func attrMap(attrs []attribute.KeyValue) map[string]string {
	out := make(map[string]string, len(attrs))
	for _, kv := range attrs {
		out[string(kv.Key)] = kv.Value.Emit()
	}
	return out
}

func TestStartServiceSpan(t *testing.T) {
	sr := setupTestTracer(t)
	id := uuid.New()

	_, span := telemetry.StartServiceSpan(context.Background(), "settlement", "settle",
		telemetry.WithAttribute("stock_item_id", id),
		telemetry.WithAttribute("instruments", 3),
	)
	telemetry.SetAttribute(span, "sale_id", "s-1")
	span.End()

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "settlement.settle", spans[0].Name())
	assert.Equal(t, telemetry.TracerName, spans[0].InstrumentationScope().Name)

	attrs := attrMap(spans[0].Attributes())
	assert.Equal(t, id.String(), attrs["stock_item_id"])
	assert.Equal(t, "3", attrs["instruments"])
	assert.Equal(t, "s-1", attrs["sale_id"])
}

func TestRecordError(t *testing.T) {
	sr := setupTestTracer(t)

	_, span := telemetry.StartSpan(context.Background(), "sale.update")
	telemetry.RecordError(span, errors.New("version mismatch"))
	telemetry.RecordError(span, nil)
	span.End()

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Equal(t, "version mismatch", spans[0].Status().Description)
	require.Len(t, spans[0].Events(), 1)
}

func TestAddEvent(t *testing.T) {
	sr := setupTestTracer(t)

	_, span := telemetry.StartSpan(context.Background(), "stock_item.create")
	telemetry.AddEvent(span, "quota_checked", "required", int64(42), 7, "ignored", "dangling")
	span.End()

	events := sr.Ended()[0].Events()
	require.Len(t, events, 1)
	assert.Equal(t, "quota_checked", events[0].Name)
	assert.Equal(t, map[string]string{"required": "42"}, attrMap(events[0].Attributes))
}

func TestOutcomeOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, telemetry.OutcomeSuccess},
		{"validation", shared.NewValidationError("plate", "required"), "validation_error"},
		{"quota", shared.ErrQuota, "quota_exceeded"},
		{"wrapped conflict", fmt.Errorf("save: %w", shared.ErrConflict), "conflict"},
		{"internal", shared.NewInternalError("boom", errors.New("db down")), telemetry.OutcomeError},
		{"plain", errors.New("network"), telemetry.OutcomeError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, telemetry.OutcomeOf(tt.err))
		})
	}
}
