package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type tracedRow struct {
	ID    uint `gorm:"primaryKey"`
	Plate string
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&tracedRow{}))
	return db
}

func TestNewDBTracingPlugin_Defaults(t *testing.T) {
	p := NewDBTracingPlugin(DBTracingConfig{Enabled: true}, zap.NewNop())
	assert.Equal(t, "postgresql", p.config.DBSystem)
	assert.Equal(t, 200*time.Millisecond, p.config.SlowQueryThresh)
}

func TestDBTracingPlugin_DisabledRegistersNothing(t *testing.T) {
	db := openTestDB(t)
	p := NewDBTracingPlugin(DBTracingConfig{Enabled: false}, zap.NewNop())
	require.NoError(t, p.Register(db))

	assert.Nil(t, db.Callback().Query().Get("otel_timing:after_query"))
}

func TestDBTracingPlugin_Register(t *testing.T) {
	db := openTestDB(t)
	p := NewDBTracingPlugin(DBTracingConfig{Enabled: true, DBSystem: "sqlite"}, zap.NewNop())
	require.NoError(t, p.Register(db))

	assert.NotNil(t, db.Callback().Query().Get("otel_timing:after_query"))
	assert.NotNil(t, db.Callback().Create().Get("otel_timing:before_create"))
}

func TestDBTracingPlugin_AnnotatesSpans(t *testing.T) {
	db := openTestDB(t)
	p := NewDBTracingPlugin(DBTracingConfig{Enabled: true, SlowQueryThresh: time.Nanosecond}, zap.NewNop())
	require.NoError(t, p.registerCallbacks(db))

	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	ctx, span := tp.Tracer("test").Start(context.Background(), "parent")
	require.NoError(t, db.WithContext(ctx).Create(&tracedRow{Plate: "ABC1D23"}).Error)
	span.End()

	var parent sdktrace.ReadOnlySpan
	for _, s := range sr.Ended() {
		if s.Name() == "parent" {
			parent = s
		}
	}
	require.NotNil(t, parent)

	attrs := map[attribute.Key]attribute.Value{}
	for _, kv := range parent.Attributes() {
		attrs[kv.Key] = kv.Value
	}
	assert.Equal(t, int64(1), attrs["db.rows_affected"].AsInt64())
	assert.True(t, attrs["db.slow_query"].AsBool())
}
