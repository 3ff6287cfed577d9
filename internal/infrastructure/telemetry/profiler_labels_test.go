package telemetry

import (
	"context"
	"runtime/pprof"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeLabels(t *testing.T) {
	pairs := sanitizeLabels(map[string]string{
		"operation":  "settlement",
		"Exit-Kind":  "sale",
		"sale_id":    "should be dropped",
		"empty":      "",
		"!!!":        "no usable key",
		"long_value": strings.Repeat("x", MaxLabelValueLength+10),
	})

	assert.Equal(t, []string{
		"exit_kind", "sale",
		"long_value", strings.Repeat("x", MaxLabelValueLength),
		"operation", "settlement",
	}, pairs)
}

func TestOperationLabels(t *testing.T) {
	labels := OperationLabels("settlement", map[string]string{"exit_kind": "presale", "operation": "overridden"})
	assert.Equal(t, map[string]string{"operation": "settlement", "exit_kind": "presale"}, labels)
}

func TestWithProfilingLabels(t *testing.T) {
	t.Run("attaches labels", func(t *testing.T) {
		var got string
		WithProfilingLabels(context.Background(), OperationLabels("settlement", nil), func(ctx context.Context) {
			got, _ = pprof.Label(ctx, "operation")
		})
		assert.Equal(t, "settlement", got)
	})

	t.Run("runs without labels", func(t *testing.T) {
		called := false
		WithProfilingLabels(context.Background(), nil, func(context.Context) { called = true })
		assert.True(t, called)
	})
}
