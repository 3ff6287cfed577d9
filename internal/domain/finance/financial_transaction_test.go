package finance

import (
	"errors"
	"testing"
	"time"

	"github.com/dealership/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewReceivable(t *testing.T) {
	sale, instrument := uuid.New(), uuid.New()
	due := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)

	ft, err := NewReceivable(sale, instrument, "  Toyota Corolla 2020 - cash ", decimal.NewFromInt(95000), due)
	require.NoError(t, err)

	assert.Equal(t, KindReceivable, ft.Kind)
	assert.Equal(t, StatusPending, ft.Status)
	assert.Equal(t, "Toyota Corolla 2020 - cash", ft.Description)
	assert.Equal(t, sale, *ft.SaleID)
	assert.Equal(t, instrument, *ft.InstrumentID)
	assert.Nil(t, ft.StockItemID)

	t.Run("validation", func(t *testing.T) {
		tests := []struct {
			name   string
			sale   uuid.UUID
			desc   string
			amount decimal.Decimal
			due    time.Time
		}{
			{"missing sale", uuid.Nil, "x", decimal.NewFromInt(1), due},
			{"blank description", sale, " ", decimal.NewFromInt(1), due},
			{"negative amount", sale, "x", decimal.NewFromInt(-1), due},
			{"missing due date", sale, "x", decimal.NewFromInt(1), time.Time{}},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := NewReceivable(tt.sale, instrument, tt.desc, tt.amount, tt.due)
				assert.True(t, shared.IsValidation(err))
			})
		}
	})
}

func TestNewPayable(t *testing.T) {
	item := uuid.New()
	ft, err := NewPayable(item, "Acquisition", decimal.NewFromInt(80000), time.Now())
	require.NoError(t, err)
	assert.Equal(t, KindPayable, ft.Kind)
	assert.Equal(t, item, *ft.StockItemID)
	assert.Nil(t, ft.SaleID)

	_, err = NewPayable(uuid.Nil, "Acquisition", decimal.NewFromInt(1), time.Now())
	assert.Error(t, err)
}

func TestFinancialTransaction_PaidIsFrozen(t *testing.T) {
	ft, err := NewPayable(uuid.New(), "Acquisition", decimal.NewFromInt(100), time.Now())
	require.NoError(t, err)

	require.NoError(t, ft.Reschedule("Acquisition (revised)", decimal.NewFromInt(120), time.Now()))
	assert.True(t, ft.Amount.Equal(decimal.NewFromInt(120)))

	paidAt := time.Now()
	require.NoError(t, ft.MarkPaid(paidAt))
	assert.False(t, ft.IsPending())
	assert.Equal(t, paidAt, *ft.PaidAt)

	err = ft.Reschedule("again", decimal.NewFromInt(1), time.Now())
	assert.True(t, errors.Is(err, shared.ErrInvalidState))
	assert.Error(t, ft.MarkPaid(time.Now()))
}
