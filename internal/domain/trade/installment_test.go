package trade

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func dueDates(list []Installment) []time.Time {
	out := make([]time.Time, len(list))
	for i, inst := range list {
		out[i] = inst.DueDate
	}
	return out
}

func TestGenerateInstallments_Cadences(t *testing.T) {
	amount := decimal.NewFromInt(12000).DivRound(decimal.NewFromInt(4), 2)

	tests := []struct {
		name    string
		anchor  time.Time
		cadence Cadence
		count   int
		want    []time.Time
	}{
		{
			name:    "monthly",
			anchor:  day(2024, time.January, 10),
			cadence: CadenceMonthly,
			count:   4,
			want:    []time.Time{day(2024, 1, 10), day(2024, 2, 10), day(2024, 3, 10), day(2024, 4, 10)},
		},
		{
			name:    "biweekly",
			anchor:  day(2024, time.January, 10),
			cadence: CadenceBiweekly,
			count:   4,
			want:    []time.Time{day(2024, 1, 10), day(2024, 1, 25), day(2024, 2, 9), day(2024, 2, 24)},
		},
		{
			name:    "monthly clamps to end of shorter months",
			anchor:  day(2024, time.January, 31),
			cadence: CadenceMonthly,
			count:   4,
			want:    []time.Time{day(2024, 1, 31), day(2024, 2, 29), day(2024, 3, 31), day(2024, 4, 30)},
		},
		{
			name:    "monthly crosses year boundary",
			anchor:  day(2023, time.November, 30),
			cadence: CadenceMonthly,
			count:   3,
			want:    []time.Time{day(2023, 11, 30), day(2023, 12, 30), day(2024, 1, 30)},
		},
		{
			name:    "zero installments",
			anchor:  day(2024, time.January, 10),
			cadence: CadenceMonthly,
			count:   0,
			want:    []time.Time{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := GenerateInstallments(tt.anchor, tt.count, tt.cadence, amount, nil)
			require.NoError(t, err)
			require.Len(t, got, tt.count)
			assert.Equal(t, tt.want, dueDates(got))
			for i, inst := range got {
				assert.Equal(t, i, inst.Index)
				assert.True(t, inst.Amount.Equal(decimal.NewFromInt(3000)))
				assert.False(t, inst.AmountEdited)
			}
		})
	}
}

func TestGenerateInstallments_Invalid(t *testing.T) {
	_, err := GenerateInstallments(day(2024, 1, 10), -1, CadenceMonthly, decimal.Zero, nil)
	assert.Error(t, err)

	_, err = GenerateInstallments(day(2024, 1, 10), 3, Cadence("weekly"), decimal.Zero, nil)
	assert.Error(t, err)

	_, err = GenerateInstallments(day(2024, 1, 10), 3, CadenceMonthly, decimal.NewFromInt(-1), nil)
	assert.Error(t, err)
}

func TestGenerateInstallments_MergeKeepsEdits(t *testing.T) {
	anchor := day(2024, time.March, 5)
	base := decimal.NewFromInt(500)

	first, err := GenerateInstallments(anchor, 3, CadenceMonthly, base, nil)
	require.NoError(t, err)
	for i := range first {
		first[i].ID = uuid.New()
	}
	edited := decimal.NewFromInt(750)
	require.NoError(t, first[1].Edit(&edited, nil))
	doc := "NP-0003"
	require.NoError(t, first[2].Edit(nil, &doc))

	// anchor and count change; edits must survive by index
	second, err := GenerateInstallments(day(2024, time.April, 1), 4, CadenceBiweekly, decimal.NewFromInt(400), first)
	require.NoError(t, err)
	require.Len(t, second, 4)

	assert.Equal(t, first[0].ID, second[0].ID)
	assert.True(t, second[0].Amount.Equal(decimal.NewFromInt(400)))
	assert.True(t, second[1].Amount.Equal(edited))
	assert.True(t, second[1].AmountEdited)
	assert.Equal(t, "NP-0003", second[2].DocumentNumber)
	assert.True(t, second[2].Amount.Equal(decimal.NewFromInt(400)))
	assert.Equal(t, uuid.Nil, second[3].ID)
	assert.Equal(t, day(2024, time.April, 16), second[1].DueDate)

	t.Run("idempotent", func(t *testing.T) {
		third, err := GenerateInstallments(day(2024, time.April, 1), 4, CadenceBiweekly, decimal.NewFromInt(400), second)
		require.NoError(t, err)
		assert.Equal(t, second, third)
	})

	t.Run("shrinking drops trailing installments", func(t *testing.T) {
		shrunk, err := GenerateInstallments(anchor, 2, CadenceMonthly, base, second)
		require.NoError(t, err)
		require.Len(t, shrunk, 2)
		assert.True(t, shrunk[1].Amount.Equal(edited))
	})
}

func TestInstallment_Edit(t *testing.T) {
	inst := Installment{Amount: decimal.NewFromInt(100)}

	negative := decimal.NewFromInt(-5)
	assert.Error(t, inst.Edit(&negative, nil))
	assert.False(t, inst.AmountEdited)

	doc := "123"
	require.NoError(t, inst.Edit(nil, &doc))
	assert.Equal(t, "123", inst.DocumentNumber)
	assert.False(t, inst.AmountEdited)
}

func TestSumInstallments(t *testing.T) {
	list, err := GenerateInstallments(day(2024, 1, 1), 3, CadenceMonthly, decimal.NewFromInt(3333).Div(decimal.NewFromInt(100)), nil)
	require.NoError(t, err)
	assert.Equal(t, "99.99", SumInstallments(list).StringFixed(2))
}
