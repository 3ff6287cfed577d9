package trade

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

func TestInstrumentKind_Classification(t *testing.T) {
	tests := []struct {
		kind     InstrumentKind
		cash     bool
		financed bool
	}{
		{KindCash, true, false},
		{KindInstantTransfer, true, false},
		{KindDebitCard, false, false},
		{KindCreditCard, false, false},
		{KindCheck, false, false},
		{KindBankFinancing, false, true},
		{KindStoreFinancing, false, true},
		{KindPromissoryNote, false, true},
		{KindTradeVehicle, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			assert.True(t, tt.kind.IsValid())
			assert.Equal(t, tt.cash, tt.kind.IsCashEquivalent())
			assert.Equal(t, tt.financed, tt.kind.IsFinanced())
		})
	}
	assert.False(t, InstrumentKind("barter").IsValid())
}

func TestNewPaymentInstrument(t *testing.T) {
	date := day(2024, time.January, 10)
	amount := decimal.NewFromInt(1000)

	t.Run("cash gets empty details", func(t *testing.T) {
		p, err := NewPaymentInstrument(KindCash, amount, date, nil)
		require.NoError(t, err)
		assert.Equal(t, CashDetails{}, p.Details)
		assert.NotEqual(t, uuid.Nil, p.ID)
	})

	t.Run("financing requires details", func(t *testing.T) {
		_, err := NewPaymentInstrument(KindBankFinancing, amount, date, nil)
		assert.True(t, errors.Is(err, shared.ErrInvalidInput))
	})

	t.Run("details must match kind", func(t *testing.T) {
		_, err := NewPaymentInstrument(KindCash, amount, date, CheckDetails{Number: "1"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "do not match")
	})

	t.Run("check needs a number", func(t *testing.T) {
		_, err := NewPaymentInstrument(KindCheck, amount, date, CheckDetails{Bank: "001"})
		assert.Error(t, err)
	})

	t.Run("non-positive amount", func(t *testing.T) {
		_, err := NewPaymentInstrument(KindCash, decimal.Zero, date, nil)
		assert.Error(t, err)
	})

	t.Run("unknown kind", func(t *testing.T) {
		_, err := NewPaymentInstrument(InstrumentKind("barter"), amount, date, nil)
		assert.Error(t, err)
	})

	t.Run("financing defaults financed amount and cadence", func(t *testing.T) {
		p, err := NewPaymentInstrument(KindStoreFinancing, amount, date, &FinancingDetails{InstallmentCount: 2})
		require.NoError(t, err)
		fin, ok := p.Financing()
		require.True(t, ok)
		assert.True(t, fin.FinancedAmount.Equal(amount))
		assert.Equal(t, CadenceMonthly, fin.Cadence)
	})
}

func TestPaymentInstrument_Schedule(t *testing.T) {
	date := day(2024, time.January, 10)
	financed := decimal.NewFromInt(12000)

	p, err := NewPaymentInstrument(KindBankFinancing, financed, date, &FinancingDetails{
		Lender:           "Banco Uno",
		FinancedAmount:   financed,
		InstallmentCount: 4,
		Cadence:          CadenceMonthly,
	})
	require.NoError(t, err)
	require.NoError(t, p.Schedule(false))

	fin, _ := p.Financing()
	require.Len(t, fin.Installments, 4)
	for _, inst := range fin.Installments {
		assert.Equal(t, p.ID, inst.InstrumentID)
		assert.True(t, inst.Amount.Equal(decimal.NewFromInt(3000)))
	}

	t.Run("first due date overrides the instrument date", func(t *testing.T) {
		first := day(2024, time.February, 15)
		fin.FirstDueDate = &first
		require.NoError(t, p.Schedule(false))
		assert.Equal(t, first, fin.Installments[0].DueDate)
	})

	t.Run("explicit installment amount", func(t *testing.T) {
		explicit := decimal.NewFromInt(3100)
		fin.InstallmentAmount = &explicit
		require.NoError(t, p.Schedule(false))
		assert.True(t, fin.Installments[3].Amount.Equal(explicit))
	})

	t.Run("reset discards edits", func(t *testing.T) {
		inst, err := p.Installment(1)
		require.NoError(t, err)
		edited := decimal.NewFromInt(1)
		require.NoError(t, inst.Edit(&edited, nil))

		require.NoError(t, p.Schedule(false))
		assert.True(t, fin.Installments[1].Amount.Equal(edited))

		require.NoError(t, p.Schedule(true))
		assert.False(t, fin.Installments[1].AmountEdited)
		assert.True(t, fin.Installments[1].Amount.Equal(*fin.InstallmentAmount))
	})

	t.Run("missing installment", func(t *testing.T) {
		_, err := p.Installment(9)
		assert.True(t, errors.Is(err, shared.ErrNotFound))
	})
}

func TestPaymentInstrument_ScheduleNonFinanced(t *testing.T) {
	p, err := NewPaymentInstrument(KindCash, decimal.NewFromInt(10), day(2024, 1, 1), nil)
	require.NoError(t, err)
	assert.NoError(t, p.Schedule(false))

	_, err = p.Installment(0)
	assert.Error(t, err)
}

func TestDetailsCodec(t *testing.T) {
	tradeIn := uuid.New()
	first := day(2024, time.May, 1)
	installment := decimal.NewFromInt(250)

	tests := []struct {
		kind    InstrumentKind
		details Details
	}{
		{KindCash, CashDetails{}},
		{KindInstantTransfer, InstantTransferDetails{TransferKey: "key@bank"}},
		{KindCreditCard, CardDetails{Brand: "visa", AuthorizationCode: "A1", Installments: 3}},
		{KindCheck, CheckDetails{Bank: "341", Number: "000123"}},
		{KindPromissoryNote, &FinancingDetails{
			Guarantor:         "J. Silva",
			FinancedAmount:    decimal.NewFromInt(1000),
			InstallmentCount:  4,
			Cadence:           CadenceBiweekly,
			InstallmentAmount: &installment,
			FirstDueDate:      &first,
		}},
		{KindTradeVehicle, TradeVehicleDetails{TradeInID: &tradeIn, Description: "Fiat Uno 2010"}},
	}
	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			raw, err := EncodeDetails(tt.details)
			require.NoError(t, err)

			decoded, err := DecodeDetails(tt.kind, raw)
			require.NoError(t, err)
			assert.True(t, decoded.accepts(tt.kind))

			again, err := EncodeDetails(decoded)
			require.NoError(t, err)
			assert.JSONEq(t, string(raw), string(again))
		})
	}

	t.Run("empty financing payload", func(t *testing.T) {
		d, err := DecodeDetails(KindBankFinancing, nil)
		require.NoError(t, err)
		assert.Equal(t, CadenceMonthly, d.(*FinancingDetails).Cadence)
	})

	t.Run("malformed payload", func(t *testing.T) {
		_, err := DecodeDetails(KindCheck, []byte("{"))
		assert.Error(t, err)
	})
}
