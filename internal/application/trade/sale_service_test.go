package trade_test

import (
	"context"
	"errors"
	"testing"
	"time"

	tradeapp "github.com/dealership/backend/internal/application/trade"
	"github.com/dealership/backend/internal/domain/shared"
	"github.com/dealership/backend/internal/domain/vehicle"
	"github.com/dealership/backend/internal/infrastructure/persistence"
	"github.com/dealership/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type saleFixture struct {
	*fixture
	sales  *tradeapp.SaleService
	result *tradeapp.SettlementResult
}

// settled sells a fresh stock item and returns the services around it
func settled(t *testing.T, kind tradeapp.ExitKind, instruments ...tradeapp.PaymentInstrumentInput) *saleFixture {
	t.Helper()
	f := newFixture(t)
	req := saleRequest(f.customer(), "95000", instruments...)
	req.ExitKind = kind

	result, err := newSettlement(f).Settle(context.Background(), f.stockItem("80000").ID, req)
	require.NoError(t, err)
	return &saleFixture{fixture: f, sales: tradeapp.NewSaleService(f.scope, zap.NewNop()), result: result}
}

func TestSaleService_UpdateRecomputesProfit(t *testing.T) {
	sf := settled(t, tradeapp.ExitSale, cash("95000"))
	ctx := context.Background()

	updated, err := sf.sales.Update(ctx, sf.result.Sale.ID, tradeapp.UpdateSaleRequest{
		SalePrice: money("100000"),
		Notes:     ptr("price renegotiated"),
	})
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(20000).Equal(*updated.Profit))
	assert.Equal(t, "price renegotiated", updated.Notes)

	updated, err = sf.sales.Update(ctx, sf.result.Sale.ID, tradeapp.UpdateSaleRequest{PurchasePrice: money("90000")})
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(10000).Equal(*updated.Profit))

	v, err := newSettlement(sf.fixture).GetVehicle(ctx, sf.result.Vehicle.ID)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(100000).Equal(*v.SalePrice))
}

func TestSaleService_UpdateRejectsNegativePrice(t *testing.T) {
	sf := settled(t, tradeapp.ExitSale, cash("95000"))

	_, err := sf.sales.Update(context.Background(), sf.result.Sale.ID, tradeapp.UpdateSaleRequest{SalePrice: money("-1")})
	require.Error(t, err)
	assert.True(t, shared.IsValidation(err))
}

func TestSaleService_UpdateVersionMismatch(t *testing.T) {
	sf := settled(t, tradeapp.ExitSale, cash("95000"))
	ctx := context.Background()
	current := sf.result.Sale.Version

	_, err := sf.sales.Update(ctx, sf.result.Sale.ID, tradeapp.UpdateSaleRequest{
		Notes:   ptr("stale"),
		Version: ptr(current + 5),
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrConflict))

	updated, err := sf.sales.Update(ctx, sf.result.Sale.ID, tradeapp.UpdateSaleRequest{
		Notes:   ptr("fresh"),
		Version: ptr(current),
	})
	require.NoError(t, err)
	assert.Equal(t, "fresh", updated.Notes)
}

func TestSaleService_CompletePresale(t *testing.T) {
	sf := settled(t, tradeapp.ExitPresale)
	ctx := context.Background()
	assert.Equal(t, "reserved", sf.result.Vehicle.Status)

	updated, err := sf.sales.Update(ctx, sf.result.Sale.ID, tradeapp.UpdateSaleRequest{Status: ptr("completed")})
	require.NoError(t, err)
	assert.Equal(t, "completed", updated.Status)

	v, err := newSettlement(sf.fixture).GetVehicle(ctx, sf.result.Vehicle.ID)
	require.NoError(t, err)
	assert.Equal(t, "sold", v.Status)

	_, err = sf.sales.Update(ctx, sf.result.Sale.ID, tradeapp.UpdateSaleRequest{Status: ptr("in_progress")})
	require.Error(t, err)
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, shared.CodeInvalidState, domainErr.Code)
}

func TestSaleService_ReplaceInstruments(t *testing.T) {
	sf := settled(t, tradeapp.ExitSale, cash("50000"), cash("45000"))
	ctx := context.Background()
	require.Len(t, sf.result.Sale.Instruments, 2)
	kept := sf.result.Sale.Instruments[0]
	assert.Equal(t, int64(2), sf.count(&models.FinancialTransactionModel{}))

	updated, err := sf.sales.Update(ctx, sf.result.Sale.ID, tradeapp.UpdateSaleRequest{
		Instruments: []tradeapp.PaymentInstrumentInput{
			{ID: &kept.ID, Kind: "cash", Amount: decimal.NewFromInt(55000)},
			{Kind: "instant_transfer", Amount: decimal.NewFromInt(40000)},
		},
	})
	require.NoError(t, err)
	require.Len(t, updated.Instruments, 2)

	byKind := map[string]tradeapp.PaymentInstrumentResponse{}
	for _, in := range updated.Instruments {
		byKind[in.Kind] = in
	}
	assert.Equal(t, kept.ID, byKind["cash"].ID)
	assert.True(t, decimal.NewFromInt(55000).Equal(byKind["cash"].Amount))
	assert.Contains(t, byKind, "instant_transfer")

	txs, err := sf.sales.Transactions(ctx, sf.result.Sale.ID)
	require.NoError(t, err)
	require.Len(t, txs, 2)
	total := decimal.Zero
	for _, tx := range txs {
		total = total.Add(tx.Amount)
	}
	assert.True(t, decimal.NewFromInt(95000).Equal(total))
}

func TestSaleService_ReplaceUnknownInstrument(t *testing.T) {
	sf := settled(t, tradeapp.ExitSale, cash("95000"))

	_, err := sf.sales.Update(context.Background(), sf.result.Sale.ID, tradeapp.UpdateSaleRequest{
		Instruments: []tradeapp.PaymentInstrumentInput{{ID: ptr(uuid.New()), Kind: "cash", Amount: decimal.NewFromInt(1)}},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrNotFound))
}

func TestSaleService_InstallmentEditsSurviveRegeneration(t *testing.T) {
	first := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	financed := financing(t, "store_financing", "12000", 4, "monthly", first)
	sf := settled(t, tradeapp.ExitPresale, financed)
	ctx := context.Background()
	saleID := sf.result.Sale.ID
	instrumentID := sf.result.Sale.Instruments[0].ID

	updated, err := sf.sales.UpdateInstallment(ctx, saleID, instrumentID, 1, tradeapp.UpdateInstallmentRequest{
		Amount:         money("3500"),
		DocumentNumber: ptr("NP-2"),
	})
	require.NoError(t, err)
	edited := updated.Instruments[0].Installments[1]
	assert.True(t, decimal.NewFromInt(3500).Equal(edited.Amount))
	assert.True(t, edited.AmountEdited)
	assert.Equal(t, "NP-2", edited.DocumentNumber)

	financed.ID = &instrumentID
	updated, err = sf.sales.Update(ctx, saleID, tradeapp.UpdateSaleRequest{
		Instruments: []tradeapp.PaymentInstrumentInput{financed},
	})
	require.NoError(t, err)
	installments := updated.Instruments[0].Installments
	require.Len(t, installments, 4)
	assert.True(t, decimal.NewFromInt(3500).Equal(installments[1].Amount))
	assert.Equal(t, "NP-2", installments[1].DocumentNumber)
	assert.True(t, decimal.NewFromInt(3000).Equal(installments[2].Amount))

	updated, err = sf.sales.Update(ctx, saleID, tradeapp.UpdateSaleRequest{ResetSchedule: true})
	require.NoError(t, err)
	installments = updated.Instruments[0].Installments
	assert.True(t, decimal.NewFromInt(3000).Equal(installments[1].Amount))
	assert.False(t, installments[1].AmountEdited)
}

func TestSaleService_UpdateInstallmentErrors(t *testing.T) {
	first := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	sf := settled(t, tradeapp.ExitSale, cash("83000"), financing(t, "bank_financing", "12000", 2, "biweekly", first))
	ctx := context.Background()
	saleID := sf.result.Sale.ID

	var cashID, financedID uuid.UUID
	for _, in := range sf.result.Sale.Instruments {
		if in.Kind == "cash" {
			cashID = in.ID
		} else {
			financedID = in.ID
		}
	}

	tests := []struct {
		name         string
		instrumentID uuid.UUID
		index        int
		amount       string
		check        func(error) bool
	}{
		{"instrument without schedule", cashID, 0, "1", shared.IsValidation},
		{"index past the schedule", financedID, 7, "1", func(err error) bool { return errors.Is(err, shared.ErrNotFound) }},
		{"unknown instrument", uuid.New(), 0, "1", func(err error) bool { return errors.Is(err, shared.ErrNotFound) }},
		{"negative amount", financedID, 0, "-5", shared.IsValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := sf.sales.UpdateInstallment(ctx, saleID, tt.instrumentID, tt.index, tradeapp.UpdateInstallmentRequest{Amount: money(tt.amount)})
			require.Error(t, err)
			assert.True(t, tt.check(err), err.Error())
		})
	}
}

func TestSaleService_DeleteReleasesVehicle(t *testing.T) {
	sf := settled(t, tradeapp.ExitSale, cash("95000"))
	ctx := context.Background()

	require.NoError(t, sf.sales.Delete(ctx, sf.result.Sale.ID))

	_, err := sf.sales.GetByID(ctx, sf.result.Sale.ID)
	assert.True(t, errors.Is(err, shared.ErrNotFound))

	v, err := newSettlement(sf.fixture).GetVehicle(ctx, sf.result.Vehicle.ID)
	require.NoError(t, err)
	assert.Equal(t, "available", v.Status)
	assert.Nil(t, v.CustomerID)

	assert.Zero(t, sf.count(&models.PaymentInstrumentModel{}))
	assert.Zero(t, sf.count(&models.FinancialTransactionModel{}))

	err = sf.sales.Delete(ctx, sf.result.Sale.ID)
	assert.True(t, errors.Is(err, shared.ErrNotFound))
}

func TestSaleService_DeleteKeepsVehicleHeldByAnotherCustomer(t *testing.T) {
	sf := settled(t, tradeapp.ExitPresale)
	ctx := context.Background()

	// the vehicle has since been sold to someone else
	vehicles := persistence.NewGormVehicleRepository(sf.db)
	v, err := vehicles.FindByID(ctx, sf.result.Vehicle.ID)
	require.NoError(t, err)
	require.NoError(t, v.Release())
	other := sf.customer()
	require.NoError(t, v.Sell(other))
	require.NoError(t, vehicles.Update(ctx, v))

	require.NoError(t, sf.sales.Delete(ctx, sf.result.Sale.ID))

	got, err := vehicles.FindByID(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, vehicle.StatusSold, got.Status)
	assert.Equal(t, other, *got.CustomerID)
}

func TestSaleService_List(t *testing.T) {
	sf := settled(t, tradeapp.ExitSale, cash("95000"))
	ctx := context.Background()

	sales, total, err := sf.sales.List(ctx, tradeapp.SaleListFilter{CustomerID: sf.result.Sale.CustomerID.String()})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, sales, 1)
	assert.Equal(t, sf.result.Sale.ID, sales[0].ID)

	_, total, err = sf.sales.List(ctx, tradeapp.SaleListFilter{Status: "in_progress"})
	require.NoError(t, err)
	assert.Zero(t, total)

	_, _, err = sf.sales.List(ctx, tradeapp.SaleListFilter{VehicleID: "not-a-uuid"})
	require.Error(t, err)
	assert.True(t, shared.IsValidation(err))
}
