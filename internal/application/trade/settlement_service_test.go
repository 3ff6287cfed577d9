package trade_test

import (
	"context"
	"errors"
	"testing"
	"time"

	appshared "github.com/dealership/backend/internal/application/shared"
	tradeapp "github.com/dealership/backend/internal/application/trade"
	"github.com/dealership/backend/internal/domain/inventory"
	"github.com/dealership/backend/internal/domain/shared"
	"github.com/dealership/backend/internal/domain/trade"
	"github.com/dealership/backend/internal/domain/vehicle"
	"github.com/dealership/backend/internal/infrastructure/cache"
	"github.com/dealership/backend/internal/infrastructure/lock"
	"github.com/dealership/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newSettlement(f *fixture) *tradeapp.SettlementService {
	return tradeapp.NewSettlementService(f.scope, nil, nil, tradeapp.SettlementConfig{}, zap.NewNop())
}

func TestSettle_CashSale(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	item := f.stockItem("80000")
	customerID := f.customer()

	result, err := newSettlement(f).Settle(ctx, item.ID, saleRequest(customerID, "95000", cash("95000")))
	require.NoError(t, err)

	require.NotNil(t, result.Sale)
	assert.Equal(t, tradeapp.ExitSale, result.ExitKind)
	assert.True(t, decimal.NewFromInt(15000).Equal(*result.Sale.Profit))
	assert.Equal(t, string(trade.SaleStatusCompleted), result.Sale.Status)
	assert.Equal(t, "sold", result.Vehicle.Status)
	assert.Equal(t, customerID, *result.Vehicle.CustomerID)
	assert.Equal(t, item.ID, *result.Vehicle.OriginStockItemID)

	assert.Zero(t, f.count(&models.StockItemModel{}))
	txs, err := tradeapp.NewSaleService(f.scope, zap.NewNop()).Transactions(ctx, result.Sale.ID)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.True(t, decimal.NewFromInt(95000).Equal(txs[0].Amount))
}

func TestSettle_FinancedSchedules(t *testing.T) {
	first := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		cadence string
		want    []string
	}{
		{"monthly", []string{"2024-01-10", "2024-02-10", "2024-03-10", "2024-04-10"}},
		{"biweekly", []string{"2024-01-10", "2024-01-25", "2024-02-09", "2024-02-24"}},
	}

	for _, tt := range tests {
		t.Run(tt.cadence, func(t *testing.T) {
			f := newFixture(t)
			item := f.stockItem("9000")
			req := saleRequest(f.customer(), "12000", financing(t, "store_financing", "12000", 4, tt.cadence, first))

			result, err := newSettlement(f).Settle(context.Background(), item.ID, req)
			require.NoError(t, err)

			require.Len(t, result.Sale.Instruments, 1)
			installments := result.Sale.Instruments[0].Installments
			require.Len(t, installments, len(tt.want))
			for i, inst := range installments {
				assert.Equal(t, tt.want[i], inst.DueDate.Format("2006-01-02"), "installment %d", i)
				assert.True(t, decimal.NewFromInt(3000).Equal(inst.Amount))
			}
		})
	}
}

func TestSettle_AlreadyConsumed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	item := f.stockItem("80000")
	customerID := f.customer()
	svc := newSettlement(f)

	_, err := svc.Settle(ctx, item.ID, saleRequest(customerID, "95000", cash("95000")))
	require.NoError(t, err)

	_, err = svc.Settle(ctx, item.ID, saleRequest(customerID, "95000", cash("95000")))
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrNotFound))
	assert.Equal(t, int64(1), f.count(&models.SaleModel{}))
}

func TestSettle_Presale(t *testing.T) {
	f := newFixture(t)
	item := f.stockItem("50000")
	req := saleRequest(f.customer(), "60000")
	req.ExitKind = tradeapp.ExitPresale

	result, err := newSettlement(f).Settle(context.Background(), item.ID, req)
	require.NoError(t, err)
	assert.Equal(t, string(trade.SaleStatusInProgress), result.Sale.Status)
	assert.Equal(t, "reserved", result.Vehicle.Status)
}

func TestSettle_Transfer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	item := f.stockItem("")
	svc := newSettlement(f)

	result, err := svc.Settle(ctx, item.ID, tradeapp.SettleRequest{
		ExitKind:    tradeapp.ExitTransfer,
		Destination: "Branch 2",
	})
	require.NoError(t, err)
	require.NotNil(t, result.Transfer)
	assert.Nil(t, result.Sale)
	assert.Equal(t, item.Plate, result.Transfer.Plate)

	got, err := svc.GetTransfer(ctx, result.Transfer.ID)
	require.NoError(t, err)
	assert.Equal(t, "Branch 2", got.Destination)
	assert.Zero(t, f.count(&models.StockItemModel{}))
	assert.Zero(t, f.count(&models.FinancialTransactionModel{}))
}

func TestSettle_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	item := f.stockItem("80000")
	svc := newSettlement(f)

	tests := []struct {
		name  string
		req   tradeapp.SettleRequest
		check func(error) bool
	}{
		{"unknown exit kind", tradeapp.SettleRequest{ExitKind: "lease"}, shared.IsValidation},
		{"missing customer", tradeapp.SettleRequest{ExitKind: tradeapp.ExitSale, SellerID: ptr(uuid.New())}, shared.IsValidation},
		{"missing seller", tradeapp.SettleRequest{ExitKind: tradeapp.ExitSale, CustomerID: ptr(uuid.New())}, shared.IsValidation},
		{"unknown customer", saleRequest(uuid.New(), "1000"), func(err error) bool { return errors.Is(err, shared.ErrNotFound) }},
		{"bad instrument", saleRequest(f.customer(), "1000", tradeapp.PaymentInstrumentInput{Kind: "gold"}), shared.IsValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Settle(ctx, item.ID, tt.req)
			require.Error(t, err)
			assert.True(t, tt.check(err), err.Error())
		})
	}

	// none of the rejected requests consumed the item
	assert.Equal(t, int64(1), f.count(&models.StockItemModel{}))
	assert.Zero(t, f.count(&models.VehicleModel{}))
}

// failingSales breaks sale inserts so the transaction fails after the
// vehicle has been written
type failingSales struct {
	trade.SaleRepository
}

func (failingSales) Create(context.Context, *trade.Sale) error {
	return errors.New("disk full")
}

type faultyRepos struct {
	appshared.TransactionalRepositories
}

func (r faultyRepos) Sales() trade.SaleRepository {
	return failingSales{r.TransactionalRepositories.Sales()}
}

type faultyScope struct {
	inner appshared.TransactionScope
}

func (s faultyScope) Execute(ctx context.Context, fn func(appshared.TransactionalRepositories) error) error {
	return s.inner.Execute(ctx, func(repos appshared.TransactionalRepositories) error {
		return fn(faultyRepos{repos})
	})
}

func TestSettle_FailureRollsBack(t *testing.T) {
	f := newFixture(t)
	item := f.stockItem("80000")
	svc := tradeapp.NewSettlementService(faultyScope{f.scope}, nil, nil, tradeapp.SettlementConfig{}, zap.NewNop())

	_, err := svc.Settle(context.Background(), item.ID, saleRequest(f.customer(), "95000", cash("95000")))
	require.Error(t, err)

	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, shared.CodeInternal, domainErr.Code)

	assert.Zero(t, f.count(&models.VehicleModel{}))
	assert.Zero(t, f.count(&models.FinancialTransactionModel{}))
	assert.Equal(t, int64(1), f.count(&models.StockItemModel{}))
}

func TestSettle_IdempotencyKey(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	store := cache.NewInMemoryIdempotencyStore(time.Minute)
	t.Cleanup(func() { _ = store.Close() })
	svc := tradeapp.NewSettlementService(f.scope, lock.NewLocalLocker(), store, tradeapp.SettlementConfig{}, zap.NewNop())

	first := f.stockItem("1000")
	req := tradeapp.SettleRequest{ExitKind: tradeapp.ExitTransfer, IdempotencyKey: "req-1"}
	_, err := svc.Settle(ctx, first.ID, req)
	require.NoError(t, err)

	second := f.stockItem("1000")
	_, err = svc.Settle(ctx, second.ID, req)
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrConflict))
	assert.Equal(t, int64(1), f.count(&models.StockItemModel{}))

	req.IdempotencyKey = "req-2"
	_, err = svc.Settle(ctx, second.ID, req)
	require.NoError(t, err)
}

type busyLocker struct{}

func (busyLocker) Obtain(context.Context, string, time.Duration) (appshared.Lock, error) {
	return nil, appshared.ErrLockNotObtained
}

func TestSettle_LockHeld(t *testing.T) {
	f := newFixture(t)
	item := f.stockItem("1000")
	svc := tradeapp.NewSettlementService(f.scope, busyLocker{}, nil, tradeapp.SettlementConfig{}, zap.NewNop())

	_, err := svc.Settle(context.Background(), item.ID, tradeapp.SettleRequest{ExitKind: tradeapp.ExitTransfer})
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrConflict))
	assert.Equal(t, int64(1), f.count(&models.StockItemModel{}))
}

func TestSettle_AcceptsTradeIn(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	customerID := f.customer()
	tradeIns := tradeapp.NewTradeInService(f.scope, zap.NewNop())

	offered, err := tradeIns.Create(ctx, tradeapp.CreateTradeInRequest{
		CustomerID:     customerID,
		Brand:          "Honda",
		Model:          "Fit",
		Year:           2014,
		AppraisedValue: money("30000"),
	})
	require.NoError(t, err)
	assert.Equal(t, "pending", offered.Status)

	item := f.stockItem("70000")
	req := saleRequest(customerID, "90000", cash("60000"), tradeapp.PaymentInstrumentInput{
		Kind:    "trade_vehicle",
		Amount:  decimal.NewFromInt(30000),
		Details: []byte(`{"trade_in_id":"` + offered.ID.String() + `"}`),
	})
	req.TradeInID = &offered.ID

	result, err := newSettlement(f).Settle(ctx, item.ID, req)
	require.NoError(t, err)
	assert.Equal(t, offered.ID, *result.Sale.TradeInID)

	got, err := tradeIns.GetByID(ctx, offered.ID)
	require.NoError(t, err)
	assert.Equal(t, "accepted", got.Status)

	// a decided trade-in cannot be used again
	_, err = newSettlement(f).Settle(ctx, f.stockItem("1000").ID, req)
	require.Error(t, err)
	assert.True(t, shared.IsValidation(err))
}

func TestSettle_LinkedVehicle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	linked := f.storedVehicle("QRS4T56", vehicle.StatusAvailable, nil)
	item := f.stockItemWith("80000", func(a *inventory.StockItemAttributes) {
		a.Plate = ""
		a.VehicleID = &linked.ID
	})
	customerID := f.customer()

	result, err := newSettlement(f).Settle(ctx, item.ID, saleRequest(customerID, "95000", cash("95000")))
	require.NoError(t, err)

	assert.Equal(t, linked.ID, result.Vehicle.ID)
	assert.Equal(t, linked.ID, result.Sale.VehicleID)
	assert.Equal(t, "sold", result.Vehicle.Status)
	assert.Equal(t, customerID, *result.Vehicle.CustomerID)
	assert.True(t, decimal.NewFromInt(95000).Equal(*result.Vehicle.SalePrice))
	assert.True(t, decimal.NewFromInt(80000).Equal(*result.Vehicle.AcquisitionCost))
	assert.True(t, decimal.NewFromInt(72000).Equal(*result.Vehicle.TableValue), "unsupplied values are kept")
	assert.Equal(t, int64(1), f.count(&models.VehicleModel{}))
}

func TestSettle_PlateMatch(t *testing.T) {
	f := newFixture(t)
	existing := f.storedVehicle("ABC1D23", vehicle.StatusAvailable, nil)
	item := f.stockItemWith("80000", func(a *inventory.StockItemAttributes) {
		a.Plate = "abc-1d23"
	})
	req := saleRequest(f.customer(), "95000", cash("95000"))
	req.TableValue = money("99000")

	result, err := newSettlement(f).Settle(context.Background(), item.ID, req)
	require.NoError(t, err)

	assert.Equal(t, existing.ID, result.Vehicle.ID)
	assert.True(t, decimal.NewFromInt(99000).Equal(*result.Vehicle.TableValue))
	assert.Equal(t, int64(1), f.count(&models.VehicleModel{}))
}

func TestSettle_LinkedVehicleUnavailable(t *testing.T) {
	holder := uuid.New()
	tests := []struct {
		name     string
		status   vehicle.Status
		customer *uuid.UUID
	}{
		{"sold", vehicle.StatusSold, &holder},
		{"reserved for another customer", vehicle.StatusReserved, &holder},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			linked := f.storedVehicle("QRS4T56", tt.status, tt.customer)
			item := f.stockItemWith("80000", func(a *inventory.StockItemAttributes) {
				a.VehicleID = &linked.ID
			})

			_, err := newSettlement(f).Settle(context.Background(), item.ID, saleRequest(f.customer(), "95000", cash("95000")))
			require.Error(t, err)
			assert.True(t, errors.Is(err, shared.ErrInvalidState), err.Error())

			assert.Equal(t, int64(1), f.count(&models.StockItemModel{}))
			assert.Zero(t, f.count(&models.SaleModel{}))
		})
	}
}

func TestSettle_PlateMatchSkipsReservedVehicle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := newSettlement(f)

	first := f.stockItemWith("50000", func(a *inventory.StockItemAttributes) { a.Plate = "JKL7M89" })
	presale := saleRequest(f.customer(), "60000")
	presale.ExitKind = tradeapp.ExitPresale
	reserved, err := svc.Settle(ctx, first.ID, presale)
	require.NoError(t, err)

	second := f.stockItemWith("80000", func(a *inventory.StockItemAttributes) { a.Plate = "JKL7M89" })
	buyer := f.customer()
	sold, err := svc.Settle(ctx, second.ID, saleRequest(buyer, "95000", cash("95000")))
	require.NoError(t, err)

	assert.NotEqual(t, reserved.Vehicle.ID, sold.Vehicle.ID)
	assert.Equal(t, buyer, *sold.Vehicle.CustomerID)

	v, err := svc.GetVehicle(ctx, reserved.Vehicle.ID)
	require.NoError(t, err)
	assert.Equal(t, "reserved", v.Status)
	assert.Equal(t, *presale.CustomerID, *v.CustomerID)
}
