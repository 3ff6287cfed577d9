package trade_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	tradeapp "github.com/dealership/backend/internal/application/trade"
	"github.com/dealership/backend/internal/domain/inventory"
	"github.com/dealership/backend/internal/domain/partner"
	"github.com/dealership/backend/internal/domain/vehicle"
	"github.com/dealership/backend/internal/infrastructure/persistence"
	"github.com/dealership/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type fixture struct {
	t     *testing.T
	db    *gorm.DB
	scope *persistence.GormTransactionScope
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(models.All()...))

	return &fixture{t: t, db: db, scope: persistence.NewGormTransactionScope(db)}
}

func (f *fixture) stockItem(acquisition string) *inventory.StockItem {
	f.t.Helper()
	return f.stockItemWith(acquisition, func(*inventory.StockItemAttributes) {})
}

// stockItemWith saves a Toyota Corolla 2020 with a random plate after
// letting edit adjust its attributes
func (f *fixture) stockItemWith(acquisition string, edit func(*inventory.StockItemAttributes)) *inventory.StockItem {
	f.t.Helper()
	attrs := inventory.StockItemAttributes{
		Brand: "Toyota",
		Model: "Corolla",
		Year:  2020,
		Plate: gofakeit.Regex(`[A-Z]{3}[0-9][A-Z][0-9]{2}`),
		Color: gofakeit.Color(),
	}
	if acquisition != "" {
		attrs.AcquisitionValue = money(acquisition)
	}
	edit(&attrs)
	item, err := inventory.NewStockItem(attrs, nil)
	require.NoError(f.t, err)
	require.NoError(f.t, persistence.NewGormStockItemRepository(f.db).Save(context.Background(), item))
	return item
}

// storedVehicle saves a vehicle with the given plate and status. A customer is
// attached when the status is not available.
func (f *fixture) storedVehicle(plate string, status vehicle.Status, customerID *uuid.UUID) *vehicle.Vehicle {
	f.t.Helper()
	seed, err := inventory.NewStockItem(inventory.StockItemAttributes{
		Brand: "Toyota", Model: "Corolla", Year: 2020, Plate: plate,
	}, nil)
	require.NoError(f.t, err)
	v := vehicle.NewFromStockItem(seed)
	v.OriginStockItemID = nil
	v.SalePrice = money("70000")
	v.TableValue = money("72000")
	v.Status = status
	v.CustomerID = customerID
	require.NoError(f.t, persistence.NewGormVehicleRepository(f.db).Create(context.Background(), v))
	return v
}

func (f *fixture) customer() uuid.UUID {
	f.t.Helper()
	c, err := partner.NewCustomer(gofakeit.Name(), gofakeit.SSN())
	require.NoError(f.t, err)
	require.NoError(f.t, persistence.NewGormCustomerRepository(f.db).Save(context.Background(), c))
	return c.ID
}

func (f *fixture) count(model any) int64 {
	f.t.Helper()
	var n int64
	require.NoError(f.t, f.db.Model(model).Count(&n).Error)
	return n
}

func money(v string) *decimal.Decimal {
	d := decimal.RequireFromString(v)
	return &d
}

func ptr[T any](v T) *T { return &v }

func cash(amount string) tradeapp.PaymentInstrumentInput {
	return tradeapp.PaymentInstrumentInput{Kind: "cash", Amount: decimal.RequireFromString(amount)}
}

func financing(t *testing.T, kind, amount string, count int, cadence string, first time.Time) tradeapp.PaymentInstrumentInput {
	t.Helper()
	details, err := json.Marshal(map[string]any{
		"installment_count": count,
		"cadence":           cadence,
		"first_due_date":    first,
	})
	require.NoError(t, err)
	return tradeapp.PaymentInstrumentInput{
		Kind:    kind,
		Amount:  decimal.RequireFromString(amount),
		Details: details,
	}
}

func saleRequest(customerID uuid.UUID, value string, instruments ...tradeapp.PaymentInstrumentInput) tradeapp.SettleRequest {
	return tradeapp.SettleRequest{
		ExitKind:    tradeapp.ExitSale,
		CustomerID:  &customerID,
		SellerID:    ptr(uuid.New()),
		SaleValue:   money(value),
		Instruments: instruments,
	}
}
