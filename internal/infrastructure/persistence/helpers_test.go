package persistence

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/brianvoe/gofakeit/v7"
	"github.com/dealership/backend/internal/domain/inventory"
	"github.com/dealership/backend/internal/domain/partner"
	"github.com/dealership/backend/internal/domain/shared/valueobject"
	"github.com/dealership/backend/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newSQLiteDB opens an in-memory database with every model migrated.
// A single connection keeps the memory database alive for the whole test.
func newSQLiteDB(t *testing.T) *gorm.DB {
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
	return db
}

// newMockPostgres returns a GORM postgres session backed by sqlmock
func newMockPostgres(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() { _ = mockDB.Close() })

	// gorm pings the connection while opening
	mock.ExpectPing()
	db, err := gorm.Open(postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return db, mock
}

func money(v string) *decimal.Decimal {
	d := decimal.RequireFromString(v)
	return &d
}

// fakeStockItem builds a valid stock item with random identity and the
// given media payload
func fakeStockItem(t *testing.T, media ...string) *inventory.StockItem {
	t.Helper()
	blobs := make(valueobject.MediaList, len(media))
	for i, data := range media {
		blobs[i] = valueobject.MediaBlob{Name: gofakeit.Word() + ".jpg", Data: data}
	}
	item, err := inventory.NewStockItem(inventory.StockItemAttributes{
		Brand:            gofakeit.CarMaker(),
		Model:            gofakeit.CarModel(),
		Year:             gofakeit.Number(2010, 2024),
		Plate:            gofakeit.Regex(`[A-Z]{3}[0-9][A-Z][0-9]{2}`),
		Color:            gofakeit.Color(),
		AcquisitionValue: money("80000"),
	}, blobs)
	require.NoError(t, err)
	return item
}

func seedCustomer(t *testing.T, db *gorm.DB) *partner.Customer {
	t.Helper()
	c, err := partner.NewCustomer(gofakeit.Name(), gofakeit.SSN())
	require.NoError(t, err)
	require.NoError(t, NewGormCustomerRepository(db).Save(context.Background(), c))
	return c
}
