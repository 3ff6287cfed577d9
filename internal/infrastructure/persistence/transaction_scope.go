package persistence

import (
	"context"

	appshared "github.com/dealership/backend/internal/application/shared"
	"github.com/dealership/backend/internal/domain/finance"
	"github.com/dealership/backend/internal/domain/inventory"
	"github.com/dealership/backend/internal/domain/partner"
	"github.com/dealership/backend/internal/domain/trade"
	"github.com/dealership/backend/internal/domain/vehicle"
	"gorm.io/gorm"
)

// GormTransactionScope implements TransactionScope using GORM transactions.
// It provides atomic execution of multiple repository operations.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope.
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
// If the function succeeds, the transaction is committed.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos appshared.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx})
	})
}

// gormTransactionalRepositories provides access to all repositories within a transaction.
type gormTransactionalRepositories struct {
	tx *gorm.DB
}

func (r *gormTransactionalRepositories) StockItems() inventory.StockItemRepository {
	return NewGormStockItemRepository(r.tx)
}

func (r *gormTransactionalRepositories) Transfers() inventory.TransferRecordRepository {
	return NewGormTransferRecordRepository(r.tx)
}

func (r *gormTransactionalRepositories) Vehicles() vehicle.Repository {
	return NewGormVehicleRepository(r.tx)
}

func (r *gormTransactionalRepositories) Sales() trade.SaleRepository {
	return NewGormSaleRepository(r.tx)
}

func (r *gormTransactionalRepositories) Instruments() trade.PaymentInstrumentRepository {
	return NewGormPaymentInstrumentRepository(r.tx)
}

func (r *gormTransactionalRepositories) TradeIns() trade.TradeInRepository {
	return NewGormTradeInRepository(r.tx)
}

func (r *gormTransactionalRepositories) Transactions() finance.FinancialTransactionRepository {
	return NewGormFinancialTransactionRepository(r.tx)
}

func (r *gormTransactionalRepositories) Customers() partner.CustomerRepository {
	return NewGormCustomerRepository(r.tx)
}

// Ensure GormTransactionScope implements TransactionScope
var _ appshared.TransactionScope = (*GormTransactionScope)(nil)

// Ensure gormTransactionalRepositories implements TransactionalRepositories
var _ appshared.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
