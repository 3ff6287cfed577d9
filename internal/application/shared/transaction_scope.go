package shared

import (
	"context"

	"github.com/dealership/backend/internal/domain/finance"
	"github.com/dealership/backend/internal/domain/inventory"
	"github.com/dealership/backend/internal/domain/partner"
	"github.com/dealership/backend/internal/domain/trade"
	"github.com/dealership/backend/internal/domain/vehicle"
)

// TransactionScope runs a unit of work atomically.
// If fn returns an error every write made through repos is rolled back.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to every repository within one transaction.
// All repositories returned share the same underlying database transaction.
type TransactionalRepositories interface {
	StockItems() inventory.StockItemRepository
	Transfers() inventory.TransferRecordRepository
	Vehicles() vehicle.Repository
	Sales() trade.SaleRepository
	Instruments() trade.PaymentInstrumentRepository
	TradeIns() trade.TradeInRepository
	Transactions() finance.FinancialTransactionRepository
	Customers() partner.CustomerRepository
}
