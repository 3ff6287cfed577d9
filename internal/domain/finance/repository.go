package finance

import (
	"context"

	"github.com/google/uuid"
)

// FinancialTransactionRepository defines the interface for financial transaction persistence
type FinancialTransactionRepository interface {
	// FindByID finds a transaction by ID
	FindByID(ctx context.Context, id uuid.UUID) (*FinancialTransaction, error)

	// FindBySale lists every transaction emitted for a sale ordered by due date
	FindBySale(ctx context.Context, saleID uuid.UUID) ([]FinancialTransaction, error)

	// FindReceivableByInstrument returns the receivable of a payment instrument or shared.ErrNotFound
	FindReceivableByInstrument(ctx context.Context, instrumentID uuid.UUID) (*FinancialTransaction, error)

	// FindPayableByStockItem returns the acquisition payable of a stock item or shared.ErrNotFound
	FindPayableByStockItem(ctx context.Context, stockItemID uuid.UUID) (*FinancialTransaction, error)

	// Save creates or updates a transaction
	Save(ctx context.Context, ft *FinancialTransaction) error

	// DeletePendingByInstrument removes the open receivables of an instrument
	DeletePendingByInstrument(ctx context.Context, instrumentID uuid.UUID) error

	// DeletePendingBySale removes every open receivable of a sale
	DeletePendingBySale(ctx context.Context, saleID uuid.UUID) error

	// Delete removes a transaction
	Delete(ctx context.Context, id uuid.UUID) error
}
