package inventory

import (
	"context"

	"github.com/dealership/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// StockItemRepository defines the persistence contract for stock items
type StockItemRepository interface {
	UsageReader

	// FindByID returns the live stock item or shared.ErrNotFound
	FindByID(ctx context.Context, id uuid.UUID) (*StockItem, error)

	// FindByIDForUpdate loads the item and holds a row lock until the
	// surrounding transaction ends. Databases without row locks fall back
	// to a plain read.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*StockItem, error)

	// FindAll lists live stock items
	FindAll(ctx context.Context, filter shared.Filter) ([]StockItem, error)

	// Count counts live stock items matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)

	// Save inserts or updates the stock item
	Save(ctx context.Context, item *StockItem) error

	// Delete retires the stock item; returns shared.ErrNotFound when no row was removed
	Delete(ctx context.Context, id uuid.UUID) error

	// LockQuota serialises quota-affecting writes for the rest of the transaction
	LockQuota(ctx context.Context) error
}

// TransferRecordRepository stores transfer-out metadata
type TransferRecordRepository interface {
	Save(ctx context.Context, record *TransferRecord) error
	FindByID(ctx context.Context, id uuid.UUID) (*TransferRecord, error)
}
