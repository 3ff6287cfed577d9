package trade

import (
	"context"

	"github.com/dealership/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// SaleRepository defines the interface for sale persistence
type SaleRepository interface {
	// FindByID finds a sale by ID, with instruments and installments loaded
	FindByID(ctx context.Context, id uuid.UUID) (*Sale, error)

	// FindByIDForUpdate is FindByID under a row lock
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Sale, error)

	// FindAll lists sales without their instruments
	FindAll(ctx context.Context, filter shared.Filter) ([]Sale, error)

	// Count counts sales matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)

	// Create inserts the sale row only
	Create(ctx context.Context, sale *Sale) error

	// Update saves the sale row with optimistic locking (version check)
	Update(ctx context.Context, sale *Sale) error

	// Delete removes the sale row
	Delete(ctx context.Context, id uuid.UUID) error
}

// PaymentInstrumentRepository defines the interface for payment instrument persistence
type PaymentInstrumentRepository interface {
	// FindBySale lists a sale's instruments ordered by date, installments included
	FindBySale(ctx context.Context, saleID uuid.UUID) ([]PaymentInstrument, error)

	// Save upserts the instrument and makes its stored installments match
	// the financing schedule
	Save(ctx context.Context, instrument *PaymentInstrument) error

	// SaveInstallment persists a single installment edit
	SaveInstallment(ctx context.Context, installment *Installment) error

	// Delete removes the instrument and its installments
	Delete(ctx context.Context, id uuid.UUID) error

	// DeleteBySale removes every instrument of a sale and their installments
	DeleteBySale(ctx context.Context, saleID uuid.UUID) error
}

// TradeInRepository defines the interface for trade-in persistence
type TradeInRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*TradeIn, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*TradeIn, error)
	Create(ctx context.Context, tradeIn *TradeIn) error
	// Update saves with optimistic locking (version check)
	Update(ctx context.Context, tradeIn *TradeIn) error
}
