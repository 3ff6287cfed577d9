package partner

import (
	"context"

	"github.com/google/uuid"
)

// CustomerDirectory answers whether a customer can be referenced by a sale
type CustomerDirectory interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

// CustomerRepository defines the interface for customer persistence
type CustomerRepository interface {
	CustomerDirectory

	// FindByID finds a customer by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Customer, error)

	// Save creates or updates a customer
	Save(ctx context.Context, customer *Customer) error
}
