package vehicle

import (
	"context"

	"github.com/google/uuid"
)

// MatchCriteria identifies a vehicle by attributes when no explicit link exists
type MatchCriteria struct {
	Brand string
	Model string
	Year  int
	Plate string
}

// Repository defines the persistence contract for vehicles
type Repository interface {
	// FindByID returns the vehicle or shared.ErrNotFound
	FindByID(ctx context.Context, id uuid.UUID) (*Vehicle, error)

	// FindByIDForUpdate loads the vehicle under a row lock for the rest of the transaction
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Vehicle, error)

	// FindSellableMatch returns the most recently updated available or reserved
	// vehicle with no customer matching the criteria, or shared.ErrNotFound
	FindSellableMatch(ctx context.Context, criteria MatchCriteria) (*Vehicle, error)

	// Create inserts a new vehicle
	Create(ctx context.Context, v *Vehicle) error

	// Update persists changes guarded by the version column and bumps it.
	// A stale version yields shared.ErrConflict.
	Update(ctx context.Context, v *Vehicle) error
}
