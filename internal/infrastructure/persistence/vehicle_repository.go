package persistence

import (
	"context"
	"errors"

	"github.com/dealership/backend/internal/domain/shared"
	"github.com/dealership/backend/internal/domain/vehicle"
	"github.com/dealership/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormVehicleRepository implements vehicle.Repository using GORM
type GormVehicleRepository struct {
	db *gorm.DB
}

// NewGormVehicleRepository creates a new GormVehicleRepository
func NewGormVehicleRepository(db *gorm.DB) *GormVehicleRepository {
	return &GormVehicleRepository{db: db}
}

// FindByID finds a vehicle by its ID
func (r *GormVehicleRepository) FindByID(ctx context.Context, id uuid.UUID) (*vehicle.Vehicle, error) {
	return r.find(r.db.WithContext(ctx), id)
}

// FindByIDForUpdate finds a vehicle and locks its row
func (r *GormVehicleRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*vehicle.Vehicle, error) {
	return r.find(forUpdate(r.db.WithContext(ctx)), id)
}

func (r *GormVehicleRepository) find(db *gorm.DB, id uuid.UUID) (*vehicle.Vehicle, error) {
	var model models.VehicleModel
	if err := db.First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindSellableMatch returns the most recently updated available or reserved
// vehicle with no customer and the same brand, model and year whose plate
// matches once normalised. The candidate rows are locked.
func (r *GormVehicleRepository) FindSellableMatch(ctx context.Context, criteria vehicle.MatchCriteria) (*vehicle.Vehicle, error) {
	var rows []models.VehicleModel
	err := forUpdate(r.db.WithContext(ctx)).
		Where("brand = ? AND model = ? AND year = ?", criteria.Brand, criteria.Model, criteria.Year).
		Where("status IN ?", []vehicle.Status{vehicle.StatusAvailable, vehicle.StatusReserved}).
		Where("customer_id IS NULL").
		Order("updated_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	for i := range rows {
		v := rows[i].ToDomain()
		if v.Matches(criteria.Brand, criteria.Model, criteria.Year, criteria.Plate) {
			return v, nil
		}
	}
	return nil, shared.ErrNotFound
}

// Create inserts a new vehicle
func (r *GormVehicleRepository) Create(ctx context.Context, v *vehicle.Vehicle) error {
	return r.db.WithContext(ctx).Create(models.VehicleModelFromDomain(v)).Error
}

// Update saves a vehicle under its version guard and bumps the version
func (r *GormVehicleRepository) Update(ctx context.Context, v *vehicle.Vehicle) error {
	model := models.VehicleModelFromDomain(v)
	model.Version = v.Version + 1
	if err := updateVersioned(ctx, r.db, model, v.Version); err != nil {
		return err
	}
	v.Version = model.Version
	v.UpdatedAt = model.UpdatedAt
	return nil
}

var _ vehicle.Repository = (*GormVehicleRepository)(nil)
