package vehicle

import (
	"fmt"
	"time"

	"github.com/dealership/backend/internal/domain/inventory"
	"github.com/dealership/backend/internal/domain/shared"
	"github.com/dealership/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status represents the lifecycle state of a vehicle
type Status string

const (
	StatusAvailable Status = "available"
	StatusReserved  Status = "reserved"
	StatusSold      Status = "sold"
)

// IsValid checks if the status is a known value
func (s Status) IsValid() bool {
	switch s {
	case StatusAvailable, StatusReserved, StatusSold:
		return true
	}
	return false
}

// IsSellable reports whether a settlement may pick up a vehicle in this state
func (s Status) IsSellable() bool {
	return s == StatusAvailable || s == StatusReserved
}

// CanTransitionTo checks if the status can transition to the target status
func (s Status) CanTransitionTo(target Status) bool {
	switch s {
	case StatusAvailable:
		return target == StatusReserved || target == StatusSold
	case StatusReserved:
		return target == StatusSold || target == StatusAvailable
	case StatusSold:
		return target == StatusAvailable
	}
	return false
}

// Vehicle is a vehicle tied to the customer/sale lifecycle
type Vehicle struct {
	shared.BaseAggregateRoot
	Brand           string
	Model           string
	Year            int
	Plate           string
	Km              *int
	Color           string
	SalePrice       *decimal.Decimal
	AcquisitionCost *decimal.Decimal
	TableValue      *decimal.Decimal
	Status          Status
	CustomerID      *uuid.UUID
	Media           valueobject.MediaList
	// OriginStockItemID records which stock item this vehicle was created from
	OriginStockItemID *uuid.UUID
}

// NewFromStockItem seeds an available vehicle from a stock item snapshot
func NewFromStockItem(item *inventory.StockItem) *Vehicle {
	origin := item.ID
	return &Vehicle{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Brand:             item.Brand,
		Model:             item.Model,
		Year:              item.Year,
		Plate:             item.Plate,
		Km:                item.Km,
		Color:             item.Color,
		AcquisitionCost:   item.AcquisitionValue,
		Status:            StatusAvailable,
		Media:             item.Media.Clone(),
		OriginStockItemID: &origin,
	}
}

// Pricing carries caller-supplied commercial values for a settlement.
// Nil fields keep whatever the vehicle already has.
type Pricing struct {
	SalePrice       *decimal.Decimal
	AcquisitionCost *decimal.Decimal
	TableValue      *decimal.Decimal
}

// ApplyPricing overwrites price fields with any supplied values
func (v *Vehicle) ApplyPricing(p Pricing) {
	if p.SalePrice != nil {
		v.SalePrice = p.SalePrice
	}
	if p.AcquisitionCost != nil {
		v.AcquisitionCost = p.AcquisitionCost
	}
	if p.TableValue != nil {
		v.TableValue = p.TableValue
	}
	v.Touch()
}

// Reserve marks the vehicle as held by a presale
func (v *Vehicle) Reserve(customerID uuid.UUID) error {
	if err := v.transition(StatusReserved); err != nil {
		return err
	}
	v.CustomerID = &customerID
	return nil
}

// Sell marks the vehicle as sold to the customer
func (v *Vehicle) Sell(customerID uuid.UUID) error {
	if err := v.transition(StatusSold); err != nil {
		return err
	}
	v.CustomerID = &customerID
	return nil
}

// Release returns the vehicle to the lot after its sale was removed
func (v *Vehicle) Release() error {
	if err := v.transition(StatusAvailable); err != nil {
		return err
	}
	v.CustomerID = nil
	return nil
}

// Claimable reports whether a settlement may take the vehicle. It must be
// sellable and not already held for a customer.
func (v *Vehicle) Claimable() bool {
	return v.Status.IsSellable() && v.CustomerID == nil
}

// HeldBy reports whether the vehicle is reserved or sold to the customer
func (v *Vehicle) HeldBy(customerID uuid.UUID) bool {
	return v.CustomerID != nil && *v.CustomerID == customerID
}

func (v *Vehicle) transition(target Status) error {
	if !v.Status.CanTransitionTo(target) {
		return shared.NewInvalidStateError(fmt.Sprintf("cannot move vehicle %s from %s to %s", v.ID, v.Status, target))
	}
	v.Status = target
	v.UpdatedAt = time.Now()
	return nil
}

// Matches reports whether the vehicle has the given identity attributes.
// Plates are compared in normalised form.
func (v *Vehicle) Matches(brand, model string, year int, plate string) bool {
	return v.Brand == brand && v.Model == model && v.Year == year &&
		valueobject.NormalizePlate(v.Plate) == valueobject.NormalizePlate(plate)
}
