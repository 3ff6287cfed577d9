package models

import (
	"github.com/dealership/backend/internal/domain/shared/valueobject"
	"github.com/dealership/backend/internal/domain/vehicle"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// VehicleModel is the persistence model for the Vehicle aggregate root
type VehicleModel struct {
	AggregateModel
	Brand             string                `gorm:"type:varchar(100);not null;index:idx_vehicle_identity,priority:1"`
	Model             string                `gorm:"type:varchar(100);not null;index:idx_vehicle_identity,priority:2"`
	Year              int                   `gorm:"not null;index:idx_vehicle_identity,priority:3"`
	Plate             string                `gorm:"type:varchar(20)"`
	Km                *int                  `gorm:"column:km"`
	Color             string                `gorm:"type:varchar(50)"`
	SalePrice         decimal.NullDecimal   `gorm:"type:decimal(18,2)"`
	AcquisitionCost   decimal.NullDecimal   `gorm:"type:decimal(18,2)"`
	TableValue        decimal.NullDecimal   `gorm:"type:decimal(18,2)"`
	Status            vehicle.Status        `gorm:"type:varchar(20);not null;default:'available';index"`
	CustomerID        *uuid.UUID            `gorm:"type:uuid;index"`
	Media             valueobject.MediaList `gorm:"type:jsonb;not null"`
	OriginStockItemID *uuid.UUID            `gorm:"type:uuid;index"`
}

// TableName returns the table name for GORM
func (VehicleModel) TableName() string {
	return "vehicles"
}

// ToDomain converts the persistence model to a domain Vehicle
func (m *VehicleModel) ToDomain() *vehicle.Vehicle {
	media := m.Media
	if media == nil {
		media = valueobject.MediaList{}
	}
	return &vehicle.Vehicle{
		BaseAggregateRoot: m.AggregateModel.ToDomain(),
		Brand:             m.Brand,
		Model:             m.Model,
		Year:              m.Year,
		Plate:             m.Plate,
		Km:                m.Km,
		Color:             m.Color,
		SalePrice:         decimalPtr(m.SalePrice),
		AcquisitionCost:   decimalPtr(m.AcquisitionCost),
		TableValue:        decimalPtr(m.TableValue),
		Status:            m.Status,
		CustomerID:        m.CustomerID,
		Media:             media,
		OriginStockItemID: m.OriginStockItemID,
	}
}

// FromDomain populates the persistence model from a domain Vehicle
func (m *VehicleModel) FromDomain(v *vehicle.Vehicle) {
	m.FromDomainAggregateRoot(v.BaseAggregateRoot)
	m.Brand = v.Brand
	m.Model = v.Model
	m.Year = v.Year
	m.Plate = v.Plate
	m.Km = v.Km
	m.Color = v.Color
	m.SalePrice = nullDecimal(v.SalePrice)
	m.AcquisitionCost = nullDecimal(v.AcquisitionCost)
	m.TableValue = nullDecimal(v.TableValue)
	m.Status = v.Status
	m.CustomerID = v.CustomerID
	m.Media = v.Media
	m.OriginStockItemID = v.OriginStockItemID
}

// VehicleModelFromDomain creates a persistence model from a domain Vehicle
func VehicleModelFromDomain(v *vehicle.Vehicle) *VehicleModel {
	m := &VehicleModel{}
	m.FromDomain(v)
	return m
}
