package models

import (
	"time"

	"github.com/dealership/backend/internal/domain/inventory"
	"github.com/dealership/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StockItemModel is the persistence model for the StockItem aggregate root.
// A row exists only while the item is live; settlement deletes it.
type StockItemModel struct {
	AggregateModel
	Brand             string                `gorm:"type:varchar(100);not null;index:idx_stock_item_identity,priority:1"`
	Model             string                `gorm:"type:varchar(100);not null;index:idx_stock_item_identity,priority:2"`
	Year              int                   `gorm:"not null;index:idx_stock_item_identity,priority:3"`
	Plate             string                `gorm:"type:varchar(20)"`
	Km                *int                  `gorm:"column:km"`
	Color             string                `gorm:"type:varchar(50)"`
	AcquisitionValue  decimal.NullDecimal   `gorm:"type:decimal(18,2)"`
	PromotionValue    decimal.NullDecimal   `gorm:"type:decimal(18,2)"`
	Media             valueobject.MediaList `gorm:"type:jsonb;not null"`
	TotalEncodedBytes int64                 `gorm:"not null;default:0"`
	VehicleID         *uuid.UUID            `gorm:"type:uuid;index"`
	Notes             string                `gorm:"type:text"`
	AcquiredAt        time.Time             `gorm:"not null"`
}

// TableName returns the table name for GORM
func (StockItemModel) TableName() string {
	return "stock_items"
}

// ToDomain converts the persistence model to a domain StockItem
func (m *StockItemModel) ToDomain() *inventory.StockItem {
	media := m.Media
	if media == nil {
		media = valueobject.MediaList{}
	}
	return &inventory.StockItem{
		BaseAggregateRoot: m.AggregateModel.ToDomain(),
		Brand:             m.Brand,
		Model:             m.Model,
		Year:              m.Year,
		Plate:             m.Plate,
		Km:                m.Km,
		Color:             m.Color,
		AcquisitionValue:  decimalPtr(m.AcquisitionValue),
		PromotionValue:    decimalPtr(m.PromotionValue),
		Media:             media,
		TotalEncodedBytes: m.TotalEncodedBytes,
		VehicleID:         m.VehicleID,
		Notes:             m.Notes,
		AcquiredAt:        m.AcquiredAt,
	}
}

// FromDomain populates the persistence model from a domain StockItem
func (m *StockItemModel) FromDomain(s *inventory.StockItem) {
	m.FromDomainAggregateRoot(s.BaseAggregateRoot)
	m.Brand = s.Brand
	m.Model = s.Model
	m.Year = s.Year
	m.Plate = s.Plate
	m.Km = s.Km
	m.Color = s.Color
	m.AcquisitionValue = nullDecimal(s.AcquisitionValue)
	m.PromotionValue = nullDecimal(s.PromotionValue)
	m.Media = s.Media
	m.TotalEncodedBytes = s.TotalEncodedBytes
	m.VehicleID = s.VehicleID
	m.Notes = s.Notes
	m.AcquiredAt = s.AcquiredAt
}

// StockItemModelFromDomain creates a persistence model from a domain StockItem
func StockItemModelFromDomain(s *inventory.StockItem) *StockItemModel {
	m := &StockItemModel{}
	m.FromDomain(s)
	return m
}

// TransferRecordModel is the persistence model for a transfer-out.
// StockItemID carries no foreign key: the stock item row is gone once transferred.
type TransferRecordModel struct {
	BaseModel
	StockItemID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`
	Brand         string    `gorm:"type:varchar(100);not null"`
	Model         string    `gorm:"type:varchar(100);not null"`
	Year          int       `gorm:"not null"`
	Plate         string    `gorm:"type:varchar(20)"`
	Destination   string    `gorm:"type:varchar(200)"`
	Notes         string    `gorm:"type:text"`
	TransferredAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (TransferRecordModel) TableName() string {
	return "transfer_records"
}

// ToDomain converts the persistence model to a domain TransferRecord
func (m *TransferRecordModel) ToDomain() *inventory.TransferRecord {
	return &inventory.TransferRecord{
		BaseEntity:    m.BaseModel.ToDomain(),
		StockItemID:   m.StockItemID,
		Brand:         m.Brand,
		Model:         m.Model,
		Year:          m.Year,
		Plate:         m.Plate,
		Destination:   m.Destination,
		Notes:         m.Notes,
		TransferredAt: m.TransferredAt,
	}
}

// TransferRecordModelFromDomain creates a persistence model from a domain TransferRecord
func TransferRecordModelFromDomain(r *inventory.TransferRecord) *TransferRecordModel {
	m := &TransferRecordModel{
		StockItemID:   r.StockItemID,
		Brand:         r.Brand,
		Model:         r.Model,
		Year:          r.Year,
		Plate:         r.Plate,
		Destination:   r.Destination,
		Notes:         r.Notes,
		TransferredAt: r.TransferredAt,
	}
	m.FromDomainBaseEntity(r.BaseEntity)
	return m
}
