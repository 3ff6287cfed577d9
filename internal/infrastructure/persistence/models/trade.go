package models

import (
	"fmt"
	"time"

	"github.com/dealership/backend/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SaleModel is the persistence model for the Sale aggregate root
type SaleModel struct {
	AggregateModel
	CustomerID      uuid.UUID                `gorm:"type:uuid;not null;index"`
	VehicleID       uuid.UUID                `gorm:"type:uuid;not null;index"`
	TradeInID       *uuid.UUID               `gorm:"type:uuid"`
	SellerID        uuid.UUID                `gorm:"type:uuid;not null"`
	SalePrice       decimal.NullDecimal      `gorm:"type:decimal(18,2)"`
	PurchasePrice   decimal.NullDecimal      `gorm:"type:decimal(18,2)"`
	Profit          decimal.NullDecimal      `gorm:"type:decimal(18,2)"`
	DiscountAmount  decimal.NullDecimal      `gorm:"type:decimal(18,2)"`
	TableValue      decimal.NullDecimal      `gorm:"type:decimal(18,2)"`
	FinancedAmount  decimal.NullDecimal      `gorm:"type:decimal(18,2)"`
	EntryAmount     decimal.Decimal          `gorm:"type:decimal(18,2);not null;default:0"`
	RemainingAmount decimal.Decimal          `gorm:"type:decimal(18,2);not null;default:0"`
	Status          trade.SaleStatus         `gorm:"type:varchar(20);not null;index"`
	Date            time.Time                `gorm:"not null;index"`
	Notes           string                   `gorm:"type:text"`
	Instruments     []PaymentInstrumentModel `gorm:"foreignKey:SaleID;references:ID"`
}

// TableName returns the table name for GORM
func (SaleModel) TableName() string {
	return "sales"
}

// ToDomain converts the persistence model to a domain Sale.
// Instruments are converted only when they were preloaded.
func (m *SaleModel) ToDomain() (*trade.Sale, error) {
	sale := &trade.Sale{
		BaseAggregateRoot: m.AggregateModel.ToDomain(),
		CustomerID:        m.CustomerID,
		VehicleID:         m.VehicleID,
		TradeInID:         m.TradeInID,
		SellerID:          m.SellerID,
		SalePrice:         decimalPtr(m.SalePrice),
		PurchasePrice:     decimalPtr(m.PurchasePrice),
		Profit:            decimalPtr(m.Profit),
		DiscountAmount:    decimalPtr(m.DiscountAmount),
		TableValue:        decimalPtr(m.TableValue),
		FinancedAmount:    decimalPtr(m.FinancedAmount),
		EntryAmount:       m.EntryAmount,
		RemainingAmount:   m.RemainingAmount,
		Status:            m.Status,
		Date:              m.Date,
		Notes:             m.Notes,
	}
	if len(m.Instruments) > 0 {
		sale.Instruments = make([]trade.PaymentInstrument, len(m.Instruments))
		for i := range m.Instruments {
			p, err := m.Instruments[i].ToDomain()
			if err != nil {
				return nil, err
			}
			sale.Instruments[i] = *p
		}
	}
	return sale, nil
}

// SaleModelFromDomain creates a persistence model for the sale row only
func SaleModelFromDomain(s *trade.Sale) *SaleModel {
	m := &SaleModel{
		CustomerID:      s.CustomerID,
		VehicleID:       s.VehicleID,
		TradeInID:       s.TradeInID,
		SellerID:        s.SellerID,
		SalePrice:       nullDecimal(s.SalePrice),
		PurchasePrice:   nullDecimal(s.PurchasePrice),
		Profit:          nullDecimal(s.Profit),
		DiscountAmount:  nullDecimal(s.DiscountAmount),
		TableValue:      nullDecimal(s.TableValue),
		FinancedAmount:  nullDecimal(s.FinancedAmount),
		EntryAmount:     s.EntryAmount,
		RemainingAmount: s.RemainingAmount,
		Status:          s.Status,
		Date:            s.Date,
		Notes:           s.Notes,
	}
	m.FromDomainAggregateRoot(s.BaseAggregateRoot)
	return m
}

// PaymentInstrumentModel is the persistence model for a payment instrument.
// Kind-specific details are stored as JSON; installments have their own table.
type PaymentInstrumentModel struct {
	BaseModel
	SaleID       uuid.UUID            `gorm:"type:uuid;not null;index"`
	Kind         trade.InstrumentKind `gorm:"type:varchar(30);not null"`
	Amount       decimal.Decimal      `gorm:"type:decimal(18,2);not null"`
	Date         time.Time            `gorm:"type:date;not null"`
	Details      string               `gorm:"type:jsonb;not null"`
	Installments []InstallmentModel   `gorm:"foreignKey:InstrumentID;references:ID"`
}

// TableName returns the table name for GORM
func (PaymentInstrumentModel) TableName() string {
	return "payment_instruments"
}

// ToDomain converts the persistence model to a domain PaymentInstrument
func (m *PaymentInstrumentModel) ToDomain() (*trade.PaymentInstrument, error) {
	details, err := trade.DecodeDetails(m.Kind, []byte(m.Details))
	if err != nil {
		return nil, fmt.Errorf("decode details of instrument %s: %w", m.ID, err)
	}
	if fin, ok := details.(*trade.FinancingDetails); ok && len(m.Installments) > 0 {
		fin.Installments = make([]trade.Installment, len(m.Installments))
		for i := range m.Installments {
			fin.Installments[i] = m.Installments[i].ToDomain()
		}
	}
	return &trade.PaymentInstrument{
		ID:        m.ID,
		SaleID:    m.SaleID,
		Kind:      m.Kind,
		Amount:    m.Amount,
		Date:      m.Date,
		Details:   details,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}, nil
}

// PaymentInstrumentModelFromDomain creates a persistence model for the
// instrument row; installments are written separately.
func PaymentInstrumentModelFromDomain(p *trade.PaymentInstrument) (*PaymentInstrumentModel, error) {
	raw, err := trade.EncodeDetails(p.Details)
	if err != nil {
		return nil, fmt.Errorf("encode details of instrument %s: %w", p.ID, err)
	}
	return &PaymentInstrumentModel{
		BaseModel: BaseModel{
			ID:        p.ID,
			CreatedAt: p.CreatedAt,
			UpdatedAt: p.UpdatedAt,
		},
		SaleID:  p.SaleID,
		Kind:    p.Kind,
		Amount:  p.Amount,
		Date:    p.Date,
		Details: string(raw),
	}, nil
}

// InstallmentModel is the persistence model for one installment of a financed instrument
type InstallmentModel struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey"`
	InstrumentID   uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_installment_position,priority:1"`
	Index          int             `gorm:"column:position;not null;uniqueIndex:idx_installment_position,priority:2"`
	DueDate        time.Time       `gorm:"type:date;not null"`
	Amount         decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	DocumentNumber string          `gorm:"type:varchar(100)"`
	AmountEdited   bool            `gorm:"not null;default:false"`
}

// TableName returns the table name for GORM
func (InstallmentModel) TableName() string {
	return "installments"
}

// ToDomain converts the persistence model to a domain Installment
func (m *InstallmentModel) ToDomain() trade.Installment {
	return trade.Installment{
		ID:             m.ID,
		InstrumentID:   m.InstrumentID,
		Index:          m.Index,
		DueDate:        m.DueDate,
		Amount:         m.Amount,
		DocumentNumber: m.DocumentNumber,
		AmountEdited:   m.AmountEdited,
	}
}

// InstallmentModelFromDomain creates a persistence model from a domain Installment
func InstallmentModelFromDomain(i *trade.Installment) *InstallmentModel {
	return &InstallmentModel{
		ID:             i.ID,
		InstrumentID:   i.InstrumentID,
		Index:          i.Index,
		DueDate:        i.DueDate,
		Amount:         i.Amount,
		DocumentNumber: i.DocumentNumber,
		AmountEdited:   i.AmountEdited,
	}
}

// TradeInModel is the persistence model for the TradeIn aggregate root
type TradeInModel struct {
	AggregateModel
	CustomerID     uuid.UUID           `gorm:"type:uuid;not null;index"`
	Brand          string              `gorm:"type:varchar(100);not null"`
	Model          string              `gorm:"type:varchar(100);not null"`
	Year           int                 `gorm:"not null"`
	Plate          string              `gorm:"type:varchar(20)"`
	Km             *int                `gorm:"column:km"`
	AppraisedValue decimal.NullDecimal `gorm:"type:decimal(18,2)"`
	Status         trade.TradeInStatus `gorm:"type:varchar(20);not null;default:'pending'"`
	Notes          string              `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (TradeInModel) TableName() string {
	return "trade_ins"
}

// ToDomain converts the persistence model to a domain TradeIn
func (m *TradeInModel) ToDomain() *trade.TradeIn {
	return &trade.TradeIn{
		BaseAggregateRoot: m.AggregateModel.ToDomain(),
		CustomerID:        m.CustomerID,
		Brand:             m.Brand,
		Model:             m.Model,
		Year:              m.Year,
		Plate:             m.Plate,
		Km:                m.Km,
		AppraisedValue:    decimalPtr(m.AppraisedValue),
		Status:            m.Status,
		Notes:             m.Notes,
	}
}

// TradeInModelFromDomain creates a persistence model from a domain TradeIn
func TradeInModelFromDomain(t *trade.TradeIn) *TradeInModel {
	m := &TradeInModel{
		CustomerID:     t.CustomerID,
		Brand:          t.Brand,
		Model:          t.Model,
		Year:           t.Year,
		Plate:          t.Plate,
		Km:             t.Km,
		AppraisedValue: nullDecimal(t.AppraisedValue),
		Status:         t.Status,
		Notes:          t.Notes,
	}
	m.FromDomainAggregateRoot(t.BaseAggregateRoot)
	return m
}
