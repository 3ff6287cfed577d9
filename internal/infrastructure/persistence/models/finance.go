package models

import (
	"time"

	"github.com/dealership/backend/internal/domain/finance"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// FinancialTransactionModel is the persistence model for a ledger entry.
// SaleID, InstrumentID and StockItemID are plain references without foreign
// keys so paid entries outlive the rows they came from.
type FinancialTransactionModel struct {
	BaseModel
	Kind         finance.TransactionKind   `gorm:"type:varchar(20);not null;index"`
	Description  string                    `gorm:"type:varchar(500);not null"`
	Amount       decimal.Decimal           `gorm:"type:decimal(18,2);not null"`
	DueDate      time.Time                 `gorm:"type:date;not null;index"`
	Status       finance.TransactionStatus `gorm:"type:varchar(20);not null;default:'pending';index"`
	SaleID       *uuid.UUID                `gorm:"type:uuid;index"`
	InstrumentID *uuid.UUID                `gorm:"type:uuid;index"`
	StockItemID  *uuid.UUID                `gorm:"type:uuid;index"`
	PaidAt       *time.Time
}

// TableName returns the table name for GORM
func (FinancialTransactionModel) TableName() string {
	return "financial_transactions"
}

// ToDomain converts the persistence model to a domain FinancialTransaction
func (m *FinancialTransactionModel) ToDomain() *finance.FinancialTransaction {
	return &finance.FinancialTransaction{
		BaseEntity:   m.BaseModel.ToDomain(),
		Kind:         m.Kind,
		Description:  m.Description,
		Amount:       m.Amount,
		DueDate:      m.DueDate,
		Status:       m.Status,
		SaleID:       m.SaleID,
		InstrumentID: m.InstrumentID,
		StockItemID:  m.StockItemID,
		PaidAt:       m.PaidAt,
	}
}

// FinancialTransactionModelFromDomain creates a persistence model from a domain FinancialTransaction
func FinancialTransactionModelFromDomain(ft *finance.FinancialTransaction) *FinancialTransactionModel {
	m := &FinancialTransactionModel{
		Kind:         ft.Kind,
		Description:  ft.Description,
		Amount:       ft.Amount,
		DueDate:      ft.DueDate,
		Status:       ft.Status,
		SaleID:       ft.SaleID,
		InstrumentID: ft.InstrumentID,
		StockItemID:  ft.StockItemID,
		PaidAt:       ft.PaidAt,
	}
	m.FromDomainBaseEntity(ft.BaseEntity)
	return m
}
