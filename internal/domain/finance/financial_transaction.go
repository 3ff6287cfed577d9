package finance

import (
	"fmt"
	"strings"
	"time"

	"github.com/dealership/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionKind tells whether money is owed to or by the dealership
type TransactionKind string

const (
	KindReceivable TransactionKind = "receivable"
	KindPayable    TransactionKind = "payable"
)

// IsValid checks if the kind is a known value
func (k TransactionKind) IsValid() bool {
	return k == KindReceivable || k == KindPayable
}

// TransactionStatus represents the settlement state of a financial transaction
type TransactionStatus string

const (
	StatusPending TransactionStatus = "pending"
	StatusPaid    TransactionStatus = "paid"
)

// IsValid checks if the status is a known value
func (s TransactionStatus) IsValid() bool {
	return s == StatusPending || s == StatusPaid
}

// FinancialTransaction is an obligation handed to the ledger.
// Receivables come from sale instruments, payables from stock intake.
type FinancialTransaction struct {
	shared.BaseEntity
	Kind         TransactionKind
	Description  string
	Amount       decimal.Decimal
	DueDate      time.Time
	Status       TransactionStatus
	SaleID       *uuid.UUID
	InstrumentID *uuid.UUID
	StockItemID  *uuid.UUID
	PaidAt       *time.Time
}

// NewReceivable creates a pending receivable for one payment instrument of a sale
func NewReceivable(saleID, instrumentID uuid.UUID, description string, amount decimal.Decimal, dueDate time.Time) (*FinancialTransaction, error) {
	if saleID == uuid.Nil {
		return nil, shared.NewValidationError("sale_id", "is required")
	}
	ft, err := newTransaction(KindReceivable, description, amount, dueDate)
	if err != nil {
		return nil, err
	}
	ft.SaleID = &saleID
	if instrumentID != uuid.Nil {
		ft.InstrumentID = &instrumentID
	}
	return ft, nil
}

// NewPayable creates a pending payable for the acquisition of a stock item
func NewPayable(stockItemID uuid.UUID, description string, amount decimal.Decimal, dueDate time.Time) (*FinancialTransaction, error) {
	if stockItemID == uuid.Nil {
		return nil, shared.NewValidationError("stock_item_id", "is required")
	}
	ft, err := newTransaction(KindPayable, description, amount, dueDate)
	if err != nil {
		return nil, err
	}
	ft.StockItemID = &stockItemID
	return ft, nil
}

func newTransaction(kind TransactionKind, description string, amount decimal.Decimal, dueDate time.Time) (*FinancialTransaction, error) {
	ft := &FinancialTransaction{
		BaseEntity: shared.NewBaseEntity(),
		Kind:       kind,
		Status:     StatusPending,
	}
	if err := ft.Reschedule(description, amount, dueDate); err != nil {
		return nil, err
	}
	return ft, nil
}

// IsPending reports whether the transaction is still open
func (t *FinancialTransaction) IsPending() bool {
	return t.Status == StatusPending
}

// Reschedule replaces the description, amount and due date of a pending transaction
func (t *FinancialTransaction) Reschedule(description string, amount decimal.Decimal, dueDate time.Time) error {
	if !t.IsPending() {
		return shared.NewInvalidStateError(fmt.Sprintf("financial transaction %s is already %s", t.ID, t.Status))
	}
	description = strings.TrimSpace(description)
	if description == "" {
		return shared.NewValidationError("description", "is required")
	}
	if amount.IsNegative() {
		return shared.NewValidationError("amount", "must not be negative")
	}
	if dueDate.IsZero() {
		return shared.NewValidationError("due_date", "is required")
	}
	t.Description = description
	t.Amount = amount
	t.DueDate = dueDate
	t.Touch()
	return nil
}

// MarkPaid closes the transaction
func (t *FinancialTransaction) MarkPaid(at time.Time) error {
	if !t.IsPending() {
		return shared.NewInvalidStateError(fmt.Sprintf("financial transaction %s is already %s", t.ID, t.Status))
	}
	t.Status = StatusPaid
	t.PaidAt = &at
	t.Touch()
	return nil
}
