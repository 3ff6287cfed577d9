package trade

import (
	"fmt"
	"strings"
	"time"

	"github.com/dealership/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SaleStatus represents the status of a sale
type SaleStatus string

const (
	SaleStatusInProgress SaleStatus = "in_progress"
	SaleStatusCompleted  SaleStatus = "completed"
)

// IsValid checks if the status is a known value
func (s SaleStatus) IsValid() bool {
	return s == SaleStatusInProgress || s == SaleStatusCompleted
}

// String returns the string representation of SaleStatus
func (s SaleStatus) String() string {
	return string(s)
}

// Sale is a finalized or in-progress vehicle sale
type Sale struct {
	shared.BaseAggregateRoot
	CustomerID     uuid.UUID
	VehicleID      uuid.UUID
	TradeInID      *uuid.UUID
	SellerID       uuid.UUID
	SalePrice      *decimal.Decimal
	PurchasePrice  *decimal.Decimal
	Profit         *decimal.Decimal
	DiscountAmount *decimal.Decimal
	TableValue     *decimal.Decimal
	// FinancedAmount mirrors the amount of the sale's only bank financing
	FinancedAmount  *decimal.Decimal
	EntryAmount     decimal.Decimal
	RemainingAmount decimal.Decimal
	Status          SaleStatus
	Date            time.Time
	Notes           string
	Instruments     []PaymentInstrument
}

// NewSaleParams holds the values a sale is opened with
type NewSaleParams struct {
	CustomerID     uuid.UUID
	VehicleID      uuid.UUID
	SellerID       uuid.UUID
	TradeInID      *uuid.UUID
	SalePrice      *decimal.Decimal
	PurchasePrice  *decimal.Decimal
	DiscountAmount *decimal.Decimal
	TableValue     *decimal.Decimal
	Status         SaleStatus
	Date           time.Time
	Notes          string
}

// NewSale creates a sale with its profit derived from the prices
func NewSale(p NewSaleParams) (*Sale, error) {
	if p.CustomerID == uuid.Nil {
		return nil, shared.NewValidationError("customer_id", "is required")
	}
	if p.SellerID == uuid.Nil {
		return nil, shared.NewValidationError("seller_id", "is required")
	}
	if p.VehicleID == uuid.Nil {
		return nil, shared.NewValidationError("vehicle_id", "is required")
	}
	if !p.Status.IsValid() {
		return nil, shared.NewValidationError("status", fmt.Sprintf("unknown sale status %q", p.Status))
	}
	for field, v := range map[string]*decimal.Decimal{
		"sale_price":      p.SalePrice,
		"purchase_price":  p.PurchasePrice,
		"discount_amount": p.DiscountAmount,
		"table_value":     p.TableValue,
	} {
		if v != nil && v.IsNegative() {
			return nil, shared.NewValidationError(field, "must not be negative")
		}
	}
	date := p.Date
	if date.IsZero() {
		date = time.Now()
	}

	s := &Sale{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		CustomerID:        p.CustomerID,
		VehicleID:         p.VehicleID,
		SellerID:          p.SellerID,
		TradeInID:         p.TradeInID,
		DiscountAmount:    p.DiscountAmount,
		TableValue:        p.TableValue,
		Status:            p.Status,
		Date:              date,
		Notes:             strings.TrimSpace(p.Notes),
		EntryAmount:       decimal.Zero,
		RemainingAmount:   decimal.Zero,
	}
	s.SetPrices(p.SalePrice, p.PurchasePrice)
	return s, nil
}

// DeriveProfit is sale minus purchase, or nil when either is unknown
func DeriveProfit(salePrice, purchasePrice *decimal.Decimal) *decimal.Decimal {
	if salePrice == nil || purchasePrice == nil {
		return nil
	}
	p := salePrice.Sub(*purchasePrice)
	return &p
}

// SetPrices replaces both prices and recomputes profit
func (s *Sale) SetPrices(salePrice, purchasePrice *decimal.Decimal) {
	s.SalePrice = salePrice
	s.PurchasePrice = purchasePrice
	s.Profit = DeriveProfit(salePrice, purchasePrice)
	s.Touch()
}

// AttachInstruments makes list the sale's full instrument set and recomputes
// the payment breakdown.
func (s *Sale) AttachInstruments(list []PaymentInstrument) {
	for i := range list {
		list[i].SaleID = s.ID
	}
	s.Instruments = list
	s.RecalculateBreakdown()
}

// RecalculateBreakdown splits instrument amounts into entry (cash equivalents)
// and remaining (everything else) and mirrors a single bank financing onto
// FinancedAmount.
func (s *Sale) RecalculateBreakdown() {
	entry, remaining := decimal.Zero, decimal.Zero
	var bankFinancing []decimal.Decimal
	for _, in := range s.Instruments {
		if in.Kind.IsCashEquivalent() {
			entry = entry.Add(in.Amount)
		} else {
			remaining = remaining.Add(in.Amount)
		}
		if in.Kind == KindBankFinancing {
			bankFinancing = append(bankFinancing, in.Amount)
		}
	}
	s.EntryAmount = entry
	s.RemainingAmount = remaining
	s.FinancedAmount = nil
	if len(bankFinancing) == 1 {
		amount := bankFinancing[0]
		s.FinancedAmount = &amount
	}
	s.Touch()
}

// Instrument returns the sale's instrument with id
func (s *Sale) Instrument(id uuid.UUID) (*PaymentInstrument, error) {
	for i := range s.Instruments {
		if s.Instruments[i].ID == id {
			return &s.Instruments[i], nil
		}
	}
	return nil, shared.NewNotFoundError("payment instrument", id)
}

// Complete closes a presale
func (s *Sale) Complete() error {
	if s.Status != SaleStatusInProgress {
		return shared.NewInvalidStateError(fmt.Sprintf("sale %s is already %s", s.ID, s.Status))
	}
	s.Status = SaleStatusCompleted
	s.Touch()
	return nil
}

// IsPresale reports whether the sale still holds a reserved vehicle
func (s *Sale) IsPresale() bool {
	return s.Status == SaleStatusInProgress
}
