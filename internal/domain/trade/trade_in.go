package trade

import (
	"fmt"
	"strings"

	"github.com/dealership/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TradeInStatus represents the status of a trade-in offer
type TradeInStatus string

const (
	TradeInStatusPending  TradeInStatus = "pending"
	TradeInStatusAccepted TradeInStatus = "accepted"
	TradeInStatusRejected TradeInStatus = "rejected"
)

// IsValid checks if the status is a known value
func (s TradeInStatus) IsValid() bool {
	switch s {
	case TradeInStatusPending, TradeInStatusAccepted, TradeInStatusRejected:
		return true
	}
	return false
}

// TradeIn is a customer's vehicle offered as part payment
type TradeIn struct {
	shared.BaseAggregateRoot
	CustomerID     uuid.UUID
	Brand          string
	Model          string
	Year           int
	Plate          string
	Km             *int
	AppraisedValue *decimal.Decimal
	Status         TradeInStatus
	Notes          string
}

// TradeInAttributes describes the offered vehicle
type TradeInAttributes struct {
	CustomerID     uuid.UUID
	Brand          string
	Model          string
	Year           int
	Plate          string
	Km             *int
	AppraisedValue *decimal.Decimal
	Notes          string
}

// NewTradeIn registers a pending trade-in
func NewTradeIn(attrs TradeInAttributes) (*TradeIn, error) {
	if attrs.CustomerID == uuid.Nil {
		return nil, shared.NewValidationError("customer_id", "is required")
	}
	brand, model := strings.TrimSpace(attrs.Brand), strings.TrimSpace(attrs.Model)
	if brand == "" {
		return nil, shared.NewValidationError("brand", "is required")
	}
	if model == "" {
		return nil, shared.NewValidationError("model", "is required")
	}
	if attrs.Year <= 0 {
		return nil, shared.NewValidationError("year", "must be positive")
	}
	if attrs.Km != nil && *attrs.Km < 0 {
		return nil, shared.NewValidationError("km", "must not be negative")
	}
	if attrs.AppraisedValue != nil && attrs.AppraisedValue.IsNegative() {
		return nil, shared.NewValidationError("appraised_value", "must not be negative")
	}
	return &TradeIn{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		CustomerID:        attrs.CustomerID,
		Brand:             brand,
		Model:             model,
		Year:              attrs.Year,
		Plate:             strings.TrimSpace(attrs.Plate),
		Km:                attrs.Km,
		AppraisedValue:    attrs.AppraisedValue,
		Status:            TradeInStatusPending,
		Notes:             attrs.Notes,
	}, nil
}

// Accept marks the trade-in as used by a sale
func (t *TradeIn) Accept() error {
	return t.decide(TradeInStatusAccepted)
}

// Reject declines the trade-in
func (t *TradeIn) Reject() error {
	return t.decide(TradeInStatusRejected)
}

func (t *TradeIn) decide(target TradeInStatus) error {
	if t.Status != TradeInStatusPending {
		return shared.NewInvalidStateError(fmt.Sprintf("trade-in %s is %s, expected %s", t.ID, t.Status, TradeInStatusPending))
	}
	t.Status = target
	t.Touch()
	return nil
}
