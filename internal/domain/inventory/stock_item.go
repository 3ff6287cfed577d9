package inventory

import (
	"fmt"
	"strings"
	"time"

	"github.com/dealership/backend/internal/domain/shared"
	"github.com/dealership/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const minModelYear = 1900

// StockItem is a vehicle held in inventory that has not yet left the lot.
// It is consumed exactly once, by a sale/presale settlement or a transfer.
type StockItem struct {
	shared.BaseAggregateRoot
	Brand             string
	Model             string
	Year              int
	Plate             string
	Km                *int
	Color             string
	AcquisitionValue  *decimal.Decimal
	PromotionValue    *decimal.Decimal
	Media             valueobject.MediaList
	TotalEncodedBytes int64
	// VehicleID links the item to a vehicle already known to the dealership,
	// e.g. a car that was sold before and came back as a trade-in.
	VehicleID  *uuid.UUID
	Notes      string
	AcquiredAt time.Time
}

// StockItemAttributes holds the intake data for a stock item
type StockItemAttributes struct {
	Brand            string
	Model            string
	Year             int
	Plate            string
	Km               *int
	Color            string
	AcquisitionValue *decimal.Decimal
	PromotionValue   *decimal.Decimal
	VehicleID        *uuid.UUID
	Notes            string
	AcquiredAt       *time.Time
}

// StockItemChanges is a partial update; nil fields are left untouched.
// A nil Media leaves the blobs alone, an empty non-nil Media clears them.
type StockItemChanges struct {
	Brand            *string
	Model            *string
	Year             *int
	Plate            *string
	Km               *int
	Color            *string
	AcquisitionValue *decimal.Decimal
	PromotionValue   *decimal.Decimal
	Notes            *string
	Media            valueobject.MediaList
}

// NewStockItem creates a stock item from intake attributes
func NewStockItem(attrs StockItemAttributes, media valueobject.MediaList) (*StockItem, error) {
	if err := validateIdentity(attrs.Brand, attrs.Model, attrs.Year); err != nil {
		return nil, err
	}
	if err := validateMoney("acquisition_value", attrs.AcquisitionValue); err != nil {
		return nil, err
	}
	if err := validateMoney("promotion_value", attrs.PromotionValue); err != nil {
		return nil, err
	}
	if attrs.Km != nil && *attrs.Km < 0 {
		return nil, shared.NewValidationError("km", "must not be negative")
	}

	item := &StockItem{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Brand:             strings.TrimSpace(attrs.Brand),
		Model:             strings.TrimSpace(attrs.Model),
		Year:              attrs.Year,
		Plate:             strings.TrimSpace(attrs.Plate),
		Km:                attrs.Km,
		Color:             attrs.Color,
		AcquisitionValue:  attrs.AcquisitionValue,
		PromotionValue:    attrs.PromotionValue,
		VehicleID:         attrs.VehicleID,
		Notes:             attrs.Notes,
		AcquiredAt:        time.Now(),
	}
	if attrs.AcquiredAt != nil {
		item.AcquiredAt = *attrs.AcquiredAt
	}
	item.ReplaceMedia(media)
	return item, nil
}

// Apply merges a partial update into the item
func (s *StockItem) Apply(c StockItemChanges) error {
	brand, model, year := s.Brand, s.Model, s.Year
	if c.Brand != nil {
		brand = strings.TrimSpace(*c.Brand)
	}
	if c.Model != nil {
		model = strings.TrimSpace(*c.Model)
	}
	if c.Year != nil {
		year = *c.Year
	}
	if err := validateIdentity(brand, model, year); err != nil {
		return err
	}
	if err := validateMoney("acquisition_value", c.AcquisitionValue); err != nil {
		return err
	}
	if err := validateMoney("promotion_value", c.PromotionValue); err != nil {
		return err
	}
	if c.Km != nil && *c.Km < 0 {
		return shared.NewValidationError("km", "must not be negative")
	}

	s.Brand, s.Model, s.Year = brand, model, year
	if c.Plate != nil {
		s.Plate = strings.TrimSpace(*c.Plate)
	}
	if c.Km != nil {
		s.Km = c.Km
	}
	if c.Color != nil {
		s.Color = *c.Color
	}
	if c.AcquisitionValue != nil {
		s.AcquisitionValue = c.AcquisitionValue
	}
	if c.PromotionValue != nil {
		s.PromotionValue = c.PromotionValue
	}
	if c.Notes != nil {
		s.Notes = *c.Notes
	}
	if c.Media != nil {
		s.ReplaceMedia(c.Media)
	}
	s.Touch()
	return nil
}

// ReplaceMedia swaps the media blobs and recomputes the encoded size
func (s *StockItem) ReplaceMedia(media valueobject.MediaList) {
	if media == nil {
		media = valueobject.MediaList{}
	}
	s.Media = media
	s.TotalEncodedBytes = media.TotalBytes()
}

// Describe returns a short human label, e.g. "Toyota Corolla 2020"
func (s *StockItem) Describe() string {
	label := fmt.Sprintf("%s %s %d", s.Brand, s.Model, s.Year)
	if s.Plate != "" {
		label += " (" + s.Plate + ")"
	}
	return label
}

// HasAcquisitionCost reports whether the intake recorded a purchase cost
func (s *StockItem) HasAcquisitionCost() bool {
	return s.AcquisitionValue != nil && s.AcquisitionValue.IsPositive()
}

func validateIdentity(brand, model string, year int) error {
	if strings.TrimSpace(brand) == "" {
		return shared.NewValidationError("brand", "is required")
	}
	if strings.TrimSpace(model) == "" {
		return shared.NewValidationError("model", "is required")
	}
	if year < minModelYear || year > time.Now().Year()+1 {
		return shared.NewValidationError("year", fmt.Sprintf("must be between %d and %d", minModelYear, time.Now().Year()+1))
	}
	return nil
}

func validateMoney(field string, v *decimal.Decimal) error {
	if v != nil && v.IsNegative() {
		return shared.NewValidationError(field, "must not be negative")
	}
	return nil
}
