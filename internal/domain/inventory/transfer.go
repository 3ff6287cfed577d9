package inventory

import (
	"strings"
	"time"

	"github.com/dealership/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// TransferRecord documents a stock item that left the lot without a sale,
// e.g. moved to another branch or returned to a supplier.
type TransferRecord struct {
	shared.BaseEntity
	StockItemID   uuid.UUID
	Brand         string
	Model         string
	Year          int
	Plate         string
	Destination   string
	Notes         string
	TransferredAt time.Time
}

// NewTransferRecord snapshots the stock item being transferred out
func NewTransferRecord(item *StockItem, destination, notes string) (*TransferRecord, error) {
	if item == nil {
		return nil, shared.NewValidationError("stock_item_id", "is required")
	}
	return &TransferRecord{
		BaseEntity:    shared.NewBaseEntity(),
		StockItemID:   item.ID,
		Brand:         item.Brand,
		Model:         item.Model,
		Year:          item.Year,
		Plate:         item.Plate,
		Destination:   strings.TrimSpace(destination),
		Notes:         notes,
		TransferredAt: time.Now(),
	}, nil
}
