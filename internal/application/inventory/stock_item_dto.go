package inventory

import (
	"time"

	"github.com/dealership/backend/internal/domain/inventory"
	"github.com/dealership/backend/internal/domain/shared"
	"github.com/dealership/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MediaBlobRequest is one base64 encoded photo or document
type MediaBlobRequest struct {
	Name string `json:"name"`
	Data string `json:"data" binding:"required"`
}

// CreateStockItemRequest represents a request to take a vehicle into stock
type CreateStockItemRequest struct {
	Brand            string             `json:"brand" binding:"required,max=100"`
	Model            string             `json:"model" binding:"required,max=100"`
	Year             int                `json:"year" binding:"required,min=1900"`
	Plate            string             `json:"plate" binding:"omitempty,max=20"`
	Km               *int               `json:"km" binding:"omitempty,min=0"`
	Color            string             `json:"color" binding:"omitempty,max=50"`
	AcquisitionValue *decimal.Decimal   `json:"acquisition_value"`
	PromotionValue   *decimal.Decimal   `json:"promotion_value"`
	VehicleID        *uuid.UUID         `json:"vehicle_id"`
	Notes            string             `json:"notes"`
	AcquiredAt       *time.Time         `json:"acquired_at"`
	Media            []MediaBlobRequest `json:"media" binding:"omitempty,dive"`
}

// UpdateStockItemRequest is a partial update; absent fields are left untouched.
// An empty media array clears the blobs.
type UpdateStockItemRequest struct {
	Brand            *string            `json:"brand" binding:"omitempty,min=1,max=100"`
	Model            *string            `json:"model" binding:"omitempty,min=1,max=100"`
	Year             *int               `json:"year" binding:"omitempty,min=1900"`
	Plate            *string            `json:"plate" binding:"omitempty,max=20"`
	Km               *int               `json:"km" binding:"omitempty,min=0"`
	Color            *string            `json:"color" binding:"omitempty,max=50"`
	AcquisitionValue *decimal.Decimal   `json:"acquisition_value"`
	PromotionValue   *decimal.Decimal   `json:"promotion_value"`
	Notes            *string            `json:"notes"`
	Media            []MediaBlobRequest `json:"media" binding:"omitempty,dive"`
}

// StockItemListFilter represents filter options for the stock list
type StockItemListFilter struct {
	Search   string `form:"search"`
	Brand    string `form:"brand"`
	Year     *int   `form:"year"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// MediaBlobResponse is a stored media blob
type MediaBlobResponse struct {
	Name string `json:"name"`
	Data string `json:"data"`
}

// StockItemResponse represents a stock item in API responses
type StockItemResponse struct {
	ID                uuid.UUID           `json:"id"`
	Brand             string              `json:"brand"`
	Model             string              `json:"model"`
	Year              int                 `json:"year"`
	Plate             string              `json:"plate,omitempty"`
	Km                *int                `json:"km,omitempty"`
	Color             string              `json:"color,omitempty"`
	AcquisitionValue  *decimal.Decimal    `json:"acquisition_value,omitempty"`
	PromotionValue    *decimal.Decimal    `json:"promotion_value,omitempty"`
	VehicleID         *uuid.UUID          `json:"vehicle_id,omitempty"`
	Notes             string              `json:"notes,omitempty"`
	AcquiredAt        time.Time           `json:"acquired_at"`
	Media             []MediaBlobResponse `json:"media"`
	TotalEncodedBytes int64               `json:"total_encoded_bytes"`
	CreatedAt         time.Time           `json:"created_at"`
	UpdatedAt         time.Time           `json:"updated_at"`
	Version           int                 `json:"version"`
}

// StockItemListItemResponse represents a stock list entry; media is not included
type StockItemListItemResponse struct {
	ID                uuid.UUID        `json:"id"`
	Brand             string           `json:"brand"`
	Model             string           `json:"model"`
	Year              int              `json:"year"`
	Plate             string           `json:"plate,omitempty"`
	Color             string           `json:"color,omitempty"`
	AcquisitionValue  *decimal.Decimal `json:"acquisition_value,omitempty"`
	PromotionValue    *decimal.Decimal `json:"promotion_value,omitempty"`
	MediaCount        int              `json:"media_count"`
	TotalEncodedBytes int64            `json:"total_encoded_bytes"`
	UpdatedAt         time.Time        `json:"updated_at"`
}

// QuotaUsageResponse reports media storage usage
type QuotaUsageResponse struct {
	Used      int64 `json:"used"`
	Budget    int64 `json:"budget"`
	Available int64 `json:"available"`
}

// ToStockItemResponse converts a domain StockItem to a response
func ToStockItemResponse(item *inventory.StockItem) StockItemResponse {
	media := make([]MediaBlobResponse, len(item.Media))
	for i, m := range item.Media {
		media[i] = MediaBlobResponse{Name: m.Name, Data: m.Data}
	}
	return StockItemResponse{
		ID:                item.ID,
		Brand:             item.Brand,
		Model:             item.Model,
		Year:              item.Year,
		Plate:             item.Plate,
		Km:                item.Km,
		Color:             item.Color,
		AcquisitionValue:  item.AcquisitionValue,
		PromotionValue:    item.PromotionValue,
		VehicleID:         item.VehicleID,
		Notes:             item.Notes,
		AcquiredAt:        item.AcquiredAt,
		Media:             media,
		TotalEncodedBytes: item.TotalEncodedBytes,
		CreatedAt:         item.CreatedAt,
		UpdatedAt:         item.UpdatedAt,
		Version:           item.Version,
	}
}

// ToStockItemListItemResponse converts a domain StockItem to a list entry
func ToStockItemListItemResponse(item *inventory.StockItem) StockItemListItemResponse {
	return StockItemListItemResponse{
		ID:                item.ID,
		Brand:             item.Brand,
		Model:             item.Model,
		Year:              item.Year,
		Plate:             item.Plate,
		Color:             item.Color,
		AcquisitionValue:  item.AcquisitionValue,
		PromotionValue:    item.PromotionValue,
		MediaCount:        len(item.Media),
		TotalEncodedBytes: item.TotalEncodedBytes,
		UpdatedAt:         item.UpdatedAt,
	}
}

func toMediaList(blobs []MediaBlobRequest) valueobject.MediaList {
	if blobs == nil {
		return nil
	}
	out := make(valueobject.MediaList, len(blobs))
	for i, b := range blobs {
		out[i] = valueobject.MediaBlob{Name: b.Name, Data: b.Data}
	}
	return out
}

func (f StockItemListFilter) toDomain() shared.Filter {
	filter := shared.DefaultFilter()
	if f.Page > 0 {
		filter.Page = f.Page
	}
	if f.PageSize > 0 {
		filter.PageSize = f.PageSize
	}
	if f.OrderBy != "" {
		filter.OrderBy = f.OrderBy
	}
	if f.OrderDir != "" {
		filter.OrderDir = f.OrderDir
	}
	filter.Search = f.Search
	if f.Brand != "" {
		filter.Filters["brand"] = f.Brand
	}
	if f.Year != nil {
		filter.Filters["year"] = *f.Year
	}
	return filter
}
