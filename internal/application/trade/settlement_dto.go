package trade

import (
	"encoding/json"
	"time"

	"github.com/dealership/backend/internal/domain/finance"
	"github.com/dealership/backend/internal/domain/inventory"
	"github.com/dealership/backend/internal/domain/shared"
	"github.com/dealership/backend/internal/domain/trade"
	"github.com/dealership/backend/internal/domain/vehicle"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ExitKind is how a stock item leaves the lot
type ExitKind string

const (
	ExitTransfer ExitKind = "transfer"
	ExitSale     ExitKind = "sale"
	ExitPresale  ExitKind = "presale"
)

// IsValid checks if the exit kind is a known value
func (k ExitKind) IsValid() bool {
	return k == ExitTransfer || k == ExitSale || k == ExitPresale
}

// PaymentInstrumentInput is one instrument in a settlement or sale update.
// Details are decoded according to Kind.
type PaymentInstrumentInput struct {
	ID      *uuid.UUID      `json:"id"`
	Kind    string          `json:"kind" binding:"required"`
	Amount  decimal.Decimal `json:"amount"`
	Date    *time.Time      `json:"date"`
	Details json.RawMessage `json:"details"`
}

// SettleRequest represents a request to retire a stock item
type SettleRequest struct {
	ExitKind       ExitKind                 `json:"exit_kind" binding:"required,oneof=transfer sale presale"`
	CustomerID     *uuid.UUID               `json:"customer_id"`
	SellerID       *uuid.UUID               `json:"seller_id"`
	TradeInID      *uuid.UUID               `json:"trade_in_id"`
	SaleValue      *decimal.Decimal         `json:"sale_value"`
	DiscountAmount *decimal.Decimal         `json:"discount_amount"`
	TableValue     *decimal.Decimal         `json:"table_value"`
	Date           *time.Time               `json:"date"`
	Notes          string                   `json:"notes"`
	Destination    string                   `json:"destination" binding:"omitempty,max=200"`
	Instruments    []PaymentInstrumentInput `json:"payment_instruments" binding:"omitempty,dive"`
	// IdempotencyKey is taken from the Idempotency-Key header
	IdempotencyKey string `json:"-"`
}

// UpdateSaleRequest is a partial update of a sale.
// A nil instrument list leaves instruments untouched; an empty one removes them all.
type UpdateSaleRequest struct {
	SalePrice      *decimal.Decimal         `json:"sale_price"`
	PurchasePrice  *decimal.Decimal         `json:"purchase_price"`
	DiscountAmount *decimal.Decimal         `json:"discount_amount"`
	TableValue     *decimal.Decimal         `json:"table_value"`
	SellerID       *uuid.UUID               `json:"seller_id"`
	Date           *time.Time               `json:"date"`
	Notes          *string                  `json:"notes"`
	Status         *string                  `json:"status" binding:"omitempty,oneof=in_progress completed"`
	Instruments    []PaymentInstrumentInput `json:"payment_instruments" binding:"omitempty,dive"`
	ResetSchedule  bool                     `json:"reset_schedule"`
	Version        *int                     `json:"version"`
}

// UpdateInstallmentRequest edits a single installment
type UpdateInstallmentRequest struct {
	Amount         *decimal.Decimal `json:"amount"`
	DocumentNumber *string          `json:"document_number" binding:"omitempty,max=100"`
}

// CreateTradeInRequest registers a customer's vehicle offered as part payment
type CreateTradeInRequest struct {
	CustomerID     uuid.UUID        `json:"customer_id" binding:"required"`
	Brand          string           `json:"brand" binding:"required,max=100"`
	Model          string           `json:"model" binding:"required,max=100"`
	Year           int              `json:"year" binding:"required,min=1900"`
	Plate          string           `json:"plate" binding:"omitempty,max=20"`
	Km             *int             `json:"km" binding:"omitempty,min=0"`
	AppraisedValue *decimal.Decimal `json:"appraised_value"`
	Notes          string           `json:"notes"`
}

// SaleListFilter represents filter options for the sale list
type SaleListFilter struct {
	CustomerID string `form:"customer_id" binding:"omitempty,uuid"`
	VehicleID  string `form:"vehicle_id" binding:"omitempty,uuid"`
	Status     string `form:"status" binding:"omitempty,oneof=in_progress completed"`
	Page       int    `form:"page" binding:"omitempty,min=1"`
	PageSize   int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy    string `form:"order_by"`
	OrderDir   string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// InstallmentResponse represents an installment in API responses
type InstallmentResponse struct {
	ID             uuid.UUID       `json:"id"`
	Index          int             `json:"index"`
	DueDate        time.Time       `json:"due_date"`
	Amount         decimal.Decimal `json:"amount"`
	DocumentNumber string          `json:"document_number,omitempty"`
	AmountEdited   bool            `json:"amount_edited"`
}

// PaymentInstrumentResponse represents a payment instrument in API responses
type PaymentInstrumentResponse struct {
	ID           uuid.UUID             `json:"id"`
	Kind         string                `json:"kind"`
	Amount       decimal.Decimal       `json:"amount"`
	Date         time.Time             `json:"date"`
	Details      any                   `json:"details"`
	Installments []InstallmentResponse `json:"installments,omitempty"`
}

// SaleResponse represents a sale in API responses
type SaleResponse struct {
	ID              uuid.UUID                   `json:"id"`
	CustomerID      uuid.UUID                   `json:"customer_id"`
	VehicleID       uuid.UUID                   `json:"vehicle_id"`
	TradeInID       *uuid.UUID                  `json:"trade_in_id,omitempty"`
	SellerID        uuid.UUID                   `json:"seller_id"`
	SalePrice       *decimal.Decimal            `json:"sale_price"`
	PurchasePrice   *decimal.Decimal            `json:"purchase_price"`
	Profit          *decimal.Decimal            `json:"profit"`
	DiscountAmount  *decimal.Decimal            `json:"discount_amount,omitempty"`
	TableValue      *decimal.Decimal            `json:"table_value,omitempty"`
	FinancedAmount  *decimal.Decimal            `json:"financed_amount,omitempty"`
	EntryAmount     decimal.Decimal             `json:"entry_amount"`
	RemainingAmount decimal.Decimal             `json:"remaining_amount"`
	Status          string                      `json:"status"`
	Date            time.Time                   `json:"date"`
	Notes           string                      `json:"notes,omitempty"`
	Instruments     []PaymentInstrumentResponse `json:"payment_instruments"`
	CreatedAt       time.Time                   `json:"created_at"`
	UpdatedAt       time.Time                   `json:"updated_at"`
	Version         int                         `json:"version"`
}

// SaleListItemResponse represents a sale list entry
type SaleListItemResponse struct {
	ID         uuid.UUID        `json:"id"`
	CustomerID uuid.UUID        `json:"customer_id"`
	VehicleID  uuid.UUID        `json:"vehicle_id"`
	SalePrice  *decimal.Decimal `json:"sale_price"`
	Profit     *decimal.Decimal `json:"profit"`
	Status     string           `json:"status"`
	Date       time.Time        `json:"date"`
}

// VehicleResponse represents a vehicle in API responses
type VehicleResponse struct {
	ID                uuid.UUID        `json:"id"`
	Brand             string           `json:"brand"`
	Model             string           `json:"model"`
	Year              int              `json:"year"`
	Plate             string           `json:"plate,omitempty"`
	Km                *int             `json:"km,omitempty"`
	Color             string           `json:"color,omitempty"`
	SalePrice         *decimal.Decimal `json:"sale_price,omitempty"`
	AcquisitionCost   *decimal.Decimal `json:"acquisition_cost,omitempty"`
	TableValue        *decimal.Decimal `json:"table_value,omitempty"`
	Status            string           `json:"status"`
	CustomerID        *uuid.UUID       `json:"customer_id,omitempty"`
	OriginStockItemID *uuid.UUID       `json:"origin_stock_item_id,omitempty"`
	MediaCount        int              `json:"media_count"`
	Version           int              `json:"version"`
}

// TransferResponse represents a transfer record in API responses
type TransferResponse struct {
	ID            uuid.UUID `json:"id"`
	StockItemID   uuid.UUID `json:"stock_item_id"`
	Brand         string    `json:"brand"`
	Model         string    `json:"model"`
	Year          int       `json:"year"`
	Plate         string    `json:"plate,omitempty"`
	Destination   string    `json:"destination,omitempty"`
	Notes         string    `json:"notes,omitempty"`
	TransferredAt time.Time `json:"transferred_at"`
}

// TradeInResponse represents a trade-in in API responses
type TradeInResponse struct {
	ID             uuid.UUID        `json:"id"`
	CustomerID     uuid.UUID        `json:"customer_id"`
	Brand          string           `json:"brand"`
	Model          string           `json:"model"`
	Year           int              `json:"year"`
	Plate          string           `json:"plate,omitempty"`
	Km             *int             `json:"km,omitempty"`
	AppraisedValue *decimal.Decimal `json:"appraised_value,omitempty"`
	Status         string           `json:"status"`
	Notes          string           `json:"notes,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
}

// FinancialTransactionResponse represents a ledger entry emitted by this service
type FinancialTransactionResponse struct {
	ID           uuid.UUID       `json:"id"`
	Kind         string          `json:"kind"`
	Description  string          `json:"description"`
	Amount       decimal.Decimal `json:"amount"`
	DueDate      time.Time       `json:"due_date"`
	Status       string          `json:"status"`
	SaleID       *uuid.UUID      `json:"sale_id,omitempty"`
	InstrumentID *uuid.UUID      `json:"instrument_id,omitempty"`
}

// SettlementResult is the outcome of a settlement.
// Sale and Vehicle are set for sales and presales, Transfer for transfers.
type SettlementResult struct {
	ExitKind ExitKind          `json:"exit_kind"`
	Sale     *SaleResponse     `json:"sale,omitempty"`
	Vehicle  *VehicleResponse  `json:"vehicle,omitempty"`
	Transfer *TransferResponse `json:"transfer,omitempty"`
}

// ToSaleResponse converts a domain Sale, with its instruments, to a response
func ToSaleResponse(s *trade.Sale) SaleResponse {
	instruments := make([]PaymentInstrumentResponse, len(s.Instruments))
	for i := range s.Instruments {
		instruments[i] = ToPaymentInstrumentResponse(&s.Instruments[i])
	}
	return SaleResponse{
		ID:              s.ID,
		CustomerID:      s.CustomerID,
		VehicleID:       s.VehicleID,
		TradeInID:       s.TradeInID,
		SellerID:        s.SellerID,
		SalePrice:       s.SalePrice,
		PurchasePrice:   s.PurchasePrice,
		Profit:          s.Profit,
		DiscountAmount:  s.DiscountAmount,
		TableValue:      s.TableValue,
		FinancedAmount:  s.FinancedAmount,
		EntryAmount:     s.EntryAmount,
		RemainingAmount: s.RemainingAmount,
		Status:          string(s.Status),
		Date:            s.Date,
		Notes:           s.Notes,
		Instruments:     instruments,
		CreatedAt:       s.CreatedAt,
		UpdatedAt:       s.UpdatedAt,
		Version:         s.Version,
	}
}

// ToSaleListItemResponse converts a domain Sale to a list entry
func ToSaleListItemResponse(s *trade.Sale) SaleListItemResponse {
	return SaleListItemResponse{
		ID:         s.ID,
		CustomerID: s.CustomerID,
		VehicleID:  s.VehicleID,
		SalePrice:  s.SalePrice,
		Profit:     s.Profit,
		Status:     string(s.Status),
		Date:       s.Date,
	}
}

// ToPaymentInstrumentResponse converts a domain PaymentInstrument to a response
func ToPaymentInstrumentResponse(p *trade.PaymentInstrument) PaymentInstrumentResponse {
	resp := PaymentInstrumentResponse{
		ID:      p.ID,
		Kind:    string(p.Kind),
		Amount:  p.Amount,
		Date:    p.Date,
		Details: p.Details,
	}
	if fin, ok := p.Financing(); ok {
		resp.Installments = make([]InstallmentResponse, len(fin.Installments))
		for i, inst := range fin.Installments {
			resp.Installments[i] = InstallmentResponse{
				ID:             inst.ID,
				Index:          inst.Index,
				DueDate:        inst.DueDate,
				Amount:         inst.Amount,
				DocumentNumber: inst.DocumentNumber,
				AmountEdited:   inst.AmountEdited,
			}
		}
	}
	return resp
}

// ToVehicleResponse converts a domain Vehicle to a response
func ToVehicleResponse(v *vehicle.Vehicle) VehicleResponse {
	return VehicleResponse{
		ID:                v.ID,
		Brand:             v.Brand,
		Model:             v.Model,
		Year:              v.Year,
		Plate:             v.Plate,
		Km:                v.Km,
		Color:             v.Color,
		SalePrice:         v.SalePrice,
		AcquisitionCost:   v.AcquisitionCost,
		TableValue:        v.TableValue,
		Status:            string(v.Status),
		CustomerID:        v.CustomerID,
		OriginStockItemID: v.OriginStockItemID,
		MediaCount:        len(v.Media),
		Version:           v.Version,
	}
}

// ToTransferResponse converts a domain TransferRecord to a response
func ToTransferResponse(r *inventory.TransferRecord) TransferResponse {
	return TransferResponse{
		ID:            r.ID,
		StockItemID:   r.StockItemID,
		Brand:         r.Brand,
		Model:         r.Model,
		Year:          r.Year,
		Plate:         r.Plate,
		Destination:   r.Destination,
		Notes:         r.Notes,
		TransferredAt: r.TransferredAt,
	}
}

// ToTradeInResponse converts a domain TradeIn to a response
func ToTradeInResponse(t *trade.TradeIn) TradeInResponse {
	return TradeInResponse{
		ID:             t.ID,
		CustomerID:     t.CustomerID,
		Brand:          t.Brand,
		Model:          t.Model,
		Year:           t.Year,
		Plate:          t.Plate,
		Km:             t.Km,
		AppraisedValue: t.AppraisedValue,
		Status:         string(t.Status),
		Notes:          t.Notes,
		CreatedAt:      t.CreatedAt,
	}
}

// ToFinancialTransactionResponse converts a ledger entry to a response
func ToFinancialTransactionResponse(ft *finance.FinancialTransaction) FinancialTransactionResponse {
	return FinancialTransactionResponse{
		ID:           ft.ID,
		Kind:         string(ft.Kind),
		Description:  ft.Description,
		Amount:       ft.Amount,
		DueDate:      ft.DueDate,
		Status:       string(ft.Status),
		SaleID:       ft.SaleID,
		InstrumentID: ft.InstrumentID,
	}
}

func (f SaleListFilter) toDomain() (shared.Filter, error) {
	filter := shared.DefaultFilter()
	filter.OrderBy = "date"
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
	for key, raw := range map[string]string{"customer_id": f.CustomerID, "vehicle_id": f.VehicleID} {
		if raw == "" {
			continue
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			return filter, shared.NewValidationError(key, "must be a valid UUID")
		}
		filter.Filters[key] = id
	}
	if f.Status != "" {
		filter.Filters["status"] = f.Status
	}
	return filter, nil
}

// buildInstrument decodes one input into a validated domain instrument.
// fallbackDate is used when the input carries no date.
func buildInstrument(in PaymentInstrumentInput, fallbackDate time.Time) (*trade.PaymentInstrument, error) {
	kind := trade.InstrumentKind(in.Kind)
	details, err := trade.DecodeDetails(kind, in.Details)
	if err != nil {
		return nil, err
	}
	return trade.NewPaymentInstrument(kind, in.Amount, instrumentDate(in, fallbackDate), details)
}

func instrumentDate(in PaymentInstrumentInput, fallback time.Time) time.Time {
	if in.Date != nil {
		return *in.Date
	}
	return fallback
}
