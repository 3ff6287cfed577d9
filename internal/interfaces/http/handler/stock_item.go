package handler

import (
	inventoryapp "github.com/dealership/backend/internal/application/inventory"
	tradeapp "github.com/dealership/backend/internal/application/trade"
	"github.com/gin-gonic/gin"
)

// IdempotencyKeyHeader lets clients retry a settlement safely
const IdempotencyKeyHeader = "Idempotency-Key"

// StockItemHandler handles stock intake, editing and settlement endpoints
type StockItemHandler struct {
	BaseHandler
	stockItems *inventoryapp.StockItemService
	settlement *tradeapp.SettlementService
}

// NewStockItemHandler creates a new StockItemHandler
func NewStockItemHandler(stockItems *inventoryapp.StockItemService, settlement *tradeapp.SettlementService) *StockItemHandler {
	return &StockItemHandler{
		stockItems: stockItems,
		settlement: settlement,
	}
}

// Create takes a vehicle into stock.
// POST /stock-items
func (h *StockItemHandler) Create(c *gin.Context) {
	var req inventoryapp.CreateStockItemRequest
	if !h.BindJSON(c, &req) {
		return
	}

	item, err := h.stockItems.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, item)
}

// List lists live stock items.
// GET /stock-items
func (h *StockItemHandler) List(c *gin.Context) {
	var filter inventoryapp.StockItemListFilter
	if !h.BindQuery(c, &filter) {
		return
	}

	items, total, err := h.stockItems.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	page, pageSize := pageOrDefault(filter.Page, filter.PageSize)
	h.SuccessWithMeta(c, items, total, page, pageSize)
}

// GetByID returns one stock item with its media.
// GET /stock-items/:id
func (h *StockItemHandler) GetByID(c *gin.Context) {
	id, ok := h.ParseUUID(c, "id")
	if !ok {
		return
	}

	item, err := h.stockItems.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, item)
}

// Update applies a partial update.
// PUT /stock-items/:id
func (h *StockItemHandler) Update(c *gin.Context) {
	id, ok := h.ParseUUID(c, "id")
	if !ok {
		return
	}
	var req inventoryapp.UpdateStockItemRequest
	if !h.BindJSON(c, &req) {
		return
	}

	item, err := h.stockItems.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, item)
}

// Delete removes a stock item by hand.
// DELETE /stock-items/:id
func (h *StockItemHandler) Delete(c *gin.Context) {
	id, ok := h.ParseUUID(c, "id")
	if !ok {
		return
	}

	if err := h.stockItems.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Quota reports media storage usage.
// GET /stock-items/quota
func (h *StockItemHandler) Quota(c *gin.Context) {
	usage, err := h.stockItems.QuotaUsage(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, usage)
}

// Settle retires a stock item as a transfer, sale or presale.
// POST /stock-items/:id/settle
func (h *StockItemHandler) Settle(c *gin.Context) {
	id, ok := h.ParseUUID(c, "id")
	if !ok {
		return
	}
	var req tradeapp.SettleRequest
	if !h.BindJSON(c, &req) {
		return
	}
	req.IdempotencyKey = c.GetHeader(IdempotencyKeyHeader)

	result, err := h.settlement.Settle(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}
