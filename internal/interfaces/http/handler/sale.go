package handler

import (
	"net/http"
	"strconv"

	tradeapp "github.com/dealership/backend/internal/application/trade"
	"github.com/dealership/backend/internal/interfaces/http/dto"
	"github.com/dealership/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// SaleHandler handles sale maintenance after settlement
type SaleHandler struct {
	BaseHandler
	sales *tradeapp.SaleService
}

// NewSaleHandler creates a new SaleHandler
func NewSaleHandler(sales *tradeapp.SaleService) *SaleHandler {
	return &SaleHandler{sales: sales}
}

// GetByID returns a sale with its instruments and installments
func (h *SaleHandler) GetByID(c *gin.Context) {
	id, ok := h.ParseUUID(c, "id")
	if !ok {
		return
	}

	sale, err := h.sales.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, sale)
}

// List lists sales, optionally filtered by customer, vehicle or status
func (h *SaleHandler) List(c *gin.Context) {
	var filter tradeapp.SaleListFilter
	if !h.BindQuery(c, &filter) {
		return
	}

	sales, total, err := h.sales.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	page, pageSize := pageOrDefault(filter.Page, filter.PageSize)
	h.SuccessWithMeta(c, sales, total, page, pageSize)
}

// Update applies a partial update. A version in the body turns on the
// optimistic concurrency check.
func (h *SaleHandler) Update(c *gin.Context) {
	id, ok := h.ParseUUID(c, "id")
	if !ok {
		return
	}
	var req tradeapp.UpdateSaleRequest
	if !h.BindJSON(c, &req) {
		return
	}

	sale, err := h.sales.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, sale)
}

// Delete removes a sale and reverts its vehicle
func (h *SaleHandler) Delete(c *gin.Context) {
	id, ok := h.ParseUUID(c, "id")
	if !ok {
		return
	}

	if err := h.sales.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// UpdateInstallment edits one installment of a financed instrument.
// The index is zero based.
func (h *SaleHandler) UpdateInstallment(c *gin.Context) {
	saleID, ok := h.ParseUUID(c, "id")
	if !ok {
		return
	}
	instrumentID, ok := h.ParseUUID(c, "instrumentId")
	if !ok {
		return
	}
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil || index < 0 {
		c.JSON(http.StatusBadRequest, dto.NewFieldErrorResponse(
			dto.ErrCodeValidation, "Must be a non-negative integer", "index", middleware.GetRequestID(c)))
		return
	}
	var req tradeapp.UpdateInstallmentRequest
	if !h.BindJSON(c, &req) {
		return
	}

	sale, err := h.sales.UpdateInstallment(c.Request.Context(), saleID, instrumentID, index, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, sale)
}

// Transactions lists the receivables emitted for a sale
func (h *SaleHandler) Transactions(c *gin.Context) {
	id, ok := h.ParseUUID(c, "id")
	if !ok {
		return
	}

	txs, err := h.sales.Transactions(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, txs)
}
