package handler

import (
	tradeapp "github.com/dealership/backend/internal/application/trade"
	"github.com/gin-gonic/gin"
)

// VehicleHandler exposes sold vehicles and transfer records, the two
// places a stock item can end up after settlement
type VehicleHandler struct {
	BaseHandler
	settlement *tradeapp.SettlementService
}

// NewVehicleHandler creates a new VehicleHandler
func NewVehicleHandler(settlement *tradeapp.SettlementService) *VehicleHandler {
	return &VehicleHandler{settlement: settlement}
}

// GetVehicle returns a vehicle record.
// GET /vehicles/:id
func (h *VehicleHandler) GetVehicle(c *gin.Context) {
	id, ok := h.ParseUUID(c, "id")
	if !ok {
		return
	}

	v, err := h.settlement.GetVehicle(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, v)
}

// GetTransfer returns a transfer record.
// GET /transfers/:id
func (h *VehicleHandler) GetTransfer(c *gin.Context) {
	id, ok := h.ParseUUID(c, "id")
	if !ok {
		return
	}

	record, err := h.settlement.GetTransfer(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, record)
}
