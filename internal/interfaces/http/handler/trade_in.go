package handler

import (
	tradeapp "github.com/dealership/backend/internal/application/trade"
	"github.com/gin-gonic/gin"
)

// TradeInHandler handles customer vehicles offered as part payment
type TradeInHandler struct {
	BaseHandler
	tradeIns *tradeapp.TradeInService
}

// NewTradeInHandler creates a new TradeInHandler
func NewTradeInHandler(tradeIns *tradeapp.TradeInService) *TradeInHandler {
	return &TradeInHandler{tradeIns: tradeIns}
}

// Create registers a pending trade-in
func (h *TradeInHandler) Create(c *gin.Context) {
	var req tradeapp.CreateTradeInRequest
	if !h.BindJSON(c, &req) {
		return
	}

	tradeIn, err := h.tradeIns.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, tradeIn)
}

func (h *TradeInHandler) GetByID(c *gin.Context) {
	id, ok := h.ParseUUID(c, "id")
	if !ok {
		return
	}

	tradeIn, err := h.tradeIns.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, tradeIn)
}
