package router

import (
	"github.com/dealership/backend/internal/interfaces/http/handler"
)

// Handlers holds every HTTP handler exposed by the API
type Handlers struct {
	StockItems *handler.StockItemHandler
	Sales      *handler.SaleHandler
	TradeIns   *handler.TradeInHandler
	Vehicles   *handler.VehicleHandler
	System     *handler.SystemHandler
}

// DomainGroups builds the route groups of the dealership API
func DomainGroups(h Handlers) []*DomainGroup {
	stock := NewDomainGroup("inventory", "/stock-items")
	stock.POST("", h.StockItems.Create)
	stock.GET("", h.StockItems.List)
	stock.GET("/quota", h.StockItems.Quota)
	stock.GET("/:id", h.StockItems.GetByID)
	stock.PUT("/:id", h.StockItems.Update)
	stock.DELETE("/:id", h.StockItems.Delete)
	stock.POST("/:id/settle", h.StockItems.Settle)

	sales := NewDomainGroup("trade", "/sales")
	sales.GET("", h.Sales.List)
	sales.GET("/:id", h.Sales.GetByID)
	sales.PUT("/:id", h.Sales.Update)
	sales.DELETE("/:id", h.Sales.Delete)
	sales.GET("/:id/transactions", h.Sales.Transactions)
	sales.PUT("/:id/instruments/:instrumentId/installments/:index", h.Sales.UpdateInstallment)

	tradeIns := NewDomainGroup("trade-in", "/trade-ins")
	tradeIns.POST("", h.TradeIns.Create)
	tradeIns.GET("/:id", h.TradeIns.GetByID)

	vehicles := NewDomainGroup("vehicle", "/vehicles")
	vehicles.GET("/:id", h.Vehicles.GetVehicle)

	transfers := NewDomainGroup("transfer", "/transfers")
	transfers.GET("/:id", h.Vehicles.GetTransfer)

	system := NewDomainGroup("system", "/system")
	system.GET("/info", h.System.GetSystemInfo)
	system.GET("/ping", h.System.Ping)

	return []*DomainGroup{stock, sales, tradeIns, vehicles, transfers, system}
}

// RegisterAll registers the dealership route groups and mounts them
func (r *Router) RegisterAll(h Handlers) {
	for _, g := range DomainGroups(h) {
		r.Register(g)
	}
	r.Setup()
}
