// Package models contains GORM-specific persistence models that map to database tables.
// These models are separate from domain entities to keep the domain layer pure and free
// from ORM concerns.
//
// Structure:
// - base.go: BaseModel, AggregateModel and nullable money helpers
// - inventory.go: StockItem, TransferRecord
// - vehicle.go: Vehicle
// - trade.go: Sale, PaymentInstrument, Installment, TradeIn
// - finance.go: FinancialTransaction
// - partner.go: Customer
package models
