package persistence

import (
	"context"
	"errors"

	"github.com/dealership/backend/internal/domain/shared"
	"github.com/dealership/backend/internal/domain/trade"
	"github.com/dealership/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormSaleRepository implements SaleRepository using GORM
type GormSaleRepository struct {
	db *gorm.DB
}

// NewGormSaleRepository creates a new GormSaleRepository
func NewGormSaleRepository(db *gorm.DB) *GormSaleRepository {
	return &GormSaleRepository{db: db}
}

// FindByID finds a sale with its instruments and installments
func (r *GormSaleRepository) FindByID(ctx context.Context, id uuid.UUID) (*trade.Sale, error) {
	return r.find(ctx, r.db.WithContext(ctx), id)
}

// FindByIDForUpdate is FindByID with the sale row locked
func (r *GormSaleRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*trade.Sale, error) {
	return r.find(ctx, forUpdate(r.db.WithContext(ctx)), id)
}

func (r *GormSaleRepository) find(ctx context.Context, db *gorm.DB, id uuid.UUID) (*trade.Sale, error) {
	var model models.SaleModel
	if err := db.First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	instruments, err := loadInstruments(r.db.WithContext(ctx), "sale_id = ?", id)
	if err != nil {
		return nil, err
	}
	model.Instruments = instruments
	return model.ToDomain()
}

// FindAll lists sales without instruments
func (r *GormSaleRepository) FindAll(ctx context.Context, filter shared.Filter) ([]trade.Sale, error) {
	var rows []models.SaleModel
	query := paginate(r.applyFilter(r.db.WithContext(ctx).Model(&models.SaleModel{}), filter),
		filter, SaleSortFields, "date")
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	sales := make([]trade.Sale, len(rows))
	for i := range rows {
		s, err := rows[i].ToDomain()
		if err != nil {
			return nil, err
		}
		sales[i] = *s
	}
	return sales, nil
}

// Count counts sales matching the filter
func (r *GormSaleRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	err := r.applyFilter(r.db.WithContext(ctx).Model(&models.SaleModel{}), filter).Count(&count).Error
	return count, err
}

func (r *GormSaleRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if customerID, ok := filter.Filters["customer_id"].(uuid.UUID); ok {
		query = query.Where("customer_id = ?", customerID)
	}
	if vehicleID, ok := filter.Filters["vehicle_id"].(uuid.UUID); ok {
		query = query.Where("vehicle_id = ?", vehicleID)
	}
	if status, ok := filter.Filters["status"].(string); ok && status != "" {
		query = query.Where("status = ?", status)
	}
	return query
}

// Create inserts the sale row
func (r *GormSaleRepository) Create(ctx context.Context, sale *trade.Sale) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(models.SaleModelFromDomain(sale)).Error
}

// Update saves the sale row under its version guard and bumps the version
func (r *GormSaleRepository) Update(ctx context.Context, sale *trade.Sale) error {
	model := models.SaleModelFromDomain(sale)
	model.Version = sale.Version + 1
	if err := updateVersioned(ctx, r.db, model, sale.Version); err != nil {
		return err
	}
	sale.Version = model.Version
	sale.UpdatedAt = model.UpdatedAt
	return nil
}

// Delete removes the sale row
func (r *GormSaleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.SaleModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// loadInstruments reads instruments ordered by date with their installments
func loadInstruments(db *gorm.DB, query string, args ...any) ([]models.PaymentInstrumentModel, error) {
	var rows []models.PaymentInstrumentModel
	err := db.
		Preload("Installments", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("position ASC")
		}).
		Where(query, args...).
		Order("date ASC, created_at ASC").
		Find(&rows).Error
	return rows, err
}

// GormPaymentInstrumentRepository implements PaymentInstrumentRepository using GORM
type GormPaymentInstrumentRepository struct {
	db *gorm.DB
}

// NewGormPaymentInstrumentRepository creates a new GormPaymentInstrumentRepository
func NewGormPaymentInstrumentRepository(db *gorm.DB) *GormPaymentInstrumentRepository {
	return &GormPaymentInstrumentRepository{db: db}
}

// FindBySale lists a sale's instruments with their installments
func (r *GormPaymentInstrumentRepository) FindBySale(ctx context.Context, saleID uuid.UUID) ([]trade.PaymentInstrument, error) {
	rows, err := loadInstruments(r.db.WithContext(ctx), "sale_id = ?", saleID)
	if err != nil {
		return nil, err
	}
	out := make([]trade.PaymentInstrument, len(rows))
	for i := range rows {
		p, err := rows[i].ToDomain()
		if err != nil {
			return nil, err
		}
		out[i] = *p
	}
	return out, nil
}

// Save upserts the instrument row and replaces its stored installments with
// the current schedule. Installments without an ID get one here.
func (r *GormPaymentInstrumentRepository) Save(ctx context.Context, instrument *trade.PaymentInstrument) error {
	model, err := models.PaymentInstrumentModelFromDomain(instrument)
	if err != nil {
		return err
	}
	db := r.db.WithContext(ctx)
	if err := db.Omit(clause.Associations).Save(model).Error; err != nil {
		return err
	}

	var schedule []trade.Installment
	if fin, ok := instrument.Financing(); ok {
		schedule = fin.Installments
	}

	keep := make([]uuid.UUID, 0, len(schedule))
	for i := range schedule {
		if schedule[i].ID != uuid.Nil {
			keep = append(keep, schedule[i].ID)
		}
	}
	stale := db.Where("instrument_id = ?", instrument.ID)
	if len(keep) > 0 {
		stale = stale.Where("id NOT IN ?", keep)
	}
	if err := stale.Delete(&models.InstallmentModel{}).Error; err != nil {
		return err
	}

	for i := range schedule {
		inst := &schedule[i]
		inst.InstrumentID = instrument.ID
		if inst.ID == uuid.Nil {
			inst.ID = uuid.New()
			if err := db.Create(models.InstallmentModelFromDomain(inst)).Error; err != nil {
				return err
			}
			continue
		}
		if err := db.Save(models.InstallmentModelFromDomain(inst)).Error; err != nil {
			return err
		}
	}
	return nil
}

// SaveInstallment persists a single installment edit
func (r *GormPaymentInstrumentRepository) SaveInstallment(ctx context.Context, installment *trade.Installment) error {
	result := r.db.WithContext(ctx).
		Model(&models.InstallmentModel{}).
		Where("id = ?", installment.ID).
		Updates(map[string]any{
			"amount":          installment.Amount,
			"document_number": installment.DocumentNumber,
			"amount_edited":   installment.AmountEdited,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Delete removes an instrument and its installments
func (r *GormPaymentInstrumentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("instrument_id = ?", id).Delete(&models.InstallmentModel{}).Error; err != nil {
		return err
	}
	return db.Delete(&models.PaymentInstrumentModel{}, "id = ?", id).Error
}

// DeleteBySale removes every instrument of a sale with their installments
func (r *GormPaymentInstrumentRepository) DeleteBySale(ctx context.Context, saleID uuid.UUID) error {
	db := r.db.WithContext(ctx)
	ids := db.Model(&models.PaymentInstrumentModel{}).Select("id").Where("sale_id = ?", saleID)
	if err := db.Where("instrument_id IN (?)", ids).Delete(&models.InstallmentModel{}).Error; err != nil {
		return err
	}
	return db.Where("sale_id = ?", saleID).Delete(&models.PaymentInstrumentModel{}).Error
}

// GormTradeInRepository implements TradeInRepository using GORM
type GormTradeInRepository struct {
	db *gorm.DB
}

// NewGormTradeInRepository creates a new GormTradeInRepository
func NewGormTradeInRepository(db *gorm.DB) *GormTradeInRepository {
	return &GormTradeInRepository{db: db}
}

// FindByID finds a trade-in by ID
func (r *GormTradeInRepository) FindByID(ctx context.Context, id uuid.UUID) (*trade.TradeIn, error) {
	return r.find(r.db.WithContext(ctx), id)
}

// FindByIDForUpdate finds a trade-in and locks its row
func (r *GormTradeInRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*trade.TradeIn, error) {
	return r.find(forUpdate(r.db.WithContext(ctx)), id)
}

func (r *GormTradeInRepository) find(db *gorm.DB, id uuid.UUID) (*trade.TradeIn, error) {
	var model models.TradeInModel
	if err := db.First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Create inserts a trade-in
func (r *GormTradeInRepository) Create(ctx context.Context, tradeIn *trade.TradeIn) error {
	return r.db.WithContext(ctx).Create(models.TradeInModelFromDomain(tradeIn)).Error
}

// Update saves a trade-in under its version guard and bumps the version
func (r *GormTradeInRepository) Update(ctx context.Context, tradeIn *trade.TradeIn) error {
	model := models.TradeInModelFromDomain(tradeIn)
	model.Version = tradeIn.Version + 1
	if err := updateVersioned(ctx, r.db, model, tradeIn.Version); err != nil {
		return err
	}
	tradeIn.Version = model.Version
	tradeIn.UpdatedAt = model.UpdatedAt
	return nil
}

var (
	_ trade.SaleRepository              = (*GormSaleRepository)(nil)
	_ trade.PaymentInstrumentRepository = (*GormPaymentInstrumentRepository)(nil)
	_ trade.TradeInRepository           = (*GormTradeInRepository)(nil)
)
