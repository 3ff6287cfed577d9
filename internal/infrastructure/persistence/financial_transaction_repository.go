package persistence

import (
	"context"
	"errors"

	"github.com/dealership/backend/internal/domain/finance"
	"github.com/dealership/backend/internal/domain/shared"
	"github.com/dealership/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormFinancialTransactionRepository implements FinancialTransactionRepository using GORM
type GormFinancialTransactionRepository struct {
	db *gorm.DB
}

// NewGormFinancialTransactionRepository creates a new GormFinancialTransactionRepository
func NewGormFinancialTransactionRepository(db *gorm.DB) *GormFinancialTransactionRepository {
	return &GormFinancialTransactionRepository{db: db}
}

// FindByID finds a transaction by ID
func (r *GormFinancialTransactionRepository) FindByID(ctx context.Context, id uuid.UUID) (*finance.FinancialTransaction, error) {
	return r.first(r.db.WithContext(ctx).Where("id = ?", id))
}

// FindBySale lists the transactions emitted for a sale ordered by due date
func (r *GormFinancialTransactionRepository) FindBySale(ctx context.Context, saleID uuid.UUID) ([]finance.FinancialTransaction, error) {
	var rows []models.FinancialTransactionModel
	if err := r.db.WithContext(ctx).
		Where("sale_id = ?", saleID).
		Order("due_date ASC, created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]finance.FinancialTransaction, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, nil
}

// FindReceivableByInstrument returns the receivable emitted for a payment instrument
func (r *GormFinancialTransactionRepository) FindReceivableByInstrument(ctx context.Context, instrumentID uuid.UUID) (*finance.FinancialTransaction, error) {
	return r.first(r.db.WithContext(ctx).
		Where("instrument_id = ? AND kind = ?", instrumentID, finance.KindReceivable).
		Order("created_at DESC"))
}

// FindPayableByStockItem returns the acquisition payable of a stock item
func (r *GormFinancialTransactionRepository) FindPayableByStockItem(ctx context.Context, stockItemID uuid.UUID) (*finance.FinancialTransaction, error) {
	return r.first(r.db.WithContext(ctx).
		Where("stock_item_id = ? AND kind = ?", stockItemID, finance.KindPayable).
		Order("created_at DESC"))
}

func (r *GormFinancialTransactionRepository) first(query *gorm.DB) (*finance.FinancialTransaction, error) {
	var model models.FinancialTransactionModel
	if err := query.First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save creates or updates a transaction
func (r *GormFinancialTransactionRepository) Save(ctx context.Context, ft *finance.FinancialTransaction) error {
	return r.db.WithContext(ctx).Save(models.FinancialTransactionModelFromDomain(ft)).Error
}

// DeletePendingByInstrument removes the open receivables of an instrument
func (r *GormFinancialTransactionRepository) DeletePendingByInstrument(ctx context.Context, instrumentID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("instrument_id = ? AND status = ?", instrumentID, finance.StatusPending).
		Delete(&models.FinancialTransactionModel{}).Error
}

// DeletePendingBySale removes every open receivable of a sale
func (r *GormFinancialTransactionRepository) DeletePendingBySale(ctx context.Context, saleID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("sale_id = ? AND kind = ? AND status = ?", saleID, finance.KindReceivable, finance.StatusPending).
		Delete(&models.FinancialTransactionModel{}).Error
}

// Delete removes a transaction
func (r *GormFinancialTransactionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.FinancialTransactionModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

var _ finance.FinancialTransactionRepository = (*GormFinancialTransactionRepository)(nil)
