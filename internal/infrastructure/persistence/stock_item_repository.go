package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/dealership/backend/internal/domain/inventory"
	"github.com/dealership/backend/internal/domain/shared"
	"github.com/dealership/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormStockItemRepository implements StockItemRepository using GORM
type GormStockItemRepository struct {
	db *gorm.DB
}

// NewGormStockItemRepository creates a new GormStockItemRepository
func NewGormStockItemRepository(db *gorm.DB) *GormStockItemRepository {
	return &GormStockItemRepository{db: db}
}

// FindByID finds a live stock item by its ID
func (r *GormStockItemRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.StockItem, error) {
	return r.find(r.db.WithContext(ctx), id)
}

// FindByIDForUpdate finds a stock item and locks its row
func (r *GormStockItemRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*inventory.StockItem, error) {
	return r.find(forUpdate(r.db.WithContext(ctx)), id)
}

func (r *GormStockItemRepository) find(db *gorm.DB, id uuid.UUID) (*inventory.StockItem, error) {
	var model models.StockItemModel
	if err := db.First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll lists live stock items
func (r *GormStockItemRepository) FindAll(ctx context.Context, filter shared.Filter) ([]inventory.StockItem, error) {
	var rows []models.StockItemModel
	query := paginate(r.applyFilter(r.db.WithContext(ctx).Model(&models.StockItemModel{}), filter),
		filter, StockItemSortFields, "created_at")
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	items := make([]inventory.StockItem, len(rows))
	for i := range rows {
		items[i] = *rows[i].ToDomain()
	}
	return items, nil
}

// Count counts live stock items matching the filter
func (r *GormStockItemRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	err := r.applyFilter(r.db.WithContext(ctx).Model(&models.StockItemModel{}), filter).Count(&count).Error
	return count, err
}

func (r *GormStockItemRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(brand) LIKE ? OR LOWER(model) LIKE ? OR LOWER(plate) LIKE ?", pattern, pattern, pattern)
	}
	if brand, ok := filter.Filters["brand"].(string); ok && brand != "" {
		query = query.Where("brand = ?", brand)
	}
	if year, ok := filter.Filters["year"].(int); ok {
		query = query.Where("year = ?", year)
	}
	return query
}

// Save inserts a new stock item or updates an existing one under its version guard
func (r *GormStockItemRepository) Save(ctx context.Context, item *inventory.StockItem) error {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.StockItemModel{}).Where("id = ?", item.ID).Count(&count).Error; err != nil {
		return err
	}
	model := models.StockItemModelFromDomain(item)
	if count == 0 {
		return r.db.WithContext(ctx).Create(model).Error
	}
	model.Version = item.Version + 1
	if err := updateVersioned(ctx, r.db, model, item.Version); err != nil {
		return err
	}
	item.Version = model.Version
	item.UpdatedAt = model.UpdatedAt
	return nil
}

// Delete removes a stock item; a missing row yields shared.ErrNotFound
func (r *GormStockItemRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.StockItemModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// SumEncodedBytes totals media bytes over live stock items, optionally
// leaving one item out
func (r *GormStockItemRepository) SumEncodedBytes(ctx context.Context, excludingID *uuid.UUID) (int64, error) {
	var total int64
	query := r.db.WithContext(ctx).Model(&models.StockItemModel{}).
		Select("COALESCE(SUM(total_encoded_bytes), 0)")
	if excludingID != nil {
		query = query.Where("id <> ?", *excludingID)
	}
	if err := query.Scan(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

// LockQuota takes a transaction-scoped advisory lock on postgres. Other
// dialects rely on the transaction alone.
func (r *GormStockItemRepository) LockQuota(ctx context.Context) error {
	if !isPostgres(r.db) {
		return nil
	}
	return r.db.WithContext(ctx).Exec("SELECT pg_advisory_xact_lock(?)", quotaLockKey).Error
}

// GormTransferRecordRepository implements TransferRecordRepository using GORM
type GormTransferRecordRepository struct {
	db *gorm.DB
}

// NewGormTransferRecordRepository creates a new GormTransferRecordRepository
func NewGormTransferRecordRepository(db *gorm.DB) *GormTransferRecordRepository {
	return &GormTransferRecordRepository{db: db}
}

// Save inserts a transfer record
func (r *GormTransferRecordRepository) Save(ctx context.Context, record *inventory.TransferRecord) error {
	return r.db.WithContext(ctx).Create(models.TransferRecordModelFromDomain(record)).Error
}

// FindByID finds a transfer record by its ID
func (r *GormTransferRecordRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.TransferRecord, error) {
	var model models.TransferRecordModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

var (
	_ inventory.StockItemRepository      = (*GormStockItemRepository)(nil)
	_ inventory.TransferRecordRepository = (*GormTransferRecordRepository)(nil)
)
