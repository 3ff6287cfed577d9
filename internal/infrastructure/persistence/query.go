package persistence

import (
	"context"
	"fmt"

	"github.com/dealership/backend/internal/domain/shared"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// quotaLockKey is the advisory lock id that serialises media quota checks
const quotaLockKey int64 = 0x6d65646961

func isPostgres(db *gorm.DB) bool {
	return db.Dialector.Name() == "postgres"
}

// forUpdate adds SELECT ... FOR UPDATE on dialects that support row locks
func forUpdate(db *gorm.DB) *gorm.DB {
	if isPostgres(db) {
		return db.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return db
}

// paginate applies ordering and paging from a filter
func paginate(db *gorm.DB, filter shared.Filter, allowed map[string]bool, defaultField string) *gorm.DB {
	field := ValidateSortField(filter.OrderBy, allowed, defaultField)
	db = db.Order(fmt.Sprintf("%s %s", field, ValidateSortOrder(filter.OrderDir)))
	if filter.PageSize > 0 {
		db = db.Offset(filter.Offset()).Limit(filter.PageSize)
	}
	return db
}

// updateVersioned writes every column of model (except created_at and
// associations) provided the stored row is still at expected. The caller sets
// the new version on model first. A missed guard yields shared.ErrConflict.
func updateVersioned(ctx context.Context, db *gorm.DB, model any, expected int) error {
	result := db.WithContext(ctx).
		Model(model).
		Where("version = ?", expected).
		Select("*").
		Omit("created_at", clause.Associations).
		Updates(model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConflict
	}
	return nil
}
