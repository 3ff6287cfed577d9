package inventory

import (
	"context"
	"errors"

	appshared "github.com/dealership/backend/internal/application/shared"
	"github.com/dealership/backend/internal/domain/finance"
	"github.com/dealership/backend/internal/domain/inventory"
	"github.com/dealership/backend/internal/domain/shared"
	"github.com/dealership/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// StockItemService handles stock intake, edits and manual removal
type StockItemService struct {
	scope           appshared.TransactionScope
	budget          int64
	logger          *zap.Logger
	businessMetrics *telemetry.BusinessMetrics
}

// NewStockItemService creates a new StockItemService.
// budget is the media storage budget in bytes; zero selects the default.
func NewStockItemService(scope appshared.TransactionScope, budget int64, logger *zap.Logger) *StockItemService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if budget <= 0 {
		budget = inventory.DefaultStorageBudget
	}
	return &StockItemService{
		scope:  scope,
		budget: budget,
		logger: logger,
	}
}

// SetBusinessMetrics sets the business metrics collector
func (s *StockItemService) SetBusinessMetrics(bm *telemetry.BusinessMetrics) {
	s.businessMetrics = bm
}

// Create takes a vehicle into stock. The media quota is checked in the same
// transaction as the insert, under the quota lock.
func (s *StockItemService) Create(ctx context.Context, req CreateStockItemRequest) (*StockItemResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "stock_item", "create")
	defer span.End()

	item, err := inventory.NewStockItem(inventory.StockItemAttributes{
		Brand:            req.Brand,
		Model:            req.Model,
		Year:             req.Year,
		Plate:            req.Plate,
		Km:               req.Km,
		Color:            req.Color,
		AcquisitionValue: req.AcquisitionValue,
		PromotionValue:   req.PromotionValue,
		VehicleID:        req.VehicleID,
		Notes:            req.Notes,
		AcquiredAt:       req.AcquiredAt,
	}, toMediaList(req.Media))
	if err != nil {
		return nil, err
	}

	err = s.scope.Execute(ctx, func(repos appshared.TransactionalRepositories) error {
		if item.TotalEncodedBytes > 0 {
			if err := s.checkQuota(ctx, repos, item.TotalEncodedBytes, nil); err != nil {
				return err
			}
		}
		if item.VehicleID != nil {
			if _, err := repos.Vehicles().FindByID(ctx, *item.VehicleID); err != nil {
				return appshared.NotFound(err, "vehicle", *item.VehicleID)
			}
		}
		if err := repos.StockItems().Save(ctx, item); err != nil {
			return err
		}
		return s.syncPayable(ctx, repos, item)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, shared.AsInternal(err, "failed to create stock item")
	}

	if item.TotalEncodedBytes > 0 {
		s.refreshQuotaGauge(ctx)
	}
	s.logger.Info("stock item created",
		zap.String("stock_item_id", item.ID.String()),
		zap.Int64("encoded_bytes", item.TotalEncodedBytes),
	)
	resp := ToStockItemResponse(item)
	return &resp, nil
}

// Update applies a partial update. New media is checked against the quota
// with the item's own current bytes excluded.
func (s *StockItemService) Update(ctx context.Context, id uuid.UUID, req UpdateStockItemRequest) (*StockItemResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "stock_item", "update",
		telemetry.WithAttribute("stock_item_id", id.String()))
	defer span.End()

	var item *inventory.StockItem
	err := s.scope.Execute(ctx, func(repos appshared.TransactionalRepositories) error {
		var err error
		item, err = repos.StockItems().FindByIDForUpdate(ctx, id)
		if err != nil {
			return appshared.NotFound(err, "stock item", id)
		}
		previousCost := item.AcquisitionValue

		if err := item.Apply(inventory.StockItemChanges{
			Brand:            req.Brand,
			Model:            req.Model,
			Year:             req.Year,
			Plate:            req.Plate,
			Km:               req.Km,
			Color:            req.Color,
			AcquisitionValue: req.AcquisitionValue,
			PromotionValue:   req.PromotionValue,
			Notes:            req.Notes,
			Media:            toMediaList(req.Media),
		}); err != nil {
			return err
		}

		if req.Media != nil && item.TotalEncodedBytes > 0 {
			if err := s.checkQuota(ctx, repos, item.TotalEncodedBytes, &item.ID); err != nil {
				return err
			}
		}
		if err := repos.StockItems().Save(ctx, item); err != nil {
			return err
		}
		if req.AcquisitionValue != nil && !sameAmount(previousCost, item.AcquisitionValue) {
			return s.syncPayable(ctx, repos, item)
		}
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, shared.AsInternal(err, "failed to update stock item")
	}

	if req.Media != nil {
		s.refreshQuotaGauge(ctx)
	}
	resp := ToStockItemResponse(item)
	return &resp, nil
}

// Delete removes a stock item by hand, together with its still pending
// acquisition payable.
func (s *StockItemService) Delete(ctx context.Context, id uuid.UUID) error {
	ctx, span := telemetry.StartServiceSpan(ctx, "stock_item", "delete",
		telemetry.WithAttribute("stock_item_id", id.String()))
	defer span.End()

	err := s.scope.Execute(ctx, func(repos appshared.TransactionalRepositories) error {
		if _, err := repos.StockItems().FindByIDForUpdate(ctx, id); err != nil {
			return appshared.NotFound(err, "stock item", id)
		}
		if err := repos.StockItems().Delete(ctx, id); err != nil {
			return appshared.NotFound(err, "stock item", id)
		}
		payable, err := repos.Transactions().FindPayableByStockItem(ctx, id)
		if errors.Is(err, shared.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if !payable.IsPending() {
			return nil
		}
		return repos.Transactions().Delete(ctx, payable.ID)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return shared.AsInternal(err, "failed to delete stock item")
	}
	s.logger.Info("stock item deleted", zap.String("stock_item_id", id.String()))
	return nil
}

// GetByID retrieves a live stock item
func (s *StockItemService) GetByID(ctx context.Context, id uuid.UUID) (*StockItemResponse, error) {
	var item *inventory.StockItem
	err := s.scope.Execute(ctx, func(repos appshared.TransactionalRepositories) error {
		var err error
		item, err = repos.StockItems().FindByID(ctx, id)
		return appshared.NotFound(err, "stock item", id)
	})
	if err != nil {
		return nil, shared.AsInternal(err, "failed to load stock item")
	}
	resp := ToStockItemResponse(item)
	return &resp, nil
}

// List lists live stock items with pagination
func (s *StockItemService) List(ctx context.Context, filter StockItemListFilter) ([]StockItemListItemResponse, int64, error) {
	domainFilter := filter.toDomain()

	var (
		items []inventory.StockItem
		total int64
	)
	err := s.scope.Execute(ctx, func(repos appshared.TransactionalRepositories) error {
		var err error
		if items, err = repos.StockItems().FindAll(ctx, domainFilter); err != nil {
			return err
		}
		total, err = repos.StockItems().Count(ctx, domainFilter)
		return err
	})
	if err != nil {
		return nil, 0, shared.AsInternal(err, "failed to list stock items")
	}

	out := make([]StockItemListItemResponse, len(items))
	for i := range items {
		out[i] = ToStockItemListItemResponse(&items[i])
	}
	return out, total, nil
}

// QuotaUsage reports the media storage usage
func (s *StockItemService) QuotaUsage(ctx context.Context) (*QuotaUsageResponse, error) {
	var usage inventory.QuotaUsage
	err := s.scope.Execute(ctx, func(repos appshared.TransactionalRepositories) error {
		var err error
		usage, err = inventory.NewQuotaTracker(repos.StockItems(), s.budget).Usage(ctx)
		return err
	})
	if err != nil {
		return nil, shared.AsInternal(err, "failed to compute quota usage")
	}
	s.businessMetrics.RecordQuotaUsage(ctx, usage.Used, usage.Budget)
	return &QuotaUsageResponse{Used: usage.Used, Budget: usage.Budget, Available: usage.Available}, nil
}

// checkQuota takes the quota lock and verifies that candidate bytes fit
func (s *StockItemService) checkQuota(ctx context.Context, repos appshared.TransactionalRepositories, candidate int64, excluding *uuid.UUID) error {
	if err := repos.StockItems().LockQuota(ctx); err != nil {
		return err
	}
	err := inventory.NewQuotaTracker(repos.StockItems(), s.budget).Check(ctx, candidate, excluding)
	if errors.Is(err, shared.ErrQuota) {
		s.logger.Warn("storage quota exceeded",
			zap.Int64("required", candidate),
			zap.Int64("budget", s.budget),
		)
	}
	return err
}

// refreshQuotaGauge publishes current usage after a media write
func (s *StockItemService) refreshQuotaGauge(ctx context.Context) {
	if s.businessMetrics == nil {
		return
	}
	if _, err := s.QuotaUsage(ctx); err != nil {
		s.logger.Debug("failed to refresh quota gauge", zap.Error(err))
	}
}

// syncPayable keeps the acquisition payable in line with the item's cost.
// Paid payables are never touched.
func (s *StockItemService) syncPayable(ctx context.Context, repos appshared.TransactionalRepositories, item *inventory.StockItem) error {
	description := "Acquisition of " + item.Describe()

	existing, err := repos.Transactions().FindPayableByStockItem(ctx, item.ID)
	switch {
	case errors.Is(err, shared.ErrNotFound):
		if !item.HasAcquisitionCost() {
			return nil
		}
		payable, err := finance.NewPayable(item.ID, description, *item.AcquisitionValue, item.AcquiredAt)
		if err != nil {
			return err
		}
		return repos.Transactions().Save(ctx, payable)
	case err != nil:
		return err
	}

	if !existing.IsPending() {
		s.logger.Info("acquisition payable already paid, leaving it unchanged",
			zap.String("stock_item_id", item.ID.String()),
			zap.String("transaction_id", existing.ID.String()),
		)
		return nil
	}
	if !item.HasAcquisitionCost() {
		return repos.Transactions().Delete(ctx, existing.ID)
	}
	if err := existing.Reschedule(description, *item.AcquisitionValue, existing.DueDate); err != nil {
		return err
	}
	return repos.Transactions().Save(ctx, existing)
}

func sameAmount(a, b *decimal.Decimal) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}
