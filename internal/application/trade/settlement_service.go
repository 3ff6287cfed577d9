package trade

import (
	"context"
	"errors"
	"fmt"
	"time"

	appshared "github.com/dealership/backend/internal/application/shared"
	"github.com/dealership/backend/internal/domain/finance"
	"github.com/dealership/backend/internal/domain/inventory"
	"github.com/dealership/backend/internal/domain/shared"
	"github.com/dealership/backend/internal/domain/trade"
	"github.com/dealership/backend/internal/domain/vehicle"
	"github.com/dealership/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// DefaultSettlementLockTTL bounds how long a crashed settlement can block its stock item
	DefaultSettlementLockTTL = 30 * time.Second

	// DefaultIdempotencyTTL is how long a settlement Idempotency-Key is remembered
	DefaultIdempotencyTTL = 24 * time.Hour

	settlementLockPrefix        = "settlement:stock-item:"
	settlementIdempotencyPrefix = "settlement:request:"
)

// SettlementConfig tunes settlement serialisation
type SettlementConfig struct {
	LockTTL        time.Duration
	IdempotencyTTL time.Duration
}

// SettlementService retires stock items into sales, presales or transfers
type SettlementService struct {
	scope           appshared.TransactionScope
	locker          appshared.Locker
	idempotency     shared.IdempotencyStore
	cfg             SettlementConfig
	logger          *zap.Logger
	businessMetrics *telemetry.BusinessMetrics
}

// NewSettlementService creates a new SettlementService.
// locker and idempotency may be nil.
func NewSettlementService(
	scope appshared.TransactionScope,
	locker appshared.Locker,
	idempotency shared.IdempotencyStore,
	cfg SettlementConfig,
	logger *zap.Logger,
) *SettlementService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = DefaultSettlementLockTTL
	}
	if cfg.IdempotencyTTL <= 0 {
		cfg.IdempotencyTTL = DefaultIdempotencyTTL
	}
	return &SettlementService{
		scope:       scope,
		locker:      locker,
		idempotency: idempotency,
		cfg:         cfg,
		logger:      logger,
	}
}

// SetBusinessMetrics sets the business metrics collector
func (s *SettlementService) SetBusinessMetrics(bm *telemetry.BusinessMetrics) {
	s.businessMetrics = bm
}

// Settle retires the stock item. Every write happens in one transaction and
// is rolled back as a whole on any failure.
func (s *SettlementService) Settle(ctx context.Context, stockItemID uuid.UUID, req SettleRequest) (*SettlementResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "settlement", "settle",
		telemetry.WithAttribute("stock_item_id", stockItemID.String()),
		telemetry.WithAttribute("exit_kind", string(req.ExitKind)),
	)
	defer span.End()

	logger := s.logger.With(
		zap.String("stock_item_id", stockItemID.String()),
		zap.String("exit_kind", string(req.ExitKind)),
	)

	var (
		result *SettlementResult
		err    error
	)
	start := time.Now()
	telemetry.WithProfilingLabels(ctx, telemetry.OperationLabels("settlement", map[string]string{
		"exit_kind": string(req.ExitKind),
	}), func(ctx context.Context) {
		result, err = s.settle(ctx, stockItemID, req)
	})
	s.businessMetrics.RecordSettlementDuration(ctx, string(req.ExitKind), time.Since(start))
	s.businessMetrics.RecordSettlement(ctx, string(req.ExitKind), telemetry.OutcomeOf(err))
	if err != nil {
		telemetry.RecordError(span, err)
		if shared.IsValidation(err) || errors.Is(err, shared.ErrNotFound) || errors.Is(err, shared.ErrConflict) {
			logger.Info("settlement rejected", zap.Error(err))
		} else {
			logger.Error("settlement failed", zap.Error(err))
		}
		return nil, shared.AsInternal(err, "settlement failed")
	}

	if result.Sale != nil {
		telemetry.SetAttribute(span, "sale_id", result.Sale.ID.String())
		logger.Info("stock item settled",
			zap.String("sale_id", result.Sale.ID.String()),
			zap.String("vehicle_id", result.Vehicle.ID.String()),
			zap.Int("instruments", len(result.Sale.Instruments)),
		)
	} else {
		logger.Info("stock item transferred", zap.String("transfer_id", result.Transfer.ID.String()))
	}
	return result, nil
}

func (s *SettlementService) settle(ctx context.Context, stockItemID uuid.UUID, req SettleRequest) (*SettlementResult, error) {
	if !req.ExitKind.IsValid() {
		return nil, shared.NewValidationError("exit_kind", "must be transfer, sale or presale")
	}

	if req.IdempotencyKey != "" && s.idempotency != nil {
		seen, err := s.idempotency.IsProcessed(ctx, settlementIdempotencyPrefix+req.IdempotencyKey)
		if err != nil {
			return nil, fmt.Errorf("check idempotency key: %w", err)
		}
		if seen {
			return nil, shared.NewConflictError(fmt.Sprintf("settlement request %q was already processed", req.IdempotencyKey))
		}
	}

	release, err := s.lock(ctx, stockItemID)
	if err != nil {
		return nil, err
	}
	defer release()

	var result *SettlementResult
	err = s.scope.Execute(ctx, func(repos appshared.TransactionalRepositories) error {
		item, err := repos.StockItems().FindByIDForUpdate(ctx, stockItemID)
		if err != nil {
			return appshared.NotFound(err, "stock item", stockItemID)
		}
		if req.ExitKind == ExitTransfer {
			result, err = s.transfer(ctx, repos, item, req)
		} else {
			result, err = s.sell(ctx, repos, item, req)
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	if req.IdempotencyKey != "" && s.idempotency != nil {
		if _, err := s.idempotency.MarkProcessed(ctx, settlementIdempotencyPrefix+req.IdempotencyKey, s.cfg.IdempotencyTTL); err != nil {
			s.logger.Warn("failed to remember idempotency key",
				zap.String("idempotency_key", req.IdempotencyKey),
				zap.Error(err),
			)
		}
	}
	return result, nil
}

// lock serialises settlements of one stock item across instances
func (s *SettlementService) lock(ctx context.Context, stockItemID uuid.UUID) (func(), error) {
	if s.locker == nil {
		return func() {}, nil
	}
	held, err := s.locker.Obtain(ctx, settlementLockPrefix+stockItemID.String(), s.cfg.LockTTL)
	if errors.Is(err, appshared.ErrLockNotObtained) {
		return nil, shared.NewConflictError(fmt.Sprintf("stock item %s is being settled by another request", stockItemID))
	}
	if err != nil {
		return nil, fmt.Errorf("obtain settlement lock: %w", err)
	}
	return func() {
		if err := held.Release(context.WithoutCancel(ctx)); err != nil {
			s.logger.Warn("failed to release settlement lock",
				zap.String("stock_item_id", stockItemID.String()),
				zap.Error(err),
			)
		}
	}, nil
}

func (s *SettlementService) transfer(ctx context.Context, repos appshared.TransactionalRepositories, item *inventory.StockItem, req SettleRequest) (*SettlementResult, error) {
	record, err := inventory.NewTransferRecord(item, req.Destination, req.Notes)
	if err != nil {
		return nil, err
	}
	if err := retire(ctx, repos, item.ID); err != nil {
		return nil, err
	}
	if err := repos.Transfers().Save(ctx, record); err != nil {
		return nil, err
	}
	resp := ToTransferResponse(record)
	return &SettlementResult{ExitKind: ExitTransfer, Transfer: &resp}, nil
}

func (s *SettlementService) sell(ctx context.Context, repos appshared.TransactionalRepositories, item *inventory.StockItem, req SettleRequest) (*SettlementResult, error) {
	if req.CustomerID == nil || *req.CustomerID == uuid.Nil {
		return nil, shared.NewValidationError("customer_id", "is required for a sale")
	}
	if req.SellerID == nil || *req.SellerID == uuid.Nil {
		return nil, shared.NewValidationError("seller_id", "is required for a sale")
	}
	exists, err := repos.Customers().Exists(ctx, *req.CustomerID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, shared.NewNotFoundError("customer", *req.CustomerID)
	}

	saleDate := time.Now()
	if req.Date != nil {
		saleDate = *req.Date
	}
	instruments := make([]trade.PaymentInstrument, 0, len(req.Instruments))
	for i, in := range req.Instruments {
		p, err := buildInstrument(in, saleDate)
		if err != nil {
			return nil, withInstrumentIndex(err, i)
		}
		if err := p.Schedule(false); err != nil {
			return nil, withInstrumentIndex(err, i)
		}
		instruments = append(instruments, *p)
	}

	v, created, err := resolveVehicle(ctx, repos, item)
	if err != nil {
		return nil, err
	}
	v.ApplyPricing(vehicle.Pricing{
		SalePrice:       req.SaleValue,
		AcquisitionCost: item.AcquisitionValue,
		TableValue:      req.TableValue,
	})
	status := trade.SaleStatusCompleted
	if req.ExitKind == ExitPresale {
		status = trade.SaleStatusInProgress
		err = v.Reserve(*req.CustomerID)
	} else {
		err = v.Sell(*req.CustomerID)
	}
	if err != nil {
		return nil, err
	}
	if created {
		err = repos.Vehicles().Create(ctx, v)
	} else {
		err = repos.Vehicles().Update(ctx, v)
	}
	if err != nil {
		return nil, err
	}

	purchasePrice := item.AcquisitionValue
	if purchasePrice == nil {
		purchasePrice = v.AcquisitionCost
	}
	sale, err := trade.NewSale(trade.NewSaleParams{
		CustomerID:     *req.CustomerID,
		VehicleID:      v.ID,
		SellerID:       *req.SellerID,
		TradeInID:      req.TradeInID,
		SalePrice:      req.SaleValue,
		PurchasePrice:  purchasePrice,
		DiscountAmount: req.DiscountAmount,
		TableValue:     req.TableValue,
		Status:         status,
		Date:           saleDate,
		Notes:          req.Notes,
	})
	if err != nil {
		return nil, err
	}
	sale.AttachInstruments(instruments)
	if err := repos.Sales().Create(ctx, sale); err != nil {
		return nil, err
	}

	if req.TradeInID != nil {
		if err := acceptTradeIn(ctx, repos, *req.TradeInID); err != nil {
			return nil, err
		}
	}

	label := vehicleLabel(v)
	for i := range sale.Instruments {
		in := &sale.Instruments[i]
		if err := repos.Instruments().Save(ctx, in); err != nil {
			return nil, err
		}
		if err := upsertReceivable(ctx, repos, sale.ID, in, label); err != nil {
			return nil, err
		}
	}

	if err := retire(ctx, repos, item.ID); err != nil {
		return nil, err
	}

	saleResp := ToSaleResponse(sale)
	vehicleResp := ToVehicleResponse(v)
	return &SettlementResult{ExitKind: req.ExitKind, Sale: &saleResp, Vehicle: &vehicleResp}, nil
}

// GetVehicle retrieves a vehicle
func (s *SettlementService) GetVehicle(ctx context.Context, id uuid.UUID) (*VehicleResponse, error) {
	var v *vehicle.Vehicle
	err := s.scope.Execute(ctx, func(repos appshared.TransactionalRepositories) error {
		var err error
		v, err = repos.Vehicles().FindByID(ctx, id)
		return appshared.NotFound(err, "vehicle", id)
	})
	if err != nil {
		return nil, shared.AsInternal(err, "failed to load vehicle")
	}
	resp := ToVehicleResponse(v)
	return &resp, nil
}

// GetTransfer retrieves a transfer record
func (s *SettlementService) GetTransfer(ctx context.Context, id uuid.UUID) (*TransferResponse, error) {
	var record *inventory.TransferRecord
	err := s.scope.Execute(ctx, func(repos appshared.TransactionalRepositories) error {
		var err error
		record, err = repos.Transfers().FindByID(ctx, id)
		return appshared.NotFound(err, "transfer", id)
	})
	if err != nil {
		return nil, shared.AsInternal(err, "failed to load transfer")
	}
	resp := ToTransferResponse(record)
	return &resp, nil
}

// resolveVehicle finds the vehicle a stock item is sold as: the explicitly
// linked one, else an unclaimed sellable vehicle with the same brand, model,
// year and plate, else a new vehicle seeded from the item. created reports
// the last case. A vehicle held for a customer is never taken over.
func resolveVehicle(ctx context.Context, repos appshared.TransactionalRepositories, item *inventory.StockItem) (v *vehicle.Vehicle, created bool, err error) {
	if item.VehicleID != nil {
		v, err = repos.Vehicles().FindByIDForUpdate(ctx, *item.VehicleID)
		if err != nil {
			return nil, false, appshared.NotFound(err, "vehicle", *item.VehicleID)
		}
		if !v.Status.IsSellable() {
			return nil, false, shared.NewInvalidStateError(fmt.Sprintf("linked vehicle %s is %s", v.ID, v.Status))
		}
		if !v.Claimable() {
			return nil, false, shared.NewInvalidStateError(fmt.Sprintf("linked vehicle %s is %s for another sale", v.ID, v.Status))
		}
		return v, false, nil
	}

	if item.Plate != "" {
		v, err = repos.Vehicles().FindSellableMatch(ctx, vehicle.MatchCriteria{
			Brand: item.Brand,
			Model: item.Model,
			Year:  item.Year,
			Plate: item.Plate,
		})
		if err == nil {
			return v, false, nil
		}
		if !errors.Is(err, shared.ErrNotFound) {
			return nil, false, err
		}
	}
	return vehicle.NewFromStockItem(item), true, nil
}

func acceptTradeIn(ctx context.Context, repos appshared.TransactionalRepositories, id uuid.UUID) error {
	tradeIn, err := repos.TradeIns().FindByIDForUpdate(ctx, id)
	if err != nil {
		return appshared.NotFound(err, "trade-in", id)
	}
	if err := tradeIn.Accept(); err != nil {
		return err
	}
	return repos.TradeIns().Update(ctx, tradeIn)
}

// retire deletes the consumed stock item. A missing row means a concurrent
// settlement got there first.
func retire(ctx context.Context, repos appshared.TransactionalRepositories, id uuid.UUID) error {
	err := repos.StockItems().Delete(ctx, id)
	if errors.Is(err, shared.ErrNotFound) {
		return shared.NewConflictError(fmt.Sprintf("stock item %s was consumed by another settlement", id))
	}
	return err
}

// upsertReceivable keeps one receivable per instrument in line with it.
// Paid receivables are left alone.
func upsertReceivable(ctx context.Context, repos appshared.TransactionalRepositories, saleID uuid.UUID, in *trade.PaymentInstrument, label string) error {
	description := fmt.Sprintf("%s - %s", label, in.Kind)

	existing, err := repos.Transactions().FindReceivableByInstrument(ctx, in.ID)
	if errors.Is(err, shared.ErrNotFound) {
		ft, err := finance.NewReceivable(saleID, in.ID, description, in.Amount, in.Date)
		if err != nil {
			return err
		}
		return repos.Transactions().Save(ctx, ft)
	}
	if err != nil {
		return err
	}
	if !existing.IsPending() {
		return nil
	}
	if err := existing.Reschedule(description, in.Amount, in.Date); err != nil {
		return err
	}
	return repos.Transactions().Save(ctx, existing)
}

func vehicleLabel(v *vehicle.Vehicle) string {
	label := fmt.Sprintf("%s %s %d", v.Brand, v.Model, v.Year)
	if v.Plate != "" {
		label += " (" + v.Plate + ")"
	}
	return label
}

// withInstrumentIndex prefixes a validation field with the instrument position
func withInstrumentIndex(err error, i int) error {
	var de *shared.DomainError
	if !errors.As(err, &de) || de.Code != shared.CodeValidation {
		return err
	}
	field := fmt.Sprintf("payment_instruments[%d]", i)
	if de.Field != "" {
		field += "." + de.Field
	}
	return shared.NewValidationError(field, de.Message)
}
