package trade

import (
	"context"
	"fmt"

	appshared "github.com/dealership/backend/internal/application/shared"
	"github.com/dealership/backend/internal/domain/finance"
	"github.com/dealership/backend/internal/domain/shared"
	"github.com/dealership/backend/internal/domain/trade"
	"github.com/dealership/backend/internal/domain/vehicle"
	"github.com/dealership/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// SaleService handles reads and changes to existing sales
type SaleService struct {
	scope  appshared.TransactionScope
	logger *zap.Logger
}

// NewSaleService creates a new SaleService
func NewSaleService(scope appshared.TransactionScope, logger *zap.Logger) *SaleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SaleService{scope: scope, logger: logger}
}

// GetByID retrieves a sale with its instruments and installments
func (s *SaleService) GetByID(ctx context.Context, id uuid.UUID) (*SaleResponse, error) {
	var sale *trade.Sale
	err := s.scope.Execute(ctx, func(repos appshared.TransactionalRepositories) error {
		var err error
		sale, err = repos.Sales().FindByID(ctx, id)
		return appshared.NotFound(err, "sale", id)
	})
	if err != nil {
		return nil, shared.AsInternal(err, "failed to load sale")
	}
	resp := ToSaleResponse(sale)
	return &resp, nil
}

// List lists sales with pagination
func (s *SaleService) List(ctx context.Context, filter SaleListFilter) ([]SaleListItemResponse, int64, error) {
	domainFilter, err := filter.toDomain()
	if err != nil {
		return nil, 0, err
	}

	var (
		sales []trade.Sale
		total int64
	)
	err = s.scope.Execute(ctx, func(repos appshared.TransactionalRepositories) error {
		var err error
		if sales, err = repos.Sales().FindAll(ctx, domainFilter); err != nil {
			return err
		}
		total, err = repos.Sales().Count(ctx, domainFilter)
		return err
	})
	if err != nil {
		return nil, 0, shared.AsInternal(err, "failed to list sales")
	}

	out := make([]SaleListItemResponse, len(sales))
	for i := range sales {
		out[i] = ToSaleListItemResponse(&sales[i])
	}
	return out, total, nil
}

// Transactions lists the financial transactions emitted for a sale
func (s *SaleService) Transactions(ctx context.Context, saleID uuid.UUID) ([]FinancialTransactionResponse, error) {
	var list []finance.FinancialTransaction
	err := s.scope.Execute(ctx, func(repos appshared.TransactionalRepositories) error {
		if _, err := repos.Sales().FindByID(ctx, saleID); err != nil {
			return appshared.NotFound(err, "sale", saleID)
		}
		var err error
		list, err = repos.Transactions().FindBySale(ctx, saleID)
		return err
	})
	if err != nil {
		return nil, shared.AsInternal(err, "failed to list sale transactions")
	}

	out := make([]FinancialTransactionResponse, len(list))
	for i := range list {
		out[i] = ToFinancialTransactionResponse(&list[i])
	}
	return out, nil
}

// Update applies a partial update to a sale. Profit is always recomputed and
// a supplied instrument list replaces the current one by id.
func (s *SaleService) Update(ctx context.Context, id uuid.UUID, req UpdateSaleRequest) (*SaleResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "sale", "update",
		telemetry.WithAttribute("sale_id", id.String()))
	defer span.End()

	var sale *trade.Sale
	err := s.scope.Execute(ctx, func(repos appshared.TransactionalRepositories) error {
		var err error
		sale, err = repos.Sales().FindByIDForUpdate(ctx, id)
		if err != nil {
			return appshared.NotFound(err, "sale", id)
		}
		if req.Version != nil {
			if err := sale.ExpectVersion(*req.Version); err != nil {
				return err
			}
		}
		v, err := repos.Vehicles().FindByIDForUpdate(ctx, sale.VehicleID)
		if err != nil {
			return appshared.NotFound(err, "vehicle", sale.VehicleID)
		}

		if err := s.applyChanges(sale, v, req); err != nil {
			return err
		}
		vehicleChanged := req.SalePrice != nil || req.TableValue != nil
		if vehicleChanged {
			v.ApplyPricing(vehicle.Pricing{SalePrice: req.SalePrice, TableValue: req.TableValue})
		}

		if req.Status != nil {
			completed, err := completeIfRequested(sale, v, trade.SaleStatus(*req.Status))
			if err != nil {
				return err
			}
			vehicleChanged = vehicleChanged || completed
		}
		if vehicleChanged {
			if err := repos.Vehicles().Update(ctx, v); err != nil {
				return err
			}
		}

		switch {
		case req.Instruments != nil:
			if err := s.replaceInstruments(ctx, repos, sale, v, req.Instruments, req.ResetSchedule); err != nil {
				return err
			}
		case req.ResetSchedule:
			if err := s.resetSchedules(ctx, repos, sale); err != nil {
				return err
			}
		}

		return repos.Sales().Update(ctx, sale)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, shared.AsInternal(err, "failed to update sale")
	}

	s.logger.Info("sale updated",
		zap.String("sale_id", sale.ID.String()),
		zap.Int("version", sale.Version),
	)
	resp := ToSaleResponse(sale)
	return &resp, nil
}

func (s *SaleService) applyChanges(sale *trade.Sale, v *vehicle.Vehicle, req UpdateSaleRequest) error {
	salePrice := sale.SalePrice
	if req.SalePrice != nil {
		salePrice = req.SalePrice
	}
	purchasePrice := req.PurchasePrice
	if purchasePrice == nil {
		purchasePrice = sale.PurchasePrice
	}
	if purchasePrice == nil {
		purchasePrice = v.AcquisitionCost
	}
	for _, f := range []struct {
		name  string
		value *decimal.Decimal
	}{
		{"sale_price", req.SalePrice},
		{"purchase_price", req.PurchasePrice},
		{"discount_amount", req.DiscountAmount},
		{"table_value", req.TableValue},
	} {
		if f.value != nil && f.value.IsNegative() {
			return shared.NewValidationError(f.name, "must not be negative")
		}
	}
	sale.SetPrices(salePrice, purchasePrice)

	if req.DiscountAmount != nil {
		sale.DiscountAmount = req.DiscountAmount
	}
	if req.TableValue != nil {
		sale.TableValue = req.TableValue
	}
	if req.SellerID != nil {
		if *req.SellerID == uuid.Nil {
			return shared.NewValidationError("seller_id", "must not be empty")
		}
		sale.SellerID = *req.SellerID
	}
	if req.Date != nil {
		sale.Date = *req.Date
	}
	if req.Notes != nil {
		sale.Notes = *req.Notes
	}
	return nil
}

// completeIfRequested moves a presale to completed and its vehicle to sold.
// It reports whether the vehicle changed.
func completeIfRequested(sale *trade.Sale, v *vehicle.Vehicle, target trade.SaleStatus) (bool, error) {
	if target == sale.Status {
		return false, nil
	}
	if target != trade.SaleStatusCompleted {
		return false, shared.NewInvalidStateError(fmt.Sprintf("sale %s cannot move from %s to %s", sale.ID, sale.Status, target))
	}
	if err := sale.Complete(); err != nil {
		return false, err
	}
	if err := v.Sell(sale.CustomerID); err != nil {
		return false, err
	}
	return true, nil
}

// replaceInstruments makes inputs the sale's complete instrument set.
// Inputs with an id update that instrument in place and keep its schedule
// edits; inputs without one are created; instruments not mentioned are
// deleted along with their installments and pending receivables.
func (s *SaleService) replaceInstruments(ctx context.Context, repos appshared.TransactionalRepositories, sale *trade.Sale, v *vehicle.Vehicle, inputs []PaymentInstrumentInput, reset bool) error {
	current := make(map[uuid.UUID]*trade.PaymentInstrument, len(sale.Instruments))
	for i := range sale.Instruments {
		current[sale.Instruments[i].ID] = &sale.Instruments[i]
	}

	next := make([]trade.PaymentInstrument, 0, len(inputs))
	for i, in := range inputs {
		var (
			p   *trade.PaymentInstrument
			err error
		)
		if in.ID != nil {
			p, err = reviseInstrument(current, in, sale)
			if err == nil {
				delete(current, *in.ID)
			}
		} else {
			p, err = buildInstrument(in, sale.Date)
		}
		if err != nil {
			return withInstrumentIndex(err, i)
		}
		if err := p.Schedule(reset); err != nil {
			return withInstrumentIndex(err, i)
		}
		next = append(next, *p)
	}

	for id := range current {
		if err := repos.Transactions().DeletePendingByInstrument(ctx, id); err != nil {
			return err
		}
		if err := repos.Instruments().Delete(ctx, id); err != nil {
			return err
		}
		s.logger.Debug("payment instrument removed",
			zap.String("sale_id", sale.ID.String()),
			zap.String("instrument_id", id.String()),
		)
	}

	sale.AttachInstruments(next)
	label := vehicleLabel(v)
	for i := range sale.Instruments {
		in := &sale.Instruments[i]
		if err := repos.Instruments().Save(ctx, in); err != nil {
			return err
		}
		if err := upsertReceivable(ctx, repos, sale.ID, in, label); err != nil {
			return err
		}
	}
	return nil
}

// reviseInstrument applies an input to the existing instrument it names.
// A financed instrument that stays financed carries its installments over
// so the schedule merge can keep edits.
func reviseInstrument(current map[uuid.UUID]*trade.PaymentInstrument, in PaymentInstrumentInput, sale *trade.Sale) (*trade.PaymentInstrument, error) {
	p, ok := current[*in.ID]
	if !ok {
		return nil, shared.NewNotFoundError("payment instrument", *in.ID)
	}
	kind := trade.InstrumentKind(in.Kind)
	details, err := trade.DecodeDetails(kind, in.Details)
	if err != nil {
		return nil, err
	}
	if previous, ok := p.Financing(); ok {
		if fin, ok := details.(*trade.FinancingDetails); ok {
			fin.Installments = previous.Installments
		}
	}
	p.Kind = kind
	if err := p.Change(in.Amount, instrumentDate(in, p.Date), details); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *SaleService) resetSchedules(ctx context.Context, repos appshared.TransactionalRepositories, sale *trade.Sale) error {
	for i := range sale.Instruments {
		in := &sale.Instruments[i]
		if !in.Kind.IsFinanced() {
			continue
		}
		if err := in.Schedule(true); err != nil {
			return err
		}
		if err := repos.Instruments().Save(ctx, in); err != nil {
			return err
		}
	}
	return nil
}

// UpdateInstallment edits one installment by hand. The edit survives later
// schedule regeneration unless a reset is requested.
func (s *SaleService) UpdateInstallment(ctx context.Context, saleID, instrumentID uuid.UUID, index int, req UpdateInstallmentRequest) (*SaleResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "sale", "update_installment",
		telemetry.WithAttribute("sale_id", saleID.String()),
		telemetry.WithAttribute("instrument_id", instrumentID.String()),
	)
	defer span.End()

	var sale *trade.Sale
	err := s.scope.Execute(ctx, func(repos appshared.TransactionalRepositories) error {
		var err error
		sale, err = repos.Sales().FindByIDForUpdate(ctx, saleID)
		if err != nil {
			return appshared.NotFound(err, "sale", saleID)
		}
		in, err := sale.Instrument(instrumentID)
		if err != nil {
			return err
		}
		inst, err := in.Installment(index)
		if err != nil {
			return err
		}
		if err := inst.Edit(req.Amount, req.DocumentNumber); err != nil {
			return err
		}
		if err := repos.Instruments().SaveInstallment(ctx, inst); err != nil {
			return err
		}
		sale.Touch()
		return repos.Sales().Update(ctx, sale)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, shared.AsInternal(err, "failed to update installment")
	}
	resp := ToSaleResponse(sale)
	return &resp, nil
}

// Delete removes a sale. Its vehicle goes back to available with no
// customer, and instruments, installments and pending receivables go with it.
// A vehicle that is now held for a different customer is left alone.
func (s *SaleService) Delete(ctx context.Context, id uuid.UUID) error {
	ctx, span := telemetry.StartServiceSpan(ctx, "sale", "delete",
		telemetry.WithAttribute("sale_id", id.String()))
	defer span.End()

	err := s.scope.Execute(ctx, func(repos appshared.TransactionalRepositories) error {
		sale, err := repos.Sales().FindByIDForUpdate(ctx, id)
		if err != nil {
			return appshared.NotFound(err, "sale", id)
		}
		v, err := repos.Vehicles().FindByIDForUpdate(ctx, sale.VehicleID)
		if err != nil {
			return appshared.NotFound(err, "vehicle", sale.VehicleID)
		}
		if v.Status != vehicle.StatusAvailable && v.HeldBy(sale.CustomerID) {
			if err := v.Release(); err != nil {
				return err
			}
			if err := repos.Vehicles().Update(ctx, v); err != nil {
				return err
			}
		}
		if err := repos.Transactions().DeletePendingBySale(ctx, sale.ID); err != nil {
			return err
		}
		if err := repos.Instruments().DeleteBySale(ctx, sale.ID); err != nil {
			return err
		}
		return repos.Sales().Delete(ctx, sale.ID)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return shared.AsInternal(err, "failed to delete sale")
	}
	s.logger.Info("sale deleted", zap.String("sale_id", id.String()))
	return nil
}
