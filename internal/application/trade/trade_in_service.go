package trade

import (
	"context"

	appshared "github.com/dealership/backend/internal/application/shared"
	"github.com/dealership/backend/internal/domain/shared"
	"github.com/dealership/backend/internal/domain/trade"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TradeInService registers trade-ins that settlements can later accept
type TradeInService struct {
	scope  appshared.TransactionScope
	logger *zap.Logger
}

// NewTradeInService creates a new TradeInService
func NewTradeInService(scope appshared.TransactionScope, logger *zap.Logger) *TradeInService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TradeInService{scope: scope, logger: logger}
}

// Create registers a pending trade-in for an existing customer
func (s *TradeInService) Create(ctx context.Context, req CreateTradeInRequest) (*TradeInResponse, error) {
	t, err := trade.NewTradeIn(trade.TradeInAttributes{
		CustomerID:     req.CustomerID,
		Brand:          req.Brand,
		Model:          req.Model,
		Year:           req.Year,
		Plate:          req.Plate,
		Km:             req.Km,
		AppraisedValue: req.AppraisedValue,
		Notes:          req.Notes,
	})
	if err != nil {
		return nil, err
	}

	err = s.scope.Execute(ctx, func(repos appshared.TransactionalRepositories) error {
		exists, err := repos.Customers().Exists(ctx, t.CustomerID)
		if err != nil {
			return err
		}
		if !exists {
			return shared.NewNotFoundError("customer", t.CustomerID)
		}
		return repos.TradeIns().Create(ctx, t)
	})
	if err != nil {
		return nil, shared.AsInternal(err, "failed to create trade-in")
	}

	s.logger.Info("trade-in registered",
		zap.String("trade_in_id", t.ID.String()),
		zap.String("customer_id", t.CustomerID.String()),
	)
	resp := ToTradeInResponse(t)
	return &resp, nil
}

// GetByID retrieves a trade-in
func (s *TradeInService) GetByID(ctx context.Context, id uuid.UUID) (*TradeInResponse, error) {
	var t *trade.TradeIn
	err := s.scope.Execute(ctx, func(repos appshared.TransactionalRepositories) error {
		var err error
		t, err = repos.TradeIns().FindByID(ctx, id)
		return appshared.NotFound(err, "trade-in", id)
	})
	if err != nil {
		return nil, shared.AsInternal(err, "failed to load trade-in")
	}
	resp := ToTradeInResponse(t)
	return &resp, nil
}
