package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/dealership/backend/internal/domain/finance"
	"github.com/dealership/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormFinancialTransactionRepository_Receivables(t *testing.T) {
	db := newSQLiteDB(t)
	repo := NewGormFinancialTransactionRepository(db)
	ctx := context.Background()

	saleID, cashID, finID := uuid.New(), uuid.New(), uuid.New()
	later, err := finance.NewReceivable(saleID, finID, "Sale - bank_financing", decimal.NewFromInt(12000), saleDate.AddDate(0, 1, 0))
	require.NoError(t, err)
	first, err := finance.NewReceivable(saleID, cashID, "Sale - cash", decimal.NewFromInt(15000), saleDate)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, later))
	require.NoError(t, repo.Save(ctx, first))

	list, err := repo.FindBySale(ctx, saleID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, first.ID, list[0].ID, "ordered by due date")

	got, err := repo.FindReceivableByInstrument(ctx, finID)
	require.NoError(t, err)
	assert.Equal(t, later.ID, got.ID)

	// a paid receivable survives the pending cleanup
	require.NoError(t, first.MarkPaid(time.Now()))
	require.NoError(t, repo.Save(ctx, first))
	require.NoError(t, repo.DeletePendingBySale(ctx, saleID))

	list, err = repo.FindBySale(ctx, saleID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, finance.StatusPaid, list[0].Status)
	assert.NotNil(t, list[0].PaidAt)
}

func TestGormFinancialTransactionRepository_DeletePendingByInstrument(t *testing.T) {
	db := newSQLiteDB(t)
	repo := NewGormFinancialTransactionRepository(db)
	ctx := context.Background()

	instrumentID := uuid.New()
	rec, err := finance.NewReceivable(uuid.New(), instrumentID, "Sale - check", decimal.NewFromInt(500), saleDate)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, rec))

	require.NoError(t, repo.DeletePendingByInstrument(ctx, instrumentID))
	_, err = repo.FindReceivableByInstrument(ctx, instrumentID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormFinancialTransactionRepository_Payable(t *testing.T) {
	db := newSQLiteDB(t)
	repo := NewGormFinancialTransactionRepository(db)
	ctx := context.Background()

	stockItemID := uuid.New()
	payable, err := finance.NewPayable(stockItemID, "Acquisition of Toyota Corolla 2020", decimal.NewFromInt(80000), saleDate)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, payable))

	got, err := repo.FindPayableByStockItem(ctx, stockItemID)
	require.NoError(t, err)
	assert.Equal(t, finance.KindPayable, got.Kind)
	assert.True(t, got.Amount.Equal(decimal.NewFromInt(80000)))

	require.NoError(t, got.Reschedule(got.Description, decimal.NewFromInt(82000), got.DueDate))
	require.NoError(t, repo.Save(ctx, got))
	reloaded, err := repo.FindByID(ctx, payable.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.Amount.Equal(decimal.NewFromInt(82000)))

	require.NoError(t, repo.Delete(ctx, payable.ID))
	assert.ErrorIs(t, repo.Delete(ctx, payable.ID), shared.ErrNotFound)
	_, err = repo.FindPayableByStockItem(ctx, stockItemID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
