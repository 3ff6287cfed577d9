package inventory

import (
	"context"

	"github.com/dealership/backend/internal/domain/shared"
	"github.com/google/uuid"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// DefaultStorageBudget is the cap on encoded media bytes held across live stock items
const DefaultStorageBudget int64 = 10 << 30

// UsageReader sums encoded media bytes over live stock items.
// Implementations must read within the caller's transaction so the
// sum and the subsequent write observe the same snapshot.
type UsageReader interface {
	SumEncodedBytes(ctx context.Context, excludingID *uuid.UUID) (int64, error)
}

// QuotaUsage is a point-in-time view of media storage consumption
type QuotaUsage struct {
	Used      int64
	Budget    int64
	Available int64
}

// QuotaTracker decides whether a media write fits in the storage budget
type QuotaTracker struct {
	reader UsageReader
	budget int64
}

// NewQuotaTracker creates a tracker; a non-positive budget selects DefaultStorageBudget
func NewQuotaTracker(reader UsageReader, budget int64) *QuotaTracker {
	if budget <= 0 {
		budget = DefaultStorageBudget
	}
	return &QuotaTracker{reader: reader, budget: budget}
}

// Budget returns the configured byte budget
func (q *QuotaTracker) Budget() int64 {
	return q.budget
}

// TotalUsed sums encoded bytes across live items, optionally skipping one
// (the item being replaced in place).
func (q *QuotaTracker) TotalUsed(ctx context.Context, excludingID *uuid.UUID) (int64, error) {
	return q.reader.SumEncodedBytes(ctx, excludingID)
}

// WouldExceed reports whether adding candidateBytes would overrun the budget
func (q *QuotaTracker) WouldExceed(ctx context.Context, candidateBytes int64, excludingID *uuid.UUID) (bool, error) {
	used, err := q.TotalUsed(ctx, excludingID)
	if err != nil {
		return false, err
	}
	return used+candidateBytes > q.budget, nil
}

// Check returns a QUOTA_EXCEEDED error when candidateBytes does not fit
func (q *QuotaTracker) Check(ctx context.Context, candidateBytes int64, excludingID *uuid.UUID) error {
	used, err := q.TotalUsed(ctx, excludingID)
	if err != nil {
		return err
	}
	if used+candidateBytes > q.budget {
		available := q.budget - used
		if available < 0 {
			available = 0
		}
		return NewQuotaExceededError(available, candidateBytes)
	}
	return nil
}

// Usage reports the current consumption against the budget
func (q *QuotaTracker) Usage(ctx context.Context) (QuotaUsage, error) {
	used, err := q.TotalUsed(ctx, nil)
	if err != nil {
		return QuotaUsage{}, err
	}
	available := q.budget - used
	if available < 0 {
		available = 0
	}
	return QuotaUsage{Used: used, Budget: q.budget, Available: available}, nil
}

var bytePrinter = message.NewPrinter(language.English)

// NewQuotaExceededError builds the validation error returned when media does not fit
func NewQuotaExceededError(available, required int64) *shared.DomainError {
	return &shared.DomainError{
		Code:    shared.CodeQuotaExceeded,
		Field:   "media",
		Message: bytePrinter.Sprintf("storage quota exceeded: %d bytes available, %d bytes required", available, required),
	}
}
