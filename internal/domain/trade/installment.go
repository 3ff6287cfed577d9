package trade

import (
	"sort"
	"time"

	"github.com/dealership/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Cadence is the spacing rule between installment due dates
type Cadence string

const (
	CadenceMonthly  Cadence = "monthly"
	CadenceBiweekly Cadence = "biweekly"
)

// biweeklyStepDays is the fixed interval used by the biweekly cadence
const biweeklyStepDays = 15

// IsValid checks if the cadence is a known value
func (c Cadence) IsValid() bool {
	return c == CadenceMonthly || c == CadenceBiweekly
}

// Installment is one scheduled repayment of a financed instrument
type Installment struct {
	ID             uuid.UUID
	InstrumentID   uuid.UUID
	Index          int
	DueDate        time.Time
	Amount         decimal.Decimal
	DocumentNumber string
	// AmountEdited marks an amount set by hand; regeneration keeps it
	AmountEdited bool
}

// Edit changes a single installment by hand
func (i *Installment) Edit(amount *decimal.Decimal, documentNumber *string) error {
	if amount != nil {
		if amount.IsNegative() {
			return shared.NewValidationError("amount", "must not be negative")
		}
		i.Amount = *amount
		i.AmountEdited = true
	}
	if documentNumber != nil {
		i.DocumentNumber = *documentNumber
	}
	return nil
}

// GenerateInstallments expands a financing into count dated installments.
//
// Installment i falls on anchor + 15*i days (biweekly) or anchor + i calendar
// months (monthly, day-of-month clamped to the target month). Each amount is
// defaultAmount unless the installment at the same index in existing carries
// a hand-edited amount; document numbers in existing are kept likewise.
// Dates are always recomputed. The result is sorted by index and has exactly
// count items; identical inputs produce identical output.
func GenerateInstallments(anchor time.Time, count int, cadence Cadence, defaultAmount decimal.Decimal, existing []Installment) ([]Installment, error) {
	if count < 0 {
		return nil, shared.NewValidationError("installment_count", "must not be negative")
	}
	if !cadence.IsValid() {
		return nil, shared.NewValidationError("cadence", "must be monthly or biweekly")
	}
	if defaultAmount.IsNegative() {
		return nil, shared.NewValidationError("installment_amount", "must not be negative")
	}

	byIndex := make(map[int]Installment, len(existing))
	for _, e := range existing {
		byIndex[e.Index] = e
	}

	start := dateOnly(anchor)
	out := make([]Installment, count)
	for i := 0; i < count; i++ {
		inst := Installment{
			Index:   i,
			DueDate: dueDate(start, i, cadence),
			Amount:  defaultAmount,
		}
		if prev, ok := byIndex[i]; ok {
			inst.ID = prev.ID
			inst.InstrumentID = prev.InstrumentID
			if prev.AmountEdited {
				inst.Amount = prev.Amount
				inst.AmountEdited = true
			}
			inst.DocumentNumber = prev.DocumentNumber
		}
		out[i] = inst
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Index < out[b].Index })
	return out, nil
}

// SumInstallments totals the installment amounts
func SumInstallments(list []Installment) decimal.Decimal {
	total := decimal.Zero
	for _, i := range list {
		total = total.Add(i.Amount)
	}
	return total
}

func dueDate(start time.Time, i int, cadence Cadence) time.Time {
	if cadence == CadenceBiweekly {
		return start.AddDate(0, 0, biweeklyStepDays*i)
	}
	return addMonthsClamped(start, i)
}

// addMonthsClamped advances t by n calendar months keeping the day of month,
// or using the last day when the target month is shorter (Jan 31 -> Feb 29).
func addMonthsClamped(t time.Time, n int) time.Time {
	firstOfTarget := time.Date(t.Year(), t.Month()+time.Month(n), 1, 0, 0, 0, 0, t.Location())
	lastDay := firstOfTarget.AddDate(0, 1, -1).Day()
	day := t.Day()
	if day > lastDay {
		day = lastDay
	}
	return time.Date(firstOfTarget.Year(), firstOfTarget.Month(), day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
