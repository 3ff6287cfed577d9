package trade

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/dealership/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InstrumentKind identifies how (part of) a sale is paid
type InstrumentKind string

const (
	KindCash            InstrumentKind = "cash"
	KindInstantTransfer InstrumentKind = "instant_transfer"
	KindDebitCard       InstrumentKind = "debit_card"
	KindCreditCard      InstrumentKind = "credit_card"
	KindCheck           InstrumentKind = "check"
	KindBankFinancing   InstrumentKind = "bank_financing"
	KindStoreFinancing  InstrumentKind = "store_financing"
	KindPromissoryNote  InstrumentKind = "promissory_note"
	KindTradeVehicle    InstrumentKind = "trade_vehicle"
)

// IsValid checks if the kind is a known value
func (k InstrumentKind) IsValid() bool {
	switch k {
	case KindCash, KindInstantTransfer, KindDebitCard, KindCreditCard, KindCheck,
		KindBankFinancing, KindStoreFinancing, KindPromissoryNote, KindTradeVehicle:
		return true
	}
	return false
}

// IsCashEquivalent reports whether the kind counts towards the sale's entry amount
func (k InstrumentKind) IsCashEquivalent() bool {
	return k == KindCash || k == KindInstantTransfer
}

// IsFinanced reports whether the kind carries an installment schedule
func (k InstrumentKind) IsFinanced() bool {
	return k == KindBankFinancing || k == KindStoreFinancing || k == KindPromissoryNote
}

// String returns the string representation of InstrumentKind
func (k InstrumentKind) String() string {
	return string(k)
}

// Details is the kind-specific part of a payment instrument.
// Each implementation accepts a fixed set of kinds.
type Details interface {
	accepts(kind InstrumentKind) bool
	validate(amount decimal.Decimal) error
}

// CashDetails carries nothing beyond the amount
type CashDetails struct{}

func (CashDetails) accepts(kind InstrumentKind) bool { return kind == KindCash }
func (CashDetails) validate(_ decimal.Decimal) error { return nil }

// InstantTransferDetails identifies an instant bank transfer
type InstantTransferDetails struct {
	TransferKey string `json:"transfer_key"`
	EndToEndID  string `json:"end_to_end_id,omitempty"`
}

func (InstantTransferDetails) accepts(kind InstrumentKind) bool { return kind == KindInstantTransfer }
func (InstantTransferDetails) validate(_ decimal.Decimal) error { return nil }

// CardDetails describes a debit or credit card charge
type CardDetails struct {
	Brand             string `json:"brand,omitempty"`
	AuthorizationCode string `json:"authorization_code,omitempty"`
	// Installments is the card operator's split, unrelated to the dealership schedule
	Installments int `json:"installments,omitempty"`
}

func (CardDetails) accepts(kind InstrumentKind) bool {
	return kind == KindDebitCard || kind == KindCreditCard
}

func (d CardDetails) validate(_ decimal.Decimal) error {
	if d.Installments < 0 {
		return shared.NewValidationError("details.installments", "must not be negative")
	}
	return nil
}

// CheckDetails describes a paper check
type CheckDetails struct {
	Bank   string `json:"bank"`
	Number string `json:"number"`
	Holder string `json:"holder,omitempty"`
}

func (CheckDetails) accepts(kind InstrumentKind) bool { return kind == KindCheck }

func (d CheckDetails) validate(_ decimal.Decimal) error {
	if strings.TrimSpace(d.Number) == "" {
		return shared.NewValidationError("details.number", "check number is required")
	}
	return nil
}

// FinancingDetails describes bank financing, store financing or a promissory note
type FinancingDetails struct {
	Lender            string           `json:"lender,omitempty"`
	Guarantor         string           `json:"guarantor,omitempty"`
	FinancedAmount    decimal.Decimal  `json:"financed_amount"`
	InstallmentCount  int              `json:"installment_count"`
	Cadence           Cadence          `json:"cadence"`
	InstallmentAmount *decimal.Decimal `json:"installment_amount,omitempty"`
	FirstDueDate      *time.Time       `json:"first_due_date,omitempty"`
	// Installments is stored in its own table
	Installments []Installment `json:"-"`
}

func (*FinancingDetails) accepts(kind InstrumentKind) bool { return kind.IsFinanced() }

func (d *FinancingDetails) validate(amount decimal.Decimal) error {
	if d.FinancedAmount.IsZero() {
		d.FinancedAmount = amount
	}
	if d.FinancedAmount.IsNegative() {
		return shared.NewValidationError("details.financed_amount", "must not be negative")
	}
	if d.InstallmentCount < 0 {
		return shared.NewValidationError("details.installment_count", "must not be negative")
	}
	if d.Cadence == "" {
		d.Cadence = CadenceMonthly
	}
	if !d.Cadence.IsValid() {
		return shared.NewValidationError("details.cadence", "must be monthly or biweekly")
	}
	if d.InstallmentAmount != nil && d.InstallmentAmount.IsNegative() {
		return shared.NewValidationError("details.installment_amount", "must not be negative")
	}
	return nil
}

// DefaultInstallmentAmount is the explicit installment amount, or the
// financed amount split evenly and rounded to cents.
func (d *FinancingDetails) DefaultInstallmentAmount() decimal.Decimal {
	if d.InstallmentAmount != nil {
		return *d.InstallmentAmount
	}
	if d.InstallmentCount <= 0 {
		return decimal.Zero
	}
	return d.FinancedAmount.DivRound(decimal.NewFromInt(int64(d.InstallmentCount)), 2)
}

// TradeVehicleDetails references the customer's vehicle taken as payment
type TradeVehicleDetails struct {
	TradeInID   *uuid.UUID `json:"trade_in_id,omitempty"`
	Description string     `json:"description,omitempty"`
}

func (TradeVehicleDetails) accepts(kind InstrumentKind) bool { return kind == KindTradeVehicle }
func (TradeVehicleDetails) validate(_ decimal.Decimal) error { return nil }

// PaymentInstrument is one way a sale is paid
type PaymentInstrument struct {
	ID        uuid.UUID
	SaleID    uuid.UUID
	Kind      InstrumentKind
	Amount    decimal.Decimal
	Date      time.Time
	Details   Details
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewPaymentInstrument validates a kind/details pair and builds the instrument.
// Kinds without required details get an empty variant when details is nil.
func NewPaymentInstrument(kind InstrumentKind, amount decimal.Decimal, date time.Time, details Details) (*PaymentInstrument, error) {
	p := &PaymentInstrument{
		ID:     uuid.New(),
		Kind:   kind,
		Amount: amount,
		Date:   date,
	}
	if err := p.Change(amount, date, details); err != nil {
		return nil, err
	}
	p.CreatedAt = p.UpdatedAt
	return p, nil
}

// Change replaces the amount, date and details of the instrument
func (p *PaymentInstrument) Change(amount decimal.Decimal, date time.Time, details Details) error {
	if !p.Kind.IsValid() {
		return shared.NewValidationError("kind", fmt.Sprintf("unknown payment instrument kind %q", p.Kind))
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return shared.NewValidationError("amount", "must be positive")
	}
	if date.IsZero() {
		return shared.NewValidationError("date", "is required")
	}
	if details == nil {
		var err error
		if details, err = EmptyDetails(p.Kind); err != nil {
			return err
		}
	}
	if !details.accepts(p.Kind) {
		return shared.NewValidationError("details", fmt.Sprintf("details do not match kind %s", p.Kind))
	}
	if err := details.validate(amount); err != nil {
		return err
	}
	p.Amount = amount
	p.Date = date
	p.Details = details
	p.UpdatedAt = time.Now()
	return nil
}

// Financing returns the financing variant when the instrument has one
func (p *PaymentInstrument) Financing() (*FinancingDetails, bool) {
	d, ok := p.Details.(*FinancingDetails)
	return d, ok
}

// Schedule (re)generates installments for a financed instrument. Unless reset
// is set, edits on the current schedule survive. Non-financed instruments are
// left untouched.
func (p *PaymentInstrument) Schedule(reset bool) error {
	fin, ok := p.Financing()
	if !ok {
		return nil
	}
	existing := fin.Installments
	if reset {
		existing = nil
	}
	anchor := p.Date
	if fin.FirstDueDate != nil {
		anchor = *fin.FirstDueDate
	}
	list, err := GenerateInstallments(anchor, fin.InstallmentCount, fin.Cadence, fin.DefaultInstallmentAmount(), existing)
	if err != nil {
		return err
	}
	for i := range list {
		list[i].InstrumentID = p.ID
	}
	fin.Installments = list
	return nil
}

// Installment returns the installment at index
func (p *PaymentInstrument) Installment(index int) (*Installment, error) {
	fin, ok := p.Financing()
	if !ok {
		return nil, shared.NewValidationError("instrument", fmt.Sprintf("%s instruments have no installments", p.Kind))
	}
	for i := range fin.Installments {
		if fin.Installments[i].Index == index {
			return &fin.Installments[i], nil
		}
	}
	return nil, shared.NewDomainError(shared.CodeNotFound, fmt.Sprintf("installment %d not found", index))
}

// EmptyDetails returns the zero variant for kinds that need no details
func EmptyDetails(kind InstrumentKind) (Details, error) {
	switch kind {
	case KindCash:
		return CashDetails{}, nil
	case KindInstantTransfer:
		return InstantTransferDetails{}, nil
	case KindDebitCard, KindCreditCard:
		return CardDetails{}, nil
	case KindTradeVehicle:
		return TradeVehicleDetails{}, nil
	case KindCheck:
		return nil, shared.NewValidationError("details", "check details are required")
	}
	if kind.IsFinanced() {
		return nil, shared.NewValidationError("details", "financing details are required")
	}
	return nil, shared.NewValidationError("kind", fmt.Sprintf("unknown payment instrument kind %q", kind))
}

// DecodeDetails parses the JSON form of the variant selected by kind
func DecodeDetails(kind InstrumentKind, raw []byte) (Details, error) {
	if len(raw) == 0 || string(raw) == "null" {
		if kind.IsFinanced() {
			return &FinancingDetails{Cadence: CadenceMonthly}, nil
		}
		if kind == KindCheck {
			return CheckDetails{}, nil
		}
		return EmptyDetails(kind)
	}
	var (
		d   Details
		err error
	)
	switch {
	case kind == KindCash:
		d = CashDetails{}
	case kind == KindInstantTransfer:
		var v InstantTransferDetails
		err = json.Unmarshal(raw, &v)
		d = v
	case kind == KindDebitCard || kind == KindCreditCard:
		var v CardDetails
		err = json.Unmarshal(raw, &v)
		d = v
	case kind == KindCheck:
		var v CheckDetails
		err = json.Unmarshal(raw, &v)
		d = v
	case kind.IsFinanced():
		v := &FinancingDetails{}
		err = json.Unmarshal(raw, v)
		d = v
	case kind == KindTradeVehicle:
		var v TradeVehicleDetails
		err = json.Unmarshal(raw, &v)
		d = v
	default:
		return nil, shared.NewValidationError("kind", fmt.Sprintf("unknown payment instrument kind %q", kind))
	}
	if err != nil {
		return nil, shared.NewValidationError("details", fmt.Sprintf("invalid %s details: %v", kind, err))
	}
	return d, nil
}

// EncodeDetails renders the variant as JSON
func EncodeDetails(d Details) ([]byte, error) {
	if d == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(d)
}
