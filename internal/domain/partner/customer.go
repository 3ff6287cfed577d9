package partner

import (
	"strings"

	"github.com/dealership/backend/internal/domain/shared"
)

// CustomerStatus represents the status of a customer
type CustomerStatus string

const (
	CustomerStatusActive   CustomerStatus = "active"
	CustomerStatusInactive CustomerStatus = "inactive"
)

// Customer is the buyer a sale is made to. Customers are managed elsewhere;
// this context only needs to confirm they exist.
type Customer struct {
	shared.BaseEntity
	Name     string
	Document string
	Email    string
	Phone    string
	Status   CustomerStatus
}

// NewCustomer creates an active customer
func NewCustomer(name, document string) (*Customer, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewValidationError("name", "is required")
	}
	return &Customer{
		BaseEntity: shared.NewBaseEntity(),
		Name:       name,
		Document:   strings.TrimSpace(document),
		Status:     CustomerStatusActive,
	}, nil
}
