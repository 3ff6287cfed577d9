package models

import (
	"github.com/dealership/backend/internal/domain/partner"
)

// CustomerModel is the persistence model for a customer
type CustomerModel struct {
	BaseModel
	Name     string                 `gorm:"type:varchar(200);not null"`
	Document string                 `gorm:"type:varchar(50);index"`
	Email    string                 `gorm:"type:varchar(200)"`
	Phone    string                 `gorm:"type:varchar(50)"`
	Status   partner.CustomerStatus `gorm:"type:varchar(20);not null;default:'active'"`
}

// TableName returns the table name for GORM
func (CustomerModel) TableName() string {
	return "customers"
}

// ToDomain converts the persistence model to a domain Customer
func (m *CustomerModel) ToDomain() *partner.Customer {
	return &partner.Customer{
		BaseEntity: m.BaseModel.ToDomain(),
		Name:       m.Name,
		Document:   m.Document,
		Email:      m.Email,
		Phone:      m.Phone,
		Status:     m.Status,
	}
}

// CustomerModelFromDomain creates a persistence model from a domain Customer
func CustomerModelFromDomain(c *partner.Customer) *CustomerModel {
	m := &CustomerModel{
		Name:     c.Name,
		Document: c.Document,
		Email:    c.Email,
		Phone:    c.Phone,
		Status:   c.Status,
	}
	m.FromDomainBaseEntity(c.BaseEntity)
	return m
}
