package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Employee struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	Name         string          `gorm:"type:varchar(255);not null" json:"name"`
	Phone        string          `gorm:"type:varchar(20);uniqueIndex;not null" json:"phone"`
	Role         Role            `gorm:"type:varchar(20);not null;index" json:"role"`
	PasswordHash string          `gorm:"type:varchar(255);not null" json:"-"`
	Active       bool            `gorm:"not null" json:"active"`
	Salary       decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"salary"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// Waiter extends a waiter employee. Exactly one per waiter employee.
type Waiter struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	EmployeeID uint      `gorm:"uniqueIndex;not null" json:"employee_id"`
	Employee   *Employee `gorm:"foreignKey:EmployeeID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"employee,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Chef extends a chef employee. Exactly one per chef employee.
type Chef struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	EmployeeID uint      `gorm:"uniqueIndex;not null" json:"employee_id"`
	Employee   *Employee `gorm:"foreignKey:EmployeeID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"employee,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
