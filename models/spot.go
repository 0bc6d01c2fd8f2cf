package models

import "time"

// Spot is a physical table. An available spot never has a customer.
type Spot struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Label        string    `gorm:"type:varchar(50);not null" json:"label"`
	Availability bool      `gorm:"not null;index" json:"availability"`
	CustomerID   *uint     `gorm:"uniqueIndex" json:"customer_id,omitempty"`
	Customer     *Customer `gorm:"foreignKey:CustomerID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"customer,omitempty"`
	WaiterID     *uint     `gorm:"index" json:"waiter_id,omitempty"`
	Waiter       *Waiter   `gorm:"foreignKey:WaiterID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"-"`
	CreatedAt    time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time `gorm:"not null" json:"updated_at"`
}
