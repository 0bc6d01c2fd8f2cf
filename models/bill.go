package models

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ErrImmutableBill is returned by the hooks that keep bills append-only.
var ErrImmutableBill = errors.New("bills are immutable")

type Bill struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	OrderID      uint            `gorm:"uniqueIndex;not null" json:"order_id"`
	Order        *Order          `gorm:"foreignKey:OrderID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
	Subtotal     decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"subtotal"`
	Tax          decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"tax"`
	FinalAmount  decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"final_amount"`
	PaymentMode  PaymentMode     `gorm:"type:varchar(20);not null" json:"payment_mode"`
	WaiterID     *uint           `gorm:"index" json:"waiter_id,omitempty"`
	PointsEarned int             `gorm:"not null" json:"points_earned"`
	CreatedAt    time.Time       `gorm:"not null" json:"created_at"`
}

func (b *Bill) BeforeUpdate(tx *gorm.DB) error {
	return ErrImmutableBill
}

func (b *Bill) BeforeDelete(tx *gorm.DB) error {
	return ErrImmutableBill
}

// All lists every model in migration order.
func All() []interface{} {
	return []interface{}{
		&Customer{},
		&Employee{},
		&Waiter{},
		&Chef{},
		&Spot{},
		&MenuItem{},
		&Order{},
		&OrderLineItem{},
		&Bill{},
	}
}
