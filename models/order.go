package models

import (
	"fmt"
	"time"
)

type Order struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	CustomerID uint            `gorm:"not null;index" json:"customer_id"`
	Customer   *Customer       `gorm:"foreignKey:CustomerID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"customer,omitempty"`
	Paid       bool            `gorm:"not null;index" json:"paid"`
	BillStatus BillStatus      `gorm:"type:varchar(20);not null" json:"bill_status"`
	LineItems  []OrderLineItem `gorm:"foreignKey:OrderID" json:"line_items"`
	CreatedAt  time.Time       `gorm:"not null;index" json:"created_at"`
	UpdatedAt  time.Time       `gorm:"not null" json:"updated_at"`
}

// AllAtLeast reports whether the order has items and every one of them has
// reached st. LineItems must be loaded.
func (o *Order) AllAtLeast(st KitchenStatus) bool {
	if len(o.LineItems) == 0 {
		return false
	}
	for _, li := range o.LineItems {
		if !li.Status.AtLeast(st) {
			return false
		}
	}
	return true
}

// Reference is the short label printed on dashboards.
func (o *Order) Reference() string {
	return fmt.Sprintf("ORD-%d-%d", o.CustomerID, o.ID)
}

// OrderLineItem is keyed by (order, menu item); adding the same item twice
// overwrites the quantity.
type OrderLineItem struct {
	OrderID    uint          `gorm:"primaryKey;autoIncrement:false" json:"order_id"`
	Order      *Order        `gorm:"foreignKey:OrderID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	MenuItemID uint          `gorm:"primaryKey;autoIncrement:false" json:"menu_item_id"`
	MenuItem   *MenuItem     `gorm:"foreignKey:MenuItemID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"menu_item,omitempty"`
	Quantity   int           `gorm:"not null" json:"quantity"`
	Status     KitchenStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	ChefID     *uint         `gorm:"index" json:"chef_id,omitempty"`
	Chef       *Chef         `gorm:"foreignKey:ChefID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"-"`
	CreatedAt  time.Time     `gorm:"not null" json:"created_at"`
	UpdatedAt  time.Time     `gorm:"not null" json:"updated_at"`
}
