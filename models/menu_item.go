package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type MenuItem struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	Name            string          `gorm:"type:varchar(255);not null" json:"name"`
	Category        string          `gorm:"type:varchar(50);not null;index" json:"category"`
	Price           decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	PrepTimeMinutes int             `gorm:"not null" json:"prep_time_minutes"`
	Available       bool            `gorm:"not null;index" json:"available"`
	Allergens       string          `gorm:"type:varchar(255)" json:"allergens,omitempty"`
	Description     string          `gorm:"type:text" json:"description,omitempty"`
	ImageRef        *string         `gorm:"type:varchar(255)" json:"image_ref,omitempty"`
	CreatedAt       time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"not null" json:"updated_at"`
}
