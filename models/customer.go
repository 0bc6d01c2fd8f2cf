package models

import (
	"time"
)

type Customer struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Name          string    `gorm:"type:varchar(100);not null" json:"name"`
	Phone         string    `gorm:"type:varchar(20);uniqueIndex;not null" json:"phone"`
	LoyaltyPoints int       `gorm:"not null" json:"loyalty_points"`
	CreatedAt     time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time `gorm:"not null" json:"updated_at"`
}
