package models

import "fmt"

// KitchenStatus is the per line item progression through the kitchen.
type KitchenStatus string

const (
	StatusPlaced    KitchenStatus = "placed"
	StatusCooking   KitchenStatus = "cooking"
	StatusCooked    KitchenStatus = "cooked"
	StatusDelivered KitchenStatus = "delivered"
	StatusBilled    KitchenStatus = "billed"
)

var kitchenSequence = []KitchenStatus{
	StatusPlaced,
	StatusCooking,
	StatusCooked,
	StatusDelivered,
	StatusBilled,
}

// ParseKitchenStatus validates a status coming from a request.
func ParseKitchenStatus(s string) (KitchenStatus, error) {
	st := KitchenStatus(s)
	if st.Rank() < 0 {
		return "", fmt.Errorf("unknown kitchen status %q", s)
	}
	return st, nil
}

// Rank is the position of s in the kitchen sequence, -1 when unknown.
func (s KitchenStatus) Rank() int {
	for i, st := range kitchenSequence {
		if st == s {
			return i
		}
	}
	return -1
}

// AtLeast reports whether s is o or any later status.
func (s KitchenStatus) AtLeast(o KitchenStatus) bool {
	return s.Rank() >= o.Rank()
}

// StatusColor is the dashboard badge colour for s.
func (s KitchenStatus) StatusColor() string {
	switch s {
	case StatusPlaced:
		return "warning"
	case StatusCooking:
		return "info"
	case StatusCooked:
		return "success"
	case StatusDelivered:
		return "primary"
	default:
		return "secondary"
	}
}

// BillStatus tracks the request/approval of an order's bill.
type BillStatus string

const (
	BillNone      BillStatus = "none"
	BillRequested BillStatus = "requested"
	BillPaid      BillStatus = "paid"
)

// PaymentMode is a label stored on the bill. No gateway sits behind it.
type PaymentMode string

const (
	PaymentCash   PaymentMode = "cash"
	PaymentCard   PaymentMode = "card"
	PaymentOnline PaymentMode = "online"
)

// ParsePaymentMode defaults an empty mode to online.
func ParsePaymentMode(s string) (PaymentMode, error) {
	switch PaymentMode(s) {
	case "":
		return PaymentOnline, nil
	case PaymentCash, PaymentCard, PaymentOnline:
		return PaymentMode(s), nil
	default:
		return "", fmt.Errorf("unknown payment mode %q", s)
	}
}
