package services

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yeremiapane/table-service/models"
	"github.com/yeremiapane/table-service/utils"
)

// Principal is the authenticated caller of a service method. For customers ID
// is the customer id, for staff it is the employee id.
type Principal struct {
	ID   uint        `json:"id"`
	Role models.Role `json:"role"`
}

// Notifier receives events after the transaction that produced them has
// committed. Implementations must not block.
type Notifier interface {
	SpotChanged(spot models.Spot)
	ItemStatusChanged(item models.OrderLineItem)
	OrderUpdated(order models.Order)
	BillSettled(bill models.Bill)
}

// NopNotifier drops every event.
type NopNotifier struct{}

func (NopNotifier) SpotChanged(models.Spot) {}
func (NopNotifier) ItemStatusChanged(models.OrderLineItem) {}
func (NopNotifier) OrderUpdated(models.Order) {}
func (NopNotifier) BillSettled(models.Bill) {}

// ErrEmptyCart is returned when a cart submission carries no items.
var ErrEmptyCart = utils.InvalidState("empty cart")

// ErrNotSeated is returned when a customer without a spot tries to order.
var ErrNotSeated = utils.InvalidState("not seated")

// lookupErr turns a missing row into NotFound and anything else into a store
// failure.
func lookupErr(err error, msg string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return utils.NotFound(msg)
	}
	return utils.StoreFailure(msg, err)
}

func requireRole(p Principal, allowed ...models.Role) error {
	if p.ID == 0 {
		return utils.Unauthenticated("unauthorized")
	}
	for _, r := range allowed {
		if p.Role == r {
			return nil
		}
	}
	return utils.Forbidden("not authorized")
}

func waiterFor(tx *gorm.DB, employeeID uint) (*models.Waiter, error) {
	var waiter models.Waiter
	if err := tx.Where("employee_id = ?", employeeID).First(&waiter).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.Forbidden("waiter not found")
		}
		return nil, utils.StoreFailure("failed to load waiter", err)
	}
	return &waiter, nil
}

func chefFor(tx *gorm.DB, employeeID uint) (*models.Chef, error) {
	var chef models.Chef
	if err := tx.Where("employee_id = ?", employeeID).First(&chef).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.Forbidden("chef not found")
		}
		return nil, utils.StoreFailure("failed to load chef", err)
	}
	return &chef, nil
}

// spotOfWaiter returns the spot where the customer sits if it is served by
// the waiter.
func spotOfWaiter(tx *gorm.DB, customerID, waiterID uint) (*models.Spot, error) {
	var spot models.Spot
	err := tx.Where("customer_id = ? AND waiter_id = ?", customerID, waiterID).First(&spot).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.Forbidden("not authorized")
		}
		return nil, utils.StoreFailure("failed to load spot", err)
	}
	return &spot, nil
}

// openOrder finds the customer's unpaid order.
func openOrder(tx *gorm.DB, customerID uint) (*models.Order, error) {
	var order models.Order
	err := tx.Where("customer_id = ? AND paid = ?", customerID, false).
		Order("id desc").
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// lockOrder loads an order with its line items and menu prices, holding a row
// lock on the order for the rest of the transaction.
func lockOrder(tx *gorm.DB, orderID uint) (*models.Order, error) {
	var order models.Order
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&order, orderID).Error; err != nil {
		return nil, lookupErr(err, "order not found")
	}
	if err := tx.Preload("MenuItem").Where("order_id = ?", order.ID).
		Order("menu_item_id").Find(&order.LineItems).Error; err != nil {
		return nil, utils.StoreFailure("failed to load order items", err)
	}
	return &order, nil
}
