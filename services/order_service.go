package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yeremiapane/table-service/config"
	"github.com/yeremiapane/table-service/models"
	"github.com/yeremiapane/table-service/utils"
)

// CartItem is one (menu item, quantity) pair of a cart submission.
type CartItem struct {
	MenuItemID uint `json:"id"`
	Quantity   int  `json:"quantity"`
}

type OrderService struct {
	db       *gorm.DB
	rules    config.Rules
	notifier Notifier
}

func NewOrderService(db *gorm.DB, rules config.Rules, notifier Notifier) *OrderService {
	return &OrderService{db: db, rules: rules, notifier: notifier}
}

// ApplyCart merges a cart into the customer's open order, creating the order
// when none exists. Quantities overwrite, they do not accumulate. Only a
// customer holding a spot may order.
func (s *OrderService) ApplyCart(ctx context.Context, p Principal, items []CartItem) (*models.Order, error) {
	if p.Role != models.RoleCustomer || p.ID == 0 {
		return nil, utils.Unauthenticated("unauthorized")
	}
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	merged, err := mergeCart(items)
	if err != nil {
		return nil, err
	}

	var order *models.Order
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var customer models.Customer
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&customer, p.ID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return utils.Unauthenticated("unauthorized")
			}
			return utils.StoreFailure("failed to load customer", err)
		}

		var seated int64
		if err := tx.Model(&models.Spot{}).Where("customer_id = ?", customer.ID).Count(&seated).Error; err != nil {
			return utils.StoreFailure("failed to load spot", err)
		}
		if seated == 0 {
			return ErrNotSeated
		}

		var err error
		order, err = openOrder(tx, customer.ID)
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			order = &models.Order{CustomerID: customer.ID, BillStatus: models.BillNone}
			if err := tx.Create(order).Error; err != nil {
				return utils.StoreFailure("failed to create order", err)
			}
		case err != nil:
			return utils.StoreFailure("failed to load order", err)
		case order.BillStatus == models.BillRequested:
			return utils.InvalidState("bill already requested for this order")
		}

		var chefs []models.Chef
		chefsLoaded := false
		for _, item := range merged {
			var menu models.MenuItem
			if err := tx.First(&menu, item.MenuItemID).Error; err != nil {
				return lookupErr(err, fmt.Sprintf("menu item %d not found", item.MenuItemID))
			}
			if !menu.Available {
				return utils.InvalidState(fmt.Sprintf("%s is not available", menu.Name))
			}

			var existing models.OrderLineItem
			err := tx.Where("order_id = ? AND menu_item_id = ?", order.ID, menu.ID).First(&existing).Error
			if err == nil {
				updates := map[string]interface{}{"quantity": item.Quantity}
				// Extra units have not been cooked yet.
				if item.Quantity > existing.Quantity && existing.Status != models.StatusPlaced {
					updates["status"] = models.StatusPlaced
				}
				if err := tx.Model(&existing).Updates(updates).Error; err != nil {
					return utils.StoreFailure("failed to update order item", err)
				}
				continue
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return utils.StoreFailure("failed to load order item", err)
			}

			line := models.OrderLineItem{
				OrderID:    order.ID,
				MenuItemID: menu.ID,
				Quantity:   item.Quantity,
				Status:     models.StatusPlaced,
			}
			if s.rules.ChefAssignment == config.ChefRoundRobin {
				if !chefsLoaded {
					if err := tx.Order("id").Find(&chefs).Error; err != nil {
						return utils.StoreFailure("failed to list chefs", err)
					}
					chefsLoaded = true
				}
				if len(chefs) > 0 {
					chefID := chefs[int(order.ID)%len(chefs)].ID
					line.ChefID = &chefID
				}
			}
			if err := tx.Create(&line).Error; err != nil {
				return utils.StoreFailure("failed to add order item", err)
			}
		}

		var loaded models.Order
		if err := tx.Preload("LineItems", func(db *gorm.DB) *gorm.DB {
			return db.Order("menu_item_id")
		}).Preload("LineItems.MenuItem").First(&loaded, order.ID).Error; err != nil {
			return utils.StoreFailure("failed to reload order", err)
		}
		order = &loaded
		return nil
	})
	if err != nil {
		return nil, err
	}

	utils.InfoLogger.WithFields(logrus.Fields{
		"order_id":    order.ID,
		"customer_id": order.CustomerID,
		"items":       len(order.LineItems),
	}).Info("Cart applied")
	s.notifier.OrderUpdated(*order)
	return order, nil
}

// mergeCart validates quantities and collapses duplicate menu ids, keeping the
// last quantity seen and the first position.
func mergeCart(items []CartItem) ([]CartItem, error) {
	index := make(map[uint]int, len(items))
	merged := make([]CartItem, 0, len(items))
	for _, item := range items {
		if item.MenuItemID == 0 {
			return nil, utils.InvalidState("menu item id is required")
		}
		if item.Quantity <= 0 {
			return nil, utils.InvalidState(fmt.Sprintf("quantity for item %d must be positive", item.MenuItemID))
		}
		if i, ok := index[item.MenuItemID]; ok {
			merged[i].Quantity = item.Quantity
			continue
		}
		index[item.MenuItemID] = len(merged)
		merged = append(merged, item)
	}
	return merged, nil
}

// RemoveItem deletes a line item from the caller's unpaid order. An order
// left without items is deleted when DeleteEmptyOrders is set.
func (s *OrderService) RemoveItem(ctx context.Context, p Principal, orderID, menuItemID uint) error {
	if p.Role != models.RoleCustomer || p.ID == 0 {
		return utils.Unauthenticated("unauthorized")
	}

	orderDeleted := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order models.Order
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND customer_id = ? AND paid = ?", orderID, p.ID, false).
			First(&order).Error
		if err != nil {
			return lookupErr(err, "order not found or not authorized")
		}
		if order.BillStatus == models.BillRequested {
			return utils.InvalidState("bill already requested for this order")
		}

		res := tx.Where("order_id = ? AND menu_item_id = ?", orderID, menuItemID).
			Delete(&models.OrderLineItem{})
		if res.Error != nil {
			return utils.StoreFailure("failed to remove order item", res.Error)
		}
		if res.RowsAffected == 0 {
			return utils.NotFound("item not found in order")
		}

		if !s.rules.DeleteEmptyOrders {
			return nil
		}
		var remaining int64
		if err := tx.Model(&models.OrderLineItem{}).Where("order_id = ?", orderID).Count(&remaining).Error; err != nil {
			return utils.StoreFailure("failed to count order items", err)
		}
		if remaining == 0 {
			if err := tx.Delete(&order).Error; err != nil {
				return utils.StoreFailure("failed to delete empty order", err)
			}
			orderDeleted = true
		}
		return nil
	})
	if err != nil {
		return err
	}

	utils.InfoLogger.WithFields(logrus.Fields{
		"order_id":      orderID,
		"menu_item_id":  menuItemID,
		"order_deleted": orderDeleted,
	}).Info("Order item removed")
	s.notifier.OrderUpdated(models.Order{ID: orderID, CustomerID: p.ID})
	return nil
}

// OpenOrder returns the customer's unpaid order with its line items.
func (s *OrderService) OpenOrder(ctx context.Context, customerID uint) (*models.Order, error) {
	db := s.db.WithContext(ctx)
	order, err := openOrder(db, customerID)
	if err != nil {
		return nil, lookupErr(err, "no open order")
	}
	if err := db.Preload("MenuItem").Where("order_id = ?", order.ID).
		Order("menu_item_id").Find(&order.LineItems).Error; err != nil {
		return nil, utils.StoreFailure("failed to load order items", err)
	}
	return order, nil
}
