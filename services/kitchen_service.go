package services

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/yeremiapane/table-service/config"
	"github.com/yeremiapane/table-service/models"
	"github.com/yeremiapane/table-service/utils"
)

// QueueItem is a line item waiting in the kitchen.
type QueueItem struct {
	OrderID         uint                 `json:"order_id"`
	OrderReference  string               `json:"order_reference"`
	MenuItemID      uint                 `json:"menu_item_id"`
	ItemName        string               `json:"item_name"`
	PrepTimeMinutes int                  `json:"prep_time_minutes"`
	Quantity        int                  `json:"quantity"`
	Status          models.KitchenStatus `json:"status"`
	StatusColor     string               `json:"status_color"`
	ChefID          *uint                `json:"chef_id,omitempty"`
	CustomerName    string               `json:"customer_name"`
	OrderedAt       time.Time            `json:"ordered_at"`
}

type KitchenService struct {
	db       *gorm.DB
	rules    config.Rules
	notifier Notifier
}

func NewKitchenService(db *gorm.DB, rules config.Rules, notifier Notifier) *KitchenService {
	return &KitchenService{db: db, rules: rules, notifier: notifier}
}

// UpdateItemStatus moves one line item through the kitchen sequence on behalf
// of a waiter, chef or admin.
func (s *KitchenService) UpdateItemStatus(ctx context.Context, p Principal, orderID, menuItemID uint, status models.KitchenStatus) (*models.OrderLineItem, error) {
	if p.ID == 0 {
		return nil, utils.Unauthenticated("unauthorized")
	}
	if status.Rank() < 0 {
		return nil, utils.InvalidState(fmt.Sprintf("unknown kitchen status %q", status))
	}
	if status == models.StatusBilled {
		return nil, utils.InvalidState("billed is set by settlement only")
	}

	var line models.OrderLineItem
	var from models.KitchenStatus
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.First(&order, orderID).Error; err != nil {
			return lookupErr(err, "order not found")
		}
		if err := tx.Where("order_id = ? AND menu_item_id = ?", orderID, menuItemID).First(&line).Error; err != nil {
			return lookupErr(err, "item not found in order")
		}

		claimant, err := s.authorize(tx, p, &order, &line)
		if err != nil {
			return err
		}
		if order.Paid {
			return utils.InvalidState("order already paid")
		}
		if err := s.checkTransition(line.Status, status); err != nil {
			return err
		}

		from = line.Status
		updates := map[string]interface{}{"status": status}
		if claimant != nil && line.ChefID == nil {
			updates["chef_id"] = *claimant
		}
		// Guarded on the old status: of two concurrent transitions one loses.
		res := tx.Model(&models.OrderLineItem{}).
			Where("order_id = ? AND menu_item_id = ? AND status = ?", orderID, menuItemID, line.Status).
			Updates(updates)
		if res.Error != nil {
			return utils.StoreFailure("failed to update item status", res.Error)
		}
		if res.RowsAffected == 0 {
			return utils.Conflict("item status changed concurrently, please reload")
		}
		line.Status = status
		if chefID, ok := updates["chef_id"].(uint); ok {
			line.ChefID = &chefID
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	utils.InfoLogger.WithFields(logrus.Fields{
		"order_id":     orderID,
		"menu_item_id": menuItemID,
		"from":         from,
		"to":           status,
		"role":         p.Role,
	}).Info("Item status updated")
	s.notifier.ItemStatusChanged(line)
	return &line, nil
}

// authorize checks that p may touch the item. For a chef it returns the chef
// id so an unassigned item can be claimed.
func (s *KitchenService) authorize(tx *gorm.DB, p Principal, order *models.Order, line *models.OrderLineItem) (*uint, error) {
	switch p.Role {
	case models.RoleAdmin:
		return nil, nil
	case models.RoleWaiter:
		waiter, err := waiterFor(tx, p.ID)
		if err != nil {
			return nil, err
		}
		if _, err := spotOfWaiter(tx, order.CustomerID, waiter.ID); err != nil {
			return nil, err
		}
		return nil, nil
	case models.RoleChef:
		chef, err := chefFor(tx, p.ID)
		if err != nil {
			return nil, err
		}
		if line.ChefID != nil && *line.ChefID != chef.ID {
			return nil, utils.Forbidden("item is assigned to another chef")
		}
		return &chef.ID, nil
	case models.RoleCustomer:
		return nil, utils.Forbidden("customers cannot change kitchen status")
	default:
		return nil, utils.Unauthenticated("unauthorized")
	}
}

func (s *KitchenService) checkTransition(from, to models.KitchenStatus) error {
	switch {
	case from == models.StatusBilled:
		return utils.InvalidState("item already billed")
	case to == from:
		return utils.InvalidState(fmt.Sprintf("item is already %s", to))
	case to.Rank() < from.Rank() && !s.rules.AllowBackwardStatus:
		return utils.InvalidState(fmt.Sprintf("cannot move item from %s back to %s", from, to))
	}
	return nil
}

// ChefQueue lists items still to be cooked, oldest first. Chefs see their own
// items plus unassigned ones, admins see everything.
func (s *KitchenService) ChefQueue(ctx context.Context, p Principal) ([]QueueItem, error) {
	db := s.db.WithContext(ctx)
	q := db.Preload("MenuItem").Preload("Order.Customer").
		Where("status IN ?", []models.KitchenStatus{models.StatusPlaced, models.StatusCooking})

	switch p.Role {
	case models.RoleAdmin:
	case models.RoleChef:
		chef, err := chefFor(db, p.ID)
		if err != nil {
			return nil, err
		}
		q = q.Where("chef_id = ? OR chef_id IS NULL", chef.ID)
	case models.RoleWaiter, models.RoleCustomer:
		return nil, utils.Forbidden("not authorized")
	default:
		return nil, utils.Unauthenticated("unauthorized")
	}

	var lines []models.OrderLineItem
	if err := q.Order("created_at").Order("order_id").Find(&lines).Error; err != nil {
		return nil, utils.StoreFailure("failed to load kitchen queue", err)
	}

	queue := make([]QueueItem, 0, len(lines))
	for _, li := range lines {
		item := QueueItem{
			OrderID:     li.OrderID,
			MenuItemID:  li.MenuItemID,
			Quantity:    li.Quantity,
			Status:      li.Status,
			StatusColor: li.Status.StatusColor(),
			ChefID:      li.ChefID,
			OrderedAt:   li.CreatedAt,
		}
		if li.MenuItem != nil {
			item.ItemName = li.MenuItem.Name
			item.PrepTimeMinutes = li.MenuItem.PrepTimeMinutes
		}
		if li.Order != nil {
			item.OrderReference = li.Order.Reference()
			if li.Order.Customer != nil {
				item.CustomerName = li.Order.Customer.Name
			}
		}
		queue = append(queue, item)
	}
	return queue, nil
}
