package services

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/yeremiapane/table-service/config"
	"github.com/yeremiapane/table-service/models"
	"github.com/yeremiapane/table-service/utils"
)

// Totals are the money figures of a bill, rounded to cents.
type Totals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Tax      decimal.Decimal `json:"tax"`
	Final    decimal.Decimal `json:"final_amount"`
}

// ComputeTotals prices line items at their menu price. MenuItem must be
// loaded on every item.
func ComputeTotals(items []models.OrderLineItem, taxRate decimal.Decimal) Totals {
	subtotal := decimal.Zero
	for _, li := range items {
		if li.MenuItem == nil {
			continue
		}
		subtotal = subtotal.Add(li.MenuItem.Price.Mul(decimal.NewFromInt(int64(li.Quantity))))
	}
	subtotal = subtotal.Round(2)
	tax := subtotal.Mul(taxRate).Round(2)
	return Totals{Subtotal: subtotal, Tax: tax, Final: subtotal.Add(tax)}
}

// LoyaltyPoints is floor(final / divisor).
func LoyaltyPoints(final decimal.Decimal, divisor int64) int {
	if divisor <= 0 || !final.IsPositive() {
		return 0
	}
	return int(final.Div(decimal.NewFromInt(divisor)).Floor().IntPart())
}

// Settlement is the outcome of paying an order.
type Settlement struct {
	Bill           models.Bill `json:"bill"`
	PointsEarned   int         `json:"points_earned"`
	LoyaltyBalance int         `json:"loyalty_balance"`
}

type BillingService struct {
	db       *gorm.DB
	rules    config.Rules
	notifier Notifier
}

func NewBillingService(db *gorm.DB, rules config.Rules, notifier Notifier) *BillingService {
	return &BillingService{db: db, rules: rules, notifier: notifier}
}

// RequestBill marks the bill of a fully delivered order as requested.
// Requesting twice is a no-op.
func (s *BillingService) RequestBill(ctx context.Context, p Principal, orderID uint) (*models.Order, error) {
	var order *models.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		order, err = lockOrder(tx, orderID)
		if err != nil {
			return err
		}

		switch p.Role {
		case models.RoleCustomer:
			if order.CustomerID != p.ID {
				return utils.NotFound("order not found or not authorized")
			}
		case models.RoleWaiter:
			waiter, err := waiterFor(tx, p.ID)
			if err != nil {
				return err
			}
			if _, err := spotOfWaiter(tx, order.CustomerID, waiter.ID); err != nil {
				return err
			}
		case models.RoleAdmin:
		case models.RoleChef:
			return utils.Forbidden("not authorized")
		default:
			return utils.Unauthenticated("unauthorized")
		}

		if order.Paid {
			return utils.InvalidState("order already paid")
		}
		if order.BillStatus == models.BillRequested {
			return nil
		}
		if !order.AllAtLeast(models.StatusDelivered) {
			return utils.InvalidState("not all items delivered")
		}
		if err := tx.Model(order).Update("bill_status", models.BillRequested).Error; err != nil {
			return utils.StoreFailure("failed to request bill", err)
		}
		order.BillStatus = models.BillRequested
		return nil
	})
	if err != nil {
		return nil, err
	}

	utils.InfoLogger.WithField("order_id", orderID).Info("Bill requested")
	s.notifier.OrderUpdated(*order)
	return order, nil
}

// ApproveBill settles an order whose bill has been requested.
func (s *BillingService) ApproveBill(ctx context.Context, p Principal, orderID uint, mode models.PaymentMode) (*Settlement, error) {
	return s.settle(ctx, p, orderID, mode, true)
}

// Settle pays an order directly, without a prior bill request.
func (s *BillingService) Settle(ctx context.Context, p Principal, orderID uint, mode models.PaymentMode) (*Settlement, error) {
	return s.settle(ctx, p, orderID, mode, false)
}

func (s *BillingService) settle(ctx context.Context, p Principal, orderID uint, mode models.PaymentMode, requireRequest bool) (*Settlement, error) {
	if err := requireRole(p, models.RoleAdmin, models.RoleWaiter); err != nil {
		return nil, err
	}
	var result Settlement
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, err := lockOrder(tx, orderID)
		if err != nil {
			return err
		}
		// A paid order has already released its spot.
		if order.Paid {
			return utils.InvalidState("order already paid")
		}

		waiterID, err := s.authorizeSettlement(tx, p, order)
		if err != nil {
			return err
		}
		if requireRequest && order.BillStatus != models.BillRequested {
			return utils.InvalidState("bill has not been requested")
		}
		if !order.AllAtLeast(models.StatusDelivered) {
			return utils.InvalidState("not all items delivered")
		}

		totals := ComputeTotals(order.LineItems, s.rules.TaxRate)
		points := LoyaltyPoints(totals.Final, s.rules.LoyaltyDivisor)

		bill := models.Bill{
			OrderID:      order.ID,
			Subtotal:     totals.Subtotal,
			Tax:          totals.Tax,
			FinalAmount:  totals.Final,
			PaymentMode:  mode,
			WaiterID:     waiterID,
			PointsEarned: points,
		}
		if err := tx.Create(&bill).Error; err != nil {
			return utils.StoreFailure("failed to create bill", err)
		}

		if err := tx.Model(&models.Order{}).Where("id = ?", order.ID).
			Updates(map[string]interface{}{"paid": true, "bill_status": models.BillPaid}).Error; err != nil {
			return utils.StoreFailure("failed to mark order paid", err)
		}
		if err := tx.Model(&models.OrderLineItem{}).Where("order_id = ?", order.ID).
			Update("status", models.StatusBilled).Error; err != nil {
			return utils.StoreFailure("failed to mark items billed", err)
		}
		if err := tx.Model(&models.Spot{}).Where("customer_id = ?", order.CustomerID).
			Updates(map[string]interface{}{"availability": true, "customer_id": nil}).Error; err != nil {
			return utils.StoreFailure("failed to release spot", err)
		}
		if err := tx.Model(&models.Customer{}).Where("id = ?", order.CustomerID).
			Update("loyalty_points", gorm.Expr("loyalty_points + ?", points)).Error; err != nil {
			return utils.StoreFailure("failed to credit loyalty points", err)
		}

		var customer models.Customer
		if err := tx.First(&customer, order.CustomerID).Error; err != nil {
			return utils.StoreFailure("failed to reload customer", err)
		}

		result = Settlement{Bill: bill, PointsEarned: points, LoyaltyBalance: customer.LoyaltyPoints}
		return nil
	})
	if err != nil {
		return nil, err
	}

	utils.InfoLogger.WithFields(logrus.Fields{
		"order_id":      orderID,
		"bill_id":       result.Bill.ID,
		"final_amount":  result.Bill.FinalAmount.StringFixed(2),
		"points_earned": result.PointsEarned,
		"payment_mode":  mode,
	}).Info("Order settled")
	s.notifier.BillSettled(result.Bill)
	return &result, nil
}

// authorizeSettlement allows the waiter of the customer's spot or an admin.
// The waiter id is recorded on the bill.
func (s *BillingService) authorizeSettlement(tx *gorm.DB, p Principal, order *models.Order) (*uint, error) {
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
		return &waiter.ID, nil
	case models.RoleCustomer, models.RoleChef:
		return nil, utils.Forbidden("not authorized")
	default:
		return nil, utils.Unauthenticated("unauthorized")
	}
}

// BillForOrder returns the stored bill of a paid order.
func (s *BillingService) BillForOrder(ctx context.Context, p Principal, orderID uint) (*models.Bill, error) {
	db := s.db.WithContext(ctx)
	var order models.Order
	if err := db.First(&order, orderID).Error; err != nil {
		return nil, lookupErr(err, "order not found")
	}
	switch p.Role {
	case models.RoleCustomer:
		if order.CustomerID != p.ID {
			return nil, utils.NotFound("order not found or not authorized")
		}
	case models.RoleWaiter, models.RoleAdmin:
	case models.RoleChef:
		return nil, utils.Forbidden("not authorized")
	default:
		return nil, utils.Unauthenticated("unauthorized")
	}

	var bill models.Bill
	if err := db.Where("order_id = ?", orderID).First(&bill).Error; err != nil {
		return nil, lookupErr(err, "bill not found")
	}
	return &bill, nil
}
