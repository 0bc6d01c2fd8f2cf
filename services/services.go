package services

import (
	"gorm.io/gorm"

	"github.com/yeremiapane/table-service/config"
)

// Services bundles every service sharing one store and rule set.
type Services struct {
	Seating   *SeatingService
	Orders    *OrderService
	Kitchen   *KitchenService
	Billing   *BillingService
	Accounts  *AccountService
	Admin     *AdminService
	Dashboard *DashboardService
}

func New(db *gorm.DB, rules config.Rules, notifier Notifier) *Services {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	seating := NewSeatingService(db, rules, notifier)
	return &Services{
		Seating:   seating,
		Orders:    NewOrderService(db, rules, notifier),
		Kitchen:   NewKitchenService(db, rules, notifier),
		Billing:   NewBillingService(db, rules, notifier),
		Accounts:  NewAccountService(db, rules, seating),
		Admin:     NewAdminService(db, notifier),
		Dashboard: NewDashboardService(db, seating),
	}
}
