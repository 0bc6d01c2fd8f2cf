package services

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yeremiapane/table-service/config"
	"github.com/yeremiapane/table-service/database"
	"github.com/yeremiapane/table-service/models"
	"github.com/yeremiapane/table-service/utils"
)

// newTestDB opens a private in-memory database for the running test.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	utils.SilenceLogger()

	name := strings.NewReplacer("/", "_", " ", "_", "#", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

type fixture struct {
	db    *gorm.DB
	rules config.Rules
	svc   *Services
	ctx   context.Context
	seq   int
}

func newFixture(t *testing.T, tweaks ...func(*config.Rules)) *fixture {
	t.Helper()
	rules := config.DefaultRules()
	for _, tw := range tweaks {
		tw(&rules)
	}
	db := newTestDB(t)
	return &fixture{
		db:    db,
		rules: rules,
		svc:   New(db, rules, NopNotifier{}),
		ctx:   context.Background(),
	}
}

func (f *fixture) nextPhone() string {
	f.seq++
	return fmt.Sprintf("08%08d", f.seq)
}

func (f *fixture) customer(t *testing.T, name string) models.Customer {
	t.Helper()
	c := models.Customer{Name: name, Phone: f.nextPhone(), LoyaltyPoints: f.rules.StartingLoyaltyPoints}
	require.NoError(t, f.db.Create(&c).Error)
	return c
}

// seatedCustomer creates a customer already holding a spot of their own.
func (f *fixture) seatedCustomer(t *testing.T, name string) models.Customer {
	t.Helper()
	c := f.customer(t, name)
	spot := models.Spot{Label: "S-" + c.Phone, Availability: false, CustomerID: &c.ID}
	require.NoError(t, f.db.Create(&spot).Error)
	return c
}

func (f *fixture) employee(t *testing.T, name string, role models.Role) models.Employee {
	t.Helper()
	e := models.Employee{
		Name:         name,
		Phone:        f.nextPhone(),
		Role:         role,
		PasswordHash: "unused",
		Active:       true,
		Salary:       decimal.RequireFromString("3000.00"),
	}
	require.NoError(t, f.db.Create(&e).Error)
	return e
}

func (f *fixture) waiter(t *testing.T, name string) (models.Employee, models.Waiter) {
	t.Helper()
	e := f.employee(t, name, models.RoleWaiter)
	w := models.Waiter{EmployeeID: e.ID}
	require.NoError(t, f.db.Create(&w).Error)
	return e, w
}

func (f *fixture) chef(t *testing.T, name string) (models.Employee, models.Chef) {
	t.Helper()
	e := f.employee(t, name, models.RoleChef)
	c := models.Chef{EmployeeID: e.ID}
	require.NoError(t, f.db.Create(&c).Error)
	return e, c
}

func (f *fixture) spot(t *testing.T, label string, waiterID *uint) models.Spot {
	t.Helper()
	s := models.Spot{Label: label, Availability: true, WaiterID: waiterID}
	require.NoError(t, f.db.Create(&s).Error)
	return s
}

func (f *fixture) menuItem(t *testing.T, name, category, price string) models.MenuItem {
	t.Helper()
	m := models.MenuItem{
		Name:            name,
		Category:        category,
		Price:           decimal.RequireFromString(price),
		PrepTimeMinutes: 10,
		Available:       true,
	}
	require.NoError(t, f.db.Create(&m).Error)
	return m
}

func asCustomer(c models.Customer) Principal {
	return Principal{ID: c.ID, Role: models.RoleCustomer}
}

func asStaff(e models.Employee) Principal {
	return Principal{ID: e.ID, Role: e.Role}
}

func uintPtr(v uint) *uint {
	return &v
}

// scene is a seated customer with an open two-item order served by one
// waiter.
type scene struct {
	*fixture
	admin     models.Employee
	waiterEmp models.Employee
	waiter    models.Waiter
	customer  models.Customer
	spot      models.Spot
	curry     models.MenuItem
	pizza     models.MenuItem
	order     *models.Order
}

func newScene(t *testing.T, tweaks ...func(*config.Rules)) *scene {
	t.Helper()
	f := newFixture(t, tweaks...)
	s := &scene{fixture: f}
	s.admin = f.employee(t, "Admin", models.RoleAdmin)
	s.waiterEmp, s.waiter = f.waiter(t, "Wendy")
	f.spot(t, "T1", uintPtr(s.waiter.ID))
	s.customer = f.customer(t, "Cara")
	s.curry = f.menuItem(t, "Curry", "Lunch", "100.00")
	s.pizza = f.menuItem(t, "Margherita", "Pizza", "250.50")

	seat, err := f.svc.Seating.Seat(f.ctx, s.customer.ID)
	require.NoError(t, err)
	require.NotNil(t, seat.Spot)
	s.spot = *seat.Spot

	s.order, err = f.svc.Orders.ApplyCart(f.ctx, asCustomer(s.customer), []CartItem{
		{MenuItemID: s.curry.ID, Quantity: 1},
		{MenuItemID: s.pizza.ID, Quantity: 1},
	})
	require.NoError(t, err)
	return s
}

// deliverAll walks every item of the order to delivered as the admin.
func (s *scene) deliverAll(t *testing.T) {
	t.Helper()
	for _, li := range s.order.LineItems {
		for _, st := range []models.KitchenStatus{models.StatusCooking, models.StatusCooked, models.StatusDelivered} {
			_, err := s.svc.Kitchen.UpdateItemStatus(s.ctx, asStaff(s.admin), li.OrderID, li.MenuItemID, st)
			require.NoError(t, err)
		}
	}
}

func (s *scene) reloadOrder(t *testing.T) models.Order {
	t.Helper()
	var o models.Order
	require.NoError(t, s.db.Preload("LineItems").First(&o, s.order.ID).Error)
	return o
}
