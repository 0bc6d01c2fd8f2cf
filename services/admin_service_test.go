package services

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeremiapane/table-service/database"
	"github.com/yeremiapane/table-service/models"
	"github.com/yeremiapane/table-service/utils"
)

func strPtr(s string) *string { return &s }

func TestCreateEmployeeCreatesRoleRecord(t *testing.T) {
	f := newFixture(t)
	admin := f.employee(t, "Admin", models.RoleAdmin)

	chef, err := f.svc.Admin.CreateEmployee(f.ctx, asStaff(admin), NewEmployee{
		Name: "Chloe", Phone: "0831", Password: "secret1", Role: models.RoleChef,
		Salary: decimal.RequireFromString("4100.555"),
	})
	require.NoError(t, err)
	assert.True(t, chef.Active)
	assert.Equal(t, "4100.56", chef.Salary.StringFixed(2))
	assert.NotEqual(t, "secret1", chef.PasswordHash)

	var chefs int64
	require.NoError(t, f.db.Model(&models.Chef{}).Where("employee_id = ?", chef.ID).Count(&chefs).Error)
	assert.EqualValues(t, 1, chefs)

	_, err = f.svc.Admin.CreateEmployee(f.ctx, asStaff(admin), NewEmployee{
		Name: "Dup", Phone: "0831", Password: "secret1", Role: models.RoleWaiter,
	})
	assert.True(t, errors.Is(err, utils.ErrConflict))

	_, err = f.svc.Admin.CreateEmployee(f.ctx, asStaff(admin), NewEmployee{
		Name: "Cust", Phone: "0832", Password: "secret1", Role: models.RoleCustomer,
	})
	assert.True(t, errors.Is(err, utils.ErrInvalidState))

	_, err = f.svc.Admin.CreateEmployee(f.ctx, asStaff(*chef), NewEmployee{
		Name: "Sneaky", Phone: "0833", Password: "secret1", Role: models.RoleAdmin,
	})
	assert.True(t, errors.Is(err, utils.ErrForbidden))
}

func TestToggleEmployee(t *testing.T) {
	f := newFixture(t)
	admin := f.employee(t, "Admin", models.RoleAdmin)
	waiterEmp, _ := f.waiter(t, "Wendy")

	off, err := f.svc.Admin.ToggleEmployee(f.ctx, asStaff(admin), waiterEmp.ID)
	require.NoError(t, err)
	assert.False(t, off.Active)

	on, err := f.svc.Admin.ToggleEmployee(f.ctx, asStaff(admin), waiterEmp.ID)
	require.NoError(t, err)
	assert.True(t, on.Active)

	_, err = f.svc.Admin.ToggleEmployee(f.ctx, asStaff(admin), admin.ID)
	assert.True(t, errors.Is(err, utils.ErrInvalidState))

	_, err = f.svc.Admin.ToggleEmployee(f.ctx, asStaff(admin), 999)
	assert.True(t, errors.Is(err, utils.ErrNotFound))
}

func TestMenuItemLifecycle(t *testing.T) {
	f := newFixture(t)
	admin := f.employee(t, "Admin", models.RoleAdmin)
	chefEmp, _ := f.chef(t, "Chloe")
	price := decimal.RequireFromString("12.50")

	item, err := f.svc.Admin.CreateMenuItem(f.ctx, asStaff(admin), MenuItemInput{
		Name: strPtr("Paneer Tikka"), Category: strPtr("Tiffin"), Price: &price,
	})
	require.NoError(t, err)
	assert.True(t, item.Available)
	assert.Nil(t, item.ImageRef)

	newPrice := decimal.RequireFromString("13.00")
	updated, err := f.svc.Admin.UpdateMenuItem(f.ctx, asStaff(admin), item.ID, MenuItemInput{
		Price: &newPrice, Description: strPtr("smoky"),
	})
	require.NoError(t, err)
	assert.Equal(t, "13.00", updated.Price.StringFixed(2))
	assert.Equal(t, "smoky", updated.Description)
	assert.Equal(t, "Paneer Tikka", updated.Name)

	_, err = f.svc.Admin.UpdateMenuItem(f.ctx, asStaff(chefEmp), item.ID, MenuItemInput{Name: strPtr("x")})
	assert.True(t, errors.Is(err, utils.ErrForbidden))

	toggled, err := f.svc.Admin.ToggleMenuItem(f.ctx, asStaff(chefEmp), item.ID)
	require.NoError(t, err)
	assert.False(t, toggled.Available)

	zero := decimal.Zero
	_, err = f.svc.Admin.CreateMenuItem(f.ctx, asStaff(admin), MenuItemInput{
		Name: strPtr("Free"), Category: strPtr("Drinks"), Price: &zero,
	})
	assert.True(t, errors.Is(err, utils.ErrInvalidState))

	_, err = f.svc.Admin.ToggleMenuItem(f.ctx, asStaff(admin), 999)
	assert.True(t, errors.Is(err, utils.ErrNotFound))
}

func TestAdminDashboard(t *testing.T) {
	s := newScene(t)
	s.fixture.spot(t, "T2", nil)

	dash, err := s.svc.Admin.Dashboard(s.ctx, asStaff(s.admin))
	require.NoError(t, err)
	assert.EqualValues(t, 1, dash.Customers)
	assert.EqualValues(t, 1, dash.Waiters)
	assert.EqualValues(t, 0, dash.Chefs)
	assert.EqualValues(t, 2, dash.MenuItems)
	assert.EqualValues(t, 2, dash.Spots)
	assert.EqualValues(t, 1, dash.OccupiedSpots)
	assert.EqualValues(t, 1, dash.OpenOrders)
	require.Len(t, dash.RecentOrders, 1)
	assert.Equal(t, "Cara", dash.RecentOrders[0].CustomerName)

	_, err = s.svc.Admin.Dashboard(s.ctx, asStaff(s.waiterEmp))
	assert.True(t, errors.Is(err, utils.ErrForbidden))
}

func TestApplySeedIsIdempotent(t *testing.T) {
	f := newFixture(t)
	seed, err := database.ParseSeed([]byte(`
spots:
  - label: T1
  - label: T2
menu:
  - name: Masala Dosa
    category: Tiffin
    price: "4.50"
    prep_time_minutes: 12
  - name: Lemon Soda
    category: Drinks
    price: "1.75"
    image_ref: soda.png
employees:
  - name: Root
    phone: "0800"
    password: changeme
    role: admin
  - name: Wendy
    phone: "0801"
    password: changeme
    role: waiter
`))
	require.NoError(t, err)

	require.NoError(t, f.svc.Admin.ApplySeed(f.ctx, seed))
	require.NoError(t, f.svc.Admin.ApplySeed(f.ctx, seed))

	var spots, menu, employees, waiters int64
	require.NoError(t, f.db.Model(&models.Spot{}).Count(&spots).Error)
	require.NoError(t, f.db.Model(&models.MenuItem{}).Count(&menu).Error)
	require.NoError(t, f.db.Model(&models.Employee{}).Count(&employees).Error)
	require.NoError(t, f.db.Model(&models.Waiter{}).Count(&waiters).Error)
	assert.EqualValues(t, 2, spots)
	assert.EqualValues(t, 2, menu)
	assert.EqualValues(t, 2, employees)
	assert.EqualValues(t, 1, waiters)

	var soda models.MenuItem
	require.NoError(t, f.db.Where("name = ?", "Lemon Soda").First(&soda).Error)
	require.NotNil(t, soda.ImageRef)
	assert.Equal(t, "soda.png", *soda.ImageRef)

	_, err = f.svc.Accounts.EmployeeLogin(f.ctx, "0800", "changeme")
	assert.NoError(t, err)
}
