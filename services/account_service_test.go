package services

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeremiapane/table-service/models"
	"github.com/yeremiapane/table-service/utils"
)

func TestRegisterCustomer(t *testing.T) {
	f := newFixture(t)

	c, err := f.svc.Accounts.Register(f.ctx, " Cara ", "0811")
	require.NoError(t, err)
	assert.Equal(t, "Cara", c.Name)
	assert.Equal(t, f.rules.StartingLoyaltyPoints, c.LoyaltyPoints)

	_, err = f.svc.Accounts.Register(f.ctx, "Other", "0811")
	require.Error(t, err)
	assert.True(t, errors.Is(err, utils.ErrConflict))
	assert.Equal(t, "phone already registered", err.Error())

	_, err = f.svc.Accounts.Register(f.ctx, "", "0812")
	assert.True(t, errors.Is(err, utils.ErrInvalidState))
}

func TestCustomerLoginSeats(t *testing.T) {
	f := newFixture(t)
	_, w := f.waiter(t, "Wendy")
	spot := f.spot(t, "T1", uintPtr(w.ID))
	_, err := f.svc.Accounts.Register(f.ctx, "Cara", "0811")
	require.NoError(t, err)

	c, seat, err := f.svc.Accounts.CustomerLogin(f.ctx, "0811")
	require.NoError(t, err)
	assert.Equal(t, "Cara", c.Name)
	require.NotNil(t, seat.Spot)
	assert.Equal(t, spot.ID, seat.Spot.ID)

	_, _, err = f.svc.Accounts.CustomerLogin(f.ctx, "0899")
	require.Error(t, err)
	assert.True(t, errors.Is(err, utils.ErrNotFound))
	assert.Equal(t, "phone not found", err.Error())
}

func TestEmployeeLogin(t *testing.T) {
	f := newFixture(t)
	admin := f.employee(t, "Admin", models.RoleAdmin)
	emp, err := f.svc.Admin.CreateEmployee(f.ctx, asStaff(admin), NewEmployee{
		Name:     "Wendy",
		Phone:    "0822",
		Password: "secret1",
		Role:     models.RoleWaiter,
		Salary:   decimal.RequireFromString("2500"),
	})
	require.NoError(t, err)

	got, err := f.svc.Accounts.EmployeeLogin(f.ctx, "0822", "secret1")
	require.NoError(t, err)
	assert.Equal(t, emp.ID, got.ID)
	assert.Equal(t, models.RoleWaiter, got.Role)

	_, err = f.svc.Accounts.EmployeeLogin(f.ctx, "0822", "wrong")
	assert.True(t, errors.Is(err, utils.ErrUnauthenticated))

	_, err = f.svc.Accounts.EmployeeLogin(f.ctx, "0000", "secret1")
	assert.True(t, errors.Is(err, utils.ErrUnauthenticated))

	_, err = f.svc.Admin.ToggleEmployee(f.ctx, asStaff(admin), emp.ID)
	require.NoError(t, err)
	_, err = f.svc.Accounts.EmployeeLogin(f.ctx, "0822", "secret1")
	require.Error(t, err)
	assert.Equal(t, "invalid credentials", err.Error())
}

func TestActiveEmployee(t *testing.T) {
	f := newFixture(t)
	chef, _ := f.chef(t, "Chloe")

	_, err := f.svc.Accounts.ActiveEmployee(f.ctx, chef.ID, models.RoleChef)
	require.NoError(t, err)

	_, err = f.svc.Accounts.ActiveEmployee(f.ctx, chef.ID, models.RoleAdmin)
	assert.True(t, errors.Is(err, utils.ErrUnauthenticated))

	require.NoError(t, f.db.Model(&chef).Update("active", false).Error)
	_, err = f.svc.Accounts.ActiveEmployee(f.ctx, chef.ID, models.RoleChef)
	assert.True(t, errors.Is(err, utils.ErrUnauthenticated))
}
