package services

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/yeremiapane/table-service/models"
	"github.com/yeremiapane/table-service/utils"
)

func TestComputeTotals(t *testing.T) {
	items := []models.OrderLineItem{
		{Quantity: 1, MenuItem: &models.MenuItem{Price: decimal.RequireFromString("100.00")}},
		{Quantity: 1, MenuItem: &models.MenuItem{Price: decimal.RequireFromString("250.50")}},
	}
	totals := ComputeTotals(items, decimal.RequireFromString("0.18"))
	assert.Equal(t, "350.50", totals.Subtotal.StringFixed(2))
	assert.Equal(t, "63.09", totals.Tax.StringFixed(2))
	assert.Equal(t, "413.59", totals.Final.StringFixed(2))
	assert.Equal(t, 41, LoyaltyPoints(totals.Final, 10))
}

func TestLoyaltyPointsFloors(t *testing.T) {
	cases := []struct {
		final string
		want  int
	}{
		{"9.99", 0},
		{"10.00", 1},
		{"413.59", 41},
		{"0", 0},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, LoyaltyPoints(decimal.RequireFromString(tc.final), 10), tc.final)
	}
}

func TestSettleComputesBillFreesSpotAndCreditsPoints(t *testing.T) {
	s := newScene(t)
	s.deliverAll(t)

	res, err := s.svc.Billing.Settle(s.ctx, asStaff(s.waiterEmp), s.order.ID, models.PaymentCash)
	require.NoError(t, err)

	assert.True(t, res.Bill.Subtotal.Equal(decimal.RequireFromString("350.50")))
	assert.True(t, res.Bill.Tax.Equal(decimal.RequireFromString("63.09")))
	assert.True(t, res.Bill.FinalAmount.Equal(decimal.RequireFromString("413.59")))
	assert.Equal(t, 41, res.PointsEarned)
	assert.Equal(t, s.rules.StartingLoyaltyPoints+41, res.LoyaltyBalance)
	assert.Equal(t, models.PaymentCash, res.Bill.PaymentMode)
	require.NotNil(t, res.Bill.WaiterID)
	assert.Equal(t, s.waiter.ID, *res.Bill.WaiterID)

	order := s.reloadOrder(t)
	assert.True(t, order.Paid)
	assert.Equal(t, models.BillPaid, order.BillStatus)
	for _, li := range order.LineItems {
		assert.Equal(t, models.StatusBilled, li.Status)
	}

	var spot models.Spot
	require.NoError(t, s.db.First(&spot, s.spot.ID).Error)
	assert.True(t, spot.Availability)
	assert.Nil(t, spot.CustomerID)

	var customer models.Customer
	require.NoError(t, s.db.First(&customer, s.customer.ID).Error)
	assert.Equal(t, s.rules.StartingLoyaltyPoints+41, customer.LoyaltyPoints)

	bill, err := s.svc.Billing.BillForOrder(s.ctx, asCustomer(s.customer), s.order.ID)
	require.NoError(t, err)
	assert.Equal(t, res.Bill.ID, bill.ID)
	assert.Equal(t, "413.59", bill.FinalAmount.StringFixed(2))
}

func TestSettleTwiceFails(t *testing.T) {
	s := newScene(t)
	s.deliverAll(t)
	_, err := s.svc.Billing.Settle(s.ctx, asStaff(s.admin), s.order.ID, models.PaymentOnline)
	require.NoError(t, err)

	_, err = s.svc.Billing.Settle(s.ctx, asStaff(s.admin), s.order.ID, models.PaymentOnline)
	assert.True(t, errors.Is(err, utils.ErrInvalidState))
}

func TestWaiterSettlingPaidOrderIsInvalidState(t *testing.T) {
	s := newScene(t)
	s.deliverAll(t)
	_, err := s.svc.Billing.Settle(s.ctx, asStaff(s.waiterEmp), s.order.ID, models.PaymentCash)
	require.NoError(t, err)

	_, err = s.svc.Billing.Settle(s.ctx, asStaff(s.waiterEmp), s.order.ID, models.PaymentCash)
	require.Error(t, err)
	assert.True(t, errors.Is(err, utils.ErrInvalidState))
	assert.Equal(t, "order already paid", err.Error())

	_, err = s.svc.Billing.ApproveBill(s.ctx, asStaff(s.waiterEmp), s.order.ID, models.PaymentCash)
	assert.True(t, errors.Is(err, utils.ErrInvalidState))
}

func TestSettleRollsBackWhenSpotReleaseFails(t *testing.T) {
	s := newScene(t)
	s.deliverAll(t)

	require.NoError(t, s.db.Callback().Update().Before("gorm:update").Register("test:fail_spot_release", func(tx *gorm.DB) {
		if tx.Statement.Table == "spots" {
			_ = tx.AddError(errors.New("injected failure"))
		}
	}))

	_, err := s.svc.Billing.Settle(s.ctx, asStaff(s.waiterEmp), s.order.ID, models.PaymentCash)
	require.Error(t, err)
	assert.True(t, errors.Is(err, utils.ErrStoreFailure))

	order := s.reloadOrder(t)
	assert.False(t, order.Paid)
	assert.Equal(t, models.BillNone, order.BillStatus)
	for _, li := range order.LineItems {
		assert.Equal(t, models.StatusDelivered, li.Status)
	}

	var bills int64
	require.NoError(t, s.db.Model(&models.Bill{}).Count(&bills).Error)
	assert.Zero(t, bills)

	var spot models.Spot
	require.NoError(t, s.db.First(&spot, s.spot.ID).Error)
	assert.False(t, spot.Availability)

	var customer models.Customer
	require.NoError(t, s.db.First(&customer, s.customer.ID).Error)
	assert.Equal(t, s.rules.StartingLoyaltyPoints, customer.LoyaltyPoints)
}

func TestRequestBillRequiresDeliveredItems(t *testing.T) {
	s := newScene(t)
	_, err := s.svc.Kitchen.UpdateItemStatus(s.ctx, asStaff(s.admin), s.order.ID, s.curry.ID, models.StatusDelivered)
	require.NoError(t, err)

	_, err = s.svc.Billing.RequestBill(s.ctx, asCustomer(s.customer), s.order.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, utils.ErrInvalidState))
	assert.Equal(t, "not all items delivered", err.Error())

	_, err = s.svc.Billing.Settle(s.ctx, asStaff(s.waiterEmp), s.order.ID, models.PaymentCash)
	assert.True(t, errors.Is(err, utils.ErrInvalidState))
}

func TestRequestBillIsIdempotent(t *testing.T) {
	s := newScene(t)
	s.deliverAll(t)

	first, err := s.svc.Billing.RequestBill(s.ctx, asCustomer(s.customer), s.order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BillRequested, first.BillStatus)

	second, err := s.svc.Billing.RequestBill(s.ctx, asStaff(s.waiterEmp), s.order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BillRequested, second.BillStatus)
}

func TestRequestBillScope(t *testing.T) {
	s := newScene(t)
	s.deliverAll(t)
	stranger := s.fixture.customer(t, "Stranger")
	chefEmp, _ := s.chef(t, "Chloe")

	_, err := s.svc.Billing.RequestBill(s.ctx, asCustomer(stranger), s.order.ID)
	assert.True(t, errors.Is(err, utils.ErrNotFound))

	_, err = s.svc.Billing.RequestBill(s.ctx, asStaff(chefEmp), s.order.ID)
	assert.True(t, errors.Is(err, utils.ErrForbidden))
}

func TestApproveBillNeedsRequest(t *testing.T) {
	s := newScene(t)
	s.deliverAll(t)

	_, err := s.svc.Billing.ApproveBill(s.ctx, asStaff(s.waiterEmp), s.order.ID, models.PaymentCard)
	assert.True(t, errors.Is(err, utils.ErrInvalidState))

	_, err = s.svc.Billing.RequestBill(s.ctx, asCustomer(s.customer), s.order.ID)
	require.NoError(t, err)

	res, err := s.svc.Billing.ApproveBill(s.ctx, asStaff(s.waiterEmp), s.order.ID, models.PaymentCard)
	require.NoError(t, err)
	assert.Equal(t, "413.59", res.Bill.FinalAmount.StringFixed(2))
}

func TestSettleAuthorization(t *testing.T) {
	s := newScene(t)
	s.deliverAll(t)
	otherWaiter, _ := s.fixture.waiter(t, "Other")

	_, err := s.svc.Billing.Settle(s.ctx, asCustomer(s.customer), s.order.ID, models.PaymentCash)
	assert.True(t, errors.Is(err, utils.ErrForbidden))

	_, err = s.svc.Billing.Settle(s.ctx, asStaff(otherWaiter), s.order.ID, models.PaymentCash)
	assert.True(t, errors.Is(err, utils.ErrForbidden))

	_, err = s.svc.Billing.Settle(s.ctx, asStaff(s.admin), 999, models.PaymentCash)
	assert.True(t, errors.Is(err, utils.ErrNotFound))

	res, err := s.svc.Billing.Settle(s.ctx, asStaff(s.admin), s.order.ID, models.PaymentCash)
	require.NoError(t, err)
	assert.Nil(t, res.Bill.WaiterID)
}

func TestBillsAreImmutable(t *testing.T) {
	s := newScene(t)
	s.deliverAll(t)
	res, err := s.svc.Billing.Settle(s.ctx, asStaff(s.admin), s.order.ID, models.PaymentCash)
	require.NoError(t, err)

	bill := res.Bill
	err = s.db.Model(&bill).Update("final_amount", decimal.NewFromInt(1)).Error
	assert.ErrorIs(t, err, models.ErrImmutableBill)
	assert.ErrorIs(t, s.db.Delete(&bill).Error, models.ErrImmutableBill)
}
