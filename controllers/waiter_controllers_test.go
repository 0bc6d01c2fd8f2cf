package controllers_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeremiapane/table-service/models"
)

func TestWaiterDashboardAndSpot(t *testing.T) {
	api := newTestAPI(t)
	waiter := api.employee("Wendy", models.RoleWaiter, "secret1")
	other := api.employee("Other", models.RoleWaiter, "secret1")
	spot := api.spot("T1", uintPtr(api.waiterID(waiter)))
	curry := api.menuItem("Curry", "Lunch", "100.00")
	_, customerToken := api.seatedCustomer("Cara", "0811")
	api.do(http.MethodPost, "/orders/cart", customerToken, gin.H{"items": []gin.H{{"id": curry.ID, "quantity": 1}}})
	waiterToken := api.tokenFor(waiter.ID, models.RoleWaiter)

	w, env := api.do(http.MethodGet, "/waiter/dashboard", waiterToken, nil)
	require.Equal(t, http.StatusOK, w.Code, env.Error)
	var views []struct {
		Spot  models.Spot `json:"spot"`
		Order *struct {
			Items []struct {
				MenuItemID uint `json:"menu_item_id"`
			} `json:"items"`
		} `json:"order"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &views))
	require.Len(t, views, 1)
	require.NotNil(t, views[0].Order)
	assert.Len(t, views[0].Order.Items, 1)

	path := fmt.Sprintf("/waiter/spots/%d", spot.ID)
	w, _ = api.do(http.MethodGet, path, waiterToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = api.do(http.MethodGet, path, api.tokenFor(other.ID, models.RoleWaiter), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = api.do(http.MethodGet, "/waiter/dashboard", customerToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestWaiterReleasesSpot(t *testing.T) {
	api := newTestAPI(t)
	waiter := api.employee("Wendy", models.RoleWaiter, "secret1")
	spot := api.spot("T1", uintPtr(api.waiterID(waiter)))
	curry := api.menuItem("Curry", "Lunch", "100.00")
	_, customerToken := api.seatedCustomer("Cara", "0811")
	waiterToken := api.tokenFor(waiter.ID, models.RoleWaiter)
	path := fmt.Sprintf("/waiter/spots/%d/release", spot.ID)

	api.do(http.MethodPost, "/orders/cart", customerToken, gin.H{"items": []gin.H{{"id": curry.ID, "quantity": 1}}})
	w, env := api.do(http.MethodPost, path, waiterToken, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "customer has an unpaid order", env.Error)

	var order models.Order
	require.NoError(t, api.db.Where("paid = ?", false).First(&order).Error)
	w, _ = api.do(http.MethodPost, "/orders/remove-item", customerToken, gin.H{"order_id": order.ID, "item_id": curry.ID})
	require.Equal(t, http.StatusOK, w.Code)

	w, env = api.do(http.MethodPost, path, waiterToken, nil)
	require.Equal(t, http.StatusOK, w.Code, env.Error)
	var released models.Spot
	require.NoError(t, json.Unmarshal(env.Data, &released))
	assert.True(t, released.Availability)
	assert.Nil(t, released.CustomerID)
}
