package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeremiapane/table-service/middlewares"
	"github.com/yeremiapane/table-service/models"
	"github.com/yeremiapane/table-service/services"
	"github.com/yeremiapane/table-service/utils"
)

type OrderController struct {
	Orders    *services.OrderService
	Kitchen   *services.KitchenService
	Dashboard *services.DashboardService
}

func NewOrderController(svc *services.Services) *OrderController {
	return &OrderController{Orders: svc.Orders, Kitchen: svc.Kitchen, Dashboard: svc.Dashboard}
}

// ApplyCart merges the submitted cart into the customer's open order.
func (oc *OrderController) ApplyCart(c *gin.Context) {
	var body struct {
		Items []services.CartItem `json:"items"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	order, err := oc.Orders.ApplyCart(c.Request.Context(), middlewares.PrincipalFrom(c), body.Items)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Cart applied", gin.H{
		"order_id": order.ID,
		"order":    order,
	})
}

// RemoveItem drops one menu item from the customer's order.
func (oc *OrderController) RemoveItem(c *gin.Context) {
	var body struct {
		OrderID uint `json:"order_id" binding:"required"`
		ItemID  uint `json:"item_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, errors.New("missing params"))
		return
	}

	if err := oc.Orders.RemoveItem(c.Request.Context(), middlewares.PrincipalFrom(c), body.OrderID, body.ItemID); err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Item removed", nil)
}

// UpdateItemStatus moves a line item through the kitchen.
func (oc *OrderController) UpdateItemStatus(c *gin.Context) {
	var body struct {
		OrderID uint   `json:"order_id" binding:"required"`
		ItemID  uint   `json:"item_id" binding:"required"`
		Status  string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, errors.New("missing params"))
		return
	}

	status := models.KitchenStatus(body.Status)
	line, err := oc.Kitchen.UpdateItemStatus(c.Request.Context(), middlewares.PrincipalFrom(c), body.OrderID, body.ItemID, status)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Item status updated", line)
}

// CustomerDashboard returns the caller's current order and history.
func (oc *OrderController) CustomerDashboard(c *gin.Context) {
	dash, err := oc.Dashboard.CustomerDashboard(c.Request.Context(), middlewares.PrincipalFrom(c))
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Customer dashboard", dash)
}
