package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeremiapane/table-service/middlewares"
	"github.com/yeremiapane/table-service/services"
	"github.com/yeremiapane/table-service/utils"
)

type MenuController struct {
	Dashboard *services.DashboardService
	Admin     *services.AdminService
}

func NewMenuController(svc *services.Services) *MenuController {
	return &MenuController{Dashboard: svc.Dashboard, Admin: svc.Admin}
}

// GetMenu lists the menu grouped by category. Customers also see what is
// in their cart.
func (mc *MenuController) GetMenu(c *gin.Context) {
	view, err := mc.Dashboard.Menu(c.Request.Context(), middlewares.PrincipalFrom(c))
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Menu", view)
}

func (mc *MenuController) CreateMenu(c *gin.Context) {
	var req services.MenuItemInput
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	item, err := mc.Admin.CreateMenuItem(c.Request.Context(), middlewares.PrincipalFrom(c), req)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Menu item created", item)
}

// UpdateMenu applies a partial edit; omitted fields keep their value.
func (mc *MenuController) UpdateMenu(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req services.MenuItemInput
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	item, err := mc.Admin.UpdateMenuItem(c.Request.Context(), middlewares.PrincipalFrom(c), id, req)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Menu item updated", item)
}

func (mc *MenuController) ToggleMenu(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	item, err := mc.Admin.ToggleMenuItem(c.Request.Context(), middlewares.PrincipalFrom(c), id)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Menu item updated", gin.H{
		"id":        item.ID,
		"available": item.Available,
	})
}
