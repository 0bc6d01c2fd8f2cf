package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeremiapane/table-service/middlewares"
	"github.com/yeremiapane/table-service/services"
	"github.com/yeremiapane/table-service/utils"
)

type WaiterController struct {
	Dashboards *services.DashboardService
	Seating   *services.SeatingService
}

func NewWaiterController(svc *services.Services) *WaiterController {
	return &WaiterController{Dashboards: svc.Dashboard, Seating: svc.Seating}
}

// Dashboard lists the waiter's spots and their open orders.
func (wc *WaiterController) Dashboard(c *gin.Context) {
	spots, err := wc.Dashboards.WaiterDashboard(c.Request.Context(), middlewares.PrincipalFrom(c))
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Waiter dashboard", spots)
}

// SpotDetail shows one spot with its seated customer and order.
func (wc *WaiterController) SpotDetail(c *gin.Context) {
	spotID, ok := idParam(c, "spot_id")
	if !ok {
		return
	}
	view, err := wc.Dashboards.WaiterSpot(c.Request.Context(), middlewares.PrincipalFrom(c), spotID)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Spot detail", view)
}

// ReleaseSpot frees a spot whose customer left without ordering.
func (wc *WaiterController) ReleaseSpot(c *gin.Context) {
	spotID, ok := idParam(c, "spot_id")
	if !ok {
		return
	}
	spot, err := wc.Seating.ReleaseSpot(c.Request.Context(), middlewares.PrincipalFrom(c), spotID)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Spot released", spot)
}
