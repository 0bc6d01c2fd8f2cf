package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeremiapane/table-service/middlewares"
	"github.com/yeremiapane/table-service/services"
	"github.com/yeremiapane/table-service/utils"
)

type AdminController struct {
	Admin   *services.AdminService
	Seating *services.SeatingService
}

func NewAdminController(svc *services.Services) *AdminController {
	return &AdminController{Admin: svc.Admin, Seating: svc.Seating}
}

// GetDashboardStats returns entity counts and the latest orders.
func (ac *AdminController) GetDashboardStats(c *gin.Context) {
	dash, err := ac.Admin.Dashboard(c.Request.Context(), middlewares.PrincipalFrom(c))
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Dashboard stats", dash)
}

func (ac *AdminController) ListEmployees(c *gin.Context) {
	employees, err := ac.Admin.ListEmployees(c.Request.Context(), middlewares.PrincipalFrom(c))
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Employees", employees)
}

// CreateEmployee adds a staff member with a waiter or chef record.
func (ac *AdminController) CreateEmployee(c *gin.Context) {
	var req services.NewEmployee
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	employee, err := ac.Admin.CreateEmployee(c.Request.Context(), middlewares.PrincipalFrom(c), req)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Employee created", employee)
}

// ToggleEmployee flips the active flag of an employee.
func (ac *AdminController) ToggleEmployee(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	employee, err := ac.Admin.ToggleEmployee(c.Request.Context(), middlewares.PrincipalFrom(c), id)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Employee updated", gin.H{
		"id":     employee.ID,
		"active": employee.Active,
	})
}

func (ac *AdminController) CreateSpot(c *gin.Context) {
	var req struct {
		Label string `json:"label" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	spot, err := ac.Admin.CreateSpot(c.Request.Context(), middlewares.PrincipalFrom(c), req.Label)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Spot created", spot)
}

// AssignWaiter sets or clears the waiter serving a spot. A null waiter_id
// unassigns it.
func (ac *AdminController) AssignWaiter(c *gin.Context) {
	spotID, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req struct {
		WaiterID *uint `json:"waiter_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	spot, err := ac.Seating.AssignWaiter(c.Request.Context(), middlewares.PrincipalFrom(c), spotID, req.WaiterID)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Waiter assigned", spot)
}
