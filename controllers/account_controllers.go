package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeremiapane/table-service/models"
	"github.com/yeremiapane/table-service/services"
	"github.com/yeremiapane/table-service/utils"
)

type AccountController struct {
	Accounts  *services.AccountService
	JWTSecret string
}

func NewAccountController(accounts *services.AccountService, jwtSecret string) *AccountController {
	return &AccountController{Accounts: accounts, JWTSecret: jwtSecret}
}

// Register creates a customer account.
func (ac *AccountController) Register(c *gin.Context) {
	var req struct {
		Name  string `json:"name" binding:"required"`
		Phone string `json:"phone" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	customer, err := ac.Accounts.Register(c.Request.Context(), req.Name, req.Phone)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Customer registered", customer)
}

// CustomerLogin seats the customer and returns a session token. A customer
// sent to the waiting room still gets a token.
func (ac *AccountController) CustomerLogin(c *gin.Context) {
	var req struct {
		Phone string `json:"phone" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	customer, seat, err := ac.Accounts.CustomerLogin(c.Request.Context(), req.Phone)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}

	token, err := utils.GenerateToken(ac.JWTSecret, customer.ID, string(models.RoleCustomer))
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	message := "Login successful"
	if seat.WaitingRoom {
		message = "All spots are taken, please wait"
	}
	utils.RespondJSON(c, http.StatusOK, message, gin.H{
		"token":        token,
		"customer":     customer,
		"spot":         seat.Spot,
		"waiting_room": seat.WaitingRoom,
	})
}

// EmployeeLogin checks staff credentials and returns a token carrying the
// employee's role.
func (ac *AccountController) EmployeeLogin(c *gin.Context) {
	var req struct {
		Phone    string `json:"phone" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	employee, err := ac.Accounts.EmployeeLogin(c.Request.Context(), req.Phone, req.Password)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}

	token, err := utils.GenerateToken(ac.JWTSecret, employee.ID, string(employee.Role))
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.InfoLogger.Printf("Employee %d logged in (role=%s)", employee.ID, employee.Role)
	utils.RespondJSON(c, http.StatusOK, "Login successful", gin.H{
		"token":    token,
		"role":     employee.Role,
		"employee": employee,
	})
}
