package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeremiapane/table-service/middlewares"
	"github.com/yeremiapane/table-service/models"
	"github.com/yeremiapane/table-service/services"
	"github.com/yeremiapane/table-service/utils"
)

type BillingController struct {
	Billing *services.BillingService
}

func NewBillingController(billing *services.BillingService) *BillingController {
	return &BillingController{Billing: billing}
}

type payRequest struct {
	PayMode string `json:"pay_mode"`
}

// RequestBill asks for the bill once every item is delivered.
func (bc *BillingController) RequestBill(c *gin.Context) {
	orderID, ok := idParam(c, "order_id")
	if !ok {
		return
	}
	order, err := bc.Billing.RequestBill(c.Request.Context(), middlewares.PrincipalFrom(c), orderID)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Bill requested", gin.H{
		"order_id":    order.ID,
		"bill_status": order.BillStatus,
	})
}

// ApproveBill settles an order whose bill was requested.
func (bc *BillingController) ApproveBill(c *gin.Context) {
	bc.settle(c, true)
}

// Settle pays an order without a prior request.
func (bc *BillingController) Settle(c *gin.Context) {
	bc.settle(c, false)
}

func (bc *BillingController) settle(c *gin.Context, approve bool) {
	orderID, ok := idParam(c, "order_id")
	if !ok {
		return
	}
	var req payRequest
	// An empty body means the default payment mode.
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondError(c, http.StatusBadRequest, err)
			return
		}
	}
	mode, err := models.ParsePaymentMode(req.PayMode)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	p := middlewares.PrincipalFrom(c)
	var res *services.Settlement
	if approve {
		res, err = bc.Billing.ApproveBill(c.Request.Context(), p, orderID, mode)
	} else {
		res, err = bc.Billing.Settle(c.Request.Context(), p, orderID, mode)
	}
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order settled", gin.H{
		"bill_id":         res.Bill.ID,
		"subtotal":        res.Bill.Subtotal.StringFixed(2),
		"tax":             res.Bill.Tax.StringFixed(2),
		"final_amount":    res.Bill.FinalAmount.StringFixed(2),
		"payment_mode":    res.Bill.PaymentMode,
		"points_earned":   res.PointsEarned,
		"loyalty_balance": res.LoyaltyBalance,
	})
}

// GetBill returns the stored bill of a paid order.
func (bc *BillingController) GetBill(c *gin.Context) {
	orderID, ok := idParam(c, "order_id")
	if !ok {
		return
	}
	bill, err := bc.Billing.BillForOrder(c.Request.Context(), middlewares.PrincipalFrom(c), orderID)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Bill", bill)
}
