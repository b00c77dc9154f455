// controllers/payout_controller.go
package controllers

import (
	"net/http"

	"rental-backend/services"
	"rental-backend/utils"

	"github.com/gin-gonic/gin"
)

type PayoutController struct {
	SettlementSvc *services.SettlementService
}

func NewPayoutController(svc *services.SettlementService) *PayoutController {
	return &PayoutController{SettlementSvc: svc}
}

func (ctrl *PayoutController) ListPayouts(c *gin.Context) {
	list, err := ctrl.SettlementSvc.ListByStatus(c.Query("status"))
	if err != nil {
		respondDomainError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, list)
}

// RetryPayout re-dispatches a pending or failed payout. The dispatch
// outcome is part of the payload: a failed call is still a 200 here since
// the payout row records it.
func (ctrl *PayoutController) RetryPayout(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	payout, err := ctrl.SettlementSvc.Dispatch(id)
	if payout == nil && err != nil {
		respondDomainError(c, err)
		return
	}

	resp := gin.H{"status": "success", "data": payout}
	if err != nil {
		resp["dispatchError"] = err.Error()
	}
	c.JSON(http.StatusOK, resp)
}
