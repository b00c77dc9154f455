// controllers/booking_controller.go
package controllers

import (
	"net/http"
	"strconv"

	"rental-backend/services"
	"rental-backend/utils"

	"github.com/gin-gonic/gin"
)

// ---------------------------
// Payload / DTOs
// ---------------------------

type CreateBookingRequest struct {
	TenantID       uint     `json:"tenantId" binding:"required"`
	PropertyID     uint     `json:"propertyId" binding:"required"`
	CheckIn        string   `json:"checkIn" binding:"required"`
	CheckOut       string   `json:"checkOut" binding:"required"`
	Guests         int      `json:"guests" binding:"required"`
	RequestedPrice *float64 `json:"requestedPrice,omitempty"`
}

type UpdateBookingRequest struct {
	UserID         uint     `json:"userId" binding:"required"`
	CheckIn        *string  `json:"checkIn,omitempty"`
	CheckOut       *string  `json:"checkOut,omitempty"`
	Guests         *int     `json:"guests,omitempty"`
	RequestedPrice *float64 `json:"requestedPrice,omitempty"`
}

type ActorPayload struct {
	UserID uint `json:"userId" binding:"required"`
}

type PayPayload struct {
	TenantID uint   `json:"tenantId" binding:"required"`
	TxHash   string `json:"txHash" binding:"required"`
}

// ---------------------------
// Controller
// ---------------------------

type BookingController struct {
	BookingSvc    *services.BookingService
	SettlementSvc *services.SettlementService
}

func NewBookingController(bookingSvc *services.BookingService, settlementSvc *services.SettlementService) *BookingController {
	return &BookingController{BookingSvc: bookingSvc, SettlementSvc: settlementSvc}
}

func parseIDParam(c *gin.Context, name string) (uint, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		utils.JSONError(c, http.StatusBadRequest, "error.invalidId", "invalid "+name+" parameter")
		return 0, false
	}
	return uint(id), true
}

func parseUserIDQuery(c *gin.Context) (uint, bool) {
	raw := c.Query("userId")
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		utils.JSONError(c, http.StatusBadRequest, "error.missingUserId", "userId query parameter is required")
		return 0, false
	}
	return uint(id), true
}

// priceTooLow is the structured domain-rejection result: HTTP 200, not an
// error, so the caller can prompt for a new price.
func priceTooLow(c *gin.Context, rejection *services.NegotiationRejection) {
	c.JSON(http.StatusOK, gin.H{
		"status":       "rejected",
		"error":        "PRICE_TOO_LOW",
		"minimumPrice": rejection.MinimumPrice,
	})
}

func (ctrl *BookingController) CreateBooking(c *gin.Context) {
	var payload CreateBookingRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "error.invalidPayload", err.Error())
		return
	}

	booking, rejection, err := ctrl.BookingSvc.Create(services.CreateBookingInput{
		TenantID:       payload.TenantID,
		PropertyID:     payload.PropertyID,
		CheckIn:        payload.CheckIn,
		CheckOut:       payload.CheckOut,
		Guests:         payload.Guests,
		RequestedPrice: payload.RequestedPrice,
	})
	if err != nil {
		respondDomainError(c, err)
		return
	}
	if rejection != nil {
		priceTooLow(c, rejection)
		return
	}

	utils.JSONSuccess(c, http.StatusCreated, booking)
}

func (ctrl *BookingController) GetBookings(c *gin.Context) {
	bookings, err := ctrl.BookingSvc.All()
	if err != nil {
		respondDomainError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, bookings)
}

func (ctrl *BookingController) GetBookingDetails(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	booking, err := ctrl.BookingSvc.GetByID(id)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, booking)
}

func (ctrl *BookingController) UpdateBooking(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var payload UpdateBookingRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "error.invalidPayload", err.Error())
		return
	}

	booking, rejection, err := ctrl.BookingSvc.Update(id, payload.UserID, services.UpdateBookingInput{
		CheckIn:        payload.CheckIn,
		CheckOut:       payload.CheckOut,
		Guests:         payload.Guests,
		RequestedPrice: payload.RequestedPrice,
	})
	if err != nil {
		respondDomainError(c, err)
		return
	}
	if rejection != nil {
		priceTooLow(c, rejection)
		return
	}

	utils.JSONSuccess(c, http.StatusOK, booking)
}

func (ctrl *BookingController) CancelBooking(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	userID, ok := parseUserIDQuery(c)
	if !ok {
		return
	}

	booking, err := ctrl.BookingSvc.Cancel(id, userID)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, booking)
}

func (ctrl *BookingController) AcceptNegotiation(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var payload ActorPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "error.invalidPayload", err.Error())
		return
	}

	booking, err := ctrl.BookingSvc.Accept(id, payload.UserID)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, booking)
}

func (ctrl *BookingController) RejectNegotiation(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var payload ActorPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "error.invalidPayload", err.Error())
		return
	}

	booking, err := ctrl.BookingSvc.Reject(id, payload.UserID)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, booking)
}

func (ctrl *BookingController) PayBooking(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var payload PayPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "error.invalidPayload", err.Error())
		return
	}

	booking, err := ctrl.BookingSvc.Pay(id, payload.TenantID, payload.TxHash)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, booking)
}

func (ctrl *BookingController) TenantCheckout(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var payload ActorPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "error.invalidPayload", err.Error())
		return
	}

	booking, err := ctrl.BookingSvc.TenantCheckout(id, payload.UserID)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, booking)
}

// OwnerConfirmCheckout completes the booking. Settlement dispatch happens
// after the transition has committed; a dispatch failure is reported as a
// degraded success with the payout left retryable, never as a rollback.
func (ctrl *BookingController) OwnerConfirmCheckout(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var payload ActorPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "error.invalidPayload", err.Error())
		return
	}

	booking, payout, err := ctrl.BookingSvc.OwnerConfirmCheckout(id, payload.UserID)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	dispatched, dispatchErr := ctrl.SettlementSvc.Dispatch(payout.ID)
	payoutStatus := payout.Status
	if dispatched != nil {
		payoutStatus = dispatched.Status
	}
	resp := gin.H{
		"status": "success",
		"data":   booking,
		"payout": payoutStatus,
	}
	if dispatchErr != nil {
		resp["payoutError"] = dispatchErr.Error()
	}
	c.JSON(http.StatusOK, resp)
}

func (ctrl *BookingController) ReportDispute(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var payload ActorPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "error.invalidPayload", err.Error())
		return
	}

	booking, err := ctrl.BookingSvc.ReportDispute(id, payload.UserID)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, booking)
}

// ---------------------------
// Tenant / owner queries
// ---------------------------

func (ctrl *BookingController) GetCurrentByTenant(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	booking, err := ctrl.BookingSvc.CurrentByTenant(id)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, booking)
}

func (ctrl *BookingController) GetPendingByTenant(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	bookings, err := ctrl.BookingSvc.PendingByTenant(id)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, bookings)
}

func (ctrl *BookingController) GetAwaitingPaymentByTenant(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	bookings, err := ctrl.BookingSvc.AwaitingPaymentByTenant(id)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, bookings)
}

func (ctrl *BookingController) GetByOwner(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	view := c.DefaultQuery("view", "current")
	bookings, err := ctrl.BookingSvc.ByOwner(id, view)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, bookings)
}
