// controllers/reclamation_controller.go
package controllers

import (
	"net/http"
	"strconv"

	"rental-backend/services"
	"rental-backend/utils"

	"github.com/gin-gonic/gin"
)

type CreateReclamationRequest struct {
	BookingID   uint     `json:"bookingId" binding:"required"`
	UserID      uint     `json:"userId" binding:"required"`
	Role        string   `json:"role" binding:"required"`
	Type        string   `json:"type" binding:"required"`
	Severity    string   `json:"severity,omitempty"`
	Title       string   `json:"title,omitempty"`
	Description string   `json:"description,omitempty"`
	Images      []string `json:"images,omitempty"`
}

type UpdateReclamationRequest struct {
	UserID      uint     `json:"userId" binding:"required"`
	Title       *string  `json:"title,omitempty"`
	Description *string  `json:"description,omitempty"`
	Images      []string `json:"images,omitempty"`
}

type SeverityPayload struct {
	Severity string `json:"severity" binding:"required"`
}

type ResolvePayload struct {
	Notes    string `json:"notes" binding:"required"`
	Approved bool   `json:"approved"`
}

type RejectPayload struct {
	Notes string `json:"notes" binding:"required"`
}

type ReclamationController struct {
	ReclamationSvc *services.ReclamationService
}

func NewReclamationController(svc *services.ReclamationService) *ReclamationController {
	return &ReclamationController{ReclamationSvc: svc}
}

func (ctrl *ReclamationController) CreateReclamation(c *gin.Context) {
	var payload CreateReclamationRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "error.invalidPayload", err.Error())
		return
	}

	reclamation, err := ctrl.ReclamationSvc.Create(services.CreateReclamationInput{
		BookingID:     payload.BookingID,
		ComplainantID: payload.UserID,
		Role:          payload.Role,
		Type:          payload.Type,
		Severity:      payload.Severity,
		Title:         payload.Title,
		Description:   payload.Description,
		Images:        payload.Images,
	})
	if err != nil {
		respondDomainError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusCreated, reclamation)
}

// GetReclamation looks up the single reclamation for a (booking,
// complainant) pair.
func (ctrl *ReclamationController) GetReclamation(c *gin.Context) {
	bookingID, err1 := strconv.ParseUint(c.Query("bookingId"), 10, 64)
	complainantID, err2 := strconv.ParseUint(c.Query("complainantId"), 10, 64)
	if err1 != nil || err2 != nil || bookingID == 0 || complainantID == 0 {
		utils.JSONError(c, http.StatusBadRequest, "error.invalidQuery", "bookingId and complainantId query parameters are required")
		return
	}

	reclamation, err := ctrl.ReclamationSvc.GetByBookingAndComplainant(uint(bookingID), uint(complainantID))
	if err != nil {
		respondDomainError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, reclamation)
}

func (ctrl *ReclamationController) UpdateReclamation(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var payload UpdateReclamationRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "error.invalidPayload", err.Error())
		return
	}

	reclamation, err := ctrl.ReclamationSvc.Update(id, payload.UserID, services.UpdateReclamationInput{
		Title:       payload.Title,
		Description: payload.Description,
		Images:      payload.Images,
	})
	if err != nil {
		respondDomainError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, reclamation)
}

func (ctrl *ReclamationController) DeleteReclamation(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	userID, ok := parseUserIDQuery(c)
	if !ok {
		return
	}

	if err := ctrl.ReclamationSvc.Delete(id, userID); err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "reclamation withdrawn"})
}

// ---------------------------
// Admin operations
// ---------------------------

func (ctrl *ReclamationController) ListReclamations(c *gin.Context) {
	list, err := ctrl.ReclamationSvc.ListByStatus(c.Query("status"))
	if err != nil {
		respondDomainError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, list)
}

func (ctrl *ReclamationController) UpdateSeverity(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var payload SeverityPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "error.invalidPayload", err.Error())
		return
	}

	reclamation, err := ctrl.ReclamationSvc.UpdateSeverity(id, payload.Severity)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, reclamation)
}

func (ctrl *ReclamationController) ReviewReclamation(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	reclamation, err := ctrl.ReclamationSvc.Review(id)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, reclamation)
}

func (ctrl *ReclamationController) ResolveReclamation(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var payload ResolvePayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "error.invalidPayload", err.Error())
		return
	}

	reclamation, err := ctrl.ReclamationSvc.Resolve(id, payload.Notes, payload.Approved)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, reclamation)
}

func (ctrl *ReclamationController) RejectReclamation(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var payload RejectPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "error.invalidPayload", err.Error())
		return
	}

	reclamation, err := ctrl.ReclamationSvc.Reject(id, payload.Notes)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, reclamation)
}
