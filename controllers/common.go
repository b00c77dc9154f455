package controllers

import (
	"errors"
	"net/http"

	"rental-backend/models"
	"rental-backend/utils"

	"github.com/gin-gonic/gin"
)

// respondDomainError maps the service error taxonomy onto HTTP statuses:
// validation -> 400, permission -> 403, not found -> 404, state conflicts
// and uniqueness violations -> 409, everything else -> 500.
func respondDomainError(c *gin.Context, err error) {
	var transition *models.InvalidTransitionError
	switch {
	case errors.As(err, &transition):
		utils.JSONError(c, http.StatusConflict, "error.conflict", transition.Error())

	case errors.Is(err, models.ErrConcurrentUpdate),
		errors.Is(err, models.ErrActiveBookingExists),
		errors.Is(err, models.ErrNegotiationExpired),
		errors.Is(err, models.ErrDuplicateReclamation):
		utils.JSONError(c, http.StatusConflict, "error.conflict", err.Error())

	case errors.Is(err, models.ErrValidation),
		errors.Is(err, models.ErrSeverityFixed):
		utils.JSONError(c, http.StatusBadRequest, "error.validation", err.Error())

	case errors.Is(err, models.ErrForbidden):
		utils.JSONError(c, http.StatusForbidden, "error.forbidden", err.Error())

	case errors.Is(err, models.ErrBookingNotFound),
		errors.Is(err, models.ErrPropertyNotFound),
		errors.Is(err, models.ErrUserNotFound),
		errors.Is(err, models.ErrReclamationNotFound),
		errors.Is(err, models.ErrPayoutNotFound):
		utils.JSONError(c, http.StatusNotFound, "error.notFound", err.Error())

	default:
		utils.JSONError(c, http.StatusInternalServerError, "error.internal", err.Error())
	}
}
