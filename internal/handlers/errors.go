package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mentorhub/booking-api/internal/wizard"
	apperrors "github.com/mentorhub/booking-api/pkg/errors"
)

// attachError attaches err to the gin context so the observability middleware
// can include the reason in the request log. c.Error() returns *gin.Error (not
// the error interface), so we suppress errcheck here intentionally.
func attachError(c *gin.Context, err error) {
	if err != nil {
		_ = c.Error(err) //nolint:errcheck
	}
}

// respondError sends an error JSON response and attaches the error to the gin context
// so the observability middleware can include the reason in the request log.
func respondError(c *gin.Context, status int, message string, err error) {
	attachError(c, err)
	c.JSON(status, gin.H{"error": message})
}

// respondErrorWithDetails sends an error response with an additional details field.
func respondErrorWithDetails(c *gin.Context, status int, message string, details any, err error) {
	attachError(c, err)
	c.JSON(status, gin.H{"error": message, "details": details})
}

// respondServiceError maps service-layer errors to HTTP statuses. Anything not
// covered by a sentinel is a 500.
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		respondError(c, http.StatusNotFound, "Not found", err)
	case errors.Is(err, apperrors.ErrAccessDenied):
		respondError(c, http.StatusForbidden, "Access denied", err)
	case errors.Is(err, apperrors.ErrInvalidInput):
		respondErrorWithDetails(c, http.StatusBadRequest, "Invalid input", err.Error(), err)
	case errors.Is(err, apperrors.ErrConflict), errors.Is(err, wizard.ErrWrongStage):
		respondError(c, http.StatusConflict, "Conflicting operation", err)
	case errors.Is(err, apperrors.ErrUnauthorized):
		respondError(c, http.StatusUnauthorized, "Unauthorized", err)
	case errors.Is(err, apperrors.ErrUnavailable):
		respondError(c, http.StatusBadGateway, "Upstream service unavailable", err)
	default:
		respondError(c, http.StatusInternalServerError, "Internal error", err)
	}
}
