package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mentorhub/booking-api/internal/middleware"
	"github.com/mentorhub/booking-api/internal/models"
	"github.com/mentorhub/booking-api/internal/services"
)

// RescheduleHandler exposes the reschedule form's endpoints: availability for
// the picker and the one-shot reschedule submission.
type RescheduleHandler struct {
	service services.RescheduleServiceInterface
}

// NewRescheduleHandler creates a new RescheduleHandler
func NewRescheduleHandler(service services.RescheduleServiceInterface) *RescheduleHandler {
	return &RescheduleHandler{
		service: service,
	}
}

// MentorAvailability handles GET /api/v1/mentors/:id/availability
func (h *RescheduleHandler) MentorAvailability(c *gin.Context) {
	if _, err := middleware.GetUserSession(c); err != nil {
		respondError(c, http.StatusUnauthorized, "Unauthorized", err)
		return
	}

	mentorID := c.Param("id")
	if mentorID == "" {
		respondError(c, http.StatusBadRequest, "Invalid mentor ID", nil)
		return
	}

	view, err := h.service.MentorAvailability(c.Request.Context(), mentorID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// Reschedule handles POST /api/v1/bookings/:id/reschedule
func (h *RescheduleHandler) Reschedule(c *gin.Context) {
	if _, err := middleware.GetUserSession(c); err != nil {
		respondError(c, http.StatusUnauthorized, "Unauthorized", err)
		return
	}

	bookingID := c.Param("id")
	if bookingID == "" {
		respondError(c, http.StatusBadRequest, "Invalid booking ID", nil)
		return
	}

	var payload models.ReschedulePayload
	if bindErr := c.ShouldBindJSON(&payload); bindErr != nil {
		respondErrorWithDetails(c, http.StatusBadRequest, "Invalid request body", ParseValidationErrors(bindErr), bindErr)
		return
	}

	if err := h.service.Reschedule(c.Request.Context(), bookingID, &payload); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
