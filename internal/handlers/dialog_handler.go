package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mentorhub/booking-api/internal/middleware"
	"github.com/mentorhub/booking-api/internal/models"
	"github.com/mentorhub/booking-api/internal/services"
)

// DialogHandler exposes the booking dialog endpoints. Every mutation returns
// the full dialog view so the front-end always renders from one source of
// truth.
type DialogHandler struct {
	service services.BookingFlowServiceInterface
}

// NewDialogHandler creates a new DialogHandler
func NewDialogHandler(service services.BookingFlowServiceInterface) *DialogHandler {
	return &DialogHandler{
		service: service,
	}
}

// Open handles POST /api/v1/dialogs
// Opens a booking dialog against one mentor.
func (h *DialogHandler) Open(c *gin.Context) {
	session, err := middleware.GetUserSession(c)
	if err != nil {
		respondError(c, http.StatusUnauthorized, "Unauthorized", err)
		return
	}

	var req models.OpenDialogRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		respondErrorWithDetails(c, http.StatusBadRequest, "Invalid request body", ParseValidationErrors(bindErr), bindErr)
		return
	}

	view, err := h.service.OpenDialog(c.Request.Context(), session, req.MentorID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, view)
}

// Get handles GET /api/v1/dialogs/:id
func (h *DialogHandler) Get(c *gin.Context) {
	session, err := middleware.GetUserSession(c)
	if err != nil {
		respondError(c, http.StatusUnauthorized, "Unauthorized", err)
		return
	}

	view, err := h.service.GetDialog(c.Request.Context(), session, c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// SelectSessionType handles PUT /api/v1/dialogs/:id/session-type
func (h *DialogHandler) SelectSessionType(c *gin.Context) {
	session, err := middleware.GetUserSession(c)
	if err != nil {
		respondError(c, http.StatusUnauthorized, "Unauthorized", err)
		return
	}

	var req models.SelectSessionTypeRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		respondErrorWithDetails(c, http.StatusBadRequest, "Invalid request body", ParseValidationErrors(bindErr), bindErr)
		return
	}

	view, err := h.service.SelectSessionType(c.Request.Context(), session, c.Param("id"), &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// SetSchedule handles PUT /api/v1/dialogs/:id/schedule
func (h *DialogHandler) SetSchedule(c *gin.Context) {
	session, err := middleware.GetUserSession(c)
	if err != nil {
		respondError(c, http.StatusUnauthorized, "Unauthorized", err)
		return
	}

	var req models.ScheduleRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		respondErrorWithDetails(c, http.StatusBadRequest, "Invalid request body", ParseValidationErrors(bindErr), bindErr)
		return
	}

	view, err := h.service.SetSchedule(c.Request.Context(), session, c.Param("id"), &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// SetContact handles PUT /api/v1/dialogs/:id/contact
func (h *DialogHandler) SetContact(c *gin.Context) {
	session, err := middleware.GetUserSession(c)
	if err != nil {
		respondError(c, http.StatusUnauthorized, "Unauthorized", err)
		return
	}

	var req models.ContactRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		respondErrorWithDetails(c, http.StatusBadRequest, "Invalid request body", ParseValidationErrors(bindErr), bindErr)
		return
	}

	view, err := h.service.SetContact(c.Request.Context(), session, c.Param("id"), &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// Advance handles POST /api/v1/dialogs/:id/advance
// A rejected advance is not an error: the returned view simply shows the
// unchanged stage.
func (h *DialogHandler) Advance(c *gin.Context) {
	h.transition(c, h.service.Advance)
}

// Retreat handles POST /api/v1/dialogs/:id/retreat
func (h *DialogHandler) Retreat(c *gin.Context) {
	h.transition(c, h.service.Retreat)
}

// Reload handles POST /api/v1/dialogs/:id/reload
// Retries the load owned by the current stage.
func (h *DialogHandler) Reload(c *gin.Context) {
	h.transition(c, h.service.Reload)
}

// Confirm handles POST /api/v1/dialogs/:id/confirm
func (h *DialogHandler) Confirm(c *gin.Context) {
	h.transition(c, h.service.Confirm)
}

// Close handles DELETE /api/v1/dialogs/:id
func (h *DialogHandler) Close(c *gin.Context) {
	session, err := middleware.GetUserSession(c)
	if err != nil {
		respondError(c, http.StatusUnauthorized, "Unauthorized", err)
		return
	}

	if err := h.service.CloseDialog(c.Request.Context(), session, c.Param("id")); err != nil {
		respondServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// transition is the shared shape of the body-less dialog operations.
func (h *DialogHandler) transition(c *gin.Context, op func(ctx context.Context, session *models.UserSession, dialogID string) (*models.DialogView, error)) {
	session, err := middleware.GetUserSession(c)
	if err != nil {
		respondError(c, http.StatusUnauthorized, "Unauthorized", err)
		return
	}

	view, err := op(c.Request.Context(), session, c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}
