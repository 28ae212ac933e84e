package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mentorhub/booking-api/internal/models"
	apperrors "github.com/mentorhub/booking-api/pkg/errors"
)

func TestMentorAvailability(t *testing.T) {
	mockClient := new(MockMarketplaceClient)
	router, token := newTestRouter(t, mockClient)

	mockClient.On("GetAvailability", mock.Anything, "m-1", mock.Anything, mock.Anything).
		Return(testSlots(), nil).Once()

	w := doJSON(t, router, token, http.MethodGet, "/api/v1/mentors/m-1/availability", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var view models.MentorAvailabilityView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.Equal(t, "m-1", view.MentorID)
	assert.Equal(t, []string{"2024-06-10", "2024-06-11"}, view.Dates)

	mockClient.AssertExpectations(t)
}

func TestMentorAvailability_UpstreamFailure(t *testing.T) {
	mockClient := new(MockMarketplaceClient)
	router, token := newTestRouter(t, mockClient)

	mockClient.On("GetAvailability", mock.Anything, "m-1", mock.Anything, mock.Anything).
		Return(nil, apperrors.UnavailableError("getAvailability")).Once()

	w := doJSON(t, router, token, http.MethodGet, "/api/v1/mentors/m-1/availability", nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestReschedule(t *testing.T) {
	mockClient := new(MockMarketplaceClient)
	router, token := newTestRouter(t, mockClient)

	mockClient.On("RescheduleBooking", mock.Anything, "bk-77", mock.MatchedBy(func(req *models.RescheduleRequest) bool {
		return req.NewScheduledStart == "2024-06-12T10:00:00+05:30" &&
			req.NewScheduledEnd == "2024-06-12T10:30:00+05:30"
	})).Return(nil).Once()

	w := doJSON(t, router, token, http.MethodPost, "/api/v1/bookings/bk-77/reschedule", gin.H{
		"date":             "2024-06-12",
		"time":             "10:00",
		"timezone":         "IST",
		"duration_minutes": 30,
		"reason":           "schedule conflict",
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "success")

	mockClient.AssertExpectations(t)
}

func TestReschedule_ValidationError(t *testing.T) {
	mockClient := new(MockMarketplaceClient)
	router, token := newTestRouter(t, mockClient)

	// duration_minutes is required; a zero-length session makes no sense.
	w := doJSON(t, router, token, http.MethodPost, "/api/v1/bookings/bk-77/reschedule", gin.H{
		"date":     "2024-06-12",
		"time":     "10:00",
		"timezone": "IST",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockClient.AssertNotCalled(t, "RescheduleBooking")
}
