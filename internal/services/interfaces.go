package services

import (
	"context"
	"time"

	"github.com/mentorhub/booking-api/internal/models"
	"github.com/mentorhub/booking-api/internal/upstream"
)

// MarketplaceClient is the slice of the marketplace API the booking services
// consume. Mocked in service tests.
type MarketplaceClient interface {
	GetSessionTypes(ctx context.Context, mentorID string) ([]models.SessionType, error)
	GetAvailability(ctx context.Context, mentorID string, start, end time.Time) ([]models.AvailabilitySlot, error)
	CreateBooking(ctx context.Context, req *models.BookingRequest) (*models.BookingCreated, error)
	RescheduleBooking(ctx context.Context, bookingID string, req *models.RescheduleRequest) error
}

// BookingFlowServiceInterface defines the interface for booking dialog operations
type BookingFlowServiceInterface interface {
	OpenDialog(ctx context.Context, session *models.UserSession, mentorID string) (*models.DialogView, error)
	GetDialog(ctx context.Context, session *models.UserSession, dialogID string) (*models.DialogView, error)
	SelectSessionType(ctx context.Context, session *models.UserSession, dialogID string, req *models.SelectSessionTypeRequest) (*models.DialogView, error)
	SetSchedule(ctx context.Context, session *models.UserSession, dialogID string, req *models.ScheduleRequest) (*models.DialogView, error)
	SetContact(ctx context.Context, session *models.UserSession, dialogID string, req *models.ContactRequest) (*models.DialogView, error)
	Advance(ctx context.Context, session *models.UserSession, dialogID string) (*models.DialogView, error)
	Retreat(ctx context.Context, session *models.UserSession, dialogID string) (*models.DialogView, error)
	Reload(ctx context.Context, session *models.UserSession, dialogID string) (*models.DialogView, error)
	Confirm(ctx context.Context, session *models.UserSession, dialogID string) (*models.DialogView, error)
	CloseDialog(ctx context.Context, session *models.UserSession, dialogID string) error
}

// RescheduleServiceInterface defines the interface for moving existing bookings
type RescheduleServiceInterface interface {
	MentorAvailability(ctx context.Context, mentorID string) (*models.MentorAvailabilityView, error)
	Reschedule(ctx context.Context, bookingID string, payload *models.ReschedulePayload) error
}

// Ensure services implement their interfaces
var _ MarketplaceClient = (*upstream.HTTPClient)(nil)
var _ BookingFlowServiceInterface = (*BookingFlowService)(nil)
var _ RescheduleServiceInterface = (*RescheduleService)(nil)
