package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/mentorhub/booking-api/config"
	"github.com/mentorhub/booking-api/internal/availability"
	"github.com/mentorhub/booking-api/internal/models"
	apperrors "github.com/mentorhub/booking-api/pkg/errors"
	"github.com/mentorhub/booking-api/pkg/logger"
	"github.com/mentorhub/booking-api/pkg/metrics"
)

// RescheduleService moves existing bookings to a new slot. Unlike the dialog
// flow it is stateless: the reschedule form fetches availability on mount and
// submits in one shot, carrying the original session duration with it.
type RescheduleService struct {
	marketplace MarketplaceClient
	config      *config.Config
}

// NewRescheduleService creates a new reschedule service instance
func NewRescheduleService(marketplace MarketplaceClient, cfg *config.Config) *RescheduleService {
	return &RescheduleService{
		marketplace: marketplace,
		config:      cfg,
	}
}

// MentorAvailability returns the mentor's bookable slots for the configured
// window, with the date list already derived for the picker.
func (s *RescheduleService) MentorAvailability(ctx context.Context, mentorID string) (*models.MentorAvailabilityView, error) {
	start := time.Now()
	end := start.AddDate(0, 0, s.config.Booking.WindowDays)

	slots, err := s.marketplace.GetAvailability(ctx, mentorID, start, end)
	if err != nil {
		metrics.AvailabilityLoads.WithLabelValues("error").Inc()
		logger.Error("Failed to load availability for reschedule",
			zap.String("mentor_id", mentorID),
			zap.Error(err))
		return nil, err
	}
	metrics.AvailabilityLoads.WithLabelValues("success").Inc()

	open := make([]models.AvailabilitySlot, 0, len(slots))
	for _, slot := range slots {
		if slot.Available {
			open = append(open, slot)
		}
	}

	return &models.MentorAvailabilityView{
		MentorID: mentorID,
		Dates:    availability.AvailableDates(slots),
		Slots:    open,
	}, nil
}

// Reschedule moves a booking to the given slot. The end time is derived from
// the duration the caller passes in, which is the original booking's session
// length.
func (s *RescheduleService) Reschedule(ctx context.Context, bookingID string, payload *models.ReschedulePayload) error {
	loc, err := availability.ResolveLocation(payload.Timezone)
	if err != nil {
		return apperrors.InvalidInputError("timezone", err.Error())
	}

	newStart, err := availability.Combine(payload.Date, payload.Time, loc)
	if err != nil {
		return apperrors.InvalidInputError("schedule", err.Error())
	}
	newEnd := newStart.Add(time.Duration(payload.DurationMinutes) * time.Minute)

	req := &models.RescheduleRequest{
		NewScheduledStart: newStart.Format(time.RFC3339),
		NewScheduledEnd:   newEnd.Format(time.RFC3339),
		Reason:            payload.Reason,
	}

	if err := s.marketplace.RescheduleBooking(ctx, bookingID, req); err != nil {
		metrics.RescheduleSubmissions.WithLabelValues("error").Inc()
		logger.Error("Reschedule submission failed",
			zap.String("booking_id", bookingID),
			zap.Error(err))
		return err
	}

	metrics.RescheduleSubmissions.WithLabelValues("success").Inc()
	logger.Info("Booking rescheduled",
		zap.String("booking_id", bookingID),
		zap.String("new_start", req.NewScheduledStart))
	return nil
}
