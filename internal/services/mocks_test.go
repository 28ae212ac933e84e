package services_test

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/mentorhub/booking-api/internal/models"
)

// MockMarketplaceClient is a mock implementation of services.MarketplaceClient
type MockMarketplaceClient struct {
	mock.Mock
}

func (m *MockMarketplaceClient) GetSessionTypes(ctx context.Context, mentorID string) ([]models.SessionType, error) {
	args := m.Called(ctx, mentorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.SessionType), args.Error(1)
}

func (m *MockMarketplaceClient) GetAvailability(ctx context.Context, mentorID string, start, end time.Time) ([]models.AvailabilitySlot, error) {
	args := m.Called(ctx, mentorID, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.AvailabilitySlot), args.Error(1)
}

func (m *MockMarketplaceClient) CreateBooking(ctx context.Context, req *models.BookingRequest) (*models.BookingCreated, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BookingCreated), args.Error(1)
}

func (m *MockMarketplaceClient) RescheduleBooking(ctx context.Context, bookingID string, req *models.RescheduleRequest) error {
	args := m.Called(ctx, bookingID, req)
	return args.Error(0)
}
