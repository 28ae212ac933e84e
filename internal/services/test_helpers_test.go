package services_test

import (
	"time"

	"github.com/mentorhub/booking-api/config"
	"github.com/mentorhub/booking-api/internal/models"
	"github.com/mentorhub/booking-api/internal/services"
	"github.com/mentorhub/booking-api/internal/store"
	"github.com/mentorhub/booking-api/pkg/logger"
)

func init() {
	// Initialize logger for tests
	if err := logger.Initialize(logger.Config{
		Level:       "debug",
		Environment: "development",
	}); err != nil {
		panic(err)
	}
}

func testConfig() *config.Config {
	return &config.Config{
		Booking: config.BookingConfig{
			WindowDays:       30,
			DialogTTLMinutes: 45,
		},
	}
}

func newFlowService(m services.MarketplaceClient) (*services.BookingFlowService, *store.DialogStore) {
	dialogs := store.NewDialogStore(time.Minute)
	return services.NewBookingFlowService(m, dialogs, testConfig()), dialogs
}

func testSession() *models.UserSession {
	return &models.UserSession{
		UserID: "u-1",
		Email:  "dana@example.com",
		Name:   "Dana",
	}
}

func sampleCatalog() []models.SessionType {
	return []models.SessionType{
		{ID: "st-1", Name: "Career Strategy Call", DurationMinutes: 45, PriceMinorUnits: 5000, Mode: "video"},
		{ID: "st-2", Name: "Resume Review", DurationMinutes: 30, PriceMinorUnits: 3000, Mode: "async"},
	}
}

func sampleSlots() []models.AvailabilitySlot {
	return []models.AvailabilitySlot{
		{Date: "2024-06-11", Time: "10:00", Timezone: "IST", Available: true},
		{Date: "2024-06-10", Time: "3:00 PM", Timezone: "IST", Available: true},
		{Date: "2024-06-10", Time: "09:00", Timezone: "IST", Available: true},
		{Date: "2024-06-10", Time: "13:00", Timezone: "IST", Available: false},
	}
}
