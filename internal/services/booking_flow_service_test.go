package services_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mentorhub/booking-api/internal/models"
	"github.com/mentorhub/booking-api/internal/services"
	apperrors "github.com/mentorhub/booking-api/pkg/errors"
)

func TestOpenDialog(t *testing.T) {
	mockClient := new(MockMarketplaceClient)
	service, _ := newFlowService(mockClient)
	ctx := context.Background()

	mockClient.On("GetSessionTypes", ctx, "m-1").Return(sampleCatalog(), nil).Once()

	view, err := service.OpenDialog(ctx, testSession(), "m-1")
	require.NoError(t, err)

	assert.NotEmpty(t, view.ID)
	assert.Equal(t, "m-1", view.MentorID)
	assert.Equal(t, 1, view.Stage)
	assert.Equal(t, "select_session_type", view.StageName)
	assert.Equal(t, models.LoadReady, view.CatalogStatus)
	assert.Len(t, view.SessionTypes, 2)
	assert.False(t, view.CanProceed, "no session type selected yet")

	// Contact is seeded from the signed-in user.
	assert.Equal(t, "Dana", view.Selection.Contact.Name)
	assert.Equal(t, "dana@example.com", view.Selection.Contact.Email)

	mockClient.AssertExpectations(t)
}

func TestOpenDialog_CatalogLoadFailure(t *testing.T) {
	mockClient := new(MockMarketplaceClient)
	service, _ := newFlowService(mockClient)
	ctx := context.Background()

	mockClient.On("GetSessionTypes", ctx, "m-1").
		Return(nil, apperrors.UnavailableError("getSessionTypes")).Once()

	view, err := service.OpenDialog(ctx, testSession(), "m-1")
	require.NoError(t, err, "a failed catalog load still opens the dialog")

	assert.Equal(t, models.LoadFailed, view.CatalogStatus)
	assert.Contains(t, view.StageErrors, "select_session_type")

	// The failure is retryable: a reload that succeeds clears the error.
	mockClient.On("GetSessionTypes", ctx, "m-1").Return(sampleCatalog(), nil).Once()

	view, err = service.Reload(ctx, testSession(), view.ID)
	require.NoError(t, err)
	assert.Equal(t, models.LoadReady, view.CatalogStatus)
	assert.NotContains(t, view.StageErrors, "select_session_type")

	mockClient.AssertExpectations(t)
}

func TestSelectSessionType_UnknownID(t *testing.T) {
	mockClient := new(MockMarketplaceClient)
	service, _ := newFlowService(mockClient)
	ctx := context.Background()

	mockClient.On("GetSessionTypes", ctx, "m-1").Return(sampleCatalog(), nil).Once()

	view, err := service.OpenDialog(ctx, testSession(), "m-1")
	require.NoError(t, err)

	_, err = service.SelectSessionType(ctx, testSession(), view.ID, &models.SelectSessionTypeRequest{
		SessionTypeID: "st-missing",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestAdvance_IncompleteStageIsNoOp(t *testing.T) {
	mockClient := new(MockMarketplaceClient)
	service, _ := newFlowService(mockClient)
	ctx := context.Background()

	mockClient.On("GetSessionTypes", ctx, "m-1").Return(sampleCatalog(), nil).Once()

	view, err := service.OpenDialog(ctx, testSession(), "m-1")
	require.NoError(t, err)

	view, err = service.Advance(ctx, testSession(), view.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, view.Stage, "advance without a selection stays put")

	mockClient.AssertExpectations(t)
}

func TestAdvance_LoadsAvailabilityOnEnteringDateTimeStage(t *testing.T) {
	mockClient := new(MockMarketplaceClient)
	service, _ := newFlowService(mockClient)
	ctx := context.Background()

	mockClient.On("GetSessionTypes", ctx, "m-1").Return(sampleCatalog(), nil).Once()
	mockClient.On("GetAvailability", ctx, "m-1", mock.Anything, mock.Anything).
		Return(sampleSlots(), nil).Once()

	view, err := service.OpenDialog(ctx, testSession(), "m-1")
	require.NoError(t, err)

	_, err = service.SelectSessionType(ctx, testSession(), view.ID, &models.SelectSessionTypeRequest{SessionTypeID: "st-1"})
	require.NoError(t, err)

	view, err = service.Advance(ctx, testSession(), view.ID)
	require.NoError(t, err)

	assert.Equal(t, 2, view.Stage)
	assert.Equal(t, models.LoadReady, view.AvailabilityStatus)
	assert.Equal(t, []string{"2024-06-10", "2024-06-11"}, view.AvailableDates)
	assert.Empty(t, view.AvailableTimes, "no date selected yet")

	// Going back and forward again must not refetch.
	view, err = service.Retreat(ctx, testSession(), view.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, view.Stage)
	assert.Equal(t, "st-1", view.Selection.SessionTypeID, "retreat keeps the selection")

	view, err = service.Advance(ctx, testSession(), view.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, view.Stage)

	mockClient.AssertExpectations(t)
}

func TestSetSchedule(t *testing.T) {
	mockClient := new(MockMarketplaceClient)
	service, _ := newFlowService(mockClient)
	ctx := context.Background()

	mockClient.On("GetSessionTypes", ctx, "m-1").Return(sampleCatalog(), nil).Once()
	mockClient.On("GetAvailability", ctx, "m-1", mock.Anything, mock.Anything).
		Return(sampleSlots(), nil).Once()

	view, err := service.OpenDialog(ctx, testSession(), "m-1")
	require.NoError(t, err)
	_, err = service.SelectSessionType(ctx, testSession(), view.ID, &models.SelectSessionTypeRequest{SessionTypeID: "st-1"})
	require.NoError(t, err)
	_, err = service.Advance(ctx, testSession(), view.ID)
	require.NoError(t, err)

	// A slot the mentor never offered is rejected.
	_, err = service.SetSchedule(ctx, testSession(), view.ID, &models.ScheduleRequest{
		Date: "2024-06-10", Time: "11:00", Timezone: "IST",
	})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	// An unavailable slot is rejected even though it appears in the feed.
	_, err = service.SetSchedule(ctx, testSession(), view.ID, &models.ScheduleRequest{
		Date: "2024-06-10", Time: "13:00", Timezone: "IST",
	})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	// An unknown timezone label is rejected at selection time.
	_, err = service.SetSchedule(ctx, testSession(), view.ID, &models.ScheduleRequest{
		Date: "2024-06-10", Time: "3:00 PM", Timezone: "Neverland/Nowhere",
	})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	view, err = service.SetSchedule(ctx, testSession(), view.ID, &models.ScheduleRequest{
		Date: "2024-06-10", Time: "3:00 PM", Timezone: "IST",
	})
	require.NoError(t, err)
	assert.True(t, view.CanProceed)
	assert.Equal(t, []string{"09:00", "3:00 PM"}, view.AvailableTimes, "chronological, not lexicographic")

	mockClient.AssertExpectations(t)
}

// walkToPayment drives a dialog through the first three stages.
func walkToPayment(t *testing.T, service *services.BookingFlowService, mockClient *MockMarketplaceClient) string {
	t.Helper()
	ctx := context.Background()

	mockClient.On("GetSessionTypes", ctx, "m-1").Return(sampleCatalog(), nil).Once()
	mockClient.On("GetAvailability", ctx, "m-1", mock.Anything, mock.Anything).
		Return(sampleSlots(), nil).Once()

	view, err := service.OpenDialog(ctx, testSession(), "m-1")
	require.NoError(t, err)
	dialogID := view.ID

	_, err = service.SelectSessionType(ctx, testSession(), dialogID, &models.SelectSessionTypeRequest{SessionTypeID: "st-1"})
	require.NoError(t, err)
	_, err = service.Advance(ctx, testSession(), dialogID)
	require.NoError(t, err)

	_, err = service.SetSchedule(ctx, testSession(), dialogID, &models.ScheduleRequest{
		Date: "2024-06-10", Time: "3:00 PM", Timezone: "IST",
	})
	require.NoError(t, err)
	_, err = service.Advance(ctx, testSession(), dialogID)
	require.NoError(t, err)

	_, err = service.SetContact(ctx, testSession(), dialogID, &models.ContactRequest{
		Name: "Dana", Email: "dana@example.com", Notes: "Looking for a career switch plan",
	})
	require.NoError(t, err)

	view, err = service.Advance(ctx, testSession(), dialogID)
	require.NoError(t, err)
	require.Equal(t, 4, view.Stage)

	return dialogID
}

func TestConfirm(t *testing.T) {
	mockClient := new(MockMarketplaceClient)
	service, _ := newFlowService(mockClient)
	ctx := context.Background()

	dialogID := walkToPayment(t, service, mockClient)

	mockClient.On("CreateBooking", ctx, mock.MatchedBy(func(req *models.BookingRequest) bool {
		// 3:00 PM IST plus the 45-minute session length.
		return req.MentorID == "m-1" &&
			req.SessionTypeID == "st-1" &&
			req.ScheduledStart == "2024-06-10T15:00:00+05:30" &&
			req.ScheduledEnd == "2024-06-10T15:45:00+05:30" &&
			req.Timezone == "IST" &&
			req.Notes == "Looking for a career switch plan"
	})).Return(&models.BookingCreated{ID: "bk-77"}, nil).Once()

	view, err := service.Confirm(ctx, testSession(), dialogID)
	require.NoError(t, err)

	assert.Equal(t, 5, view.Stage)
	assert.Equal(t, "confirmed", view.StageName)
	assert.Equal(t, "bk-77", view.BookingID)

	// The terminal stage accepts no further transitions.
	view, err = service.Retreat(ctx, testSession(), dialogID)
	require.NoError(t, err)
	assert.Equal(t, 5, view.Stage)

	mockClient.AssertExpectations(t)
}

func TestConfirm_UpstreamFailureIsRetryable(t *testing.T) {
	mockClient := new(MockMarketplaceClient)
	service, _ := newFlowService(mockClient)
	ctx := context.Background()

	dialogID := walkToPayment(t, service, mockClient)

	mockClient.On("CreateBooking", ctx, mock.Anything).
		Return(nil, apperrors.UnavailableError("createBooking")).Once()

	view, err := service.Confirm(ctx, testSession(), dialogID)
	require.NoError(t, err, "an upstream failure renders inside the dialog")
	assert.Equal(t, 4, view.Stage, "the dialog stays on the payment stage")
	assert.Contains(t, view.StageErrors, "payment")
	assert.Empty(t, view.BookingID)

	// A retry after the failure goes through.
	mockClient.On("CreateBooking", ctx, mock.Anything).
		Return(&models.BookingCreated{ID: "bk-78"}, nil).Once()

	view, err = service.Confirm(ctx, testSession(), dialogID)
	require.NoError(t, err)
	assert.Equal(t, 5, view.Stage)
	assert.Equal(t, "bk-78", view.BookingID)
	assert.NotContains(t, view.StageErrors, "payment")

	mockClient.AssertExpectations(t)
}

func TestConfirm_SingleFlight(t *testing.T) {
	mockClient := new(MockMarketplaceClient)
	service, _ := newFlowService(mockClient)
	ctx := context.Background()

	dialogID := walkToPayment(t, service, mockClient)

	entered := make(chan struct{})
	release := make(chan struct{})

	mockClient.On("CreateBooking", ctx, mock.Anything).
		Run(func(mock.Arguments) {
			close(entered)
			<-release
		}).
		Return(&models.BookingCreated{ID: "bk-77"}, nil).Once()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		view, err := service.Confirm(ctx, testSession(), dialogID)
		assert.NoError(t, err)
		assert.Equal(t, "bk-77", view.BookingID)
	}()

	<-entered
	_, err := service.Confirm(ctx, testSession(), dialogID)
	require.Error(t, err, "a second confirm while one is in flight is rejected")
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	close(release)
	wg.Wait()

	mockClient.AssertExpectations(t)
}

func TestReload_StaleAvailabilityResponseIsDropped(t *testing.T) {
	mockClient := new(MockMarketplaceClient)
	service, _ := newFlowService(mockClient)
	ctx := context.Background()

	mockClient.On("GetSessionTypes", ctx, "m-1").Return(sampleCatalog(), nil).Once()
	mockClient.On("GetAvailability", ctx, "m-1", mock.Anything, mock.Anything).
		Return(sampleSlots(), nil).Once()

	view, err := service.OpenDialog(ctx, testSession(), "m-1")
	require.NoError(t, err)
	dialogID := view.ID

	_, err = service.SelectSessionType(ctx, testSession(), dialogID, &models.SelectSessionTypeRequest{SessionTypeID: "st-1"})
	require.NoError(t, err)
	_, err = service.Advance(ctx, testSession(), dialogID)
	require.NoError(t, err)

	staleSlots := []models.AvailabilitySlot{
		{Date: "2024-06-20", Time: "10:00", Timezone: "IST", Available: true},
	}
	freshSlots := []models.AvailabilitySlot{
		{Date: "2024-06-21", Time: "11:00", Timezone: "IST", Available: true},
	}

	entered := make(chan struct{})
	release := make(chan struct{})

	// The first reload stalls in flight; the second completes before it.
	mockClient.On("GetAvailability", ctx, "m-1", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) {
			close(entered)
			<-release
		}).
		Return(staleSlots, nil).Once()
	mockClient.On("GetAvailability", ctx, "m-1", mock.Anything, mock.Anything).
		Return(freshSlots, nil).Once()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := service.Reload(ctx, testSession(), dialogID)
		assert.NoError(t, err)
	}()

	<-entered
	view, err = service.Reload(ctx, testSession(), dialogID)
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-06-21"}, view.AvailableDates)

	close(release)
	wg.Wait()

	// The late result must not have overwritten the newer one.
	view, err = service.GetDialog(ctx, testSession(), dialogID)
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-06-21"}, view.AvailableDates)
	assert.Equal(t, models.LoadReady, view.AvailabilityStatus)

	mockClient.AssertExpectations(t)
}

func TestGetDialog_WrongUser(t *testing.T) {
	mockClient := new(MockMarketplaceClient)
	service, _ := newFlowService(mockClient)
	ctx := context.Background()

	mockClient.On("GetSessionTypes", ctx, "m-1").Return(sampleCatalog(), nil).Once()

	view, err := service.OpenDialog(ctx, testSession(), "m-1")
	require.NoError(t, err)

	other := &models.UserSession{UserID: "u-2", Email: "eve@example.com", Name: "Eve"}
	_, err = service.GetDialog(ctx, other, view.ID)
	assert.ErrorIs(t, err, apperrors.ErrAccessDenied)
}

func TestGetDialog_NotFound(t *testing.T) {
	mockClient := new(MockMarketplaceClient)
	service, _ := newFlowService(mockClient)

	_, err := service.GetDialog(context.Background(), testSession(), "no-such-dialog")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestCloseDialog(t *testing.T) {
	mockClient := new(MockMarketplaceClient)
	service, dialogs := newFlowService(mockClient)
	ctx := context.Background()

	mockClient.On("GetSessionTypes", ctx, "m-1").Return(sampleCatalog(), nil).Once()

	view, err := service.OpenDialog(ctx, testSession(), "m-1")
	require.NoError(t, err)

	require.NoError(t, service.CloseDialog(ctx, testSession(), view.ID))
	assert.Equal(t, 0, dialogs.Count())

	// Closing an already-gone dialog is a no-op.
	assert.NoError(t, service.CloseDialog(ctx, testSession(), view.ID))
}
