package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mentorhub/booking-api/config"
	"github.com/mentorhub/booking-api/internal/availability"
	"github.com/mentorhub/booking-api/internal/models"
	"github.com/mentorhub/booking-api/internal/store"
	"github.com/mentorhub/booking-api/internal/wizard"
	apperrors "github.com/mentorhub/booking-api/pkg/errors"
	"github.com/mentorhub/booking-api/pkg/logger"
	"github.com/mentorhub/booking-api/pkg/metrics"
)

// User-facing messages for stage-scoped failures. Rendered inside the dialog
// as retryable errors, never as empty states.
const (
	msgCatalogLoadFailed      = "Could not load session types. Please try again."
	msgAvailabilityLoadFailed = "Could not load availability. Please try again."
	msgSubmissionFailed       = "Could not complete your booking. Please try again."
)

// BookingFlowService orchestrates the five-stage booking dialog: it owns the
// dialog lifecycle, loads catalog and availability data from the marketplace
// and performs the final submission. Wizard transition rules live in the
// wizard package; this service wires them to upstream data and the store.
type BookingFlowService struct {
	marketplace MarketplaceClient
	dialogs     *store.DialogStore
	config      *config.Config
}

// NewBookingFlowService creates a new booking flow service instance
func NewBookingFlowService(marketplace MarketplaceClient, dialogs *store.DialogStore, cfg *config.Config) *BookingFlowService {
	return &BookingFlowService{
		marketplace: marketplace,
		dialogs:     dialogs,
		config:      cfg,
	}
}

// OpenDialog starts a fresh dialog against one mentor, seeded with the
// signed-in user's contact details, and loads the mentor's session-type
// catalog. A failed catalog load still opens the dialog: the first stage
// renders the failure with a retry affordance.
func (s *BookingFlowService) OpenDialog(ctx context.Context, session *models.UserSession, mentorID string) (*models.DialogView, error) {
	d := store.NewDialog(mentorID, session.UserID, wizard.New(session.SeedContact()))
	metrics.DialogsOpened.Inc()

	logger.Info("Booking dialog opened",
		zap.String("dialog_id", d.ID),
		zap.String("mentor_id", mentorID))

	s.refreshCatalog(ctx, d)

	s.dialogs.Put(d)
	return s.view(d), nil
}

// GetDialog returns the current dialog state and refreshes its TTL.
func (s *BookingFlowService) GetDialog(ctx context.Context, session *models.UserSession, dialogID string) (*models.DialogView, error) {
	d, err := s.dialog(session, dialogID)
	if err != nil {
		return nil, err
	}
	s.dialogs.Put(d)
	return s.view(d), nil
}

// SelectSessionType records the chosen offering. The id must come from the
// loaded catalog; anything else is rejected.
func (s *BookingFlowService) SelectSessionType(ctx context.Context, session *models.UserSession, dialogID string, req *models.SelectSessionTypeRequest) (*models.DialogView, error) {
	d, err := s.dialog(session, dialogID)
	if err != nil {
		return nil, err
	}

	d.Mu.Lock()
	if d.CatalogStatus != models.LoadReady {
		d.Mu.Unlock()
		return nil, apperrors.InvalidInputError("session_type_id", "session types are not loaded")
	}
	if _, ok := models.SessionTypeByID(d.SessionTypes, req.SessionTypeID); !ok {
		d.Mu.Unlock()
		return nil, apperrors.InvalidInputError("session_type_id", "unknown session type")
	}
	d.State, err = d.State.WithSessionType(req.SessionTypeID)
	d.Mu.Unlock()
	if err != nil {
		return nil, err
	}

	s.dialogs.Put(d)
	return s.view(d), nil
}

// SetSchedule records the chosen slot. The (date, time) pair must be one the
// mentor actually offers and the timezone must resolve to a real location.
func (s *BookingFlowService) SetSchedule(ctx context.Context, session *models.UserSession, dialogID string, req *models.ScheduleRequest) (*models.DialogView, error) {
	d, err := s.dialog(session, dialogID)
	if err != nil {
		return nil, err
	}

	if _, err := availability.ResolveLocation(req.Timezone); err != nil {
		return nil, apperrors.InvalidInputError("timezone", err.Error())
	}

	d.Mu.Lock()
	if d.AvailabilityStatus != models.LoadReady {
		d.Mu.Unlock()
		return nil, apperrors.InvalidInputError("schedule", "availability is not loaded")
	}
	if !availability.HasSlot(d.Slots, req.Date, req.Time) {
		d.Mu.Unlock()
		return nil, apperrors.InvalidInputError("schedule", "the selected slot is not offered")
	}
	d.State, err = d.State.WithSchedule(req.Date, req.Time, req.Timezone)
	d.Mu.Unlock()
	if err != nil {
		return nil, err
	}

	s.dialogs.Put(d)
	return s.view(d), nil
}

// SetContact records the mentee's contact details.
func (s *BookingFlowService) SetContact(ctx context.Context, session *models.UserSession, dialogID string, req *models.ContactRequest) (*models.DialogView, error) {
	d, err := s.dialog(session, dialogID)
	if err != nil {
		return nil, err
	}

	d.Mu.Lock()
	d.State, err = d.State.WithContact(models.ContactDetails{
		Name:  req.Name,
		Email: req.Email,
		Phone: req.Phone,
		Notes: req.Notes,
	})
	d.Mu.Unlock()
	if err != nil {
		return nil, err
	}

	s.dialogs.Put(d)
	return s.view(d), nil
}

// Advance moves the dialog forward one stage when the current stage is
// complete. Entering the date/time stage triggers an availability load unless
// a usable result is already present.
func (s *BookingFlowService) Advance(ctx context.Context, session *models.UserSession, dialogID string) (*models.DialogView, error) {
	d, err := s.dialog(session, dialogID)
	if err != nil {
		return nil, err
	}

	d.Mu.Lock()
	before := d.State.Stage
	d.State = d.State.Advance()
	after := d.State.Stage
	needAvailability := after != before && after == wizard.StagePickDateTime &&
		(d.AvailabilityStatus == models.LoadIdle || d.AvailabilityStatus == models.LoadFailed)
	d.Mu.Unlock()

	if after == before {
		metrics.StageTransitions.WithLabelValues("forward", "rejected").Inc()
	} else {
		metrics.StageTransitions.WithLabelValues("forward", "ok").Inc()
	}

	if needAvailability {
		s.refreshAvailability(ctx, d)
	}

	s.dialogs.Put(d)
	return s.view(d), nil
}

// Retreat moves the dialog back one stage. Selections made on later stages are
// kept; a load failure on the current stage never blocks going back.
func (s *BookingFlowService) Retreat(ctx context.Context, session *models.UserSession, dialogID string) (*models.DialogView, error) {
	d, err := s.dialog(session, dialogID)
	if err != nil {
		return nil, err
	}

	d.Mu.Lock()
	before := d.State.Stage
	d.State = d.State.Retreat()
	after := d.State.Stage
	d.Mu.Unlock()

	if after == before {
		metrics.StageTransitions.WithLabelValues("back", "rejected").Inc()
	} else {
		metrics.StageTransitions.WithLabelValues("back", "ok").Inc()
	}

	s.dialogs.Put(d)
	return s.view(d), nil
}

// Reload retries the load owned by the current stage: the session-type catalog
// on the first stage, availability on the date/time stage.
func (s *BookingFlowService) Reload(ctx context.Context, session *models.UserSession, dialogID string) (*models.DialogView, error) {
	d, err := s.dialog(session, dialogID)
	if err != nil {
		return nil, err
	}

	d.Mu.Lock()
	stage := d.State.Stage
	d.Mu.Unlock()

	switch stage {
	case wizard.StageSelectSessionType:
		s.refreshCatalog(ctx, d)
	case wizard.StagePickDateTime:
		s.refreshAvailability(ctx, d)
	default:
		return nil, apperrors.InvalidInputError("stage", "nothing to reload on this stage")
	}

	s.dialogs.Put(d)
	return s.view(d), nil
}

// Confirm submits the booking. At most one submission ever leaves a dialog at
// a time; a second confirm while one is in flight is rejected with a conflict.
// An upstream failure keeps the dialog on the payment stage with a retryable
// error instead of failing the request.
func (s *BookingFlowService) Confirm(ctx context.Context, session *models.UserSession, dialogID string) (*models.DialogView, error) {
	d, err := s.dialog(session, dialogID)
	if err != nil {
		return nil, err
	}

	d.Mu.Lock()
	if d.State.Stage != wizard.StagePayment {
		d.Mu.Unlock()
		return nil, apperrors.InvalidInputError("stage", "confirmation is only available on the payment stage")
	}
	req, err := s.buildBookingRequest(d)
	d.Mu.Unlock()
	if err != nil {
		return nil, err
	}

	if !d.BeginSubmit() {
		return nil, fmt.Errorf("a submission is already in flight: %w", apperrors.ErrConflict)
	}
	defer d.EndSubmit()

	created, err := s.marketplace.CreateBooking(ctx, req)

	d.Mu.Lock()
	defer d.Mu.Unlock()

	if err != nil {
		metrics.BookingSubmissions.WithLabelValues("error").Inc()
		logger.Error("Booking submission failed",
			zap.String("dialog_id", d.ID),
			zap.String("mentor_id", d.MentorID),
			zap.Error(err))
		d.State = d.State.WithStageError(wizard.StagePayment, msgSubmissionFailed)
		s.dialogs.Put(d)
		return s.viewLocked(d), nil
	}

	d.State, err = d.State.Confirm()
	if err != nil {
		// Unreachable: the stage was checked above and the submit guard
		// excludes concurrent transitions.
		return nil, apperrors.InternalError("confirm transition rejected")
	}
	d.State = d.State.ClearStageError(wizard.StagePayment)
	d.BookingID = created.ID

	metrics.BookingSubmissions.WithLabelValues("success").Inc()
	logger.Info("Booking confirmed",
		zap.String("dialog_id", d.ID),
		zap.String("mentor_id", d.MentorID),
		zap.String("booking_id", created.ID))

	s.dialogs.Put(d)
	return s.viewLocked(d), nil
}

// CloseDialog discards a dialog. Closing an already-expired dialog is not an
// error.
func (s *BookingFlowService) CloseDialog(ctx context.Context, session *models.UserSession, dialogID string) error {
	d, err := s.dialog(session, dialogID)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			return nil
		}
		return err
	}
	s.dialogs.Delete(d.ID)
	return nil
}

// dialog looks up a dialog and checks it belongs to the calling user.
func (s *BookingFlowService) dialog(session *models.UserSession, dialogID string) (*store.Dialog, error) {
	d, err := s.dialogs.Get(dialogID)
	if err != nil {
		return nil, apperrors.NotFoundError("dialog")
	}
	if d.UserID != session.UserID {
		return nil, apperrors.AccessDeniedError("dialog belongs to another user")
	}
	return d, nil
}

// refreshCatalog loads the mentor's session types. A failure marks the first
// stage with a retryable error.
func (s *BookingFlowService) refreshCatalog(ctx context.Context, d *store.Dialog) {
	d.Mu.Lock()
	d.CatalogStatus = models.LoadPending
	mentorID := d.MentorID
	d.Mu.Unlock()

	types, err := s.marketplace.GetSessionTypes(ctx, mentorID)

	d.Mu.Lock()
	defer d.Mu.Unlock()

	if err != nil {
		d.CatalogStatus = models.LoadFailed
		d.State = d.State.WithStageError(wizard.StageSelectSessionType, msgCatalogLoadFailed)
		logger.Error("Failed to load session-type catalog",
			zap.String("dialog_id", d.ID),
			zap.String("mentor_id", mentorID),
			zap.Error(err))
		return
	}

	d.SessionTypes = types
	d.CatalogStatus = models.LoadReady
	d.State = d.State.ClearStageError(wizard.StageSelectSessionType)
}

// refreshAvailability loads the mentor's slots for the configured booking
// window. Each load is tagged with a fresh epoch; a result that arrives after
// a newer load started is dropped so it can never overwrite newer data.
func (s *BookingFlowService) refreshAvailability(ctx context.Context, d *store.Dialog) {
	d.Mu.Lock()
	epoch := d.NextAvailabilityEpoch()
	d.AvailabilityStatus = models.LoadPending
	mentorID := d.MentorID
	d.Mu.Unlock()

	start := time.Now()
	end := start.AddDate(0, 0, s.config.Booking.WindowDays)
	slots, err := s.marketplace.GetAvailability(ctx, mentorID, start, end)

	d.Mu.Lock()
	defer d.Mu.Unlock()

	if d.CurrentAvailabilityEpoch() != epoch {
		metrics.StaleAvailabilityDrops.Inc()
		logger.Debug("Dropped stale availability response",
			zap.String("dialog_id", d.ID),
			zap.Uint64("epoch", epoch))
		return
	}

	if err != nil {
		metrics.AvailabilityLoads.WithLabelValues("error").Inc()
		d.AvailabilityStatus = models.LoadFailed
		d.State = d.State.WithStageError(wizard.StagePickDateTime, msgAvailabilityLoadFailed)
		logger.Error("Failed to load availability",
			zap.String("dialog_id", d.ID),
			zap.String("mentor_id", mentorID),
			zap.Error(err))
		return
	}

	metrics.AvailabilityLoads.WithLabelValues("success").Inc()
	d.Slots = slots
	d.AvailabilityStatus = models.LoadReady
	d.State = d.State.ClearStageError(wizard.StagePickDateTime)
}

// buildBookingRequest assembles the outbound payload from the accumulated
// selection. Called with d.Mu held, exactly once per submission.
func (s *BookingFlowService) buildBookingRequest(d *store.Dialog) (*models.BookingRequest, error) {
	sel := d.State.Selection

	sessionType, ok := models.SessionTypeByID(d.SessionTypes, sel.SessionTypeID)
	if !ok {
		return nil, apperrors.InvalidInputError("session_type_id", "selection no longer matches the catalog")
	}

	loc, err := availability.ResolveLocation(sel.Timezone)
	if err != nil {
		return nil, apperrors.InvalidInputError("timezone", err.Error())
	}

	scheduledStart, err := availability.Combine(sel.SelectedDate, sel.SelectedTime, loc)
	if err != nil {
		return nil, apperrors.InvalidInputError("schedule", err.Error())
	}
	scheduledEnd := scheduledStart.Add(time.Duration(sessionType.DurationMinutes) * time.Minute)

	return &models.BookingRequest{
		MentorID:       d.MentorID,
		SessionTypeID:  sel.SessionTypeID,
		ScheduledStart: scheduledStart.Format(time.RFC3339),
		ScheduledEnd:   scheduledEnd.Format(time.RFC3339),
		Timezone:       sel.Timezone,
		Notes:          sel.Contact.Notes,
	}, nil
}

// view builds the read model returned after every dialog operation.
func (s *BookingFlowService) view(d *store.Dialog) *models.DialogView {
	d.Mu.Lock()
	defer d.Mu.Unlock()
	return s.viewLocked(d)
}

// viewLocked is view for callers already holding d.Mu.
func (s *BookingFlowService) viewLocked(d *store.Dialog) *models.DialogView {
	var stageErrors map[string]string
	if len(d.State.StageErrors) > 0 {
		stageErrors = make(map[string]string, len(d.State.StageErrors))
		for stage, msg := range d.State.StageErrors {
			stageErrors[stage.String()] = msg
		}
	}

	v := &models.DialogView{
		ID:                 d.ID,
		MentorID:           d.MentorID,
		Stage:              int(d.State.Stage),
		StageName:          d.State.Stage.String(),
		CanProceed:         d.State.CanProceed(),
		Selection:          d.State.Selection,
		SessionTypes:       d.SessionTypes,
		CatalogStatus:      d.CatalogStatus,
		AvailabilityStatus: d.AvailabilityStatus,
		StageErrors:        stageErrors,
		BookingID:          d.BookingID,
	}

	if d.AvailabilityStatus == models.LoadReady {
		v.AvailableDates = availability.AvailableDates(d.Slots)
		v.AvailableTimes = availability.AvailableTimes(d.Slots, d.State.Selection.SelectedDate)
	}

	return v
}
