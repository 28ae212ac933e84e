package models

// OpenDialogRequest opens a booking dialog against one mentor.
type OpenDialogRequest struct {
	MentorID string `json:"mentor_id" binding:"required,max=64"`
}

// SelectSessionTypeRequest picks an offering on the first stage.
type SelectSessionTypeRequest struct {
	SessionTypeID string `json:"session_type_id" binding:"required,max=64"`
}

// ScheduleRequest picks a slot on the date/time stage.
type ScheduleRequest struct {
	Date     string `json:"date" binding:"required,datetime=2006-01-02"`
	Time     string `json:"time" binding:"required,max=16"`
	Timezone string `json:"timezone" binding:"required,max=64"`
}

// ContactRequest fills in the details stage.
type ContactRequest struct {
	Name  string `json:"name" binding:"required,max=255"`
	Email string `json:"email" binding:"required,email,max=255"`
	Phone string `json:"phone" binding:"max=32"`
	Notes string `json:"notes" binding:"max=2000"`
}

// ReschedulePayload is the inbound body for rescheduling an existing booking.
// DurationMinutes carries the original session length so the end time can be
// derived without a catalog lookup.
type ReschedulePayload struct {
	Date            string `json:"date" binding:"required,datetime=2006-01-02"`
	Time            string `json:"time" binding:"required,max=16"`
	Timezone        string `json:"timezone" binding:"required,max=64"`
	DurationMinutes int    `json:"duration_minutes" binding:"required,min=1,max=480"`
	Reason          string `json:"reason" binding:"max=1000"`
}

// DialogView is the read model returned to the front-end after every dialog
// operation: current stage, accumulated selection, derived availability and
// any stage-scoped errors.
type DialogView struct {
	ID                 string            `json:"id"`
	MentorID           string            `json:"mentor_id"`
	Stage              int               `json:"stage"`
	StageName          string            `json:"stage_name"`
	CanProceed         bool              `json:"can_proceed"`
	Selection          BookingSelection  `json:"selection"`
	SessionTypes       []SessionType     `json:"session_types,omitempty"`
	CatalogStatus      LoadStatus        `json:"catalog_status"`
	AvailabilityStatus LoadStatus        `json:"availability_status"`
	AvailableDates     []string          `json:"available_dates,omitempty"`
	AvailableTimes     []string          `json:"available_times,omitempty"`
	StageErrors        map[string]string `json:"stage_errors,omitempty"`
	BookingID          string            `json:"booking_id,omitempty"`
}

// MentorAvailabilityView is the derived availability for one mentor, used by
// the reschedule form which fetches slots on mount.
type MentorAvailabilityView struct {
	MentorID string             `json:"mentor_id"`
	Dates    []string           `json:"dates"`
	Slots    []AvailabilitySlot `json:"slots"`
}
