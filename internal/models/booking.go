package models

// ContactDetails are the mentee's contact fields collected on the details
// stage. Name and email gate stage advancement; phone and notes are optional.
type ContactDetails struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
	Notes string `json:"notes,omitempty"`
}

// BookingSelection accumulates the user's choices across wizard stages. A
// field is only trusted for submission once its owning stage's completeness
// predicate has passed. Empty string means "not selected yet".
type BookingSelection struct {
	SessionTypeID string         `json:"session_type_id,omitempty"`
	SelectedDate  string         `json:"selected_date,omitempty"` // YYYY-MM-DD
	SelectedTime  string         `json:"selected_time,omitempty"` // clock label
	Timezone      string         `json:"timezone,omitempty"`
	Contact       ContactDetails `json:"contact"`
}

// BookingRequest is the outbound payload for creating a booking. It is
// constructed exactly once, at submission time, from the accumulated
// selection plus the resolved session type.
type BookingRequest struct {
	MentorID       string `json:"mentor_id"`
	SessionTypeID  string `json:"session_type_id"`
	ScheduledStart string `json:"scheduled_start"` // RFC3339 in the selected zone
	ScheduledEnd   string `json:"scheduled_end"`   // start + session duration
	Timezone       string `json:"timezone"`
	Notes          string `json:"notes,omitempty"`
}

// BookingCreated is the marketplace response to a successful creation.
type BookingCreated struct {
	ID string `json:"id"`
}

// RescheduleRequest is the outbound payload for moving an existing booking.
// The end time is derived from the duration the caller passes in (the
// original booking's session length), not from a catalog lookup.
type RescheduleRequest struct {
	NewScheduledStart string `json:"new_scheduled_start"`
	NewScheduledEnd   string `json:"new_scheduled_end"`
	Reason            string `json:"reason,omitempty"`
}
