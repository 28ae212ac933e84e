// Package wizard implements the five-stage booking flow as an immutable
// value-object state machine. Transitions return a new State; rejected
// transitions return the receiver unchanged, so callers can apply them
// unconditionally.
package wizard

import (
	"errors"
	"strings"

	"github.com/mentorhub/booking-api/internal/models"
)

// Stage is one screen of the linear booking flow, numbered 1-5. The order is
// strict: no skipping, no branching, no cycles.
type Stage int

const (
	StageSelectSessionType Stage = iota + 1
	StagePickDateTime
	StageEnterDetails
	StagePayment
	StageConfirmed
)

var stageNames = map[Stage]string{
	StageSelectSessionType: "select_session_type",
	StagePickDateTime:      "pick_date_time",
	StageEnterDetails:      "enter_details",
	StagePayment:           "payment",
	StageConfirmed:         "confirmed",
}

func (s Stage) String() string {
	if name, ok := stageNames[s]; ok {
		return name
	}
	return "unknown"
}

// Valid reports whether s is one of the five defined stages.
func (s Stage) Valid() bool {
	_, ok := stageNames[s]
	return ok
}

var (
	// ErrWrongStage is returned by a setter invoked outside its owning stage.
	// Selection fields are mutated only by explicit user action in the stage
	// that owns them.
	ErrWrongStage = errors.New("operation not allowed in current stage")
)

// State is the full wizard state: current stage, accumulated selection and
// any stage-scoped error messages. The zero value is not usable; construct
// with New.
type State struct {
	Stage       Stage
	Selection   models.BookingSelection
	StageErrors map[Stage]string
}

// New returns a fresh wizard at the first stage, seeded with the signed-in
// user's known contact details.
func New(seed models.ContactDetails) State {
	return State{
		Stage: StageSelectSessionType,
		Selection: models.BookingSelection{
			Contact: seed,
		},
	}
}

// CanProceed reports whether the current stage's completeness predicate
// holds. Whitespace-only strings count as empty.
func (s State) CanProceed() bool {
	switch s.Stage {
	case StageSelectSessionType:
		return s.Selection.SessionTypeID != ""
	case StagePickDateTime:
		return s.Selection.SelectedDate != "" &&
			s.Selection.SelectedTime != "" &&
			s.Selection.Timezone != ""
	case StageEnterDetails:
		return strings.TrimSpace(s.Selection.Contact.Name) != "" &&
			strings.TrimSpace(s.Selection.Contact.Email) != ""
	case StagePayment:
		// Payment method choice is delegated to a sub-flow; finishing this
		// stage is what triggers submission.
		return true
	default:
		return false
	}
}

// Advance moves forward one stage if the current stage is complete. A
// rejected advance is a no-op, as is advancing from the terminal stage.
// Confirmed is never reached by Advance; only a successful submission
// (Confirm) enters it.
func (s State) Advance() State {
	if s.Stage >= StagePayment || !s.CanProceed() {
		return s
	}
	s.Stage++
	return s
}

// Retreat moves back one stage. Allowed from stages 2-4 only: the first stage
// has nothing before it and there is no going back after confirmation. A
// stage-scoped load failure never blocks retreating.
func (s State) Retreat() State {
	if s.Stage <= StageSelectSessionType || s.Stage >= StageConfirmed {
		return s
	}
	s.Stage--
	return s
}

// Confirm transitions Payment to the terminal Confirmed stage. Called only
// after the booking submission succeeded.
func (s State) Confirm() (State, error) {
	if s.Stage != StagePayment {
		return s, ErrWrongStage
	}
	s.Stage = StageConfirmed
	return s, nil
}

// WithSessionType records the chosen offering. Owned by the first stage.
func (s State) WithSessionType(id string) (State, error) {
	if s.Stage != StageSelectSessionType {
		return s, ErrWrongStage
	}
	s.Selection.SessionTypeID = id
	return s, nil
}

// WithSchedule records the chosen date, time and timezone. Owned by the
// date/time stage.
func (s State) WithSchedule(date, clock, timezone string) (State, error) {
	if s.Stage != StagePickDateTime {
		return s, ErrWrongStage
	}
	s.Selection.SelectedDate = date
	s.Selection.SelectedTime = clock
	s.Selection.Timezone = timezone
	return s, nil
}

// WithContact records the contact details. Owned by the details stage.
func (s State) WithContact(c models.ContactDetails) (State, error) {
	if s.Stage != StageEnterDetails {
		return s, ErrWrongStage
	}
	s.Selection.Contact = c
	return s, nil
}

// WithStageError sets a stage-scoped error message, e.g. a failed
// availability load. The message renders as a retryable failure, never as an
// empty state.
func (s State) WithStageError(stage Stage, msg string) State {
	errs := make(map[Stage]string, len(s.StageErrors)+1)
	for k, v := range s.StageErrors {
		errs[k] = v
	}
	errs[stage] = msg
	s.StageErrors = errs
	return s
}

// ClearStageError removes a stage-scoped error, typically after a retry
// succeeded.
func (s State) ClearStageError(stage Stage) State {
	if _, ok := s.StageErrors[stage]; !ok {
		return s
	}
	errs := make(map[Stage]string, len(s.StageErrors))
	for k, v := range s.StageErrors {
		if k != stage {
			errs[k] = v
		}
	}
	s.StageErrors = errs
	return s
}
