package models

// AvailabilitySlot is one (date, time) pair a mentor offers inside a fetch
// window. Slots are produced by the marketplace API and are immutable once
// fetched; a slot only means something in the context of the mentor and the
// window it was fetched for.
type AvailabilitySlot struct {
	Date      string `json:"date"`     // calendar date, YYYY-MM-DD
	Time      string `json:"time"`     // clock label, "15:04" or "3:04 PM"
	Timezone  string `json:"timezone"` // IANA name or marketplace abbreviation
	Available bool   `json:"available"`
}

// AvailabilityEnvelope mirrors the marketplace availability endpoint payload.
type AvailabilityEnvelope struct {
	AvailableSlots []AvailabilitySlot `json:"available_slots"`
}

// LoadStatus describes the state of a remote fetch tied to a dialog stage.
// A failed load is distinct from a successful load with zero usable entries:
// the first gets a retry affordance, the second an empty-state message.
type LoadStatus string

const (
	LoadIdle    LoadStatus = "idle"
	LoadPending LoadStatus = "pending"
	LoadReady   LoadStatus = "ready"
	LoadFailed  LoadStatus = "failed"
)
