package models

// SessionType is a bookable offering from a mentor's catalog, e.g. a
// "Career Strategy Call" with a fixed duration and price. Read-only from the
// booking flow's perspective.
type SessionType struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Description     string `json:"description,omitempty"`
	DurationMinutes int    `json:"duration_minutes"`
	PriceMinorUnits int64  `json:"price_minor_units"`
	Mode            string `json:"mode"` // e.g. "video", "chat"
}

// SessionTypeByID looks up a session type in a fetched catalog.
func SessionTypeByID(catalog []SessionType, id string) (*SessionType, bool) {
	for i := range catalog {
		if catalog[i].ID == id {
			return &catalog[i], true
		}
	}
	return nil, false
}
