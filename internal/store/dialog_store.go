// Package store holds open booking dialogs in memory. A dialog lives exactly
// as long as the user keeps it open: nothing here survives process restart
// and nothing is meant to. TTL expiry models the user abandoning the dialog.
package store

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/mentorhub/booking-api/internal/models"
	"github.com/mentorhub/booking-api/internal/wizard"
	"github.com/mentorhub/booking-api/pkg/metrics"
)

const cacheCheckPeriod = time.Minute

var ErrDialogNotFound = errors.New("dialog not found")

// Dialog is one open booking flow instance. Mu guards the mutable fields;
// the submission guard and availability epoch are atomic so they can be
// checked without holding the lock.
type Dialog struct {
	ID        string
	MentorID  string
	UserID    string
	CreatedAt time.Time

	Mu sync.Mutex

	// Guarded by Mu.
	State              wizard.State
	SessionTypes       []models.SessionType
	CatalogStatus      models.LoadStatus
	Slots              []models.AvailabilitySlot
	AvailabilityStatus models.LoadStatus
	BookingID          string

	availabilityEpoch atomic.Uint64
	submitting        atomic.Bool
}

// NewDialog creates a dialog for one mentor seeded with the given wizard
// state.
func NewDialog(mentorID, userID string, state wizard.State) *Dialog {
	return &Dialog{
		ID:                 uuid.NewString(),
		MentorID:           mentorID,
		UserID:             userID,
		CreatedAt:          time.Now(),
		State:              state,
		CatalogStatus:      models.LoadIdle,
		AvailabilityStatus: models.LoadIdle,
	}
}

// NextAvailabilityEpoch invalidates any in-flight availability fetch and
// returns the epoch a new fetch should be tagged with.
func (d *Dialog) NextAvailabilityEpoch() uint64 {
	return d.availabilityEpoch.Add(1)
}

// CurrentAvailabilityEpoch returns the epoch a late-arriving fetch result
// must match to be applied.
func (d *Dialog) CurrentAvailabilityEpoch() uint64 {
	return d.availabilityEpoch.Load()
}

// BeginSubmit claims the single submission slot. It returns false when a
// prior submission is still in flight; the caller must reject the attempt.
func (d *Dialog) BeginSubmit() bool {
	return d.submitting.CompareAndSwap(false, true)
}

// EndSubmit releases the submission slot regardless of outcome.
func (d *Dialog) EndSubmit() {
	d.submitting.Store(false)
}

// DialogStore is a TTL'd in-memory collection of open dialogs.
type DialogStore struct {
	cache *gocache.Cache
	ttl   time.Duration
}

// NewDialogStore creates a store whose entries expire after ttl of
// inactivity.
func NewDialogStore(ttl time.Duration) *DialogStore {
	c := gocache.New(ttl, cacheCheckPeriod)
	c.OnEvicted(func(string, interface{}) {
		metrics.DialogsOpen.Dec()
	})
	return &DialogStore{cache: c, ttl: ttl}
}

// Put inserts or refreshes a dialog, resetting its TTL. Every successful
// dialog operation calls this so active dialogs stay alive.
func (s *DialogStore) Put(d *Dialog) {
	if _, exists := s.cache.Get(d.ID); !exists {
		metrics.DialogsOpen.Inc()
	}
	s.cache.Set(d.ID, d, s.ttl)
}

// Get returns the dialog with the given id.
func (s *DialogStore) Get(id string) (*Dialog, error) {
	v, found := s.cache.Get(id)
	if !found {
		return nil, ErrDialogNotFound
	}
	d, ok := v.(*Dialog)
	if !ok {
		return nil, ErrDialogNotFound
	}
	return d, nil
}

// Delete closes a dialog. Deleting an unknown id is a no-op.
func (s *DialogStore) Delete(id string) {
	s.cache.Delete(id)
}

// Count returns the number of open dialogs.
func (s *DialogStore) Count() int {
	return s.cache.ItemCount()
}
