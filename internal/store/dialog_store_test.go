package store_test

import (
	"testing"
	"time"

	"github.com/mentorhub/booking-api/internal/models"
	"github.com/mentorhub/booking-api/internal/store"
	"github.com/mentorhub/booking-api/internal/wizard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDialog() *store.Dialog {
	return store.NewDialog("mentor-1", "user-1", wizard.New(models.ContactDetails{Name: "Ada"}))
}

func TestDialogStore_PutGetDelete(t *testing.T) {
	s := store.NewDialogStore(30 * time.Minute)

	d := newDialog()
	s.Put(d)

	got, err := s.Get(d.ID)
	require.NoError(t, err)
	assert.Same(t, d, got)
	assert.Equal(t, 1, s.Count())

	s.Delete(d.ID)
	_, err = s.Get(d.ID)
	assert.ErrorIs(t, err, store.ErrDialogNotFound)
	assert.Equal(t, 0, s.Count())
}

func TestDialogStore_GetUnknown(t *testing.T) {
	s := store.NewDialogStore(30 * time.Minute)

	_, err := s.Get("nope")
	assert.ErrorIs(t, err, store.ErrDialogNotFound)
}

func TestDialog_SubmitGuard(t *testing.T) {
	d := newDialog()

	require.True(t, d.BeginSubmit())
	assert.False(t, d.BeginSubmit(), "second submission while one is in flight must be rejected")

	d.EndSubmit()
	assert.True(t, d.BeginSubmit(), "slot reopens after the first submission settles")
}

func TestDialog_AvailabilityEpochs(t *testing.T) {
	d := newDialog()

	first := d.NextAvailabilityEpoch()
	assert.Equal(t, first, d.CurrentAvailabilityEpoch())

	second := d.NextAvailabilityEpoch()
	assert.NotEqual(t, first, second)
	assert.Equal(t, second, d.CurrentAvailabilityEpoch(), "a stale fetch tagged with the first epoch no longer matches")
}
