package availability

import (
	"fmt"
	"sort"
	"time"

	"github.com/mentorhub/booking-api/internal/models"
)

// clockLayouts are the clock label formats the marketplace emits. Both
// 24-hour and 12-hour display labels appear in the same feed.
var clockLayouts = []string{
	"15:04",
	"3:04 PM",
	"3:04PM",
	"15:04:05",
}

// ParseClock parses a clock label into minutes since midnight. Lexicographic
// comparison of display labels is wrong for 12-hour formats ("9:30 PM" sorts
// before "10:00 AM"), so every chronological comparison goes through here.
func ParseClock(label string) (int, error) {
	for _, layout := range clockLayouts {
		t, err := time.Parse(layout, label)
		if err == nil {
			return t.Hour()*60 + t.Minute(), nil
		}
	}
	return 0, fmt.Errorf("unrecognized clock label %q", label)
}

// AvailableDates returns the unique dates that have at least one available
// slot, sorted ascending. ISO dates sort chronologically as strings. An empty
// slot list yields an empty result, not an error.
func AvailableDates(slots []models.AvailabilitySlot) []string {
	seen := make(map[string]struct{}, len(slots))
	dates := make([]string, 0, len(slots))
	for _, s := range slots {
		if !s.Available {
			continue
		}
		if _, ok := seen[s.Date]; ok {
			continue
		}
		seen[s.Date] = struct{}{}
		dates = append(dates, s.Date)
	}
	sort.Strings(dates)
	return dates
}

// AvailableTimes returns the clock labels available on the given date, sorted
// by true chronological order. An empty or unknown date yields an empty list;
// that is the normal "no times for this date" state.
func AvailableTimes(slots []models.AvailabilitySlot, date string) []string {
	if date == "" {
		return []string{}
	}
	times := make([]string, 0, len(slots))
	for _, s := range slots {
		if s.Available && s.Date == date {
			times = append(times, s.Time)
		}
	}
	sort.SliceStable(times, func(i, j int) bool {
		mi, erri := ParseClock(times[i])
		mj, errj := ParseClock(times[j])
		// Unparseable labels sink to the end without disturbing the rest.
		if erri != nil {
			return false
		}
		if errj != nil {
			return true
		}
		return mi < mj
	})
	return times
}

// HasSlot reports whether the slot set offers the exact (date, time) pair as
// available. Used to reject schedule selections the mentor never offered.
func HasSlot(slots []models.AvailabilitySlot, date, clock string) bool {
	want, err := ParseClock(clock)
	if err != nil {
		return false
	}
	for _, s := range slots {
		if !s.Available || s.Date != date {
			continue
		}
		got, err := ParseClock(s.Time)
		if err == nil && got == want {
			return true
		}
	}
	return false
}

// Combine builds the absolute instant for a (date, clock) pair in loc.
func Combine(date, clock string, loc *time.Location) (time.Time, error) {
	d, err := time.ParseInLocation("2006-01-02", date, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", date, err)
	}
	minutes, err := ParseClock(clock)
	if err != nil {
		return time.Time{}, err
	}
	return d.Add(time.Duration(minutes) * time.Minute), nil
}
