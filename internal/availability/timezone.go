package availability

import (
	"fmt"
	"time"
)

// zoneAbbreviations maps the bare timezone labels the marketplace offers in
// its slot feed to IANA names. time.LoadLocation only understands the latter.
var zoneAbbreviations = map[string]string{
	"UTC":  "UTC",
	"GMT":  "UTC",
	"IST":  "Asia/Kolkata",
	"PST":  "America/Los_Angeles",
	"PDT":  "America/Los_Angeles",
	"MST":  "America/Denver",
	"MDT":  "America/Denver",
	"CST":  "America/Chicago",
	"CDT":  "America/Chicago",
	"EST":  "America/New_York",
	"EDT":  "America/New_York",
	"BST":  "Europe/London",
	"CET":  "Europe/Berlin",
	"CEST": "Europe/Berlin",
	"EET":  "Europe/Athens",
	"MSK":  "Europe/Moscow",
	"SGT":  "Asia/Singapore",
	"JST":  "Asia/Tokyo",
	"AEST": "Australia/Sydney",
}

// ResolveLocation resolves a timezone label to a location, accepting both
// IANA names and the marketplace's display abbreviations. Unknown labels are
// a validation error at selection time, not at submit time.
func ResolveLocation(label string) (*time.Location, error) {
	if label == "" {
		return nil, fmt.Errorf("timezone is empty")
	}
	if iana, ok := zoneAbbreviations[label]; ok {
		label = iana
	}
	loc, err := time.LoadLocation(label)
	if err != nil {
		return nil, fmt.Errorf("unknown timezone %q: %w", label, err)
	}
	return loc, nil
}
