package model

import (
	"strings"
	"time"
)

// Event is the normalized representation of a single calendar event as
// produced by the ICS parser. Start and End are nil when the source event
// has no resolvable date-time; an event with a nil Start sorts and groups
// as "unknown".
type Event struct {
	UID string // iCalendar UID, may be empty and is not assumed unique

	Summary     string
	Description string
	Location    string

	// Start / End are absolute instants, independent of display timezone.
	Start *time.Time
	End   *time.Time
}

// Haystack returns the searchable text of the event: summary, description
// and location joined with newlines, in that fixed order. The filter stage
// matches its pattern against this string.
func (e Event) Haystack() string {
	return strings.Join([]string{e.Summary, e.Description, e.Location}, "\n")
}

// Group is a contiguous run of events sharing a display key (typically a
// month-year label, or "Unknown" for events without a start).
type Group struct {
	Key    string
	Events []Event
}
