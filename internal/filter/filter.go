package filter

import (
	"fmt"
	"regexp"

	"icsagenda/internal/model"
)

// Matcher is a compiled event predicate. The zero pattern compiles to an
// identity matcher that keeps every event.
type Matcher struct {
	re     *regexp.Regexp
	invert bool
}

// New compiles pattern into a Matcher. Matching is case-insensitive unless
// caseSensitive is set; invert keeps non-matching events instead. An empty
// pattern yields an identity matcher regardless of invert.
//
// An invalid pattern is a user input error and fails immediately, naming
// the offending pattern.
func New(pattern string, caseSensitive, invert bool) (*Matcher, error) {
	if pattern == "" {
		return &Matcher{}, nil
	}

	expr := pattern
	if !caseSensitive {
		expr = "(?i)" + expr
	}

	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid filter pattern %q: %w", pattern, err)
	}
	return &Matcher{re: re, invert: invert}, nil
}

// Keep reports whether the event survives the filter. The pattern is
// matched against the event's haystack (summary, description, location).
func (m *Matcher) Keep(ev model.Event) bool {
	if m.re == nil {
		return true
	}
	return m.re.MatchString(ev.Haystack()) != m.invert
}

// Apply returns the events that survive the filter, in input order.
func (m *Matcher) Apply(events []model.Event) []model.Event {
	if m.re == nil {
		return events
	}
	kept := make([]model.Event, 0, len(events))
	for _, ev := range events {
		if m.Keep(ev) {
			kept = append(kept, ev)
		}
	}
	return kept
}
