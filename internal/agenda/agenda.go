package agenda

import (
	"sort"
	"strings"
	"time"

	"icsagenda/internal/model"
)

// UnknownKey is the group key for events without a resolvable start.
const UnknownKey = "Unknown"

// monthKeyLayout formats a start instant as a month-year display label,
// e.g. "March 2025".
const monthKeyLayout = "January 2006"

// Sort orders events in place: ascending by start instant, events without
// a start after all events with one, and two start-less events by
// case-sensitive summary comparison. The sort is stable, so events with
// equal starts keep their input order.
func Sort(events []model.Event) {
	sort.SliceStable(events, func(i, j int) bool {
		return less(events[i], events[j])
	})
}

func less(a, b model.Event) bool {
	switch {
	case a.Start == nil && b.Start == nil:
		return strings.Compare(a.Summary, b.Summary) < 0
	case a.Start == nil:
		return false
	case b.Start == nil:
		return true
	default:
		return a.Start.Before(*b.Start)
	}
}

// MonthKey computes the display key for an event in the given timezone.
func MonthKey(ev model.Event, loc *time.Location) string {
	if ev.Start == nil {
		return UnknownKey
	}
	return ev.Start.In(loc).Format(monthKeyLayout)
}

// GroupByMonth partitions an already-sorted event sequence into contiguous
// month-keyed groups in a single linear pass. A new group starts exactly
// when the computed key differs from the previous event's key. An empty
// input yields an empty group sequence, not a single empty group.
func GroupByMonth(events []model.Event, loc *time.Location) []model.Group {
	if loc == nil {
		loc = time.Local
	}

	groups := make([]model.Group, 0)
	for _, ev := range events {
		key := MonthKey(ev, loc)
		if len(groups) == 0 || groups[len(groups)-1].Key != key {
			groups = append(groups, model.Group{Key: key})
		}
		last := &groups[len(groups)-1]
		last.Events = append(last.Events, ev)
	}
	return groups
}
