package agenda

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"icsagenda/internal/model"
)

func at(s string) *time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return &t
}

func TestSort(t *testing.T) {
	testCases := []struct {
		name          string
		events        []model.Event
		wantSummaries []string
	}{
		{
			name: "ascending by start",
			events: []model.Event{
				{Summary: "Later", Start: at("2025-03-20T10:00:00Z")},
				{Summary: "Earlier", Start: at("2025-03-01T10:00:00Z")},
			},
			wantSummaries: []string{"Earlier", "Later"},
		},
		{
			name: "absent start sorts after present start",
			events: []model.Event{
				{Summary: "Floating"},
				{Summary: "Dated", Start: at("2025-12-31T23:00:00Z")},
			},
			wantSummaries: []string{"Dated", "Floating"},
		},
		{
			name: "two absent starts ordered by summary",
			events: []model.Event{
				{Summary: "Zeta"},
				{Summary: "Alpha"},
			},
			wantSummaries: []string{"Alpha", "Zeta"},
		},
		{
			name: "equal start keeps input order",
			events: []model.Event{
				{Summary: "Alpha", Start: at("2025-03-01T10:00:00Z")},
				{Summary: "Beta", Start: at("2025-03-01T10:00:00Z")},
			},
			wantSummaries: []string{"Alpha", "Beta"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			Sort(tc.events)
			got := make([]string, 0, len(tc.events))
			for _, ev := range tc.events {
				got = append(got, ev.Summary)
			}
			assert.Equal(t, tc.wantSummaries, got)
		})
	}
}

func TestSortComparatorPairwise(t *testing.T) {
	events := []model.Event{
		{Summary: "No start B"},
		{Summary: "Mid", Start: at("2025-06-15T12:00:00Z")},
		{Summary: "No start A"},
		{Summary: "First", Start: at("2025-01-01T00:00:00Z")},
		{Summary: "Last", Start: at("2025-12-01T00:00:00Z")},
	}
	Sort(events)

	for i := 0; i+1 < len(events); i++ {
		a, b := events[i], events[i+1]
		// No adjacent pair may violate the comparator.
		assert.False(t, less(b, a), "events[%d] and events[%d] out of order", i, i+1)
		if a.Start == nil {
			assert.Nil(t, b.Start, "start-less event before dated event")
		}
	}
}

func TestGroupByMonth(t *testing.T) {
	utc := time.UTC

	t.Run("empty input yields empty group sequence", func(t *testing.T) {
		groups := GroupByMonth(nil, utc)
		assert.Empty(t, groups)
		assert.NotNil(t, groups)
	})

	t.Run("contiguous same-month events share a group", func(t *testing.T) {
		events := []model.Event{
			{Summary: "A", Start: at("2025-03-01T09:00:00Z")},
			{Summary: "B", Start: at("2025-03-20T09:00:00Z")},
			{Summary: "C", Start: at("2025-04-02T09:00:00Z")},
			{Summary: "D"},
		}
		groups := GroupByMonth(events, utc)

		require.Len(t, groups, 3)
		assert.Equal(t, "March 2025", groups[0].Key)
		assert.Equal(t, "April 2025", groups[1].Key)
		assert.Equal(t, UnknownKey, groups[2].Key)
		assert.Len(t, groups[0].Events, 2)
		assert.Len(t, groups[1].Events, 1)
		assert.Len(t, groups[2].Events, 1)
	})

	t.Run("concatenated groups reproduce input order", func(t *testing.T) {
		events := []model.Event{
			{Summary: "A", Start: at("2025-01-01T00:00:00Z")},
			{Summary: "B", Start: at("2025-01-31T00:00:00Z")},
			{Summary: "C", Start: at("2025-02-01T00:00:00Z")},
			{Summary: "D", Start: at("2025-02-02T00:00:00Z")},
			{Summary: "E"},
		}
		groups := GroupByMonth(events, utc)

		flat := make([]model.Event, 0, len(events))
		for _, g := range groups {
			flat = append(flat, g.Events...)
		}
		assert.Equal(t, events, flat)

		for i := 0; i+1 < len(groups); i++ {
			assert.NotEqual(t, groups[i].Key, groups[i+1].Key)
		}
	})

	t.Run("key follows display timezone", func(t *testing.T) {
		tokyo, err := time.LoadLocation("Asia/Tokyo")
		require.NoError(t, err)

		// 23:30 UTC on Jan 31 is already February in Tokyo.
		events := []model.Event{{Summary: "Late", Start: at("2025-01-31T23:30:00Z")}}

		assert.Equal(t, "January 2025", GroupByMonth(events, utc)[0].Key)
		assert.Equal(t, "February 2025", GroupByMonth(events, tokyo)[0].Key)
	})
}
