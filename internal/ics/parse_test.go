package ics

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// icsDoc builds a CRLF-terminated iCalendar payload from content lines.
func icsDoc(lines ...string) []byte {
	all := append([]string{"BEGIN:VCALENDAR", "VERSION:2.0", "PRODID:-//icsagenda//test//EN"}, lines...)
	all = append(all, "END:VCALENDAR", "")
	return []byte(strings.Join(all, "\r\n"))
}

func vevent(lines ...string) []string {
	out := append([]string{"BEGIN:VEVENT"}, lines...)
	return append(out, "END:VEVENT")
}

func TestParse(t *testing.T) {
	body := icsDoc(append(
		vevent(
			"UID:one@test",
			"DTSTAMP:20250301T000000Z",
			"DTSTART:20250301T100000Z",
			"DTEND:20250301T120000Z",
			"SUMMARY:Game Night",
			"LOCATION:Community hall",
			"DESCRIPTION:Bring snacks",
		),
		vevent(
			"UID:two@test",
			"DTSTAMP:20250301T000000Z",
			"SUMMARY:Floating task",
		)...,
	)...)

	events, err := Parse(body, false)
	require.NoError(t, err)
	require.Len(t, events, 2)

	first := events[0]
	assert.Equal(t, "one@test", first.UID)
	assert.Equal(t, "Game Night", first.Summary)
	assert.Equal(t, "Community hall", first.Location)
	assert.Equal(t, "Bring snacks", first.Description)
	require.NotNil(t, first.Start)
	require.NotNil(t, first.End)
	assert.Equal(t, "2025-03-01T10:00:00Z", first.Start.UTC().Format("2006-01-02T15:04:05Z"))
	assert.Equal(t, 2*60, int(first.End.Sub(*first.Start).Minutes()))

	// No DTSTART/DTEND: fields stay absent, event is still kept.
	second := events[1]
	assert.Equal(t, "Floating task", second.Summary)
	assert.Nil(t, second.Start)
	assert.Nil(t, second.End)
	assert.Empty(t, second.Location)
}

func TestParsePreservesSourceOrder(t *testing.T) {
	body := icsDoc(append(append(
		vevent("UID:z@test", "DTSTAMP:20250301T000000Z", "SUMMARY:Zulu", "DTSTART:20251201T100000Z"),
		vevent("UID:a@test", "DTSTAMP:20250301T000000Z", "SUMMARY:Alpha", "DTSTART:20250101T100000Z")...),
		vevent("UID:m@test", "DTSTAMP:20250301T000000Z", "SUMMARY:Mike", "DTSTART:20250601T100000Z")...,
	)...)

	events, err := Parse(body, false)
	require.NoError(t, err)
	require.Len(t, events, 3)
	// The parser does not sort.
	assert.Equal(t, "Zulu", events[0].Summary)
	assert.Equal(t, "Alpha", events[1].Summary)
	assert.Equal(t, "Mike", events[2].Summary)
}

func TestParseMalformedBlock(t *testing.T) {
	body := icsDoc(append(
		vevent("UID:bad@test", "DTSTAMP:20250301T000000Z", "SUMMARY:Broken", "DTSTART:notadate"),
		vevent("UID:good@test", "DTSTAMP:20250301T000000Z", "SUMMARY:Fine", "DTSTART:20250301T100000Z")...,
	)...)

	t.Run("lenient drops the bad block and keeps the rest", func(t *testing.T) {
		events, err := Parse(body, false)
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, "Fine", events[0].Summary)
	})

	t.Run("strict fails the whole parse", func(t *testing.T) {
		events, err := Parse(body, true)
		require.Error(t, err)
		assert.Nil(t, events)
		assert.Contains(t, err.Error(), "bad@test")
	})
}

func TestParseNotACalendar(t *testing.T) {
	_, err := Parse([]byte("plain text, definitely not a calendar"), false)
	assert.Error(t, err)

	_, err = Parse(nil, false)
	assert.Error(t, err)
}
