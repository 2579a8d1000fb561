package ics

import (
	"bytes"
	"errors"
	"fmt"

	ical "github.com/arran4/golang-ical"

	appLog "icsagenda/internal/log"
	"icsagenda/internal/model"
)

// Parse parses an ICS payload into a list of normalized events, one per
// VEVENT, in source order. It performs no filtering, sorting or UID
// deduplication.
//
// Each VEVENT is decoded independently. In lenient mode (strict=false) a
// block that fails to decode is logged and dropped, so one malformed event
// cannot take down the whole feed. In strict mode the first bad block fails
// the parse.
//
// Parse itself fails only when the payload cannot be recognized as an
// iCalendar stream at all.
func Parse(body []byte, strict bool) ([]model.Event, error) {
	if len(body) == 0 {
		return nil, errors.New("empty ICS body")
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse calendar: %w", err)
	}

	blocks := cal.Events()
	events := make([]model.Event, 0, len(blocks))

	for _, ve := range blocks {
		ev, perr := parseVEvent(ve)
		if perr != nil {
			if strict {
				return nil, fmt.Errorf("event block %d: %w", len(events), perr)
			}
			appLog.Debug("dropping malformed event block", "err", perr)
			continue
		}
		events = append(events, ev)
	}

	appLog.Info("ics parse completed", "blocks", len(blocks), "events", len(events))
	return events, nil
}

// parseVEvent decodes one VEVENT into a model.Event. Text fields default to
// empty strings; DTSTART/DTEND default to absent when the property is not
// present. A property that is present but cannot be resolved to an instant
// is a decode failure.
func parseVEvent(ve *ical.VEvent) (model.Event, error) {
	var ev model.Event

	if p := ve.GetProperty(ical.ComponentPropertyUniqueId); p != nil {
		ev.UID = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		ev.Summary = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyDescription); p != nil {
		ev.Description = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyLocation); p != nil {
		ev.Location = p.Value
	}

	// The library's helpers handle TZID/VALUE=DATE resolution.
	if ve.GetProperty(ical.ComponentPropertyDtStart) != nil {
		start, err := ve.GetStartAt()
		if err != nil {
			return model.Event{}, fmt.Errorf("uid %q: resolve DTSTART: %w", ev.UID, err)
		}
		ev.Start = &start
	}
	if ve.GetProperty(ical.ComponentPropertyDtEnd) != nil {
		end, err := ve.GetEndAt()
		if err != nil {
			return model.Event{}, fmt.Errorf("uid %q: resolve DTEND: %w", ev.UID, err)
		}
		ev.End = &end
	}

	return ev, nil
}
