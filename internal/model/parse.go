package model

import (
	"bytes"
	"encoding/json"
	"strings"
)

// The list fields below arrive either as JSON arrays or, from multipart
// forms, as strings holding a JSON array. Each parser keeps well-formed
// entries and drops the rest. ok is false when raw is not an array at all,
// in which case the caller leaves the field unchanged.

func ParseQualifications(raw []byte) (out []Qualification, ok bool) {
	items, ok := splitArray(raw)
	if !ok {
		return nil, false
	}
	out = make([]Qualification, 0, len(items))
	for _, item := range items {
		var q Qualification
		if err := json.Unmarshal(item, &q); err != nil {
			// Older clients send bare degree names.
			var degree string
			if json.Unmarshal(item, &degree) != nil {
				continue
			}
			q = Qualification{Degree: degree}
		}
		q.Degree = strings.TrimSpace(q.Degree)
		q.University = strings.TrimSpace(q.University)
		if q.Degree == "" {
			continue
		}
		out = append(out, q)
	}
	return out, true
}

func ParseExperiences(raw []byte) (out []Experience, ok bool) {
	items, ok := splitArray(raw)
	if !ok {
		return nil, false
	}
	out = make([]Experience, 0, len(items))
	for _, item := range items {
		var e Experience
		if err := json.Unmarshal(item, &e); err != nil {
			continue
		}
		e.Position = strings.TrimSpace(e.Position)
		e.Hospital = strings.TrimSpace(e.Hospital)
		if e.Position == "" && e.Hospital == "" {
			continue
		}
		out = append(out, e)
	}
	return out, true
}

func ParseTimeSlots(raw []byte) (out []TimeSlot, ok bool) {
	items, ok := splitArray(raw)
	if !ok {
		return nil, false
	}
	out = make([]TimeSlot, 0, len(items))
	for _, item := range items {
		var ts TimeSlot
		if err := json.Unmarshal(item, &ts); err != nil {
			continue
		}
		ts.Day = Weekday(strings.ToLower(strings.TrimSpace(string(ts.Day))))
		if !ts.Day.Valid() {
			continue
		}
		out = append(out, ts)
	}
	return out, true
}

func splitArray(raw []byte) ([]json.RawMessage, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, false
	}
	if raw[0] == '"' {
		var inner string
		if err := json.Unmarshal(raw, &inner); err != nil {
			return nil, false
		}
		raw = bytes.TrimSpace([]byte(inner))
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, false
	}
	return items, true
}
