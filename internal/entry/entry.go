// Package entry holds the time entry records read from the time tracking API.
package entry

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// TimeEntry is one logged time record. Only Time matters for progress;
// the other fields are carried for display and caching.
type TimeEntry struct {
	ID   int64  `json:"id,omitempty" yaml:"id,omitempty"`
	Date string `json:"date,omitempty" yaml:"date,omitempty"`
	User int64  `json:"user,omitempty" yaml:"user,omitempty"`
	Time int64  `json:"time" yaml:"time"` // seconds
}

// Seconds returns the logged seconds, treating negative values as zero.
func (e TimeEntry) Seconds() int64 {
	if e.Time < 0 {
		return 0
	}
	return e.Time
}

// TotalSeconds sums Seconds over entries.
func TotalSeconds(entries []TimeEntry) int64 {
	var total int64
	for _, e := range entries {
		total += e.Seconds()
	}
	return total
}

// DecodeEntries decodes a JSON response body into entries.
// A JSON array yields its entries. Any other JSON value (object, null)
// yields no entries and ok=false. Invalid JSON is an error.
func DecodeEntries(data []byte) (entries []TimeEntry, ok bool, err error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return []TimeEntry{}, false, nil
	}
	if !json.Valid(trimmed) {
		return nil, false, fmt.Errorf("invalid JSON in time entries response")
	}
	if trimmed[0] != '[' {
		return []TimeEntry{}, false, nil
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return nil, false, fmt.Errorf("failed to decode time entries: %w", err)
	}

	entries = make([]TimeEntry, 0, len(raw))
	for _, item := range raw {
		var e TimeEntry
		// Records that are not objects, or carry odd field types, count as zero time.
		if err := json.Unmarshal(item, &e); err != nil {
			entries = append(entries, TimeEntry{})
			continue
		}
		entries = append(entries, e)
	}
	return entries, true, nil
}
