// Package period resolves the tracking period (day, week, month) that
// contains a given instant, its human label and its target hours.
package period

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidMode is returned for tracking modes other than daily, weekly
// and monthly.
var ErrInvalidMode = errors.New("invalid tracking mode")

// Mode is the tracking period granularity.
type Mode string

const (
	Daily   Mode = "daily"
	Weekly  Mode = "weekly"
	Monthly Mode = "monthly"
)

// Modes lists all valid modes in cycling order.
var Modes = []Mode{Daily, Weekly, Monthly}

// ParseMode parses a mode name case-insensitively.
func ParseMode(s string) (Mode, error) {
	m := Mode(strings.ToLower(strings.TrimSpace(s)))
	if !m.Valid() {
		return "", fmt.Errorf("%w %q (valid: daily, weekly, monthly)", ErrInvalidMode, s)
	}
	return m, nil
}

// Valid reports whether m is one of the known modes.
func (m Mode) Valid() bool {
	switch m {
	case Daily, Weekly, Monthly:
		return true
	}
	return false
}

// Next returns the mode after m in Modes, wrapping around.
func (m Mode) Next() Mode {
	for i, candidate := range Modes {
		if candidate == m {
			return Modes[(i+1)%len(Modes)]
		}
	}
	return Weekly
}

func (m Mode) String() string {
	return string(m)
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Mode) UnmarshalText(text []byte) error {
	parsed, err := ParseMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m), nil
}
