package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Mode is the activity context selecting which rule set applies.
type Mode int

// Supported modes.
const (
	Desk Mode = iota
	Squat
)

func (m Mode) String() string {
	switch m {
	case Desk:
		return "desk"
	case Squat:
		return "squat"
	}
	return "unknown"
}

// Valid reports whether m is one of the declared modes.
func (m Mode) Valid() bool {
	return m == Desk || m == Squat
}

// ParseMode converts "desk" or "squat" (case-insensitive) to a Mode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "desk":
		return Desk, nil
	case "squat":
		return Squat, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// MarshalJSON encodes the mode as its name.
func (m Mode) MarshalJSON() ([]byte, error) {
	if !m.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownMode, int(m))
	}
	return json.Marshal(m.String())
}

// UnmarshalJSON decodes a mode name.
func (m *Mode) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	v, err := ParseMode(s)
	if err != nil {
		return err
	}
	*m = v
	return nil
}
