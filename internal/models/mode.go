package models

import (
	"fmt"
	"strings"
)

// QueryMode selects the active query form. The zero value shows no form.
type QueryMode int

const (
	ModeNone QueryMode = iota
	ModeSong
	ModeValues
	ModeGenre
)

// Modes lists the selectable modes in menu order.
var Modes = []QueryMode{ModeSong, ModeValues, ModeGenre}

func (m QueryMode) String() string {
	switch m {
	case ModeSong:
		return "song"
	case ModeValues:
		return "values"
	case ModeGenre:
		return "genre"
	default:
		return "none"
	}
}

// MarshalText encodes the mode by name.
func (m QueryMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// Label is the menu text for a mode.
func (m QueryMode) Label() string {
	switch m {
	case ModeSong:
		return "Based on Song"
	case ModeValues:
		return "Based on Values"
	case ModeGenre:
		return "Based on Genre"
	default:
		return "--Select--"
	}
}

// ParseQueryMode parses a mode name. "value" is accepted as an alias for "values".
func ParseQueryMode(s string) (QueryMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "song":
		return ModeSong, nil
	case "values", "value":
		return ModeValues, nil
	case "genre":
		return ModeGenre, nil
	case "", "none", "select":
		return ModeNone, nil
	}
	return ModeNone, fmt.Errorf("unknown query mode %q", s)
}
