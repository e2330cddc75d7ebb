package domain

import "strings"

// Mode is a generation mode that carries a free daily quota.
type Mode string

const (
	ModeStylize  Mode = "stylize"
	ModeRemoveBg Mode = "remove_bg"
	ModeEnhance  Mode = "enhance"
)

// Modes lists every quota-bearing mode.
var Modes = []Mode{ModeStylize, ModeRemoveBg, ModeEnhance}

// ParseMode accepts both the snake_case and the camelCase spelling used by
// the mini app ("removeBg").
func ParseMode(s string) (Mode, error) {
	switch strings.TrimSpace(s) {
	case "stylize":
		return ModeStylize, nil
	case "remove_bg", "removeBg", "removebg":
		return ModeRemoveBg, nil
	case "enhance":
		return ModeEnhance, nil
	}
	return "", ErrInvalidMode
}

// Valid reports whether m is one of Modes.
func (m Mode) Valid() bool {
	switch m {
	case ModeStylize, ModeRemoveBg, ModeEnhance:
		return true
	}
	return false
}

// Column is the accounts column holding the counter for m. Callers must
// check Valid first; the result is interpolated into SQL.
func (m Mode) Column() string {
	switch m {
	case ModeStylize:
		return "free_stylize"
	case ModeRemoveBg:
		return "free_remove_bg"
	case ModeEnhance:
		return "free_enhance"
	}
	return ""
}

// DefaultPrices are the star costs of a paid generation per mode.
var DefaultPrices = map[Mode]int64{
	ModeStylize:  5,
	ModeRemoveBg: 3,
	ModeEnhance:  8,
}
