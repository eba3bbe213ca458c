package core

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidMMSI is returned when an identifier cannot be normalized.
var ErrInvalidMMSI = errors.New("invalid MMSI identifier")

// NormalizeMMSI converts any identifier representation that can arrive on
// the wire (string, JSON number, integer) into the canonical string form
// used as the key in every set. Normalization happens once at the boundary
// where records enter a store, so lookups never need multi-variant probing.
func NormalizeMMSI(id any) (string, error) {
	var s string
	switch v := id.(type) {
	case string:
		s = strings.TrimSpace(v)
	case float64:
		// JSON numbers decode as float64; MMSIs fit in 9 digits so the
		// conversion is lossless.
		s = strconv.FormatInt(int64(v), 10)
	case int:
		s = strconv.Itoa(v)
	case int64:
		s = strconv.FormatInt(v, 10)
	case uint:
		s = strconv.FormatUint(uint64(v), 10)
	case fmt.Stringer:
		s = strings.TrimSpace(v.String())
	default:
		return "", ErrInvalidMMSI
	}

	if s == "" || !IsDigits(s) {
		return "", ErrInvalidMMSI
	}
	return s, nil
}

// IsDigits reports whether s is non-empty and consists only of ASCII digits.
func IsDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
