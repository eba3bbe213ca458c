// Package util provides loose-typing helpers for values decoded from AIS
// payloads, where the feed may deliver the same field as a string, a number
// or not at all.
package util

import (
	"strconv"
	"strings"
)

// AsString coerces a decoded JSON value to a trimmed string. Numbers are
// formatted without an exponent; nil and unsupported types yield "".
func AsString(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

// AsFloat coerces a decoded JSON value to a float64. Strings are parsed;
// anything unparsable yields 0.
func AsFloat(v any) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0
		}
		return f
	case int:
		return float64(t)
	default:
		return 0
	}
}

// AsInt coerces a decoded JSON value to an int, truncating floats.
func AsInt(v any) int {
	switch t := v.(type) {
	case float64:
		return int(t)
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(t))
		if err != nil {
			return 0
		}
		return i
	case int:
		return t
	default:
		return 0
	}
}

// AsBool coerces a decoded JSON value to a bool.
func AsBool(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(t))
		if err != nil {
			return false
		}
		return b
	case float64:
		return t != 0
	default:
		return false
	}
}

// FirstNonEmpty returns the first non-empty string of its arguments.
func FirstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
