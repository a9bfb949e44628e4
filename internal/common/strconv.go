package common

import "strconv"

// AtoiDefault parses value as an int, returning def when empty or malformed.
func AtoiDefault(value string, def int) int {
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

// ParseInt64Default parses value as an int64, returning def when empty or malformed.
func ParseInt64Default(value string, def int64) int64 {
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return def
	}
	return parsed
}
