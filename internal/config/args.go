package config

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"cronls/internal/shared"
)

// Accepted absolute time layouts, tried in order.
var timeLayouts = []string{
	"06/01/02-15:04",
	"06/01/02",
	"20060102_150405",
}

var offsetArg = regexp.MustCompile(`^-[0-9]+$`)

// normalizeOffsets rewrites negative hour offsets such as "-4" into
// "now-4" so the flag parser does not read them as shorthand flags.
func normalizeOffsets(args []string) []string {
	out := make([]string, len(args))
	for i, arg := range args {
		if offsetArg.MatchString(arg) {
			arg = "now" + arg
		}
		out[i] = arg
	}
	return out
}

// ParseTime converts a command-line time argument into a time in now's
// location. Accepted forms: "now", "+hh" / "-hh" and "now+hh" / "now-hh"
// (hours from now), "yy/mm/dd", "yy/mm/dd-HH:MM" and "yyyymmdd_hhmmss".
func ParseTime(value string, now time.Time) (time.Time, error) {
	if value == "now" {
		return now, nil
	}

	offset := strings.TrimPrefix(value, "now")
	if offset != "" && (offset[0] == '+' || offset[0] == '-') {
		digits := offset[1:]
		if digits == "" || strings.Trim(digits, "0123456789") != "" {
			return time.Time{}, shared.Validation("%q: hour offsets are written [+|-]hh (e.g. +24)", value)
		}
		hours, err := strconv.Atoi(digits)
		if err != nil {
			return time.Time{}, shared.Validation("%q: %w", value, err)
		}
		if offset[0] == '-' {
			hours = -hours
		}
		return now.Add(time.Duration(hours) * time.Hour), nil
	}

	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, value, now.Location()); err == nil {
			return t, nil
		}
	}
	return time.Time{}, shared.Validation(
		"%q: not a valid time (accepted: now, [+|-]hh, yy/mm/dd[-HH:MM], yyyymmdd_hhmmss)", value)
}
