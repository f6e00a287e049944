package series

import (
	"fmt"
	"regexp"
	"time"
)

// Compact numeric encodings are detected by exact digit length before
// falling back to generic layouts.
var (
	yearMonthRe    = regexp.MustCompile(`^\d{6}$`)
	yearMonthDayRe = regexp.MustCompile(`^\d{8}$`)
)

// Generic layouts tried in order after the compact forms
var genericLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
	"2006/01/02",
}

// ParseTimestamp parses the three supported timestamp encodings:
// YYYYMM (first of month), YYYYMMDD (midnight), and ISO-style date or
// date-time strings. All compact forms are interpreted as UTC.
func ParseTimestamp(s string) (time.Time, error) {
	switch {
	case yearMonthRe.MatchString(s):
		return time.Parse("200601", s)
	case yearMonthDayRe.MatchString(s):
		return time.Parse("20060102", s)
	}

	for _, layout := range genericLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}
