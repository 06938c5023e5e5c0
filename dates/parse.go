package dates

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DatetimeParseError is returned by ParseDatetime for empty, non-numeric
// or out of range input.
type DatetimeParseError struct {
	Raw string
}

func (e *DatetimeParseError) Error() string {
	return fmt.Sprintf("dates: cannot parse datetime %q", e.Raw)
}

// Epoch seconds of 0001-01-01 and 9999-12-31T23:59:59 UTC.
const (
	minEpoch = -62135596800
	maxEpoch = 253402300799
)

// ParseDatetime reads Unix epoch seconds, optionally with a fractional
// part, as sent by calendar widgets.
func ParseDatetime(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	whole, frac, hasFrac := strings.Cut(s, ".")
	if whole == "" || whole == "-" || (hasFrac && frac == "") || !digits(strings.TrimPrefix(whole, "-")) || !digits(frac) {
		return time.Time{}, &DatetimeParseError{Raw: raw}
	}

	secs, err := strconv.ParseInt(whole, 10, 64)
	if err != nil || secs < minEpoch || secs > maxEpoch {
		return time.Time{}, &DatetimeParseError{Raw: raw}
	}

	var nsec int64
	if frac != "" {
		frac = (frac + "000000000")[:9]
		nsec, _ = strconv.ParseInt(frac, 10, 64)
		if strings.HasPrefix(whole, "-") {
			nsec = -nsec
		}
	}
	return time.Unix(secs, nsec).UTC(), nil
}

func digits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Form date layouts, tried in order.
var dateLayouts = []string{
	"2006-01-02",
	"02 January 2006",
	"2 January 2006",
}

// ParseDate reads a calendar date from a form value.
func ParseDate(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Day(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("dates: invalid date %q", raw)
}

// Format renders a date as YYYY-MM-DD.
func Format(t time.Time) string {
	return t.Format("2006-01-02")
}
