package apod

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the date format used by the API and on the command line.
const DateLayout = "2006-01-02"

// FirstDate is the date of the first published APOD.
var FirstDate = time.Date(1995, time.June, 16, 0, 0, 0, 0, time.UTC)

// ParseDate parses a YYYY-MM-DD string into a UTC midnight timestamp.
func ParseDate(value string) (time.Time, error) {
	d, err := time.Parse(DateLayout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: use YYYY-MM-DD", value)
	}
	return d, nil
}

// ValidateDate reports whether an APOD can exist for d given the current time.
func ValidateDate(d, now time.Time) error {
	day := truncateDay(d)
	if day.Before(FirstDate) {
		return fmt.Errorf("date %s is before the first APOD (%s)", FormatDate(day), FormatDate(FirstDate))
	}
	if day.After(truncateDay(now)) {
		return fmt.Errorf("date %s is in the future", FormatDate(day))
	}
	return nil
}

// FormatDate renders d in the API's date format.
func FormatDate(d time.Time) string {
	return d.Format(DateLayout)
}

// Today returns the current calendar date as a UTC midnight timestamp.
func Today(now time.Time) time.Time {
	return truncateDay(now)
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
