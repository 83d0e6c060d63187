// Package fiscalyear handles the institution's April-to-March accounting
// years, written as "YYYY-YY" (e.g. "2024-25").
package fiscalyear

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// StartMonth is the first month of every fiscal year.
const StartMonth = time.April

var pattern = regexp.MustCompile(`^(\d{4})-(\d{2})$`)

// Parse returns the calendar year a fiscal year label starts in.
// The two-digit suffix must be the following year.
func Parse(label string) (int, error) {
	m := pattern.FindStringSubmatch(label)
	if m == nil {
		return 0, fmt.Errorf("fiscal year %q must match YYYY-YY", label)
	}
	start, _ := strconv.Atoi(m[1])
	suffix, _ := strconv.Atoi(m[2])
	if (start+1)%100 != suffix {
		return 0, fmt.Errorf("fiscal year %q must span consecutive years", label)
	}
	return start, nil
}

// Valid reports whether label is a well-formed fiscal year.
func Valid(label string) bool {
	_, err := Parse(label)
	return err == nil
}

// Format builds the label for the fiscal year starting in startYear.
func Format(startYear int) string {
	return fmt.Sprintf("%04d-%02d", startYear, (startYear+1)%100)
}

// For returns the fiscal year containing t.
func For(t time.Time) string {
	year := t.Year()
	if t.Month() < StartMonth {
		year--
	}
	return Format(year)
}

// Next returns the fiscal year after label.
func Next(label string) (string, error) {
	start, err := Parse(label)
	if err != nil {
		return "", err
	}
	return Format(start + 1), nil
}

// Bounds returns the first instant of the fiscal year and the first
// instant of the following one, in loc.
func Bounds(label string, loc *time.Location) (time.Time, time.Time, error) {
	start, err := Parse(label)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	from := time.Date(start, StartMonth, 1, 0, 0, 0, 0, loc)
	return from, from.AddDate(1, 0, 0), nil
}
