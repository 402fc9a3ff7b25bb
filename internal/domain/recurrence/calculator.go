package recurrence

import (
	"fmt"

	"cloud.google.com/go/civil"
)

const daysPerWeek = 7

// ValidateInterval rejects anything but a positive whole number of weeks.
func ValidateInterval(weeks int) error {
	if weeks < 1 {
		return fmt.Errorf("%w: got %d", ErrInvalidInterval, weeks)
	}
	return nil
}

// ComputeDueDate advances reference by intervalWeeks*7 calendar days.
//
// A zero reference means "no due date" and yields the zero date without error.
// The interval is never defaulted here; callers that want a fallback apply it
// before calling in.
func ComputeDueDate(reference civil.Date, intervalWeeks int) (civil.Date, error) {
	if err := ValidateInterval(intervalWeeks); err != nil {
		return civil.Date{}, err
	}
	if reference.IsZero() {
		return civil.Date{}, nil
	}
	if !reference.IsValid() {
		return civil.Date{}, fmt.Errorf("%w: %s", ErrInvalidDate, reference)
	}
	return reference.AddDays(intervalWeeks * daysPerWeek), nil
}

// ParseDate parses a yyyy-mm-dd string. Blank input yields the zero date.
func ParseDate(raw string) (civil.Date, error) {
	if raw == "" {
		return civil.Date{}, nil
	}
	d, err := civil.ParseDate(raw)
	if err != nil {
		return civil.Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, raw)
	}
	return d, nil
}

// FormatDate renders d as yyyy-mm-dd, or "" for the zero date.
func FormatDate(d civil.Date) string {
	if d.IsZero() {
		return ""
	}
	return d.String()
}
