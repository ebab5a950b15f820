package loo7

import (
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/loo7/core"
)

// RestDay is the weekday on which no recitation is scheduled.
const RestDay = time.Friday

// NextRecitationDate returns the first day after t that is not a rest day.
// The result is a date at midnight UTC.
func NextRecitationDate(t time.Time) time.Time {
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
	for d.Weekday() == RestDay {
		d = d.AddDate(0, 0, 1)
	}
	return d
}

// DefaultDate is the date pre-filled for a new loo7: tomorrow, skipping the rest day.
// today is taken as a calendar date in its own location.
func DefaultDate(today time.Time) string {
	return NextRecitationDate(today).Format(core.DateLayout)
}

// Reschedule returns the recitation date of the loo7 replacing one dated date after a "repeat" score.
func Reschedule(date string) (string, error) {
	d, err := ParseDate(date)
	if err != nil {
		return "", err
	}
	return NextRecitationDate(d).Format(core.DateLayout), nil
}

// ParseDate parses a YYYY-MM-DD date, returning a ValidationError when malformed.
func ParseDate(date string) (time.Time, error) {
	d, err := time.Parse(core.DateLayout, date)
	if err != nil {
		return time.Time{}, core.NewValidationError(
			errors.Wrapf(err, "parsing date %q", date),
			core.FieldError{Field: "date", Error: "date must be formatted as YYYY-MM-DD"},
		)
	}
	return d, nil
}
