package trip

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

const (
	// DateLayout is the canonical user-facing travel date layout (DD-MM-YYYY).
	DateLayout = "02-01-2006"
	// CompactLayout is the separator-free layout used by booking links (DDMMYYYY).
	CompactLayout = "02012006"
)

// Reason classifies why a travel date was rejected.
type Reason string

const (
	// ReasonFormat means the input does not look like DD-MM-YYYY.
	ReasonFormat Reason = "format"
	// ReasonCalendar means the shape is right but the date does not exist.
	ReasonCalendar Reason = "calendar"
)

// ErrInvalidDate is matched by every *ValidationError via errors.Is.
var ErrInvalidDate = errors.New("invalid travel date")

var dateShape = regexp.MustCompile(`^[0-9]{2}-[0-9]{2}-[0-9]{4}$`)

// ValidationError reports a rejected travel date.
type ValidationError struct {
	Input  string
	Reason Reason
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid travel date %q: %s", e.Input, e.Reason)
}

// Is lets callers test against ErrInvalidDate.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidDate
}

// Code implements the router's error code convention.
func (e *ValidationError) Code() string {
	return "invalid_date_" + string(e.Reason)
}

// TravelDate is a validated calendar day. The zero value is unset.
type TravelDate struct {
	t     time.Time
	valid bool
}

// ParseTravelDate validates s as DD-MM-YYYY. Past dates are accepted.
func ParseTravelDate(s string) (TravelDate, error) {
	s = strings.TrimSpace(s)
	if !dateShape.MatchString(s) {
		return TravelDate{}, &ValidationError{Input: s, Reason: ReasonFormat}
	}
	t, err := time.ParseInLocation(DateLayout, s, time.UTC)
	if err != nil {
		return TravelDate{}, &ValidationError{Input: s, Reason: ReasonCalendar}
	}
	return TravelDate{t: t, valid: true}, nil
}

// IsZero reports whether d was never set.
func (d TravelDate) IsZero() bool {
	return !d.valid
}

// String returns the canonical DD-MM-YYYY form.
func (d TravelDate) String() string {
	if d.IsZero() {
		return ""
	}
	return d.t.Format(DateLayout)
}

// Compact returns the digits-only DDMMYYYY form.
func (d TravelDate) Compact() string {
	if d.IsZero() {
		return ""
	}
	return d.t.Format(CompactLayout)
}

// Weekday returns the day of week of the travel date.
func (d TravelDate) Weekday() time.Weekday {
	return d.t.Weekday()
}
