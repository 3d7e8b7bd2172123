package trip

import (
	"errors"
	"testing"
	"time"
)

func TestParseTravelDateValid(t *testing.T) {
	d, err := ParseTravelDate("15-01-2026")
	if err != nil {
		t.Fatalf("ParseTravelDate: %v", err)
	}
	if d.String() != "15-01-2026" {
		t.Fatalf("String() = %q", d.String())
	}
	if d.Compact() != "15012026" {
		t.Fatalf("Compact() = %q", d.Compact())
	}
	if d.Weekday() != time.Thursday {
		t.Fatalf("Weekday() = %s", d.Weekday())
	}
}

func TestParseTravelDateTrimsAndAcceptsPast(t *testing.T) {
	d, err := ParseTravelDate("  01-03-1999 ")
	if err != nil {
		t.Fatalf("ParseTravelDate: %v", err)
	}
	if d.String() != "01-03-1999" {
		t.Fatalf("String() = %q", d.String())
	}
}

func TestParseTravelDateLeapDay(t *testing.T) {
	if _, err := ParseTravelDate("29-02-2028"); err != nil {
		t.Fatalf("leap day rejected: %v", err)
	}
	if _, err := ParseTravelDate("29-02-2026"); err == nil {
		t.Fatal("29-02-2026 accepted")
	}
}

func TestParseTravelDateRejects(t *testing.T) {
	cases := map[string]Reason{
		"":            ReasonFormat,
		"15/01/2026":  ReasonFormat,
		"2026-01-15":  ReasonFormat,
		"1-1-2026":    ReasonFormat,
		"15-1-2026":   ReasonFormat,
		"15-01-26":    ReasonFormat,
		"aa-bb-cccc":  ReasonFormat,
		"15-01-2026x": ReasonFormat,
		"tomorrow":    ReasonFormat,
		"31-02-2026":  ReasonCalendar,
		"00-01-2026":  ReasonCalendar,
		"32-01-2026":  ReasonCalendar,
		"15-13-2026":  ReasonCalendar,
		"15-00-2026":  ReasonCalendar,
		"31-04-2026":  ReasonCalendar,
	}
	for in, want := range cases {
		_, err := ParseTravelDate(in)
		if err == nil {
			t.Fatalf("ParseTravelDate(%q) accepted", in)
		}
		if !errors.Is(err, ErrInvalidDate) {
			t.Fatalf("ParseTravelDate(%q) error %v is not ErrInvalidDate", in, err)
		}
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("ParseTravelDate(%q) error type %T", in, err)
		}
		if verr.Reason != want {
			t.Fatalf("ParseTravelDate(%q) reason = %s, want %s", in, verr.Reason, want)
		}
	}
}

func TestZeroTravelDate(t *testing.T) {
	var d TravelDate
	if !d.IsZero() || d.String() != "" || d.Compact() != "" {
		t.Fatalf("zero value formatted as %q/%q", d.String(), d.Compact())
	}
}

func TestParseTravelDateFirstYear(t *testing.T) {
	d, err := ParseTravelDate("01-01-0001")
	if err != nil {
		t.Fatalf("ParseTravelDate: %v", err)
	}
	if d.IsZero() {
		t.Fatal("valid date reported as unset")
	}
	if d.String() != "01-01-0001" || d.Compact() != "01010001" {
		t.Fatalf("formatted as %q/%q", d.String(), d.Compact())
	}
}
