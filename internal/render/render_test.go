package render

import (
	"fmt"
	"strings"
	"testing"

	"github.com/m3rciful/trainbot/internal/trip"
)

func sampleTrains(n int) []trip.TrainRecord {
	out := make([]trip.TrainRecord, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, trip.TrainRecord{
			Name:      fmt.Sprintf("Express %02d", i),
			Number:    fmt.Sprintf("120%02d", i),
			Departure: "06:00",
			Arrival:   "22:10",
			Duration:  "16h 10m",
		})
	}
	return out
}

func TestResultsCapsAtTenInOrder(t *testing.T) {
	q := trip.BookingQuery{Origin: "Mumbai", Destination: "Delhi", Date: mustDate("15-01-2026")}
	r := Results(q, sampleTrains(12), "https://example.test/book")

	if !r.Markdown || !r.NoPreview {
		t.Fatalf("results must be markdown without preview: %+v", r)
	}
	for i := 1; i <= 10; i++ {
		if !strings.Contains(r.Text, fmt.Sprintf("*%d. Express %02d*", i, i)) {
			t.Fatalf("entry %d missing:\n%s", i, r.Text)
		}
	}
	if strings.Contains(r.Text, "Express 11") || strings.Contains(r.Text, "*11.") {
		t.Fatalf("more than ten entries rendered:\n%s", r.Text)
	}
	prev := -1
	for i := 1; i <= 10; i++ {
		idx := strings.Index(r.Text, fmt.Sprintf("Express %02d", i))
		if idx < prev {
			t.Fatalf("entry %d out of order", i)
		}
		prev = idx
	}
}

func TestResultsHeaderAndLink(t *testing.T) {
	q := trip.BookingQuery{Origin: "Mumbai", Destination: "Delhi", Date: mustDate("15-01-2026")}
	r := Results(q, sampleTrains(1), "https://example.test/book?from=Mumbai")

	for _, want := range []string{
		"*From:* Mumbai",
		"*To:* Delhi",
		"*Date:* 15-01-2026",
		"(https://example.test/book?from=Mumbai)",
		"Type /start to search again.",
	} {
		if !strings.Contains(r.Text, want) {
			t.Fatalf("missing %q in:\n%s", want, r.Text)
		}
	}
	if strings.Index(r.Text, "Express 01") > strings.Index(r.Text, "Book Your Ticket") {
		t.Fatal("link must follow the train list")
	}
}

func TestResultsAvailabilityOptional(t *testing.T) {
	seats := "AVAILABLE-0042"
	blank := " "
	trains := sampleTrains(3)
	trains[0].Availability = &seats
	trains[2].Availability = &blank

	q := trip.BookingQuery{Origin: "A", Destination: "B", Date: mustDate("01-01-2026")}
	r := Results(q, trains, "https://example.test")

	if strings.Count(r.Text, "💺") != 1 {
		t.Fatalf("expected one availability line:\n%s", r.Text)
	}
	if !strings.Contains(r.Text, "💺 AVAILABLE-0042") {
		t.Fatalf("availability missing:\n%s", r.Text)
	}
}

func TestResultsEscapesUserText(t *testing.T) {
	q := trip.BookingQuery{Origin: "Old_Town", Destination: "*Hub*", Date: mustDate("01-01-2026")}
	r := Results(q, nil, "https://example.test")
	if !strings.Contains(r.Text, `Old\_Town`) || !strings.Contains(r.Text, `\*Hub\*`) {
		t.Fatalf("station names not escaped:\n%s", r.Text)
	}
}

func TestPromptsEchoStations(t *testing.T) {
	if got := AskDestination("Pune").Text; !strings.Contains(got, "From: Pune") {
		t.Fatalf("AskDestination: %s", got)
	}
	got := AskDate("Pune", "Goa").Text
	if !strings.Contains(got, "From: Pune") || !strings.Contains(got, "To: Goa") || !strings.Contains(got, "DD-MM-YYYY") {
		t.Fatalf("AskDate: %s", got)
	}
	if !strings.Contains(Greeting("Asha").Text, "Hello Asha!") {
		t.Fatal("greeting lacks name")
	}
	if !strings.Contains(Greeting("").Text, "Hello there!") {
		t.Fatal("greeting fallback missing")
	}
}

func TestNoResultsMentionsNoTrains(t *testing.T) {
	if !strings.Contains(NoResults().Text, "No trains found") {
		t.Fatal("no-results reply lacks indication")
	}
	if !Cancelled().RemoveKeyboard {
		t.Fatal("cancel should remove keyboard")
	}
}

func mustDate(s string) trip.TravelDate {
	d, err := trip.ParseTravelDate(s)
	if err != nil {
		panic(err)
	}
	return d
}
