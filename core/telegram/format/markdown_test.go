package format

import "testing"

func TestMD(t *testing.T) {
	if got, want := MD("a_b*c`d[e]"), "a\\_b\\*c\\`d\\[e]"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
	if got := MD("Rajdhani Express (12951)"); got != "Rajdhani Express (12951)" {
		t.Fatalf("plain text changed: %q", got)
	}
}

func TestPresent(t *testing.T) {
	blank := "  "
	seats := "AVAILABLE-0042"
	if Present(nil) || Present(&blank) || !Present(&seats) {
		t.Fatal("Present() misreports")
	}
}
