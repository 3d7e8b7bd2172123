package netutil

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"syscall"
	"testing"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestShouldRetry(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain", errors.New("bad request"), false},
		{"canceled", fmt.Errorf("send: %w", context.Canceled), false},
		{"dial", &net.OpError{Op: "dial", Err: errors.New("refused")}, true},
		{"read timeout", &net.OpError{Op: "read", Err: timeoutErr{}}, true},
		{"reset", &net.OpError{Op: "read", Err: syscall.ECONNRESET}, true},
		{"dns temporary", &net.DNSError{Err: "server misbehaving", IsTemporary: true}, true},
		{"dns not found", &net.DNSError{Err: "no such host", IsNotFound: true}, false},
		{"url timeout", &url.Error{Op: "Post", URL: "https://api.telegram.org", Err: timeoutErr{}}, true},
		{"url wrapping dial", &url.Error{Op: "Post", URL: "https://api.telegram.org", Err: &net.OpError{Op: "dial", Err: errors.New("x")}}, true},
	}
	for _, tc := range cases {
		if got := ShouldRetry(tc.err); got != tc.want {
			t.Fatalf("%s: ShouldRetry = %v, want %v", tc.name, got, tc.want)
		}
	}
}
