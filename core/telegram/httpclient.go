package telegram

import (
	"net"
	"net/http"
	"time"

	"github.com/m3rciful/trainbot/core/telegram/netutil"
)

const (
	defaultDialTimeout     = 5 * time.Second
	defaultTLSHandshake    = 5 * time.Second
	defaultIdleConnTimeout = 30 * time.Second
	defaultClientTimeout   = 30 * time.Second
	defaultRetryAttempts   = 3
	defaultRetryBackoff    = 2 * time.Second
)

// BuildHTTPClient returns the client used for Telegram Bot API calls.
// Transient dial and timeout failures are retried with linear backoff.
// The client timeout leaves room above the long-poll timeout.
func BuildHTTPClient(pollTimeout time.Duration) *http.Client {
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: defaultDialTimeout, KeepAlive: 30 * time.Second}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          50,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       defaultIdleConnTimeout,
		TLSHandshakeTimeout:   defaultTLSHandshake,
		ExpectContinueTimeout: time.Second,
	}
	timeout := defaultClientTimeout
	if pollTimeout+10*time.Second > timeout {
		timeout = pollTimeout + 10*time.Second
	}
	return &http.Client{
		Timeout: timeout,
		Transport: &retryTransport{
			base:     transport,
			attempts: defaultRetryAttempts,
			backoff:  defaultRetryBackoff,
		},
	}
}

type retryTransport struct {
	base     http.RoundTripper
	attempts int
	backoff  time.Duration
}

func (t *retryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	attempts := max(t.attempts, 1)

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		try := req
		if attempt > 1 {
			if req.Body != nil && req.GetBody == nil {
				return nil, lastErr
			}
			try = req.Clone(req.Context())
			if req.GetBody != nil {
				body, err := req.GetBody()
				if err != nil {
					return nil, err
				}
				try.Body = body
			}
		}

		resp, err := base.RoundTrip(try)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if attempt == attempts || !netutil.ShouldRetry(err) {
			break
		}

		timer := time.NewTimer(t.backoff * time.Duration(attempt))
		select {
		case <-req.Context().Done():
			timer.Stop()
			return nil, req.Context().Err()
		case <-timer.C:
		}
	}
	return nil, lastErr
}
