package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/m3rciful/trainbot/internal/trip"
)

const (
	defaultHTTPTimeout   = 15 * time.Second
	maxResponseSizeBytes = 2 << 20
	userAgent            = "trainbot"
)

// HTTPSearcher queries GET {base}/trains?from=&to=&date=DD-MM-YYYY and
// accepts either a JSON array of trains or {"trains":[...]}.
type HTTPSearcher struct {
	baseURL    string
	httpClient *http.Client
}

// HTTPOption customizes HTTPSearcher.
type HTTPOption func(*HTTPSearcher)

// WithHTTPClient swaps the HTTP client, mainly for tests.
func WithHTTPClient(client *http.Client) HTTPOption {
	return func(s *HTTPSearcher) {
		if client != nil {
			s.httpClient = client
		}
	}
}

// NewHTTPSearcher validates baseURL and builds the client. There are no
// retries; the caller bounds the request with its context.
func NewHTTPSearcher(baseURL string, timeout time.Duration, opts ...HTTPOption) (*HTTPSearcher, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("search: base url is required")
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("search: invalid base url: %w", err)
	}
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}

	s := &HTTPSearcher{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy:                 http.ProxyFromEnvironment,
				DialContext:           (&net.Dialer{Timeout: 5 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
				MaxIdleConnsPerHost:   4,
				IdleConnTimeout:       60 * time.Second,
				TLSHandshakeTimeout:   5 * time.Second,
				ResponseHeaderTimeout: timeout,
			},
		},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

// Search performs a single request against the data service.
func (s *HTTPSearcher) Search(ctx context.Context, q trip.BookingQuery) ([]trip.TrainRecord, error) {
	params := url.Values{}
	params.Set("from", q.Origin)
	params.Set("to", q.Destination)
	params.Set("date", q.Date.String())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/trains?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("search: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSizeBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %w", ErrUnavailable, err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusNoContent:
		return []trip.TrainRecord{}, nil
	case resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices:
		return nil, fmt.Errorf("%w: http status=%d", ErrUnavailable, resp.StatusCode)
	}

	trains, err := decodeTrains(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return trains, nil
}

type trainsEnvelope struct {
	Trains []trip.TrainRecord `json:"trains"`
}

func decodeTrains(raw []byte) ([]trip.TrainRecord, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return []trip.TrainRecord{}, nil
	}
	if raw[0] == '[' {
		var list []trip.TrainRecord
		if err := json.Unmarshal(raw, &list); err != nil {
			return nil, fmt.Errorf("decode trains: %w", err)
		}
		return list, nil
	}
	var env trainsEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decode trains: %w", err)
	}
	if env.Trains == nil {
		return []trip.TrainRecord{}, nil
	}
	return env.Trains, nil
}
