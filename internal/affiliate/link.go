// Package affiliate builds partner-tagged booking links.
package affiliate

import (
	"net/url"
	"strings"

	"github.com/m3rciful/trainbot/internal/trip"
)

const (
	// DefaultBaseURL is the booking site's railways search page.
	DefaultBaseURL = "https://www.makemytrip.com/railways"
	// DefaultAffiliateID is the placeholder partner identifier.
	DefaultAffiliateID = "YOUR_AFFILIATE_ID_HERE"
)

// Builder produces booking URLs for completed queries.
type Builder struct {
	BaseURL     string
	AffiliateID string
}

// NewBuilder returns a Builder, falling back to defaults for empty values.
func NewBuilder(baseURL, affiliateID string) Builder {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	affiliateID = strings.TrimSpace(affiliateID)
	if affiliateID == "" {
		affiliateID = DefaultAffiliateID
	}
	return Builder{BaseURL: baseURL, AffiliateID: affiliateID}
}

// Build returns the booking URL. Parameters keep the order from, to, date,
// affiliateId; values are query-escaped.
func (b Builder) Build(q trip.BookingQuery) string {
	base := b.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	id := b.AffiliateID
	if id == "" {
		id = DefaultAffiliateID
	}

	var sb strings.Builder
	sb.WriteString(base)
	if strings.Contains(base, "?") {
		sb.WriteByte('&')
	} else {
		sb.WriteByte('?')
	}
	writeParam(&sb, "from", q.Origin, false)
	writeParam(&sb, "to", q.Destination, true)
	writeParam(&sb, "date", q.Date.Compact(), true)
	writeParam(&sb, "affiliateId", id, true)
	return sb.String()
}

func writeParam(sb *strings.Builder, key, value string, sep bool) {
	if sep {
		sb.WriteByte('&')
	}
	sb.WriteString(key)
	sb.WriteByte('=')
	sb.WriteString(url.QueryEscape(value))
}
