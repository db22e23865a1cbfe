package model

import (
	"net/url"
	"strings"
)

// Link describes one outgoing anchor discovered on a page.
// Links are produced by the HTML parser, vectorized by the feature
// extractor, and turned into pending requests by the controller.
type Link struct {
	// URL is the absolute target URL of the anchor.
	URL string `json:"url"`

	// Text is the visible anchor text, whitespace-normalized.
	Text string `json:"text"`

	// Domain is the target domain the link points at.
	Domain string `json:"domain"`

	// SameDomain reports whether the link stays on the domain of the
	// page it was found on. Used as a feature and for the stay-in-domain
	// crawl policy.
	SameDomain bool `json:"same_domain"`
}

// DomainOf extracts the domain key used for frontier slots from a raw URL.
// The port and a leading "www." prefix are stripped so that
// http://www.example.com:8080/ and https://example.com/ share one slot.
// An unparsable URL yields an empty domain.
func DomainOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	return strings.TrimPrefix(host, "www.")
}
