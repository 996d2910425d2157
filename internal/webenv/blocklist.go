package webenv

import (
	"net/url"
	"strings"
)

// DefaultBlocklist is the static domain blocklist bundled with the binary
// (spec.md 6): social walls, known low-quality aggregators, and paywalled
// news fronts that rarely yield extractable, citable text.
var DefaultBlocklist = []string{
	"facebook.com",
	"instagram.com",
	"tiktok.com",
	"pinterest.com",
	"quora.com",
	"reddit.com",
	"medium.com",
	"wsj.com",
	"ft.com",
	"bloomberg.com",
	"nytimes.com",
}

// Blocklist decides whether a URL's registrable domain is blocked.
type Blocklist struct {
	Domains map[string]struct{}
}

// NewBlocklist builds a Blocklist from a domain list, matching subdomains
// of each entry (e.g. "m.facebook.com" blocked by "facebook.com").
func NewBlocklist(domains []string) Blocklist {
	m := make(map[string]struct{}, len(domains))
	for _, d := range domains {
		m[strings.ToLower(strings.TrimSpace(d))] = struct{}{}
	}
	return Blocklist{Domains: m}
}

// Blocked reports whether rawURL's host (or scheme) disqualifies it per
// spec.md 4.2 step 2: non-http(s) scheme, or a blocklisted domain.
func (b Blocklist) Blocked(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return true
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return true
	}
	host := strings.ToLower(u.Hostname())
	for d := range b.Domains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

// Domain returns the registrable-ish host component used as
// Document.Domain / Claim.SourceDomain: lowercased hostname, no port.
func Domain(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}
