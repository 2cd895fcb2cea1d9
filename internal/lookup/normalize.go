package lookup

import (
	"regexp"
	"strings"
)

// Service identifiers attached to lookup results and history entries.
const (
	ServiceNetflix = "netflix"
	ServiceManual  = "manual"
)

var (
	titleLinkPattern = regexp.MustCompile(`(?i)netflix\.com/(?:[a-z]{2}/)?title/(\d+)`)
	jbvLinkPattern   = regexp.MustCompile(`(?i)netflix\.com/[^?]*\?jbv=(\d+)`)
	netflixIDPattern = regexp.MustCompile(`(?i)netflix\.com/(?:title/|browse\?jbv=)(\d+)`)
	localeSegPattern = regexp.MustCompile(`(?i)netflix\.com/[a-z]{2}/`)
)

// NormalizeURL canonicalizes a raw input string. Netflix links are rebuilt
// without query parameters and locale path segments; anything else passes
// through verbatim. The history service relies on this same function for
// dedup, so the rules here define canonical identity for the whole app.
//
// Examples:
//
//	netflix.com/gb/title/82177711?s=i&trkid=x -> https://www.netflix.com/title/82177711
//	netflix.com/browse?jbv=70196147&x=y       -> https://www.netflix.com/browse?jbv=70196147
func NormalizeURL(input string) string {
	if !strings.Contains(input, "netflix.com") {
		return input
	}

	if m := titleLinkPattern.FindStringSubmatch(input); m != nil {
		return "https://www.netflix.com/title/" + m[1]
	}
	if m := jbvLinkPattern.FindStringSubmatch(input); m != nil {
		return "https://www.netflix.com/browse?jbv=" + m[1]
	}

	// Unrecognized netflix.com shape: strip the query string and any
	// two-letter locale path segment as a best effort.
	stripped, _, _ := strings.Cut(input, "?")
	return localeSegPattern.ReplaceAllString(stripped, "netflix.com/")
}

// DetectService classifies a normalized input as a Netflix link or free text.
func DetectService(input string) string {
	if netflixIDPattern.MatchString(NormalizeURL(input)) {
		return ServiceNetflix
	}
	return ServiceManual
}

// ExtractNetflixID pulls the numeric content id out of a Netflix link.
// Returns "" when no id is present.
func ExtractNetflixID(input string) string {
	m := netflixIDPattern.FindStringSubmatch(NormalizeURL(input))
	if m == nil {
		return ""
	}
	return m[1]
}
