package sebcrypto

import (
	"net/url"
	"strings"
)

// NavDecision is the outcome of classifying a navigation target.
type NavDecision int

const (
	Blocked NavDecision = iota
	AllowedSSO
	Allowed
)

func (d NavDecision) String() string {
	switch d {
	case Blocked:
		return "Blocked"
	case AllowedSSO:
		return "AllowedSSO"
	case Allowed:
		return "Allowed"
	default:
		return "Unknown"
	}
}

var dangerousSchemes = map[string]bool{
	"file":            true,
	"about":           true,
	"chrome":          true,
	"data":            true,
	"javascript":      true,
	"view-source":     true,
	"ftp":             true,
	"blob":            true,
	"chrome-devtools": true,
}

// DefaultSSOIndicators are host substrings that mark a login/identity
// redirect, permitted even outside the allow-pattern whitelist.
var DefaultSSOIndicators = []string{
	"login.",
	"sso.",
	"idp.",
	"okta.com",
	"login.microsoftonline.com",
	"accounts.google.com",
	"shibboleth",
	"cas.",
	"auth.",
	"adfs.",
}

// NavigationFilter classifies URLs against a configured
// allow/block-pattern list plus the fixed dangerous-scheme and SSO
// rules. Zero value is usable with no patterns (default-allow beyond
// dangerous schemes).
type NavigationFilter struct {
	AllowPatterns []string
	BlockPatterns []string
	SSOIndicators []string
}

// NewNavigationFilter builds a filter from configured allow/block glob
// patterns, defaulting the SSO indicator list.
func NewNavigationFilter(allow, block []string) *NavigationFilter {
	return &NavigationFilter{
		AllowPatterns: allow,
		BlockPatterns: block,
		SSOIndicators: DefaultSSOIndicators,
	}
}

// Classify applies the decision ladder from §4.4.6, in order:
// dangerous scheme, SSO indicator, block pattern, allow-pattern
// exhaustion, default allow. Rule 1 takes absolute precedence — no
// pattern can re-enable a dangerous scheme.
func (f *NavigationFilter) Classify(rawURL string) NavDecision {
	u, err := url.Parse(rawURL)
	if err != nil {
		return Blocked
	}

	if dangerousSchemes[strings.ToLower(u.Scheme)] {
		return Blocked
	}

	host := strings.ToLower(u.Hostname())
	for _, indicator := range f.SSOIndicators {
		if strings.Contains(host, strings.ToLower(indicator)) {
			return AllowedSSO
		}
	}

	for _, pattern := range f.BlockPatterns {
		if matchURLGlob(pattern, u) {
			return Blocked
		}
	}

	if len(f.AllowPatterns) > 0 {
		matched := false
		for _, pattern := range f.AllowPatterns {
			if matchURLGlob(pattern, u) {
				matched = true
				break
			}
		}
		if !matched {
			return Blocked
		}
	}

	return Allowed
}

// matchURLGlob matches a pattern of the form host/path against a
// parsed URL. The host segment is matched case-insensitively; the path
// segment (everything after the first '/') is matched case-preserving.
// '*' matches any run of characters (including '/'); '?' matches
// exactly one character; every other character is literal.
func matchURLGlob(pattern string, u *url.URL) bool {
	subject := strings.ToLower(u.Hostname()) + u.EscapedPath()
	if u.RawQuery != "" {
		subject += "?" + u.RawQuery
	}

	// The pattern's host portion is matched case-insensitively; lower
	// the whole pattern's host segment but leave the rest untouched.
	normalizedPattern := lowerHostSegment(pattern)

	return globMatch(normalizedPattern, subject)
}

func lowerHostSegment(pattern string) string {
	idx := strings.IndexByte(pattern, '/')
	if idx < 0 {
		return strings.ToLower(pattern)
	}
	return strings.ToLower(pattern[:idx]) + pattern[idx:]
}

// globMatch implements '*'-and-'?' glob matching with '*' allowed to
// match across '/' boundaries, per §4.4.6 ("URL-aware globs").
func globMatch(pattern, s string) bool {
	return globMatchRec(pattern, s)
}

func globMatchRec(pattern, s string) bool {
	for len(pattern) > 0 {
		switch pattern[0] {
		case '*':
			// Collapse consecutive '*'.
			for len(pattern) > 0 && pattern[0] == '*' {
				pattern = pattern[1:]
			}
			if len(pattern) == 0 {
				return true
			}
			for i := 0; i <= len(s); i++ {
				if globMatchRec(pattern, s[i:]) {
					return true
				}
			}
			return false
		case '?':
			if len(s) == 0 {
				return false
			}
			pattern = pattern[1:]
			s = s[1:]
		default:
			if len(s) == 0 || pattern[0] != s[0] {
				return false
			}
			pattern = pattern[1:]
			s = s[1:]
		}
	}
	return len(s) == 0
}
