// Package lms holds the lightweight pattern tables used to recognize
// which Learning Management System an exam's start URL belongs to.
// This is explicitly out-of-core per the specification ("LMS-specific
// URL recognizers — straightforward pattern tables") and is kept
// intentionally thin: no LMS-specific request shaping lives here, only
// identification used for diagnostics. Nothing here seeds navigation
// allow patterns.
package lms

import "strings"

type Type int

const (
	Unknown Type = iota
	Moodle
	Canvas
	Blackboard
	Brightspace
	Sakai
	Schoology
)

func (t Type) String() string {
	switch t {
	case Moodle:
		return "Moodle"
	case Canvas:
		return "Canvas"
	case Blackboard:
		return "Blackboard"
	case Brightspace:
		return "Brightspace"
	case Sakai:
		return "Sakai"
	case Schoology:
		return "Schoology"
	default:
		return "Unknown"
	}
}

// hostIndicators maps a substring found in the exam start URL's host
// or path to the LMS it identifies. Order doesn't matter: entries are
// disjoint in practice.
var hostIndicators = map[string]Type{
	"moodle":        Moodle,
	"/mod/quiz":     Moodle,
	"instructure.com": Canvas,
	"/courses/":     Canvas,
	"blackboard.com": Blackboard,
	"/webapps/blackboard": Blackboard,
	"brightspace.com": Brightspace,
	"/d2l/":         Brightspace,
	"sakaiproject":  Sakai,
	"/portal/site/": Sakai,
	"schoology.com": Schoology,
}

// Detect returns the LMS type implied by a start URL, or Unknown if no
// indicator matches. It never errors: an unrecognized URL is a normal,
// supported case (a self-hosted or unlisted exam platform).
func Detect(startURL string) Type {
	lower := strings.ToLower(startURL)
	for indicator, t := range hostIndicators {
		if strings.Contains(lower, indicator) {
			return t
		}
	}
	return Unknown
}
