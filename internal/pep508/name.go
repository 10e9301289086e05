// Package pep508 parses Python dependency specifiers and evaluates their
// environment markers.
package pep508

import (
	"regexp"
	"strings"
)

var (
	separatorRunRE = regexp.MustCompile(`[-_.]+`)
	validNameRE    = regexp.MustCompile(`(?i)^([a-z0-9]|[a-z0-9][a-z0-9._-]*[a-z0-9])$`)
)

// CanonicalizeName lowercases name and collapses runs of "-", "_" and "."
// into a single "-" (PEP 503).
func CanonicalizeName(name string) string {
	return separatorRunRE.ReplaceAllString(strings.ToLower(name), "-")
}

// IsValidName reports whether name is a syntactically valid project name.
func IsValidName(name string) bool {
	return validNameRE.MatchString(name)
}
