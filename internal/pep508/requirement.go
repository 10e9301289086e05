package pep508

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/ralt/pupa/internal/pep440"
)

var (
	reqNameRE  = regexp.MustCompile(`^[A-Za-z0-9](?:[A-Za-z0-9._-]*[A-Za-z0-9])?`)
	reqExtraRE = regexp.MustCompile(`^[A-Za-z0-9](?:[A-Za-z0-9._-]*[A-Za-z0-9])?$`)
)

// Requirement is a parsed PEP 508 dependency specifier.
type Requirement struct {
	Name       string
	Extras     []string
	Specifiers pep440.SpecifierSet
	URL        string
	Marker     *Marker
}

// MalformedRequirementError reports a requirement string that cannot be
// parsed, or whose marker cannot be evaluated.
type MalformedRequirementError struct {
	Requirement string
	Reason      string
}

func (e *MalformedRequirementError) Error() string {
	return fmt.Sprintf("malformed requirement %q: %s", e.Requirement, e.Reason)
}

// ParseRequirement parses a requirement such as
// `requests[socks]>=2.8; python_version >= "3.7"`.
func ParseRequirement(s string) (*Requirement, error) {
	fail := func(format string, args ...any) (*Requirement, error) {
		return nil, &MalformedRequirementError{Requirement: s, Reason: fmt.Sprintf(format, args...)}
	}

	rest := strings.TrimSpace(s)
	name := reqNameRE.FindString(rest)
	if name == "" {
		return fail("missing or invalid project name")
	}
	req := &Requirement{Name: name}
	rest = strings.TrimLeft(rest[len(name):], " \t")

	if strings.HasPrefix(rest, "[") {
		end := strings.IndexByte(rest, ']')
		if end < 0 {
			return fail("unterminated extras")
		}
		extras, err := parseExtras(rest[1:end])
		if err != nil {
			return fail("%v", err)
		}
		req.Extras = extras
		rest = strings.TrimLeft(rest[end+1:], " \t")
	}

	var markerText string
	hasMarker := false
	switch {
	case strings.HasPrefix(rest, "@"):
		rest = strings.TrimLeft(rest[1:], " \t")
		end := strings.IndexAny(rest, " \t")
		url := rest
		if end >= 0 {
			url = rest[:end]
			rest = strings.TrimLeft(rest[end:], " \t")
		} else {
			rest = ""
		}
		if url == "" {
			return fail("missing URL after @")
		}
		req.URL = url
		if rest != "" {
			if !strings.HasPrefix(rest, ";") {
				return fail("unexpected %q after URL", rest)
			}
			markerText, hasMarker = rest[1:], true
		}
	default:
		specText := rest
		if i := strings.IndexByte(rest, ';'); i >= 0 {
			specText, markerText, hasMarker = rest[:i], rest[i+1:], true
		}
		specText = strings.TrimSpace(specText)
		if strings.HasPrefix(specText, "(") {
			if !strings.HasSuffix(specText, ")") {
				return fail("unterminated version specifier")
			}
			specText = specText[1 : len(specText)-1]
		}
		specs, err := pep440.ParseSpecifierSet(specText)
		if err != nil {
			return fail("%v", err)
		}
		req.Specifiers = specs
	}

	if hasMarker {
		if strings.TrimSpace(markerText) == "" {
			return fail("empty marker")
		}
		m, err := ParseMarker(markerText)
		if err != nil {
			return fail("%v", err)
		}
		req.Marker = m
	}
	return req, nil
}

func parseExtras(s string) ([]string, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	seen := make(map[string]bool)
	var extras []string
	for _, e := range strings.Split(s, ",") {
		e = strings.TrimSpace(e)
		if !reqExtraRE.MatchString(e) {
			return nil, fmt.Errorf("invalid extra %q", e)
		}
		if !seen[e] {
			seen[e] = true
			extras = append(extras, e)
		}
	}
	sort.Strings(extras)
	return extras, nil
}

// Applies reports whether the requirement's marker holds in env. A
// requirement without a marker always applies. Evaluation failures are
// reported as MalformedRequirementError.
func (r *Requirement) Applies(env Environment, raw string) (bool, error) {
	if r.Marker == nil {
		return true, nil
	}
	ok, err := r.Marker.Evaluate(env)
	if err != nil {
		return false, &MalformedRequirementError{Requirement: raw, Reason: err.Error()}
	}
	return ok, nil
}

// WithoutMarker returns a copy of r with the marker removed.
func (r Requirement) WithoutMarker() Requirement {
	r.Marker = nil
	return r
}

// String renders the requirement with sorted extras and specifiers.
func (r Requirement) String() string {
	var b strings.Builder
	b.WriteString(r.Name)
	if len(r.Extras) > 0 {
		extras := append([]string(nil), r.Extras...)
		sort.Strings(extras)
		b.WriteString("[" + strings.Join(extras, ",") + "]")
	}
	if r.URL != "" {
		b.WriteString("@ " + r.URL)
		if r.Marker != nil {
			b.WriteString(" ")
		}
	} else {
		b.WriteString(r.Specifiers.String())
	}
	if r.Marker != nil {
		b.WriteString("; " + r.Marker.String())
	}
	return b.String()
}
