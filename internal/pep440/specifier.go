package pep440

import (
	"fmt"
	"regexp"
	"slices"
	"sort"
	"strings"
)

// Operators in match order; longer operators must come first.
var operators = []string{"===", "~=", "==", "!=", "<=", ">=", "<", ">"}

var (
	wildcardPrefixRE = regexp.MustCompile(`(?i)^v?(?:[0-9]+!)?[0-9]+(?:\.[0-9]+)*$`)
	arbitraryRE      = regexp.MustCompile(`^[^\s;)]+$`)
)

// Specifier is a single version clause such as ">=1.0" or "==2.*".
type Specifier struct {
	Operator string
	Version  string
}

// InvalidSpecifierError reports a clause that is not a valid specifier.
type InvalidSpecifierError struct {
	Specifier string
	Reason    string
}

func (e *InvalidSpecifierError) Error() string {
	return fmt.Sprintf("invalid specifier %q: %s", e.Specifier, e.Reason)
}

// ParseSpecifier parses a single specifier clause. Whitespace between the
// operator and the version is allowed.
func ParseSpecifier(s string) (Specifier, error) {
	clause := strings.TrimSpace(s)
	var op string
	for _, candidate := range operators {
		if strings.HasPrefix(clause, candidate) {
			op = candidate
			break
		}
	}
	if op == "" {
		return Specifier{}, &InvalidSpecifierError{Specifier: s, Reason: "missing operator"}
	}
	version := strings.TrimSpace(clause[len(op):])
	if version == "" {
		return Specifier{}, &InvalidSpecifierError{Specifier: s, Reason: "missing version"}
	}
	if err := validate(op, version); err != nil {
		return Specifier{}, &InvalidSpecifierError{Specifier: s, Reason: err.Error()}
	}
	return Specifier{Operator: op, Version: version}, nil
}

func validate(op, version string) error {
	if op == "===" {
		if !arbitraryRE.MatchString(version) {
			return fmt.Errorf("invalid arbitrary version")
		}
		return nil
	}
	if strings.HasSuffix(version, ".*") {
		if op != "==" && op != "!=" {
			return fmt.Errorf("wildcard only allowed with == and !=")
		}
		if !wildcardPrefixRE.MatchString(strings.TrimSuffix(version, ".*")) {
			return fmt.Errorf("wildcard only allowed after a release segment")
		}
		return nil
	}
	v, err := Parse(version)
	if err != nil {
		return err
	}
	if len(v.Local) > 0 && op != "==" && op != "!=" {
		return fmt.Errorf("local version label only allowed with == and !=")
	}
	if op == "~=" && len(v.Release) < 2 {
		return fmt.Errorf("compatible release needs at least two release segments")
	}
	return nil
}

// String renders the clause without inner whitespace.
func (s Specifier) String() string {
	return s.Operator + s.Version
}

// Contains reports whether v satisfies the clause. Pre-releases are
// accepted, matching how environment markers are evaluated.
func (s Specifier) Contains(v Version) bool {
	switch s.Operator {
	case "===":
		return strings.EqualFold(v.Raw(), s.Version) || strings.EqualFold(v.String(), s.Version)
	case "==":
		return s.equal(v)
	case "!=":
		return !s.equal(v)
	case "~=":
		return s.compatible(v)
	}

	spec, err := Parse(s.Version)
	if err != nil {
		return false
	}
	public := v.withoutLocal()
	switch s.Operator {
	case "<=":
		return Compare(public, spec) <= 0
	case ">=":
		return Compare(public, spec) >= 0
	case "<":
		if Compare(v, spec) >= 0 {
			return false
		}
		if !spec.IsPrerelease() && v.IsPrerelease() && v.base().Equal(spec.base()) {
			return false
		}
		return true
	case ">":
		if Compare(v, spec) <= 0 {
			return false
		}
		if !spec.IsPostrelease() && v.IsPostrelease() && v.base().Equal(spec.base()) {
			return false
		}
		if len(v.Local) > 0 && v.base().Equal(spec.base()) {
			return false
		}
		return true
	}
	return false
}

// ContainsString parses candidate and checks it; unparsable versions never match.
func (s Specifier) ContainsString(candidate string) bool {
	v, err := Parse(candidate)
	if err != nil {
		if s.Operator == "===" {
			return strings.EqualFold(strings.TrimSpace(candidate), s.Version)
		}
		return false
	}
	return s.Contains(v)
}

func (s Specifier) equal(v Version) bool {
	if strings.HasSuffix(s.Version, ".*") {
		prefix, err := Parse(strings.TrimSuffix(s.Version, ".*"))
		if err != nil {
			return false
		}
		return prefixMatch(prefix, v)
	}
	spec, err := Parse(s.Version)
	if err != nil {
		return false
	}
	if len(spec.Local) == 0 {
		v = v.withoutLocal()
	}
	return v.Equal(spec)
}

func (s Specifier) compatible(v Version) bool {
	spec, err := Parse(s.Version)
	if err != nil || len(spec.Release) < 2 {
		return false
	}
	if Compare(v.withoutLocal(), spec) < 0 {
		return false
	}
	prefix := Version{Epoch: spec.Epoch, Release: spec.Release[:len(spec.Release)-1]}
	return prefixMatch(prefix, v)
}

// prefixMatch compares the release of v, zero padded, against the release
// of prefix.
func prefixMatch(prefix, v Version) bool {
	if prefix.Epoch != v.Epoch {
		return false
	}
	for i, n := range prefix.Release {
		got := 0
		if i < len(v.Release) {
			got = v.Release[i]
		}
		if got != n {
			return false
		}
	}
	return true
}

// SpecifierSet is a conjunction of specifiers.
type SpecifierSet []Specifier

// ParseSpecifierSet parses a comma separated list of clauses. The empty
// string yields an empty set that matches everything.
func ParseSpecifierSet(s string) (SpecifierSet, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var set SpecifierSet
	for _, clause := range strings.Split(s, ",") {
		spec, err := ParseSpecifier(clause)
		if err != nil {
			return nil, err
		}
		set = append(set, spec)
	}
	return set, nil
}

// String renders the distinct clauses sorted and comma joined.
func (set SpecifierSet) String() string {
	parts := make([]string, len(set))
	for i, s := range set {
		parts[i] = s.String()
	}
	sort.Strings(parts)
	return strings.Join(slices.Compact(parts), ",")
}

// Contains reports whether v satisfies every clause.
func (set SpecifierSet) Contains(v Version) bool {
	for _, s := range set {
		if !s.Contains(v) {
			return false
		}
	}
	return true
}
