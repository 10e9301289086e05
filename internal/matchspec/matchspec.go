// Package matchspec canonicalizes conda match specifications.
package matchspec

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"
)

var (
	nameRE         = regexp.MustCompile(`^[A-Za-z0-9_.\-]+`)
	joinSpaceRE    = regexp.MustCompile(`\s*([,|])\s*`)
	opSpaceRE      = regexp.MustCompile(`(==|!=|<=|>=|~=|<|>|=)\s+`)
	versionCharsRE = regexp.MustCompile(`^[0-9A-Za-z_.+!*\-]+$`)
	buildRE        = regexp.MustCompile(`^[A-Za-z0-9_.*+]+$`)
)

// Operators recognized at the start of a version clause, longest first.
var clauseOperators = []string{"==", "!=", "<=", ">=", "~=", "<", ">", "="}

// MatchSpec is a parsed conda package query: a name, an optional version
// constraint and an optional build string.
type MatchSpec struct {
	Name    string
	Version string
	Build   string
}

// InvalidMatchSpecError reports a string outside the supported grammar.
type InvalidMatchSpecError struct {
	Spec   string
	Reason string
}

func (e *InvalidMatchSpecError) Error() string {
	return fmt.Sprintf("invalid match spec %q: %s", e.Spec, e.Reason)
}

// Parse parses s and returns it in canonical form.
func Parse(s string) (MatchSpec, error) {
	fail := func(format string, args ...any) (MatchSpec, error) {
		return MatchSpec{}, &InvalidMatchSpecError{Spec: s, Reason: fmt.Sprintf(format, args...)}
	}

	str := strings.TrimSpace(s)
	if str == "" {
		return fail("empty")
	}

	var bracket map[string]string
	if open := strings.IndexByte(str, '['); open >= 0 {
		end := strings.IndexByte(str[open:], ']')
		if end < 0 {
			return fail("unterminated bracket")
		}
		var err error
		bracket, err = parseBracket(str[open+1 : open+end])
		if err != nil {
			return fail("%v", err)
		}
		str = str[:open] + str[open+end+1:]
	}

	name := nameRE.FindString(str)
	if name == "" {
		return fail("missing package name")
	}
	ms := MatchSpec{Name: strings.ToLower(name)}

	rest := strings.TrimSpace(str[len(name):])
	rest = joinSpaceRE.ReplaceAllString(rest, "$1")
	rest = opSpaceRE.ReplaceAllString(rest, "$1")

	// name=version=build shorthand
	if strings.HasPrefix(rest, "=") && !strings.HasPrefix(rest, "==") && !strings.ContainsAny(rest, " \t") {
		if parts := strings.SplitN(rest[1:], "=", 2); len(parts) == 2 {
			rest = parts[0] + " " + parts[1]
		}
	}

	fields := strings.Fields(rest)
	if len(fields) > 2 {
		return fail("unexpected %q", strings.Join(fields[2:], " "))
	}
	if len(fields) > 0 {
		ms.Version = fields[0]
	}
	if len(fields) > 1 {
		ms.Build = fields[1]
	}
	if v, ok := bracket["version"]; ok {
		if ms.Version != "" && ms.Version != v {
			return fail("conflicting versions %q and %q", ms.Version, v)
		}
		ms.Version = v
	}
	if b, ok := bracket["build"]; ok {
		if ms.Build != "" && ms.Build != b {
			return fail("conflicting builds %q and %q", ms.Build, b)
		}
		ms.Build = b
	}

	if ms.Version != "" {
		version, err := canonicalVersion(ms.Version)
		if err != nil {
			return fail("%v", err)
		}
		ms.Version = version
	}
	if ms.Build != "" && !buildRE.MatchString(ms.Build) {
		return fail("invalid build string %q", ms.Build)
	}
	return ms, nil
}

// parseBracket reads "k=v,k2='v2'" pairs. A list without "=" is a set of
// Python extras, which conda has no equivalent for, and is dropped.
func parseBracket(s string) (map[string]string, error) {
	if !strings.Contains(s, "=") {
		return nil, nil
	}
	out := make(map[string]string)
	for _, pair := range strings.Split(s, ",") {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("invalid bracket entry %q", pair)
		}
		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"'`)
		switch key {
		case "version", "build":
			out[key] = strings.Join(strings.Fields(value), "")
		default:
			return nil, fmt.Errorf("unsupported bracket key %q", key)
		}
	}
	return out, nil
}

func canonicalVersion(v string) (string, error) {
	alternatives := strings.Split(v, "|")
	for i, alt := range alternatives {
		clauses := strings.Split(alt, ",")
		for j, clause := range clauses {
			c, err := canonicalClause(clause)
			if err != nil {
				return "", err
			}
			clauses[j] = c
		}
		alternatives[i] = strings.Join(clauses, ",")
	}
	return strings.Join(alternatives, "|"), nil
}

func canonicalClause(clause string) (string, error) {
	if clause == "" {
		return "", fmt.Errorf("empty version clause")
	}
	if strings.HasPrefix(clause, "===") {
		return "", fmt.Errorf("arbitrary equality %q is not supported", clause)
	}
	op := ""
	for _, candidate := range clauseOperators {
		if strings.HasPrefix(clause, candidate) {
			op = candidate
			break
		}
	}
	version := clause[len(op):]
	if version == "" {
		return "", fmt.Errorf("missing version after %q", op)
	}
	if !versionCharsRE.MatchString(version) {
		return "", fmt.Errorf("invalid version %q", version)
	}
	for _, component := range strings.Split(version, ".") {
		if component == "" {
			return "", fmt.Errorf("empty component in version %q", version)
		}
	}
	switch op {
	case "==":
		return version, nil
	case "=":
		if strings.HasSuffix(version, "*") {
			return version, nil
		}
		return version + ".*", nil
	}
	return op + version, nil
}

// String renders the canonical form "name[ version[ build]]".
func (m MatchSpec) String() string {
	var b strings.Builder
	b.WriteString(m.Name)
	if m.Version != "" || m.Build != "" {
		version := m.Version
		if version == "" {
			version = "*"
		}
		b.WriteString(" " + version)
	}
	if m.Build != "" {
		b.WriteString(" " + m.Build)
	}
	return b.String()
}

// Result is the outcome of normalizing one constraint string.
type Result struct {
	Spec     string
	Original string
	Warning  string
}

// OK reports whether the constraint was recognized.
func (r Result) OK() bool {
	return r.Warning == ""
}

// Value is the canonical spec, or the original text when it was not
// recognized.
func (r Result) Value() string {
	if r.OK() {
		return r.Spec
	}
	return r.Original
}

// Normalize canonicalizes s. It never fails: an unrecognized constraint is
// returned verbatim with a warning.
func Normalize(s string) Result {
	ms, err := Parse(s)
	if err != nil {
		return Result{Original: s, Warning: err.Error()}
	}
	return Result{Spec: ms.String(), Original: s}
}

// Normalizer wraps Normalize and logs fallbacks.
type Normalizer struct {
	log logrus.FieldLogger
}

// NewNormalizer returns a Normalizer logging to log, or to the standard
// logrus logger when log is nil.
func NewNormalizer(log logrus.FieldLogger) *Normalizer {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Normalizer{log: log}
}

// Normalize canonicalizes s, logging a warning when it falls back to the
// original text.
func (n *Normalizer) Normalize(s string) Result {
	r := Normalize(s)
	if !r.OK() {
		n.log.WithField("requirement", s).Warnf("InvalidMatchSpec: %s; keeping requirement as written", r.Warning)
	}
	return r
}
