package pep440

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// versionPattern is the permissive PEP 440 version grammar (accepts the
// alternative spellings that normalize to a canonical version).
const versionPattern = `v?` +
	`(?:(?P<epoch>[0-9]+)!)?` +
	`(?P<release>[0-9]+(?:\.[0-9]+)*)` +
	`(?P<pre>[-_.]?(?P<pre_l>alpha|beta|preview|pre|a|b|c|rc)[-_.]?(?P<pre_n>[0-9]+)?)?` +
	`(?P<post>(?:-(?P<post_n1>[0-9]+))|(?:[-_.]?(?P<post_l>post|rev|r)[-_.]?(?P<post_n2>[0-9]+)?))?` +
	`(?P<dev>[-_.]?(?P<dev_l>dev)[-_.]?(?P<dev_n>[0-9]+)?)?` +
	`(?:\+(?P<local>[a-z0-9]+(?:[-_.][a-z0-9]+)*))?`

var (
	versionRE      = regexp.MustCompile(`(?i)^\s*` + versionPattern + `\s*$`)
	localSplitRE   = regexp.MustCompile(`[-_.]`)
	versionGroupID = func() map[string]int {
		ids := make(map[string]int)
		for i, name := range versionRE.SubexpNames() {
			if name != "" {
				ids[name] = i
			}
		}
		return ids
	}()
)

// Version is a parsed PEP 440 version.
type Version struct {
	Epoch   int
	Release []int
	Pre     *PreRelease
	Post    *int
	Dev     *int
	Local   []string

	raw string
}

// PreRelease is the pre-release segment of a version, e.g. rc1.
type PreRelease struct {
	Label  string // a, b or rc
	Number int
}

// InvalidVersionError reports a string that is not a PEP 440 version.
type InvalidVersionError struct {
	Version string
}

func (e *InvalidVersionError) Error() string {
	return fmt.Sprintf("invalid version: %q", e.Version)
}

// Parse parses s as a PEP 440 version.
func Parse(s string) (Version, error) {
	m := versionRE.FindStringSubmatch(s)
	if m == nil {
		return Version{}, &InvalidVersionError{Version: s}
	}
	group := func(name string) string { return m[versionGroupID[name]] }

	v := Version{raw: strings.TrimSpace(s)}
	if e := group("epoch"); e != "" {
		v.Epoch = atoi(e)
	}
	for _, part := range strings.Split(group("release"), ".") {
		v.Release = append(v.Release, atoi(part))
	}
	if label := group("pre_l"); label != "" {
		v.Pre = &PreRelease{Label: normalizePreLabel(label), Number: atoi(group("pre_n"))}
	}
	if group("post") != "" {
		n := group("post_n1")
		if n == "" {
			n = group("post_n2")
		}
		post := atoi(n)
		v.Post = &post
	}
	if group("dev_l") != "" {
		dev := atoi(group("dev_n"))
		v.Dev = &dev
	}
	if local := group("local"); local != "" {
		v.Local = localSplitRE.Split(strings.ToLower(local), -1)
	}
	return v, nil
}

// MustParse is like Parse but panics on invalid input.
func MustParse(s string) Version {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

func atoi(s string) int {
	if s == "" {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

func normalizePreLabel(label string) string {
	switch strings.ToLower(label) {
	case "alpha", "a":
		return "a"
	case "beta", "b":
		return "b"
	default:
		return "rc"
	}
}

// String returns the normalized form of the version.
func (v Version) String() string {
	var b strings.Builder
	b.WriteString(v.Public())
	if len(v.Local) > 0 {
		b.WriteString("+")
		b.WriteString(strings.Join(v.Local, "."))
	}
	return b.String()
}

// Public returns the normalized version without its local label.
func (v Version) Public() string {
	var b strings.Builder
	b.WriteString(v.BaseVersion())
	if v.Pre != nil {
		fmt.Fprintf(&b, "%s%d", v.Pre.Label, v.Pre.Number)
	}
	if v.Post != nil {
		fmt.Fprintf(&b, ".post%d", *v.Post)
	}
	if v.Dev != nil {
		fmt.Fprintf(&b, ".dev%d", *v.Dev)
	}
	return b.String()
}

// BaseVersion returns epoch and release only.
func (v Version) BaseVersion() string {
	var b strings.Builder
	if v.Epoch != 0 {
		fmt.Fprintf(&b, "%d!", v.Epoch)
	}
	parts := make([]string, len(v.Release))
	for i, n := range v.Release {
		parts[i] = strconv.Itoa(n)
	}
	b.WriteString(strings.Join(parts, "."))
	return b.String()
}

// Raw returns the string the version was parsed from.
func (v Version) Raw() string {
	return v.raw
}

// IsPrerelease reports whether v is a pre-release or a development release.
func (v Version) IsPrerelease() bool {
	return v.Pre != nil || v.Dev != nil
}

// IsPostrelease reports whether v has a post-release segment.
func (v Version) IsPostrelease() bool {
	return v.Post != nil
}

func (v Version) withoutLocal() Version {
	v.Local = nil
	return v
}

func (v Version) base() Version {
	return Version{Epoch: v.Epoch, Release: v.Release}
}

// Compare returns -1, 0 or 1 ordering a against b by PEP 440 rules.
func Compare(a, b Version) int {
	if c := cmpInt(a.Epoch, b.Epoch); c != 0 {
		return c
	}
	if c := compareRelease(a.Release, b.Release); c != 0 {
		return c
	}
	if c := cmpInt(preKey(a), preKey(b)); c != 0 {
		return c
	}
	if a.Pre != nil && b.Pre != nil {
		if c := cmpInt(a.Pre.Number, b.Pre.Number); c != 0 {
			return c
		}
	}
	if c := cmpOptional(a.Post, b.Post, -1); c != 0 {
		return c
	}
	if c := cmpOptional(a.Dev, b.Dev, 1); c != 0 {
		return c
	}
	return compareLocal(a.Local, b.Local)
}

// Less reports whether v sorts before other.
func (v Version) Less(other Version) bool {
	return Compare(v, other) < 0
}

// Equal reports whether v and other are the same version.
func (v Version) Equal(other Version) bool {
	return Compare(v, other) == 0
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// compareRelease ignores trailing zeros, so 1.0 == 1.0.0.
func compareRelease(a, b []int) int {
	a, b = trimZeros(a), trimZeros(b)
	for i := 0; i < len(a) && i < len(b); i++ {
		if c := cmpInt(a[i], b[i]); c != 0 {
			return c
		}
	}
	return cmpInt(len(a), len(b))
}

func trimZeros(r []int) []int {
	end := len(r)
	for end > 0 && r[end-1] == 0 {
		end--
	}
	return r[:end]
}

// preKey ranks the pre-release segment: dev-only releases sort before
// any pre-release, final releases after all of them.
func preKey(v Version) int {
	if v.Pre == nil {
		if v.Post == nil && v.Dev != nil {
			return -1
		}
		return 4
	}
	switch v.Pre.Label {
	case "a":
		return 1
	case "b":
		return 2
	default:
		return 3
	}
}

// cmpOptional compares optional numbers; missing sorts as absent (-1 sorts
// missing first, 1 sorts missing last).
func cmpOptional(a, b *int, missing int) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return missing
	case b == nil:
		return -missing
	}
	return cmpInt(*a, *b)
}

func compareLocal(a, b []string) int {
	if a == nil && b == nil {
		return 0
	}
	if a == nil {
		return -1
	}
	if b == nil {
		return 1
	}
	for i := 0; i < len(a) && i < len(b); i++ {
		if c := compareLocalSegment(a[i], b[i]); c != 0 {
			return c
		}
	}
	return cmpInt(len(a), len(b))
}

// Numeric local segments sort after alphanumeric ones.
func compareLocalSegment(a, b string) int {
	an, aErr := strconv.Atoi(a)
	bn, bErr := strconv.Atoi(b)
	switch {
	case aErr == nil && bErr == nil:
		return cmpInt(an, bn)
	case aErr == nil:
		return 1
	case bErr == nil:
		return -1
	}
	return strings.Compare(a, b)
}
