// Package constraint parses npm-style version constraints into closed
// intervals so that two constraints on the same package can be intersected.
//
// Supported comparators: exact versions, x-ranges ("1.2.x", "1", "*"),
// caret ("^1.2.3", "^0.x"), tilde ("~1.2"), and the relational operators
// >, >=, <, <=, =. Several comparators separated by whitespace are ANDed.
// Unions ("||") and hyphen ranges are not supported because they cannot be
// represented as a single interval.
package constraint

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/mod/semver"
)

var (
	// ErrInvalid indicates a constraint string could not be parsed.
	ErrInvalid = errors.New("invalid version constraint")

	// ErrUnsupported indicates a syntactically valid npm range this package
	// cannot model as a single interval.
	ErrUnsupported = errors.New("unsupported version constraint")
)

// comparatorRegex matches a single comparator, allowing x-range wildcards.
var comparatorRegex = regexp.MustCompile(`^(\^|~|>=|<=|>|<|=)?v?(\d+|[xX*])(?:\.(\d+|[xX*]))?(?:\.(\d+|[xX*]))?(?:-([0-9A-Za-z\-.]+))?$`)

// bound is one end of a Range. An unset bound is unbounded.
type bound struct {
	set       bool
	version   string // canonical "vMAJOR.MINOR.PATCH[-pre]"
	inclusive bool
}

// Range is a version interval. The zero Range matches every version.
type Range struct {
	lower    bound
	upper    bound
	original string
}

// Any is the range used when no constraint was given ("latest compatible").
var Any = Range{}

// Parse parses a constraint string. Empty strings, "latest", "*" and "x"
// all parse to Any.
func Parse(s string) (Range, error) {
	s = strings.TrimSpace(s)
	switch s {
	case "", "latest":
		return Any, nil
	}
	if strings.Contains(s, "||") {
		return Range{}, fmt.Errorf("%w: %q uses ||", ErrUnsupported, s)
	}
	if strings.Contains(s, " - ") {
		return Range{}, fmt.Errorf("%w: %q is a hyphen range", ErrUnsupported, s)
	}

	r := Range{}
	for _, part := range strings.Fields(s) {
		c, err := parseComparator(part)
		if err != nil {
			return Range{}, err
		}
		merged, ok := r.Intersect(c)
		if !ok {
			return Range{}, fmt.Errorf("%w: %q matches no version", ErrInvalid, s)
		}
		r = merged
	}
	if r.IsAny() {
		return Any, nil
	}
	r.original = s
	return r, nil
}

// MustParse is like Parse but panics on error. Intended for tests and
// package-level catalogs.
func MustParse(s string) Range {
	r, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return r
}

func parseComparator(s string) (Range, error) {
	m := comparatorRegex.FindStringSubmatch(s)
	if m == nil {
		return Range{}, fmt.Errorf("%w: %q", ErrInvalid, s)
	}
	op := m[1]
	prerelease := m[5]

	// Count numeric components; a wildcard ends the version.
	var nums [3]int
	n := 0
	for i, part := range m[2:5] {
		if part == "" || part == "x" || part == "X" || part == "*" {
			break
		}
		v, err := strconv.Atoi(part)
		if err != nil {
			return Range{}, fmt.Errorf("%w: %q", ErrInvalid, s)
		}
		nums[i] = v
		n++
	}
	if prerelease != "" && n < 3 {
		return Range{}, fmt.Errorf("%w: prerelease on partial version %q", ErrInvalid, s)
	}

	major, minor, patch := nums[0], nums[1], nums[2]
	floor := canonical(major, minor, patch, prerelease)

	r := Range{}
	switch op {
	case "", "=":
		switch n {
		case 0:
			return Any, nil
		case 1:
			r.lower = bound{set: true, version: floor, inclusive: true}
			r.upper = bound{set: true, version: canonical(major+1, 0, 0, ""), inclusive: false}
		case 2:
			r.lower = bound{set: true, version: floor, inclusive: true}
			r.upper = bound{set: true, version: canonical(major, minor+1, 0, ""), inclusive: false}
		default:
			r.lower = bound{set: true, version: floor, inclusive: true}
			r.upper = bound{set: true, version: floor, inclusive: true}
		}
	case "^":
		if n == 0 {
			return Any, nil
		}
		r.lower = bound{set: true, version: floor, inclusive: true}
		switch {
		case major > 0 || n == 1:
			r.upper = bound{set: true, version: canonical(major+1, 0, 0, "")}
		case minor > 0 || n == 2:
			r.upper = bound{set: true, version: canonical(0, minor+1, 0, "")}
		default:
			r.upper = bound{set: true, version: canonical(0, 0, patch+1, "")}
		}
	case "~":
		if n == 0 {
			return Any, nil
		}
		r.lower = bound{set: true, version: floor, inclusive: true}
		if n == 1 {
			r.upper = bound{set: true, version: canonical(major+1, 0, 0, "")}
		} else {
			r.upper = bound{set: true, version: canonical(major, minor+1, 0, "")}
		}
	case ">=":
		if n == 0 {
			return Any, nil
		}
		r.lower = bound{set: true, version: floor, inclusive: true}
	case ">":
		switch n {
		case 0:
			return Range{}, fmt.Errorf("%w: %q matches no version", ErrInvalid, s)
		case 1:
			r.lower = bound{set: true, version: canonical(major+1, 0, 0, ""), inclusive: true}
		case 2:
			r.lower = bound{set: true, version: canonical(major, minor+1, 0, ""), inclusive: true}
		default:
			r.lower = bound{set: true, version: floor, inclusive: false}
		}
	case "<":
		if n == 0 {
			return Range{}, fmt.Errorf("%w: %q matches no version", ErrInvalid, s)
		}
		r.upper = bound{set: true, version: floor, inclusive: false}
	case "<=":
		switch n {
		case 0:
			return Any, nil
		case 1:
			r.upper = bound{set: true, version: canonical(major+1, 0, 0, "")}
		case 2:
			r.upper = bound{set: true, version: canonical(major, minor+1, 0, "")}
		default:
			r.upper = bound{set: true, version: floor, inclusive: true}
		}
	}
	return r, nil
}

func canonical(major, minor, patch int, prerelease string) string {
	v := fmt.Sprintf("v%d.%d.%d", major, minor, patch)
	if prerelease != "" {
		v += "-" + prerelease
	}
	return v
}

// IsAny reports whether the range places no restriction on the version.
func (r Range) IsAny() bool {
	return !r.lower.set && !r.upper.set
}

// IsEmpty reports whether no version satisfies the range.
func (r Range) IsEmpty() bool {
	if !r.lower.set || !r.upper.set {
		return false
	}
	c := semver.Compare(r.lower.version, r.upper.version)
	if c > 0 {
		return true
	}
	return c == 0 && !(r.lower.inclusive && r.upper.inclusive)
}

// Intersect returns the range of versions satisfying both r and o. The
// boolean is false when the intersection is empty. The result carries no
// original text; callers decide which spelling to keep.
func (r Range) Intersect(o Range) (Range, bool) {
	out := Range{
		lower: tighterLower(r.lower, o.lower),
		upper: tighterUpper(r.upper, o.upper),
	}
	if out.IsEmpty() {
		return Range{}, false
	}
	return out, true
}

// Contains reports whether every version matched by o is matched by r.
func (r Range) Contains(o Range) bool {
	return tighterLower(r.lower, o.lower) == o.lower && tighterUpper(r.upper, o.upper) == o.upper
}

// Equal reports whether both ranges match the same versions.
func (r Range) Equal(o Range) bool {
	return r.lower == o.lower && r.upper == o.upper
}

// Matches reports whether version satisfies the range.
func (r Range) Matches(version string) bool {
	v := version
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	if !semver.IsValid(v) {
		return false
	}
	v = semver.Canonical(v)
	if r.lower.set {
		c := semver.Compare(v, r.lower.version)
		if c < 0 || (c == 0 && !r.lower.inclusive) {
			return false
		}
	}
	if r.upper.set {
		c := semver.Compare(v, r.upper.version)
		if c > 0 || (c == 0 && !r.upper.inclusive) {
			return false
		}
	}
	return true
}

// String returns the constraint as written by the user, or a synthesized
// ">=a <b" form for intersections. Any renders as "latest".
func (r Range) String() string {
	if r.original != "" {
		return r.original
	}
	if r.IsAny() {
		return "latest"
	}
	if r.lower.set && r.upper.set && r.lower.inclusive && r.upper.inclusive &&
		r.lower.version == r.upper.version {
		return strings.TrimPrefix(r.lower.version, "v")
	}

	var parts []string
	if r.lower.set {
		op := ">"
		if r.lower.inclusive {
			op = ">="
		}
		parts = append(parts, op+strings.TrimPrefix(r.lower.version, "v"))
	}
	if r.upper.set {
		op := "<"
		if r.upper.inclusive {
			op = "<="
		}
		parts = append(parts, op+strings.TrimPrefix(r.upper.version, "v"))
	}
	return strings.Join(parts, " ")
}

// tighterLower returns the more restrictive of two lower bounds.
func tighterLower(a, b bound) bound {
	switch {
	case !a.set:
		return b
	case !b.set:
		return a
	}
	c := semver.Compare(a.version, b.version)
	switch {
	case c > 0:
		return a
	case c < 0:
		return b
	case !a.inclusive:
		return a
	default:
		return b
	}
}

// tighterUpper returns the more restrictive of two upper bounds.
func tighterUpper(a, b bound) bound {
	switch {
	case !a.set:
		return b
	case !b.set:
		return a
	}
	c := semver.Compare(a.version, b.version)
	switch {
	case c < 0:
		return a
	case c > 0:
		return b
	case !a.inclusive:
		return a
	default:
		return b
	}
}
