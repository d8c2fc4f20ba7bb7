package core

import (
	"fmt"
	"strings"

	mm "github.com/Masterminds/semver/v3"
)

// Version is a strict major.minor.patch version.
type Version struct {
	Major uint64
	Minor uint64
	Patch uint64
}

// ParseVersion parses a strict "x.y.z" version.
func ParseVersion(raw string) (Version, error) {
	v, err := mm.StrictNewVersion(strings.TrimSpace(raw))
	if err != nil {
		return Version{}, fmt.Errorf("%w %q: %v", ErrInvalidVersion, raw, err)
	}
	if v.Prerelease() != "" || v.Metadata() != "" {
		return Version{}, fmt.Errorf("%w %q: prerelease and build metadata are not allowed", ErrInvalidVersion, raw)
	}
	return Version{Major: v.Major(), Minor: v.Minor(), Patch: v.Patch()}, nil
}

// String returns the "x.y.z" form of the version.
func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// Compare returns -1, 0 or 1 when v is lower, equal or higher than o.
func (v Version) Compare(o Version) int {
	switch {
	case v.Major != o.Major:
		return cmp(v.Major, o.Major)
	case v.Minor != o.Minor:
		return cmp(v.Minor, o.Minor)
	default:
		return cmp(v.Patch, o.Patch)
	}
}

func cmp(a, b uint64) int {
	if a < b {
		return -1
	}
	if a > b {
		return 1
	}
	return 0
}

// Satisfies reports whether actual matches the range expression.
//
//   - "^X.Y.Z": same major, and (minor, patch) >= (Y, Z)
//   - "~X.Y.Z": same major and minor, patch >= Z
//   - "X.Y.Z":  exact match
//   - "":       any version
//
// A range that does not parse never matches.
func Satisfies(actual Version, rangeExpr string) bool {
	rangeExpr = strings.TrimSpace(rangeExpr)
	if rangeExpr == "" {
		return true
	}

	switch rangeExpr[0] {
	case '^':
		base, err := ParseVersion(rangeExpr[1:])
		if err != nil {
			return false
		}
		return actual.Major == base.Major &&
			(actual.Minor > base.Minor || (actual.Minor == base.Minor && actual.Patch >= base.Patch))
	case '~':
		base, err := ParseVersion(rangeExpr[1:])
		if err != nil {
			return false
		}
		return actual.Major == base.Major && actual.Minor == base.Minor && actual.Patch >= base.Patch
	default:
		expected, err := ParseVersion(rangeExpr)
		if err != nil {
			return false
		}
		return actual == expected
	}
}

// SatisfiesString is Satisfies for a raw version string.
func SatisfiesString(actual, rangeExpr string) bool {
	v, err := ParseVersion(actual)
	if err != nil {
		return false
	}
	return Satisfies(v, rangeExpr)
}
