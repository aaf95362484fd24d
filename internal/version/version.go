// Package version provides version parsing and ordering for platform and
// tool releases published in package indexes.
package version

import (
	"cmp"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

// semverPattern matches semantic versions. Prerelease identifiers may contain
// hyphens, as in 7.3.0-atmel3.6.1-arduino7.
var semverPattern = regexp.MustCompile(`^(\d+)\.(\d+)\.(\d+)(?:-([0-9A-Za-z-]+(?:\.[0-9A-Za-z-]+)*))?(?:\+[0-9A-Za-z-]+(?:\.[0-9A-Za-z-]+)*)?$`)

// release is the precedence-relevant part of a semantic version. Build
// metadata is matched but dropped since it never affects ordering.
type release struct {
	core       [3]int
	prerelease string
}

func parseRelease(v string) (release, bool) {
	m := semverPattern.FindStringSubmatch(v)
	if m == nil {
		return release{}, false
	}
	var r release
	for i := range r.core {
		// Only overflow can fail here.
		n, err := strconv.Atoi(m[i+1])
		if err != nil {
			return release{}, false
		}
		r.core[i] = n
	}
	r.prerelease = m[4]
	return r, true
}

func compareRelease(va, vb release) int {
	if c := slices.Compare(va.core[:], vb.core[:]); c != 0 {
		return c
	}

	// A release outranks any prerelease of the same core version.
	if va.prerelease == "" && vb.prerelease != "" {
		return 1
	}
	if va.prerelease != "" && vb.prerelease == "" {
		return -1
	}
	if va.prerelease != vb.prerelease {
		return comparePrerelease(va.prerelease, vb.prerelease)
	}
	return 0
}

// CompareLoose orders any two version strings. Valid semver pairs use
// semver precedence; otherwise the strings are compared piecewise, with
// runs of digits compared numerically ("1.10" > "1.9"). Never fails.
func CompareLoose(a, b string) int {
	va, okA := parseRelease(a)
	vb, okB := parseRelease(b)
	if okA && okB {
		if c := compareRelease(va, vb); c != 0 {
			return c
		}
		// Same precedence: keep the order total.
		return strings.Compare(a, b)
	}
	return compareNatural(a, b)
}

// SortDescending orders items newest first by the version versionOf
// returns, keeping the input order among equal versions.
func SortDescending[E any](items []E, versionOf func(E) string) {
	slices.SortStableFunc(items, func(a, b E) int {
		return CompareLoose(versionOf(b), versionOf(a))
	})
}

// Highest returns the newest version, or "" for an empty list.
func Highest(versions []string) string {
	if len(versions) == 0 {
		return ""
	}
	best := versions[0]
	for _, v := range versions[1:] {
		if CompareLoose(v, best) > 0 {
			best = v
		}
	}
	return best
}

// compareNatural splits both strings into digit and non-digit runs.
func compareNatural(a, b string) int {
	ra, rb := splitRuns(a), splitRuns(b)
	for i := 0; i < len(ra) && i < len(rb); i++ {
		na, aIsNum := parseDigits(ra[i])
		nb, bIsNum := parseDigits(rb[i])
		switch {
		case aIsNum && bIsNum:
			if na != nb {
				return cmp.Compare(na, nb)
			}
		case aIsNum:
			return 1
		case bIsNum:
			return -1
		default:
			if c := strings.Compare(ra[i], rb[i]); c != 0 {
				return c
			}
		}
	}
	if c := cmp.Compare(len(ra), len(rb)); c != 0 {
		return c
	}
	return strings.Compare(a, b)
}

func splitRuns(s string) []string {
	var runs []string
	start := 0
	for i := 1; i <= len(s); i++ {
		if i == len(s) || isDigit(s[i]) != isDigit(s[i-1]) {
			if i > start {
				runs = append(runs, s[start:i])
			}
			start = i
		}
	}
	return runs
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// parseDigits parses a run of ASCII digits, saturating on overflow.
func parseDigits(s string) (uint64, bool) {
	if s == "" || !isDigit(s[0]) {
		return 0, false
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return ^uint64(0), true
	}
	return n, true
}

// comparePrerelease compares dot-separated identifiers in turn; a shorter
// list that matches the other's prefix sorts first.
func comparePrerelease(a, b string) int {
	return slices.CompareFunc(strings.Split(a, "."), strings.Split(b, "."), compareIdentifier)
}

// compareIdentifier orders numeric identifiers by value and below any
// alphanumeric one.
func compareIdentifier(a, b string) int {
	aNum, bNum := allDigits(a), allDigits(b)
	switch {
	case aNum && bNum:
		na, _ := parseDigits(a)
		nb, _ := parseDigits(b)
		return cmp.Compare(na, nb)
	case aNum:
		return -1
	case bNum:
		return 1
	}
	return strings.Compare(a, b)
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isDigit(s[i]) {
			return false
		}
	}
	return true
}
