// Package properties parses Arduino property files and merges the platform
// and board layers into resolved and pending sets.
package properties

import (
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/AndreyAkinshin/boardrecipe/internal/board"
	"github.com/AndreyAkinshin/boardrecipe/internal/errors"
)

// IDEVersion is the runtime.ide.version reported to platform files.
const IDEVersion = "10607"

// Keys injected by Merge.
const (
	KeyArch         = "build.arch"
	KeyIDEVersion   = "runtime.ide.version"
	KeyPlatformPath = "runtime.platform.path"
	KeyCorePath     = "build.core.path"
	KeyVariantPath  = "build.variant.path"
	KeyCore         = "build.core"
	KeyVariant      = "build.variant"
)

// Map is a set of properties keyed by dotted name.
type Map map[string]string

// Pending holds properties whose values still contain a {name} placeholder.
type Pending map[string]string

// Keys returns the keys of m in sorted order.
func (m Map) Keys() []string { return sortedKeys(m) }

// Keys returns the keys of p in sorted order.
func (p Pending) Keys() []string { return sortedKeys(p) }

// Clone returns a shallow copy of m.
func (m Map) Clone() Map {
	out := make(Map, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Clone returns a shallow copy of p.
func (p Pending) Clone() Pending {
	out := make(Pending, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

func sortedKeys[M ~map[string]string](m M) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

var placeholderRe = regexp.MustCompile(`\{([^{}]+)\}`)

// HasPlaceholder reports whether v still needs substitution.
func HasPlaceholder(v string) bool {
	return strings.Contains(v, "{")
}

// Placeholders returns the distinct placeholder names in s in order of first
// appearance.
func Placeholders(s string) []string {
	var names []string
	seen := make(map[string]bool)
	for _, m := range placeholderRe.FindAllStringSubmatch(s, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			names = append(names, m[1])
		}
	}
	return names
}

// Substitute replaces every {name} in s for which lookup reports a value.
// Unknown placeholders are left as they are. Replacement text is not rescanned.
func Substitute(s string, lookup func(name string) (string, bool)) string {
	if !HasPlaceholder(s) {
		return s
	}
	return placeholderRe.ReplaceAllStringFunc(s, func(match string) string {
		if v, ok := lookup(match[1 : len(match)-1]); ok {
			return v
		}
		return match
	})
}

// Lookup adapts m for Substitute.
func (m Map) Lookup(name string) (string, bool) {
	v, ok := m[name]
	return v, ok
}

// Line is one assignment of a property file.
type Line struct {
	Key   string
	Value string
}

// ParseLines splits text into assignments. The first '=' separates key from
// value and both sides are trimmed. Lines without '=' and lines with an
// empty key are ignored.
func ParseLines(text string) []Line {
	var lines []Line
	for _, raw := range strings.Split(text, "\n") {
		key, value, ok := strings.Cut(raw, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		lines = append(lines, Line{Key: key, Value: strings.TrimSpace(value)})
	}
	return lines
}

// Parse returns the assignments of text as a Map. Later lines win.
func Parse(text string) Map {
	m := make(Map)
	for _, l := range ParseLines(text) {
		m[l.Key] = l.Value
	}
	return m
}

// SelectBoard extracts the properties of boardID from a boards.txt document,
// stripping the "<boardID>." prefix. Menu entries are skipped.
func SelectBoard(boardsTxt, boardID string) string {
	prefix := boardID + "."
	menu := prefix + "menu."

	var b strings.Builder
	for _, raw := range strings.Split(boardsTxt, "\n") {
		line := strings.TrimSpace(raw)
		if !strings.HasPrefix(line, prefix) || strings.HasPrefix(line, menu) {
			continue
		}
		b.WriteString(strings.TrimPrefix(line, prefix))
		b.WriteByte('\n')
	}
	return b.String()
}

// Env carries the values Merge injects.
type Env struct {
	Board    board.Identifier
	DataRoot string
}

// PlatformPath returns the installation directory of the board's platform.
func (e Env) PlatformPath() string {
	return filepath.Join(e.DataRoot, e.Board.HardwareDir())
}

// Merge parses the platform and board layers and splits the merged result
// into resolved values and pending templates.
//
// Board values are substituted into the platform text before it is split
// into key and value, so a board property may appear anywhere in a platform
// line. A board value that would put an '=' into a platform key is rejected.
func Merge(platformRaw, boardRaw string, env Env) (Map, Pending, error) {
	boardLines := ParseLines(boardRaw)
	platformLines := ParseLines(platformRaw)
	if len(boardLines) == 0 && len(platformLines) == 0 {
		return nil, nil, errors.Malformed("platform.txt", "no property assignments in platform or board layer")
	}

	boardMap := make(Map, len(boardLines))
	for _, l := range boardLines {
		boardMap[l.Key] = l.Value
	}

	merged := make(Map, len(platformLines)+len(boardLines))
	for _, l := range platformLines {
		key := Substitute(l.Key, boardMap.Lookup)
		if key != l.Key && strings.Contains(key, "=") {
			return nil, nil, errors.Malformed("platform.txt",
				"board value substituted into key "+l.Key+" contains '='")
		}
		merged[key] = Substitute(l.Value, boardMap.Lookup)
	}
	for k, v := range boardMap {
		merged[k] = v
	}

	resolved := make(Map)
	pending := make(Pending)
	for k, v := range merged {
		if HasPlaceholder(v) {
			pending[k] = v
		} else {
			resolved[k] = v
		}
	}

	inject := func(k, v string) {
		delete(pending, k)
		resolved[k] = v
	}
	inject(KeyArch, cases.Upper(language.Und).String(env.Board.Arch))
	inject(KeyIDEVersion, IDEVersion)
	inject(KeyPlatformPath, env.PlatformPath())

	injectPending := func(k, v string) {
		delete(resolved, k)
		pending[k] = v
	}
	injectPending(KeyCorePath, "{"+KeyPlatformPath+"}/cores/{"+KeyCore+"}")
	injectPending(KeyVariantPath, "{"+KeyPlatformPath+"}/variants/{"+KeyVariant+"}")

	return resolved, pending, nil
}
