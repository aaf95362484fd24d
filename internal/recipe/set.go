package recipe

import (
	"github.com/AndreyAkinshin/boardrecipe/internal/properties"
)

// Set holds the patterns of one board. A nil pattern means the platform
// does not define that step and the caller skips it.
type Set struct {
	Assembler     *Pattern `json:"assembler"`
	C             *Pattern `json:"c"`
	Cpp           *Pattern `json:"cpp"`
	Archiver      *Pattern `json:"archiver"`
	CoreDedicated *Pattern `json:"core_dedicated,omitempty"`
}

// Entry pairs a pattern with the key it was built from.
type Entry struct {
	Key     string
	Pattern *Pattern
}

// Entries lists the patterns in build order. Missing steps are included with
// a nil pattern.
func (s Set) Entries() []Entry {
	entries := []Entry{
		{KeyAssembler, s.Assembler},
		{KeyC, s.C},
		{KeyCpp, s.Cpp},
		{KeyArchiver, s.Archiver},
	}
	if s.CoreDedicated != nil {
		entries = append(entries, Entry{KeyCoreDedicated, s.CoreDedicated})
	}
	return entries
}

// Get returns the pattern for key, or nil.
func (s Set) Get(key string) *Pattern {
	for _, e := range s.Entries() {
		if e.Key == key {
			return e.Pattern
		}
	}
	return nil
}

// Options configures BuildSet.
type Options struct {
	Builder Builder
	// Extra flags appended per recipe key.
	Extra map[string][]string
	// CoreFlags become the CoreDedicated pattern when non-empty.
	CoreFlags []string
}

// BuildSet builds the four recipe patterns. raw supplies the recipe strings,
// usually the finished map together with entries left pending because they
// reference per-file placeholders. A key missing from raw yields a nil
// pattern; a key present but empty is an EmptyRecipe error.
func BuildSet(raw, resolved properties.Map, opts Options) (Set, error) {
	var set Set
	targets := []struct {
		key string
		dst **Pattern
	}{
		{KeyAssembler, &set.Assembler},
		{KeyC, &set.C},
		{KeyCpp, &set.Cpp},
		{KeyArchiver, &set.Archiver},
	}

	for _, t := range targets {
		value, ok := raw[t.key]
		if !ok {
			continue
		}
		p, err := opts.Builder.BuildKey(t.key, value, resolved, opts.Extra[t.key])
		if err != nil {
			return Set{}, err
		}
		*t.dst = &p
	}

	if len(opts.CoreFlags) > 0 {
		p := FromFlags(opts.CoreFlags)
		set.CoreDedicated = &p
	}
	return set, nil
}
