// Package recipe turns recipe property strings into structured command
// patterns: the command, its ordinary flags and its include directories.
package recipe

import (
	"strings"

	"github.com/AndreyAkinshin/boardrecipe/internal/errors"
	"github.com/AndreyAkinshin/boardrecipe/internal/properties"
	"github.com/AndreyAkinshin/boardrecipe/internal/tokenize"
)

// Recipe keys of the four build steps.
const (
	KeyAssembler = "recipe.S.o.pattern"
	KeyC         = "recipe.c.o.pattern"
	KeyCpp       = "recipe.cpp.o.pattern"
	KeyArchiver  = "recipe.ar.pattern"
	KeyCombine   = "recipe.c.combine.pattern"
)

// KeyCoreDedicated names the pattern built from flags meant only for the core.
const KeyCoreDedicated = "_private_core_dedicated"

// CallerSupplied lists placeholders that the build driver fills per
// invocation. They are never expected to resolve from property files.
var CallerSupplied = []string{
	"includes",
	"source_file",
	"object_file",
	"object_files",
	"archive_file",
	"archive_file_path",
	"build.path",
	"build.project_name",
	"build.source.path",
}

// DefaultDropped are flags the loader strips from every recipe so the
// compiler-invocation side controls debug info and link-time optimization.
var DefaultDropped = []string{"-g", "-flto"}

var sentinels = map[string]bool{
	"{includes}":          true,
	"{source_file}":       true,
	"{object_file}":       true,
	"{archive_file_path}": true,
}

// Pattern is one external tool invocation still missing its per-file
// arguments.
type Pattern struct {
	Cmd     string   `json:"cmd"`
	Flags   []string `json:"flags"`
	IncDirs []string `json:"inc_dirs"`
}

// Args returns the flags followed by one -I argument per include dir.
func (p Pattern) Args() []string {
	args := make([]string, 0, len(p.Flags)+len(p.IncDirs))
	args = append(args, p.Flags...)
	for _, d := range p.IncDirs {
		args = append(args, "-I"+d)
	}
	return args
}

// String renders the pattern as a command line.
func (p Pattern) String() string {
	tokens := p.Args()
	if p.Cmd != "" {
		tokens = append([]string{p.Cmd}, tokens...)
	}
	return tokenize.Join(tokens)
}

// Builder builds patterns. The zero value applies only the mandatory
// filtering.
type Builder struct {
	// Drop lists additional tokens to discard, such as DefaultDropped.
	Drop []string
}

// Build builds a pattern from raw with the zero Builder.
func Build(raw string, resolved properties.Map) (Pattern, error) {
	return Builder{}.Build(raw, resolved)
}

// Build substitutes the resolved properties into raw, tokenizes it and
// classifies the tokens. Unknown placeholders stay literal.
func (b Builder) Build(raw string, resolved properties.Map) (Pattern, error) {
	return b.build("", raw, resolved.Lookup, nil)
}

// BuildKey is Build with key named in errors. extra flags are appended
// after the recipe's own tokens.
func (b Builder) BuildKey(key, raw string, resolved properties.Map, extra []string) (Pattern, error) {
	return b.build(key, raw, resolved.Lookup, extra)
}

func (b Builder) build(key, raw string, lookup func(string) (string, bool), extra []string) (Pattern, error) {
	if strings.TrimSpace(raw) == "" {
		return Pattern{}, errors.EmptyRecipe(key)
	}

	tokens := tokenize.Split(properties.Substitute(raw, lookup))
	if len(tokens) == 0 {
		return Pattern{}, errors.EmptyRecipe(key)
	}

	p := Pattern{Cmd: tokens[0]}
	rest := tokens[1:]
	for i := 0; i < len(rest); i++ {
		tok := rest[i]
		if tok == "-o" {
			i++
			continue
		}
		if b.dropped(tok) {
			continue
		}
		// An include token keeps its whole suffix, spaces and all.
		if strings.HasPrefix(tok, "-I") || !tokenize.NeedsSplit(tok) {
			p.classify(tok)
			continue
		}
		subs := tokenize.Split(tok)
		for j := 0; j < len(subs); j++ {
			if subs[j] == "-o" {
				j++
				continue
			}
			if !b.dropped(subs[j]) {
				p.Flags = append(p.Flags, subs[j])
			}
		}
	}

	for _, tok := range extra {
		p.classify(tok)
	}

	p.relocateIncludes()
	return p, nil
}

func (b Builder) dropped(tok string) bool {
	if strings.HasPrefix(tok, "@") || sentinels[tok] {
		return true
	}
	for _, d := range b.Drop {
		if tok == d {
			return true
		}
	}
	return false
}

func (p *Pattern) classify(tok string) {
	if dir, ok := strings.CutPrefix(tok, "-I"); ok {
		p.IncDirs = append(p.IncDirs, dir)
		return
	}
	p.Flags = append(p.Flags, tok)
}

// relocateIncludes moves -I flags produced by re-tokenization.
func (p *Pattern) relocateIncludes() {
	flags := p.Flags[:0]
	for _, f := range p.Flags {
		if dir, ok := strings.CutPrefix(f, "-I"); ok {
			p.IncDirs = append(p.IncDirs, dir)
			continue
		}
		flags = append(flags, f)
	}
	p.Flags = flags
}

// FromFlags builds a pattern without a command from a flag list, routing -I
// entries to include dirs.
func FromFlags(flags []string) Pattern {
	var p Pattern
	for _, f := range flags {
		if f = strings.TrimSpace(f); f != "" {
			p.classify(f)
		}
	}
	return p
}
