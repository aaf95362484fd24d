// Package resolve expands {name} placeholders across a property set until no
// further progress is possible, asking a ToolLocator for tool install paths.
package resolve

import (
	stderrors "errors"
	"log/slog"
	"sort"
	"strings"

	"github.com/AndreyAkinshin/boardrecipe/internal/ctxlog"
	"github.com/AndreyAkinshin/boardrecipe/internal/errors"
	"github.com/AndreyAkinshin/boardrecipe/internal/properties"
	"github.com/AndreyAkinshin/boardrecipe/internal/topsort"
)

// ToolLocator maps a tool reference ("name" or "name-version") to its
// absolute install directory.
type ToolLocator interface {
	LocateTool(toolRef string) (string, bool)
}

const (
	toolPrefix = "runtime.tools."
	toolSuffix = ".path"
)

// ToolRef extracts the tool reference from a runtime.tools.<ref>.path name.
func ToolRef(name string) (string, bool) {
	if len(name) <= len(toolPrefix)+len(toolSuffix) ||
		!strings.HasPrefix(name, toolPrefix) || !strings.HasSuffix(name, toolSuffix) {
		return "", false
	}
	return name[len(toolPrefix) : len(name)-len(toolSuffix)], true
}

// ToolKey returns the property name under which a tool path is published.
func ToolKey(toolRef string) string {
	return toolPrefix + toolRef + toolSuffix
}

// Resolver runs the fixed-point expansion.
type Resolver struct {
	// Tools answers runtime.tools.<ref>.path lookups. May be nil.
	Tools ToolLocator
	// Deferred lists placeholder names that are filled in later by the
	// caller; leftovers referencing only these are not reported.
	Deferred []string
	Logger   *slog.Logger
}

// Resolve expands pending against resolved and reports what is left.
// Neither input is modified.
func Resolve(resolved properties.Map, pending properties.Pending, tools ToolLocator) (properties.Map, properties.Pending, error) {
	return Resolver{Tools: tools}.Resolve(resolved, pending)
}

// Resolve expands pending and returns the finished map, the entries still
// pending and an error describing every leftover that is not deferred.
func (r Resolver) Resolve(resolved properties.Map, pending properties.Pending) (properties.Map, properties.Pending, error) {
	out, still, err := r.Run(resolved, pending)
	return out, still, stderrors.Join(err, Diagnose(still, r.Deferred))
}

// Run performs the expansion without judging the leftovers. The only error
// it returns is for exceeding the iteration cap.
//
// A pass makes progress when an entry is finished or a pending value
// changes, so nested names such as {runtime.tools.{build.tarch}-gcc.path}
// resolve from the inside out. The cap allows one pass per pending entry
// plus one per opening brace.
func (r Resolver) Run(resolved properties.Map, pending properties.Pending) (properties.Map, properties.Pending, error) {
	log := r.Logger
	if log == nil {
		log = ctxlog.Discard()
	}

	out := resolved.Clone()
	work := pending.Clone()
	queried := make(map[string]bool)
	limit := len(work) + 1
	for _, v := range work {
		limit += strings.Count(v, "{")
	}

	for pass := 1; len(work) > 0; pass++ {
		if pass > limit {
			return out, work, &errors.Error{
				Kind:    errors.KindUnresolved,
				Message: "resolution did not converge",
				Names:   work.Keys(),
			}
		}

		r.injectTools(out, work, queried, log)

		moved, changed := 0, 0
		for _, k := range work.Keys() {
			v := properties.Substitute(work[k], out.Lookup)
			if properties.HasPlaceholder(v) {
				if v != work[k] {
					work[k] = v
					changed++
				}
				continue
			}
			out[k] = v
			delete(work, k)
			moved++
		}

		log.Debug("resolution pass", "pass", pass, "resolved", moved, "changed", changed, "pending", len(work))
		if moved == 0 && changed == 0 {
			break
		}
	}
	return out, work, nil
}

func (r Resolver) injectTools(out properties.Map, work properties.Pending, queried map[string]bool, log *slog.Logger) {
	for _, k := range work.Keys() {
		for _, name := range properties.Placeholders(work[k]) {
			ref, ok := ToolRef(name)
			if !ok || queried[name] {
				continue
			}
			if _, known := out[name]; known {
				continue
			}
			if _, own := work[name]; own {
				continue
			}
			queried[name] = true
			if r.Tools == nil {
				continue
			}
			if path, found := r.Tools.LocateTool(ref); found {
				out[name] = path
				log.Debug("tool located", "tool", ref, "path", path)
			} else {
				log.Debug("tool not in package index", "tool", ref)
			}
		}
	}
}

// Leftover is a pending entry with the placeholder names it still lacks.
type Leftover struct {
	Key     string
	Value   string
	Missing []string
}

// Tools returns the tool references among the missing names.
func (l Leftover) Tools() []string {
	var refs []string
	for _, name := range l.Missing {
		if ref, ok := ToolRef(name); ok {
			refs = append(refs, ref)
		}
	}
	return refs
}

// Leftovers lists the still-pending entries in reference order, so an entry
// comes after the pending entries it depends on. Deferred names are not
// counted as missing, and entries missing nothing else are omitted.
func Leftovers(still properties.Pending, deferred []string) []Leftover {
	skip := make(map[string]bool, len(deferred))
	for _, d := range deferred {
		skip[d] = true
	}

	order, err := topsort.Sort(referenceGraph(still), nil)
	if err != nil {
		order = still.Keys()
	}

	var out []Leftover
	for _, k := range order {
		var missing []string
		for _, name := range properties.Placeholders(still[k]) {
			if !skip[name] {
				missing = append(missing, name)
			}
		}
		if len(missing) == 0 && len(properties.Placeholders(still[k])) > 0 {
			continue
		}
		out = append(out, Leftover{Key: k, Value: still[k], Missing: missing})
	}
	return out
}

// Diagnose turns leftovers into errors: one UnresolvedPlaceholder per key,
// one per reference cycle, and a single ToolPathNotFound naming every tool
// the locator could not find.
func Diagnose(still properties.Pending, deferred []string) error {
	leftovers := Leftovers(still, deferred)
	if len(leftovers) == 0 {
		return nil
	}

	var errs []error
	tools := make(map[string]bool)
	for _, l := range leftovers {
		errs = append(errs, errors.Unresolved(l.Key, l.Missing))
		for _, ref := range l.Tools() {
			tools[ref] = true
		}
	}
	for _, c := range topsort.Cycles(referenceGraph(still)) {
		errs = append(errs, errors.Cycle(topsort.FormatCycle(c)))
	}
	if len(tools) > 0 {
		refs := make([]string, 0, len(tools))
		for ref := range tools {
			refs = append(refs, ref)
		}
		sort.Strings(refs)
		errs = append(errs, errors.ToolNotFound(refs))
	}
	return stderrors.Join(errs...)
}

func referenceGraph(still properties.Pending) topsort.Graph {
	g := make(topsort.Graph, len(still))
	for k, v := range still {
		g[k] = properties.Placeholders(v)
	}
	return g
}
