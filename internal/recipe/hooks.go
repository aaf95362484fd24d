package recipe

import (
	"sort"
	"strings"

	"github.com/AndreyAkinshin/boardrecipe/internal/properties"
	"github.com/AndreyAkinshin/boardrecipe/internal/version"
)

// HookVars are the build-driver values substituted into hook patterns.
type HookVars struct {
	ProjectName string
	SourcePath  string
	BuildPath   string
}

func (v HookVars) lookup(name string) (string, bool) {
	var value string
	switch name {
	case "build.project_name":
		value = v.ProjectName
	case "build.source.path":
		value = v.SourcePath
	case "build.path":
		value = v.BuildPath
	}
	return value, value != ""
}

// Hook is one step of a recipe.hooks.<stage>.<N>.pattern sequence.
type Hook struct {
	Key     string  `json:"key"`
	Step    string  `json:"step"`
	Pattern Pattern `json:"pattern"`
}

// HookPrefix returns the common key prefix of a stage's hooks.
func HookPrefix(stage string) string {
	return "recipe.hooks." + stage + "."
}

// Hooks builds the hooks of stage (for example "prebuild" or
// "linking.prelink") in step order. Steps are compared numerically.
func (b Builder) Hooks(raw, resolved properties.Map, stage string, vars HookVars) ([]Hook, error) {
	prefix := HookPrefix(stage)

	var steps []string
	for key := range raw {
		rest, ok := strings.CutPrefix(key, prefix)
		if !ok {
			continue
		}
		step, ok := strings.CutSuffix(rest, ".pattern")
		if !ok || step == "" || strings.Contains(step, ".") {
			continue
		}
		steps = append(steps, step)
	}
	sort.Slice(steps, func(i, j int) bool {
		return version.CompareLoose(steps[i], steps[j]) < 0
	})

	lookup := func(name string) (string, bool) {
		if v, ok := resolved[name]; ok {
			return v, true
		}
		return vars.lookup(name)
	}

	hooks := make([]Hook, 0, len(steps))
	for _, step := range steps {
		key := prefix + step + ".pattern"
		p, err := b.build(key, raw[key], lookup, nil)
		if err != nil {
			return nil, err
		}
		hooks = append(hooks, Hook{Key: key, Step: step, Pattern: p})
	}
	return hooks, nil
}
