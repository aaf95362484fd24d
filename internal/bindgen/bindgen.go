// Package bindgen derives the inputs of a C/C++ binding generator from a
// loaded build context.
package bindgen

import (
	"strings"

	"github.com/AndreyAkinshin/boardrecipe/internal/buildctx"
	"github.com/AndreyAkinshin/boardrecipe/internal/fsutil"
	"github.com/AndreyAkinshin/boardrecipe/internal/recipe"
)

// Inputs is what a binding generator needs to parse the board's headers.
type Inputs struct {
	// ClangArgs are the defines and architecture flags of the compile
	// recipe followed by one -I per include dir.
	ClangArgs   []string `json:"clang_args"`
	IncludeDirs []string `json:"include_dirs"`
	// Cpp is true when the C++ recipe was used; false means C.
	Cpp     bool     `json:"cpp"`
	Headers []string `json:"headers"`
}

// Language returns the clang -x value.
func (in Inputs) Language() string {
	if in.Cpp {
		return "c++"
	}
	return "c"
}

var archFlags = []string{"-mmcu=", "-mcpu=", "-march="}

// KeepFlag reports whether a compile flag matters to header parsing.
func KeepFlag(flag string) bool {
	if strings.HasPrefix(flag, "-D") {
		return true
	}
	for _, a := range archFlags {
		if strings.Contains(flag, a) {
			return true
		}
	}
	return false
}

// Derive collects the inputs from c. Headers come from the external
// libraries only, since those are what the project binds to.
func Derive(c *buildctx.Context) (Inputs, error) {
	var in Inputs
	var p *recipe.Pattern
	if c.Recipes.Cpp != nil {
		p, in.Cpp = c.Recipes.Cpp, true
	} else {
		p = c.Recipes.C
	}

	var dirs []string
	if p != nil {
		for _, f := range p.Flags {
			if KeepFlag(f) {
				in.ClangArgs = append(in.ClangArgs, f)
			}
		}
		dirs = append(dirs, p.IncDirs...)
	}

	core, err := c.CoreIncludeDirs()
	if err != nil {
		return Inputs{}, err
	}
	dirs = append(dirs, core...)
	dirs = append(dirs, c.ExternalLibraries...)

	seen := make(map[string]bool, len(dirs))
	for _, d := range dirs {
		if d == "" || seen[d] {
			continue
		}
		seen[d] = true
		in.IncludeDirs = append(in.IncludeDirs, d)
		in.ClangArgs = append(in.ClangArgs, "-I"+d)
	}

	in.Headers, err = fsutil.FindHeaders(c.ExternalLibraries)
	if err != nil {
		return Inputs{}, err
	}
	return in, nil
}
