package recipe

import "strings"

// LinkDirectives are the library search dirs and libraries a final link
// needs, taken from the combine recipe.
type LinkDirectives struct {
	SearchDirs []string `json:"search_dirs"`
	Libs       []string `json:"libs"`
}

// linkedByDefault are libraries every toolchain links anyway.
var linkedByDefault = map[string]bool{"m": true, "gcc": true}

// Link extracts -L dirs and -l libraries from a built combine pattern.
// Search dirs that still hold a placeholder are skipped.
func Link(p Pattern) LinkDirectives {
	var d LinkDirectives
	for _, f := range p.Flags {
		f = strings.TrimSpace(f)
		if dir, ok := strings.CutPrefix(f, "-L"); ok {
			if dir != "" && !strings.ContainsAny(dir, "{}") {
				d.SearchDirs = append(d.SearchDirs, dir)
			}
			continue
		}
		if lib, ok := strings.CutPrefix(f, "-l"); ok {
			if lib != "" && !linkedByDefault[lib] {
				d.Libs = append(d.Libs, lib)
			}
		}
	}
	return d
}
