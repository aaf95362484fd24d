// Package cases loads the reference cases that drive the property
// resolution pipeline from a platform and a board layer to recipe patterns.
//
// A case is a JSON file in <dir>/<suite>/:
//
//	{
//	  "description": "tool path feeds the compiler command",
//	  "input": {
//	    "fqbn": "arduino:avr:uno",
//	    "platform": ["compiler.path={runtime.tools.avr-gcc.path}/bin/", "..."],
//	    "board": {"$file": "uno.txt"},
//	    "tools": {"avr-gcc": "/tools/avr-gcc"}
//	  },
//	  "output": {
//	    "properties": {"compiler.path": "/tools/avr-gcc/bin/"},
//	    "recipes": {"recipe.c.o.pattern": {"cmd": "...", "flags": [], "inc_dirs": []}}
//	  }
//	}
//
// Property text is given as a list of lines, a single string or a $file
// reference relative to the case file.
package cases

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/AndreyAkinshin/boardrecipe/internal/recipe"
)

// Case is one reference case.
type Case struct {
	Name        string // from the file name
	Suite       string // parent directory
	Path        string
	Description string
	Skip        bool
	Input       Input
	Output      Output
}

// Input is the platform and board layer of a case.
type Input struct {
	FQBN            string
	PlatformVersion string
	Platform        string
	Board           string
	// Tools maps tool references to install dirs.
	Tools map[string]string
}

// Output is what the pipeline must produce. Error, when set, is a substring
// of the expected error and the other fields are ignored.
type Output struct {
	Properties map[string]string         `json:"properties,omitempty"`
	Pending    []string                  `json:"pending,omitempty"`
	Recipes    map[string]recipe.Pattern `json:"recipes,omitempty"`
	Error      string                    `json:"error,omitempty"`
}

// LocateTool makes Input usable as the resolver's tool locator.
func (in Input) LocateTool(ref string) (string, bool) {
	p, ok := in.Tools[ref]
	return p, ok
}

type rawCase struct {
	Description string `json:"description"`
	Skip        bool   `json:"skip"`
	Input       *struct {
		FQBN            string            `json:"fqbn"`
		PlatformVersion string            `json:"platform_version"`
		Platform        json.RawMessage   `json:"platform"`
		Board           json.RawMessage   `json:"board"`
		Tools           map[string]string `json:"tools"`
	} `json:"input"`
	Output *Output `json:"output"`
}

// LoadSuite loads every *.json case of dir/suite, sorted by name.
func LoadSuite(dir, suite string) ([]Case, error) {
	suiteDir := filepath.Join(dir, suite)
	if _, err := os.Stat(suiteDir); os.IsNotExist(err) {
		return nil, fmt.Errorf("case suite directory not found: %s", suiteDir)
	}

	matches, err := filepath.Glob(filepath.Join(suiteDir, "*.json"))
	if err != nil {
		return nil, err
	}

	cases := make([]Case, 0, len(matches))
	for _, path := range matches {
		c, err := LoadCase(path)
		if err != nil {
			return nil, fmt.Errorf("case suite %q: %w (file: %s)", suite, err, path)
		}
		c.Suite = suite
		cases = append(cases, *c)
	}

	sort.Slice(cases, func(i, j int) bool {
		return cases[i].Name < cases[j].Name
	})
	return cases, nil
}

// LoadAllSuites loads the cases of every suite directory in dir.
func LoadAllSuites(dir string) (map[string][]Case, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read cases directory: %w", err)
	}

	suites := make(map[string][]Case)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		cases, err := LoadSuite(dir, entry.Name())
		if err != nil {
			return nil, err
		}
		if len(cases) > 0 {
			suites[entry.Name()] = cases
		}
	}
	return suites, nil
}

// LoadCase loads a single case file.
func LoadCase(path string) (*Case, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var raw rawCase
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if raw.Input == nil {
		return nil, fmt.Errorf("missing required field \"input\"")
	}
	if raw.Output == nil {
		return nil, fmt.Errorf("missing required field \"output\"")
	}

	baseDir := filepath.Dir(path)
	platform, err := resolveText(raw.Input.Platform, baseDir)
	if err != nil {
		return nil, fmt.Errorf("input.platform: %w", err)
	}
	board, err := resolveText(raw.Input.Board, baseDir)
	if err != nil {
		return nil, fmt.Errorf("input.board: %w", err)
	}

	return &Case{
		Name:        strings.TrimSuffix(filepath.Base(path), ".json"),
		Path:        path,
		Description: raw.Description,
		Skip:        raw.Skip,
		Input: Input{
			FQBN:            raw.Input.FQBN,
			PlatformVersion: raw.Input.PlatformVersion,
			Platform:        platform,
			Board:           board,
			Tools:           raw.Input.Tools,
		},
		Output: *raw.Output,
	}, nil
}

// resolveText accepts a string, a list of lines or {"$file": "name"}.
func resolveText(raw json.RawMessage, baseDir string) (string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}

	var lines []string
	if err := json.Unmarshal(raw, &lines); err == nil {
		return strings.Join(lines, "\n"), nil
	}

	var ref struct {
		File string `json:"$file"`
	}
	if err := json.Unmarshal(raw, &ref); err != nil || ref.File == "" {
		return "", fmt.Errorf("want a string, a list of lines or a $file reference")
	}
	if filepath.IsAbs(ref.File) || strings.Contains(ref.File, "..") {
		return "", fmt.Errorf("$file %q must stay inside the case directory", ref.File)
	}
	data, err := os.ReadFile(filepath.Join(baseDir, ref.File))
	if err != nil {
		return "", fmt.Errorf("$file %q: %w", ref.File, err)
	}
	return string(data), nil
}
