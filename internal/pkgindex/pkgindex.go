// Package pkgindex loads Arduino package indexes and answers where a tool a
// platform depends on is installed.
package pkgindex

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/tidwall/jsonc"

	"github.com/AndreyAkinshin/boardrecipe/internal/board"
	"github.com/AndreyAkinshin/boardrecipe/internal/schema"
	"github.com/AndreyAkinshin/boardrecipe/internal/version"
)

// Document is the on-disk package index (package_index.json). Fields the
// engine does not use are ignored.
type Document struct {
	Packages []Package `json:"packages"`
}

// Package is one packager entry of the index.
type Package struct {
	Name      string     `json:"name"`
	Platforms []Platform `json:"platforms"`
}

// Platform is one released version of a core for one architecture.
type Platform struct {
	Architecture      string           `json:"architecture"`
	Version           string           `json:"version"`
	ToolsDependencies []ToolDependency `json:"toolsDependencies"`
}

// ToolDependency names a tool release a platform needs.
type ToolDependency struct {
	Packager string `json:"packager"`
	Name     string `json:"name"`
	Version  string `json:"version"`
}

// RelativePath returns packages/<packager>/tools/<name>/<version>.
func (d ToolDependency) RelativePath() string {
	return filepath.Join("packages", d.Packager, "tools", d.Name, d.Version)
}

// Parse strips comments from data, validates it against the package index
// schema and decodes it.
func Parse(data []byte) (*Document, error) {
	stripped := jsonc.ToJSON(data)

	if err := schema.ValidatePackageIndex(stripped); err != nil {
		return nil, err
	}

	var doc Document
	if err := json.Unmarshal(stripped, &doc); err != nil {
		return nil, fmt.Errorf("parsing package index: %w", err)
	}
	return &doc, nil
}

// ReadFile reads and parses one package index file.
func ReadFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	doc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// IndexFiles lists package_index.json followed by every package_*_index.json
// in dataRoot, in name order.
func IndexFiles(dataRoot string) ([]string, error) {
	var files []string

	primary := filepath.Join(dataRoot, "package_index.json")
	if _, err := os.Stat(primary); err == nil {
		files = append(files, primary)
	}

	extra, err := filepath.Glob(filepath.Join(dataRoot, "package_*_index.json"))
	if err != nil {
		return nil, err
	}
	sort.Strings(extra)
	files = append(files, extra...)

	if len(files) == 0 {
		return nil, fmt.Errorf("no package index found in %s", dataRoot)
	}
	return files, nil
}

// Load reads every index file of dataRoot and builds an Index for arch.
func Load(dataRoot, arch string) (*Index, error) {
	files, err := IndexFiles(dataRoot)
	if err != nil {
		return nil, err
	}

	docs := make([]*Document, 0, len(files))
	for _, f := range files {
		doc, err := ReadFile(f)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return New(arch, docs...), nil
}

// Index is the catalogue restricted to one architecture. Platforms of each
// package and the tool dependencies of each platform are sorted newest first.
// An Index is read-only after New returns.
type Index struct {
	arch     string
	packages []Package
}

// New builds an Index for arch from one or more documents. Packages with the
// same name across documents are merged.
func New(arch string, docs ...*Document) *Index {
	byName := make(map[string]int)
	idx := &Index{arch: arch}

	for _, doc := range docs {
		if doc == nil {
			continue
		}
		for _, pkg := range doc.Packages {
			i, ok := byName[pkg.Name]
			if !ok {
				i = len(idx.packages)
				byName[pkg.Name] = i
				idx.packages = append(idx.packages, Package{Name: pkg.Name})
			}
			for _, p := range pkg.Platforms {
				if p.Architecture != arch {
					continue
				}
				tools := make([]ToolDependency, len(p.ToolsDependencies))
				copy(tools, p.ToolsDependencies)
				version.SortDescending(tools, func(t ToolDependency) string { return t.Version })
				p.ToolsDependencies = tools
				idx.packages[i].Platforms = append(idx.packages[i].Platforms, p)
			}
		}
	}

	for i := range idx.packages {
		version.SortDescending(idx.packages[i].Platforms, func(p Platform) string { return p.Version })
	}
	return idx
}

// Arch returns the architecture the index was built for.
func (x *Index) Arch() string {
	return x.arch
}

// Packages returns the filtered packages. The slice must not be modified.
func (x *Index) Packages() []Package {
	return x.packages
}

// PlatformVersions lists the indexed versions of packager's platform, newest first.
func (x *Index) PlatformVersions(packager string) []string {
	var versions []string
	for _, pkg := range x.packages {
		if pkg.Name != packager {
			continue
		}
		for _, p := range pkg.Platforms {
			versions = append(versions, p.Version)
		}
	}
	return versions
}

// LookupToolPath finds toolRef ("name" or "name-version") for the board and
// returns its path relative to the data root.
//
// Lookup tiers, each matching name+version before bare name:
//  1. the board's packager, platform with the board's platform version
//  2. the board's packager, any platform (newest first)
//  3. any package and platform
func (x *Index) LookupToolPath(id board.Identifier, toolRef string) (string, bool) {
	tiers := []func(pkg Package, p Platform) bool{
		func(pkg Package, p Platform) bool {
			return pkg.Name == id.Packager && p.Version == id.PlatformVersion
		},
		func(pkg Package, _ Platform) bool {
			return pkg.Name == id.Packager
		},
		func(Package, Platform) bool {
			return true
		},
	}

	for _, inTier := range tiers {
		if dep, ok := x.find(toolRef, inTier); ok {
			return dep.RelativePath(), true
		}
	}
	return "", false
}

func (x *Index) find(toolRef string, inTier func(Package, Platform) bool) (ToolDependency, bool) {
	matchers := []func(ToolDependency) bool{
		func(d ToolDependency) bool { return d.Name+"-"+d.Version == toolRef },
		func(d ToolDependency) bool { return d.Name == toolRef },
	}
	for _, match := range matchers {
		for _, pkg := range x.packages {
			for _, p := range pkg.Platforms {
				if !inTier(pkg, p) {
					continue
				}
				for _, dep := range p.ToolsDependencies {
					if match(dep) {
						return dep, true
					}
				}
			}
		}
	}
	return ToolDependency{}, false
}

// Locator binds an Index to one board and data root so tool references
// resolve to absolute paths.
type Locator struct {
	Index    *Index
	Board    board.Identifier
	DataRoot string
}

// LocateTool returns the absolute install directory of toolRef.
func (l Locator) LocateTool(toolRef string) (string, bool) {
	if l.Index == nil {
		return "", false
	}
	rel, ok := l.Index.LookupToolPath(l.Board, toolRef)
	if !ok {
		return "", false
	}
	return filepath.Join(l.DataRoot, rel), true
}
