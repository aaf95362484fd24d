// Package buildctx loads everything a build needs for one board: the
// finished property map, the recipe patterns and the include directories.
// A Context is built once by Load and passed explicitly; it is read-only
// afterwards and safe to share.
package buildctx

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/AndreyAkinshin/boardrecipe/internal/board"
	"github.com/AndreyAkinshin/boardrecipe/internal/config"
	"github.com/AndreyAkinshin/boardrecipe/internal/ctxlog"
	"github.com/AndreyAkinshin/boardrecipe/internal/errors"
	"github.com/AndreyAkinshin/boardrecipe/internal/fsutil"
	"github.com/AndreyAkinshin/boardrecipe/internal/pkgindex"
	"github.com/AndreyAkinshin/boardrecipe/internal/properties"
	"github.com/AndreyAkinshin/boardrecipe/internal/recipe"
	"github.com/AndreyAkinshin/boardrecipe/internal/resolve"
	"github.com/AndreyAkinshin/boardrecipe/internal/version"
)

// Property file names inside an installed platform.
const (
	PlatformFile = "platform.txt"
	BoardsFile   = "boards.txt"
)

// Options configures Load.
type Options struct {
	Config *config.Downstream
	// DataDir and UserDir override the configuration when set.
	DataDir string
	UserDir string
	// KeepDebugFlags keeps -g and -flto in the recipes.
	KeepDebugFlags bool
}

// Context is the loaded build description of one board.
type Context struct {
	Board   board.Identifier
	Config  *config.Downstream
	DataDir string
	UserDir string

	// Properties is the finished property map.
	Properties properties.Map
	// Pending holds entries left with placeholders, including the recipes
	// that reference per-file values.
	Pending properties.Pending

	Recipes recipe.Set
	// ExternalLibraries are the resolved directories of the configured
	// external libraries.
	ExternalLibraries []string
	Warnings          []string

	builder recipe.Builder
}

// requiredKeys must resolve completely apart from per-file placeholders.
var requiredKeys = []string{
	recipe.KeyAssembler,
	recipe.KeyC,
	recipe.KeyCpp,
	recipe.KeyArchiver,
	properties.KeyCorePath,
}

// Load reads the installed platform selected by the configuration and
// resolves it. The logger is taken from ctx.
func Load(ctx context.Context, opts Options) (*Context, error) {
	log := ctxlog.FromContext(ctx)
	cfg := opts.Config
	if cfg == nil {
		return nil, errors.Config("no downstream configuration")
	}

	id, err := board.Parse(cfg.FQBN)
	if err != nil {
		return nil, err
	}

	c := &Context{
		Config:  cfg,
		DataDir: firstNonEmpty(opts.DataDir, cfg.DataDir),
		UserDir: firstNonEmpty(opts.UserDir, cfg.UserDir),
	}
	if !opts.KeepDebugFlags {
		c.builder.Drop = recipe.DefaultDropped
	}

	platformVersion := cfg.PlatformVersion
	if platformVersion == "" {
		platformVersion, err = DetectPlatformVersion(c.DataDir, id)
		if err != nil {
			return nil, err
		}
	}
	c.Board = id.WithPlatformVersion(platformVersion)
	log.Debug("platform selected", "fqbn", c.Board.FQBN(), "version", platformVersion)

	platformDir := filepath.Join(c.DataDir, c.Board.HardwareDir())
	platformRaw, err := readPropertyFile(filepath.Join(platformDir, PlatformFile))
	if err != nil {
		return nil, err
	}
	boardsRaw, err := readPropertyFile(filepath.Join(platformDir, BoardsFile))
	if err != nil {
		return nil, err
	}
	boardRaw := properties.SelectBoard(boardsRaw, c.Board.BoardID)
	if strings.TrimSpace(boardRaw) == "" {
		return nil, &errors.Error{
			Kind:    errors.KindInvalidBoard,
			Message: fmt.Sprintf("board %q is not defined in %s", c.Board.BoardID, filepath.Join(platformDir, BoardsFile)),
		}
	}

	resolved, pending, err := properties.Merge(platformRaw, boardRaw, properties.Env{Board: c.Board, DataRoot: c.DataDir})
	if err != nil {
		return nil, err
	}

	index, err := pkgindex.Load(c.DataDir, c.Board.Arch)
	if err != nil {
		return nil, &errors.Error{Kind: errors.KindEnvironment, Message: "loading package index", Cause: err}
	}

	resolver := resolve.Resolver{
		Tools:    pkgindex.Locator{Index: index, Board: c.Board, DataRoot: c.DataDir},
		Deferred: recipe.CallerSupplied,
		Logger:   log,
	}
	c.Properties, c.Pending, err = resolver.Run(resolved, pending)
	if err != nil {
		return nil, err
	}
	if err := c.checkLeftovers(); err != nil {
		return nil, err
	}

	c.Recipes, err = recipe.BuildSet(c.Raw(), c.Properties, recipe.Options{
		Builder: c.builder,
		Extra: map[string][]string{
			recipe.KeyC:         cfg.CompileFlags.C,
			recipe.KeyCpp:       cfg.CompileFlags.Cpp,
			recipe.KeyAssembler: cfg.CompileFlags.Asm,
		},
		CoreFlags: cfg.CompileFlags.ForCore,
	})
	if err != nil {
		return nil, err
	}

	c.ExternalLibraries = c.resolveExternalLibraries()
	for _, w := range c.Warnings {
		log.Warn(w)
	}
	return c, nil
}

// checkLeftovers fails for required keys that did not resolve and records
// a warning for every other leftover.
func (c *Context) checkLeftovers() error {
	required := make(map[string]bool, len(requiredKeys))
	for _, k := range requiredKeys {
		required[k] = true
	}

	var errs []error
	for _, l := range resolve.Leftovers(c.Pending, recipe.CallerSupplied) {
		if !required[l.Key] {
			c.Warnings = append(c.Warnings, fmt.Sprintf("%s left unresolved (missing %s)", l.Key, strings.Join(l.Missing, ", ")))
			continue
		}
		if tools := l.Tools(); len(tools) > 0 {
			errs = append(errs, &errors.Error{
				Kind:    errors.KindToolNotFound,
				Key:     l.Key,
				Message: "no installed tool matches",
				Names:   tools,
			})
			continue
		}
		errs = append(errs, errors.Unresolved(l.Key, l.Missing))
	}
	if len(errs) == 0 {
		return nil
	}
	return stderrors.Join(errs...)
}

// Raw returns the finished properties together with the pending ones, which
// is where recipe strings are looked up.
func (c *Context) Raw() properties.Map {
	raw := c.Properties.Clone()
	for k, v := range c.Pending {
		raw[k] = v
	}
	return raw
}

// Property returns a finished property.
func (c *Context) Property(key string) (string, bool) {
	v, ok := c.Properties[key]
	return v, ok
}

// Hooks builds the hook patterns of stage.
func (c *Context) Hooks(stage string, vars recipe.HookVars) ([]recipe.Hook, error) {
	return c.builder.Hooks(c.Raw(), c.Properties, stage, vars)
}

// Link returns the link directives of the combine recipe. ok is false when
// the platform has no combine recipe.
func (c *Context) Link() (d recipe.LinkDirectives, ok bool, err error) {
	raw, found := c.Raw()[recipe.KeyCombine]
	if !found {
		return recipe.LinkDirectives{}, false, nil
	}
	p, err := c.builder.BuildKey(recipe.KeyCombine, raw, c.Properties, nil)
	if err != nil {
		return recipe.LinkDirectives{}, false, err
	}
	return recipe.Link(p), true, nil
}

// CoreIncludeDirs lists the core dir, the variant dir and every library
// bundled with the platform (its src dir when present).
func (c *Context) CoreIncludeDirs() ([]string, error) {
	var dirs []string
	for _, key := range []string{properties.KeyCorePath, properties.KeyVariantPath} {
		if p, ok := c.Properties[key]; ok {
			dirs = append(dirs, p)
		}
	}

	libs, err := fsutil.SubDirs(filepath.Join(c.Properties[properties.KeyPlatformPath], "libraries"))
	if err != nil {
		return nil, err
	}
	for _, lib := range libs {
		dirs = append(dirs, fsutil.PreferSrc(lib))
	}
	return dirs, nil
}

func (c *Context) resolveExternalLibraries() []string {
	root := filepath.Join(c.UserDir, "libraries")
	var dirs []string
	for _, name := range c.Config.ExternalLibraries {
		dir := fsutil.PreferSrc(filepath.Join(root, name))
		if !fsutil.IsDir(dir) {
			c.Warnings = append(c.Warnings, fmt.Sprintf("external library %q not found in %s", name, root))
			continue
		}
		dirs = append(dirs, dir)
	}
	return dirs
}

// ArchiveDir is where compiled core archives of this board are kept:
// arduino-lib/<packager>/<arch>/<version>/cores/<core>/<board>/<variant>
// below the configured archive root.
func (c *Context) ArchiveDir() (string, error) {
	var missing []string
	get := func(key string) string {
		v, ok := c.Properties[key]
		if !ok || v == "" {
			missing = append(missing, key)
		}
		return v
	}
	core := get(properties.KeyCore)
	variant := get(properties.KeyVariant)
	if len(missing) > 0 {
		return "", errors.Unresolved("archive dir", missing)
	}

	platformVersion := c.Properties["version"]
	if platformVersion == "" {
		platformVersion = c.Board.PlatformVersion
	}
	return filepath.Join(c.Config.ArchiveRoot, "arduino-lib",
		c.Board.Packager, c.Board.Arch, platformVersion,
		"cores", core, c.Board.BoardID, variant), nil
}

// DetectPlatformVersion returns the newest installed version of the board's
// platform below dataDir.
func DetectPlatformVersion(dataDir string, id board.Identifier) (string, error) {
	archDir := filepath.Join(dataDir, id.ArchitecturesDir())
	dirs, err := fsutil.SubDirs(archDir)
	if err != nil {
		return "", errors.Environmentf("reading %s: %v", archDir, err)
	}
	versions := make([]string, 0, len(dirs))
	for _, d := range dirs {
		versions = append(versions, filepath.Base(d))
	}
	if len(versions) == 0 {
		return "", errors.Environmentf("platform %s:%s is not installed in %s", id.Packager, id.Arch, dataDir)
	}
	return version.Highest(versions), nil
}

func readPropertyFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", errors.MissingFile(path, err)
	}
	return string(data), nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
