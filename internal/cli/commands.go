package cli

import (
	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/AndreyAkinshin/boardrecipe/internal/bindgen"
	"github.com/AndreyAkinshin/boardrecipe/internal/errors"
	"github.com/AndreyAkinshin/boardrecipe/internal/output"
	"github.com/AndreyAkinshin/boardrecipe/internal/pkgindex"
	"github.com/AndreyAkinshin/boardrecipe/internal/properties"
	"github.com/AndreyAkinshin/boardrecipe/internal/recipe"
)

// report prints titled sections separated by blank lines.
type report struct {
	out      *output.Writer
	sections int
}

func (r *report) section(title string) {
	if r.sections > 0 {
		r.out.Println("")
	}
	r.sections++
	r.out.Section(cases.Title(language.English).String(title))
}

func (r *report) list(label string, items []string) {
	if len(items) == 0 {
		return
	}
	r.out.Println("  %s:", label)
	r.out.List(items)
}

func newPropertiesCommand(opts *RootOptions) *cobra.Command {
	var pending bool

	cmd := &cobra.Command{
		Use:   "properties [key...]",
		Short: "Print the resolved board properties",
		Long: `Print the finished property map of the configured board. With keys, print
only their values, one per line. With --pending, print the entries that
still hold placeholders instead.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.load(cmd.Context())
			if err != nil {
				return err
			}

			values := map[string]string(c.Properties)
			if pending {
				values = map[string]string(c.Pending)
			}
			if len(args) > 0 {
				selected := make(map[string]string, len(args))
				for _, key := range args {
					v, ok := values[key]
					if !ok {
						return &errors.Error{Kind: errors.KindUnresolved, Key: key, Message: "property is not defined"}
					}
					selected[key] = v
				}
				if opts.format == output.FormatJSON {
					return opts.out.JSON(selected)
				}
				for _, key := range args {
					opts.out.Println("%s", selected[key])
				}
				return nil
			}

			if opts.format == output.FormatJSON {
				return opts.out.JSON(values)
			}
			keys := properties.Map(values).Keys()
			rows := make([][]string, 0, len(keys))
			for _, k := range keys {
				rows = append(rows, []string{k, values[k]})
			}
			opts.out.Table([]string{"KEY", "VALUE"}, rows)
			return nil
		},
	}
	cmd.Flags().BoolVar(&pending, "pending", false, "show entries left with placeholders")
	return cmd
}

var recipeNames = map[string]string{
	recipe.KeyAssembler:     "assembler",
	recipe.KeyC:             "c",
	recipe.KeyCpp:           "c++",
	recipe.KeyArchiver:      "archiver",
	recipe.KeyCoreDedicated: "core dedicated",
}

func newRecipesCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "recipes",
		Short: "Print the assembler, compiler and archiver patterns",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := opts.load(cmd.Context())
			if err != nil {
				return err
			}
			if opts.format == output.FormatJSON {
				return opts.out.JSON(c.Recipes)
			}

			r := &report{out: opts.out}
			for _, e := range c.Recipes.Entries() {
				r.section(recipeNames[e.Key])
				if e.Key != recipe.KeyCoreDedicated {
					opts.out.KeyValue("key", e.Key)
				}
				writePattern(r, e.Pattern)
			}
			return nil
		},
	}
}

func writePattern(r *report, p *recipe.Pattern) {
	if p == nil {
		r.out.Println("  (not defined by the platform)")
		return
	}
	if p.Cmd != "" {
		r.out.KeyValue("cmd", p.Cmd)
	}
	r.list("flags", p.Flags)
	r.list("include dirs", p.IncDirs)
}

func newHooksCommand(opts *RootOptions) *cobra.Command {
	var vars recipe.HookVars

	cmd := &cobra.Command{
		Use:   "hooks <stage>",
		Short: "Print the hook commands of a build stage",
		Long: `Print the recipe.hooks.<stage>.<N>.pattern commands in step order, for
example "hooks prebuild" or "hooks linking.prelink".`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.load(cmd.Context())
			if err != nil {
				return err
			}
			hooks, err := c.Hooks(args[0], vars)
			if err != nil {
				return err
			}
			if opts.format == output.FormatJSON {
				return opts.out.JSON(hooks)
			}
			if len(hooks) == 0 {
				opts.out.Info("no hooks defined for stage %q", args[0])
				return nil
			}
			for _, h := range hooks {
				opts.out.Println("%s", h.Pattern.String())
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&vars.ProjectName, "project-name", "", "value of {build.project_name}")
	cmd.Flags().StringVar(&vars.SourcePath, "source-path", "", "value of {build.source.path}")
	cmd.Flags().StringVar(&vars.BuildPath, "build-path", "", "value of {build.path}")
	return cmd
}

func newLinkCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "link",
		Short: "Print the library search dirs and libraries of the link recipe",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := opts.load(cmd.Context())
			if err != nil {
				return err
			}
			d, ok, err := c.Link()
			if err != nil {
				return err
			}
			if !ok {
				opts.out.Warning("platform defines no %s", recipe.KeyCombine)
			}
			if opts.format == output.FormatJSON {
				return opts.out.JSON(d)
			}

			r := &report{out: opts.out}
			r.section("search dirs")
			opts.out.List(d.SearchDirs)
			r.section("libraries")
			opts.out.List(d.Libs)
			return nil
		},
	}
}

func newBindgenCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "bindgen",
		Short: "Print the inputs a binding generator needs for the board headers",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := opts.load(cmd.Context())
			if err != nil {
				return err
			}
			in, err := bindgen.Derive(c)
			if err != nil {
				return err
			}
			if opts.format == output.FormatJSON {
				return opts.out.JSON(in)
			}

			r := &report{out: opts.out}
			r.section("language")
			opts.out.List([]string{in.Language()})
			r.section("clang args")
			opts.out.List(in.ClangArgs)
			r.section("headers")
			opts.out.List(in.Headers)
			return nil
		},
	}
}

func newArchiveDirCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "archive-dir",
		Short: "Print where the compiled core archive of the board is kept",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := opts.load(cmd.Context())
			if err != nil {
				return err
			}
			dir, err := c.ArchiveDir()
			if err != nil {
				return err
			}
			if opts.format == output.FormatJSON {
				return opts.out.JSON(map[string]string{"archive_dir": dir})
			}
			opts.out.Println("%s", dir)
			return nil
		},
	}
}

// ValidationResult is the JSON form of the validate command.
type ValidationResult struct {
	Valid      bool     `json:"valid"`
	Config     string   `json:"config"`
	FQBN       string   `json:"fqbn"`
	IndexFiles []string `json:"index_files"`
}

func newValidateCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the configuration and the package indexes",
		Long: `Validate arduino-sdk.yaml and every package index in the data directory
against their schemas without resolving the board.`,
		Args: exactArgs(0),
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}

			dataDir := opts.DataDir
			if dataDir == "" {
				dataDir = cfg.DataDir
			}
			files, err := pkgindex.IndexFiles(dataDir)
			if err != nil {
				return &errors.Error{Kind: errors.KindEnvironment, Message: "loading package index", Cause: err}
			}
			for _, f := range files {
				if _, err := pkgindex.ReadFile(f); err != nil {
					return &errors.Error{Kind: errors.KindConfig, Message: "invalid package index", Cause: err}
				}
			}

			result := ValidationResult{Valid: true, Config: cfg.Path, FQBN: cfg.FQBN, IndexFiles: files}
			if opts.format == output.FormatJSON {
				return opts.out.JSON(result)
			}
			opts.out.Success("configuration is valid")
			opts.out.KeyValue("config", result.Config)
			opts.out.KeyValue("fqbn", result.FQBN)
			for _, f := range files {
				opts.out.KeyValue("index", f)
			}
			return nil
		},
	}
}

func newVersionCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  exactArgs(0),
		RunE: func(_ *cobra.Command, _ []string) error {
			if opts.format == output.FormatJSON {
				return opts.out.JSON(map[string]string{"version": Version})
			}
			opts.out.Println("boardrecipe %s", Version)
			return nil
		},
	}
}
