// Package cli provides command-line interface functionality for boardrecipe.
package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/AndreyAkinshin/boardrecipe/internal/buildctx"
	"github.com/AndreyAkinshin/boardrecipe/internal/config"
	"github.com/AndreyAkinshin/boardrecipe/internal/ctxlog"
	"github.com/AndreyAkinshin/boardrecipe/internal/errors"
	"github.com/AndreyAkinshin/boardrecipe/internal/output"
)

// Version is set at build time.
var Version = "dev"

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Config         string
	DataDir        string
	UserDir        string
	Format         string
	Verbose        bool
	Quiet          bool
	KeepDebugFlags bool

	format output.Format
	out    *output.Writer
	getenv func(string) string
}

// Run executes the CLI with the given arguments and returns an exit code.
func Run(args []string) int {
	return execute(args, output.New(), os.Getenv)
}

func execute(args []string, out *output.Writer, getenv func(string) string) int {
	cmd := NewRootCommand(out, getenv)
	cmd.SetArgs(args)
	cmd.SetOut(out.Out())
	cmd.SetErr(out.Err())

	if err := cmd.Execute(); err != nil {
		out.ErrorPrefix("%v", err)
		return errors.GetExitCode(err)
	}
	return errors.ExitSuccess
}

// NewRootCommand creates the root command. getenv is consulted for the
// configuration path.
func NewRootCommand(out *output.Writer, getenv func(string) string) *cobra.Command {
	opts := &RootOptions{out: out, getenv: getenv}

	cmd := &cobra.Command{
		Use:   "boardrecipe",
		Short: "Resolve Arduino board properties into compiler invocations",
		Long: `boardrecipe reads the platform.txt and boards.txt of an installed Arduino
platform, resolves every property for the board selected in arduino-sdk.yaml
and prints the compile, archive and link recipes as structured commands.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return errors.Configf("unknown command %q for %q", args[0], cmd.CommandPath())
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			f, err := output.ParseFormat(opts.Format)
			if err != nil {
				return errors.Config(err.Error())
			}
			opts.format = f
			out.SetQuiet(opts.Quiet)
			return nil
		},
	}
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return errors.Config(err.Error())
	})

	flags := cmd.PersistentFlags()
	flags.StringVarP(&opts.Config, "config", "c", "", "path to arduino-sdk.yaml (default: $"+config.EnvConfig+" or search upwards)")
	flags.StringVar(&opts.DataDir, "data-dir", "", "Arduino data directory (overrides data_dir)")
	flags.StringVar(&opts.UserDir, "user-dir", "", "Arduino sketchbook directory (overrides user_dir)")
	flags.StringVar(&opts.Format, "format", string(output.FormatText), "output format (text|json)")
	flags.BoolVarP(&opts.Verbose, "verbose", "v", false, "log resolution details to stderr")
	flags.BoolVarP(&opts.Quiet, "quiet", "q", false, "suppress warnings")
	flags.BoolVar(&opts.KeepDebugFlags, "keep-debug-flags", false, "keep -g and -flto in recipes")
	cmd.MarkFlagsMutuallyExclusive("verbose", "quiet")

	cmd.AddCommand(newPropertiesCommand(opts))
	cmd.AddCommand(newRecipesCommand(opts))
	cmd.AddCommand(newHooksCommand(opts))
	cmd.AddCommand(newLinkCommand(opts))
	cmd.AddCommand(newBindgenCommand(opts))
	cmd.AddCommand(newArchiveDirCommand(opts))
	cmd.AddCommand(newValidateCommand(opts))
	cmd.AddCommand(newVersionCommand(opts))

	return cmd
}

func (o *RootOptions) logWriter() io.Writer {
	if o.Quiet {
		return io.Discard
	}
	return o.out.Err()
}

// loadConfig locates and reads the downstream configuration, printing its
// warnings.
func (o *RootOptions) loadConfig() (*config.Downstream, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, errors.Wrap(err, "cannot determine working directory")
	}
	path, err := config.Locate(o.Config, o.getenv, wd)
	if err != nil {
		return nil, errors.Config(err.Error())
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}

	cfg, warnings, err := config.Load(path)
	for _, w := range warnings {
		o.out.Warning("%s", w)
	}
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// load builds the context of the configured board.
func (o *RootOptions) load(ctx context.Context) (*buildctx.Context, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = ctxlog.WithLogger(ctx, ctxlog.New(o.logWriter(), o.Verbose))

	return buildctx.Load(ctx, buildctx.Options{
		Config:         cfg,
		DataDir:        o.DataDir,
		UserDir:        o.UserDir,
		KeepDebugFlags: o.KeepDebugFlags,
	})
}

func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) != n {
			return errors.Configf("%s: accepts %d arg(s), received %d", cmd.CommandPath(), n, len(args))
		}
		return nil
	}
}
