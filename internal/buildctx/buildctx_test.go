package buildctx

import (
	"bytes"
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AndreyAkinshin/boardrecipe/internal/board"
	"github.com/AndreyAkinshin/boardrecipe/internal/config"
	"github.com/AndreyAkinshin/boardrecipe/internal/ctxlog"
	"github.com/AndreyAkinshin/boardrecipe/internal/errors"
	"github.com/AndreyAkinshin/boardrecipe/internal/recipe"
	"github.com/AndreyAkinshin/boardrecipe/internal/testing/mocks"
)

type env struct {
	data string
	user string
	cfg  *config.Downstream
}

func install(t *testing.T, p *mocks.Platform) env {
	t.Helper()
	root := t.TempDir()
	e := env{
		data: filepath.Join(root, "arduino15"),
		user: filepath.Join(root, "Arduino"),
	}
	p.Install(t, e.data)
	e.cfg = &config.Downstream{
		FQBN:        "arduino:avr:uno",
		DataDir:     e.data,
		UserDir:     e.user,
		ArchiveRoot: filepath.Join(root, "out"),
	}
	return e
}

func load(t *testing.T, e env) *Context {
	t.Helper()
	c, err := Load(context.Background(), Options{Config: e.cfg})
	require.NoError(t, err)
	return c
}

func TestLoad_Uno(t *testing.T) {
	t.Parallel()
	e := install(t, mocks.NewPlatform("arduino", "avr", "1.8.6"))
	c := load(t, e)

	assert.Equal(t, "1.8.6", c.Board.PlatformVersion)
	assert.Equal(t, "AVR", c.Properties["build.arch"])
	assert.Equal(t, "Arduino Uno", c.Properties["name"], "board layer overrides platform")
	assert.NotContains(t, c.Properties, "mega.name")

	platformDir := filepath.Join(e.data, "packages", "arduino", "hardware", "avr", "1.8.6")
	assert.Equal(t, platformDir+"/cores/arduino", c.Properties["build.core.path"])
	assert.Equal(t, platformDir+"/variants/standard", c.Properties["build.variant.path"])

	gcc := mocks.ToolPath(e.data, "arduino", "avr-gcc")
	assert.Equal(t, gcc, c.Properties["runtime.tools.avr-gcc.path"])

	require.NotNil(t, c.Recipes.C)
	assert.Equal(t, gcc+"/bin/avr-gcc", c.Recipes.C.Cmd)
	assert.Subset(t, c.Recipes.C.Flags, []string{
		"-c", "-Os", "-w", "-std=gnu11",
		"-mmcu=atmega328p", "-DF_CPU=16000000L", "-DARDUINO=10607",
		"-DARDUINO_AVR_UNO", "-DARDUINO_ARCH_AVR",
	})
	assert.NotContains(t, c.Recipes.C.Flags, "-g")
	assert.NotContains(t, c.Recipes.C.Flags, "-flto")
	assert.Empty(t, c.Recipes.C.IncDirs)

	require.NotNil(t, c.Recipes.Cpp)
	assert.Equal(t, gcc+"/bin/avr-g++", c.Recipes.Cpp.Cmd)
	require.NotNil(t, c.Recipes.Assembler)
	assert.Contains(t, c.Recipes.Assembler.Flags, "assembler-with-cpp")

	require.NotNil(t, c.Recipes.Archiver)
	assert.Equal(t, gcc+"/bin/avr-gcc-ar", c.Recipes.Archiver.Cmd)
	assert.Equal(t, []string{"rcs"}, c.Recipes.Archiver.Flags)
	assert.Nil(t, c.Recipes.CoreDedicated)

	// The upload recipe needs a serial port, which no property file has.
	require.NotEmpty(t, c.Warnings)
	assert.Contains(t, strings.Join(c.Warnings, "\n"), "tools.avrdude.upload.pattern")
}

func TestLoad_RecipePatternsKeepNoPerFilePlaceholders(t *testing.T) {
	t.Parallel()
	c := load(t, install(t, mocks.NewPlatform("arduino", "avr", "1.8.6")))

	for _, entry := range c.Recipes.Entries() {
		require.NotNil(t, entry.Pattern, entry.Key)
		for _, f := range entry.Pattern.Flags {
			assert.NotContains(t, f, "{", "%s flag %q", entry.Key, f)
			assert.False(t, strings.HasPrefix(f, "-I"), "%s flag %q", entry.Key, f)
		}
	}
}

func TestLoad_KeepDebugFlags(t *testing.T) {
	t.Parallel()
	e := install(t, mocks.NewPlatform("arduino", "avr", "1.8.6"))

	c, err := Load(context.Background(), Options{Config: e.cfg, KeepDebugFlags: true})
	require.NoError(t, err)
	assert.Contains(t, c.Recipes.C.Flags, "-g")
	assert.Contains(t, c.Recipes.C.Flags, "-flto")
}

func TestLoad_CompileFlags(t *testing.T) {
	t.Parallel()
	e := install(t, mocks.NewPlatform("arduino", "avr", "1.8.6"))
	e.cfg.CompileFlags = config.CompileFlags{
		C:       []string{"-DEXTRA_C", "-I/opt/include"},
		Cpp:     []string{"-DEXTRA_CPP"},
		ForCore: []string{"-DCORE_ONLY", "-I/opt/core"},
	}
	c := load(t, e)

	assert.Contains(t, c.Recipes.C.Flags, "-DEXTRA_C")
	assert.Equal(t, []string{"/opt/include"}, c.Recipes.C.IncDirs)
	assert.Contains(t, c.Recipes.Cpp.Flags, "-DEXTRA_CPP")
	assert.NotContains(t, c.Recipes.Assembler.Flags, "-DEXTRA_C")

	require.NotNil(t, c.Recipes.CoreDedicated)
	assert.Equal(t, []string{"-DCORE_ONLY"}, c.Recipes.CoreDedicated.Flags)
	assert.Equal(t, []string{"/opt/core"}, c.Recipes.CoreDedicated.IncDirs)
}

func TestLoad_DirectoryOverrides(t *testing.T) {
	t.Parallel()
	e := install(t, mocks.NewPlatform("arduino", "avr", "1.8.6"))
	data := e.cfg.DataDir
	e.cfg.DataDir = "/nonexistent"

	c, err := Load(context.Background(), Options{Config: e.cfg, DataDir: data})
	require.NoError(t, err)
	assert.Equal(t, data, c.DataDir)
}

func TestLoad_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		platform *mocks.Platform
		modify   func(cfg *config.Downstream)
		sentinel error
		exitCode int
	}{
		{
			name:     "short fqbn",
			platform: mocks.NewPlatform("arduino", "avr", "1.8.6"),
			modify:   func(cfg *config.Downstream) { cfg.FQBN = "arduino:avr" },
			sentinel: errors.ErrInvalidBoardIdentifier,
			exitCode: errors.ExitConfigError,
		},
		{
			name:     "board not defined",
			platform: mocks.NewPlatform("arduino", "avr", "1.8.6"),
			modify:   func(cfg *config.Downstream) { cfg.FQBN = "arduino:avr:nano" },
			sentinel: errors.ErrInvalidBoardIdentifier,
			exitCode: errors.ExitConfigError,
		},
		{
			name:     "platform version not installed",
			platform: mocks.NewPlatform("arduino", "avr", "1.8.6"),
			modify:   func(cfg *config.Downstream) { cfg.PlatformVersion = "1.8.5" },
			sentinel: errors.ErrMissingPropertyFile,
			exitCode: errors.ExitEnvironmentError,
		},
		{
			name:     "platform not installed",
			platform: mocks.NewPlatform("arduino", "avr", "1.8.6"),
			modify:   func(cfg *config.Downstream) { cfg.FQBN = "arduino:samd:zero" },
			exitCode: errors.ExitEnvironmentError,
		},
		{
			name:     "no package index",
			platform: mocks.NewPlatform("arduino", "avr", "1.8.6").WithoutIndex(),
			exitCode: errors.ExitEnvironmentError,
		},
		{
			name:     "empty recipe",
			platform: mocks.NewPlatform("arduino", "avr", "1.8.6").WithPlatformTxt(mocks.AVRPlatformTxt + "recipe.ar.pattern=\n"),
			sentinel: errors.ErrEmptyRecipe,
			exitCode: errors.ExitConfigError,
		},
		{
			name: "required recipe unresolved",
			platform: mocks.NewPlatform("arduino", "avr", "1.8.6").WithPlatformTxt(
				strings.Replace(mocks.AVRPlatformTxt, "{compiler.c.flags}", "{compiler.c.flags} {compiler.undefined}", 1)),
			sentinel: errors.ErrUnresolvedPlaceholder,
			exitCode: errors.ExitConfigError,
		},
		{
			name: "required tool missing",
			platform: mocks.NewPlatform("arduino", "avr", "1.8.6").WithPlatformTxt(
				mocks.AVRPlatformTxt + "recipe.ar.pattern={runtime.tools.ghost.path}/bin/ar rcs \"{archive_file_path}\"\n"),
			sentinel: errors.ErrToolPathNotFound,
			exitCode: errors.ExitEnvironmentError,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			e := install(t, tt.platform)
			if tt.modify != nil {
				tt.modify(e.cfg)
			}

			_, err := Load(context.Background(), Options{Config: e.cfg})
			require.Error(t, err)
			if tt.sentinel != nil {
				assert.ErrorIs(t, err, tt.sentinel)
			}
			assert.Equal(t, tt.exitCode, errors.GetExitCode(err))
		})
	}
}

func TestLoad_NilConfig(t *testing.T) {
	t.Parallel()
	_, err := Load(context.Background(), Options{})
	assert.ErrorIs(t, err, errors.ErrConfig)
}

func TestLoad_ToolErrorNamesKey(t *testing.T) {
	t.Parallel()
	e := install(t, mocks.NewPlatform("arduino", "avr", "1.8.6").WithPlatformTxt(
		mocks.AVRPlatformTxt+"recipe.ar.pattern={runtime.tools.ghost.path}/bin/ar rcs\n"))

	_, err := Load(context.Background(), Options{Config: e.cfg})
	var be *errors.Error
	require.True(t, stderrors.As(err, &be))
	assert.Equal(t, recipe.KeyArchiver, be.Key)
	assert.Equal(t, []string{"ghost"}, be.Names)
}

func TestLoad_LogsWarnings(t *testing.T) {
	t.Parallel()
	e := install(t, mocks.NewPlatform("arduino", "avr", "1.8.6"))

	var buf bytes.Buffer
	ctx := ctxlog.WithLogger(context.Background(), ctxlog.New(&buf, true))
	_, err := Load(ctx, Options{Config: e.cfg})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, "tools.avrdude.upload.pattern")
	assert.Contains(t, out, "platform selected")
}

func TestContext_Hooks(t *testing.T) {
	t.Parallel()
	c := load(t, install(t, mocks.NewPlatform("arduino", "avr", "1.8.6").WithPlatformTxt(
		mocks.AVRPlatformTxt+"recipe.hooks.prebuild.10.pattern=echo last\n")))

	hooks, err := c.Hooks("prebuild", recipe.HookVars{ProjectName: "blink"})
	require.NoError(t, err)
	require.Len(t, hooks, 3)

	steps := []string{hooks[0].Step, hooks[1].Step, hooks[2].Step}
	assert.Equal(t, []string{"1", "2", "10"}, steps)
	assert.Equal(t, "bash", hooks[0].Pattern.Cmd)
	assert.Equal(t, "echo", hooks[1].Pattern.Cmd)
	assert.Equal(t, []string{"blink"}, hooks[1].Pattern.Flags)

	none, err := c.Hooks("postbuild", recipe.HookVars{})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestContext_Link(t *testing.T) {
	t.Parallel()

	t.Run("combine recipe", func(t *testing.T) {
		t.Parallel()
		text := strings.Replace(mocks.AVRPlatformTxt, " -lm\n", " -lm -L{runtime.platform.path}/lib -lprintf_flt\n", 1)
		e := install(t, mocks.NewPlatform("arduino", "avr", "1.8.6").WithPlatformTxt(text))
		c := load(t, e)

		d, ok, err := c.Link()
		require.NoError(t, err)
		require.True(t, ok)
		platformDir := filepath.Join(e.data, "packages", "arduino", "hardware", "avr", "1.8.6")
		assert.Equal(t, []string{platformDir + "/lib"}, d.SearchDirs)
		assert.Equal(t, []string{"printf_flt"}, d.Libs)
	})

	t.Run("no combine recipe", func(t *testing.T) {
		t.Parallel()
		var lines []string
		for _, l := range strings.Split(mocks.AVRPlatformTxt, "\n") {
			if !strings.HasPrefix(l, recipe.KeyCombine) {
				lines = append(lines, l)
			}
		}
		c := load(t, install(t, mocks.NewPlatform("arduino", "avr", "1.8.6").WithPlatformTxt(strings.Join(lines, "\n"))))

		_, ok, err := c.Link()
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestContext_IncludeDirs(t *testing.T) {
	t.Parallel()
	p := mocks.NewPlatform("arduino", "avr", "1.8.6").
		WithFile("packages/arduino/hardware/avr/1.8.6/libraries/Wire/src/Wire.h", "").
		WithFile("packages/arduino/hardware/avr/1.8.6/libraries/SPI/SPI.h", "")
	e := install(t, p)
	servo := mocks.Library(t, e.user, "Servo", "Servo.h", true)
	e.cfg.ExternalLibraries = []string{"Servo", "Missing"}

	c := load(t, e)

	platformDir := filepath.Join(e.data, p.Dir())
	dirs, err := c.CoreIncludeDirs()
	require.NoError(t, err)
	assert.Equal(t, []string{
		platformDir + "/cores/arduino",
		platformDir + "/variants/standard",
		filepath.Join(platformDir, "libraries", "SPI"),
		filepath.Join(platformDir, "libraries", "Wire", "src"),
	}, dirs)

	assert.Equal(t, []string{servo}, c.ExternalLibraries)
	assert.Contains(t, strings.Join(c.Warnings, "\n"), `external library "Missing" not found`)
}

func TestContext_ArchiveDir(t *testing.T) {
	t.Parallel()
	e := install(t, mocks.NewPlatform("arduino", "avr", "1.8.6"))
	c := load(t, e)

	dir, err := c.ArchiveDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(e.cfg.ArchiveRoot, "arduino-lib", "arduino", "avr", "1.8.6", "cores", "arduino", "uno", "standard"), dir)

	delete(c.Properties, "build.variant")
	_, err = c.ArchiveDir()
	assert.ErrorIs(t, err, errors.ErrUnresolvedPlaceholder)
}

func TestDetectPlatformVersion(t *testing.T) {
	t.Parallel()
	data := t.TempDir()
	id, err := board.Parse("arduino:avr:uno")
	require.NoError(t, err)

	for _, v := range []string{"1.8.6", "1.10.0", "1.9.2"} {
		require.NoError(t, os.MkdirAll(filepath.Join(data, "packages", "arduino", "hardware", "avr", v), 0o755))
	}

	got, err := DetectPlatformVersion(data, id)
	require.NoError(t, err)
	assert.Equal(t, "1.10.0", got)

	_, err = DetectPlatformVersion(t.TempDir(), id)
	require.Error(t, err)
	assert.Equal(t, errors.ExitEnvironmentError, errors.GetExitCode(err))
}
