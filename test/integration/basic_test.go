// Package integration contains integration tests for boardrecipe.
package integration

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/AndreyAkinshin/boardrecipe/internal/buildctx"
	"github.com/AndreyAkinshin/boardrecipe/internal/config"
	"github.com/AndreyAkinshin/boardrecipe/internal/errors"
	"github.com/AndreyAkinshin/boardrecipe/internal/recipe"
)

var (
	fixturesDirOnce sync.Once
	fixturesDirPath string
)

// fixturesDir returns the path to the test fixtures directory.
// The result is cached since runtime.Caller is relatively expensive.
func fixturesDir() string {
	fixturesDirOnce.Do(func() {
		_, filename, _, _ := runtime.Caller(0)
		fixturesDirPath = filepath.Join(filepath.Dir(filename), "..", "fixtures")
	})
	return fixturesDirPath
}

func loadFixture(t *testing.T, path string) (*buildctx.Context, error) {
	t.Helper()
	cfg, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("failed to load %s: %v", path, err)
	}
	return buildctx.Load(context.Background(), buildctx.Options{Config: cfg})
}

// writeConfig writes a configuration outside the fixture tree that points at
// the fixture data directory.
func writeConfig(t *testing.T, fqbn string) string {
	t.Helper()
	dir := t.TempDir()
	content := "fqbn: " + fqbn + "\n" +
		"data_dir: " + filepath.Join(fixturesDir(), "arduino15") + "\n" +
		"user_dir: " + filepath.Join(fixturesDir(), "Arduino") + "\n"
	path := filepath.Join(dir, "arduino-sdk.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestUnoProject(t *testing.T) {
	t.Parallel()
	projectDir := filepath.Join(fixturesDir(), "project")

	c, err := loadFixture(t, filepath.Join(projectDir, "arduino-sdk.yaml"))
	if err != nil {
		t.Fatalf("failed to load uno project: %v", err)
	}

	if got := c.Board.PlatformVersion; got != "1.8.6" {
		t.Errorf("platform version = %q, want %q", got, "1.8.6")
	}
	if got := c.Properties["build.arch"]; got != "AVR" {
		t.Errorf("build.arch = %q, want %q", got, "AVR")
	}

	cpp := c.Recipes.Cpp
	if cpp == nil {
		t.Fatal("C++ recipe is missing")
	}
	if !strings.HasSuffix(cpp.Cmd, "/bin/avr-g++") {
		t.Errorf("cpp cmd = %q, want the avr-g++ of the installed toolchain", cpp.Cmd)
	}
	for _, want := range []string{"-mmcu=atmega328p", "-DF_CPU=16000000L", "-DARDUINO_AVR_UNO", "-DPROJECT_CPP"} {
		if !slices.Contains(cpp.Flags, want) {
			t.Errorf("cpp flags %v missing %q", cpp.Flags, want)
		}
	}
	for _, dropped := range []string{"-g", "-flto"} {
		if slices.Contains(cpp.Flags, dropped) {
			t.Errorf("cpp flags %v should not contain %q", cpp.Flags, dropped)
		}
	}
	if slices.Contains(c.Recipes.C.Flags, "-DPROJECT_CPP") {
		t.Errorf("C flags %v should not carry C++ extras", c.Recipes.C.Flags)
	}

	core := c.Recipes.CoreDedicated
	if core == nil || !slices.Equal(core.Flags, []string{"-DCORE_ONLY"}) {
		t.Errorf("core dedicated = %+v, want flags [-DCORE_ONLY]", core)
	}

	servo := filepath.Join(fixturesDir(), "Arduino", "libraries", "Servo", "src")
	if !slices.Equal(c.ExternalLibraries, []string{servo}) {
		t.Errorf("external libraries = %v, want [%s]", c.ExternalLibraries, servo)
	}

	dir, err := c.ArchiveDir()
	if err != nil {
		t.Fatalf("ArchiveDir() error = %v", err)
	}
	want := filepath.Join(projectDir, "arduino-lib", "arduino", "avr", "1.8.6", "cores", "arduino", "uno", "standard")
	if dir != want {
		t.Errorf("ArchiveDir() = %q, want %q", dir, want)
	}
}

func TestUnoIncludeDirs(t *testing.T) {
	t.Parallel()
	c, err := loadFixture(t, filepath.Join(fixturesDir(), "project", "arduino-sdk.yaml"))
	if err != nil {
		t.Fatal(err)
	}

	dirs, err := c.CoreIncludeDirs()
	if err != nil {
		t.Fatalf("CoreIncludeDirs() error = %v", err)
	}
	platform := filepath.Join(fixturesDir(), "arduino15", "packages", "arduino", "hardware", "avr", "1.8.6")
	want := []string{
		filepath.Join(platform, "cores", "arduino"),
		filepath.Join(platform, "variants", "standard"),
		filepath.Join(platform, "libraries", "SPI"),
		filepath.Join(platform, "libraries", "Wire", "src"),
	}
	if !slices.Equal(dirs, want) {
		t.Errorf("CoreIncludeDirs() =\n%v\nwant\n%v", dirs, want)
	}
}

func TestUnoHooks(t *testing.T) {
	t.Parallel()
	c, err := loadFixture(t, filepath.Join(fixturesDir(), "project", "arduino-sdk.yaml"))
	if err != nil {
		t.Fatal(err)
	}

	hooks, err := c.Hooks("prebuild", recipe.HookVars{ProjectName: "blink", BuildPath: "/tmp/build"})
	if err != nil {
		t.Fatalf("Hooks() error = %v", err)
	}
	if len(hooks) != 2 {
		t.Fatalf("got %d hooks, want 2", len(hooks))
	}
	if got := hooks[0].Pattern.String(); got != "echo prebuild blink" {
		t.Errorf("hook 1 = %q", got)
	}
	if got := hooks[1].Pattern.String(); got != "mkdir -p /tmp/build/core" {
		t.Errorf("hook 2 = %q", got)
	}
}

func TestLeonardoQuotedDefines(t *testing.T) {
	t.Parallel()
	c, err := loadFixture(t, writeConfig(t, "arduino:avr:leonardo"))
	if err != nil {
		t.Fatalf("failed to load leonardo: %v", err)
	}

	flags := c.Recipes.Cpp.Flags
	for _, want := range []string{
		"-DUSB_VID=0x2341",
		"-DUSB_PID=0x8036",
		`-DUSB_MANUFACTURER="Unknown"`,
		`-DUSB_PRODUCT="Arduino Leonardo"`,
	} {
		if !slices.Contains(flags, want) {
			t.Errorf("cpp flags %v missing %q", flags, want)
		}
	}
	if got := c.Properties["build.variant.path"]; !strings.HasSuffix(got, filepath.Join("variants", "leonardo")) {
		t.Errorf("build.variant.path = %q", got)
	}
}

func TestMegaNeedsMenuSelection(t *testing.T) {
	t.Parallel()
	_, err := loadFixture(t, writeConfig(t, "arduino:avr:mega"))
	if err == nil {
		t.Fatal("expected an error for a board whose mcu is only set by a menu")
	}
	if !stderrors.Is(err, errors.ErrUnresolvedPlaceholder) {
		t.Errorf("error = %v, want ErrUnresolvedPlaceholder", err)
	}
	if !strings.Contains(err.Error(), "build.mcu") {
		t.Errorf("error %q should name build.mcu", err)
	}
}
