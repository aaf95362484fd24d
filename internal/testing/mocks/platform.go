// Package mocks provides shared test fixtures for boardrecipe packages.
package mocks

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

// AVRPlatformTxt is a trimmed platform.txt of the Arduino AVR core.
const AVRPlatformTxt = `name=Arduino AVR Boards
version=1.8.6

compiler.warning_flags=-w
compiler.path={runtime.tools.avr-gcc.path}/bin/
compiler.c.cmd=avr-gcc
compiler.c.flags=-c -g -Os {compiler.warning_flags} -std=gnu11 -ffunction-sections -fdata-sections -MMD -flto -fno-fat-lto-objects
compiler.c.elf.flags={compiler.warning_flags} -Os -g -flto -fuse-linker-plugin -Wl,--gc-sections
compiler.c.elf.cmd=avr-gcc
compiler.S.flags=-c -g -x assembler-with-cpp -flto -MMD
compiler.cpp.cmd=avr-g++
compiler.cpp.flags=-c -g -Os {compiler.warning_flags} -std=gnu++11 -fpermissive -fno-exceptions -ffunction-sections -fdata-sections -fno-threadsafe-statics -Wno-error=narrowing -MMD -flto
compiler.ar.cmd=avr-gcc-ar
compiler.ar.flags=rcs
compiler.c.extra_flags=
compiler.cpp.extra_flags=
compiler.S.extra_flags=
compiler.ar.extra_flags=
compiler.c.elf.extra_flags=

build.extra_flags=

recipe.c.o.pattern="{compiler.path}{compiler.c.cmd}" {compiler.c.flags} -mmcu={build.mcu} -DF_CPU={build.f_cpu} -DARDUINO={runtime.ide.version} -DARDUINO_{build.board} -DARDUINO_ARCH_{build.arch} {compiler.c.extra_flags} {build.extra_flags} {includes} "{source_file}" -o "{object_file}"
recipe.cpp.o.pattern="{compiler.path}{compiler.cpp.cmd}" {compiler.cpp.flags} -mmcu={build.mcu} -DF_CPU={build.f_cpu} -DARDUINO={runtime.ide.version} -DARDUINO_{build.board} -DARDUINO_ARCH_{build.arch} {compiler.cpp.extra_flags} {build.extra_flags} {includes} "{source_file}" -o "{object_file}"
recipe.S.o.pattern="{compiler.path}{compiler.c.cmd}" {compiler.S.flags} -mmcu={build.mcu} -DF_CPU={build.f_cpu} -DARDUINO={runtime.ide.version} -DARDUINO_{build.board} -DARDUINO_ARCH_{build.arch} {compiler.S.extra_flags} {build.extra_flags} {includes} "{source_file}" -o "{object_file}"
recipe.ar.pattern="{compiler.path}{compiler.ar.cmd}" {compiler.ar.flags} {compiler.ar.extra_flags} "{archive_file_path}" "{object_file}"
recipe.c.combine.pattern="{compiler.path}{compiler.c.elf.cmd}" {compiler.c.elf.flags} -mmcu={build.mcu} {compiler.c.elf.extra_flags} -o "{build.path}/{build.project_name}.elf" {object_files} "{build.path}/{archive_file}" "-L{build.path}" -lm

recipe.hooks.prebuild.1.pattern=bash -c "[ ! -f {build.source.path}/config.h ] || cp {build.source.path}/config.h {build.path}/config.h"
recipe.hooks.prebuild.2.pattern=echo {build.project_name}

tools.avrdude.path={runtime.tools.avrdude.path}
tools.avrdude.upload.pattern="{path}/bin/avrdude" -p{build.mcu} -c{upload.protocol} -P{serial.port}
`

// UnoBoardsTxt defines the uno board and a second board that must not leak.
const UnoBoardsTxt = `menu.cpu=Processor

uno.name=Arduino Uno
uno.upload.tool=avrdude
uno.upload.protocol=arduino
uno.build.mcu=atmega328p
uno.build.f_cpu=16000000L
uno.build.board=AVR_UNO
uno.build.core=arduino
uno.build.variant=standard

mega.name=Arduino Mega
mega.build.mcu=atmega2560
mega.build.core=arduino
mega.build.variant=mega
mega.menu.cpu.atmega2560=ATmega2560
`

// Platform describes an installed platform written by Install.
type Platform struct {
	packager string
	arch     string
	version  string

	platformTxt string
	boardsTxt   string
	index       map[string]any
	files       map[string]string
}

// NewPlatform creates an AVR-like platform fixture.
func NewPlatform(packager, arch, version string) *Platform {
	return &Platform{
		packager:    packager,
		arch:        arch,
		version:     version,
		platformTxt: AVRPlatformTxt,
		boardsTxt:   UnoBoardsTxt,
		files:       make(map[string]string),
		index: map[string]any{
			"packages": []any{map[string]any{
				"name": packager,
				"platforms": []any{map[string]any{
					"architecture": arch,
					"version":      version,
					"toolsDependencies": []any{
						map[string]any{"packager": packager, "name": "avr-gcc", "version": "7.3.0-atmel3.6.1-arduino7"},
						map[string]any{"packager": packager, "name": "avrdude", "version": "6.3.0-arduino17"},
					},
				}},
			}},
		},
	}
}

// WithPlatformTxt replaces platform.txt.
func (p *Platform) WithPlatformTxt(text string) *Platform {
	p.platformTxt = text
	return p
}

// WithBoardsTxt replaces boards.txt.
func (p *Platform) WithBoardsTxt(text string) *Platform {
	p.boardsTxt = text
	return p
}

// WithoutIndex writes no package index.
func (p *Platform) WithoutIndex() *Platform {
	p.index = nil
	return p
}

// WithFile adds a file below the data root (for example a bundled library).
func (p *Platform) WithFile(rel, content string) *Platform {
	p.files[rel] = content
	return p
}

// Dir returns the platform directory relative to the data root.
func (p *Platform) Dir() string {
	return filepath.Join("packages", p.packager, "hardware", p.arch, p.version)
}

// Install writes the platform below dataDir and returns dataDir.
func (p *Platform) Install(t testing.TB, dataDir string) string {
	t.Helper()
	dir := filepath.Join(dataDir, p.Dir())
	WriteFile(t, filepath.Join(dir, "platform.txt"), p.platformTxt)
	WriteFile(t, filepath.Join(dir, "boards.txt"), p.boardsTxt)
	if p.index != nil {
		data, err := json.MarshalIndent(p.index, "", "  ")
		if err != nil {
			t.Fatalf("marshal index: %v", err)
		}
		WriteFile(t, filepath.Join(dataDir, "package_index.json"), string(data))
	}
	for rel, content := range p.files {
		WriteFile(t, filepath.Join(dataDir, filepath.FromSlash(rel)), content)
	}
	return dataDir
}

// WriteFile writes content to path, creating parent directories.
func WriteFile(t testing.TB, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// Library creates <userDir>/libraries/<name> with the given header. With
// src set, the header goes into the src subdirectory.
func Library(t testing.TB, userDir, name, header string, src bool) string {
	t.Helper()
	dir := filepath.Join(userDir, "libraries", name)
	if src {
		dir = filepath.Join(dir, "src")
	}
	WriteFile(t, filepath.Join(dir, header), "#pragma once\n")
	return dir
}

// ToolPath is the install path the fixture's index assigns to tool.
func ToolPath(dataDir, packager, tool string) string {
	versions := map[string]string{
		"avr-gcc": "7.3.0-atmel3.6.1-arduino7",
		"avrdude": "6.3.0-arduino17",
	}
	return filepath.Join(dataDir, "packages", packager, "tools", tool, versions[tool])
}
