// Package board parses fully qualified board names (FQBN).
package board

import (
	"path/filepath"
	"strings"

	boarderrors "github.com/AndreyAkinshin/boardrecipe/internal/errors"
)

// Identifier names one board of one installed platform.
// The zero value is not valid; use Parse.
type Identifier struct {
	Packager        string
	Arch            string
	BoardID         string
	PlatformVersion string
	// Options holds the raw segments after the board id (e.g. "cpu=atmega168").
	// They are kept for display and never influence property resolution.
	Options string
}

// Parse splits a colon-delimited FQBN into an Identifier.
// At least three segments are required; anything after the third colon is
// kept verbatim in Options.
func Parse(fqbn string) (Identifier, error) {
	parts := strings.SplitN(strings.TrimSpace(fqbn), ":", 4)
	if len(parts) < 3 {
		return Identifier{}, boarderrors.InvalidBoard(fqbn)
	}
	id := Identifier{
		Packager: parts[0],
		Arch:     parts[1],
		BoardID:  parts[2],
	}
	if len(parts) == 4 {
		id.Options = parts[3]
	}
	return id, nil
}

// WithPlatformVersion returns a copy of id bound to an installed platform version.
func (id Identifier) WithPlatformVersion(version string) Identifier {
	id.PlatformVersion = version
	return id
}

// FQBN reconstructs packager:arch:board.
func (id Identifier) FQBN() string {
	return id.Packager + ":" + id.Arch + ":" + id.BoardID
}

func (id Identifier) String() string {
	if id.Options == "" {
		return id.FQBN()
	}
	return id.FQBN() + ":" + id.Options
}

// HardwareDir is the platform directory relative to the data root:
// packages/<packager>/hardware/<arch>/<version>.
func (id Identifier) HardwareDir() string {
	return filepath.Join("packages", id.Packager, "hardware", id.Arch, id.PlatformVersion)
}

// ArchitecturesDir is the directory holding every installed version of the
// platform, relative to the data root.
func (id Identifier) ArchitecturesDir() string {
	return filepath.Join("packages", id.Packager, "hardware", id.Arch)
}
