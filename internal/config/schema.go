// Package config loads the downstream configuration that selects a board and
// adds project flags and libraries.
package config

// Downstream is the arduino-sdk.yaml (or .json) document.
type Downstream struct {
	Schema            string       `json:"$schema,omitempty"`
	FQBN              string       `json:"fqbn"`
	CompileFlags      CompileFlags `json:"compile_flags,omitempty"`
	ExternalLibraries []string     `json:"external_libraries,omitempty"`
	DataDir           string       `json:"data_dir,omitempty"`
	UserDir           string       `json:"user_dir,omitempty"`
	PlatformVersion   string       `json:"platform_version,omitempty"`
	ArchiveRoot       string       `json:"archive_root,omitempty"`

	// Path is the file the document was read from. Not part of the document.
	Path string `json:"-"`
}

// CompileFlags are extra flags appended to the matching recipes. ForCore
// flags apply only when compiling the platform core.
type CompileFlags struct {
	C       []string `json:"c,omitempty"`
	Cpp     []string `json:"cpp,omitempty"`
	Asm     []string `json:"asm,omitempty"`
	ForCore []string `json:"for_core,omitempty"`
}
