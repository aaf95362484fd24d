package config

import (
	"path/filepath"
	"strings"
)

// Default directories, relative to the user's home.
const (
	DefaultDataDir = ".arduino15"
	DefaultUserDir = "Arduino"
)

// applyDefaults fills in unset directories and makes relative ones absolute
// against baseDir, the directory holding the configuration file.
func applyDefaults(cfg *Downstream, baseDir, home string) {
	if cfg.DataDir == "" {
		cfg.DataDir = filepath.Join(home, DefaultDataDir)
	}
	if cfg.UserDir == "" {
		cfg.UserDir = filepath.Join(home, DefaultUserDir)
	}
	if cfg.ArchiveRoot == "" {
		cfg.ArchiveRoot = baseDir
	}

	cfg.DataDir = expandPath(cfg.DataDir, baseDir, home)
	cfg.UserDir = expandPath(cfg.UserDir, baseDir, home)
	cfg.ArchiveRoot = expandPath(cfg.ArchiveRoot, baseDir, home)

	cfg.CompileFlags.C = trimAll(cfg.CompileFlags.C)
	cfg.CompileFlags.Cpp = trimAll(cfg.CompileFlags.Cpp)
	cfg.CompileFlags.Asm = trimAll(cfg.CompileFlags.Asm)
	cfg.CompileFlags.ForCore = trimAll(cfg.CompileFlags.ForCore)
	cfg.ExternalLibraries = trimAll(cfg.ExternalLibraries)
}

func expandPath(p, baseDir, home string) string {
	if p == "~" {
		return home
	}
	if rest, ok := strings.CutPrefix(p, "~/"); ok {
		return filepath.Join(home, rest)
	}
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(baseDir, p)
}

// trimAll trims every entry and drops the empty ones.
func trimAll(values []string) []string {
	if values == nil {
		return nil
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
