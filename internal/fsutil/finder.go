// Package fsutil provides file system utility functions.
package fsutil

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// FindFilesByExtension recursively searches the given root path for all files ending
// with one of the given extensions. It returns a slice of their full paths in
// walk order.
func FindFilesByExtension(rootPath string, extensions ...string) ([]string, error) {
	if len(extensions) == 0 {
		panic("at least one extension is required")
	}

	var files []string
	err := filepath.WalkDir(rootPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		for _, ext := range extensions {
			if strings.HasSuffix(d.Name(), ext) {
				files = append(files, path)
				break
			}
		}
		return nil
	})

	if err != nil {
		return nil, err
	}

	return files, nil
}

// HeaderExtensions are the suffixes FindHeaders collects.
var HeaderExtensions = []string{".h", ".hpp", ".hh"}

// FindHeaders collects the headers below every dir. Missing dirs are skipped.
// The result is sorted and free of duplicates.
func FindHeaders(dirs []string) ([]string, error) {
	seen := make(map[string]bool)
	var headers []string
	for _, dir := range dirs {
		if !IsDir(dir) {
			continue
		}
		found, err := FindFilesByExtension(dir, HeaderExtensions...)
		if err != nil {
			return nil, err
		}
		for _, f := range found {
			if !seen[f] {
				seen[f] = true
				headers = append(headers, f)
			}
		}
	}
	sort.Strings(headers)
	return headers, nil
}

// IsDir reports whether path exists and is a directory.
func IsDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// SubDirs returns the directories directly inside dir, sorted by name.
// A missing dir yields no entries.
func SubDirs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var dirs []string
	for _, e := range entries {
		if e.IsDir() {
			dirs = append(dirs, filepath.Join(dir, e.Name()))
		}
	}
	return dirs, nil
}

// PreferSrc returns dir/src when it exists, otherwise dir.
func PreferSrc(dir string) string {
	if src := filepath.Join(dir, "src"); IsDir(src) {
		return src
	}
	return dir
}
