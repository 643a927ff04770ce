// Package fsutil provides file system utility functions.
package fsutil

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

// FindFiles recursively searches rootPath for files accepted by match. It
// returns their full paths in lexical order.
func FindFiles(rootPath string, match func(path string) bool) ([]string, error) {
	if match == nil {
		panic("match must not be nil")
	}

	var files []string
	err := filepath.WalkDir(rootPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && match(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// Expand resolves each path to files: directories are searched with
// FindFiles, plain files are kept as given. Duplicates are dropped.
func Expand(paths []string, match func(path string) bool) ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("cannot access %s: %w", p, err)
		}
		if !info.IsDir() {
			add(p)
			continue
		}
		found, err := FindFiles(p, match)
		if err != nil {
			return nil, err
		}
		for _, f := range found {
			add(f)
		}
	}
	return out, nil
}
