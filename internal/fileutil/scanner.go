// Package fileutil finds configuration documents on disk.
package fileutil

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DocumentExtensions are the extensions of files the loader can parse.
var DocumentExtensions = []string{".yml", ".yaml", ".json", ".toml", ".hcl"}

// ScanOptions configures the directory scanning behavior
type ScanOptions struct {
	// Extensions is a list of file extensions to include (e.g. ".toml").
	// Empty means DocumentExtensions.
	Extensions []string
	// Recursive enables recursive directory scanning
	Recursive bool
	// ExcludeDirs is a list of directory names to skip, in addition to
	// hidden directories
	ExcludeDirs []string
}

// ScanResult contains the results of a directory scan
type ScanResult struct {
	// Files are the matched files joined onto the scanned directory, sorted
	Files []string
	// Errors contains entries that could not be read
	Errors []error
}

// ScanDirectory lists the documents in dir.
func ScanDirectory(dir string, opts ScanOptions) (*ScanResult, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to access directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("path is not a directory: %s", dir)
	}

	exts := opts.Extensions
	if len(exts) == 0 {
		exts = DocumentExtensions
	}
	extMap := make(map[string]bool, len(exts))
	for _, ext := range exts {
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		extMap[strings.ToLower(ext)] = true
	}
	excludeMap := make(map[string]bool, len(opts.ExcludeDirs))
	for _, name := range opts.ExcludeDirs {
		excludeMap[name] = true
	}

	result := &ScanResult{Files: []string{}}
	err = filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("error accessing %s: %w", path, err))
			return nil
		}
		if path == dir {
			return nil
		}

		if d.IsDir() {
			if !opts.Recursive || excludeMap[d.Name()] || strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}

		if strings.HasPrefix(d.Name(), ".") {
			return nil
		}
		if extMap[strings.ToLower(filepath.Ext(d.Name()))] {
			result.Files = append(result.Files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk directory: %w", err)
	}

	sort.Strings(result.Files)
	return result, nil
}

// ExpandPaths replaces every directory in paths by the documents it holds.
// Other paths are kept as given, including ones that do not exist, so the
// caller can report them. A file reached twice is listed once.
func ExpandPaths(paths []string, recursive bool) ([]string, error) {
	var out []string
	seen := make(map[string]bool)
	add := func(p string) {
		key := p
		if abs, err := filepath.Abs(p); err == nil {
			key = abs
		}
		if !seen[key] {
			seen[key] = true
			out = append(out, p)
		}
	}

	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil || !info.IsDir() {
			add(p)
			continue
		}

		result, err := ScanDirectory(p, ScanOptions{Recursive: recursive})
		if err != nil {
			return nil, err
		}
		if len(result.Errors) > 0 {
			return nil, result.Errors[0]
		}
		if len(result.Files) == 0 {
			return nil, fmt.Errorf("no configuration documents (%s) found in %s",
				strings.Join(DocumentExtensions, ", "), p)
		}
		for _, f := range result.Files {
			add(f)
		}
	}
	return out, nil
}
