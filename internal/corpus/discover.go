package corpus

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Document is one discovered corpus file.
type Document struct {
	// Path is the stable identifier: slash-separated and relative to the root
	// when the file lives under it.
	Path string
	// File is the OS path used for reading.
	File string
}

// Discover expands patterns against root and returns the matching regular files
// in lexicographic Path order. A file matched by several patterns appears once.
// Patterns support ** and may be absolute.
func Discover(root string, patterns []string) ([]Document, error) {
	seen := make(map[string]struct{})
	var out []Document

	for _, pattern := range patterns {
		if !doublestar.ValidatePattern(filepath.ToSlash(pattern)) {
			return nil, fmt.Errorf("invalid corpus pattern %q: %w", pattern, doublestar.ErrBadPattern)
		}
		files, err := globFiles(root, pattern)
		if err != nil {
			return nil, fmt.Errorf("cannot expand corpus pattern %q: %w", pattern, err)
		}
		for _, f := range files {
			id := identifier(root, f)
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, Document{Path: id, File: f})
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	if out == nil {
		out = []Document{}
	}
	return out, nil
}

func globFiles(root, pattern string) ([]string, error) {
	var matches []string
	if filepath.IsAbs(pattern) {
		m, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			return nil, err
		}
		matches = m
	} else {
		m, err := doublestar.Glob(os.DirFS(root), filepath.ToSlash(pattern))
		if err != nil {
			return nil, err
		}
		for _, rel := range m {
			matches = append(matches, filepath.Join(root, filepath.FromSlash(rel)))
		}
	}

	files := matches[:0]
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, err
		}
		if info.Mode().IsRegular() {
			files = append(files, m)
		}
	}
	return files, nil
}

func identifier(root, file string) string {
	rel, err := filepath.Rel(root, file)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return filepath.ToSlash(file)
	}
	return filepath.ToSlash(rel)
}

// BaseDirs returns the existing directories that hold the static prefix of each
// pattern, for watching. Duplicates are removed.
func BaseDirs(root string, patterns []string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, pattern := range patterns {
		base, _ := doublestar.SplitPattern(filepath.ToSlash(pattern))
		dir := filepath.FromSlash(base)
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(root, dir)
		}
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			continue
		}
		if _, dup := seen[dir]; dup {
			continue
		}
		seen[dir] = struct{}{}
		out = append(out, dir)
	}
	sort.Strings(out)
	return out
}

// WalkDirs returns dir and every directory below it.
func WalkDirs(dir string) ([]string, error) {
	var out []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			out = append(out, path)
		}
		return nil
	})
	return out, err
}
