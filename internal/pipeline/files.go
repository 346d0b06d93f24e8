package pipeline

import (
	"path/filepath"
	"strings"
)

// displayPaths renders files relative to baseDir when they live under it.
// Duplicates keep their first position.
func displayPaths(files []string, baseDir string) []string {
	if len(files) == 0 {
		return files
	}
	normalized := make([]string, 0, len(files))

	base := strings.TrimSpace(baseDir)
	if base != "" {
		if abs, err := filepath.Abs(base); err == nil {
			base = abs
		}
	}

	for _, file := range files {
		path := filepath.Clean(file)
		if base != "" {
			if abs, err := filepath.Abs(path); err == nil {
				path = abs
			}
			if rel, err := filepath.Rel(base, path); err == nil && rel != "." && !strings.HasPrefix(rel, "..") {
				path = rel
			}
		}
		normalized = append(normalized, filepath.ToSlash(path))
	}
	return normalized
}

// dedupFiles drops empty and repeated paths, keeping order.
func dedupFiles(files []string) []string {
	seen := make(map[string]struct{}, len(files))
	out := make([]string, 0, len(files))
	for _, f := range files {
		if f == "" {
			continue
		}
		key := filepath.Clean(f)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, f)
	}
	return out
}

// DisplayNames returns the names Run reports progress under, in order.
func DisplayNames(files []string, baseDir string) []string {
	return displayPaths(dedupFiles(files), baseDir)
}
