package judge

import (
	"os"
	"path/filepath"
	"strings"
)

// readSafeCodeFile reads path's contents for AI-judge inspection, enforcing
// spec §4.7's path-safety rule: the canonical path must resolve (after
// symlinks) under cwd or under a system temporary-file root, and must be a
// regular file no larger than MaxExtractedCodeBytes.
func readSafeCodeFile(path, cwd string) (string, bool) {
	path = expandTilde(path)
	if path == "" {
		return "", false
	}

	cwdRoot, err := filepath.EvalSymlinks(cwd)
	if err != nil {
		return "", false
	}

	candidate := path
	if !filepath.IsAbs(candidate) {
		candidate = filepath.Join(cwdRoot, candidate)
	}
	resolved, err := filepath.EvalSymlinks(candidate)
	if err != nil {
		return "", false
	}

	if !isUnderRoot(resolved, cwdRoot) && !isUnderTempRoot(resolved) {
		return "", false
	}

	info, err := os.Stat(resolved)
	if err != nil || !info.Mode().IsRegular() || info.Size() > MaxExtractedCodeBytes {
		return "", false
	}
	data, err := os.ReadFile(resolved)
	if err != nil || len(data) > MaxExtractedCodeBytes {
		return "", false
	}
	return string(data), true
}

func isUnderRoot(path, root string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel == "." || !strings.HasPrefix(rel, "..")
}

func isUnderTempRoot(path string) bool {
	roots := []string{os.TempDir()}
	if tmpdir := os.Getenv("TMPDIR"); tmpdir != "" {
		roots = append(roots, tmpdir)
	}
	roots = append(roots, "/tmp")
	for _, r := range roots {
		resolved, err := filepath.EvalSymlinks(r)
		if err != nil {
			continue
		}
		if isUnderRoot(path, resolved) {
			return true
		}
	}
	return false
}

func expandTilde(path string) string {
	if path == "~" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		return home
	}
	if rest, ok := cutPrefix(path, "~/"); ok {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		return filepath.Join(home, rest)
	}
	return path
}
