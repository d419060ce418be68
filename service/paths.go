package service

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
)

// resolveTargets turns caller supplied sub-paths into discovery scopes,
// slash-separated and relative to root. A nil slice means the whole project,
// the empty scope. Entries that are empty, absolute or that resolve outside
// root are rejected; entries that do not exist are dropped.
func resolveTargets(root string, subPaths []string) ([]string, error) {
	if subPaths == nil {
		return []string{""}, nil
	}
	if len(subPaths) == 0 {
		return nil, fmt.Errorf("%w: paths must not be an empty list", ErrBadRequest)
	}

	canonicalRoot, err := filepath.EvalSymlinks(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("resolving project root %s: %w", root, err)
	}

	var targets []string
	seen := make(map[string]bool, len(subPaths))
	for _, subPath := range subPaths {
		if strings.TrimSpace(subPath) == "" {
			return nil, fmt.Errorf("%w: empty path", ErrBadRequest)
		}
		if isAbsolute(subPath) {
			return nil, fmt.Errorf("%w: path %q must be relative to the project root", ErrBadRequest, subPath)
		}

		joined := filepath.Join(root, filepath.FromSlash(subPath))
		if !within(root, joined) {
			return nil, fmt.Errorf("%w: path %q escapes the project root", ErrBadRequest, subPath)
		}

		resolved, err := filepath.EvalSymlinks(joined)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("resolving %s: %w", joined, err)
		}
		if !within(canonicalRoot, resolved) {
			return nil, fmt.Errorf("%w: path %q escapes the project root", ErrBadRequest, subPath)
		}

		scope, err := filepath.Rel(root, joined)
		if err != nil {
			return nil, fmt.Errorf("%w: path %q: %v", ErrBadRequest, subPath, err)
		}
		scope = filepath.ToSlash(scope)
		if scope == "." {
			scope = ""
		}
		if !seen[scope] {
			seen[scope] = true
			targets = append(targets, scope)
		}
	}
	return targets, nil
}

func isAbsolute(path string) bool {
	return filepath.IsAbs(path) ||
		filepath.VolumeName(path) != "" ||
		strings.HasPrefix(path, "/") ||
		strings.HasPrefix(path, `\`)
}

// within reports whether path equals root or lies below it. Both must be
// clean.
func within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && !filepath.IsAbs(rel)
}
