// Package discovery walks a directory tree and returns the files eligible for
// aggregation, in a deterministic order.
package discovery

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/lexandro/contexter/ignore"
	"github.com/lexandro/contexter/language"
)

// FileRecord is one eligible file found during discovery.
type FileRecord struct {
	Path         string    // Root joined with the relative path
	RelativePath string    // Relative to the root (forward slashes)
	Extension    string    // Lowercase, without dot
	SizeBytes    int64     // Size reported by the filesystem
	ModTime      time.Time // Last modification time
}

// Options configures a discovery pass.
type Options struct {
	Extensions       []string // allowlist; empty accepts every extension
	Excludes         []string // regular expressions, see ignore.Compile
	Include          []string // doublestar globs against RelativePath; empty accepts all
	Hidden           bool     // visit dot-files and dot-directories
	MaxFileSizeBytes int64    // 0 means no limit

	// Scope limits the walk to one file or directory below the root
	// (slash-separated, relative). Every rule is still judged from the root:
	// each component of Scope must itself pass the hidden, built-in and
	// .gitignore checks. Empty means the whole root.
	Scope string

	Logger *slog.Logger
}

// Discover walks root and returns every eligible regular file sorted by path.
// A missing root yields an empty result; an invalid exclude pattern or include
// glob is an error. Problems with individual entries are logged and skipped.
func Discover(ctx context.Context, root string, opts Options) ([]FileRecord, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	rules, err := ignore.Compile(opts.Excludes)
	if err != nil {
		return nil, err
	}
	for _, pattern := range opts.Include {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid include pattern %q", pattern)
		}
	}
	scope := filepath.Clean(filepath.FromSlash(opts.Scope))
	if opts.Scope != "" && !filepath.IsLocal(scope) {
		return nil, fmt.Errorf("scope %q is not below the root", opts.Scope)
	}

	w := &walker{
		root:       filepath.Clean(root),
		opts:       opts,
		rules:      rules,
		extensions: normalizeExtensions(opts.Extensions),
		logger:     logger,
	}

	info, err := os.Stat(w.root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logger.Debug("discovery root does not exist", "root", w.root)
			return nil, nil
		}
		return nil, fmt.Errorf("stat %s: %w", w.root, err)
	}

	if info.Mode().IsRegular() {
		// A single file is its own walk root; only its name is matched.
		if record, ok := w.consider(w.root, filepath.Base(w.root), info); ok {
			return []FileRecord{record}, nil
		}
		return nil, nil
	}
	if !info.IsDir() {
		return nil, nil
	}

	// WalkDir does not descend into a symlinked root, so walk its target and
	// report paths under the root as given.
	w.walkRoot, err = filepath.EvalSymlinks(w.root)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", w.root, err)
	}
	w.gitIgnores = ignore.NewGitIgnoreStack(w.walkRoot)
	w.gitIgnores.Enter(w.walkRoot)

	start := w.walkRoot
	if scope != "." {
		var ok bool
		if start, ok = w.descend(scope); !ok {
			return nil, nil
		}
	}

	startInfo, err := os.Lstat(start)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("stat %s: %w", start, err)
	}
	if !startInfo.IsDir() {
		if err := w.visit(start, fs.FileInfoToDirEntry(startInfo), nil); err != nil {
			return nil, err
		}
		return w.files, nil
	}

	if err := filepath.WalkDir(start, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return w.visit(path, d, err)
	}); err != nil {
		return nil, err
	}

	sort.Slice(w.files, func(i, j int) bool {
		return w.files[i].Path < w.files[j].Path
	})
	return w.files, nil
}

// Paths extracts the Path of every record.
func Paths(records []FileRecord) []string {
	paths := make([]string, len(records))
	for i, r := range records {
		paths[i] = r.Path
	}
	return paths
}

// RelativePaths extracts the RelativePath of every record.
func RelativePaths(records []FileRecord) []string {
	paths := make([]string, len(records))
	for i, r := range records {
		paths[i] = r.RelativePath
	}
	return paths
}

// descend checks every directory on the way from the walk root to scope the
// same way a full walk would, loading their .gitignore files. It returns the
// absolute path of scope, or false when the full walk would never reach it.
func (w *walker) descend(scope string) (string, bool) {
	parts := strings.Split(scope, string(filepath.Separator))
	dir := w.walkRoot
	for i, part := range parts[:len(parts)-1] {
		dir = filepath.Join(dir, part)
		info, err := os.Lstat(dir)
		if err != nil || !info.IsDir() {
			// missing, a file, or a symlink the walk would not follow
			return "", false
		}
		relativePath := filepath.ToSlash(filepath.Join(parts[:i+1]...))
		if w.skipDir(dir, part, relativePath) {
			w.logger.Debug("scope is excluded", "scope", scope, "at", relativePath)
			return "", false
		}
		w.gitIgnores.Enter(dir)
	}
	return filepath.Join(dir, parts[len(parts)-1]), true
}

type walker struct {
	root       string
	walkRoot   string
	opts       Options
	rules      *ignore.Rules
	gitIgnores *ignore.GitIgnoreStack
	extensions map[string]bool
	logger     *slog.Logger
	files      []FileRecord
}

func (w *walker) visit(path string, d fs.DirEntry, err error) error {
	if err != nil {
		w.logger.Warn("skipping unreadable entry", "path", path, "error", err)
		if d != nil && d.IsDir() && path != w.walkRoot {
			return filepath.SkipDir
		}
		return nil
	}

	if path == w.walkRoot {
		return nil
	}

	relativePath, err := filepath.Rel(w.walkRoot, path)
	if err != nil {
		return nil
	}
	reportedPath := filepath.Join(w.root, relativePath)
	relativePath = filepath.ToSlash(relativePath)

	if d.IsDir() {
		if w.skipDir(path, d.Name(), relativePath) {
			return filepath.SkipDir
		}
		w.gitIgnores.Enter(path)
		return nil
	}

	// Symlinks, devices, sockets and pipes are never emitted.
	if !d.Type().IsRegular() {
		return nil
	}

	if w.gitIgnores.Ignored(path, false) {
		return nil
	}

	info, err := d.Info()
	if err != nil {
		w.logger.Warn("skipping file", "path", path, "error", err)
		return nil
	}

	if record, ok := w.consider(path, relativePath, info); ok {
		record.Path = reportedPath
		w.files = append(w.files, record)
	}
	return nil
}

func (w *walker) skipDir(path, name, relativePath string) bool {
	if !w.opts.Hidden && isHidden(name) {
		return true
	}
	if w.rules.PruneDir(relativePath) {
		return true
	}
	return w.gitIgnores.Ignored(path, true)
}

// consider applies the per-file filters that do not depend on the walk.
func (w *walker) consider(path, relativePath string, info fs.FileInfo) (FileRecord, bool) {
	if !w.opts.Hidden && isHidden(filepath.Base(path)) {
		return FileRecord{}, false
	}
	if w.rules.Excluded(relativePath) {
		return FileRecord{}, false
	}
	if w.opts.MaxFileSizeBytes > 0 && info.Size() > w.opts.MaxFileSizeBytes {
		w.logger.Debug("skipping large file", "path", path, "size", info.Size())
		return FileRecord{}, false
	}

	binary, err := language.IsBinaryPath(path)
	if err != nil {
		w.logger.Warn("skipping file", "path", path, "error", err)
		return FileRecord{}, false
	}
	if binary {
		return FileRecord{}, false
	}

	ext := language.Extension(path)
	if len(w.extensions) > 0 && !w.extensions[ext] {
		return FileRecord{}, false
	}
	if !w.included(relativePath) {
		return FileRecord{}, false
	}

	return FileRecord{
		Path:         path,
		RelativePath: relativePath,
		Extension:    ext,
		SizeBytes:    info.Size(),
		ModTime:      info.ModTime(),
	}, true
}

func (w *walker) included(relativePath string) bool {
	if len(w.opts.Include) == 0 {
		return true
	}
	for _, pattern := range w.opts.Include {
		if doublestar.MatchUnvalidated(pattern, relativePath) {
			return true
		}
	}
	return false
}

func isHidden(name string) bool {
	return len(name) > 1 && strings.HasPrefix(name, ".")
}

func normalizeExtensions(extensions []string) map[string]bool {
	if len(extensions) == 0 {
		return nil
	}
	set := make(map[string]bool, len(extensions))
	for _, ext := range extensions {
		ext = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
		if ext != "" {
			set[ext] = true
		}
	}
	return set
}
