package ignore

import (
	"os"
	"path/filepath"

	gitignore "github.com/denormal/go-gitignore"
)

// GitIgnoreFile is the per-directory ignore file honoured during traversal.
const GitIgnoreFile = ".gitignore"

// GitIgnoreStack tracks the .gitignore files of every directory entered during
// one walk. A path is judged by each ancestor's .gitignore from the walk root
// downwards; the deepest file with an opinion wins, so a negation in a nested
// .gitignore re-includes what a parent ignored.
// Not safe for concurrent use; create one per walk.
type GitIgnoreStack struct {
	root    string
	ignores map[string]gitignore.GitIgnore
}

// NewGitIgnoreStack creates an empty stack for a walk rooted at root.
func NewGitIgnoreStack(root string) *GitIgnoreStack {
	return &GitIgnoreStack{
		root:    filepath.Clean(root),
		ignores: make(map[string]gitignore.GitIgnore),
	}
}

// Enter loads dir/.gitignore, if any. Call it before visiting dir's children.
func (s *GitIgnoreStack) Enter(dir string) {
	dir = filepath.Clean(dir)
	if _, seen := s.ignores[dir]; seen {
		return
	}
	s.ignores[dir] = loadIgnoreFile(filepath.Join(dir, GitIgnoreFile), dir)
}

// Ignored reports whether path is excluded by the .gitignore files of the
// directories entered so far.
func (s *GitIgnoreStack) Ignored(path string, isDir bool) bool {
	ignored := false
	for _, dir := range s.ancestors(path) {
		gi := s.ignores[dir]
		if gi == nil {
			continue
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			continue
		}
		if match := gi.Relative(rel, isDir); match != nil {
			ignored = match.Ignore()
		}
	}
	return ignored
}

// ancestors returns the directories from the walk root down to path's parent.
func (s *GitIgnoreStack) ancestors(path string) []string {
	var dirs []string
	dir := filepath.Dir(filepath.Clean(path))
	for {
		dirs = append(dirs, dir)
		if dir == s.root {
			break
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			// path is not below root; only its own directory chain applies
			break
		}
		dir = parent
	}
	for i, j := 0, len(dirs)-1; i < j; i, j = i+1, j-1 {
		dirs[i], dirs[j] = dirs[j], dirs[i]
	}
	return dirs
}

// loadIgnoreFile reads an ignore file and creates a GitIgnore matcher from it.
// Uses io.Reader approach to ensure the file handle is properly closed on Windows.
func loadIgnoreFile(filePath string, baseDir string) gitignore.GitIgnore {
	f, err := os.Open(filePath)
	if err != nil {
		return nil
	}
	defer f.Close()

	return gitignore.New(f, baseDir, nil)
}
