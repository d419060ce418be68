package service

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexandro/contexter/discovery"
	"github.com/lexandro/contexter/registry"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// newFixture registers a project "app" with a small tree and returns the
// service, a valid credential and the project root.
func newFixture(t *testing.T) (*Service, string, string) {
	t.Helper()
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.json"), "{}")
	writeFile(t, filepath.Join(root, "b.md"), "# doc")
	writeFile(t, filepath.Join(root, "src", "c.go"), "fn f(){}")
	writeFile(t, filepath.Join(root, "src", "d.go"), "fn f(){}")
	writeFile(t, filepath.Join(root, "src", "e.go"), "package e")

	reg, err := registry.Open(filepath.Join(t.TempDir(), "config.json"))
	require.NoError(t, err)
	require.NoError(t, reg.AddProject("app", root))
	secret, err := reg.GenerateCredential("test")
	require.NoError(t, err)

	return New(reg, Options{}), secret, root
}

func Test_Service_ZeroCredentialsAlwaysUnauthorized(t *testing.T) {
	reg, err := registry.Open(filepath.Join(t.TempDir(), "config.json"))
	require.NoError(t, err)
	require.NoError(t, reg.AddProject("app", t.TempDir()))
	svc := New(reg, Options{})

	_, err = svc.RunAggregation(context.Background(), "", "app", nil)
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = svc.RunAggregation(context.Background(), "guess", "app", nil)
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = svc.ListProjects(context.Background(), "")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func Test_Service_UnauthorizedBeforeLookup(t *testing.T) {
	svc, _, _ := newFixture(t)

	_, err := svc.ProjectMetadata(context.Background(), "wrong", "missing")
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.NotErrorIs(t, err, ErrNotFound)

	_, err = svc.RunAggregation(context.Background(), "wrong", "missing", []string{"../x"})
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func Test_Service_NotFound(t *testing.T) {
	svc, secret, _ := newFixture(t)

	_, err := svc.ProjectMetadata(context.Background(), secret, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.RunAggregation(context.Background(), secret, "missing", nil)
	assert.ErrorIs(t, err, ErrNotFound)
}

func Test_Service_ListProjects(t *testing.T) {
	svc, secret, root := newFixture(t)

	projects, err := svc.ListProjects(context.Background(), secret)
	require.NoError(t, err)
	assert.Equal(t, []ProjectSummary{{Name: "app", Path: root}}, projects)
}

func Test_Service_ProjectMetadata(t *testing.T) {
	svc, secret, root := newFixture(t)

	meta, err := svc.ProjectMetadata(context.Background(), secret, "app")
	require.NoError(t, err)

	assert.Equal(t, "app", meta.Name)
	assert.Equal(t, root, meta.Path)
	assert.Equal(t, []string{"a.json", "b.md", "src/c.go", "src/d.go", "src/e.go"}, meta.Files)
	assert.Equal(t, 3, meta.Languages["Go"])
	assert.Equal(t, 1, meta.Languages["JSON"])
}

func Test_Service_RunAggregationWholeProject(t *testing.T) {
	svc, secret, _ := newFixture(t)

	result, err := svc.RunAggregation(context.Background(), secret, "app", nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"a.json", "b.md", "src/c.go", "src/e.go"}, result.Files)
	assert.Equal(t, 1, result.Duplicates)
	assert.Equal(t, 1, strings.Count(result.Content, "fn f(){}"))

	config := strings.Index(result.Content, "Section: Configuration Files")
	docs := strings.Index(result.Content, "Section: Documentation")
	source := strings.Index(result.Content, "Section: Source Files")
	assert.True(t, config < docs && docs < source, "sections out of order:\n%s", result.Content)
}

func Test_Service_RunAggregationSubPaths(t *testing.T) {
	svc, secret, _ := newFixture(t)

	result, err := svc.RunAggregation(context.Background(), secret, "app", []string{"src/e.go", "b.md"})
	require.NoError(t, err)
	assert.Equal(t, []string{"b.md", "src/e.go"}, result.Files)
}

func Test_Service_RunAggregationOverlappingSubPaths(t *testing.T) {
	svc, secret, _ := newFixture(t)

	result, err := svc.RunAggregation(context.Background(), secret, "app", []string{"src", "src/e.go", "./src"})
	require.NoError(t, err)
	assert.Equal(t, []string{"src/c.go", "src/e.go"}, result.Files)
	assert.Equal(t, 1, strings.Count(result.Content, "package e"))
}

func Test_Service_RunAggregationMissingSubPath(t *testing.T) {
	svc, secret, _ := newFixture(t)

	result, err := svc.RunAggregation(context.Background(), secret, "app", []string{"nope"})
	require.NoError(t, err)
	assert.Empty(t, result.Files)
	assert.Empty(t, result.Content)
}

func Test_Service_RunAggregationRejectsEscapes(t *testing.T) {
	svc, secret, _ := newFixture(t)

	tests := []struct {
		name  string
		paths []string
	}{
		{"parent", []string{".."}},
		{"dotdot traversal", []string{"src/../../etc"}},
		{"absolute", []string{"/etc/passwd"}},
		{"backslash absolute", []string{`\windows`}},
		{"empty entry", []string{""}},
		{"blank entry", []string{"  "}},
		{"empty list", []string{}},
		{"one bad among good", []string{"src", "../outside"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.RunAggregation(context.Background(), secret, "app", tt.paths)
			assert.ErrorIs(t, err, ErrBadRequest)
		})
	}
}

func Test_Service_RunAggregationRejectsSymlinkEscape(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks require privileges on windows")
	}
	svc, secret, root := newFixture(t)
	outside := t.TempDir()
	writeFile(t, filepath.Join(outside, "secret.txt"), "secret")
	require.NoError(t, os.Symlink(outside, filepath.Join(root, "escape")))

	_, err := svc.RunAggregation(context.Background(), secret, "app", []string{"escape"})
	assert.ErrorIs(t, err, ErrBadRequest)

	// The whole-project walk never follows the link either.
	result, err := svc.RunAggregation(context.Background(), secret, "app", nil)
	require.NoError(t, err)
	assert.NotContains(t, result.Content, "secret")
}

func Test_Service_Options(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "main.go"), "package main")
	writeFile(t, filepath.Join(root, "notes.txt"), "notes")

	reg, err := registry.Open(filepath.Join(t.TempDir(), "config.json"))
	require.NoError(t, err)
	require.NoError(t, reg.AddProject("app", root))
	secret, err := reg.GenerateCredential("test")
	require.NoError(t, err)

	svc := New(reg, Options{
		Discovery:       discovery.Options{Extensions: []string{"go"}},
		IncludeMetadata: true,
	})

	result, err := svc.RunAggregation(context.Background(), secret, "app", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"main.go"}, result.Files)
	assert.Contains(t, result.Content, "Size: 12 bytes")
}

func Test_Service_RunAggregationSubPathsKeepProjectRules(t *testing.T) {
	svc, secret, root := newFixture(t)
	writeFile(t, filepath.Join(root, "node_modules", "lib", "index.js"), "module.exports = 1")
	writeFile(t, filepath.Join(root, ".git", "config"), "[core]")
	writeFile(t, filepath.Join(root, ".hidden", "notes.md"), "hidden notes")
	writeFile(t, filepath.Join(root, ".gitignore"), "secrets/\n*.env\n")
	writeFile(t, filepath.Join(root, "secrets", "token.txt"), "token")
	writeFile(t, filepath.Join(root, "src", "prod.env"), "KEY=1")
	writeFile(t, filepath.Join(root, "src", "gen", ".gitignore"), "*.gen.go\n")
	writeFile(t, filepath.Join(root, "src", "gen", "api.gen.go"), "package gen")

	whole, err := svc.RunAggregation(context.Background(), secret, "app", nil)
	require.NoError(t, err)
	require.Equal(t, []string{"a.json", "b.md", "src/c.go", "src/e.go"}, whole.Files)

	tests := []struct {
		name  string
		paths []string
		want  []string
	}{
		{"built-in directory", []string{"node_modules"}, nil},
		{"file inside built-in directory", []string{"node_modules/lib/index.js"}, nil},
		{"version control directory", []string{".git"}, nil},
		{"hidden directory", []string{".hidden"}, nil},
		{"file inside hidden directory", []string{".hidden/notes.md"}, nil},
		{"gitignored directory", []string{"secrets"}, nil},
		{"file inside gitignored directory", []string{"secrets/token.txt"}, nil},
		{"root rule applies below", []string{"src"}, []string{"src/c.go", "src/e.go"}},
		{"root rule applies to a named file", []string{"src/prod.env"}, nil},
		{"nested rule applies to a named file", []string{"src/gen/api.gen.go"}, nil},
		{"nested directory", []string{"src/gen"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := svc.RunAggregation(context.Background(), secret, "app", tt.paths)
			require.NoError(t, err)
			if len(tt.want) == 0 {
				assert.Empty(t, result.Files)
				assert.Empty(t, result.Content)
			} else {
				assert.Equal(t, tt.want, result.Files)
			}
			for _, f := range result.Files {
				assert.Contains(t, whole.Files, f, "sub-path result must be a subset of the whole project")
			}
		})
	}
}

func Test_ResolveTargets(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "src", "main.go"), "package main")

	targets, err := resolveTargets(root, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{""}, targets)

	targets, err = resolveTargets(root, []string{"src", "./src/", "src/main.go", ".", "missing"})
	require.NoError(t, err)
	assert.Equal(t, []string{"src", "src/main.go", ""}, targets)
}

func Test_Within(t *testing.T) {
	root := filepath.Join(string(filepath.Separator), "srv", "app")

	assert.True(t, within(root, root))
	assert.True(t, within(root, filepath.Join(root, "src")))
	assert.True(t, within(root, filepath.Join(root, "..foo")))
	assert.False(t, within(root, filepath.Join(root, "..")))
	assert.False(t, within(root, filepath.Join(string(filepath.Separator), "srv", "application")))
}
