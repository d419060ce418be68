package tools

import (
	"strings"
	"testing"

	"github.com/lexandro/contexter/service"
)

func Test_FormatFileSize(t *testing.T) {
	tests := map[int64]string{
		500:             "500 B",
		2048:            "2.0 KB",
		3 * 1024 * 1024: "3.0 MB",
	}
	for size, want := range tests {
		if got := formatFileSize(size); got != want {
			t.Errorf("formatFileSize(%d) = %q, want %q", size, got, want)
		}
	}
}

func Test_FormatProjects_Empty(t *testing.T) {
	got := FormatProjects(nil)
	if !strings.HasPrefix(got, "No projects registered.") {
		t.Errorf("unexpected output: %q", got)
	}
}

func Test_FormatProjects_Aligned(t *testing.T) {
	got := FormatProjects([]service.ProjectSummary{
		{Name: "a", Path: "/srv/a"},
		{Name: "backend", Path: "/srv/backend"},
	})

	if !strings.Contains(got, "  a        /srv/a\n") {
		t.Errorf("expected padded name column, got:\n%s", got)
	}
	if !strings.Contains(got, "  backend  /srv/backend\n") {
		t.Errorf("expected padded name column, got:\n%s", got)
	}
}

func Test_FormatLanguages_SortedByCount(t *testing.T) {
	got := FormatLanguages(map[string]int{"Markdown": 1, "Go": 5, "JSON": 1})

	goIdx := strings.Index(got, "Go")
	jsonIdx := strings.Index(got, "JSON")
	mdIdx := strings.Index(got, "Markdown")
	if !(goIdx < jsonIdx && jsonIdx < mdIdx) {
		t.Errorf("expected count then name order, got:\n%s", got)
	}
	if !strings.Contains(got, "5 files") {
		t.Errorf("expected counts, got:\n%s", got)
	}
}

func Test_FormatFileList_LanguagesOnlyForFullList(t *testing.T) {
	meta := &service.ProjectMetadata{
		Name:      "app",
		Path:      "/srv/app",
		Files:     []string{"a.go", "b.md"},
		Languages: map[string]int{"Go": 1, "Markdown": 1},
	}

	full := FormatFileList(meta, meta.Files, false)
	if !strings.Contains(full, "Languages:") {
		t.Errorf("expected languages for full list, got:\n%s", full)
	}

	filtered := FormatFileList(meta, []string{"a.go"}, false)
	if strings.Contains(filtered, "Languages:") {
		t.Errorf("expected no languages for filtered list, got:\n%s", filtered)
	}
	if !strings.Contains(filtered, "── app (/srv/app) ──") {
		t.Errorf("expected project header, got:\n%s", filtered)
	}
}

func Test_FormatGatherSummary(t *testing.T) {
	got := FormatGatherSummary("app", &service.Aggregation{
		Content: strings.Repeat("x", 2048),
		Files:   []string{"a", "b"},
		Skipped: 1,
	})
	want := "Gathered 2 files from app (2.0 KB), 1 unreadable"
	if got != want {
		t.Errorf("FormatGatherSummary() = %q, want %q", got, want)
	}
}
