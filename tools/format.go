package tools

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lexandro/contexter/service"
)

// FormatProjects formats the project list as human-readable text.
func FormatProjects(projects []service.ProjectSummary) string {
	if len(projects) == 0 {
		return "No projects registered. Add one with: contexter config add-project NAME PATH"
	}

	width := 0
	for _, p := range projects {
		width = max(width, len(p.Name))
	}

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("Found %d projects:\n\n", len(projects)))
	for _, p := range projects {
		builder.WriteString(fmt.Sprintf("  %-*s  %s\n", width, p.Name, p.Path))
	}
	return builder.String()
}

// FormatFileList formats the files of a project. Language counts are listed
// when the whole project was requested.
func FormatFileList(meta *service.ProjectMetadata, files []string, nameOnly bool) string {
	if len(files) == 0 {
		return "No files matched."
	}

	var builder strings.Builder
	if nameOnly {
		for _, f := range files {
			builder.WriteString(f)
			builder.WriteString("\n")
		}
		return builder.String()
	}

	builder.WriteString(fmt.Sprintf("── %s (%s) ──\n", meta.Name, meta.Path))
	builder.WriteString(fmt.Sprintf("Found %d files:\n\n", len(files)))
	for _, f := range files {
		builder.WriteString(fmt.Sprintf("  %s\n", f))
	}

	if len(files) == len(meta.Files) && len(meta.Languages) > 0 {
		builder.WriteString("\nLanguages:\n")
		builder.WriteString(FormatLanguages(meta.Languages))
	}
	return builder.String()
}

// FormatLanguages lists language counts, largest first.
func FormatLanguages(counts map[string]int) string {
	type langEntry struct {
		lang  string
		count int
	}
	entries := make([]langEntry, 0, len(counts))
	for lang, count := range counts {
		entries = append(entries, langEntry{lang, count})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].count != entries[j].count {
			return entries[i].count > entries[j].count
		}
		return entries[i].lang < entries[j].lang
	})

	var builder strings.Builder
	for _, entry := range entries {
		builder.WriteString(fmt.Sprintf("  %-20s %d files\n", entry.lang, entry.count))
	}
	return builder.String()
}

// FormatGatherSummary is the short line placed before a gathered document.
func FormatGatherSummary(project string, result *service.Aggregation) string {
	summary := fmt.Sprintf("Gathered %d files from %s (%s)", len(result.Files), project, formatFileSize(int64(len(result.Content))))
	if result.Duplicates > 0 {
		summary += fmt.Sprintf(", %d duplicates skipped", result.Duplicates)
	}
	if result.Skipped > 0 {
		summary += fmt.Sprintf(", %d unreadable", result.Skipped)
	}
	return summary
}

// formatFileSize converts bytes to a human-readable string.
func formatFileSize(bytes int64) string {
	switch {
	case bytes >= 1024*1024:
		return fmt.Sprintf("%.1f MB", float64(bytes)/(1024*1024))
	case bytes >= 1024:
		return fmt.Sprintf("%.1f KB", float64(bytes)/1024)
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
