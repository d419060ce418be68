package aggregate

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/lexandro/contexter/language"
)

// Rule separates headers from content in the document.
var Rule = strings.Repeat("=", 40)

// SectionHeader returns the header written before a category's files.
func SectionHeader(category language.Category) string {
	return fmt.Sprintf("%s\nSection: %s\n%s\n", Rule, category.Title(), Rule)
}

func writeSectionHeader(b *strings.Builder, category language.Category) {
	b.WriteString(SectionHeader(category))
}

// writeFileBlock writes one file's header followed by its content with
// trailing whitespace removed. The modification time is written as Unix
// seconds so the output does not depend on the host time zone.
func writeFileBlock(b *strings.Builder, path string, fc fileContent, withMetadata bool) {
	b.WriteString(Rule)
	b.WriteString("\n")
	fmt.Fprintf(b, "File: %s\n", path)
	if withMetadata {
		fmt.Fprintf(b, "Size: %d bytes\n", fc.size)
		fmt.Fprintf(b, "Last Modified: %d\n", fc.modTime.Unix())
	}
	b.WriteString(Rule)
	b.WriteString("\n")
	b.WriteString(strings.TrimRightFunc(fc.text, unicode.IsSpace))
	b.WriteString("\n")
}
