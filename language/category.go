package language

import "strings"

// Category is the bucket a file is grouped under in an aggregated document.
type Category int

const (
	Configuration Category = iota
	Documentation
	Source
	Test
)

// Categories lists every category in document order.
var Categories = []Category{Configuration, Documentation, Source, Test}

// SourceExtension is this implementation's own source file extension.
const SourceExtension = "go"

// Title returns the section title used for the category.
func (c Category) Title() string {
	switch c {
	case Configuration:
		return "Configuration Files"
	case Documentation:
		return "Documentation"
	case Test:
		return "Tests"
	default:
		return "Source Files"
	}
}

func (c Category) String() string {
	switch c {
	case Configuration:
		return "configuration"
	case Documentation:
		return "documentation"
	case Test:
		return "test"
	default:
		return "source"
	}
}

// Classify maps a lowercase extension (without dot) to its category.
// Unknown extensions are Source.
func Classify(ext string) Category {
	switch ext {
	case "toml", "json", "yaml", "yml":
		return Configuration
	case SourceExtension:
		return Source
	case "md", "txt":
		return Documentation
	}
	if strings.Contains(ext, "test") {
		return Test
	}
	return Source
}

// ClassifyPath is Classify applied to the extension of filePath.
func ClassifyPath(filePath string) Category {
	return Classify(Extension(filePath))
}
