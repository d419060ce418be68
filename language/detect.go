package language

import (
	"path/filepath"
	"strings"
)

// Unknown is the label for files whose language cannot be determined.
const Unknown = "Unknown"

// languages lists the labels reported in project metadata together with the
// lowercase extensions that select them.
var languages = []struct {
	name       string
	extensions []string
}{
	{"Go", []string{"go"}},
	{"JavaScript", []string{"js", "jsx", "mjs", "cjs"}},
	{"TypeScript", []string{"ts", "tsx", "mts", "cts"}},
	{"Python", []string{"py", "pyi", "pyw"}},
	{"Rust", []string{"rs"}},
	{"Java", []string{"java"}},
	{"Kotlin", []string{"kt", "kts"}},
	{"C", []string{"c", "h"}},
	{"C++", []string{"cpp", "cc", "cxx", "hpp", "hxx"}},
	{"C#", []string{"cs", "csx"}},
	{"Swift", []string{"swift"}},
	{"Dart", []string{"dart"}},
	{"Ruby", []string{"rb", "erb"}},
	{"PHP", []string{"php"}},
	{"Scala", []string{"scala"}},
	{"Elixir", []string{"ex", "exs"}},
	{"Erlang", []string{"erl", "hrl"}},
	{"Haskell", []string{"hs"}},
	{"Lua", []string{"lua"}},
	{"Zig", []string{"zig"}},
	{"R", []string{"r", "rmd"}},
	{"Shell", []string{"sh", "bash", "zsh", "fish"}},
	{"PowerShell", []string{"ps1", "psm1", "psd1"}},
	{"Batch", []string{"bat", "cmd"}},
	{"HTML", []string{"html", "htm"}},
	{"CSS", []string{"css", "scss", "sass", "less"}},
	{"Vue", []string{"vue"}},
	{"Svelte", []string{"svelte"}},
	{"SQL", []string{"sql"}},
	{"GraphQL", []string{"graphql", "gql"}},
	{"Protobuf", []string{"proto"}},
	{"Terraform", []string{"tf", "tfvars"}},
	{"JSON", []string{"json", "jsonc"}},
	{"YAML", []string{"yaml", "yml"}},
	{"TOML", []string{"toml"}},
	{"XML", []string{"xml", "xsl", "xslt"}},
	{"INI", []string{"ini", "cfg", "conf"}},
	{"Markdown", []string{"md", "mdx", "markdown"}},
	{"reStructuredText", []string{"rst"}},
	{"LaTeX", []string{"tex"}},
	{"Text", []string{"txt"}},
	{"CSV", []string{"csv", "tsv"}},
	{"CMake", []string{"cmake"}},
	{"Gradle", []string{"gradle"}},
}

// byFileName covers files that are recognised by name rather than extension.
var byFileName = map[string]string{
	"makefile":       "Makefile",
	"gnumakefile":    "Makefile",
	"dockerfile":     "Dockerfile",
	"cmakelists.txt": "CMake",
	"gemfile":        "Ruby",
	"rakefile":       "Ruby",
	"license":        "Text",
	"authors":        "Text",
	"changelog":      "Text",
}

var byExtension = func() map[string]string {
	m := make(map[string]string)
	for _, l := range languages {
		for _, ext := range l.extensions {
			m[ext] = l.name
		}
	}
	return m
}()

// Detect returns the language label for a file path. Well-known file names
// win over extensions; anything else is Unknown.
func Detect(filePath string) string {
	if name, ok := byFileName[strings.ToLower(filepath.Base(filePath))]; ok {
		return name
	}
	if name, ok := byExtension[Extension(filePath)]; ok {
		return name
	}
	return Unknown
}

// Count tallies the detected language of every path.
func Count(paths []string) map[string]int {
	counts := make(map[string]int)
	for _, p := range paths {
		counts[Detect(p)]++
	}
	return counts
}
