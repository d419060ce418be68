package ignore

// DefaultExcludePatterns are regular expressions that always apply, in addition
// to caller-supplied patterns. They are matched against the slash-separated
// path relative to the walk root and are anchored on path components so that
// "build" does not exclude "rebuild.go".
var DefaultExcludePatterns = []string{
	// Version control
	`(^|/)\.git(/|$)`,
	`(^|/)\.svn(/|$)`,
	`(^|/)\.hg(/|$)`,

	// OS metadata
	`(^|/)\.DS_Store$`,
	`(^|/)Thumbs\.db$`,
	`(^|/)desktop\.ini$`,

	// Dependencies / build output
	`(^|/)node_modules(/|$)`,
	`(^|/)target(/|$)`,
	`(^|/)build(/|$)`,
	`(^|/)dist(/|$)`,
	`(^|/)__pycache__(/|$)`,

	// IDE / Editor
	`(^|/)\.vscode(/|$)`,
	`(^|/)\.idea(/|$)`,
	`(^|/)\.vs(/|$)`,

	// Lock files
	`(^|/)package-lock\.json$`,
	`\.lock$`,
}
