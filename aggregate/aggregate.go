// Package aggregate reads discovered files and assembles them into a single
// document grouped by category, skipping files whose content was already seen.
package aggregate

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/sync/errgroup"

	"github.com/lexandro/contexter/language"
)

const defaultConcurrency = 8

var errNotText = errors.New("content is not valid UTF-8")

// Options configures an aggregation run.
type Options struct {
	IncludeMetadata bool // add size and modification time to file headers
	Concurrency     int  // parallel file reads; defaults to 8
	Logger          *slog.Logger
}

// Document is the result of an aggregation run.
type Document struct {
	Content    string   // Assembled text
	Files      []string // Distinct included paths, in acceptance order
	Skipped    int      // Files that could not be read as text
	Duplicates int      // Files dropped because their content was already included
}

// fileContent is the outcome of reading one file.
type fileContent struct {
	text    string
	size    int64
	modTime time.Time
	err     error
}

// Aggregate reads paths, deduplicates them by content and assembles the
// document. Paths are processed in order of their base name; for files with
// identical content only the first one in that order is kept.
// The only error returned is the context's.
func Aggregate(ctx context.Context, paths []string, opts Options) (*Document, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	ordered := sortByFileName(paths)
	contents, err := readAll(ctx, ordered, opts)
	if err != nil {
		return nil, err
	}

	doc := &Document{}
	seen := make(map[uint64][]string, len(ordered)) // hash -> texts already included
	buffers := make([]strings.Builder, len(language.Categories))

	for i, path := range ordered {
		fc := contents[i]
		if fc.err != nil {
			logger.Warn("skipping file", "path", path, "error", fc.err)
			doc.Skipped++
			continue
		}

		hash := xxhash.Sum64String(fc.text)
		if slices.Contains(seen[hash], fc.text) {
			logger.Debug("skipping duplicate content", "path", path)
			doc.Duplicates++
			continue
		}
		seen[hash] = append(seen[hash], fc.text)

		buf := &buffers[language.ClassifyPath(path)]
		writeFileBlock(buf, path, fc, opts.IncludeMetadata)
		doc.Files = append(doc.Files, path)
	}

	var out strings.Builder
	for _, category := range language.Categories {
		if buffers[category].Len() == 0 {
			continue
		}
		writeSectionHeader(&out, category)
		out.WriteString(buffers[category].String())
	}
	doc.Content = out.String()

	logger.Debug("aggregation complete",
		"files", len(doc.Files),
		"skipped", doc.Skipped,
		"duplicates", doc.Duplicates,
		"bytes", len(doc.Content),
	)
	return doc, nil
}

// sortByFileName returns a copy of paths ordered by base name, ties broken by
// the full path.
func sortByFileName(paths []string) []string {
	ordered := make([]string, len(paths))
	copy(ordered, paths)
	sort.SliceStable(ordered, func(i, j int) bool {
		bi, bj := filepath.Base(ordered[i]), filepath.Base(ordered[j])
		if bi != bj {
			return bi < bj
		}
		return ordered[i] < ordered[j]
	})
	return ordered
}

// readAll reads every file with a bounded number of goroutines. Each result
// lands at its path's index, so consumers see them in order.
func readAll(ctx context.Context, paths []string, opts Options) ([]fileContent, error) {
	limit := opts.Concurrency
	if limit <= 0 {
		limit = defaultConcurrency
	}

	results := make([]fileContent, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = readText(path, opts.IncludeMetadata)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// readText reads a file as UTF-8 text. Metadata is only collected when needed.
func readText(path string, withMetadata bool) fileContent {
	data, err := os.ReadFile(path)
	if err != nil {
		return fileContent{err: err}
	}
	if !utf8.Valid(data) {
		return fileContent{err: errNotText}
	}

	fc := fileContent{text: string(data)}
	if withMetadata {
		info, err := os.Stat(path)
		if err != nil {
			return fileContent{err: err}
		}
		fc.size = info.Size()
		fc.modTime = info.ModTime()
	}
	return fc
}
