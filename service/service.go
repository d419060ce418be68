// Package service is the transport independent contract shared by the HTTP
// API and the MCP tools: authorize the caller, resolve the project and run
// discovery and aggregation against it.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/lexandro/contexter/aggregate"
	"github.com/lexandro/contexter/discovery"
	"github.com/lexandro/contexter/language"
	"github.com/lexandro/contexter/registry"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")
	ErrBadRequest   = errors.New("bad request")
)

// Registry is the part of *registry.Registry the service depends on.
type Registry interface {
	Authorize(secret string) bool
	Project(name string) (string, bool)
	Projects() []registry.Project
}

// Options configures discovery and aggregation for every request.
type Options struct {
	Discovery       discovery.Options // Logger is taken from Options.Logger
	IncludeMetadata bool
	Concurrency     int
	Logger          *slog.Logger
}

// ProjectSummary identifies a project.
type ProjectSummary struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// ProjectMetadata describes the files of a project that would be aggregated.
type ProjectMetadata struct {
	Name      string         `json:"name"`
	Path      string         `json:"path"`
	Files     []string       `json:"files"`
	Languages map[string]int `json:"languages"`
}

// Aggregation is the document built for one request.
type Aggregation struct {
	Content    string   `json:"content"`
	Files      []string `json:"files"` // relative to the project root
	Skipped    int      `json:"-"`
	Duplicates int      `json:"-"`
}

// Service answers project queries for authorized callers.
type Service struct {
	registry Registry
	opts     Options
	logger   *slog.Logger
}

// New creates a Service backed by reg.
func New(reg Registry, opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	opts.Discovery.Logger = logger
	return &Service{registry: reg, opts: opts, logger: logger}
}

// ListProjects returns every registered project, sorted by name.
func (s *Service) ListProjects(ctx context.Context, credential string) ([]ProjectSummary, error) {
	if err := s.authorize(credential); err != nil {
		return nil, err
	}
	projects := s.registry.Projects()
	summaries := make([]ProjectSummary, len(projects))
	for i, p := range projects {
		summaries[i] = ProjectSummary{Name: p.Name, Path: p.Path}
	}
	return summaries, nil
}

// ProjectMetadata lists the project's eligible files relative to its root.
func (s *Service) ProjectMetadata(ctx context.Context, credential, name string) (*ProjectMetadata, error) {
	if err := s.authorize(credential); err != nil {
		return nil, err
	}
	root, err := s.lookup(name)
	if err != nil {
		return nil, err
	}

	records, err := discovery.Discover(ctx, root, s.opts.Discovery)
	if err != nil {
		return nil, fmt.Errorf("discovering %s: %w", name, err)
	}

	return &ProjectMetadata{
		Name:      name,
		Path:      root,
		Files:     discovery.RelativePaths(records),
		Languages: language.Count(discovery.Paths(records)),
	}, nil
}

// RunAggregation builds the document for a project. With subPaths nil the
// whole project is covered; otherwise each entry is a file or directory
// relative to the project root and must stay inside it.
func (s *Service) RunAggregation(ctx context.Context, credential, name string, subPaths []string) (*Aggregation, error) {
	if err := s.authorize(credential); err != nil {
		return nil, err
	}
	root, err := s.lookup(name)
	if err != nil {
		return nil, err
	}

	targets, err := resolveTargets(root, subPaths)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	var paths []string
	seen := make(map[string]bool)
	for _, target := range targets {
		opts := s.opts.Discovery
		opts.Scope = target
		records, err := discovery.Discover(ctx, root, opts)
		if err != nil {
			return nil, fmt.Errorf("discovering %s in %s: %w", target, name, err)
		}
		for _, record := range records {
			if !seen[record.Path] {
				seen[record.Path] = true
				paths = append(paths, record.Path)
			}
		}
	}

	doc, err := aggregate.Aggregate(ctx, paths, aggregate.Options{
		IncludeMetadata: s.opts.IncludeMetadata,
		Concurrency:     s.opts.Concurrency,
		Logger:          s.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("aggregating %s: %w", name, err)
	}

	s.logger.Info("aggregation served",
		"project", name,
		"targets", len(targets),
		"files", len(doc.Files),
		"duplicates", doc.Duplicates,
		"bytes", len(doc.Content),
		"duration", time.Since(start),
	)

	return &Aggregation{
		Content:    doc.Content,
		Files:      relativeTo(root, doc.Files),
		Skipped:    doc.Skipped,
		Duplicates: doc.Duplicates,
	}, nil
}

// authorize rejects every caller the same way, whatever the reason.
func (s *Service) authorize(credential string) error {
	if !s.registry.Authorize(credential) {
		return ErrUnauthorized
	}
	return nil
}

func (s *Service) lookup(name string) (string, error) {
	root, ok := s.registry.Project(name)
	if !ok {
		return "", fmt.Errorf("%w: project %q", ErrNotFound, name)
	}
	return filepath.Clean(root), nil
}

func relativeTo(root string, paths []string) []string {
	out := make([]string, len(paths))
	for i, p := range paths {
		rel, err := filepath.Rel(root, p)
		if err != nil {
			rel = p
		}
		out[i] = filepath.ToSlash(rel)
	}
	return out
}
