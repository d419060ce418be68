package tools

import (
	"context"
	"log/slog"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// FilesArgs defines the input parameters for the contexter_files tool.
type FilesArgs struct {
	Project  string `json:"project" jsonschema:"Registered project name (see contexter_projects)"`
	Pattern  string `json:"pattern,omitempty" jsonschema:"Optional glob to filter files (e.g. **/*.go or src/**)"`
	NameOnly bool   `json:"nameOnly,omitempty" jsonschema:"If true return only file paths"`
}

// FilesHandler holds the dependencies for the files tool.
type FilesHandler struct {
	Service    Service
	Credential string
	Logger     *slog.Logger
}

// Handle processes a contexter_files request.
func (h *FilesHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args FilesArgs) (*mcp.CallToolResult, any, error) {
	start := time.Now()

	if args.Project == "" {
		h.Logger.Warn("contexter_files called without project")
		return errorResult("project parameter is required"), nil, nil
	}
	if args.Pattern != "" && !doublestar.ValidatePattern(args.Pattern) {
		return errorResult("invalid glob pattern %q", args.Pattern), nil, nil
	}

	meta, err := h.Service.ProjectMetadata(ctx, h.Credential, args.Project)
	if err != nil {
		h.Logger.Warn("contexter_files failed", "project", args.Project, "error", err)
		return serviceErrorResult(err), nil, nil
	}

	files := meta.Files
	if args.Pattern != "" {
		files = make([]string, 0, len(meta.Files))
		for _, f := range meta.Files {
			if doublestar.MatchUnvalidated(args.Pattern, f) {
				files = append(files, f)
			}
		}
	}

	h.Logger.Info("contexter_files",
		"project", args.Project,
		"pattern", args.Pattern,
		"results", len(files),
		"elapsed", time.Since(start),
	)

	return textResult(FormatFileList(meta, files, args.NameOnly)), nil, nil
}
