package tools

import (
	"context"
	"log/slog"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// GatherArgs defines the input parameters for the contexter_gather tool.
type GatherArgs struct {
	Project string   `json:"project" jsonschema:"Registered project name (see contexter_projects)"`
	Paths   []string `json:"paths,omitempty" jsonschema:"Optional files or directories relative to the project root; omit for the whole project"`
}

// GatherHandler holds the dependencies for the gather tool.
type GatherHandler struct {
	Service    Service
	Credential string
	Logger     *slog.Logger
}

// Handle processes a contexter_gather request.
func (h *GatherHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args GatherArgs) (*mcp.CallToolResult, any, error) {
	start := time.Now()

	if args.Project == "" {
		h.Logger.Warn("contexter_gather called without project")
		return errorResult("project parameter is required"), nil, nil
	}

	// An omitted or empty list both mean the whole project here; the tool
	// schema cannot express the difference.
	paths := args.Paths
	if len(paths) == 0 {
		paths = nil
	}

	result, err := h.Service.RunAggregation(ctx, h.Credential, args.Project, paths)
	if err != nil {
		h.Logger.Warn("contexter_gather failed", "project", args.Project, "error", err)
		return serviceErrorResult(err), nil, nil
	}

	h.Logger.Info("contexter_gather",
		"project", args.Project,
		"paths", len(paths),
		"files", len(result.Files),
		"bytes", len(result.Content),
		"elapsed", time.Since(start),
	)

	if len(result.Files) == 0 {
		return textResult("No files matched."), nil, nil
	}
	return textResult(FormatGatherSummary(args.Project, result) + "\n\n" + result.Content), nil, nil
}
