package tools

import (
	"context"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// ProjectsArgs defines the input parameters for the contexter_projects tool (none required).
type ProjectsArgs struct{}

// ProjectsHandler holds the dependencies for the projects tool.
type ProjectsHandler struct {
	Service    Service
	Credential string
	Logger     *slog.Logger
}

// Handle processes a contexter_projects request.
func (h *ProjectsHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args ProjectsArgs) (*mcp.CallToolResult, any, error) {
	projects, err := h.Service.ListProjects(ctx, h.Credential)
	if err != nil {
		h.Logger.Warn("contexter_projects failed", "error", err)
		return serviceErrorResult(err), nil, nil
	}

	h.Logger.Info("contexter_projects", "projects", len(projects))
	return textResult(FormatProjects(projects)), nil, nil
}
