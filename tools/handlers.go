// Package tools implements the MCP tool handlers. Every handler calls the
// same service the HTTP API uses, with the credential configured at start-up.
package tools

import (
	"context"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/lexandro/contexter/service"
)

// Service is the contract the tools are built on. *service.Service
// implements it.
type Service interface {
	ListProjects(ctx context.Context, credential string) ([]service.ProjectSummary, error)
	ProjectMetadata(ctx context.Context, credential, name string) (*service.ProjectMetadata, error)
	RunAggregation(ctx context.Context, credential, name string, subPaths []string) (*service.Aggregation, error)
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

func errorResult(format string, args ...any) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: "Error: " + fmt.Sprintf(format, args...)}},
		IsError: true,
	}
}

// serviceErrorResult maps service errors to a tool error result.
func serviceErrorResult(err error) *mcp.CallToolResult {
	switch {
	case errors.Is(err, service.ErrUnauthorized):
		return errorResult("invalid or missing API key (start the server with --api-key or CONTEXTER_API_KEY)")
	case errors.Is(err, service.ErrNotFound), errors.Is(err, service.ErrBadRequest):
		return errorResult("%v", err)
	default:
		return errorResult("request failed: %v", err)
	}
}
