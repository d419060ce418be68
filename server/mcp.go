package server

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/lexandro/contexter/tools"
)

// Version is reported to MCP clients.
var Version = "0.3.0"

// SetupMCP creates the MCP server with all tool registrations.
func SetupMCP(
	projectsHandler *tools.ProjectsHandler,
	filesHandler *tools.FilesHandler,
	gatherHandler *tools.GatherHandler,
) *mcp.Server {
	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    "contexter",
			Version: Version,
		},
		&mcp.ServerOptions{
			Instructions: `This server assembles the source files of registered projects into a single document, grouped into configuration, documentation, source and test sections, with duplicate files removed.

- Use contexter_projects to see which projects are registered
- Use contexter_files to preview which files a project would contribute
- Use contexter_gather to fetch the document for a project, or only for some of its files and directories`,
		},
	)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        "contexter_projects",
		Description: "List registered projects with their root directories.",
	}, projectsHandler.Handle)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name: "contexter_files",
		Description: `List the files of a project that would be gathered, relative to the project root.

Pattern examples:
  - "**/*.go" - all Go files
  - "docs/**" - everything under docs/`,
	}, filesHandler.Handle)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name: "contexter_gather",
		Description: `Gather a project's files into one document. Each file is preceded by a header with its path; identical files appear once.

Pass paths (relative to the project root) to limit the document to those files or directories. Paths may not leave the project root.`,
	}, gatherHandler.Handle)

	return mcpServer
}
