package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/lexandro/contexter/server"
	"github.com/lexandro/contexter/service"
	"github.com/lexandro/contexter/tools"
	"github.com/lexandro/contexter/watcher"
)

func newMCPCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve registered projects to an MCP client over stdio",
		Long: `Run an MCP server on stdin/stdout. Every tool call is authorized with the
key given by --api-key or CONTEXTER_API_KEY. Logs go to stderr or --log-file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMCP(cmd, a)
		},
	}

	// Bound without a prefix so the key can come from CONTEXTER_API_KEY.
	cmd.Flags().String("api-key", "", "API key used to authorize tool calls")
	bindFlags(a.v, "", cmd.Flags())

	return cmd
}

func runMCP(cmd *cobra.Command, a *app) error {
	logger := a.logger("")

	reg, err := a.openRegistry()
	if err != nil {
		return err
	}

	credential := a.v.GetString("api-key")
	if credential == "" {
		logger.Warn("no API key given, every tool call will be rejected")
	}

	configWatcher, err := watcher.NewConfigWatcher(reg.Path(), reg, logger)
	if err != nil {
		logger.Warn("failed to watch registry, continuing without live reload", "error", err)
	} else {
		go configWatcher.Start()
		defer configWatcher.Close()
	}

	svc := service.New(reg, service.Options{Logger: logger})
	mcpServer := server.SetupMCP(
		&tools.ProjectsHandler{Service: svc, Credential: credential, Logger: logger},
		&tools.FilesHandler{Service: svc, Credential: credential, Logger: logger},
		&tools.GatherHandler{Service: svc, Credential: credential, Logger: logger},
	)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("MCP server starting on stdio", "registry", reg.Path())
	if err := mcpServer.Run(ctx, &mcp.StdioTransport{}); err != nil && ctx.Err() == nil {
		logger.Error("MCP server error", "error", err)
		return err
	}
	return nil
}
