package main

import (
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lexandro/contexter/server"
	"github.com/lexandro/contexter/service"
	"github.com/lexandro/contexter/watcher"
)

var errNoCredentials = errors.New("no API keys configured; create one with: contexter config generate-key NAME")

func newServerCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "server",
		Short: "Serve registered projects over HTTP",
		Long: `Start the HTTP API on the configured address and port. Every request
under /api/v1 must carry a valid key in the X-API-Key header.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd, a)
		},
	}

	flags := cmd.Flags()
	flags.BoolP("quiet", "q", false, "only log errors")
	flags.BoolP("verbose", "v", false, "log every request in detail")
	flags.Bool("watch-config", true, "reload projects and keys when the registry file changes")
	cmd.MarkFlagsMutuallyExclusive("quiet", "verbose")
	bindFlags(a.v, "server", flags)

	return cmd
}

func runServer(cmd *cobra.Command, a *app) error {
	level := ""
	switch {
	case a.v.GetBool("server.quiet"):
		level = "error"
	case a.v.GetBool("server.verbose"):
		level = "debug"
	}
	logger := a.logger(level)

	reg, err := a.openRegistry()
	if err != nil {
		return err
	}
	if len(reg.CredentialNames()) == 0 {
		return errNoCredentials
	}

	config := reg.Snapshot()
	addr := net.JoinHostPort(config.ListenAddress, strconv.Itoa(int(config.Port)))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if a.v.GetBool("server.watch-config") {
		configWatcher, err := watcher.NewConfigWatcher(reg.Path(), reg, logger)
		if err != nil {
			logger.Warn("failed to watch registry, continuing without live reload", "error", err)
		} else {
			go configWatcher.Start()
			defer configWatcher.Close()
		}
	}

	logger.Info("starting contexter",
		"registry", reg.Path(),
		"projects", len(config.Projects),
		"keys", len(config.APIKeys),
	)

	svc := service.New(reg, service.Options{Logger: logger})
	srv := server.NewHTTPServer(addr, server.NewRouter(svc, logger))
	return server.Serve(ctx, srv, ln, logger)
}
