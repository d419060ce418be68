package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lexandro/contexter/register"
)

func newRegisterCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Add contexter to an MCP client configuration",
		Long: `Write an mcpServers entry that starts "contexter mcp". Arguments after
"--" are passed to the mcp command.`,
		Example: `  contexter register project . -- --log-level debug
  contexter register user --api-key "$KEY"`,
	}

	cmd.PersistentFlags().String("api-key", "", "store this key as CONTEXTER_API_KEY in the entry")
	bindFlags(a.v, "register", cmd.PersistentFlags())

	cmd.AddCommand(
		&cobra.Command{
			Use:   "project [DIR] [-- args...]",
			Short: "Register in DIR/.mcp.json (default: current directory)",
			RunE: func(cmd *cobra.Command, args []string) error {
				positional, serverArgs := register.SplitArgs(args, cmd.ArgsLenAtDash())
				if len(positional) > 1 {
					return fmt.Errorf("accepts at most 1 directory, received %d", len(positional))
				}
				dir := ""
				if len(positional) == 1 {
					dir = positional[0]
				}
				return runRegister(a, register.ScopeProject, dir, serverArgs)
			},
		},
		&cobra.Command{
			Use:   "user [-- args...]",
			Short: "Register in ~/.claude.json for every project",
			RunE: func(cmd *cobra.Command, args []string) error {
				positional, serverArgs := register.SplitArgs(args, cmd.ArgsLenAtDash())
				if len(positional) > 0 {
					return fmt.Errorf("unexpected arguments %v; pass server arguments after --", positional)
				}
				return runRegister(a, register.ScopeUser, "", serverArgs)
			},
		},
	)

	return cmd
}

func runRegister(a *app, scope register.Scope, dir string, serverArgs []string) error {
	var env map[string]string
	if key := a.v.GetString("register.api-key"); key != "" {
		env = map[string]string{envPrefix + "_API_KEY": key}
	}

	configPath, err := register.Register(register.Options{
		Scope:      scope,
		Directory:  dir,
		ServerArgs: serverArgs,
		Env:        env,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "%s %s in %s\n", SuccessStyle.Render("Registered"), CmdStyle.Render(register.ServerName), configPath)
	return nil
}
