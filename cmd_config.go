package main

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lexandro/contexter/registry"
)

// digestPrefixLen is how much of a key digest list-keys reveals.
const digestPrefixLen = 8

func newConfigCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage registered projects, API keys and server settings",
		Long: `Manage the registry file read by the server and mcp commands.

Changes are written atomically; a running server with --watch-config picks
them up without a restart.`,
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "add-project NAME PATH",
			Short: "Register a project directory under NAME",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				reg, err := a.openRegistry()
				if err != nil {
					return err
				}
				if err := reg.AddProject(args[0], args[1]); err != nil {
					return err
				}
				path, _ := reg.Project(args[0])
				fmt.Fprintf(a.stdout, "%s project %s -> %s\n", SuccessStyle.Render("Added"), CmdStyle.Render(args[0]), path)
				return nil
			},
		},
		&cobra.Command{
			Use:   "remove-project NAME",
			Short: "Unregister a project",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				reg, err := a.openRegistry()
				if err != nil {
					return err
				}
				removed, err := reg.RemoveProject(args[0])
				if err != nil {
					return err
				}
				if !removed {
					return fmt.Errorf("project %q is not registered", args[0])
				}
				fmt.Fprintf(a.stdout, "%s project %s\n", SuccessStyle.Render("Removed"), CmdStyle.Render(args[0]))
				return nil
			},
		},
		&cobra.Command{
			Use:   "generate-key NAME",
			Short: "Create or replace the API key called NAME",
			Long: `Generate a random API key and store its hash under NAME. The key itself is
printed once and cannot be recovered; generating again for the same NAME
replaces the old key.`,
			Args: cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				reg, err := a.openRegistry()
				if err != nil {
					return err
				}
				secret, err := reg.GenerateCredential(args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(a.stdout, "%s key %s\n\n  %s\n\n", SuccessStyle.Render("Generated"), CmdStyle.Render(args[0]), secret)
				fmt.Fprintln(a.stdout, WarningStyle.Render("Store this key now; it will not be shown again."))
				return nil
			},
		},
		&cobra.Command{
			Use:   "remove-key NAME",
			Short: "Revoke the API key called NAME",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				reg, err := a.openRegistry()
				if err != nil {
					return err
				}
				removed, err := reg.RemoveCredential(args[0])
				if err != nil {
					return err
				}
				if !removed {
					return fmt.Errorf("key %q does not exist", args[0])
				}
				fmt.Fprintf(a.stdout, "%s key %s\n", SuccessStyle.Render("Removed"), CmdStyle.Render(args[0]))
				return nil
			},
		},
		&cobra.Command{
			Use:   "list-keys",
			Short: "List API key names",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				reg, err := a.openRegistry()
				if err != nil {
					return err
				}
				fmt.Fprint(a.stdout, renderKeys(reg.Snapshot()))
				return nil
			},
		},
		&cobra.Command{
			Use:   "set-port PORT",
			Short: "Set the port the server listens on",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				port, err := strconv.ParseUint(args[0], 10, 16)
				if err != nil {
					return fmt.Errorf("invalid port %q: must be 1-65535", args[0])
				}
				reg, err := a.openRegistry()
				if err != nil {
					return err
				}
				if err := reg.SetPort(uint16(port)); err != nil {
					return err
				}
				fmt.Fprintf(a.stdout, "%s port %d\n", SuccessStyle.Render("Set"), port)
				return nil
			},
		},
		&cobra.Command{
			Use:   "set-address ADDR",
			Short: "Set the address the server listens on",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				reg, err := a.openRegistry()
				if err != nil {
					return err
				}
				if err := reg.SetListenAddress(args[0]); err != nil {
					return err
				}
				fmt.Fprintf(a.stdout, "%s listen address %s\n", SuccessStyle.Render("Set"), args[0])
				return nil
			},
		},
		&cobra.Command{
			Use:   "list",
			Short: "Show the whole registry",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				reg, err := a.openRegistry()
				if err != nil {
					return err
				}
				fmt.Fprint(a.stdout, renderConfig(reg.Path(), reg.Snapshot(), reg.Projects()))
				return nil
			},
		},
	)

	return cmd
}

func renderConfig(path string, config registry.Config, projects []registry.Project) string {
	var b strings.Builder

	b.WriteString(TitleStyle.Render("Registry"))
	b.WriteString(" " + SubtitleStyle.Render(path) + "\n\n")
	fmt.Fprintf(&b, "  Listen: %s\n\n", CmdStyle.Render(fmt.Sprintf("%s:%d", config.ListenAddress, config.Port)))

	b.WriteString(TitleStyle.Render("Projects") + "\n")
	if len(projects) == 0 {
		b.WriteString("  " + SubtitleStyle.Render("none, add one with: contexter config add-project NAME PATH") + "\n")
	}
	width := 0
	for _, p := range projects {
		width = max(width, len(p.Name))
	}
	for _, p := range projects {
		fmt.Fprintf(&b, "  %s  %s\n", CmdStyle.Render(fmt.Sprintf("%-*s", width, p.Name)), p.Path)
	}

	b.WriteString("\n")
	b.WriteString(renderKeys(config))
	return b.String()
}

func renderKeys(config registry.Config) string {
	var b strings.Builder
	b.WriteString(TitleStyle.Render("API keys") + "\n")
	if len(config.APIKeys) == 0 {
		b.WriteString("  " + WarningStyle.Render("none, the server will not start until one is generated") + "\n")
		return b.String()
	}

	names := make([]string, 0, len(config.APIKeys))
	width := 0
	for name := range config.APIKeys {
		names = append(names, name)
		width = max(width, len(name))
	}
	slices.Sort(names)
	for _, name := range names {
		fmt.Fprintf(&b, "  %s  %s\n", CmdStyle.Render(fmt.Sprintf("%-*s", width, name)), SubtitleStyle.Render(maskDigest(config.APIKeys[name])))
	}
	return b.String()
}

// maskDigest shows the start of a stored key hash, enough to tell keys apart.
func maskDigest(digest string) string {
	if len(digest) > digestPrefixLen {
		digest = digest[:digestPrefixLen]
	}
	return "sha256:" + digest + "..."
}
