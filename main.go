package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/lexandro/contexter/registry"
)

const envPrefix = "CONTEXTER"

func main() {
	if err := newRootCommand(os.Stdout, os.Stderr).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, ErrorStyle.Render("Error:"), err)
		os.Exit(1)
	}
}

// app carries the state shared by every subcommand.
type app struct {
	v      *viper.Viper
	stdout io.Writer
	stderr io.Writer

	closers []func()
}

func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	a := &app{
		v:      newViper(),
		stdout: stdout,
		stderr: stderr,
	}

	rootCmd := &cobra.Command{
		Use:   "contexter",
		Short: "Gather project sources into a single context document",
		Long: `contexter collects the source files of a project into one document,
grouped into configuration, documentation, source and test sections with
duplicate files removed.

Projects can be gathered directly from the command line, or registered and
served over HTTP and MCP to clients holding an API key.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			a.close()
		},
	}
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	rootCmd.PersistentFlags().String("config", "", "registry file (default: <user config dir>/contexter/config.json)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level: debug|info|warn|error")
	rootCmd.PersistentFlags().String("log-file", "", "log file path (default: stderr)")
	bindFlags(a.v, "", rootCmd.PersistentFlags())

	rootCmd.AddCommand(
		newGatherCommand(a),
		newServerCommand(a),
		newMCPCommand(a),
		newConfigCommand(a),
		newRegisterCommand(a),
	)
	return rootCmd
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()
	return v
}

// bindFlags makes every flag readable through v. Command flags are keyed
// "<prefix>.<flag>", so --output on gather is also CONTEXTER_GATHER_OUTPUT.
func bindFlags(v *viper.Viper, prefix string, flags *pflag.FlagSet) {
	flags.VisitAll(func(f *pflag.Flag) {
		key := f.Name
		if prefix != "" {
			key = prefix + "." + f.Name
		}
		_ = v.BindPFlag(key, f)
	})
}

// logger builds the logger for the running command. An empty level uses
// --log-level.
func (a *app) logger(level string) *slog.Logger {
	if level == "" {
		level = a.v.GetString("log-level")
	}
	logger, closeFn := setupLogger(level, a.v.GetString("log-file"), a.stderr)
	a.closers = append(a.closers, closeFn)
	return logger
}

func (a *app) close() {
	for _, closeFn := range a.closers {
		closeFn()
	}
	a.closers = nil
}

func (a *app) openRegistry() (*registry.Registry, error) {
	path := a.v.GetString("config")
	if path == "" {
		var err error
		path, err = registry.DefaultPath()
		if err != nil {
			return nil, err
		}
	}
	return registry.Open(path)
}
