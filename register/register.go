// Package register adds the contexter MCP server to a client configuration:
// <directory>/.mcp.json for a project or ~/.claude.json for the user.
package register

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// Scope selects which client configuration file is updated.
type Scope string

const (
	ScopeProject Scope = "project"
	ScopeUser    Scope = "user"
)

// ServerName is the key written under mcpServers.
const ServerName = "contexter"

// mcpSubcommand starts the stdio server.
const mcpSubcommand = "mcp"

type mcpServerEntry struct {
	Command string            `json:"command"`
	Args    []string          `json:"args,omitempty"`
	Env     map[string]string `json:"env,omitempty"`
}

// Options describes one registration.
type Options struct {
	Scope      Scope
	Directory  string            // project scope only; defaults to "."
	ServerArgs []string          // appended after "mcp"
	Env        map[string]string // e.g. CONTEXTER_API_KEY
	BinaryPath string            // defaults to the running executable
}

// Register writes the server entry and returns the path of the updated file.
func Register(opts Options) (string, error) {
	if opts.Scope != ScopeProject && opts.Scope != ScopeUser {
		return "", fmt.Errorf("unknown scope %q (must be %q or %q)", opts.Scope, ScopeProject, ScopeUser)
	}

	binaryPath := opts.BinaryPath
	if binaryPath == "" {
		detected, err := detectBinaryPath()
		if err != nil {
			return "", fmt.Errorf("detecting binary path: %w", err)
		}
		binaryPath = detected
	}

	configPath, err := resolveConfigPath(opts.Scope, opts.Directory)
	if err != nil {
		return "", fmt.Errorf("resolving config path: %w", err)
	}

	entry := buildEntry(binaryPath, opts.ServerArgs, opts.Env)
	if err := writeConfig(configPath, ServerName, entry); err != nil {
		return "", fmt.Errorf("writing config: %w", err)
	}
	return configPath, nil
}

// SplitArgs separates the positional arguments of `register project` from the
// server arguments following "--". dashAt is the index of "--" as reported
// by cobra's ArgsLenAtDash, or -1.
func SplitArgs(args []string, dashAt int) (positional, serverArgs []string) {
	if dashAt < 0 || dashAt > len(args) {
		return args, nil
	}
	return args[:dashAt], args[dashAt:]
}

func detectBinaryPath() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("getting executable path: %w", err)
	}
	resolved, err := filepath.EvalSymlinks(exe)
	if err != nil {
		return "", fmt.Errorf("resolving symlinks for %s: %w", exe, err)
	}
	return resolved, nil
}

func resolveConfigPath(scope Scope, directory string) (string, error) {
	if scope == ScopeProject {
		if directory == "" {
			directory = "."
		}
		absDir, err := filepath.Abs(directory)
		if err != nil {
			return "", fmt.Errorf("resolving directory %s: %w", directory, err)
		}
		return filepath.Join(absDir, ".mcp.json"), nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(homeDir, ".claude.json"), nil
}

func buildEntry(binaryPath string, serverArgs []string, env map[string]string) mcpServerEntry {
	args := append([]string{mcpSubcommand}, serverArgs...)
	if runtime.GOOS == "windows" {
		return mcpServerEntry{
			Command: "cmd",
			Args:    append([]string{"/C", binaryPath}, args...),
			Env:     env,
		}
	}
	return mcpServerEntry{
		Command: binaryPath,
		Args:    args,
		Env:     env,
	}
}

// writeConfig merges the entry into the JSON file at configPath, keeping
// every other key, and replaces the file atomically.
func writeConfig(configPath string, serverName string, entry mcpServerEntry) error {
	config := map[string]any{
		"mcpServers": map[string]any{},
	}

	data, err := os.ReadFile(configPath)
	if err == nil {
		if err := json.Unmarshal(data, &config); err != nil {
			return fmt.Errorf("parsing existing config %s: %w", configPath, err)
		}
	}

	servers, ok := config["mcpServers"]
	if !ok || servers == nil {
		servers = map[string]any{}
		config["mcpServers"] = servers
	}
	serversMap, ok := servers.(map[string]any)
	if !ok {
		return fmt.Errorf("mcpServers in %s is not an object", configPath)
	}
	serversMap[serverName] = entry

	output, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	output = append(output, '\n')

	configDir := filepath.Dir(configPath)
	tmpFile, err := os.CreateTemp(configDir, ".mcp-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file in %s: %w", configDir, err)
	}
	tmpPath := tmpFile.Name()

	if _, err := tmpFile.Write(output); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("writing temp file %s: %w", tmpPath, err)
	}
	if err := tmpFile.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file %s: %w", tmpPath, err)
	}
	if err := os.Rename(tmpPath, configPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming %s to %s: %w", tmpPath, configPath, err)
	}
	return nil
}
