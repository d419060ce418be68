// Package registry holds the durable contexter configuration: named project
// roots, hashed API credentials and the listen settings of the server.
package registry

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"sync"
)

const (
	DefaultPort          = 3030
	DefaultListenAddress = "127.0.0.1"
)

// ErrInvalidName is returned when a project or credential name is empty.
var ErrInvalidName = errors.New("name must not be empty")

// Config is the persisted registry state.
type Config struct {
	Projects      map[string]string `json:"projects"`
	Port          uint16            `json:"port"`
	ListenAddress string            `json:"listen_address"`
	APIKeys       map[string]string `json:"api_keys"` // name -> hex SHA-256 of the secret
}

// Project is a named project root.
type Project struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// DefaultConfig returns the configuration used when no file exists yet.
func DefaultConfig() Config {
	return Config{
		Projects:      map[string]string{},
		Port:          DefaultPort,
		ListenAddress: DefaultListenAddress,
		APIKeys:       map[string]string{},
	}
}

func (c Config) clone() Config {
	out := c
	out.Projects = maps.Clone(c.Projects)
	out.APIKeys = maps.Clone(c.APIKeys)
	if out.Projects == nil {
		out.Projects = map[string]string{}
	}
	if out.APIKeys == nil {
		out.APIKeys = map[string]string{}
	}
	return out
}

// Registry is the in-memory view of the configuration file. Every mutation
// is written to disk before it becomes visible; a failed write leaves the
// in-memory state untouched.
type Registry struct {
	mu     sync.RWMutex
	path   string
	config Config
}

// DefaultPath returns <user config dir>/contexter/config.json.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locating user config directory: %w", err)
	}
	return filepath.Join(dir, "contexter", "config.json"), nil
}

// Open loads the registry stored at path. A missing file yields the default
// configuration; nothing is written until the first mutation.
func Open(path string) (*Registry, error) {
	config, err := load(path)
	if err != nil {
		return nil, err
	}
	return &Registry{path: path, config: config}, nil
}

// Path returns the file backing the registry.
func (r *Registry) Path() string {
	return r.path
}

// Reload re-reads the backing file and replaces the in-memory state. It holds
// the write lock while reading so it cannot publish a file older than a
// mutation made by this process. On error the current state is kept.
func (r *Registry) Reload() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	config, err := load(r.path)
	if err != nil {
		return err
	}
	r.config = config
	return nil
}

// mutate applies fn to a copy of the current state, persists the copy and
// only then publishes it. The write lock is held across the write so the
// file and memory never disagree about ordering.
func (r *Registry) mutate(fn func(*Config)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	next := r.config.clone()
	fn(&next)
	if err := save(r.path, next); err != nil {
		return err
	}
	r.config = next
	return nil
}

// AddProject registers name for the directory at path, replacing any
// existing project with the same name. The path is stored in absolute form.
func (r *Registry) AddProject(name, path string) error {
	if name == "" {
		return ErrInvalidName
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolving project path %s: %w", path, err)
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return fmt.Errorf("project path: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("project path %s is not a directory", absPath)
	}

	return r.mutate(func(c *Config) {
		c.Projects[name] = absPath
	})
}

// RemoveProject deletes a project. It reports false, without touching the
// file, when no project has that name.
func (r *Registry) RemoveProject(name string) (bool, error) {
	if _, ok := r.Project(name); !ok {
		return false, nil
	}
	var removed bool
	err := r.mutate(func(c *Config) {
		_, removed = c.Projects[name]
		delete(c.Projects, name)
	})
	if err != nil {
		return false, err
	}
	return removed, nil
}

// GenerateCredential creates a new secret under name, replacing any previous
// credential with that name. The returned secret is not stored and cannot be
// recovered later.
func (r *Registry) GenerateCredential(name string) (string, error) {
	if name == "" {
		return "", ErrInvalidName
	}
	secret, err := newSecret()
	if err != nil {
		return "", err
	}
	digest := hashSecret(secret)

	if err := r.mutate(func(c *Config) {
		c.APIKeys[name] = digest
	}); err != nil {
		return "", err
	}
	return secret, nil
}

// RemoveCredential deletes a credential, reporting false when it did not exist.
func (r *Registry) RemoveCredential(name string) (bool, error) {
	r.mu.RLock()
	_, ok := r.config.APIKeys[name]
	r.mu.RUnlock()
	if !ok {
		return false, nil
	}
	var removed bool
	err := r.mutate(func(c *Config) {
		_, removed = c.APIKeys[name]
		delete(c.APIKeys, name)
	})
	if err != nil {
		return false, err
	}
	return removed, nil
}

// SetListenAddress changes the address the server binds to.
func (r *Registry) SetListenAddress(address string) error {
	if address == "" {
		return errors.New("listen address must not be empty")
	}
	return r.mutate(func(c *Config) {
		c.ListenAddress = address
	})
}

// SetPort changes the port the server listens on.
func (r *Registry) SetPort(port uint16) error {
	if port == 0 {
		return errors.New("port must be between 1 and 65535")
	}
	return r.mutate(func(c *Config) {
		c.Port = port
	})
}

// Snapshot returns a deep copy of the current configuration.
func (r *Registry) Snapshot() Config {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.config.clone()
}

// Project returns the root of the named project.
func (r *Registry) Project(name string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	path, ok := r.config.Projects[name]
	return path, ok
}

// Projects returns all projects sorted by name.
func (r *Registry) Projects() []Project {
	r.mu.RLock()
	projects := make([]Project, 0, len(r.config.Projects))
	for name, path := range r.config.Projects {
		projects = append(projects, Project{Name: name, Path: path})
	}
	r.mu.RUnlock()

	sort.Slice(projects, func(i, j int) bool {
		return projects[i].Name < projects[j].Name
	})
	return projects
}

// CredentialNames returns the names of all credentials, sorted.
func (r *Registry) CredentialNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.config.APIKeys))
}

// Authorize reports whether secret matches any stored credential.
func (r *Registry) Authorize(secret string) bool {
	r.mu.RLock()
	digests := slices.Collect(maps.Values(r.config.APIKeys))
	r.mu.RUnlock()
	return matchDigest(hashSecret(secret), digests)
}
