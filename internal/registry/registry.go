package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/gofrs/flock"

	hookerrors "github.com/lightfastai/cchooks/internal/errors"
	"github.com/lightfastai/cchooks/internal/jsonutil"
	"github.com/lightfastai/cchooks/internal/logger"
)

const (
	// FileName is the registry file inside the templates directory
	FileName = "templates.json"
	// CurrentVersion is written to new registry files
	CurrentVersion = 1
)

// Registry is the user template registry stored in <templatesDir>/templates.json
type Registry struct {
	Version   int                 `json:"version"`
	Templates map[string]Template `json:"templates"`

	dir   string
	mu    sync.RWMutex
	flock *flock.Flock // File lock held from LoadRegistry until Close
}

// Template is one user-registered hook template
type Template struct {
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Events      []string  `json:"events"`
	Source      string    `json:"source"` // absolute path to the text/template file
	Registered  time.Time `json:"registered"`
}

var (
	// LockTimeout is the timeout for acquiring the registry lock
	LockTimeout = 5 * time.Second
	// now is swapped in tests
	now = time.Now
)

// GetRegistryPath returns the path to the registry file in dir
func GetRegistryPath(dir string) string {
	return filepath.Join(dir, FileName)
}

// GetLockPath returns the path to the registry lock file in dir
func GetLockPath(dir string) string {
	return GetRegistryPath(dir) + ".lock"
}

// LoadRegistry reads the registry from dir with file locking.
// If the file doesn't exist or is corrupt, it returns a new empty registry.
// The caller MUST call Close() on the returned registry to release the lock.
func LoadRegistry(dir string) (*Registry, error) {
	registryPath := GetRegistryPath(dir)
	lockPath := GetLockPath(dir)

	// Ensure directory exists before creating lock file
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create registry directory: %w", err)
	}

	fileLock := flock.New(lockPath)

	ctx, cancel := context.WithTimeout(context.Background(), LockTimeout)
	defer cancel()

	locked, err := fileLock.TryLockContext(ctx, 100*time.Millisecond)
	if err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return nil, fmt.Errorf("failed to acquire registry lock: %w", err)
	}
	if !locked {
		return nil, hookerrors.LockTimeout(lockPath, LockTimeout)
	}

	registry := &Registry{
		Version:   CurrentVersion,
		Templates: make(map[string]Template),
		dir:       dir,
		flock:     fileLock,
	}

	// #nosec G304 - registryPath is built from the configured templates dir
	data, err := os.ReadFile(registryPath)
	if errors.Is(err, os.ErrNotExist) {
		return registry, nil
	}
	if err != nil {
		_ = fileLock.Unlock()
		return nil, fmt.Errorf("failed to read registry: %w", err)
	}

	var loaded struct {
		Version   int                 `json:"version"`
		Templates map[string]Template `json:"templates"`
	}
	if err := json.Unmarshal(data, &loaded); err != nil {
		// If corrupt, warn but continue with an empty registry (keep the lock)
		logger.Warn("Corrupt template registry %s, starting a new one: %v", registryPath, err)
		return registry, nil
	}

	if loaded.Templates != nil {
		registry.Templates = loaded.Templates
	}
	if loaded.Version != 0 {
		registry.Version = loaded.Version
	}
	return registry, nil
}

// SaveRegistry writes the registry atomically
func (r *Registry) SaveRegistry() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	registryPath := GetRegistryPath(r.dir)

	if err := os.MkdirAll(r.dir, 0o750); err != nil {
		return fmt.Errorf("failed to create registry directory: %w", err)
	}

	data, err := jsonutil.MarshalIndentWithNewline(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal registry: %w", err)
	}

	tmp, err := os.CreateTemp(r.dir, "."+FileName+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temporary registry: %w", err)
	}
	tempFile := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tempFile)
		return fmt.Errorf("failed to write temporary registry: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tempFile)
		return fmt.Errorf("failed to write temporary registry: %w", err)
	}

	if err := os.Rename(tempFile, registryPath); err != nil {
		_ = os.Remove(tempFile) // Clean up temp file on error
		return fmt.Errorf("failed to save registry: %w", err)
	}

	return nil
}

// Register adds t. An existing template of the same name is replaced only
// when force is set.
func (r *Registry) Register(t Template, force bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if t.Name == "" {
		return hookerrors.Validation("name", "template name cannot be empty")
	}
	if t.Source == "" {
		return hookerrors.Validation("source", "template source file is required")
	}
	if _, exists := r.Templates[t.Name]; exists && !force {
		return hookerrors.TemplateExists(t.Name)
	}

	if t.Registered.IsZero() {
		t.Registered = now()
	}
	r.Templates[t.Name] = t
	return nil
}

// Unregister removes the named template
func (r *Registry) Unregister(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.Templates[name]; !exists {
		return hookerrors.TemplateNotFound(name, r.namesLocked())
	}
	delete(r.Templates, name)
	return nil
}

// Get retrieves a template by name
func (r *Registry) Get(name string) (Template, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.Templates[name]
	return t, ok
}

// Names returns the registered template names, sorted
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.namesLocked()
}

func (r *Registry) namesLocked() []string {
	names := make([]string, 0, len(r.Templates))
	for name := range r.Templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// List returns the registered templates sorted by name
func (r *Registry) List() []Template {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Template, 0, len(r.Templates))
	for _, name := range r.namesLocked() {
		out = append(out, r.Templates[name])
	}
	return out
}

// Close releases the file lock on the registry
// This MUST be called after LoadRegistry() to prevent lock leaks
func (r *Registry) Close() error {
	if r.flock != nil {
		if err := r.flock.Unlock(); err != nil {
			return fmt.Errorf("failed to release registry lock: %w", err)
		}
	}
	return nil
}
