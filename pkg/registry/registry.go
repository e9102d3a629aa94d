// Package registry keeps the ordered set of test files of a suite
// and bootstraps them against a runner.
package registry

import (
	"errors"
	"fmt"
	"sync"

	"digital.vasic.minitest/pkg/globals"
)

// Errors returned by Registry methods.
var (
	ErrDuplicateFile = errors.New("test file already registered")
	ErrFileNotFound  = errors.New("test file not found")
	ErrInvalidFile   = errors.New("invalid test file")
)

// File is a named unit of tests. Load declares the file's tests
// through the installed context.
type File struct {
	Name string
	Load func(*globals.Context)
}

// Registry defines the interface for managing test files.
type Registry interface {
	// Register appends a file. Names must be unique.
	Register(f File) error

	// Get retrieves a file by name.
	Get(name string) (File, error)

	// List returns all files in registration order.
	List() []File

	// Clear removes all files.
	Clear()

	// Count returns the number of registered files.
	Count() int
}

// DefaultRegistry is the standard Registry implementation.
// It is safe for concurrent use.
type DefaultRegistry struct {
	mu    sync.RWMutex
	files []File
	index map[string]int
}

// NewRegistry creates a new, empty DefaultRegistry.
func NewRegistry() *DefaultRegistry {
	return &DefaultRegistry{index: make(map[string]int)}
}

// Default is the package-level default registry instance.
var Default = NewRegistry()

// Register adds f to the Default registry. It is meant to be
// called from the init function of a test file package.
func Register(f File) error {
	return Default.Register(f)
}

// MustRegister is like Register but panics on error.
func MustRegister(f File) {
	if err := Register(f); err != nil {
		panic(err)
	}
}

// Register appends f to the registry.
func (r *DefaultRegistry) Register(f File) error {
	if f.Name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidFile)
	}
	if f.Load == nil {
		return fmt.Errorf("%w: %s has no Load func", ErrInvalidFile, f.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.index[f.Name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateFile, f.Name)
	}

	r.index[f.Name] = len(r.files)
	r.files = append(r.files, f)
	return nil
}

// Get retrieves a file by name.
func (r *DefaultRegistry) Get(name string) (File, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i, exists := r.index[name]
	if !exists {
		return File{}, fmt.Errorf("%w: %s", ErrFileNotFound, name)
	}
	return r.files[i], nil
}

// List returns all files in registration order.
func (r *DefaultRegistry) List() []File {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]File, len(r.files))
	copy(out, r.files)
	return out
}

// Clear removes all files.
func (r *DefaultRegistry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.files = nil
	r.index = make(map[string]int)
}

// Count returns the number of registered files.
func (r *DefaultRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.files)
}
