package config

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/spf13/afero"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "MINITEST_"

// Env resolves environment variables from the process environment
// and, as a fallback, from variables loaded out of .env files.
type Env struct {
	mu     sync.RWMutex
	vars   map[string]string
	lookup func(string) (string, bool)
}

// NewEnv creates an Env backed by the process environment.
func NewEnv() *Env {
	return NewEnvWithLookup(os.LookupEnv)
}

// NewEnvWithLookup creates an Env backed by lookup instead of the
// process environment.
func NewEnvWithLookup(lookup func(string) (string, bool)) *Env {
	return &Env{
		vars:   make(map[string]string),
		lookup: lookup,
	}
}

// LoadFile reads KEY=VALUE lines from path on fs. Blank lines and
// lines starting with # are skipped; surrounding quotes are
// removed from values.
func (e *Env) LoadFile(fs afero.Fs, path string) error {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return fmt.Errorf("open env file %s: %w", path, err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "export ")
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		e.vars[strings.TrimSpace(key)] = strings.Trim(value, `"'`)
	}
	return scanner.Err()
}

// Get returns the value of key. The process environment takes
// precedence over loaded files.
func (e *Env) Get(key string) (string, bool) {
	if e.lookup != nil {
		if v, ok := e.lookup(key); ok {
			return v, true
		}
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	v, ok := e.vars[key]
	return v, ok
}

// GetWithDefault returns the value of key, or defaultValue when
// it is unset.
func (e *Env) GetWithDefault(key, defaultValue string) string {
	if v, ok := e.Get(key); ok {
		return v
	}
	return defaultValue
}
