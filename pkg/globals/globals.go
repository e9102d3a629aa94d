// Package globals holds the process-wide test context. Test files
// call Test without being handed a runner; whatever context was
// installed last receives the call.
package globals

import (
	"context"
	"errors"
	"sync"

	"digital.vasic.minitest/pkg/runner"
	"digital.vasic.minitest/pkg/testcase"
)

// ErrNotInstalled is returned by Lookup, and panicked with by Test,
// when no context has been installed.
var ErrNotInstalled = errors.New("test context not installed")

// Context binds a runner to the context.Context its tests run
// under.
type Context struct {
	Runner *runner.Runner
	ctx    context.Context
}

// NewContext creates a Context running tests on r under ctx. A
// nil ctx means context.Background.
func NewContext(ctx context.Context, r *runner.Runner) *Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return &Context{Runner: r, ctx: ctx}
}

// Context returns the context.Context tests run under.
func (c *Context) Context() context.Context {
	if c.ctx == nil {
		return context.Background()
	}
	return c.ctx
}

// Test runs body on the bound runner and returns its outcome.
func (c *Context) Test(
	title string,
	body testcase.Body,
) testcase.Outcome {
	return c.Runner.Test(c.Context(), title, body)
}

var (
	mu      sync.RWMutex
	current *Context
)

// Install makes c the process-wide context, replacing any earlier
// one, and returns the context it replaced. Installing the same
// context twice has no further effect.
func Install(c *Context) *Context {
	mu.Lock()
	defer mu.Unlock()
	prev := current
	current = c
	return prev
}

// Uninstall removes the installed context.
func Uninstall() {
	Install(nil)
}

// Lookup returns the installed context.
func Lookup() (*Context, error) {
	mu.RLock()
	defer mu.RUnlock()
	if current == nil {
		return nil, ErrNotInstalled
	}
	return current, nil
}

// Test runs body on the installed context. It panics with
// ErrNotInstalled if nothing is installed: calling Test before
// installation is a programming error, not a test failure.
func Test(title string, body testcase.Body) testcase.Outcome {
	c, err := Lookup()
	if err != nil {
		panic(err)
	}
	return c.Test(title, body)
}
