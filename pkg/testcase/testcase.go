// Package testcase defines the shared types of a test run: the test
// body forms a runner accepts, the per-test outcome, and the recorded
// result handed to reporters.
package testcase

import (
	"context"
	"errors"
)

// Body is a test callback. Start invokes it and returns a channel
// that yields exactly one value once the body has settled: nil on
// success, the failure otherwise. Every body is treated as possibly
// pending; synchronous ones simply settle before Start returns.
type Body interface {
	Start(ctx context.Context) <-chan error
}

// Sync is a synchronous body. It runs on the caller's goroutine and
// has settled by the time Start returns.
type Sync func() error

// Start runs the body and returns an already settled channel.
func (f Sync) Start(_ context.Context) <-chan error {
	done := make(chan error, 1)
	done <- Capture(f)
	return done
}

// Async is a body that returns a pending result. The channel yields
// the failure, or nil, or is closed without a value on success. A
// nil channel counts as immediate success. Only the call that
// returns the channel is recovered: a panic on a goroutine the body
// starts itself is not, so such work belongs in a Func.
type Async func(ctx context.Context) <-chan error

// Start kicks off the body and forwards its pending result.
func (f Async) Start(ctx context.Context) <-chan error {
	done := make(chan error, 1)

	var pending <-chan error
	if err := Capture(func() error {
		pending = f(ctx)
		return nil
	}); err != nil {
		done <- err
		return done
	}

	if pending == nil {
		done <- nil
		return done
	}

	go func() {
		err, ok := <-pending
		if !ok {
			err = nil
		}
		done <- err
	}()
	return done
}

// Func is a blocking body that honours ctx. It runs on its own
// goroutine so a runner can stop waiting on it.
type Func func(ctx context.Context) error

// Start runs the body on a new goroutine.
func (f Func) Start(ctx context.Context) <-chan error {
	done := make(chan error, 1)
	go func() {
		done <- Capture(func() error { return f(ctx) })
	}()
	return done
}

// Case is a named test body.
type Case struct {
	// Title is the human-readable label reported for the test.
	Title string `json:"title"`

	// Body performs the assertions.
	Body Body `json:"-"`
}

// Errors returned by Case.Validate.
var (
	ErrEmptyTitle = errors.New("test title must not be empty")
	ErrNilBody    = errors.New("test body must not be nil")
)

// Validate checks that the case can be run.
func (c Case) Validate() error {
	if c.Title == "" {
		return ErrEmptyTitle
	}
	if c.Body == nil {
		return ErrNilBody
	}
	return nil
}
