// Package demo is the sample suite run by the minitest command:
// two small arithmetic functions and the test files that exercise
// them. One test expects a wrong value on purpose so every run
// shows a failure next to the passes.
package demo

import (
	"context"
	"time"

	"digital.vasic.minitest/pkg/assertion"
	"digital.vasic.minitest/pkg/globals"
	"digital.vasic.minitest/pkg/registry"
	"digital.vasic.minitest/pkg/testcase"
)

// Delay is how long the async helpers take to resolve.
var Delay = 10 * time.Millisecond

// Sum adds b to a.
func Sum(a, b int) int {
	return a + b
}

// Subtract subtracts b from a.
func Subtract(a, b int) int {
	return a - b
}

// SumAsync resolves to Sum(a, b) after Delay. The channel is
// closed without a value if ctx ends first.
func SumAsync(ctx context.Context, a, b int) <-chan int {
	return resolveLater(ctx, func() int { return Sum(a, b) })
}

// SubtractAsync resolves to Subtract(a, b) after Delay.
func SubtractAsync(ctx context.Context, a, b int) <-chan int {
	return resolveLater(ctx, func() int { return Subtract(a, b) })
}

func resolveLater(ctx context.Context, fn func() int) <-chan int {
	out := make(chan int, 1)
	go func() {
		defer close(out)
		select {
		case <-time.After(Delay):
			out <- fn()
		case <-ctx.Done():
		}
	}()
	return out
}

// Files returns the demo test files in load order.
func Files() []registry.File {
	return []registry.File{
		{Name: "math_test", Load: loadMath},
		{Name: "async_test", Load: loadAsync},
	}
}

// Register adds every demo file to reg.
func Register(reg registry.Registry) error {
	for _, f := range Files() {
		if err := reg.Register(f); err != nil {
			return err
		}
	}
	return nil
}

func loadMath(*globals.Context) {
	globals.Test("sum adds numbers", testcase.Sync(func() error {
		return assertion.Expect(Sum(6, 4)).ToBe(10)
	}))

	globals.Test("subtract subtracts numbers", testcase.Sync(func() error {
		return assertion.Expect(Subtract(6, 4)).ToBe(3)
	}))
}

func loadAsync(gc *globals.Context) {
	gc.Test("sum adds two numbers", awaitInt(
		func(ctx context.Context) <-chan int { return SumAsync(ctx, 6, 4) },
		10,
	))

	gc.Test("subtract minuses two numbers", awaitInt(
		func(ctx context.Context) <-chan int { return SubtractAsync(ctx, 6, 4) },
		2,
	))
}

// awaitInt builds a body that waits for the value produced by
// start and checks it against expected. The wait runs inside the
// runner's panic capture, so a panic in start fails the test.
func awaitInt(
	start func(context.Context) <-chan int,
	expected int,
) testcase.Func {
	return func(ctx context.Context) error {
		actual, ok := <-start(ctx)
		if !ok {
			return ctx.Err()
		}
		return assertion.Expect(actual).ToBe(expected)
	}
}
