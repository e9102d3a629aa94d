package demo

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"digital.vasic.minitest/pkg/globals"
	"digital.vasic.minitest/pkg/registry"
	"digital.vasic.minitest/pkg/report"
	"digital.vasic.minitest/pkg/runner"
	"digital.vasic.minitest/pkg/testcase"
)

func TestArithmetic(t *testing.T) {
	assert.Equal(t, 10, Sum(6, 4))
	assert.Equal(t, 2, Subtract(6, 4))
	assert.Equal(t, 10, <-SumAsync(context.Background(), 6, 4))
	assert.Equal(t, 2, <-SubtractAsync(context.Background(), 6, 4))
}

func TestAsyncHelperCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, ok := <-SumAsync(ctx, 1, 1)
	assert.False(t, ok)
}

func TestAwaitInt_PanicIsReported(t *testing.T) {
	r := runner.New()
	body := awaitInt(func(context.Context) <-chan int {
		panic("helper blew up")
	}, 1)

	outcome := r.Test(context.Background(), "panics", body)

	require.False(t, outcome.Passed())
	var pe *testcase.PanicError
	assert.ErrorAs(t, outcome.Detail(), &pe)
}

func TestAwaitInt_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := awaitInt(func(ctx context.Context) <-chan int {
		return SumAsync(ctx, 1, 1)
	}, 2)(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRegister(t *testing.T) {
	reg := registry.NewRegistry()
	require.NoError(t, Register(reg))
	assert.Equal(t, 2, reg.Count())

	assert.ErrorIs(t, Register(reg), registry.ErrDuplicateFile)
}

func TestSuite(t *testing.T) {
	t.Cleanup(globals.Uninstall)

	reg := registry.NewRegistry()
	require.NoError(t, Register(reg))

	var out bytes.Buffer
	r := runner.New(runner.WithReporter(report.NewConsoleReporter(&out)))

	results, err := registry.Bootstrap(context.Background(), reg, r)
	require.NoError(t, err)
	require.Len(t, results, 4)

	assert.True(t, results[0].Passed())
	assert.False(t, results[1].Passed())
	assert.Equal(t, "2 does not equal 3", results[1].Error)
	assert.True(t, results[2].Passed())
	assert.True(t, results[3].Passed())

	assert.Equal(t,
		"✅ sum adds numbers\n"+
			"💔 subtract subtracts numbers\n"+
			"    2 does not equal 3\n"+
			"✅ sum adds two numbers\n"+
			"✅ subtract minuses two numbers\n",
		out.String(),
	)
}
