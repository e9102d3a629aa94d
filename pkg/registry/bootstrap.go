package registry

import (
	"context"
	"errors"
	"fmt"

	"digital.vasic.minitest/pkg/globals"
	"digital.vasic.minitest/pkg/runner"
	"digital.vasic.minitest/pkg/testcase"
)

// Bootstrap installs a context for r, then loads every file of reg
// in registration order. Installation always happens before the
// first file is loaded. A file whose Load panics outside a test is
// skipped for the rest of its body; the remaining files still load
// and the panics are returned joined. The results of the tests run
// during this call are returned in order.
func Bootstrap(
	ctx context.Context,
	reg Registry,
	r *runner.Runner,
) ([]*testcase.Result, error) {
	gc := globals.NewContext(ctx, r)
	globals.Install(gc)

	before := len(r.Results())

	var errs []error
	for _, f := range reg.List() {
		err := testcase.Capture(func() error {
			f.Load(gc)
			return nil
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("load %s: %w", f.Name, err))
		}
	}

	return r.Results()[before:], errors.Join(errs...)
}
