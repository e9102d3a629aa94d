// Package assertion provides the expectation helpers used inside test
// bodies. An expectation captures an expected value and compares it
// against an actual value, returning an *Error on mismatch.
package assertion

import (
	"errors"
	"fmt"
)

// Matcher names reported in Error.Matcher.
const (
	MatcherToBe    = "to_be"
	MatcherToEqual = "to_equal"
	MatcherNotToBe = "not_to_be"
)

// Error is the failure signal produced by a mismatched expectation.
// It carries both compared values so reporters can show them.
type Error struct {
	// Matcher is the comparison that failed (e.g., "to_be").
	Matcher string `json:"matcher"`

	// Expected is the value captured by Expect.
	Expected any `json:"expected"`

	// Actual is the value handed to the matcher.
	Actual any `json:"actual"`

	// Diff holds a structural diff for deep comparisons.
	Diff string `json:"diff,omitempty"`

	// Reason explains why the values could not be compared. It is
	// appended to the message.
	Reason string `json:"reason,omitempty"`
}

// Error renders "<expected> does not equal <actual>". Values are
// formatted with %#v so that "2" and 2 read differently.
func (e *Error) Error() string {
	var msg string
	switch e.Matcher {
	case MatcherNotToBe:
		msg = fmt.Sprintf(
			"%#v unexpectedly equals %#v",
			e.Expected, e.Actual,
		)
	default:
		msg = fmt.Sprintf(
			"%#v does not equal %#v",
			e.Expected, e.Actual,
		)
	}

	if e.Reason != "" {
		msg += " (" + e.Reason + ")"
	}
	if e.Diff != "" {
		msg += "\n" + e.Diff
	}
	return msg
}

// AsAssertionError extracts an *Error from err's chain.
func AsAssertionError(err error) (*Error, bool) {
	var ae *Error
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

// IsAssertionError reports whether err wraps an *Error.
func IsAssertionError(err error) bool {
	_, ok := AsAssertionError(err)
	return ok
}
