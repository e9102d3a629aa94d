package assertion

import (
	"fmt"

	"github.com/google/go-cmp/cmp"
)

// Expectation wraps the expected value of a single comparison.
type Expectation[T comparable] struct {
	expected T
}

// Expect captures expected for a later comparison.
//
//	if err := assertion.Expect(sum(6, 4)).ToBe(10); err != nil {
//		return err
//	}
func Expect[T comparable](expected T) Expectation[T] {
	return Expectation[T]{expected: expected}
}

// Expected returns the captured value.
func (e Expectation[T]) Expected() T { return e.expected }

// ToBe checks strict equality with ==. When T is an interface type
// the dynamic types must match as well, so "2" never equals 2.
// Dynamic values that cannot be compared produce an error instead
// of a panic.
func (e Expectation[T]) ToBe(actual T) error {
	equal, ok := strictEqual(e.expected, actual)
	if !ok {
		return &Error{
			Matcher:  MatcherToBe,
			Expected: e.expected,
			Actual:   actual,
			Reason: fmt.Sprintf(
				"%T values are not comparable, use ToEqual",
				any(e.expected),
			),
		}
	}
	if equal {
		return nil
	}

	return &Error{
		Matcher:  MatcherToBe,
		Expected: e.expected,
		Actual:   actual,
	}
}

// NotToBe fails when the values are strictly equal.
func (e Expectation[T]) NotToBe(actual T) error {
	equal, ok := strictEqual(e.expected, actual)
	if !ok || !equal {
		return nil
	}

	return &Error{
		Matcher:  MatcherNotToBe,
		Expected: e.expected,
		Actual:   actual,
	}
}

// ToEqual checks structural equality, following pointers. Structs
// with unexported fields are reported as not comparable. The
// failure carries a diff of the two values.
func (e Expectation[T]) ToEqual(actual T) error {
	diff, err := safeDiff(e.expected, actual)
	if err != nil {
		return &Error{
			Matcher:  MatcherToEqual,
			Expected: e.expected,
			Actual:   actual,
			Reason:   err.Error(),
		}
	}
	if diff == "" {
		return nil
	}

	return &Error{
		Matcher:  MatcherToEqual,
		Expected: e.expected,
		Actual:   actual,
		Diff:     diff,
	}
}

func strictEqual[T comparable](a, b T) (equal, comparable bool) {
	defer func() {
		if recover() != nil {
			equal, comparable = false, false
		}
	}()
	return a == b, true
}

// safeDiff runs cmp.Diff, which panics on unexported fields.
func safeDiff(a, b any) (diff string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("cannot diff %T: %v", a, r)
		}
	}()
	return cmp.Diff(a, b), nil
}
