package result

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Error is a single failure message located at a property path such as
// "user.products[2]". An empty path designates the value itself.
type Error struct {
	Path    string
	Message string
}

func (e Error) String() string {
	if e.Path == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// Result holds either a value or the list of errors that prevented it.
type Result[T any] struct {
	value T
	errs  []Error
}

// Success wraps a value.
func Success[T any](value T) Result[T] {
	return Result[T]{value: value}
}

// Failure builds a failed result with one error per message, all located at
// the root path.
func Failure[T any](messages ...string) Result[T] {
	if len(messages) == 0 {
		messages = []string{"unknown error"}
	}
	errs := make([]Error, 0, len(messages))
	for _, m := range messages {
		errs = append(errs, Error{Message: m})
	}
	return Result[T]{errs: errs}
}

// Failuref is a convenience around Failure with a formatted message.
func Failuref[T any](format string, args ...any) Result[T] {
	return Failure[T](fmt.Sprintf(format, args...))
}

// FailureAtIndex builds a failure located at the given array index.
func FailureAtIndex[T any](index int, message string) Result[T] {
	return Failure[T](message).ForIndex(index)
}

// FailureAtProperty builds a failure located at the given property.
func FailureAtProperty[T any](name, message string) Result[T] {
	return Failure[T](message).ForProperty(name)
}

// FromErrors builds a result from already located errors. An empty list
// yields a success holding the zero value.
func FromErrors[T any](errs []Error) Result[T] {
	if len(errs) == 0 {
		var zero T
		return Success(zero)
	}
	return Result[T]{errs: slices.Clone(errs)}
}

func (r Result[T]) IsSuccess() bool { return len(r.errs) == 0 }

func (r Result[T]) IsFailure() bool { return len(r.errs) > 0 }

// Value returns the held value. It is the zero value for failures.
func (r Result[T]) Value() T { return r.value }

// Get returns the value and whether the result is a success.
func (r Result[T]) Get() (T, bool) {
	return r.value, r.IsSuccess()
}

// Errors returns a copy of the held errors.
func (r Result[T]) Errors() []Error {
	return slices.Clone(r.errs)
}

// Messages renders every error as "<path>: <message>".
func (r Result[T]) Messages() []string {
	out := make([]string, 0, len(r.errs))
	for _, e := range r.errs {
		out = append(out, e.String())
	}
	return out
}

// Err converts a failure into a Go error. Successes return nil.
func (r Result[T]) Err() error {
	if r.IsSuccess() {
		return nil
	}
	return &FailureError{Errors: r.Errors()}
}

// ForProperty prefixes every error path with the property name.
func (r Result[T]) ForProperty(name string) Result[T] {
	if r.IsSuccess() {
		return r
	}
	return r.relocate(func(path string) string {
		switch {
		case path == "":
			return name
		case strings.HasPrefix(path, "["):
			return name + path
		default:
			return name + "." + path
		}
	})
}

// ForIndex prefixes every error path with "[index]".
func (r Result[T]) ForIndex(index int) Result[T] {
	if r.IsSuccess() {
		return r
	}
	prefix := fmt.Sprintf("[%d]", index)
	return r.relocate(func(path string) string {
		switch {
		case path == "":
			return prefix
		case strings.HasPrefix(path, "["):
			return prefix + path
		default:
			return prefix + "." + path
		}
	})
}

func (r Result[T]) relocate(fn func(string) string) Result[T] {
	errs := make([]Error, len(r.errs))
	for i, e := range r.errs {
		errs[i] = Error{Path: fn(e.Path), Message: e.Message}
	}
	return Result[T]{errs: errs}
}

// CombineWith merges two results without short-circuiting. When both succeed
// the receiver's value is kept, otherwise the errors of both are concatenated.
func (r Result[T]) CombineWith(other Result[T]) Result[T] {
	if r.IsSuccess() && other.IsSuccess() {
		return r
	}
	errs := make([]Error, 0, len(r.errs)+len(other.errs))
	errs = append(errs, r.errs...)
	errs = append(errs, other.errs...)
	return Result[T]{errs: errs}
}

// MapErrors rewrites every error message, keeping paths.
func (r Result[T]) MapErrors(fn func(string) string) Result[T] {
	if r.IsSuccess() {
		return r
	}
	errs := make([]Error, len(r.errs))
	for i, e := range r.errs {
		errs[i] = Error{Path: e.Path, Message: fn(e.Message)}
	}
	return Result[T]{errs: errs}
}

// Map transforms a successful value.
func Map[T, U any](r Result[T], fn func(T) U) Result[U] {
	if r.IsFailure() {
		return Result[U]{errs: r.errs}
	}
	return Success(fn(r.value))
}

// FlatMap chains a fallible step after a successful one.
func FlatMap[T, U any](r Result[T], fn func(T) Result[U]) Result[U] {
	if r.IsFailure() {
		return Result[U]{errs: r.errs}
	}
	return fn(r.value)
}

// Retype reinterprets the type parameter of a result. Failures keep their
// errors; a success becomes a success holding the zero value of U.
func Retype[U, T any](r Result[T]) Result[U] {
	return Result[U]{errs: r.errs}
}

// Accumulate applies fn to every element and combines all outcomes, so that
// the errors of every failing element are reported in one pass.
func Accumulate[E, T any](items []E, fn func(int, E) Result[T]) Result[[]T] {
	values := make([]T, 0, len(items))
	var errs []Error
	for i, item := range items {
		res := fn(i, item)
		if res.IsFailure() {
			errs = append(errs, res.errs...)
			continue
		}
		values = append(values, res.value)
	}
	if len(errs) > 0 {
		return Result[[]T]{errs: errs}
	}
	return Success(values)
}

// AccumulateMap is Accumulate over a map. Keys are visited in sorted order so
// error lists are stable.
func AccumulateMap[K cmp.Ordered, V, T any](m map[K]V, fn func(K, V) Result[T]) Result[map[K]T] {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	values := make(map[K]T, len(m))
	var errs []Error
	for _, k := range keys {
		res := fn(k, m[k])
		if res.IsFailure() {
			errs = append(errs, res.errs...)
			continue
		}
		values[k] = res.value
	}
	if len(errs) > 0 {
		return Result[map[K]T]{errs: errs}
	}
	return Success(values)
}

// FailureError exposes a failed result through the error interface.
type FailureError struct {
	Errors []Error
}

func (e *FailureError) Error() string {
	msgs := make([]string, 0, len(e.Errors))
	for _, err := range e.Errors {
		msgs = append(msgs, err.String())
	}
	return strings.Join(msgs, "; ")
}

// AsFailure extracts the located errors from an error produced by Err.
func AsFailure(err error) ([]Error, bool) {
	var fe *FailureError
	if errors.As(err, &fe) {
		return fe.Errors, true
	}
	return nil, false
}
