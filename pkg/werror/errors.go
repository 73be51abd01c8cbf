// Package werror provides error helpers shared across the engine: stack
// traces on internal errors, and a wrapping error that lets a component
// report a stable sentinel to callers while keeping the original cause
// for logs.
package werror

import (
	"errors"
	"fmt"
)

func New(text string) error {
	return errors.New(text)
}

func Errorf(format string, args ...interface{}) error {
	return fmt.Errorf(format, args...)
}

func Is(err, target error) bool {
	return errors.Is(err, target)
}

func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

func Unwrap(err error) error {
	return errors.Unwrap(err)
}
