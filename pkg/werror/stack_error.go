package werror

import (
	"errors"
	"fmt"
)

var (
	_ error         = &StackError{}
	_ fmt.Formatter = &StackError{}
)

// StackError wraps an error with the stack at the point it was raised.
// %s and %v print only the message; %+s and %+v additionally print the trace.
type StackError struct {
	err   error
	trace stacktrace
}

// WithStack annotates err with the caller's stack trace. Returns nil for a nil err.
func WithStack(err error) error {
	if err == nil {
		return nil
	}
	return &StackError{err: err, trace: capture(1)}
}

func (e *StackError) Format(st fmt.State, verb rune) {
	switch verb {
	case 'v':
		fmt.Fprintf(st, "%v", e.err)
		if st.Flag('+') {
			e.trace.Format(st, 'v')
		}
	case 's':
		fmt.Fprintf(st, "%s", e.err)
		if st.Flag('+') {
			e.trace.Format(st, 's')
		}
	}
}

func (e *StackError) Error() string {
	return fmt.Sprintf("%s", e)
}

func (e *StackError) Is(target error) bool {
	return errors.Is(e.err, target)
}

func (e *StackError) As(target interface{}) bool {
	return errors.As(e.err, target)
}

func (e *StackError) Unwrap() error {
	return errors.Unwrap(e.err)
}
