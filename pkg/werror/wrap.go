package werror

import (
	"errors"
	"fmt"
)

var _ error = &WError{}

// WError pairs a stable sentinel (cerr) with the underlying cause (uerr):
// Is() matches the sentinel, Unwrap() exposes the cause. Use it when a
// component must report one of a small set of classified errors (see the
// taxonomy in errclass) while preserving the driver-level detail for logs.
type WError struct {
	cerr error
	uerr error
}

func (e *WError) Format(st fmt.State, verb rune) {
	switch verb {
	case 'v':
		if st.Flag('+') {
			fmt.Fprintf(st, "%+v: %+v", e.cerr, e.uerr)
		} else {
			fmt.Fprintf(st, "%v: %v", e.cerr, e.uerr)
		}
	case 's':
		fmt.Fprintf(st, "%s: %s", e.cerr, e.uerr)
	}
}

func (e *WError) Error() string {
	return fmt.Sprintf("%s", e)
}

func (e *WError) Is(target error) bool {
	return errors.Is(e.cerr, target)
}

func (e *WError) Unwrap() error {
	return e.uerr
}

// Wrap pairs cerr (the classification callers should match with Is) with
// uerr (the underlying cause). Wrap(nil, _) returns nil.
func Wrap(cerr, uerr error) error {
	if cerr == nil {
		return nil
	}
	return &WError{cerr: cerr, uerr: uerr}
}

// Wrapf is Wrap with the cause built from fmt.Errorf.
func Wrapf(cerr error, msg string, args ...interface{}) error {
	if cerr == nil {
		return nil
	}
	return &WError{cerr: cerr, uerr: fmt.Errorf(msg, args...)}
}
