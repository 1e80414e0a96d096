package pu

import "golang.org/x/xerrors"

// Error kinds reported by processing units.
var (
	ErrDeviceUnavailable = xerrors.New("device unavailable")
	ErrProgramLoad       = xerrors.New("program load failure")
	ErrTransfer          = xerrors.New("transfer failure")
	ErrDispatch          = xerrors.New("dispatch failure")
)

// Error ties a failed device operation to its kind.
type Error struct {
	Kind error
	Op   string
	Err  error
}

func Fail(kind error, op string, err error) error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Op + ": " + e.Kind.Error()
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool { return target == e.Kind }
