package fault

import (
	"fmt"

	"github.com/pkg/errors"
)

type Kind int

const (
	KindInternal Kind = iota
	KindDecode
	KindOversize
	KindValidation
	KindDispatch
)

func (k Kind) String() string {
	switch k {
	case KindDecode:
		return "decode"
	case KindOversize:
		return "oversize"
	case KindValidation:
		return "validation"
	case KindDispatch:
		return "dispatch"
	}
	return "internal"
}

// Error is the single error type that crosses package boundaries in the
// print pipeline. Callers branch on Kind, never on the message.
type Error struct {
	Kind Kind
	Op   string
	Err  error
	// Attempted is only meaningful for KindDispatch: false means the payload
	// never reached the spooler.
	Attempted bool
}

func (e *Error) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func wrap(kind Kind, op string, err error) *Error {
	if err == nil {
		err = errors.New(kind.String())
	}
	return &Error{Kind: kind, Op: op, Err: errors.WithStack(err)}
}

func Decode(err error) error {
	return wrap(KindDecode, "decode", err)
}

func Oversize(size, limit int64) error {
	return wrap(KindOversize, "upload", errors.Errorf("%d bytes exceeds limit of %d bytes", size, limit))
}

func Validation(op string, err error) error {
	return wrap(KindValidation, op, err)
}

func Validationf(op string, format string, args ...interface{}) error {
	return wrap(KindValidation, op, errors.Errorf(format, args...))
}

func Dispatch(err error, attempted bool) error {
	e := wrap(KindDispatch, "spool", err)
	e.Attempted = attempted
	return e
}

func Internal(op string, err error) error {
	return wrap(KindInternal, op, err)
}

func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Attempted reports whether a dispatch failure happened after the payload was
// handed to the device or spooler.
func Attempted(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Attempted
	}
	return false
}

// Public returns a message that is safe to show to the caller. Internal
// errors never leak their detail.
func Public(err error) string {
	var e *Error
	if !errors.As(err, &e) || e.Kind == KindInternal {
		return "internal server error"
	}
	switch e.Kind {
	case KindDecode:
		return "invalid image file"
	case KindOversize:
		return "file too large"
	case KindDispatch:
		return "printer error"
	}
	return errors.Cause(e.Err).Error()
}
