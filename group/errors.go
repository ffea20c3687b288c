package group

import "fmt"

// ErrCode is one of a small set of POSIX-style negative error codes.
type ErrCode int

// Error codes mirror familiar errno magnitudes, negated in the style of a
// C function returning -errno.
const (
	ENOMEM     ErrCode = -12
	EPROTO     ErrCode = -71
	EAGAIN     ErrCode = -11
	ECANCELED  ErrCode = -125
)

// Error is a tagged result carrying one of the ErrCode kinds. It replaces
// ad-hoc signalling via negative return values, sentinel seqnos, or bare
// bools with a single typed error callers can inspect with errors.As.
type Error struct {
	Code ErrCode
	Msg  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.codeName(), e.Msg)
}

func (e *Error) codeName() string {
	switch e.Code {
	case ENOMEM:
		return "ENOMEM"
	case EPROTO:
		return "EPROTO"
	case EAGAIN:
		return "EAGAIN"
	case ECANCELED:
		return "ECANCELED"
	default:
		return "EUNKNOWN"
	}
}

func newError(code ErrCode, format string, args ...interface{}) *Error {
	return &Error{Code: code, Msg: fmt.Sprintf(format, args...)}
}

// Is implements errors.Is support by comparing error codes.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}
