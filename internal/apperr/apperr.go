package apperr

import "errors"

// Kind is the stable machine-readable error category exposed to callers.
type Kind string

const (
	KindNotFound  Kind = "not_found"
	KindConflict  Kind = "conflict"
	KindForbidden Kind = "forbidden"
	KindInvalid   Kind = "invalid"
	KindUpstream  Kind = "upstream"
)

// Error carries a Kind plus a human-readable message and an optional cause.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// NotFound reports an absent user, chat or message.
func NotFound(msg string) error { return &Error{Kind: KindNotFound, Msg: msg} }

// Conflict reports a state collision such as a duplicate request.
func Conflict(msg string) error { return &Error{Kind: KindConflict, Msg: msg} }

// Forbidden reports an operation the caller is not allowed to perform.
func Forbidden(msg string) error { return &Error{Kind: KindForbidden, Msg: msg} }

// Invalid reports a malformed or self-targeting request.
func Invalid(msg string) error { return &Error{Kind: KindInvalid, Msg: msg} }

// Upstream wraps a database or object-storage failure.
func Upstream(msg string, err error) error { return &Error{Kind: KindUpstream, Msg: msg, Err: err} }

// KindOf extracts the Kind from err, defaulting to KindUpstream for plain
// errors bubbling up from collaborators.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUpstream
}
