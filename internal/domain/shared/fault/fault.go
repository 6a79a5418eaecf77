package fault

import (
	"errors"
	"fmt"
)

// Kind classifies an error for callers: it decides both the HTTP status
// and whether a retry can ever help.
type Kind string

const (
	// KindValidation covers malformed input; the caller fixes the request.
	KindValidation Kind = "validation"
	// KindConflict covers contended resources (dates taken, duplicate
	// review); the caller picks different input, never retries as-is.
	KindConflict Kind = "conflict"
	// KindPermission covers unauthorized actors; never retried.
	KindPermission Kind = "permission"
	// KindDependency covers settlement adapter failures and timeouts;
	// retryable once the outcome is known.
	KindDependency Kind = "dependency"
	// KindState covers transitions invalid from the current status;
	// a caller bug, surfaced as-is.
	KindState Kind = "state"
	// KindNotFound covers missing entities.
	KindNotFound Kind = "not_found"
)

// Error carries a kind alongside the message. Sentinel values built
// with New compare with errors.Is, wrapped ones unwrap as usual.
type Error struct {
	kind Kind
	msg  string
	err  error
}

func New(kind Kind, msg string) *Error {
	return &Error{kind: kind, msg: msg}
}

func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{kind: kind, msg: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind to an existing error, preserving the chain.
func Wrap(kind Kind, err error) error {
	if err == nil {
		return nil
	}
	return &Error{kind: kind, msg: err.Error(), err: err}
}

func (e *Error) Error() string {
	return e.msg
}

func (e *Error) Unwrap() error {
	return e.err
}

func (e *Error) Kind() Kind {
	return e.kind
}

// KindOf walks the error chain and returns the first kind found,
// or the empty Kind for untagged errors.
func KindOf(err error) Kind {
	for err != nil {
		var fe *Error
		if errors.As(err, &fe) {
			return fe.kind
		}
		err = errors.Unwrap(err)
	}
	return ""
}

// IsKind reports whether the error chain carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
