package gracht

import (
	"fmt"

	pkgerrors "github.com/pkg/errors"
)

// Kind classifies why an operation failed, per the error model of §7: every
// public entry point returns a status code and preserves the last kind for
// inspection, rather than a grab-bag of unstructured errors.
type Kind int

const (
	// KindInvalidArgument reports a nil reference or out-of-range parameter.
	KindInvalidArgument Kind = iota
	// KindNotSupported reports an operation invalid for the link type in
	// use (e.g. Accept on a datagram link).
	KindNotSupported
	// KindBusy reports re-entrant initialization or a contended pump
	// attempted without Block.
	KindBusy
	// KindNoData reports a clean disconnect or short read distinguished
	// from a protocol violation.
	KindNoData
	// KindOutOfMemory reports arena exhaustion or allocator failure.
	KindOutOfMemory
	// KindNotFound reports an unknown protocol/action, client or message id.
	KindNotFound
	// KindTooBig reports a message exceeding the configured ceiling.
	KindTooBig
)

func (k Kind) String() string {
	switch k {
	case KindInvalidArgument:
		return "invalid argument"
	case KindNotSupported:
		return "not supported"
	case KindBusy:
		return "busy"
	case KindNoData:
		return "no data"
	case KindOutOfMemory:
		return "out of memory"
	case KindNotFound:
		return "not found"
	case KindTooBig:
		return "too big"
	default:
		return "unknown"
	}
}

// Error is gracht's typed error: a Kind plus a human-readable message and
// an optional wrapped cause. Callers that need to branch on failure reason
// should use errors.As against *Error (or the Kind-specific sentinels
// below, which are themselves *Error values usable with errors.Is).
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("gracht: %s: %v", e.Kind, e.Cause)
	}
	return fmt.Sprintf("gracht: %s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// Is lets errors.Is(err, ErrBusy) match any *Error of the same Kind, not
// just the exact sentinel pointer.
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == other.Kind
}

// NewError constructs an *Error. A non-nil cause is wrapped with
// github.com/pkg/errors.Wrap, attaching message and a stack trace to it
// the same way the teacher's runtime/driver code wraps underlying
// failures rather than discarding their context.
func NewError(kind Kind, message string, cause error) *Error {
	if cause != nil {
		cause = pkgerrors.Wrap(cause, message)
	}
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// Sentinel errors for the common cases named throughout the spec. Compare
// with errors.Is; all share the Is method above, so any *Error of a given
// Kind matches its sentinel.
var (
	ErrInvalidArgument = &Error{Kind: KindInvalidArgument, Message: "invalid argument"}
	ErrNotSupported    = &Error{Kind: KindNotSupported, Message: "operation not supported by this link"}
	ErrBusy            = &Error{Kind: KindBusy, Message: "pump already in progress"}
	ErrNoData          = &Error{Kind: KindNoData, Message: "no data available"}
	ErrOutOfMemory     = &Error{Kind: KindOutOfMemory, Message: "arena exhausted"}
	ErrNotFound        = &Error{Kind: KindNotFound, Message: "not found"}
	ErrTooBig          = &Error{Kind: KindTooBig, Message: "message exceeds configured ceiling"}
	ErrShutdown        = &Error{Kind: KindNoData, Message: "client is shutting down"}
)
