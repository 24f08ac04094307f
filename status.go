// Package gracht implements a transport-agnostic RPC runtime: compact wire
// framing, a client runtime with an in-flight call table and awaiters, a
// free-list arena, and a server dispatcher with a worker pool and
// subscription-based event fan-out.
//
// Concrete transports, code generation, authentication and encryption are
// left to callers; gracht provides the link.ClientLink / link.ServerLink
// interfaces and two reference implementations (link/inproc, link/tcp).
package gracht

// Status is the lifecycle state of a synchronous in-flight call, and is
// also used as the wire-level status code reported by a link send.
type Status int32

const (
	// StatusError means the call failed at the transport layer, or the
	// server returned a control error event for it.
	StatusError Status = -1
	// StatusCreated means an in-flight descriptor was allocated for the
	// call but send has not yet been attempted.
	StatusCreated Status = 0
	// StatusInProgress means the call was sent and a response is pending.
	StatusInProgress Status = 1
	// StatusCompleted means a response was received and is ready to be
	// claimed by the caller via Status/StatusFinalize.
	StatusCompleted Status = 2
)

func (s Status) String() string {
	switch s {
	case StatusError:
		return "error"
	case StatusCreated:
		return "created"
	case StatusInProgress:
		return "in-progress"
	case StatusCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// Terminal reports whether the status will not change further without
// caller action (it is either a completed response or a terminal error).
func (s Status) Terminal() bool {
	return s == StatusError || s == StatusCompleted
}
