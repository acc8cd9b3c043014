package planner

import "fmt"

// InvalidInputError reports a bad caller-supplied argument, detected before
// any remote call is made. The caller has to fix the input; retrying the same
// call will fail the same way.
type InvalidInputError struct {
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid input: %s", e.Reason)
}

// InvalidStateError reports an operation invoked out of sequence. This is a
// programming error on the caller's side, never a condition to retry.
type InvalidStateError struct {
	Op    string
	State SessionState
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("%s is not valid in state %s", e.Op, e.State)
}

// ConcurrentUseError reports overlapping operations on a single session. A
// session allows at most one in-flight request; concurrent callers must hold
// their own sessions.
type ConcurrentUseError struct {
	Op string
}

func (e *ConcurrentUseError) Error() string {
	return fmt.Sprintf("%s called while another operation is in flight", e.Op)
}

// TransportError wraps a network or endpoint failure. Transcript and state
// are untouched when it is returned, so the caller can safely retry the same
// operation.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport failure: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// MalformedResponseError means the endpoint replied but the content violates
// the wire contract. Raw carries the offending reply text for diagnostics.
// No transcript mutation happened, so re-issuing the same request is safe.
type MalformedResponseError struct {
	Reason string
	Raw    string
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed response: %s", e.Reason)
}
