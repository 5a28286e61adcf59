// Package agenterr provides the visible error taxonomy of the orchestration
// runtime (spec §6.3). Every error the engine surfaces to a consumer carries
// a stable Kind string suitable for programmatic dispatch, and preserves its
// causal chain for errors.Is/errors.As the way the teacher's toolerrors
// package does (runtime/agent/toolerrors/tool_error.go).
package agenterr

import (
	"errors"
	"fmt"
)

// Kind classifies an Error into one of the stable categories from spec
// §6.3. Kinds are comparable strings so callers can switch on them without
// importing this package's error type directly.
type Kind string

const (
	// KindValidation marks a tool-registry or tool-input validation failure
	// (spec §4.2: bad name, missing description, schema violation).
	KindValidation Kind = "validation_error"
	// KindJSONValidation marks a failure to parse a tool-use input string as
	// JSON once its deltas are concatenated (spec §4.3).
	KindJSONValidation Kind = "json_validation_error"
	// KindContextWindowOverflow marks a modelContextWindowExceeded stop
	// reason with no installed conversation manager to recover it (spec §4.4
	// step 4).
	KindContextWindowOverflow Kind = "context_window_overflow_error"
	// KindMaxTokens classifies a maxTokens stop reason; such a stop does not
	// abort the run (spec §4.4 step 4). The agent loop ends that run as a
	// normal result and does not attach an error of this kind to it.
	KindMaxTokens Kind = "max_tokens_error"
	// KindConcurrentInvocation marks an attempt to invoke an Agent that is
	// already mid-invocation (spec §5 shared-resource policy: the agent's
	// own loop is the sole mutator of its history).
	KindConcurrentInvocation Kind = "concurrent_invocation_error"
	// KindStructuredOutput marks a failure to coerce the model into
	// producing a schema-valid structured output (spec §4.4 "Structured
	// Output").
	KindStructuredOutput Kind = "structured_output_error"
	// KindInterrupt marks the control-flow signal used to pause execution
	// for human input (spec §4.6). It is not always an "error" in the
	// failure sense; it is modeled here because the spec lists it in the
	// same visible taxonomy.
	KindInterrupt Kind = "interrupt_exception"
	// KindSession marks a failure in the session/persistence boundary
	// (explicitly an external collaborator per spec §1, but the error kind
	// is part of the visible taxonomy so adapters can report through it).
	KindSession Kind = "session_exception"
)

// Error is the runtime's structured error type. It preserves a human summary
// and an optional causal chain, mirroring the teacher's ToolError shape,
// plus a Kind for programmatic dispatch.
type Error struct {
	// Kind classifies this error for callers that branch on error category.
	Kind Kind
	// Message is the human-readable summary of the failure.
	Message string
	// Cause links to the underlying error in the chain, enabling
	// errors.Is/As across retries and adapter boundaries.
	Cause error
}

// New constructs an Error of the given kind with the provided message.
func New(kind Kind, message string) *Error {
	if message == "" {
		message = string(kind)
	}
	return &Error{Kind: kind, Message: message}
}

// NewWithCause constructs an Error of the given kind wrapping an underlying
// error. The cause is preserved as-is so errors.As still finds concrete
// wrapped types (e.g. a smithy-go transport error).
func NewWithCause(kind Kind, message string, cause error) *Error {
	if message == "" && cause != nil {
		message = cause.Error()
	}
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// Errorf formats according to a format specifier and returns the result as
// an Error of the given kind.
func Errorf(kind Kind, format string, args ...any) *Error {
	return New(kind, fmt.Sprintf(format, args...))
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause to support errors.Is/As.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Is reports whether target is an *Error with the same Kind, letting callers
// write errors.Is(err, agenterr.New(agenterr.KindValidation, "")) style
// checks, or more idiomatically compare via KindOf below.
func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) {
		return false
	}
	return e.Kind == other.Kind
}

// KindOf extracts the Kind from err if it is (or wraps) an *Error, and
// reports ok=false otherwise.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}
