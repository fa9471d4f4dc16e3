package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorType classifies a fatal error.
type ErrorType string

const (
	ErrorTypeUsage              ErrorType = "USAGE"
	ErrorTypeRevisionResolution ErrorType = "REVISION_RESOLUTION"
	ErrorTypeWorkspace          ErrorType = "WORKSPACE"
	ErrorTypeToolInvocation     ErrorType = "TOOL_INVOCATION"
)

// Exit codes
const (
	ExitSuccess = 0
	ExitUsage   = 1
	ExitFatal   = 128
)

// Error is a classified error carrying an optional cause.
type Error struct {
	Type    ErrorType
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Usage reports malformed arguments, conflicting flags or a missing tool
// configuration.
func Usage(format string, args ...any) *Error {
	return &Error{
		Type:    ErrorTypeUsage,
		Message: fmt.Sprintf(format, args...),
	}
}

// RevisionResolution reports a token that does not name a valid revision.
func RevisionResolution(rev string, err error) *Error {
	return &Error{
		Type:    ErrorTypeRevisionResolution,
		Message: fmt.Sprintf("bad revision '%s'", rev),
		Err:     err,
	}
}

// Workspace reports a failure to create the session workspace or one of its
// side roots.
func Workspace(message string, err error) *Error {
	return &Error{
		Type:    ErrorTypeWorkspace,
		Message: message,
		Err:     err,
	}
}

// ToolInvocation reports that the external tool could not be started. A
// nonzero exit from a tool that did start is not an error.
func ToolInvocation(tool string, err error) *Error {
	return &Error{
		Type:    ErrorTypeToolInvocation,
		Message: fmt.Sprintf("cannot run '%s'", tool),
		Err:     err,
	}
}

// Is reports whether err is an *Error of type t.
func Is(err error, t ErrorType) bool {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Type == t
	}
	return false
}

// ExitCode maps err to a process exit code. nil maps to ExitSuccess and
// unclassified errors are treated as fatal.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	if Is(err, ErrorTypeUsage) {
		return ExitUsage
	}
	return ExitFatal
}
