package dispatch

import "fmt"

// Failure classifies why a request could not be satisfied
type Failure int

const (
	// NotFound means the resolved path does not exist
	NotFound Failure = iota + 1
	// ScriptExecutionFailure means a script could not be run or exited abnormally
	ScriptExecutionFailure
	// ReadFailure means a file or index document could not be read
	ReadFailure
	// UnknownTarget means no rule other than the fallback matched
	UnknownTarget
)

func (f Failure) String() string {
	switch f {
	case NotFound:
		return "not_found"
	case ScriptExecutionFailure:
		return "script_execution_failure"
	case ReadFailure:
		return "read_failure"
	case UnknownTarget:
		return "unknown_target"
	}

	return "unknown"
}

var (
	// ErrNotFound matches every NotFound error with errors.Is
	ErrNotFound = &Error{Failure: NotFound}
	// ErrScriptExecution matches every ScriptExecutionFailure error with errors.Is
	ErrScriptExecution = &Error{Failure: ScriptExecutionFailure}
	// ErrRead matches every ReadFailure error with errors.Is
	ErrRead = &Error{Failure: ReadFailure}
	// ErrUnknownTarget matches every UnknownTarget error with errors.Is
	ErrUnknownTarget = &Error{Failure: UnknownTarget}
)

// Error is returned by the rule chain when a request cannot be satisfied.
// Message is shown to the client on the error page.
type Error struct {
	Failure Failure
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Failure.String()
	}

	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same Failure
func (e *Error) Is(target error) bool {
	// nolint: errorlint // implementing type equality for errors.Is
	t, ok := target.(*Error)
	return ok && t.Failure == e.Failure
}

func notFoundError(rc RequestContext) error {
	return &Error{
		Failure: NotFound,
		Message: fmt.Sprintf("'%s' not found", rc.RequestPath()),
	}
}

func unknownTargetError(rc RequestContext) error {
	return &Error{
		Failure: UnknownTarget,
		Message: fmt.Sprintf("Unknown object '%s'", rc.RequestPath()),
	}
}

func readError(fullPath string, err error) error {
	return &Error{
		Failure: ReadFailure,
		Message: fmt.Sprintf("'%s' cannot be read: %v", fullPath, err),
		Err:     err,
	}
}

func scriptError(err error) error {
	return &Error{
		Failure: ScriptExecutionFailure,
		Message: err.Error(),
		Err:     err,
	}
}
