package errors

import "errors"

func BadRequest(format string, args ...any) *Error {
	return New(400, format, args...)
}

func NotFound(format string, args ...any) *Error {
	return New(404, format, args...)
}

func Conflict(format string, args ...any) *Error {
	return New(409, format, args...)
}

func Internal(format string, args ...any) *Error {
	return New(500, format, args...)
}

func NotImplemented(format string, args ...any) *Error {
	return New(501, format, args...)
}

func ServiceUnavailable(format string, args ...any) *Error {
	return New(503, format, args...)
}

// Reasons raised by the live server and its collaborators.
const (
	ReasonInvalidAddress = "INVALID_ADDRESS"
	ReasonInvalidStatic  = "INVALID_STATIC"
	ReasonStartupFailed  = "STARTUP_FAILED"
	ReasonNotSupported   = "NOT_SUPPORTED"
	ReasonNotRunning     = "NOT_RUNNING"
	ReasonAlreadyStarted = "ALREADY_STARTED"
	ReasonThreadSharing  = "THREAD_SHARING"
)

// Reason returns the reason of err if it is an *Error, otherwise "".
func Reason(err error) string {
	var ge *Error
	if errors.As(err, &ge) {
		return ge.Reason
	}
	return ""
}
