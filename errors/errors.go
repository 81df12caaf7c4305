package errors

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
)

const (
	UnknownCode = 500
)

// Error is a Status with an optional cause. Every With* method returns a copy,
// so package-level sentinels can be refined without being mutated.
type Error struct {
	Status
	cause error
}

func (e *Error) Error() string {
	var msg strings.Builder
	msg.WriteString("code=")
	msg.WriteString(strconv.Itoa(int(e.Code)))
	if e.Reason != "" {
		msg.WriteString(" │ reason=")
		msg.WriteString(e.Reason)
	}
	msg.WriteString(" │ message=")
	msg.WriteString(e.Message)

	if len(e.Metadata) > 0 {
		msg.WriteString(" │ metadata={")
		for i, k := range slices.Sorted(maps.Keys(e.Metadata)) {
			if i > 0 {
				msg.WriteString(", ")
			}
			msg.WriteString(k)
			msg.WriteString("=")
			msg.WriteString(e.Metadata[k])
		}
		msg.WriteString("}")
	}

	if e.cause != nil {
		msg.WriteString(" │ cause=")
		msg.WriteString(e.cause.Error())
	}

	return msg.String()
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Is reports whether err is an *Error with the same code and reason.
// Errors without a reason fall back to comparing messages.
func (e *Error) Is(err error) bool {
	ge, ok := err.(*Error)
	if !ok {
		return false
	}
	if e.Code != ge.Code {
		return false
	}
	if e.Reason != "" || ge.Reason != "" {
		return e.Reason == ge.Reason
	}
	return e.Message == ge.Message
}

// WithMetadata merges m into a copy of e.
func (e *Error) WithMetadata(m map[string]string) *Error {
	if len(m) == 0 {
		return e
	}

	err := e.clone()
	if err.Metadata == nil {
		err.Metadata = make(map[string]string, len(m))
	}
	maps.Copy(err.Metadata, m)
	return err
}

// WithReason sets the machine-readable reason Is matches on.
func (e *Error) WithReason(reason string) *Error {
	err := e.clone()
	err.Reason = reason
	return err
}

func (e *Error) WithCause(cause error) *Error {
	if cause == nil {
		return e
	}

	err := e.clone()
	err.cause = cause
	return err
}

func (e *Error) clone() *Error {
	err := &Error{Status: e.Status, cause: e.cause}
	if len(e.Metadata) > 0 {
		err.Metadata = maps.Clone(e.Metadata)
	} else {
		err.Metadata = nil
	}
	return err
}

// GetMetadata returns a copy of the metadata.
func (e *Error) GetMetadata() map[string]string {
	if len(e.Metadata) == 0 {
		return nil
	}
	return maps.Clone(e.Metadata)
}

// New creates an Error; format is used verbatim when there are no args.
func New(code int, format string, args ...any) *Error {
	message := format
	if len(args) > 0 {
		message = fmt.Sprintf(format, args...)
	}

	return &Error{
		Status: Status{
			Code:    int32(code),
			Message: message,
		},
	}
}

// FromError returns the *Error in err's chain, or wraps err with UnknownCode.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}

	var ge *Error
	if errors.As(err, &ge) {
		return ge
	}

	return New(UnknownCode, "%v", err)
}
