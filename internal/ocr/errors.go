package ocr

import (
	"errors"
	"fmt"
)

// ErrorCode classifies extraction failures.
type ErrorCode string

const (
	// CodeImageLoad: the image path is invalid, unreadable or corrupt.
	CodeImageLoad ErrorCode = "IMAGE_LOAD_ERROR"

	// CodeEngineUnavailable: the recognition executable is missing, not
	// executable, or could not be started.
	CodeEngineUnavailable ErrorCode = "ENGINE_UNAVAILABLE"

	// CodeEngineFailure: the engine ran but failed or produced output that
	// could not be read.
	CodeEngineFailure ErrorCode = "ENGINE_FAILURE"
)

// Sentinels for errors.Is. Any *Error with the same code matches.
var (
	ErrImageLoad         = &Error{Code: CodeImageLoad}
	ErrEngineUnavailable = &Error{Code: CodeEngineUnavailable}
	ErrEngineFailure     = &Error{Code: CodeEngineFailure}
)

// Error is returned for every failed extraction. No partial result ever
// accompanies it.
type Error struct {
	Code    ErrorCode
	Message string
	// Path is the image file or engine executable involved, when known.
	Path  string
	Cause error
}

func (e *Error) Error() string {
	msg := string(e.Code)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Path != "" {
		msg += fmt.Sprintf(" (%s)", e.Path)
	}
	if e.Cause != nil {
		msg += fmt.Sprintf(": %v", e.Cause)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error with the same code.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// Fields returns the error as structured log fields.
func (e *Error) Fields() map[string]interface{} {
	fields := map[string]interface{}{
		"error_code": string(e.Code),
	}
	if e.Path != "" {
		fields["path"] = e.Path
	}
	if e.Cause != nil {
		fields["cause"] = e.Cause.Error()
	}
	return fields
}

// CodeOf returns the ErrorCode carried by err, or "" if err is not an *Error.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

func NewImageLoadError(path string, cause error) *Error {
	return &Error{
		Code:    CodeImageLoad,
		Message: "image could not be loaded",
		Path:    path,
		Cause:   cause,
	}
}

func NewEngineUnavailableError(executable string, cause error) *Error {
	return &Error{
		Code:    CodeEngineUnavailable,
		Message: "recognition engine unavailable",
		Path:    executable,
		Cause:   cause,
	}
}

func NewEngineFailureError(message string, cause error) *Error {
	if message == "" {
		message = "recognition engine failed"
	}
	return &Error{
		Code:    CodeEngineFailure,
		Message: message,
		Cause:   cause,
	}
}
