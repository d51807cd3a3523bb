// Package semerr defines the small typed-error taxonomy used across semdesk.
package semerr

import "fmt"

// Code identifies the category of a semdesk error.
type Code string

const (
	// CodeNotFound means a catalog entry (by file or by index) does not exist.
	CodeNotFound Code = "NOT_FOUND"
	// CodeFileNotFound means a path (a file to parse, or a directory passed on the CLI) does not exist on disk.
	CodeFileNotFound Code = "FILE_NOT_FOUND"
	// CodeUnsupportedFileType means the parser has no collaborator for a file's type.
	CodeUnsupportedFileType Code = "UNSUPPORTED_FILE_TYPE"
	// CodeIO wraps a failed filesystem or socket operation.
	CodeIO Code = "IO"
	// CodeConfig means the TOML config file could not be loaded or parsed.
	CodeConfig Code = "CONFIG"
	// CodeInternal is used for invariant violations that should never happen.
	CodeInternal Code = "INTERNAL"
)

// Error is semdesk's single error type. It carries a Code so callers can
// branch on the category without string matching, and an optional Cause
// for unwrapping.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("semdesk: %s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("semdesk: %s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// Is lets errors.Is match on Code alone, ignoring Message/Cause.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// New builds an *Error with no wrapped cause.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap builds an *Error around an existing error.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// NotFound builds a CodeNotFound error for a catalog lookup miss.
func NotFound(message string) *Error {
	return New(CodeNotFound, message)
}

// FileNotFound builds a CodeFileNotFound error for a missing path.
func FileNotFound(path string) *Error {
	return New(CodeFileNotFound, "file not found: "+path)
}

// UnsupportedFileType builds a CodeUnsupportedFileType error for a path the
// parser does not know how to read.
func UnsupportedFileType(path string) *Error {
	return New(CodeUnsupportedFileType, "unsupported file type: "+path)
}

// GetCode returns the Code of err if it is (or wraps) a *Error, else "".
func GetCode(err error) Code {
	var e *Error
	for err != nil {
		if ae, ok := err.(*Error); ok {
			e = ae
			break
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	if e == nil {
		return ""
	}
	return e.Code
}
