package rpc

import "fmt"

// Error is a JSON-RPC error carried inside the result object.
type Error struct {
	Code        int    `json:"error_code"`
	ErrorString string `json:"error"`
	Message     string `json:"error_message"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s (%d): %s", e.ErrorString, e.Code, e.Message)
}

// Error codes.
const (
	codeUnknownMethod = 30
	codeInvalidParams = 31
	codeInternal      = 32
	codeNotFound      = 33
	codeNotSupported  = 34
)

// ErrMethodNotFound reports an unregistered method.
func ErrMethodNotFound(method string) *Error {
	return &Error{
		Code:        codeUnknownMethod,
		ErrorString: "unknownCmd",
		Message:     fmt.Sprintf("Unknown method: %s", method),
	}
}

// ErrInvalidParams reports malformed or missing parameters.
func ErrInvalidParams(msg string) *Error {
	return &Error{
		Code:        codeInvalidParams,
		ErrorString: "invalidParams",
		Message:     msg,
	}
}

// ErrInternal reports a server-side failure.
func ErrInternal(err error) *Error {
	return &Error{
		Code:        codeInternal,
		ErrorString: "internal",
		Message:     err.Error(),
	}
}

// ErrNotFound reports a missing entity.
func ErrNotFound(msg string) *Error {
	return &Error{
		Code:        codeNotFound,
		ErrorString: "entryNotFound",
		Message:     msg,
	}
}

// ErrNotSupported reports an operation the server cannot perform in
// its current mode.
func ErrNotSupported(msg string) *Error {
	return &Error{
		Code:        codeNotSupported,
		ErrorString: "notSupported",
		Message:     msg,
	}
}
