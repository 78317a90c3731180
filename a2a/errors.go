package a2a

import "fmt"

// JSON-RPC 2.0 error codes, plus the A2A-specific codes in the reserved
// implementation range.
const (
	CodeParseError        = -32700
	CodeInvalidRequest    = -32600
	CodeMethodNotFound    = -32601
	CodeInvalidParams     = -32602
	CodeInternalError     = -32603
	CodeTaskNotFound      = -32001
	CodeTaskNotCancelable = -32002
)

// Error is a JSON-RPC protocol error. It is recoverable at the transport
// boundary: the server converts it into a JSON-RPC error response and the
// connection stays open for further requests.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("a2a: rpc error %d: %s", e.Code, e.Message)
}

// ErrInvalidParams returns an invalidParams error with the given detail.
func ErrInvalidParams(msg string) *Error {
	return &Error{Code: CodeInvalidParams, Message: msg}
}

// ErrMethodNotFound returns a methodNotFound error for the given method.
func ErrMethodNotFound(method string) *Error {
	return &Error{Code: CodeMethodNotFound, Message: "method not found", Data: method}
}

// ErrInternal wraps an unexpected failure as an internalError.
func ErrInternal(err error) *Error {
	return &Error{Code: CodeInternalError, Message: err.Error()}
}

// ErrTaskNotFound returns a taskNotFound error for the given task id.
func ErrTaskNotFound(id string) *Error {
	return &Error{Code: CodeTaskNotFound, Message: "task not found", Data: id}
}

// ErrTaskNotCancelable returns a taskNotCancelable error for a task in the
// given state.
func ErrTaskNotCancelable(state TaskState) *Error {
	return &Error{Code: CodeTaskNotCancelable, Message: "task cannot be canceled", Data: string(state)}
}
