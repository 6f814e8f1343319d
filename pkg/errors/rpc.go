package errors

import (
	"encoding/json"
	"fmt"
)

/*
RpcError represents a JSON-RPC error response.
*/
type RpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`

	cause error
}

/*
Error implements the error interface for RpcError.
*/
func (e *RpcError) Error() string {
	return fmt.Sprintf("RPC error %d: %s", e.Code, e.Message)
}

// Unwrap returns the error this one was built from, if any.
func (e *RpcError) Unwrap() error {
	return e.cause
}

// JSON-RPC reserved codes (-32700 .. -32600) plus the server range we use.
var (
	ErrParseError     = &RpcError{Code: -32700, Message: "Parse error"}
	ErrInvalidRequest = &RpcError{Code: -32600, Message: "Invalid Request"}
	ErrMethodNotFound = &RpcError{Code: -32601, Message: "Method not found"}
	ErrInvalidParams  = &RpcError{Code: -32602, Message: "Invalid params"}
	ErrInternal       = &RpcError{Code: -32603, Message: "Internal error"}

	ErrAuthRejected = &RpcError{Code: -32001, Message: "Unauthorized"}
)

// WithMessagef creates a *copy* of an RpcError with a formatted message.
// It does not modify the original error variable.
func (e *RpcError) WithMessagef(format string, args ...any) *RpcError {
	newErr := *e
	newErr.Message = fmt.Sprintf(format, args...)
	return &newErr
}

// Is reports whether target carries the same code, so callers can match a
// copy made by WithMessagef against the sentinel with errors.Is.
func (e *RpcError) Is(target error) bool {
	t, ok := target.(*RpcError)
	if !ok {
		return false
	}

	return e.Code == t.Code
}

/*
Envelope renders the error as a complete JSON-RPC response body with a null id,
for transports that have to reject a request before it is parsed.
*/
func (e *RpcError) Envelope() []byte {
	buf, _ := json.Marshal(map[string]any{
		"jsonrpc": "2.0",
		"id":      nil,
		"error":   e,
	})

	return buf
}
