package errors

import (
	stderrors "errors"
	"fmt"
)

/*
FetchError is returned when a page could not be retrieved. Either Cause is set
(the request never produced a response) or StatusCode is (the server answered
with a failure status).
*/
type FetchError struct {
	URL        string
	StatusCode int
	Cause      error
}

func (e *FetchError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("Failed to fetch %s: %v", e.URL, e.Cause)
	}

	return fmt.Sprintf("Failed to fetch %s - status code %d", e.URL, e.StatusCode)
}

func (e *FetchError) Unwrap() error {
	return e.Cause
}

// FetchDetail is the machine-readable part of a FetchError on the wire.
type FetchDetail struct {
	URL        string `json:"url"`
	StatusCode int    `json:"status,omitempty"`
}

func (e *FetchError) Detail() FetchDetail {
	return FetchDetail{URL: e.URL, StatusCode: e.StatusCode}
}

/*
Internal wraps err as an ErrInternal copy. The message is kept, err stays
reachable through errors.As, and a FetchError also lands in Data.
*/
func Internal(err error) *RpcError {
	rpc := ErrInternal.WithMessagef("%s", err.Error())
	rpc.cause = err

	var fetchErr *FetchError
	if stderrors.As(err, &fetchErr) {
		rpc.Data = fetchErr.Detail()
	}

	return rpc
}
