package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/mark3labs/mcp-go/mcp"
	rpcerrors "github.com/theapemachine/jobfinder-mcp/pkg/errors"
)

/*
failure holds the RpcError a tool call ended with. mcp-go reports every
handler error as INTERNAL_ERROR, so the HTTP layer reads this back to put the
real code on the wire.
*/
type failure struct {
	mu  sync.Mutex
	err *rpcerrors.RpcError
}

type failureKey struct{}

func withFailure(ctx context.Context) (context.Context, *failure) {
	f := &failure{}
	return context.WithValue(ctx, failureKey{}, f), f
}

// recordFailure remembers err on the request, if it is an RpcError.
func recordFailure(ctx context.Context, err error) {
	f, ok := ctx.Value(failureKey{}).(*failure)
	if !ok {
		return
	}

	var rpcErr *rpcerrors.RpcError
	if !errors.As(err, &rpcErr) {
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = rpcErr
}

func (f *failure) get() *rpcerrors.RpcError {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

/*
preserveCodes wraps the streamable transport. Plain JSON responses to a POST
are buffered, and an INTERNAL_ERROR reply to a call that failed with an
RpcError is rewritten to carry that error's code, message and data. Event
streams pass through untouched.
*/
func preserveCodes(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			h.ServeHTTP(w, r)
			return
		}

		ctx, f := withFailure(r.Context())
		cw := &codeWriter{ResponseWriter: w}

		h.ServeHTTP(cw, r.WithContext(ctx))
		cw.finish(f.get())
	})
}

type codeWriter struct {
	http.ResponseWriter
	status    int
	buffering bool
	started   bool
	buf       bytes.Buffer
}

func (cw *codeWriter) WriteHeader(status int) {
	if cw.started {
		return
	}

	cw.started = true
	cw.status = status

	if status == http.StatusOK &&
		strings.HasPrefix(cw.Header().Get("Content-Type"), "application/json") {
		cw.buffering = true
		return
	}

	cw.ResponseWriter.WriteHeader(status)
}

func (cw *codeWriter) Write(p []byte) (int, error) {
	if !cw.started {
		cw.WriteHeader(http.StatusOK)
	}

	if cw.buffering {
		return cw.buf.Write(p)
	}

	return cw.ResponseWriter.Write(p)
}

func (cw *codeWriter) Flush() {
	if cw.buffering {
		return
	}

	if flusher, ok := cw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func (cw *codeWriter) finish(rpcErr *rpcerrors.RpcError) {
	if !cw.buffering {
		return
	}

	body := cw.buf.Bytes()

	if rpcErr != nil {
		body = rewriteError(body, rpcErr)
	}

	cw.Header().Del("Content-Length")
	cw.ResponseWriter.WriteHeader(cw.status)

	if _, err := cw.ResponseWriter.Write(body); err != nil {
		log.Warn("failed to write response", "error", err)
	}
}

type errorResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Error   *struct {
		Code int `json:"code"`
	} `json:"error"`
}

// rewriteError swaps the error of an INTERNAL_ERROR response for rpcErr.
func rewriteError(body []byte, rpcErr *rpcerrors.RpcError) []byte {
	var resp errorResponse
	if err := json.Unmarshal(body, &resp); err != nil || resp.Error == nil {
		return body
	}

	if resp.Error.Code != mcp.INTERNAL_ERROR {
		return body
	}

	buf, err := json.Marshal(map[string]any{
		"jsonrpc": resp.JSONRPC,
		"id":      resp.ID,
		"error":   rpcErr,
	})
	if err != nil {
		return body
	}

	return append(buf, '\n')
}
