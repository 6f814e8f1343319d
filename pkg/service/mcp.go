package service

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/theapemachine/jobfinder-mcp/pkg/auth"
	rpcerrors "github.com/theapemachine/jobfinder-mcp/pkg/errors"
	"github.com/theapemachine/jobfinder-mcp/pkg/metrics"
	"github.com/theapemachine/jobfinder-mcp/pkg/tools"
)

const (
	Name            = "Job Finder MCP Server"
	Version         = "1.0.0"
	Endpoint        = "/mcp"
	MetricsEndpoint = "/metrics"
)

/*
MCPBroker owns the MCP server and the HTTP listener in front of it. Every
request passes the authenticator before the streamable HTTP transport sees it.
*/
type MCPBroker struct {
	srv        *server.MCPServer
	streamable *server.StreamableHTTPServer
	http       *http.Server
	metrics    *metrics.ToolMetrics
}

func NewMCPBroker(addr string, authenticator auth.Authenticator, tt ...tools.Tool) *MCPBroker {
	calls := metrics.NewToolMetrics()

	mcpSrv := server.NewMCPServer(
		Name,
		Version,
		server.WithToolCapabilities(true),
		server.WithToolHandlerMiddleware(traceToolCall(calls)),
		server.WithRecovery(),
		server.WithLogging(),
	)

	tools.Register(mcpSrv, tt...)

	streamable := server.NewStreamableHTTPServer(
		mcpSrv,
		server.WithEndpointPath(Endpoint),
		server.WithHTTPContextFunc(carryGrant),
	)

	mux := http.NewServeMux()
	mux.Handle(Endpoint, auth.Middleware(authenticator, preserveCodes(streamable)))
	mux.Handle(MetricsEndpoint, auth.Middleware(authenticator, calls))

	return &MCPBroker{
		srv:        mcpSrv,
		streamable: streamable,
		http: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
		metrics: calls,
	}
}

// Server exposes the HTTP handler, auth included.
func (b *MCPBroker) Server() http.Handler {
	return b.http.Handler
}

func (b *MCPBroker) Metrics() *metrics.ToolMetrics {
	return b.metrics
}

// Start blocks serving until Shutdown is called.
func (b *MCPBroker) Start() error {
	log.Info("starting MCP server", "addr", "http://"+b.http.Addr+Endpoint)

	if err := b.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

func (b *MCPBroker) Shutdown(ctx context.Context) error {
	if err := b.streamable.Shutdown(ctx); err != nil {
		log.Warn("failed to close MCP sessions", "error", err)
	}

	return b.http.Shutdown(ctx)
}

func carryGrant(ctx context.Context, r *http.Request) context.Context {
	if grant, ok := auth.GrantFromContext(r.Context()); ok {
		return auth.WithGrant(ctx, grant)
	}

	return ctx
}

/*
traceToolCall gives every call its own request id and logger, refuses tools
the caller's grant does not cover, and records the outcome in calls. Failed
calls also leave their RpcError on the request for preserveCodes.
*/
func traceToolCall(calls *metrics.ToolMetrics) server.ToolHandlerMiddleware {
	return func(next server.ToolHandlerFunc) server.ToolHandlerFunc {
		return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			logger := log.With("request", uuid.NewString(), "tool", req.Params.Name)

			if grant, ok := auth.GrantFromContext(ctx); ok {
				logger = logger.With("subject", grant.Subject)

				if !grant.HasScope(req.Params.Name) {
					logger.Warn("tool not in scope")

					err := rpcerrors.ErrAuthRejected.WithMessagef("scope %q not granted", req.Params.Name)
					recordFailure(ctx, err)
					return nil, err
				}
			}

			start := time.Now()
			res, err := next(log.WithContext(ctx, logger), req)
			elapsed := time.Since(start)

			calls.RecordCall(req.Params.Name, err != nil || (res != nil && res.IsError), elapsed)

			if err != nil {
				logger.Error("tool call failed", "duration", elapsed, "error", err)
				recordFailure(ctx, err)
				return res, err
			}

			logger.Info("tool call finished", "duration", elapsed)
			return res, nil
		}
	}
}
