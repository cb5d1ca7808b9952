package operation

import (
	"context"
	"net/http"
	"time"

	"github.com/go-training/photos-workshop/pkg/core"

	"github.com/mark3labs/mcp-go/server"
)

// NewMCPServer creates an MCP server exposing the photo tools.
func NewMCPServer(name, version string, svc Services) *server.MCPServer {
	s := server.NewMCPServer(
		name,
		version,
		server.WithToolCapabilities(true),
		server.WithLogging(),
		server.WithRecovery(),
		server.WithToolHandlerMiddleware(ToolHandlerMiddleware()),
	)
	RegisterPhotoTools(s, svc)
	return s
}

// httpContext injects the bearer token and a request ID into each HTTP tool call.
func httpContext(ctx context.Context, r *http.Request) context.Context {
	return core.AuthFromRequest(core.WithRequestID(ctx), r)
}

// stdioContext injects GOOGLE_ACCESS_TOKEN and a request ID into each stdio tool call.
func stdioContext(ctx context.Context) context.Context {
	return core.AuthFromEnv(core.WithRequestID(ctx))
}

// HTTPHandler returns a streamable HTTP handler that passes the caller's
// Authorization header through to the tools.
func HTTPHandler(s *server.MCPServer) *server.StreamableHTTPServer {
	return server.NewStreamableHTTPServer(s,
		server.WithHeartbeatInterval(30*time.Second),
		server.WithHTTPContextFunc(httpContext),
	)
}

// ServeStdio serves s over stdio with the token taken from the environment.
func ServeStdio(s *server.MCPServer) error {
	return server.ServeStdio(s, server.WithStdioContextFunc(stdioContext))
}
