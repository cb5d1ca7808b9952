package operation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-training/photos-workshop/pkg/core"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

/*
AddRequestAttributes sets attributes on the current trace span, and if no active span,
logs the attributes via slog for observability fallback. Also logs trace/span id for correlation.
*/
func AddRequestAttributes(ctx context.Context, attrs ...attribute.KeyValue) {
	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		span.SetAttributes(attrs...)
		return
	}

	logAttrs := make([]slog.Attr, 0, len(attrs)+3)
	for _, attr := range attrs {
		logAttrs = append(logAttrs, slog.Any(string(attr.Key), attr.Value.AsInterface()))
	}
	logAttrs = append(logAttrs, slog.Bool("observability.fallback", true))
	sc := span.SpanContext()
	if sc.HasTraceID() {
		logAttrs = append(logAttrs, slog.String("trace_id", sc.TraceID().String()))
	}
	if sc.HasSpanID() {
		logAttrs = append(logAttrs, slog.String("span_id", sc.SpanID().String()))
	}
	core.LoggerFromCtx(ctx).LogAttrs(ctx, slog.LevelInfo, "MCP tool attributes", logAttrs...)
}

// ToolHandlerMiddleware records the tool name, status, duration and error of
// every tool call on the current span.
func ToolHandlerMiddleware() server.ToolHandlerMiddleware {
	return func(next server.ToolHandlerFunc) server.ToolHandlerFunc {
		return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			start := time.Now()
			AddRequestAttributes(ctx, attribute.String("mcp.tool", req.Params.Name))

			res, err := next(ctx, req)

			status, errMsg := toolStatus(res, err)
			attrs := []attribute.KeyValue{
				attribute.String("mcp.tool", req.Params.Name),
				attribute.String("mcp.status", status),
				attribute.Float64("mcp.duration_ms", float64(time.Since(start).Microseconds())/1000.0),
			}
			if errMsg != "" {
				attrs = append(attrs, attribute.String("mcp.error", errMsg))
			}
			AddRequestAttributes(ctx, attrs...)

			return res, err
		}
	}
}

func toolStatus(res *mcp.CallToolResult, err error) (string, string) {
	if err != nil {
		return "error", err.Error()
	}
	if res == nil || !res.IsError {
		return "ok", ""
	}
	if len(res.Content) == 0 {
		return "error", "unknown error with no content"
	}
	if txt, ok := res.Content[0].(mcp.TextContent); ok {
		return "error", txt.Text
	}
	return "error", fmt.Sprintf("unknown error with content type %T", res.Content[0])
}
