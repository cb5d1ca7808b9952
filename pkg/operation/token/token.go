// Package token provides an MCP tool that shows which Google access token a call carries.
package token

import (
	"context"
	"fmt"

	"github.com/go-training/photos-workshop/pkg/core"

	"github.com/mark3labs/mcp-go/mcp"
)

// ShowAuthTokenTool defines the MCP tool for displaying the current auth token.
var ShowAuthTokenTool = mcp.NewTool("show_auth_token",
	mcp.WithDescription("Show the Google access token of the current call, masked"),
	mcp.WithReadOnlyHintAnnotation(true),
)

// Mask hides all but the first six and last two characters of a token.
func Mask(token string) string {
	switch {
	case len(token) > 8:
		return token[:6] + "****" + token[len(token)-2:]
	case len(token) > 0:
		return "****"
	default:
		return ""
	}
}

// HandleShowAuthTokenTool is an MCP tool handler that returns the current
// auth token from context, masked.
func HandleShowAuthTokenTool(
	ctx context.Context,
	_ mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {
	token, err := core.TokenFromContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("missing token: %v", err)
	}
	return mcp.NewToolResultText(Mask(token)), nil
}
