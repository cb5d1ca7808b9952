// Package library provides MCP tools that read the user's Google Photos library.
package library

import (
	"context"
	"encoding/json"

	"github.com/go-training/photos-workshop/pkg/core"
	"github.com/go-training/photos-workshop/pkg/photos"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// ListAlbumsTool defines the MCP tool for listing albums.
var ListAlbumsTool = mcp.NewTool("list_albums",
	mcp.WithDescription(`List the albums in the user's Google Photos library.

Returns a JSON object with an "albums" array (id, title, productUrl,
mediaItemsCount, coverPhotoBaseUrl) and, when more albums exist, a
"nextPageToken" to pass back as page_token.`),
	mcp.WithReadOnlyHintAnnotation(true),
	mcp.WithNumber("page_size",
		mcp.Description("Number of albums to return (1-50)."),
		mcp.DefaultNumber(photos.DefaultPageSize),
		mcp.Min(1),
		mcp.Max(photos.MaxPageSize),
	),
	mcp.WithString("page_token",
		mcp.Description("Token from a previous call's nextPageToken."),
	),
)

// GetMediaItemTool defines the MCP tool for reading one media item.
var GetMediaItemTool = mcp.NewTool("get_media_item",
	mcp.WithDescription("Get the metadata of a Google Photos media item by id."),
	mcp.WithReadOnlyHintAnnotation(true),
	mcp.WithString("id",
		mcp.Description("The media item id."),
		mcp.Required(),
	),
)

// HandleListAlbums returns the list_albums handler backed by c.
func HandleListAlbums(c *photos.Client) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		logger := core.LoggerFromCtx(ctx)
		logger.Info("Handling list_albums tool")

		token, err := core.TokenFromContext(ctx)
		if err != nil {
			logger.Error("Missing token", "error", err)
			return nil, err
		}

		page, err := c.ListAlbums(ctx, token,
			req.GetInt("page_size", photos.DefaultPageSize),
			req.GetString("page_token", ""),
		)
		if err != nil {
			logger.Error("Failed to list albums", "error", err)
			return mcp.NewToolResultErrorFromErr("failed to list albums", err), nil
		}

		return jsonResult(page)
	}
}

// HandleGetMediaItem returns the get_media_item handler backed by c.
func HandleGetMediaItem(c *photos.Client) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		logger := core.LoggerFromCtx(ctx)

		id, err := req.RequireString("id")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		token, err := core.TokenFromContext(ctx)
		if err != nil {
			logger.Error("Missing token", "error", err)
			return nil, err
		}

		item, err := c.GetMediaItem(ctx, token, id)
		if err != nil {
			logger.Error("Failed to get media item", "id", id, "error", err)
			return mcp.NewToolResultErrorFromErr("failed to get media item", err), nil
		}

		return jsonResult(item)
	}
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(data)), nil
}
