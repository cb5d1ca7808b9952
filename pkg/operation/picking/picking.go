// Package picking provides MCP tools that drive a Google Photos Picker session.
package picking

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/go-training/photos-workshop/pkg/core"
	"github.com/go-training/photos-workshop/pkg/picker"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// CreatePickerSessionTool defines the MCP tool for starting a picker session.
var CreatePickerSessionTool = mcp.NewTool("create_picker_session",
	mcp.WithDescription(`Create a Google Photos Picker session.

Returns the session "id" and a "pickerUri". The user opens pickerUri to select
photos; afterwards call get_picked_items with the id.`),
	mcp.WithNumber("max_item_count",
		mcp.Description("Maximum number of items the user may pick. 0 keeps the provider default."),
		mcp.DefaultNumber(0),
		mcp.Min(0),
	),
)

// GetPickedItemsTool defines the MCP tool for collecting a picker session's selection.
var GetPickedItemsTool = mcp.NewTool("get_picked_items",
	mcp.WithDescription(`Wait briefly for the user to finish picking, then return the selected items.

Polls the session a bounded number of times. If the user has not finished,
the result is an error telling the caller to create a new session.`),
	mcp.WithString("session_id",
		mcp.Description("The id returned by create_picker_session."),
		mcp.Required(),
	),
)

type pickedItems struct {
	State picker.State             `json:"state"`
	Items []picker.PickedMediaItem `json:"items"`
}

// HandleCreatePickerSession returns the create_picker_session handler backed by c.
func HandleCreatePickerSession(c *picker.Client) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		logger := core.LoggerFromCtx(ctx)
		logger.Info("Handling create_picker_session tool")

		token, err := core.TokenFromContext(ctx)
		if err != nil {
			logger.Error("Missing token", "error", err)
			return nil, err
		}

		s, err := c.CreateSession(ctx, token, picker.Options{
			MaxItemCount: int64(req.GetInt("max_item_count", 0)),
		})
		if err != nil {
			return mcp.NewToolResultErrorFromErr("failed to create picker session", err), nil
		}

		data, err := json.Marshal(s)
		if err != nil {
			return nil, err
		}
		return mcp.NewToolResultText(string(data)), nil
	}
}

// HandleGetPickedItems returns the get_picked_items handler backed by flow.
func HandleGetPickedItems(flow *picker.Flow) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		logger := core.LoggerFromCtx(ctx)

		sessionID, err := req.RequireString("session_id")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		token, err := core.TokenFromContext(ctx)
		if err != nil {
			logger.Error("Missing token", "error", err)
			return nil, err
		}

		res, err := flow.Complete(ctx, token, sessionID)
		if err != nil {
			var timeout *picker.PollTimeoutError
			if errors.As(err, &timeout) {
				return mcp.NewToolResultErrorf(
					"the user has not finished picking after %d checks; create a new picker session and try again",
					timeout.Attempts,
				), nil
			}
			return mcp.NewToolResultErrorFromErr("failed to get picked items", err), nil
		}

		data, err := json.Marshal(pickedItems{State: res.State, Items: res.Items})
		if err != nil {
			return nil, err
		}
		return mcp.NewToolResultText(string(data)), nil
	}
}
