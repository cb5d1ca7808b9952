package operation

import (
	"github.com/go-training/photos-workshop/pkg/operation/library"
	"github.com/go-training/photos-workshop/pkg/operation/picking"
	"github.com/go-training/photos-workshop/pkg/operation/token"
	"github.com/go-training/photos-workshop/pkg/photos"
	"github.com/go-training/photos-workshop/pkg/picker"

	"github.com/mark3labs/mcp-go/server"
)

// Services are the API clients the tools call.
type Services struct {
	Photos *photos.Client
	Picker *picker.Client
	Flow   *picker.Flow
}

/*
RegisterPhotoTools registers the Google Photos tools to the specified MCPServer instance.

Parameters:
  - s: Pointer to the MCPServer instance where the tools will be registered.
  - svc: The API clients used by the tool handlers.

Album and media item lookups and picked item retrieval are read operations;
creating a picker session is a write operation.
*/
func RegisterPhotoTools(s *server.MCPServer, svc Services) {
	s.AddTools(PhotoTools(svc).Tools()...)
}

// PhotoTools builds the tool set registered by RegisterPhotoTools.
func PhotoTools(svc Services) *Tool {
	tool := &Tool{}

	tool.RegisterRead(server.ServerTool{
		Tool:    library.ListAlbumsTool,
		Handler: library.HandleListAlbums(svc.Photos),
	})
	tool.RegisterRead(server.ServerTool{
		Tool:    library.GetMediaItemTool,
		Handler: library.HandleGetMediaItem(svc.Photos),
	})
	tool.RegisterWrite(server.ServerTool{
		Tool:    picking.CreatePickerSessionTool,
		Handler: picking.HandleCreatePickerSession(svc.Picker),
	})
	tool.RegisterRead(server.ServerTool{
		Tool:    picking.GetPickedItemsTool,
		Handler: picking.HandleGetPickedItems(svc.Flow),
	})
	tool.RegisterRead(server.ServerTool{
		Tool:    token.ShowAuthTokenTool,
		Handler: token.HandleShowAuthTokenTool,
	})

	return tool
}

/*
Tool manages collections of tools to be registered with an MCPServer.

Fields:
  - write: Stores all ServerTools registered as write operations.
  - read: Stores all ServerTools registered as read operations.
*/
type Tool struct {
	write []server.ServerTool
	read  []server.ServerTool
}

/*
RegisterWrite registers a ServerTool as a write operation.

Parameters:
  - s: The ServerTool instance to register.
*/
func (t *Tool) RegisterWrite(s server.ServerTool) {
	t.write = append(t.write, s)
}

/*
RegisterRead registers a ServerTool as a read operation.

Parameters:
  - s: The ServerTool instance to register.
*/
func (t *Tool) RegisterRead(s server.ServerTool) {
	t.read = append(t.read, s)
}

/*
Tools returns all registered ServerTools.

Returns:
  - []server.ServerTool: A slice containing all write and read tools, with write tools first followed by read tools.
*/
func (t *Tool) Tools() []server.ServerTool {
	tools := make([]server.ServerTool, 0, len(t.write)+len(t.read))
	tools = append(tools, t.write...)
	tools = append(tools, t.read...)
	return tools
}
