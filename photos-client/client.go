// Package main is a command line MCP client for the photos server. It passes
// a Google access token as a Bearer token and calls one photo tool.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"log/slog"
	"net/url"
	"os"
	"os/exec"
	"runtime"
	"time"

	"github.com/go-training/photos-workshop/pkg/logger"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/client/transport"
	"github.com/mark3labs/mcp-go/mcp"
)

// fatalError logs an error message and exits the program with status code 1
// If errors are provided, the first error will be logged with the message
func fatalError(message string, errs ...error) {
	if len(errs) > 0 && errs[0] != nil {
		slog.Error(message, "err", errs[0])
	} else {
		slog.Error(message)
	}
	os.Exit(1)
}

func main() {
	var serverURL, token, toolName, rawArgs string
	var timeout time.Duration
	flag.StringVar(&serverURL, "url", "http://localhost:8080/mcp", "MCP endpoint of the photos server")
	flag.StringVar(&token, "token", os.Getenv("GOOGLE_ACCESS_TOKEN"), "Google access token (see GET /token)")
	flag.StringVar(&toolName, "tool", "list_albums", "Tool to call")
	flag.StringVar(&rawArgs, "args", "{}", "Tool arguments as a JSON object")
	flag.DurationVar(&timeout, "timeout", 2*time.Minute, "Overall timeout")
	flag.Parse()

	logger.NewWithWriter(os.Stderr, "")

	if token == "" {
		authURL := authorizeURL(serverURL)
		slog.Info("No access token given. Sign in, then copy access_token from GET /token", "url", authURL)
		openBrowser(authURL)
		os.Exit(2)
	}

	var args map[string]any
	if err := json.Unmarshal([]byte(rawArgs), &args); err != nil {
		fatalError("Invalid -args JSON", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	c, err := client.NewStreamableHttpClient(serverURL,
		transport.WithHTTPHeaders(map[string]string{"Authorization": "Bearer " + token}),
	)
	if err != nil {
		fatalError("Failed to create client", err)
	}
	if err := c.Start(ctx); err != nil {
		fatalError("Failed to start client", err)
	}
	defer c.Close()

	result, err := c.Initialize(ctx, mcp.InitializeRequest{
		Params: mcp.InitializeParams{
			ProtocolVersion: mcp.LATEST_PROTOCOL_VERSION,
			ClientInfo: mcp.Implementation{
				Name:    "photos-client",
				Version: "1.0.0",
			},
		},
	})
	if err != nil {
		fatalError("Failed to initialize client", err)
	}
	slog.Info("Client initialized",
		"server", result.ServerInfo.Name,
		"version", result.ServerInfo.Version)

	tools, err := c.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		fatalError("Failed to list tools", err)
	}
	for _, tool := range tools.Tools {
		slog.Debug("Available tool", "name", tool.Name)
	}

	slog.Info("Calling tool", "name", toolName)
	toolResult, err := c.CallTool(ctx, mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      toolName,
			Arguments: args,
		},
	})
	if err != nil {
		fatalError("Failed to call tool", err)
	}
	printToolResult(toolResult)
	if toolResult.IsError {
		os.Exit(1)
	}
}

// authorizeURL maps the MCP endpoint onto the server's sign-in page.
func authorizeURL(serverURL string) string {
	u, err := url.Parse(serverURL)
	if err != nil {
		return serverURL
	}
	u.Path = "/authorize"
	u.RawQuery = ""
	return u.String()
}

// printToolResult writes text content to stdout and anything else as JSON.
func printToolResult(result *mcp.CallToolResult) {
	for _, content := range result.Content {
		if textContent, ok := content.(mcp.TextContent); ok {
			os.Stdout.WriteString(textContent.Text + "\n")
			continue
		}
		jsonBytes, _ := json.MarshalIndent(content, "", "  ")
		os.Stdout.Write(append(jsonBytes, '\n'))
	}
}

// openBrowser opens the default browser to the specified URL
func openBrowser(target string) {
	var err error

	switch runtime.GOOS {
	case "linux":
		err = exec.Command("xdg-open", target).Start()
	case "windows":
		err = exec.Command("rundll32", "url.dll,FileProtocolHandler", target).Start()
	case "darwin":
		err = exec.Command("open", target).Start()
	default:
		err = errors.New("unsupported platform")
	}

	if err != nil {
		slog.Error("Failed to open browser", "err", err)
	}
}
