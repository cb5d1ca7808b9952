// Package main runs the Google Photos server: a browser OAuth flow and JSON
// API over HTTP, plus the photo tools over MCP (streamable HTTP or stdio).
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/go-training/photos-workshop/pkg/config"
	"github.com/go-training/photos-workshop/pkg/credential"
	"github.com/go-training/photos-workshop/pkg/export"
	"github.com/go-training/photos-workshop/pkg/googleapi"
	"github.com/go-training/photos-workshop/pkg/logger"
	"github.com/go-training/photos-workshop/pkg/operation"
	"github.com/go-training/photos-workshop/pkg/photos"
	"github.com/go-training/photos-workshop/pkg/picker"
	"github.com/go-training/photos-workshop/pkg/store"
	"github.com/go-training/photos-workshop/pkg/web"

	"github.com/appleboy/graceful"
	"github.com/mark3labs/mcp-go/server"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	serverName    = "photos-server"
	serverVersion = "1.0.0"

	// writeMargin is added to the picker polling budget for the API calls
	// made around it.
	writeMargin     = 30 * time.Second
	shutdownTimeout = 10 * time.Second
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	if cfg.Transport == "stdio" {
		logger.NewWithWriter(os.Stderr, cfg.LogLevel)
	} else {
		logger.NewWithLevel(cfg.LogLevel)
	}

	svc := newServices(cfg)
	mcpServer := operation.NewMCPServer(serverName, serverVersion, svc)

	switch cfg.Transport {
	case "stdio":
		if err := operation.ServeStdio(mcpServer); err != nil {
			slog.Error("Server error", "error", err)
			os.Exit(1)
		}
	case "http":
		if err := runHTTP(cfg, svc, mcpServer); err != nil {
			slog.Error("Server error", "error", err)
			os.Exit(1)
		}
	default:
		slog.Error("Invalid transport type", "transport", cfg.Transport)
		os.Exit(1)
	}
}

func newServices(cfg *config.Config) operation.Services {
	pc := picker.NewClient(googleapi.New(cfg.PickerBaseURL, googleapi.WithTimeout(cfg.APITimeout)))
	return operation.Services{
		Photos: photos.NewClient(googleapi.New(cfg.PhotosBaseURL, googleapi.WithTimeout(cfg.APITimeout))),
		Picker: pc,
		Flow:   picker.NewFlow(pc, cfg.PollAttempts, cfg.PollInterval),
	}
}

// oauthConfig builds the Google OAuth client, honoring endpoint overrides.
// Client credentials are sent in the form body.
func oauthConfig(cfg *config.Config) *oauth2.Config {
	endpoint := google.Endpoint
	if cfg.AuthURL != "" {
		endpoint.AuthURL = cfg.AuthURL
	}
	if cfg.TokenURL != "" {
		endpoint.TokenURL = cfg.TokenURL
	}
	endpoint.AuthStyle = oauth2.AuthStyleInParams

	return &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURI,
		Scopes:       cfg.Scopes,
		Endpoint:     endpoint,
	}
}

func runHTTP(cfg *config.Config, svc operation.Services, mcpServer *server.MCPServer) error {
	ln, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", cfg.Addr, err)
	}

	sessions, err := store.NewStore(cfg.Store)
	if err != nil {
		ln.Close()
		return fmt.Errorf("create session store: %w", err)
	}

	opts := web.Options{
		Credentials:  credential.NewManager(oauthConfig(cfg), cfg.Scopes, credential.WithLeeway(cfg.ExpiryLeeway)),
		Photos:       svc.Photos,
		Picker:       svc.Picker,
		Flow:         svc.Flow,
		Store:        sessions,
		MCP:          operation.HTTPHandler(mcpServer),
		CookieName:   cfg.CookieName,
		CookieSecure: cfg.CookieSecure,
		SessionTTL:   cfg.SessionTTL,
	}
	if cfg.EnableExport {
		opts.Exporter = export.New(cfg.DocsBaseURL, cfg.SheetsBaseURL, export.WithTimeout(cfg.APITimeout))
	}

	srv := &http.Server{
		Handler:      web.New(opts).Router(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.PollBudget() + writeMargin,
		IdleTimeout:  60 * time.Second,
	}

	// serveErr carries a Serve failure out of the job, since the manager
	// only reports Done after a shutdown signal.
	serveErr := make(chan error, 1)

	m := graceful.NewManager()
	m.AddRunningJob(func(ctx context.Context) error {
		slog.Info("Photos HTTP server listening",
			"addr", ln.Addr().String(),
			"store", cfg.Store.Type.String(),
			"export", cfg.EnableExport,
		)

		errCh := make(chan error, 1)
		go func() {
			errCh <- srv.Serve(ln)
		}()

		select {
		case err := <-errCh:
			store.Close(sessions)
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			serveErr <- err
			return err
		case <-ctx.Done():
		}

		slog.Info("Shutdown signal received, shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		store.Close(sessions)
		if err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		slog.Info("Server shutdown gracefully")
		return nil
	})

	select {
	case err := <-serveErr:
		return err
	case <-m.Done():
		return nil
	}
}
