// Package web serves the browser-facing OAuth flow, the JSON API over the
// user's Google Photos library and the MCP endpoint.
package web

import (
	"net/http"
	"time"

	"github.com/go-training/photos-workshop/pkg/core"
	"github.com/go-training/photos-workshop/pkg/credential"
	"github.com/go-training/photos-workshop/pkg/export"
	"github.com/go-training/photos-workshop/pkg/photos"
	"github.com/go-training/photos-workshop/pkg/picker"

	"github.com/gin-gonic/gin"
)

// Options wires a Server to its collaborators.
type Options struct {
	Credentials *credential.Manager
	Photos      *photos.Client
	Picker      *picker.Client
	Flow        *picker.Flow
	// Exporter is nil when export is disabled.
	Exporter *export.Exporter
	Store    core.Store
	// MCP serves /mcp when set.
	MCP http.Handler

	CookieName   string
	CookieSecure bool
	SessionTTL   time.Duration
}

// Server holds the HTTP handlers.
type Server struct {
	creds    *credential.Manager
	photos   *photos.Client
	picker   *picker.Client
	flow     *picker.Flow
	exporter *export.Exporter
	store    core.Store
	mcp      http.Handler

	cookieName   string
	cookieSecure bool
	sessionTTL   time.Duration
}

// New creates a Server.
func New(opts Options) *Server {
	s := &Server{
		creds:        opts.Credentials,
		photos:       opts.Photos,
		picker:       opts.Picker,
		flow:         opts.Flow,
		exporter:     opts.Exporter,
		store:        opts.Store,
		mcp:          opts.MCP,
		cookieName:   opts.CookieName,
		cookieSecure: opts.CookieSecure,
		sessionTTL:   opts.SessionTTL,
	}
	if s.cookieName == "" {
		s.cookieName = "photos_session"
	}
	if s.sessionTTL <= 0 {
		s.sessionTTL = 24 * time.Hour
	}
	return s
}

// Router builds the gin engine with every route registered.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestID, accessLogger())

	router.GET("/healthz", s.handleHealth)

	sessions := router.Group("/", s.sessionMiddleware())
	sessions.GET("/", s.handleIndex)
	sessions.GET("/authorize", s.handleAuthorize)
	sessions.GET("/oauth2callback", s.handleCallback)
	sessions.GET("/logout", s.handleLogout)
	sessions.GET("/token", s.handleToken)

	sessions.GET("/albums", s.handleAlbums)
	sessions.GET("/media/:id", s.handleMediaItem)

	sessions.POST("/picker/sessions", s.handleCreatePickerSession)
	sessions.GET("/picker/items", s.handlePickedItems)

	sessions.POST("/export/document", s.handleExportDocument)
	sessions.POST("/export/spreadsheet", s.handleExportSpreadsheet)

	router.NoRoute(handleNotFound)

	if s.mcp != nil {
		h := gin.WrapH(s.mcp)
		router.OPTIONS("/mcp", corsMiddleware())
		for _, method := range []string{http.MethodPost, http.MethodGet, http.MethodDelete} {
			router.Handle(method, "/mcp", corsMiddleware(), authMiddleware, h)
		}
	}

	return router
}

func handleNotFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{
		"error":   "not_found",
		"message": "Page not found",
		"path":    c.Request.URL.Path,
	})
}
