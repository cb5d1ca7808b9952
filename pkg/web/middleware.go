package web

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-training/photos-workshop/pkg/core"
	"github.com/go-training/photos-workshop/pkg/store"

	sloggin "github.com/gin-contrib/slog"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const sessionContextKey = "photos.session"

// corsMiddleware sets permissive CORS headers for the MCP endpoint.
// Extra allowed headers are merged with the defaults, case-insensitively.
func corsMiddleware(allowedHeaders ...string) gin.HandlerFunc {
	headers := []string{"Mcp-Protocol-Version", "Mcp-Session-Id", "Authorization", "Content-Type"}
	for _, h := range allowedHeaders {
		h = strings.TrimSpace(h)
		if h != "" && h != "*" && !containsCI(headers, h) {
			headers = append(headers, h)
		}
	}
	allowHeaders := strings.Join(headers, ", ")
	allowMethods := strings.Join([]string{"GET", "POST", "DELETE", "OPTIONS"}, ", ")

	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Vary", "Origin")
		c.Header("Access-Control-Allow-Methods", allowMethods)
		c.Header("Access-Control-Allow-Headers", allowHeaders)
		c.Header("Access-Control-Max-Age", "86400")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// authMiddleware rejects MCP calls without an Authorization header.
func authMiddleware(c *gin.Context) {
	if c.GetHeader("Authorization") == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": "missing_authorization",
			"hint":  "send the Google access token from GET /token as a Bearer token",
		})
		return
	}
	c.Next()
}

// containsCI checks if slice contains item (case-insensitive).
func containsCI(slice []string, item string) bool {
	for _, s := range slice {
		if strings.EqualFold(s, item) {
			return true
		}
	}
	return false
}

// requestID puts a request ID into the request context and echoes it in the
// X-Request-ID response header.
func requestID(c *gin.Context) {
	ctx := core.WithRequestID(c.Request.Context())
	c.Request = c.Request.WithContext(ctx)
	c.Header("X-Request-ID", core.RequestIDFromContext(ctx))
	c.Next()
}

// accessLogger logs one line per request through the request-scoped logger,
// at a level that follows the response status.
func accessLogger() gin.HandlerFunc {
	return sloggin.SetLogger(
		sloggin.WithLogger(func(c *gin.Context, _ *slog.Logger) *slog.Logger {
			return core.LoggerFromCtx(c.Request.Context())
		}),
		sloggin.WithClientErrorLevel(slog.LevelWarn),
		sloggin.WithServerErrorLevel(slog.LevelError),
		sloggin.WithSkipPath([]string{"/healthz"}),
		sloggin.WithMessage("HTTP request"),
	)
}

// sessionMiddleware loads the caller's session before the handler runs and
// saves it afterwards when the handler modified it. Unknown or expired
// session IDs are replaced with a fresh session and a new cookie.
func (s *Server) sessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		logger := core.LoggerFromCtx(ctx)

		var sess *core.Session
		if id, err := c.Cookie(s.cookieName); err == nil && id != "" {
			loaded, err := s.store.GetSession(ctx, id)
			switch {
			case err == nil:
				sess = loaded
			case errors.Is(err, store.ErrSessionNotFound):
				logger.Debug("Session not found, starting a new one")
			default:
				logger.Error("Failed to load session", "error", err)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "session_store_unavailable"})
				return
			}
		}

		if sess == nil {
			sess = core.NewSession(uuid.NewString(), s.sessionTTL)
			s.setSessionCookie(c, sess.ID, int(s.sessionTTL/time.Second))
		}

		c.Set(sessionContextKey, sess)
		c.Request = c.Request.WithContext(core.WithSession(ctx, sess))

		c.Next()

		if !sess.Dirty() {
			return
		}
		if err := s.store.SaveSession(ctx, sess); err != nil {
			logger.Error("Failed to save session", "error", err)
			return
		}
		sess.MarkClean()
	}
}

func (s *Server) setSessionCookie(c *gin.Context, id string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(s.cookieName, id, maxAge, "/", "", s.cookieSecure, true)
}

// session returns the session attached by sessionMiddleware.
func session(c *gin.Context) *core.Session {
	v, _ := c.Get(sessionContextKey)
	sess, _ := v.(*core.Session)
	return sess
}
