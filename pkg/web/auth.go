package web

import (
	"crypto/subtle"
	"errors"
	"net/http"

	"github.com/go-training/photos-workshop/pkg/core"
	"github.com/go-training/photos-workshop/pkg/credential"
	"github.com/go-training/photos-workshop/pkg/store"

	"github.com/gin-gonic/gin"
)

func (s *Server) handleIndex(c *gin.Context) {
	if session(c).HasCredentials() {
		c.Redirect(http.StatusFound, "/albums")
		return
	}
	c.Redirect(http.StatusFound, authorizePath)
}

func (s *Server) handleAuthorize(c *gin.Context) {
	sess := session(c)
	sess.OAuthState = credential.NewState()
	sess.MarkDirty()

	c.Redirect(http.StatusFound, s.creds.AuthCodeURL(sess.OAuthState))
}

func (s *Server) handleCallback(c *gin.Context) {
	sess := session(c)
	ctx := c.Request.Context()
	logger := core.LoggerFromCtx(ctx)

	expected := sess.OAuthState
	sess.OAuthState = ""
	sess.MarkDirty()

	if e := c.Query("error"); e != "" {
		logger.Warn("Authorization denied", "error", e)
		sess.ClearCredentials()
		c.JSON(http.StatusUnauthorized, gin.H{"error": e, "authUrl": authorizePath})
		return
	}

	state := c.Query("state")
	if expected == "" || subtle.ConstantTimeCompare([]byte(state), []byte(expected)) != 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_state", "authUrl": authorizePath})
		return
	}

	code := c.Query("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "code is required"})
		return
	}

	b, err := s.creds.Exchange(ctx, code)
	if err != nil {
		var scopeErr *credential.ScopeError
		if errors.As(err, &scopeErr) {
			s.credentialError(c, err)
			return
		}
		logger.Error("Code exchange failed", "error", err)
		sess.ClearCredentials()
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":   "token_exchange_failed",
			"details": err.Error(),
			"authUrl": authorizePath,
		})
		return
	}

	credential.Persist(b, sess)
	logger.Info("User authorized", "scopes", b.Scopes)
	c.Redirect(http.StatusFound, "/albums")
}

func (s *Server) handleLogout(c *gin.Context) {
	sess := session(c)
	ctx := c.Request.Context()

	if err := s.store.DeleteSession(ctx, sess.ID); err != nil && !errors.Is(err, store.ErrSessionNotFound) {
		core.LoggerFromCtx(ctx).Error("Failed to delete session", "error", err)
	}
	sess.ClearCredentials()
	sess.MarkClean()
	s.setSessionCookie(c, "", -1)

	c.Redirect(http.StatusFound, "/")
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

// handleToken hands the session's access token to browser clients such as
// the picker front-end, refreshing it first when it is about to expire.
func (s *Server) handleToken(c *gin.Context) {
	sess := session(c)
	ctx := c.Request.Context()

	b, err := credential.Load(sess)
	if err != nil {
		sess.ClearCredentials()
	}
	if b == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated", "code": "NO_SESSION"})
		return
	}

	expired := s.creds.Expired(b)
	ok, err := s.creds.Validate(ctx, b)
	if err != nil {
		sess.ClearCredentials()
		var scopeErr *credential.ScopeError
		if errors.As(err, &scopeErr) {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":          "Missing required scopes",
				"code":           "INSUFFICIENT_SCOPE",
				"missing_scopes": scopeErr.Missing,
			})
			return
		}
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":   "Failed to refresh token",
			"code":    "TOKEN_REFRESH_FAILED",
			"details": err.Error(),
		})
		return
	}
	if !ok {
		sess.ClearCredentials()
		if expired && b.RefreshToken == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "No refresh token available", "code": "NO_REFRESH_TOKEN"})
			return
		}
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated", "code": "NO_SESSION"})
		return
	}

	if b.Refreshed() {
		credential.Persist(b, sess)
	}
	c.JSON(http.StatusOK, tokenResponse{
		AccessToken: b.AccessToken,
		ExpiresIn:   b.ExpiresIn(s.creds.Now()),
	})
}

func (s *Server) handleHealth(c *gin.Context) {
	if err := store.Check(c.Request.Context(), s.store); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
