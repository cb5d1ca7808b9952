package web

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-training/photos-workshop/pkg/core"
	"github.com/go-training/photos-workshop/pkg/credential"
	"github.com/go-training/photos-workshop/pkg/googleapi"
	"github.com/go-training/photos-workshop/pkg/picker"

	"github.com/gin-gonic/gin"
)

const authorizePath = "/authorize"

// credentialMode selects how a missing credential is reported.
type credentialMode int

const (
	// redirectToAuthorize sends browsers to the consent flow.
	redirectToAuthorize credentialMode = iota
	// respondUnauthorized answers API callers with a 401 JSON body.
	respondUnauthorized
)

// accessToken returns a valid access token for the session, refreshing it if
// needed. When it returns false the response has already been written.
func (s *Server) accessToken(c *gin.Context, mode credentialMode) (string, bool) {
	sess := session(c)
	ctx := c.Request.Context()
	logger := core.LoggerFromCtx(ctx)

	b, err := credential.Load(sess)
	if err != nil {
		logger.Warn("Discarding unreadable credentials", "error", err)
		sess.ClearCredentials()
		b = nil
	}
	if b == nil {
		s.missingCredentials(c, mode)
		return "", false
	}

	ok, err := s.creds.Validate(ctx, b)
	if err != nil {
		s.credentialError(c, err)
		return "", false
	}
	if !ok {
		sess.ClearCredentials()
		s.missingCredentials(c, mode)
		return "", false
	}

	if b.Refreshed() {
		credential.Persist(b, sess)
	}
	return b.AccessToken, true
}

func (s *Server) missingCredentials(c *gin.Context, mode credentialMode) {
	if mode == redirectToAuthorize {
		c.Redirect(http.StatusFound, authorizePath)
		c.Abort()
		return
	}
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error":   "not_authenticated",
		"authUrl": authorizePath,
	})
}

// credentialError clears the session and reports a scope or refresh failure.
func (s *Server) credentialError(c *gin.Context, err error) {
	session(c).ClearCredentials()
	logger := core.LoggerFromCtx(c.Request.Context())

	var scopeErr *credential.ScopeError
	if errors.As(err, &scopeErr) {
		logger.Warn("Credentials lack required scopes", "missing", scopeErr.Missing)
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"error":          "insufficient_scope",
			"missing_scopes": scopeErr.Missing,
			"authUrl":        authorizePath,
		})
		return
	}

	var refreshErr *credential.RefreshError
	if errors.As(err, &refreshErr) {
		logger.Warn("Token refresh failed", "error", refreshErr.Err)
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error":   "token_refresh_failed",
			"details": refreshErr.Err.Error(),
			"authUrl": authorizePath,
		})
		return
	}

	logger.Error("Credential validation failed", "error", err)
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "credential_error", "details": err.Error()})
}

// apiError maps a provider, polling or transport error onto the response.
func apiError(c *gin.Context, err error) {
	logger := core.LoggerFromCtx(c.Request.Context())
	_ = c.Error(err)

	if pe, ok := googleapi.AsProviderError(err); ok {
		c.AbortWithStatusJSON(pe.StatusCode, gin.H{
			"error":  pe.Message,
			"status": pe.Status,
		})
		return
	}

	var timeout *picker.PollTimeoutError
	if errors.As(err, &timeout) {
		c.AbortWithStatusJSON(http.StatusRequestTimeout, gin.H{
			"error":    "picker_timeout",
			"message":  "The selection was not completed in time. Start a new picker session and try again.",
			"attempts": timeout.Attempts,
			"restart":  "POST /picker/sessions",
		})
		return
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		c.AbortWithStatusJSON(http.StatusGatewayTimeout, gin.H{"error": "upstream_timeout", "details": err.Error()})
		return
	}

	logger.Error("Google API call failed", "error", err)
	c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": "upstream_error", "details": err.Error()})
}
