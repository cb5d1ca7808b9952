// Package credential loads, validates, refreshes and persists a user's Google
// OAuth2 grant, and enforces that it covers the scopes the server requires.
package credential

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-training/photos-workshop/pkg/core"

	"golang.org/x/oauth2"
)

// DefaultLeeway treats a token as expired this long before its expiry.
const DefaultLeeway = 60 * time.Second

// DefaultTokenLifetime is assumed for a refreshed token whose response
// carries no expires_in. Google access tokens live for one hour.
const DefaultTokenLifetime = time.Hour

// Manager validates token bundles against a fixed scope requirement.
type Manager struct {
	config     *oauth2.Config
	required   []string
	leeway     time.Duration
	httpClient *http.Client
	now        func() time.Time
}

// Option configures a Manager.
type Option func(*Manager)

// WithLeeway sets how early a token is considered expired.
func WithLeeway(d time.Duration) Option {
	return func(m *Manager) { m.leeway = d }
}

// WithHTTPClient sets the client used for code exchange and refresh.
func WithHTTPClient(hc *http.Client) Option {
	return func(m *Manager) { m.httpClient = hc }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// NewManager creates a Manager. The required scopes default to cfg.Scopes.
func NewManager(cfg *oauth2.Config, required []string, opts ...Option) *Manager {
	if len(required) == 0 {
		required = cfg.Scopes
	}
	m := &Manager{
		config:   cfg,
		required: append([]string(nil), required...),
		leeway:   DefaultLeeway,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// RequiredScopes returns a copy of the scope requirement.
func (m *Manager) RequiredScopes() []string {
	return append([]string(nil), m.required...)
}

// Now returns the manager's current time.
func (m *Manager) Now() time.Time {
	return m.now()
}

// Expired reports whether b is expired under the manager's clock and leeway.
func (m *Manager) Expired(b *TokenBundle) bool {
	return b.Expired(m.now(), m.leeway)
}

func (m *Manager) context(ctx context.Context) context.Context {
	if m.httpClient != nil {
		return context.WithValue(ctx, oauth2.HTTPClient, m.httpClient)
	}
	return ctx
}

// Validate reports whether b is usable for API calls, refreshing it in place
// at most once when it has expired and carries a refresh token. After a
// refresh b.Refreshed reports true and b must be persisted.
//
// A scope shortfall returns a *ScopeError whatever the token's expiry. A failed
// refresh returns a *RefreshError. An expired bundle without a refresh token
// is reported as invalid without any network call.
func (m *Manager) Validate(ctx context.Context, b *TokenBundle) (bool, error) {
	if !b.wellFormed() {
		return false, nil
	}

	if missing := missingScopes(m.required, b.Scopes); len(missing) > 0 {
		return false, &ScopeError{Missing: missing}
	}

	if !m.Expired(b) {
		return true, nil
	}

	if b.RefreshToken == "" {
		return false, nil
	}

	if err := m.refresh(ctx, b); err != nil {
		return false, err
	}

	if missing := missingScopes(m.required, b.Scopes); len(missing) > 0 {
		return false, &ScopeError{Missing: missing}
	}
	return true, nil
}

// refresh performs exactly one refresh-token grant with the bundle's own
// client credentials and token endpoint.
func (m *Manager) refresh(ctx context.Context, b *TokenBundle) error {
	logger := core.LoggerFromCtx(ctx)

	tokenURL := b.TokenURI
	if tokenURL == "" {
		tokenURL = m.config.Endpoint.TokenURL
	}
	cfg := &oauth2.Config{
		ClientID:     b.ClientID,
		ClientSecret: b.ClientSecret,
		Endpoint: oauth2.Endpoint{
			TokenURL:  tokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}

	// An empty access token forces the source to refresh on the first call.
	tok, err := cfg.TokenSource(m.context(ctx), &oauth2.Token{RefreshToken: b.RefreshToken}).Token()
	if err != nil {
		logger.Error("Token refresh failed", "token_uri", tokenURL, "error", err)
		return &RefreshError{Err: err}
	}

	b.AccessToken = tok.AccessToken
	b.Expiry = tok.Expiry.UTC()
	if tok.Expiry.IsZero() {
		b.Expiry = m.now().Add(DefaultTokenLifetime).UTC()
	}
	b.refreshed = true
	if tok.RefreshToken != "" {
		b.RefreshToken = tok.RefreshToken
	}
	if granted := grantedScopes(tok); len(granted) > 0 {
		b.Scopes = granted
	}

	logger.Info("Token refreshed", "expiry", b.Expiry)
	return nil
}

// AuthCodeURL returns the provider authorization URL requesting offline access
// with a forced consent prompt, so that a refresh token is issued.
func (m *Manager) AuthCodeURL(state string) string {
	return m.config.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.ApprovalForce,
		oauth2.SetAuthURLParam("include_granted_scopes", "true"),
	)
}

// Exchange trades an authorization code for a TokenBundle. The granted scopes
// come from the token response and must cover the requirement.
func (m *Manager) Exchange(ctx context.Context, code string) (*TokenBundle, error) {
	tok, err := m.config.Exchange(m.context(ctx), code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange authorization code: %w", err)
	}

	granted := grantedScopes(tok)
	if len(granted) == 0 {
		granted = append([]string(nil), m.config.Scopes...)
	}

	b := &TokenBundle{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenURI:     m.config.Endpoint.TokenURL,
		ClientID:     m.config.ClientID,
		ClientSecret: m.config.ClientSecret,
		Scopes:       granted,
	}
	if !tok.Expiry.IsZero() {
		b.Expiry = tok.Expiry.UTC()
	}

	if missing := missingScopes(m.required, b.Scopes); len(missing) > 0 {
		return nil, &ScopeError{Missing: missing}
	}
	return b, nil
}

// grantedScopes reads the space separated scope field of a token response.
func grantedScopes(tok *oauth2.Token) []string {
	s, _ := tok.Extra("scope").(string)
	return strings.Fields(s)
}

// NewState returns a random URL-safe value for the OAuth state parameter.
func NewState() string {
	b := make([]byte, 32)
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}
