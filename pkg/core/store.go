package core

import (
	"context"
	"time"
)

// Session is the server-side state of one browser session. It holds the
// serialized token bundle and the identifiers of an in-flight picker session.
// The HTTP layer loads it before each request and saves it afterwards.
type Session struct {
	ID string `json:"id"`

	Token        string   `json:"token,omitempty"`
	RefreshToken string   `json:"refresh_token,omitempty"`
	TokenURI     string   `json:"token_uri,omitempty"`
	ClientID     string   `json:"client_id,omitempty"`
	ClientSecret string   `json:"client_secret,omitempty"`
	Scopes       []string `json:"scopes,omitempty"`
	// Expiry is RFC 3339 in UTC; empty means the token does not expire.
	Expiry string `json:"expiry,omitempty"`

	PickerSessionID string `json:"picker_session_id,omitempty"`
	PickerURI       string `json:"picker_uri,omitempty"`

	// OAuthState is the CSRF state of an authorization redirect in flight.
	OAuthState string `json:"oauth_state,omitempty"`

	CreatedAt int64 `json:"created_at"`
	ExpiresAt int64 `json:"expires_at"`

	dirty bool
}

// NewSession returns an empty session with the given id that expires after ttl.
func NewSession(id string, ttl time.Duration) *Session {
	now := time.Now()
	return &Session{
		ID:        id,
		CreatedAt: now.Unix(),
		ExpiresAt: now.Add(ttl).Unix(),
		dirty:     true,
	}
}

// HasCredentials reports whether the session holds a credential record.
func (s *Session) HasCredentials() bool {
	return s != nil && s.Token != ""
}

// ClearCredentials drops the token bundle and any picker state, keeping the session id.
func (s *Session) ClearCredentials() {
	s.Token = ""
	s.RefreshToken = ""
	s.TokenURI = ""
	s.ClientID = ""
	s.ClientSecret = ""
	s.Scopes = nil
	s.Expiry = ""
	s.ClearPicker()
	s.OAuthState = ""
	s.dirty = true
}

// ClearPicker forgets the current picker session.
func (s *Session) ClearPicker() {
	s.PickerSessionID = ""
	s.PickerURI = ""
	s.dirty = true
}

// MarkDirty flags the session as modified so the HTTP layer saves it.
func (s *Session) MarkDirty() { s.dirty = true }

// Dirty reports whether the session was modified since it was loaded.
func (s *Session) Dirty() bool { return s.dirty }

// MarkClean resets the modification flag after a load or save.
func (s *Session) MarkClean() { s.dirty = false }

// Expired reports whether the session has passed its expiry time.
func (s *Session) Expired() bool {
	return s.ExpiresAt > 0 && time.Now().Unix() > s.ExpiresAt
}

// Store defines the interface for storing and retrieving sessions.
type Store interface {
	SaveSession(ctx context.Context, session *Session) error
	GetSession(ctx context.Context, id string) (*Session, error)
	DeleteSession(ctx context.Context, id string) error
}
