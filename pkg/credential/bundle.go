package credential

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/go-training/photos-workshop/pkg/core"

	"golang.org/x/oauth2"
)

// TokenBundle is one user's OAuth grant as kept in the session.
type TokenBundle struct {
	AccessToken  string
	RefreshToken string
	TokenURI     string
	ClientID     string
	ClientSecret string
	Scopes       []string
	// Expiry is the zero time when the token does not expire.
	Expiry time.Time

	refreshed bool
}

// Refreshed reports whether Validate replaced the bundle's token.
func (b *TokenBundle) Refreshed() bool {
	return b != nil && b.refreshed
}

// Expired reports whether the access token expires within leeway of now.
func (b *TokenBundle) Expired(now time.Time, leeway time.Duration) bool {
	if b.Expiry.IsZero() {
		return false
	}
	return !now.Add(leeway).Before(b.Expiry)
}

// ExpiresIn returns the whole seconds left until expiry, or 0 when the
// token has no expiry or has already expired.
func (b *TokenBundle) ExpiresIn(now time.Time) int64 {
	if b.Expiry.IsZero() {
		return 0
	}
	d := b.Expiry.Sub(now)
	if d <= 0 {
		return 0
	}
	return int64(d / time.Second)
}

// wellFormed reports whether the access token is present and free of
// whitespace and control characters.
func (b *TokenBundle) wellFormed() bool {
	if b == nil || b.AccessToken == "" {
		return false
	}
	return strings.IndexFunc(b.AccessToken, func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsControl(r)
	}) < 0
}

// Token converts the bundle to an oauth2.Token.
func (b *TokenBundle) Token() *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  b.AccessToken,
		TokenType:    "Bearer",
		RefreshToken: b.RefreshToken,
		Expiry:       b.Expiry,
	}
}

// missingScopes returns required scopes absent from granted, in required order.
func missingScopes(required, granted []string) []string {
	have := make(map[string]struct{}, len(granted))
	for _, s := range granted {
		have[s] = struct{}{}
	}
	var missing []string
	for _, s := range required {
		if _, ok := have[s]; !ok {
			missing = append(missing, s)
		}
	}
	return missing
}

// Load reads the credential record from the session. It returns nil when the
// session holds no access token. No network call is made.
func Load(s *core.Session) (*TokenBundle, error) {
	if !s.HasCredentials() {
		return nil, nil
	}

	b := &TokenBundle{
		AccessToken:  s.Token,
		RefreshToken: s.RefreshToken,
		TokenURI:     s.TokenURI,
		ClientID:     s.ClientID,
		ClientSecret: s.ClientSecret,
		Scopes:       append([]string(nil), s.Scopes...),
	}
	if s.Expiry != "" {
		t, err := time.Parse(time.RFC3339, s.Expiry)
		if err != nil {
			return nil, fmt.Errorf("invalid expiry %q in session: %w", s.Expiry, err)
		}
		b.Expiry = t.UTC()
	}
	return b, nil
}

// Persist writes the bundle back into the session. It must be called after
// any refresh so the new access token survives the request.
func Persist(b *TokenBundle, s *core.Session) {
	s.Token = b.AccessToken
	s.RefreshToken = b.RefreshToken
	s.TokenURI = b.TokenURI
	s.ClientID = b.ClientID
	s.ClientSecret = b.ClientSecret
	s.Scopes = append([]string(nil), b.Scopes...)
	s.Expiry = ""
	if !b.Expiry.IsZero() {
		s.Expiry = b.Expiry.UTC().Format(time.RFC3339)
	}
	s.MarkDirty()
}
