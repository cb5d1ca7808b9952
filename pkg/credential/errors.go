package credential

import (
	"errors"
	"strings"
)

// ErrMissingCredentials means the session holds no credential record.
var ErrMissingCredentials = errors.New("credential: no credentials in session")

// ScopeError reports required scopes the grant does not include. Callers
// should clear the session and send the user through authorization again.
type ScopeError struct {
	// Missing lists the absent scopes in requirement order.
	Missing []string
}

func (e *ScopeError) Error() string {
	return "credential: missing required scopes: " + strings.Join(e.Missing, " ")
}

// RefreshError wraps a failed token refresh. The refresh is never retried.
type RefreshError struct {
	Err error
}

func (e *RefreshError) Error() string {
	return "credential: token refresh failed: " + e.Err.Error()
}

func (e *RefreshError) Unwrap() error { return e.Err }
