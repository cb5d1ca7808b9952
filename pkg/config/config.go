// Package config holds the server configuration, populated from command-line
// flags with environment fallbacks for OAuth client secrets.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-training/photos-workshop/pkg/store"
)

// Google API scopes used by the server.
const (
	ScopePhotosReadonly = "https://www.googleapis.com/auth/photoslibrary.readonly"
	ScopePickerReadonly = "https://www.googleapis.com/auth/photospicker.mediaitems.readonly"
	ScopeDocuments      = "https://www.googleapis.com/auth/documents"
	ScopeSpreadsheets   = "https://www.googleapis.com/auth/spreadsheets"
)

// Default API base URLs.
const (
	DefaultPhotosBaseURL = "https://photoslibrary.googleapis.com/v1"
	DefaultPickerBaseURL = "https://photospicker.googleapis.com/v1"
	DefaultDocsBaseURL   = "https://docs.googleapis.com/"
	DefaultSheetsBaseURL = "https://sheets.googleapis.com/"
)

// Config enumerates everything the server needs to run.
type Config struct {
	Addr      string
	Transport string
	LogLevel  string

	ClientID     string
	ClientSecret string
	RedirectURI  string
	// AuthURL and TokenURL override the Google endpoints when set.
	AuthURL  string
	TokenURL string
	Scopes   []string

	PhotosBaseURL string
	PickerBaseURL string
	DocsBaseURL   string
	SheetsBaseURL string

	PollAttempts int
	PollInterval time.Duration
	// ExpiryLeeway treats tokens as expired this long before their expiry.
	ExpiryLeeway time.Duration
	APITimeout   time.Duration

	EnableExport bool

	Store        store.Config
	SessionTTL   time.Duration
	CookieName   string
	CookieSecure bool
}

// Default returns a configuration with every non-secret field filled in.
func Default() *Config {
	return &Config{
		Addr:          ":8080",
		Transport:     "http",
		RedirectURI:   "http://127.0.0.1:8080/oauth2callback",
		Scopes:        []string{ScopePhotosReadonly, ScopePickerReadonly},
		PhotosBaseURL: DefaultPhotosBaseURL,
		PickerBaseURL: DefaultPickerBaseURL,
		DocsBaseURL:   DefaultDocsBaseURL,
		SheetsBaseURL: DefaultSheetsBaseURL,
		PollAttempts:  10,
		PollInterval:  2 * time.Second,
		ExpiryLeeway:  60 * time.Second,
		APITimeout:    30 * time.Second,
		Store:         store.MemoryConfig(),
		SessionTTL:    24 * time.Hour,
		CookieName:    "photos_session",
	}
}

// Load parses args into a Config. GOOGLE_CLIENT_ID, GOOGLE_CLIENT_SECRET and
// REDIRECT_URI are used when the matching flag is not given.
func Load(args []string) (*Config, error) {
	cfg := Default()
	fs := flag.NewFlagSet("photos-server", flag.ContinueOnError)

	var scopes, storeType string
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "address to listen on")
	fs.StringVar(&cfg.Transport, "transport", cfg.Transport, "Transport type (http or stdio)")
	fs.StringVar(&cfg.Transport, "t", cfg.Transport, "Transport type (http or stdio)")
	fs.StringVar(&cfg.LogLevel, "log-level", "", "Log level (DEBUG, INFO, WARN, ERROR). Defaults to DEBUG in development, INFO in production")
	fs.StringVar(&cfg.ClientID, "client_id", os.Getenv("GOOGLE_CLIENT_ID"), "OAuth 2.0 Client ID")
	fs.StringVar(&cfg.ClientSecret, "client_secret", os.Getenv("GOOGLE_CLIENT_SECRET"), "OAuth 2.0 Client Secret")
	fs.StringVar(&cfg.RedirectURI, "redirect-uri", envOr("REDIRECT_URI", cfg.RedirectURI), "OAuth 2.0 redirect URI")
	fs.StringVar(&cfg.AuthURL, "auth-url", "", "Override the authorization endpoint")
	fs.StringVar(&cfg.TokenURL, "token-url", "", "Override the token endpoint")
	fs.StringVar(&scopes, "scopes", strings.Join(cfg.Scopes, ","), "Comma separated required scopes")
	fs.StringVar(&cfg.PhotosBaseURL, "photos-base-url", cfg.PhotosBaseURL, "Photos Library API base URL")
	fs.StringVar(&cfg.PickerBaseURL, "picker-base-url", cfg.PickerBaseURL, "Photos Picker API base URL")
	fs.StringVar(&cfg.DocsBaseURL, "docs-base-url", cfg.DocsBaseURL, "Docs API endpoint (without the version path)")
	fs.StringVar(&cfg.SheetsBaseURL, "sheets-base-url", cfg.SheetsBaseURL, "Sheets API endpoint (without the version path)")
	fs.IntVar(&cfg.PollAttempts, "poll-attempts", cfg.PollAttempts, "Maximum picker status checks per request")
	fs.DurationVar(&cfg.PollInterval, "poll-interval", cfg.PollInterval, "Delay between picker status checks")
	fs.DurationVar(&cfg.ExpiryLeeway, "expiry-leeway", cfg.ExpiryLeeway, "Refresh tokens this long before they expire")
	fs.DurationVar(&cfg.APITimeout, "api-timeout", cfg.APITimeout, "Timeout of a single Google API call")
	fs.BoolVar(&cfg.EnableExport, "enable-export", false, "Enable Docs and Sheets export (adds their scopes)")
	fs.StringVar(&storeType, "store", cfg.Store.Type.String(), "Store type: memory or redis")
	fs.StringVar(&cfg.Store.Redis.Addr, "redis-addr", "localhost:6379", "Redis address (only used when store=redis)")
	fs.StringVar(&cfg.Store.Redis.Password, "redis-password", "", "Redis password (only used when store=redis)")
	fs.IntVar(&cfg.Store.Redis.DB, "redis-db", 0, "Redis database (only used when store=redis)")
	fs.DurationVar(&cfg.SessionTTL, "session-ttl", cfg.SessionTTL, "Lifetime of a browser session")
	fs.StringVar(&cfg.CookieName, "cookie-name", cfg.CookieName, "Session cookie name")
	fs.BoolVar(&cfg.CookieSecure, "cookie-secure", os.Getenv("ENV") == "production", "Mark the session cookie Secure")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg.Store.Type = store.ParseStoreType(storeType)
	cfg.Scopes = splitScopes(scopes)
	if cfg.EnableExport {
		cfg.Scopes = appendMissing(cfg.Scopes, ScopeDocuments, ScopeSpreadsheets)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports the first configuration problem found.
func (c *Config) Validate() error {
	if c.Transport != "http" && c.Transport != "stdio" {
		return fmt.Errorf("invalid transport type: %s", c.Transport)
	}
	// stdio serves tools with a caller supplied token and needs no OAuth client.
	if c.Transport == "http" {
		if c.ClientID == "" || c.ClientSecret == "" {
			return errors.New("client ID and client secret must be provided")
		}
		if c.RedirectURI == "" {
			return errors.New("redirect URI must be provided")
		}
	}
	if len(c.Scopes) == 0 {
		return errors.New("at least one scope is required")
	}
	if c.PollAttempts < 1 {
		return fmt.Errorf("poll attempts must be at least 1, got %d", c.PollAttempts)
	}
	if c.PollInterval < 0 {
		return fmt.Errorf("poll interval must not be negative, got %s", c.PollInterval)
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("session TTL must be positive, got %s", c.SessionTTL)
	}
	return nil
}

// PollBudget is the longest a single request can spend waiting between picker polls.
func (c *Config) PollBudget() time.Duration {
	return time.Duration(c.PollAttempts-1) * c.PollInterval
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func splitScopes(s string) []string {
	var out []string
	for _, f := range strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' }) {
		out = appendMissing(out, f)
	}
	return out
}

func appendMissing(list []string, items ...string) []string {
	for _, item := range items {
		found := false
		for _, existing := range list {
			if existing == item {
				found = true
				break
			}
		}
		if !found {
			list = append(list, item)
		}
	}
	return list
}
