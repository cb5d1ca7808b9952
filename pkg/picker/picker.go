// Package picker drives a Google Photos Picker session: it creates the
// session, polls it a bounded number of times until the user has finished
// selecting, and fetches the selected media items.
package picker

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/go-training/photos-workshop/pkg/core"
	"github.com/go-training/photos-workshop/pkg/googleapi"
)

// Session is a provider-managed picker session.
type Session struct {
	ID            string        `json:"id"`
	PickerURI     string        `json:"pickerUri"`
	PollingConfig PollingConfig `json:"pollingConfig"`
	ExpireTime    string        `json:"expireTime,omitempty"`
	MediaItemsSet bool          `json:"mediaItemsSet"`
}

// PollingConfig holds the provider's polling hints. They are informational;
// the configured attempts and interval bound the actual polling.
type PollingConfig struct {
	PollInterval string `json:"pollInterval,omitempty"`
	TimeoutIn    string `json:"timeoutIn,omitempty"`
}

// Options is the session options payload sent on creation.
type Options struct {
	// MaxItemCount limits how many items the user may pick. Zero leaves the provider default.
	MaxItemCount int64
}

// PickedMediaItem is one item the user selected.
type PickedMediaItem struct {
	ID         string    `json:"id"`
	CreateTime string    `json:"createTime,omitempty"`
	Type       string    `json:"type,omitempty"`
	MediaFile  MediaFile `json:"mediaFile"`
}

// MediaFile describes the bytes behind a picked item. BaseURL requires the
// bearer token to download.
type MediaFile struct {
	BaseURL  string `json:"baseUrl"`
	MimeType string `json:"mimeType"`
	Filename string `json:"filename"`
}

// PollTimeoutError means the user did not finish selecting within the
// allotted attempts. The caller should start a new picker session.
type PollTimeoutError struct {
	SessionID string
	Attempts  int
}

func (e *PollTimeoutError) Error() string {
	return fmt.Sprintf("picker session %s not ready after %d attempts", e.SessionID, e.Attempts)
}

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Client talks to the Photos Picker API.
type Client struct {
	api   *googleapi.Client
	sleep SleepFunc
}

// Option configures a Client.
type Option func(*Client)

// WithSleep replaces the wait between polls.
func WithSleep(fn SleepFunc) Option {
	return func(c *Client) { c.sleep = fn }
}

// NewClient creates a picker client on top of api.
func NewClient(api *googleapi.Client, opts ...Option) *Client {
	c := &Client{
		api:   api,
		sleep: sleepContext,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

type createRequest struct {
	PickingConfig *pickingConfig `json:"pickingConfig,omitempty"`
}

type pickingConfig struct {
	MaxItemCount string `json:"maxItemCount,omitempty"`
}

// CreateSession starts a new picker session. The user completes the
// selection by visiting the returned PickerURI.
func (c *Client) CreateSession(ctx context.Context, token string, opts Options) (*Session, error) {
	var req createRequest
	if opts.MaxItemCount > 0 {
		req.PickingConfig = &pickingConfig{MaxItemCount: strconv.FormatInt(opts.MaxItemCount, 10)}
	}

	var s Session
	if err := c.api.Post(ctx, token, "/sessions", req, &s); err != nil {
		return nil, fmt.Errorf("create picker session: %w", err)
	}
	core.LoggerFromCtx(ctx).Info("Picker session created", "session_id", s.ID)
	return &s, nil
}

// GetSession reads the current state of a picker session.
func (c *Client) GetSession(ctx context.Context, token, sessionID string) (*Session, error) {
	var s Session
	if err := c.api.Get(ctx, token, "/sessions/"+url.PathEscape(sessionID), nil, &s); err != nil {
		return nil, fmt.Errorf("get picker session: %w", err)
	}
	return &s, nil
}

// PollUntilReady reads the session up to maxAttempts times, waiting interval
// between reads, and returns true as soon as the user has finished selecting.
// It never waits after the last attempt. Exhausting the attempts returns a
// *PollTimeoutError; an API error is returned immediately.
func (c *Client) PollUntilReady(ctx context.Context, token, sessionID string, maxAttempts int, interval time.Duration) (bool, error) {
	if maxAttempts < 1 {
		return false, fmt.Errorf("maxAttempts must be at least 1, got %d", maxAttempts)
	}

	logger := core.LoggerFromCtx(ctx).With("session_id", sessionID)
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		s, err := c.GetSession(ctx, token, sessionID)
		if err != nil {
			return false, err
		}
		if s.MediaItemsSet {
			logger.Info("Picker session ready", "attempt", attempt)
			return true, nil
		}
		logger.Debug("Picker session not ready", "attempt", attempt, "max_attempts", maxAttempts)

		if attempt < maxAttempts {
			if err := c.sleep(ctx, interval); err != nil {
				return false, err
			}
		}
	}

	return false, &PollTimeoutError{SessionID: sessionID, Attempts: maxAttempts}
}

type listItemsResponse struct {
	MediaItems    []PickedMediaItem `json:"mediaItems"`
	NextPageToken string            `json:"nextPageToken"`
}

// FetchSelectedItems returns every item picked in the session, following
// pagination until the provider reports no further page.
func (c *Client) FetchSelectedItems(ctx context.Context, token, sessionID string) ([]PickedMediaItem, error) {
	items := []PickedMediaItem{}
	pageToken := ""
	for {
		q := url.Values{}
		q.Set("sessionId", sessionID)
		q.Set("pageSize", "100")
		if pageToken != "" {
			q.Set("pageToken", pageToken)
		}

		var resp listItemsResponse
		if err := c.api.Get(ctx, token, "/mediaItems", q, &resp); err != nil {
			return nil, fmt.Errorf("list picked media items: %w", err)
		}
		items = append(items, resp.MediaItems...)

		if resp.NextPageToken == "" || resp.NextPageToken == pageToken {
			return items, nil
		}
		pageToken = resp.NextPageToken
	}
}

// DeleteSession releases the session on the provider side.
func (c *Client) DeleteSession(ctx context.Context, token, sessionID string) error {
	if err := c.api.Delete(ctx, token, "/sessions/"+url.PathEscape(sessionID)); err != nil {
		return fmt.Errorf("delete picker session: %w", err)
	}
	return nil
}
