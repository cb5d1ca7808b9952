// Package googleapi is a small JSON-over-HTTP client for Google REST APIs
// authenticated with a caller supplied OAuth2 access token.
package googleapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-training/photos-workshop/pkg/core"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/oauth2"
)

const tracerName = "github.com/go-training/photos-workshop/pkg/googleapi"

// ErrMissingToken is returned when a call is attempted without an access token.
var ErrMissingToken = errors.New("googleapi: access token is required")

// Client issues bearer-authenticated JSON requests against one API base URL.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tracer     trace.Tracer
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. Its transport is wrapped
// with the bearer token on every call.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// New creates a Client for the given base URL, e.g. https://photoslibrary.googleapis.com/v1.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		tracer: otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the API base URL without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// authorized returns an HTTP client that sets the bearer token on each request.
func (c *Client) authorized(accessToken string) *http.Client {
	return &http.Client{
		Timeout:       c.httpClient.Timeout,
		CheckRedirect: c.httpClient.CheckRedirect,
		Jar:           c.httpClient.Jar,
		Transport: &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"}),
			Base:   c.httpClient.Transport,
		},
	}
}

// Get issues a GET request to path with the given query and decodes the JSON response into out.
func (c *Client) Get(ctx context.Context, accessToken, path string, query url.Values, out any) error {
	return c.Do(ctx, accessToken, http.MethodGet, path, query, nil, out)
}

// Post issues a POST request with a JSON body and decodes the JSON response into out.
func (c *Client) Post(ctx context.Context, accessToken, path string, body, out any) error {
	return c.Do(ctx, accessToken, http.MethodPost, path, nil, body, out)
}

// Delete issues a DELETE request to path.
func (c *Client) Delete(ctx context.Context, accessToken, path string) error {
	return c.Do(ctx, accessToken, http.MethodDelete, path, nil, nil, nil)
}

// Do sends one request. Any non-2xx response is returned as a *ProviderError.
// body is JSON encoded when non-nil; out is decoded from the response when non-nil.
func (c *Client) Do(ctx context.Context, accessToken, method, path string, query url.Values, body, out any) (err error) {
	if accessToken == "" {
		return ErrMissingToken
	}

	ctx, span := c.tracer.Start(ctx, "googleapi "+method+" "+path, trace.WithSpanKind(trace.SpanKindClient))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	span.SetAttributes(
		attribute.String("http.request.method", method),
		attribute.String("url.full", u),
	)

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	logger := core.LoggerFromCtx(ctx)
	start := time.Now()
	resp, err := c.authorized(accessToken).Do(req)
	if err != nil {
		logger.Error("Google API request failed", "method", method, "path", path, "error", err)
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
	logger.Debug("Google API response",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newProviderError(resp.StatusCode, respBody)
	}

	if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to decode %s %s response: %w", method, path, err)
	}
	return nil
}
