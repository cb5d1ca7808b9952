// Package photos reads albums and media items from the Google Photos Library API.
package photos

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/go-training/photos-workshop/pkg/googleapi"
)

// DefaultPageSize is the album page size used when none is given.
const DefaultPageSize = 50

// MaxPageSize is the largest album page the API accepts.
const MaxPageSize = 50

// Album is a Photos album.
type Album struct {
	ID                    string          `json:"id"`
	Title                 string          `json:"title"`
	ProductURL            string          `json:"productUrl,omitempty"`
	MediaItemsCount       googleapi.Int64 `json:"mediaItemsCount"`
	CoverPhotoBaseURL     string          `json:"coverPhotoBaseUrl,omitempty"`
	CoverPhotoMediaItemID string          `json:"coverPhotoMediaItemId,omitempty"`
}

// AlbumPage is one page of albums.
type AlbumPage struct {
	Albums        []Album `json:"albums"`
	NextPageToken string  `json:"nextPageToken,omitempty"`
}

// MediaItem is a photo or video in the user's library.
type MediaItem struct {
	ID            string        `json:"id"`
	Description   string        `json:"description,omitempty"`
	ProductURL    string        `json:"productUrl,omitempty"`
	BaseURL       string        `json:"baseUrl,omitempty"`
	MimeType      string        `json:"mimeType,omitempty"`
	Filename      string        `json:"filename,omitempty"`
	MediaMetadata MediaMetadata `json:"mediaMetadata"`
}

// MediaMetadata holds the capture details of a media item.
type MediaMetadata struct {
	CreationTime string          `json:"creationTime,omitempty"`
	Width        googleapi.Int64 `json:"width,omitempty"`
	Height       googleapi.Int64 `json:"height,omitempty"`
}

// Client reads from the Photos Library API.
type Client struct {
	api *googleapi.Client
}

// NewClient creates a Photos Library client on top of api.
func NewClient(api *googleapi.Client) *Client {
	return &Client{api: api}
}

// ListAlbums returns one page of the user's albums. A pageSize outside
// 1..MaxPageSize falls back to DefaultPageSize.
func (c *Client) ListAlbums(ctx context.Context, token string, pageSize int, pageToken string) (*AlbumPage, error) {
	if pageSize < 1 || pageSize > MaxPageSize {
		pageSize = DefaultPageSize
	}

	q := url.Values{}
	q.Set("pageSize", strconv.Itoa(pageSize))
	if pageToken != "" {
		q.Set("pageToken", pageToken)
	}

	var page AlbumPage
	if err := c.api.Get(ctx, token, "/albums", q, &page); err != nil {
		return nil, fmt.Errorf("list albums: %w", err)
	}
	if page.Albums == nil {
		page.Albums = []Album{}
	}
	return &page, nil
}

// GetMediaItem returns the metadata of one media item.
func (c *Client) GetMediaItem(ctx context.Context, token, id string) (*MediaItem, error) {
	if id == "" {
		return nil, fmt.Errorf("media item id is required")
	}

	var item MediaItem
	if err := c.api.Get(ctx, token, "/mediaItems/"+url.PathEscape(id), nil, &item); err != nil {
		return nil, fmt.Errorf("get media item: %w", err)
	}
	return &item, nil
}
