// Package export writes an album listing to a new Google Doc or Google Sheet.
package export

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-training/photos-workshop/pkg/core"
	"github.com/go-training/photos-workshop/pkg/googleapi"
	"github.com/go-training/photos-workshop/pkg/photos"

	"golang.org/x/oauth2"
	docs "google.golang.org/api/docs/v1"
	"google.golang.org/api/option"
	sheets "google.golang.org/api/sheets/v4"
)

// DefaultTitle names exported files when the caller gives no title.
const DefaultTitle = "Google Photos albums"

// Document is a created Google Doc.
type Document struct {
	ID  string `json:"documentId"`
	URL string `json:"url"`
}

// Spreadsheet is a created Google Sheet.
type Spreadsheet struct {
	ID  string `json:"spreadsheetId"`
	URL string `json:"url"`
}

// Exporter creates Docs and Sheets files on behalf of the caller's token.
type Exporter struct {
	docsEndpoint   string
	sheetsEndpoint string
	timeout        time.Duration
	opts           []option.ClientOption
}

// Option configures an Exporter.
type Option func(*Exporter)

// WithTimeout bounds each export, both of its API calls included.
func WithTimeout(d time.Duration) Option {
	return func(e *Exporter) {
		e.timeout = d
	}
}

// WithClientOptions adds options to every Docs and Sheets client.
func WithClientOptions(opts ...option.ClientOption) Option {
	return func(e *Exporter) {
		e.opts = append(e.opts, opts...)
	}
}

// New creates an Exporter. Empty endpoints use the public Google APIs.
func New(docsEndpoint, sheetsEndpoint string, opts ...Option) *Exporter {
	e := &Exporter{
		docsEndpoint:   docsEndpoint,
		sheetsEndpoint: sheetsEndpoint,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Exporter) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, e.timeout)
}

func (e *Exporter) clientOptions(token, endpoint string) []option.ClientOption {
	opts := []option.ClientOption{
		option.WithTokenSource(oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})),
	}
	if endpoint != "" {
		opts = append(opts, option.WithEndpoint(endpoint))
	}
	return append(opts, e.opts...)
}

func titleOrDefault(title string) string {
	if t := strings.TrimSpace(title); t != "" {
		return t
	}
	return DefaultTitle
}

// AlbumsToDocument creates a document listing one album per line.
func (e *Exporter) AlbumsToDocument(ctx context.Context, token, title string, albums []photos.Album) (*Document, error) {
	if token == "" {
		return nil, googleapi.ErrMissingToken
	}
	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	svc, err := docs.NewService(ctx, e.clientOptions(token, e.docsEndpoint)...)
	if err != nil {
		return nil, fmt.Errorf("docs client: %w", err)
	}

	created, err := svc.Documents.Create(&docs.Document{Title: titleOrDefault(title)}).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("create document: %w", googleapi.FromAPIError(err))
	}

	doc := &Document{
		ID:  created.DocumentId,
		URL: "https://docs.google.com/document/d/" + created.DocumentId + "/edit",
	}

	text := albumLines(albums)
	if text == "" {
		return doc, nil
	}

	update := &docs.BatchUpdateDocumentRequest{
		Requests: []*docs.Request{{
			InsertText: &docs.InsertTextRequest{
				Location: &docs.Location{Index: 1},
				Text:     text,
			},
		}},
	}
	if _, err := svc.Documents.BatchUpdate(created.DocumentId, update).Context(ctx).Do(); err != nil {
		return nil, fmt.Errorf("write document: %w", googleapi.FromAPIError(err))
	}

	core.LoggerFromCtx(ctx).Info("Albums exported to document", "document_id", doc.ID, "albums", len(albums))
	return doc, nil
}

func albumLines(albums []photos.Album) string {
	var b strings.Builder
	for _, a := range albums {
		fmt.Fprintf(&b, "%s (%d items)", a.Title, int64(a.MediaItemsCount))
		if a.ProductURL != "" {
			b.WriteString(" ")
			b.WriteString(a.ProductURL)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// AlbumsToSpreadsheet creates a spreadsheet with a header row and one row per album.
func (e *Exporter) AlbumsToSpreadsheet(ctx context.Context, token, title string, albums []photos.Album) (*Spreadsheet, error) {
	if token == "" {
		return nil, googleapi.ErrMissingToken
	}
	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	svc, err := sheets.NewService(ctx, e.clientOptions(token, e.sheetsEndpoint)...)
	if err != nil {
		return nil, fmt.Errorf("sheets client: %w", err)
	}

	created, err := svc.Spreadsheets.Create(&sheets.Spreadsheet{
		Properties: &sheets.SpreadsheetProperties{Title: titleOrDefault(title)},
	}).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("create spreadsheet: %w", googleapi.FromAPIError(err))
	}

	values := [][]interface{}{{"Title", "Items", "Album ID", "URL"}}
	for _, a := range albums {
		values = append(values, []interface{}{
			a.Title,
			strconv.FormatInt(int64(a.MediaItemsCount), 10),
			a.ID,
			a.ProductURL,
		})
	}

	update := &sheets.BatchUpdateValuesRequest{
		ValueInputOption: "RAW",
		Data: []*sheets.ValueRange{{
			Range:  "A1",
			Values: values,
		}},
	}
	if _, err := svc.Spreadsheets.Values.BatchUpdate(created.SpreadsheetId, update).Context(ctx).Do(); err != nil {
		return nil, fmt.Errorf("write spreadsheet: %w", googleapi.FromAPIError(err))
	}

	core.LoggerFromCtx(ctx).Info("Albums exported to spreadsheet", "spreadsheet_id", created.SpreadsheetId, "albums", len(albums))
	return &Spreadsheet{ID: created.SpreadsheetId, URL: created.SpreadsheetUrl}, nil
}
