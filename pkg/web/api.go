package web

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-training/photos-workshop/pkg/photos"
	"github.com/go-training/photos-workshop/pkg/picker"

	"github.com/gin-gonic/gin"
)

func (s *Server) handleAlbums(c *gin.Context) {
	token, ok := s.accessToken(c, redirectToAuthorize)
	if !ok {
		return
	}

	pageSize := photos.DefaultPageSize
	if v := c.Query("pageSize"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > photos.MaxPageSize {
			c.JSON(http.StatusBadRequest, gin.H{"error": "pageSize must be between 1 and 50"})
			return
		}
		pageSize = n
	}

	page, err := s.photos.ListAlbums(c.Request.Context(), token, pageSize, c.Query("pageToken"))
	if err != nil {
		apiError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (s *Server) handleMediaItem(c *gin.Context) {
	token, ok := s.accessToken(c, redirectToAuthorize)
	if !ok {
		return
	}

	item, err := s.photos.GetMediaItem(c.Request.Context(), token, c.Param("id"))
	if err != nil {
		apiError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

type createPickerRequest struct {
	MaxItemCount int64 `json:"maxItemCount" binding:"gte=0"`
}

func (s *Server) handleCreatePickerSession(c *gin.Context) {
	token, ok := s.accessToken(c, respondUnauthorized)
	if !ok {
		return
	}

	var req createPickerRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	ps, state, err := s.flow.Start(c.Request.Context(), token, picker.Options{MaxItemCount: req.MaxItemCount})
	if err != nil {
		apiError(c, err)
		return
	}

	sess := session(c)
	sess.PickerSessionID = ps.ID
	sess.PickerURI = ps.PickerURI
	sess.MarkDirty()

	c.JSON(http.StatusCreated, gin.H{
		"id":            ps.ID,
		"pickerUri":     ps.PickerURI,
		"state":         state,
		"pollingConfig": ps.PollingConfig,
		"expireTime":    ps.ExpireTime,
	})
}

func (s *Server) handlePickedItems(c *gin.Context) {
	token, ok := s.accessToken(c, respondUnauthorized)
	if !ok {
		return
	}

	sess := session(c)
	sessionID := c.Query("sessionId")
	if sessionID == "" {
		sessionID = sess.PickerSessionID
	}
	if sessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "no_picker_session",
			"restart": "POST /picker/sessions",
		})
		return
	}

	res, err := s.flow.Complete(c.Request.Context(), token, sessionID)
	if err != nil {
		var timeout *picker.PollTimeoutError
		if errors.As(err, &timeout) && sessionID == sess.PickerSessionID {
			sess.ClearPicker()
		}
		apiError(c, err)
		return
	}

	if sessionID == sess.PickerSessionID {
		sess.ClearPicker()
	}
	c.JSON(http.StatusOK, gin.H{
		"state": res.State,
		"items": res.Items,
	})
}

type exportRequest struct {
	Title string `json:"title"`
}

// exportAlbums lists the first page of albums for an export request.
func (s *Server) exportAlbums(c *gin.Context) (string, string, []photos.Album, bool) {
	if s.exporter == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "export_disabled"})
		return "", "", nil, false
	}

	token, ok := s.accessToken(c, respondUnauthorized)
	if !ok {
		return "", "", nil, false
	}

	var req exportRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return "", "", nil, false
	}

	page, err := s.photos.ListAlbums(c.Request.Context(), token, photos.DefaultPageSize, "")
	if err != nil {
		apiError(c, err)
		return "", "", nil, false
	}
	return token, req.Title, page.Albums, true
}

func (s *Server) handleExportDocument(c *gin.Context) {
	token, title, albums, ok := s.exportAlbums(c)
	if !ok {
		return
	}

	doc, err := s.exporter.AlbumsToDocument(c.Request.Context(), token, title, albums)
	if err != nil {
		apiError(c, err)
		return
	}
	c.JSON(http.StatusCreated, doc)
}

func (s *Server) handleExportSpreadsheet(c *gin.Context) {
	token, title, albums, ok := s.exportAlbums(c)
	if !ok {
		return
	}

	sheet, err := s.exporter.AlbumsToSpreadsheet(c.Request.Context(), token, title, albums)
	if err != nil {
		apiError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sheet)
}
