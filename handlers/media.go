package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gazra/gazra/backend/go-services/internal/media"
	"github.com/gazra/gazra/backend/go-services/internal/site"
	"github.com/gazra/gazra/backend/go-services/pkg/logger"
)

// MediaHandler uploads images for the admin and redirects visitors to
// short-lived download URLs.
type MediaHandler struct {
	svc *media.Service
}

func NewMediaHandler(svc *media.Service) *MediaHandler {
	return &MediaHandler{svc: svc}
}

// RegisterPublic registers GET /media/*key.
func (h *MediaHandler) RegisterPublic(r gin.IRouter) {
	r.GET("/media/*key", h.Redirect)
}

// RegisterAdmin registers upload and removal under the admin group.
func (h *MediaHandler) RegisterAdmin(rg *gin.RouterGroup) {
	rg.POST("/media", h.Upload)
	rg.DELETE("/media/*key", h.Remove)
}

func (h *MediaHandler) available(c *gin.Context) bool {
	if h == nil || h.svc == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "media storage not configured"})
		return false
	}
	return true
}

// Upload expects a multipart form with a "file" part and an optional
// "collection" naming the folder.
func (h *MediaHandler) Upload(c *gin.Context) {
	if !h.available(c) {
		return
	}
	folder := c.PostForm("collection")
	if folder != "" {
		if _, ok := site.Lookup(folder); !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown collection"})
			return
		}
	}
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	defer f.Close()

	key, err := h.svc.Upload(c.Request.Context(), folder, f, fh.Size, fh.Header.Get("Content-Type"))
	switch {
	case errors.Is(err, media.ErrUnsupportedType), errors.Is(err, media.ErrTooLarge):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case err != nil:
		logger.Errorf("media upload failed: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "upload failed"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"key": key, "url": "/media/" + key})
}

// Redirect sends the visitor to a presigned URL for the object.
func (h *MediaHandler) Redirect(c *gin.Context) {
	if !h.available(c) {
		return
	}
	u, err := h.svc.URL(c.Request.Context(), c.Param("key"))
	if errors.Is(err, media.ErrBadKey) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.Redirect(http.StatusFound, u)
}

func (h *MediaHandler) Remove(c *gin.Context) {
	if !h.available(c) {
		return
	}
	err := h.svc.Remove(c.Request.Context(), c.Param("key"))
	if errors.Is(err, media.ErrBadKey) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}
