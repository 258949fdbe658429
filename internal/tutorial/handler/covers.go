package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tutorhub/tutor-server/internal/storage"
	"github.com/tutorhub/tutor-server/pkg/logger"
)

const coverURLExpiry = 15 * time.Minute

func (h *Handler) uploadCover(c *gin.Context) {
	id := c.Param("id")
	ctx := c.Request.Context()
	if _, err := h.svc.Get(ctx, id); err != nil {
		fail(c, err)
		return
	}
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "file is required"})
		return
	}
	f, err := fh.Open()
	if err != nil {
		logger.Errorf("open upload: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "internal server error"})
		return
	}
	defer f.Close()

	key := storage.CoverKey(id, fh.Filename)
	contentType := fh.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	if err := h.covers.UploadFile(ctx, key, f, fh.Size, contentType); err != nil {
		fail(c, err)
		return
	}
	if err := h.svc.SetImage(ctx, id, key); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"image": key})
}

// cover redirects to a presigned URL for the tutorial's uploaded cover. Only
// object keys written by uploadCover are served; any other image value is
// treated as no cover.
func (h *Handler) cover(c *gin.Context) {
	id := c.Param("id")
	t, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	if !storage.IsCoverKey(id, t.Image) {
		c.JSON(http.StatusNotFound, gin.H{"message": "not found"})
		return
	}
	u, err := h.covers.GetPresignedURL(c.Request.Context(), t.Image, coverURLExpiry)
	if err != nil {
		fail(c, err)
		return
	}
	c.Redirect(http.StatusFound, u)
}
