package share

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/aslanbek/filevault/internal/auth"
	"github.com/aslanbek/filevault/internal/file"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const redirectTTL = 30 * time.Minute

// RegisterRoutes mounts owner-facing share management endpoints.
func RegisterRoutes(group *gin.RouterGroup, service *Service) {
	handler := &httpHandler{service: service}
	group.POST("/files/:fileID/share", handler.createShare)
	group.DELETE("/files/:fileID/share", handler.revokeShare)
}

// RegisterPublicRoutes mounts the unauthenticated token-download endpoint.
func RegisterPublicRoutes(router *gin.Engine, service *Service) {
	handler := &httpHandler{service: service}
	router.GET("/shared/:token", handler.downloadShared)
}

type httpHandler struct {
	service *Service
}

func (h *httpHandler) createShare(c *gin.Context) {
	userID, ok := auth.RequireUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	fileID, err := uuid.Parse(c.Param("fileID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid file id"})
		return
	}

	link, err := h.service.Create(c.Request.Context(), userID, fileID)
	if err != nil {
		switch err {
		case file.ErrFileNotFound:
			c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
		case file.ErrForbidden:
			c.JSON(http.StatusForbidden, gin.H{"error": "access denied"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to share file"})
		}
		return
	}

	c.JSON(http.StatusCreated, link)
}

func (h *httpHandler) revokeShare(c *gin.Context) {
	userID, ok := auth.RequireUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	fileID, err := uuid.Parse(c.Param("fileID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid file id"})
		return
	}

	if err := h.service.Revoke(c.Request.Context(), userID, fileID); err != nil {
		switch err {
		case file.ErrFileNotFound:
			c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to revoke share"})
		}
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *httpHandler) downloadShared(c *gin.Context) {
	token := c.Param("token")

	rec, err := h.service.Resolve(c.Request.Context(), token)
	if err != nil {
		switch err {
		case file.ErrFileNotFound:
			c.JSON(http.StatusNotFound, gin.H{"error": "file not found or no longer shared"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to resolve share"})
		}
		return
	}

	h.service.RecordDownload(c.Request.Context(), rec.ID)

	// Bucket-stored objects are served by the object store directly.
	if signed, ok := h.service.RedirectURL(c.Request.Context(), rec, redirectTTL); ok {
		c.Redirect(http.StatusFound, signed)
		return
	}

	reader, err := h.service.OpenBytes(c.Request.Context(), rec)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to open shared file"})
		return
	}
	defer reader.Close()

	c.Header("Content-Type", rec.MimeType)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", rec.OriginalName))
	c.Header("Content-Length", fmt.Sprintf("%d", rec.SizeBytes))

	if _, err := io.Copy(c.Writer, reader); err != nil {
		c.Status(http.StatusInternalServerError)
		return
	}
}
