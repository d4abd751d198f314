package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/imrishuroy/merch-order-admin/internal/blob"
	"github.com/imrishuroy/merch-order-admin/internal/logging"
)

const imageCacheControl = "public, max-age=31536000, immutable"

// RegisterImageRoutes registers the payment screenshot proxy.
func RegisterImageRoutes(r gin.IRouter, cfg HandlerConfig) {
	r.GET("/image", func(c *gin.Context) {
		key := strings.TrimSpace(c.Query("key"))
		if key == "" {
			fail(c, http.StatusBadRequest, "Missing image key")
			return
		}

		obj, err := cfg.Blobs.Get(c.Request.Context(), key)
		if err != nil {
			if errors.Is(err, blob.ErrNotFound) {
				fail(c, http.StatusNotFound, "Image not found")
				return
			}
			logging.WithContext(c.Request.Context(), cfg.Logger).Error("image fetch failed", zap.String("key", key), zap.Error(err))
			fail(c, http.StatusInternalServerError, "Failed to fetch image")
			return
		}

		contentType := obj.ContentType
		if contentType == "" {
			contentType = "image/jpeg"
		}
		c.Header("Cache-Control", imageCacheControl)
		c.Data(http.StatusOK, contentType, obj.Body)
	})
}
