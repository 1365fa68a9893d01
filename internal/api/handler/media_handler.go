package handler

import (
	"errors"
	"net/http"

	"friendhub/internal/storage"
	"friendhub/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// MediaHandler 转发存储中的视频和缩略图，支持 Range 请求
type MediaHandler struct {
	store storage.Storage
}

func NewMediaHandler(store storage.Storage) *MediaHandler {
	return &MediaHandler{store: store}
}

// Serve 返回某一类文件的处理函数，路由参数名为 file
func (h *MediaHandler) Serve(kind storage.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		name := c.Param("file")

		obj, err := h.store.Open(c.Request.Context(), kind, name)
		if err != nil {
			if errors.Is(err, storage.ErrObjectNotFound) || errors.Is(err, storage.ErrInvalidName) {
				c.String(http.StatusNotFound, "文件不存在")
				return
			}
			logger.Error("Open media failed", zap.String("kind", string(kind)), zap.String("file", name), zap.Error(err))
			c.String(http.StatusInternalServerError, "读取文件失败")
			return
		}
		defer obj.Body.Close()

		if obj.ContentType != "" {
			c.Header("Content-Type", obj.ContentType)
		}
		c.Header("Cache-Control", "public, max-age=3600")
		http.ServeContent(c.Writer, c.Request, name, obj.ModTime, obj.Body)
	}
}
