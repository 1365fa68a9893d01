package middleware

import (
	"net/http"
	"strings"

	"friendhub/internal/api/response"
	"friendhub/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Recovery 恢复中间件，捕获panic；JSON 接口返回统一错误体，页面返回纯文本
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logger.Error("Panic recovered",
					zap.Any("error", err),
					zap.String("path", c.Request.URL.Path),
					zap.String("method", c.Request.Method),
					zap.Stack("stack"),
				)

				if strings.HasPrefix(c.Request.URL.Path, "/api/") {
					response.InternalError(c, "服务器内部错误")
				} else {
					c.String(http.StatusInternalServerError, "服务器内部错误")
				}
				c.Abort()
			}
		}()

		c.Next()
	}
}
