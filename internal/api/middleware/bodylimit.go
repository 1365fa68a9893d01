package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// multipartOverhead 给表单字段和 multipart 边界预留的字节数
const multipartOverhead = 1 << 20

// BodyLimit 限制请求体大小，超出时读取请求体会返回 *http.MaxBytesError
func BodyLimit(maxFileSize int64) gin.HandlerFunc {
	limit := maxFileSize + multipartOverhead
	return func(c *gin.Context) {
		if c.Request.ContentLength > limit {
			c.Header("Connection", "close")
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		c.Next()
	}
}

// IsBodyTooLarge 判断错误是否由 BodyLimit 触发
func IsBodyTooLarge(err error) bool {
	if err == nil {
		return false
	}
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return true
	}
	// multipart 解析会丢掉原始错误类型，只能比对文本
	return strings.Contains(err.Error(), "request body too large")
}
