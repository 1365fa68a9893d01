package middleware

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"friendhub/internal/api/response"
	"friendhub/internal/session"

	"github.com/gin-gonic/gin"
)

const (
	ContextKeyUsername  = "currentUsername"
	ContextKeySessionID = "currentSessionID"
)

// SessionResolver 根据令牌解析会话
type SessionResolver interface {
	Authenticate(ctx context.Context, token string) (*session.Session, error)
}

// LoadSession 尝试从 Bearer 头或会话 Cookie 中恢复登录状态，未登录时不拦截
func LoadSession(resolver SessionResolver, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c, cookieName)
		if token != "" {
			if sess, err := resolver.Authenticate(c.Request.Context(), token); err == nil {
				c.Set(ContextKeyUsername, sess.Username)
				c.Set(ContextKeySessionID, sess.ID)
			}
		}
		c.Next()
	}
}

// AuthRequired JSON 接口认证中间件（必须在 LoadSession 之后使用）
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := GetCurrentUsername(c); !ok {
			response.Unauthorized(c, "请先登录")
			c.Abort()
			return
		}
		c.Next()
	}
}

// LoginRequired 页面认证中间件，未登录时跳转登录页并带上原地址
func LoginRequired(loginPath string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := GetCurrentUsername(c); !ok {
			target := loginPath
			if c.Request.Method == http.MethodGet {
				target += "?next=" + url.QueryEscape(c.Request.URL.RequestURI())
			} else {
				target += "?next=" + url.QueryEscape("/")
			}
			c.Redirect(http.StatusFound, target)
			c.Abort()
			return
		}
		c.Next()
	}
}

// GetCurrentUsername 从 Gin Context 中获取当前登录用户名
func GetCurrentUsername(c *gin.Context) (string, bool) {
	val, exists := c.Get(ContextKeyUsername)
	if !exists {
		return "", false
	}
	username, ok := val.(string)
	return username, ok && username != ""
}

// GetSessionID 从 Gin Context 中获取当前会话 ID
func GetSessionID(c *gin.Context) string {
	return c.GetString(ContextKeySessionID)
}

// extractToken 优先取 Authorization: Bearer，其次取会话 Cookie
func extractToken(c *gin.Context, cookieName string) string {
	if authHeader := c.GetHeader("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return strings.TrimSpace(parts[1])
		}
	}

	if cookieName == "" {
		return ""
	}
	token, err := c.Cookie(cookieName)
	if err != nil {
		return ""
	}
	return token
}
