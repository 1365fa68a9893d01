package web

import (
	"encoding/gob"
	"net/http"

	"friendhub/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"
)

const flashCookieName = "friendhub_flash"

func init() {
	gob.Register(Flash{})
}

// Flash 一次性提示消息，Kind 为 success 或 error
type Flash struct {
	Kind    string
	Message string
}

func (f Flash) AlertClass() string {
	if f.Kind == "success" {
		return "success"
	}
	return "warning"
}

// flashStore 用签名 Cookie 携带提示消息，下一次页面渲染时展示并清除
type flashStore struct {
	store *sessions.CookieStore
}

func newFlashStore(secret string, secure bool) *flashStore {
	store := sessions.NewCookieStore([]byte(secret))
	store.Options = &sessions.Options{
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return &flashStore{store: store}
}

// add 追加一条提示，同一请求内多次调用会累积
func (f *flashStore) add(c *gin.Context, kind, message string) {
	// 旧 Cookie 无法解码时 Get 仍返回一个新会话
	sess, _ := f.store.Get(c.Request, flashCookieName)
	sess.AddFlash(Flash{Kind: kind, Message: message})
	if err := sess.Save(c.Request, c.Writer); err != nil {
		logger.Warn("Save flash failed", zap.Error(err))
	}
}

// pop 读取并清除提示
func (f *flashStore) pop(c *gin.Context) []Flash {
	if _, err := c.Cookie(flashCookieName); err != nil {
		return nil
	}
	sess, err := f.store.Get(c.Request, flashCookieName)
	if err != nil {
		return nil
	}

	values := sess.Flashes()
	if len(values) == 0 {
		return nil
	}
	flashes := make([]Flash, 0, len(values))
	for _, v := range values {
		if fl, ok := v.(Flash); ok {
			flashes = append(flashes, fl)
		}
	}

	sess.Options.MaxAge = -1
	if err := sess.Save(c.Request, c.Writer); err != nil {
		logger.Warn("Clear flash failed", zap.Error(err))
	}
	return flashes
}
