package web

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestSafeNext(t *testing.T) {
	tests := []struct {
		next string
		want string
	}{
		{"/upload", "/upload"},
		{"/video/abc?x=1", "/video/abc?x=1"},
		{"", ""},
		{"https://evil.example", ""},
		{"//evil.example", ""},
		{`/\evil.example`, ""},
		{"upload", ""},
	}
	for _, tt := range tests {
		if got := safeNext(tt.next); got != tt.want {
			t.Errorf("safeNext(%q) = %q, want %q", tt.next, got, tt.want)
		}
	}
}

func lastCookie(w *httptest.ResponseRecorder, name string) *http.Cookie {
	var found *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == name {
			found = c
		}
	}
	return found
}

func TestFlashRoundTrip(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := newFlashStore("test-secret", false)

	// 同一请求内多次写入会累积
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/login", nil)
	store.add(c, "success", "登录成功")
	store.add(c, "error", "第二条")

	cookie := lastCookie(w, flashCookieName)
	if cookie == nil || cookie.Value == "" {
		t.Fatal("expected flash cookie")
	}

	// 下一个请求读取后清除
	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Request.AddCookie(cookie)

	flashes := store.pop(c)
	if len(flashes) != 2 || flashes[0].Message != "登录成功" || flashes[1].Kind != "error" {
		t.Fatalf("unexpected flashes: %+v", flashes)
	}
	if flashes[0].AlertClass() != "success" || flashes[1].AlertClass() != "warning" {
		t.Fatalf("unexpected alert classes: %q %q", flashes[0].AlertClass(), flashes[1].AlertClass())
	}
	cleared := lastCookie(w, flashCookieName)
	if cleared == nil || cleared.MaxAge >= 0 {
		t.Fatalf("flash cookie should be cleared, got %+v", cleared)
	}
}

func TestFlashRejectsForeignCookie(t *testing.T) {
	gin.SetMode(gin.TestMode)

	// 其他密钥签名的 Cookie 不被接受
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", nil)
	newFlashStore("other-secret", false).add(c, "success", "伪造")
	forged := lastCookie(w, flashCookieName)
	if forged == nil {
		t.Fatal("expected flash cookie")
	}

	for _, cookie := range []*http.Cookie{forged, {Name: flashCookieName, Value: "not-a-signed-value"}} {
		w = httptest.NewRecorder()
		c, _ = gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
		c.Request.AddCookie(cookie)
		if flashes := newFlashStore("test-secret", false).pop(c); flashes != nil {
			t.Fatalf("expected no flashes, got %+v", flashes)
		}
	}
}

func TestRendererRendersErrorPage(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r, err := NewRenderer()
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/missing", nil)
	r.Render(c, http.StatusNotFound, "error", ErrorPage{
		Layout:  Layout{Title: "Not Found"},
		Status:  http.StatusNotFound,
		Message: "页面不存在",
	})

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d", w.Code)
	}
	if body := w.Body.String(); !containsAll(body, "页面不存在", "FriendHub") {
		t.Fatalf("unexpected body: %s", body)
	}
}

func containsAll(s string, subs ...string) bool {
	for _, sub := range subs {
		if !strings.Contains(s, sub) {
			return false
		}
	}
	return true
}
