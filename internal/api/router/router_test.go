package router

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"friendhub/internal/api/handler"
	"friendhub/internal/api/middleware"
	"friendhub/internal/config"
	"friendhub/internal/infra/database"
	"friendhub/internal/model"
	"friendhub/internal/repository"
	"friendhub/internal/service"
	"friendhub/internal/session"
	"friendhub/internal/storage"
	"friendhub/internal/thumbnail"
	"friendhub/internal/web"
	"friendhub/pkg/utils"

	"github.com/gin-gonic/gin"
)

const cookieName = "friendhub_session"

func newTestServer(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	dir := t.TempDir()

	db, err := database.Open(&config.DatabaseConfig{Driver: "sqlite", SQLitePath: filepath.Join(dir, "test.db")})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := database.AutoMigrate(db, &model.User{}, &model.Video{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	store, err := storage.NewLocalStorage(filepath.Join(dir, "uploads"), filepath.Join(dir, "thumbnails"))
	if err != nil {
		t.Fatalf("local storage: %v", err)
	}

	sessionCfg := &config.SessionConfig{Secret: "test-secret", CookieName: cookieName, TTLHours: 1}
	uploadCfg := &config.UploadConfig{MaxSize: 1 << 20, AllowedExts: []string{".mp4", ".webm"}, WorkDir: filepath.Join(dir, "work")}
	webCfg := &config.WebConfig{PlaceholderThumbnail: "https://placehold.co/400x225", Categories: []string{"Funny", "Music"}}

	userRepo := repository.NewUserRepository(db)
	videoRepo := repository.NewVideoRepository(db)
	authService := service.NewAuthService(userRepo, session.NewMemoryStore(time.Minute),
		utils.NewTokenManager("test-secret", "FriendHub", sessionCfg.TTL()))
	videoService := service.NewVideoService(videoRepo, userRepo, store, thumbnail.NopExtractor{}, uploadCfg)
	userService := service.NewUserService(userRepo, videoRepo)

	renderer, err := web.NewRenderer()
	if err != nil {
		t.Fatalf("renderer: %v", err)
	}

	r := gin.New()
	r.Use(middleware.Recovery())
	Setup(r, Options{Sessions: authService, CookieName: cookieName, MaxUploadSize: uploadCfg.MaxSize},
		handler.NewAuthHandler(authService),
		handler.NewVideoHandler(videoService, uploadCfg.MaxSize),
		handler.NewUserHandler(userService),
		handler.NewMediaHandler(store),
		web.NewHandler(authService, videoService, userService, renderer, sessionCfg, uploadCfg, webCfg),
	)
	return r
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func jsonRequest(method, path string, body any, token string) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func formRequest(path string, values url.Values, cookie *http.Cookie) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	return req
}

func uploadRequest(t *testing.T, path, title, filename string, content []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("title", title)
	_ = mw.WriteField("category", "Vlog")
	_ = mw.WriteField("description", "first upload")
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	_, _ = fw.Write(content)
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

// envelope 统一响应体
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   struct {
		Code int    `json:"code"`
		Type string `json:"type"`
	} `json:"error"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder, out any) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	if out != nil {
		if err := json.Unmarshal(env.Data, out); err != nil {
			t.Fatalf("decode data %s: %v", env.Data, err)
		}
	}
	return env
}

func sessionCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == cookieName && c.Value != "" {
			return c
		}
	}
	t.Fatalf("no %s cookie in response", cookieName)
	return nil
}

func TestJSONAPIEndToEnd(t *testing.T) {
	r := newTestServer(t)
	creds := map[string]string{"username": "alice", "password": "pw123"}

	if w := serve(r, jsonRequest(http.MethodPost, "/api/v1/auth/register", creds, "")); w.Code != http.StatusCreated {
		t.Fatalf("register status = %d, body = %s", w.Code, w.Body.String())
	}
	if w := serve(r, jsonRequest(http.MethodPost, "/api/v1/auth/register", creds, "")); w.Code != http.StatusConflict {
		t.Fatalf("duplicate register status = %d", w.Code)
	}

	bad := map[string]string{"username": "alice", "password": "wrong"}
	if w := serve(r, jsonRequest(http.MethodPost, "/api/v1/auth/login", bad, "")); w.Code != http.StatusUnauthorized {
		t.Fatalf("wrong password status = %d", w.Code)
	}

	w := serve(r, jsonRequest(http.MethodPost, "/api/v1/auth/login", creds, ""))
	if w.Code != http.StatusOK {
		t.Fatalf("login status = %d, body = %s", w.Code, w.Body.String())
	}
	var token struct {
		Token string `json:"token"`
		User  struct {
			Username string `json:"username"`
		} `json:"user"`
	}
	decode(t, w, &token)
	if token.Token == "" || token.User.Username != "alice" {
		t.Fatalf("unexpected login data: %+v", token)
	}

	w = serve(r, jsonRequest(http.MethodGet, "/api/v1/auth/me", nil, token.Token))
	if w.Code != http.StatusOK {
		t.Fatalf("me status = %d", w.Code)
	}

	// 未登录上传
	if w := serve(r, uploadRequest(t, "/api/v1/videos", "Demo", "demo.mp4", []byte("data"))); w.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous upload status = %d", w.Code)
	}

	// 不允许的扩展名
	req := uploadRequest(t, "/api/v1/videos", "Demo", "demo.exe", []byte("data"))
	req.Header.Set("Authorization", "Bearer "+token.Token)
	if w := serve(r, req); w.Code != http.StatusBadRequest {
		t.Fatalf("bad extension status = %d", w.Code)
	}

	req = uploadRequest(t, "/api/v1/videos", "Demo", "demo.mp4", []byte("fake mp4 bytes"))
	req.Header.Set("Authorization", "Bearer "+token.Token)
	w = serve(r, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("upload status = %d, body = %s", w.Code, w.Body.String())
	}
	var video struct {
		ID        string `json:"id"`
		Title     string `json:"title"`
		ViewCount int64  `json:"view_count"`
		VideoURL  string `json:"video_url"`
	}
	decode(t, w, &video)
	if video.ViewCount != 0 || video.Title != "Demo" {
		t.Fatalf("unexpected uploaded video: %+v", video)
	}

	for want := int64(1); want <= 2; want++ {
		w = serve(r, jsonRequest(http.MethodGet, "/api/v1/videos/"+video.ID, nil, ""))
		if w.Code != http.StatusOK {
			t.Fatalf("get status = %d", w.Code)
		}
		decode(t, w, &video)
		if video.Title != "Demo" || video.ViewCount != want {
			t.Fatalf("fetch %d: got %+v", want, video)
		}
	}

	w = serve(r, httptest.NewRequest(http.MethodGet, video.VideoURL, nil))
	if w.Code != http.StatusOK || w.Body.String() != "fake mp4 bytes" {
		t.Fatalf("media status = %d, body = %q", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "video/mp4" {
		t.Fatalf("media content type = %q", ct)
	}

	// 其他用户无权删除
	bob := map[string]string{"username": "bob", "password": "pw456"}
	serve(r, jsonRequest(http.MethodPost, "/api/v1/auth/register", bob, ""))
	var bobToken struct {
		Token string `json:"token"`
	}
	decode(t, serve(r, jsonRequest(http.MethodPost, "/api/v1/auth/login", bob, "")), &bobToken)
	if w := serve(r, jsonRequest(http.MethodDelete, "/api/v1/videos/"+video.ID, nil, bobToken.Token)); w.Code != http.StatusForbidden {
		t.Fatalf("non-owner delete status = %d", w.Code)
	}

	if w := serve(r, jsonRequest(http.MethodDelete, "/api/v1/videos/"+video.ID, nil, token.Token)); w.Code != http.StatusOK {
		t.Fatalf("delete status = %d, body = %s", w.Code, w.Body.String())
	}
	w = serve(r, jsonRequest(http.MethodGet, "/api/v1/videos/"+video.ID, nil, ""))
	if w.Code != http.StatusNotFound {
		t.Fatalf("get after delete status = %d", w.Code)
	}
	if env := decode(t, w, nil); env.Error.Type != "NotFound" {
		t.Fatalf("error type = %q", env.Error.Type)
	}

	// 注销后令牌失效
	if w := serve(r, jsonRequest(http.MethodPost, "/api/v1/auth/logout", nil, token.Token)); w.Code != http.StatusOK {
		t.Fatalf("logout status = %d", w.Code)
	}
	if w := serve(r, jsonRequest(http.MethodGet, "/api/v1/auth/me", nil, token.Token)); w.Code != http.StatusUnauthorized {
		t.Fatalf("me after logout status = %d", w.Code)
	}
}

func TestHTMLEndToEnd(t *testing.T) {
	r := newTestServer(t)
	creds := url.Values{"username": {"alice"}, "password": {"pw123"}}

	w := serve(r, formRequest("/register", creds, nil))
	if w.Code != http.StatusFound || w.Header().Get("Location") != "/login" {
		t.Fatalf("register: status = %d, location = %q", w.Code, w.Header().Get("Location"))
	}

	w = serve(r, formRequest("/login", url.Values{"username": {"alice"}, "password": {"nope"}}, nil))
	if w.Code != http.StatusUnauthorized || !strings.Contains(w.Body.String(), "用户名或密码错误") {
		t.Fatalf("bad login: status = %d", w.Code)
	}

	w = serve(r, formRequest("/login", creds, nil))
	if w.Code != http.StatusFound {
		t.Fatalf("login status = %d", w.Code)
	}
	cookie := sessionCookie(t, w)

	// 未登录访问上传页跳转登录
	w = serve(r, httptest.NewRequest(http.MethodGet, "/upload", nil))
	if w.Code != http.StatusFound || !strings.HasPrefix(w.Header().Get("Location"), "/login") {
		t.Fatalf("anonymous upload form: status = %d", w.Code)
	}

	req := uploadRequest(t, "/upload", "Demo", "demo.mp4", []byte("fake mp4 bytes"))
	req.AddCookie(cookie)
	w = serve(r, req)
	if w.Code != http.StatusFound {
		t.Fatalf("upload status = %d, body = %s", w.Code, w.Body.String())
	}

	var list struct {
		Videos []struct {
			ID string `json:"id"`
		} `json:"videos"`
	}
	decode(t, serve(r, httptest.NewRequest(http.MethodGet, "/api/v1/videos?q=demo", nil)), &list)
	if len(list.Videos) != 1 {
		t.Fatalf("expected one video, got %+v", list)
	}
	id := list.Videos[0].ID

	w = serve(r, httptest.NewRequest(http.MethodGet, "/?category=Vlog", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "Demo") {
		t.Fatalf("index status = %d", w.Code)
	}

	for _, want := range []string{"1 次观看", "2 次观看"} {
		req := httptest.NewRequest(http.MethodGet, "/video/"+id, nil)
		req.AddCookie(cookie)
		w = serve(r, req)
		body := w.Body.String()
		if w.Code != http.StatusOK || !strings.Contains(body, "Demo") || !strings.Contains(body, want) {
			t.Fatalf("video page: status = %d, want %q in body", w.Code, want)
		}
		if !strings.Contains(body, "/delete/"+id) {
			t.Fatal("owner should see the delete button")
		}
		if !strings.Contains(body, "https://placehold.co/400x225") {
			t.Fatal("video without thumbnail should use the placeholder")
		}
	}

	w = serve(r, httptest.NewRequest(http.MethodGet, "/profile/alice", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "Demo") {
		t.Fatalf("profile status = %d", w.Code)
	}
	if w := serve(r, httptest.NewRequest(http.MethodGet, "/profile/ghost", nil)); w.Code != http.StatusNotFound {
		t.Fatalf("unknown profile status = %d", w.Code)
	}

	w = serve(r, formRequest("/delete/"+id, url.Values{}, cookie))
	if w.Code != http.StatusFound || w.Header().Get("Location") != "/profile/alice" {
		t.Fatalf("delete: status = %d, location = %q", w.Code, w.Header().Get("Location"))
	}

	if w := serve(r, httptest.NewRequest(http.MethodGet, "/video/"+id, nil)); w.Code != http.StatusNotFound {
		t.Fatalf("video after delete status = %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/logout", nil)
	req.AddCookie(cookie)
	if w := serve(r, req); w.Code != http.StatusFound {
		t.Fatalf("logout status = %d", w.Code)
	}
	req = httptest.NewRequest(http.MethodGet, "/upload", nil)
	req.AddCookie(cookie)
	if w := serve(r, req); w.Code != http.StatusFound {
		t.Fatalf("upload form after logout status = %d, want redirect", w.Code)
	}
}

func TestNoRoute(t *testing.T) {
	r := newTestServer(t)

	w := serve(r, httptest.NewRequest(http.MethodGet, "/api/v1/nope", nil))
	if w.Code != http.StatusNotFound || !strings.Contains(w.Body.String(), `"NotFound"`) {
		t.Fatalf("api no route: %d %s", w.Code, w.Body.String())
	}
	w = serve(r, httptest.NewRequest(http.MethodGet, "/nope", nil))
	if w.Code != http.StatusNotFound || !strings.Contains(w.Header().Get("Content-Type"), "text/html") {
		t.Fatalf("page no route: %d %s", w.Code, w.Header().Get("Content-Type"))
	}
}
