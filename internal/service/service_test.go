package service

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"friendhub/internal/api/dto"
	"friendhub/internal/config"
	"friendhub/internal/infra/database"
	infraKafka "friendhub/internal/infra/kafka"
	"friendhub/internal/model"
	"friendhub/internal/repository"
	"friendhub/internal/session"
	"friendhub/internal/storage"
	"friendhub/pkg/utils"

	"gorm.io/gorm"
)

// stubExtractor 测试用缩略图提取器，ok 为 true 时写出一个假的 JPEG
type stubExtractor struct {
	ok    bool
	calls int
}

func (e *stubExtractor) Extract(_ context.Context, _ string, thumbPath string) bool {
	e.calls++
	if !e.ok {
		return false
	}
	return os.WriteFile(thumbPath, []byte("\xff\xd8\xff fake jpeg"), 0644) == nil
}

// recordingPublisher 记录发布的事件
type recordingPublisher struct {
	events []*infraKafka.VideoEvent
}

func (p *recordingPublisher) PublishVideoEvent(_ context.Context, event *infraKafka.VideoEvent) error {
	p.events = append(p.events, event)
	return nil
}

type testEnv struct {
	db           *gorm.DB
	userRepo     *repository.UserRepository
	videoRepo    *repository.VideoRepository
	uploadDir    string
	thumbnailDir string
	extractor    *stubExtractor
	auth         *AuthService
	videos       *VideoService
	users        *UserService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()

	db, err := database.Open(&config.DatabaseConfig{
		Driver:     "sqlite",
		SQLitePath: filepath.Join(dir, "test.db"),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := database.AutoMigrate(db, &model.User{}, &model.Video{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	env := &testEnv{
		db:           db,
		userRepo:     repository.NewUserRepository(db),
		videoRepo:    repository.NewVideoRepository(db),
		uploadDir:    filepath.Join(dir, "uploads"),
		thumbnailDir: filepath.Join(dir, "thumbnails"),
		extractor:    &stubExtractor{ok: true},
	}

	store, err := storage.NewLocalStorage(env.uploadDir, env.thumbnailDir)
	if err != nil {
		t.Fatalf("local storage: %v", err)
	}

	uploadCfg := &config.UploadConfig{
		MaxSize:     1 << 20,
		AllowedExts: []string{".mp4", ".webm", ".mov"},
		WorkDir:     filepath.Join(dir, "work"),
	}

	env.auth = NewAuthService(env.userRepo, session.NewMemoryStore(time.Minute),
		utils.NewTokenManager("test-secret", "FriendHub", time.Hour))
	env.videos = NewVideoService(env.videoRepo, env.userRepo, store, env.extractor, uploadCfg)
	env.users = NewUserService(env.userRepo, env.videoRepo)
	return env
}

func (e *testEnv) register(t *testing.T, username string) {
	t.Helper()
	if _, err := e.auth.Register(&dto.RegisterRequest{Username: username, Password: "pw123"}); err != nil {
		t.Fatalf("register %s: %v", username, err)
	}
}

func (e *testEnv) upload(t *testing.T, uploader, title, category string) *dto.VideoInfo {
	t.Helper()
	content := []byte("fake video content")
	video, err := e.videos.Upload(context.Background(), uploader,
		&dto.VideoUploadRequest{Title: title, Category: category},
		"clip.mp4", bytes.NewReader(content), int64(len(content)))
	if err != nil {
		t.Fatalf("upload %s: %v", title, err)
	}
	return video
}

func (e *testEnv) countVideos(t *testing.T) int64 {
	t.Helper()
	var n int64
	if err := e.db.Model(&model.Video{}).Count(&n).Error; err != nil {
		t.Fatalf("count videos: %v", err)
	}
	return n
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
